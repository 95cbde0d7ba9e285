package advisor

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrInvalidFileType = errors.New("please upload a PDF or DOCX file")
	ErrEmptyResume     = errors.New("please paste your resume text")
	ErrEmptyMessage    = errors.New("message must not be empty")
)

var allowedContentTypes = map[string]bool{
	ContentTypePDF:  true,
	ContentTypeDOCX: true,
}

// Resume is a resume file picked for upload.
type Resume struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AllowedContentType reports whether the service accepts the MIME type.
func AllowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return allowedContentTypes[ct]
}

func (r Resume) Validate() error {
	if !AllowedContentType(r.ContentType) {
		return fmt.Errorf("%w: got %q", ErrInvalidFileType, r.ContentType)
	}
	return nil
}

// DetectContentType picks a MIME type from the file extension only, the same
// way the service decides whether it can extract text. Content that looks
// like a PDF under another name is not accepted.
func DetectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return ContentTypePDF
	case ".docx":
		return ContentTypeDOCX
	}

	if ct := mime.TypeByExtension(ext); ct != "" && !AllowedContentType(ct) {
		return ct
	}
	return "application/octet-stream"
}

// ReadResume loads a resume from disk and detects its content type. It does
// not validate the type; that is the caller's decision.
func ReadResume(path string) (Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Resume{}, fmt.Errorf("reading resume %q: %w", path, err)
	}

	name := filepath.Base(path)
	return Resume{
		Filename:    name,
		ContentType: DetectContentType(name),
		Data:        data,
	}, nil
}
