package portal

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/logger"
	"github.com/spigell/career-advisor/internal/utils"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"

	// RequestIDHeader correlates a client call with backend logs.
	RequestIDHeader = "X-Request-ID"

	maxErrorPreview = 200

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 8 << 20
)

// ErrResponseTooLarge is returned when a body exceeds MaxResponseSize.
var ErrResponseTooLarge = errors.New("response body too large")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Status     string
	// Detail is the FastAPI "detail" field when the body carried one.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("bad status: %s: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("bad status: %s", e.Status)
}

// Detail extracts the backend detail message from err, if any.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// IsStatus reports whether err is an APIError with one of the given codes.
func IsStatus(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}
	return false
}

// File is a single multipart file part.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// GetJSON makes a GET request to the backend and decodes the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return err
	}

	return c.do(req, target)
}

// PostJSON sends payload as JSON and decodes the answer into target.
func (c *Client) PostJSON(ctx context.Context, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	return c.do(req, target)
}

// PostMultipart uploads a file as multipart/form-data and decodes the answer into target.
func (c *Client) PostMultipart(ctx context.Context, path string, file File, target any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
	if file.ContentType != "" {
		h.Set("Content-Type", file.ContentType)
	}

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}

	if _, err = io.Copy(part, bytes.NewReader(file.Data)); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), &b)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	requestID := c.setHeaders(req)

	log := c.logger.With(zap.String(logger.FieldRequestID, requestID))
	log.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(io.LimitReader(reader, MaxResponseSize+1))
	if err != nil {
		return err
	}
	if len(data) > MaxResponseSize {
		return fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Detail: parseDetail(data)}
		log.Debug("got error response",
			zap.Int("status", resp.StatusCode),
			zap.String("body_preview", utils.TruncateForLog(string(data), maxErrorPreview)),
		)
		return apiErr
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) string {
	requestID := uuid.NewString()

	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("Accept", contentType)
	req.Header.Set(RequestIDHeader, requestID)

	return requestID
}

// parseDetail reads the FastAPI error body. Validation errors carry a list
// of objects in "detail"; only their first message is kept.
func parseDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(body.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil && len(items) > 0 {
		return utils.FirstLine(items[0].Msg)
	}

	return ""
}
