package advisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// JobSummary is the display projection of a recommended job.
type JobSummary struct {
	ID    string `json:"id" mapstructure:"id"`
	Title string `json:"title" mapstructure:"title"`
	City  string `json:"city" mapstructure:"city"`
}

func (j JobSummary) String() string {
	return fmt.Sprintf("%s - %s", j.Title, j.City)
}

// Analysis is the outcome of an intake call.
type Analysis struct {
	SessionID       string
	Analysis        string
	RecommendedJobs []JobSummary
}

type ChatReply struct {
	Response  string
	SessionID string
}

type SessionInfo struct {
	SessionID          string
	CreatedAt          time.Time
	ConversationLength int
}

type pasteRequest struct {
	ResumeText string  `json:"resume_text"`
	SessionID  *string `json:"session_id"`
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  *string `json:"response"`
	SessionID string  `json:"session_id"`
}

type analysisResponse struct {
	SessionID       string  `json:"session_id"`
	Analysis        *string `json:"analysis"`
	RecommendedJobs []any   `json:"recommended_jobs"`
}

type sessionResponse struct {
	SessionID           string           `json:"session_id"`
	CreatedAt           string           `json:"created_at"`
	ConversationHistory []map[string]any `json:"conversation_history"`
}

func (s sessionResponse) toInfo() *SessionInfo {
	info := &SessionInfo{
		SessionID:          s.SessionID,
		ConversationLength: len(s.ConversationHistory),
	}

	if created, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s.CreatedAt)); err == nil {
		info.CreatedAt = created
	}

	return info
}

// decodeJobs accepts the backend's full job records as well as bare
// summaries. Ids may arrive as strings or numbers.
func decodeJobs(items []any) ([]JobSummary, error) {
	jobs := make([]JobSummary, 0, len(items))
	if len(items) == 0 {
		return jobs, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &jobs,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(items); err != nil {
		return nil, err
	}

	return jobs, nil
}
