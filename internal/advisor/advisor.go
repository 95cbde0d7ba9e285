// Package advisor is the client side of the recommendation/chat service:
// resume intake (upload or paste) and turn-by-turn chat against a
// server-held session.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/logger"
	"github.com/spigell/career-advisor/internal/portal"
	"github.com/spigell/career-advisor/internal/utils"
)

const (
	uploadResumePath = "/api/chatbot/upload-resume"
	pasteResumePath  = "/api/chatbot/paste-resume"
	chatPath         = "/api/chatbot/chat"
	sessionsPath     = "/api/chatbot/sessions"
	healthPath       = "/api/health"

	uploadField = "resume"

	defaultMaxLogLength = 120
)

var (
	// ErrMissingSession is returned when an intake answer carries no session id.
	ErrMissingSession = errors.New("response has no session_id")
	// ErrMalformedResponse is returned for a 2xx answer lacking a required field.
	ErrMalformedResponse = errors.New("malformed response")
)

// Service is the recommendation/chat service as seen by the widget.
type Service interface {
	UploadResume(ctx context.Context, resume Resume) (*Analysis, error)
	PasteResume(ctx context.Context, text, sessionID string) (*Analysis, error)
	Chat(ctx context.Context, message, sessionID string) (*ChatReply, error)
}

type Client struct {
	portal    *portal.Client
	logger    *zap.Logger
	maxLogLen int
}

func New(p *portal.Client, maxLogLength int) *Client {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Client{
		portal:    p,
		logger:    p.Logger(),
		maxLogLen: maxLogLength,
	}
}

func (c *Client) UploadResume(ctx context.Context, resume Resume) (*Analysis, error) {
	if err := resume.Validate(); err != nil {
		return nil, err
	}

	var raw analysisResponse
	err := c.portal.PostMultipart(ctx, uploadResumePath, portal.File{
		Field:       uploadField,
		Filename:    resume.Filename,
		ContentType: resume.ContentType,
		Data:        resume.Data,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}

	return c.analysis(&raw)
}

func (c *Client) PasteResume(ctx context.Context, text, sessionID string) (*Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResume
	}

	req := pasteRequest{ResumeText: text}
	if sessionID != "" {
		req.SessionID = &sessionID
	}

	var raw analysisResponse
	if err := c.portal.PostJSON(ctx, pasteResumePath, req, &raw); err != nil {
		return nil, fmt.Errorf("paste resume: %w", err)
	}

	return c.analysis(&raw)
}

func (c *Client) Chat(ctx context.Context, message, sessionID string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		return nil, ErrMissingSession
	}

	c.logger.Debug("chat request",
		zap.String(logger.FieldSessionID, sessionID),
		zap.String("message_preview", utils.TruncateForLog(message, c.maxLogLen)),
	)

	var raw chatResponse
	if err := c.portal.PostJSON(ctx, chatPath, chatRequest{Message: message, SessionID: sessionID}, &raw); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	if raw.Response == nil {
		return nil, fmt.Errorf("chat: %w: no response", ErrMalformedResponse)
	}

	reply := ChatReply{Response: *raw.Response, SessionID: raw.SessionID}
	if reply.SessionID == "" {
		reply.SessionID = sessionID
	}

	c.logger.Debug("chat response",
		zap.String(logger.FieldSessionID, reply.SessionID),
		zap.String("response_preview", utils.TruncateForLog(reply.Response, c.maxLogLen)),
	)

	return &reply, nil
}

// Sessions lists the caller's previous advisor sessions.
func (c *Client) Sessions(ctx context.Context) ([]*SessionInfo, error) {
	var raw []sessionResponse
	if err := c.portal.GetJSON(ctx, sessionsPath, &raw); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]*SessionInfo, 0, len(raw))
	for _, s := range raw {
		sessions = append(sessions, s.toInfo())
	}

	return sessions, nil
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.portal.GetJSON(ctx, healthPath, &resp); err != nil {
		return "", fmt.Errorf("health: %w", err)
	}

	return resp.Status, nil
}

func (c *Client) analysis(raw *analysisResponse) (*Analysis, error) {
	if strings.TrimSpace(raw.SessionID) == "" {
		return nil, ErrMissingSession
	}
	if raw.Analysis == nil {
		return nil, fmt.Errorf("%w: no analysis", ErrMalformedResponse)
	}

	jobs, err := decodeJobs(raw.RecommendedJobs)
	if err != nil {
		return nil, fmt.Errorf("decode recommended jobs: %w", err)
	}

	c.logger.Debug("resume analyzed",
		zap.String(logger.FieldSessionID, raw.SessionID),
		zap.Int("recommended_jobs", len(jobs)),
		zap.String("analysis_preview", utils.TruncateForLog(*raw.Analysis, c.maxLogLen)),
	)

	return &Analysis{
		SessionID:       raw.SessionID,
		Analysis:        *raw.Analysis,
		RecommendedJobs: jobs,
	}, nil
}
