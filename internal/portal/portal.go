// Package portal is the HTTP transport shared by everything that talks to the
// job portal backend: bearer credentials, request correlation, gzip-aware
// decoding and FastAPI error bodies.
package portal

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/logger"
)

const (
	// DefaultTimeout bounds every call to the backend. The service is
	// external and untrusted, so no call may hang forever.
	DefaultTimeout = 30 * time.Second

	userAgent = "spigell/career-advisor (spigelly@gmail.com)"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

// New creates a portal client. A non-positive timeout selects DefaultTimeout.
func New(baseURL, token string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		token:   token,
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger:    logger.OrNop(log),
		UserAgent: userAgent,
	}
}

// URL joins the base URL with an API path.
func (c *Client) URL(path string) string {
	return c.BaseURL + "/" + strings.TrimLeft(path, "/")
}

// Logger returns the client logger.
func (c *Client) Logger() *zap.Logger {
	return c.logger
}
