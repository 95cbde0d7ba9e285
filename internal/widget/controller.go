// Package widget drives the career advisor conversation: resume intake,
// then turn-by-turn chat against a server-held session, with the user free
// to close or reopen at any time.
package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/advisor"
	"github.com/spigell/career-advisor/internal/identity"
	"github.com/spigell/career-advisor/internal/logger"
	"github.com/spigell/career-advisor/internal/portal"
)

// DefaultTimeout bounds one intake or chat call.
const DefaultTimeout = portal.DefaultTimeout

var (
	// ErrHidden means the current user may not use the advisor. The widget
	// has been closed.
	ErrHidden = errors.New("advisor is not available for the current user")
	// ErrNoSession means a chat message was sent before intake completed.
	ErrNoSession = errors.New("no advisor session")
	// ErrStaleResponse reports that a response arrived for a widget that was
	// closed in the meantime. It was not applied.
	ErrStaleResponse = errors.New("response arrived after the session was reset")
)

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger.OrNop(l) }
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithTimeout sets the per-call deadline. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Controller owns the State of one widget. It is safe for concurrent use:
// Close may race with an outstanding call, whose result is then dropped.
type Controller struct {
	authority identity.Authority
	service   advisor.Service
	logger    *zap.Logger
	notifier  Notifier
	timeout   time.Duration

	mu    sync.Mutex
	state State
	// generation changes on every Close; responses tagged with an older
	// generation are discarded.
	generation uint64
	cancel     context.CancelFunc
}

func New(authority identity.Authority, service advisor.Service, opts ...Option) *Controller {
	c := &Controller{
		authority: authority,
		service:   service,
		logger:    zap.NewNop(),
		notifier:  NotifierFunc(func(Notice) {}),
		timeout:   DefaultTimeout,
		state:     Zero(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.clone()
}

// Visible re-checks the authority. When the advisor must not be shown any
// open widget is closed.
func (c *Controller) Visible(ctx context.Context) bool {
	if identity.Visible(ctx, c.authority) {
		return true
	}

	c.mu.Lock()
	wasOpen := c.state.View != ViewClosed
	c.resetLocked()
	c.mu.Unlock()

	if wasOpen {
		c.logger.Info("closing advisor", zap.String("reason", "user is not a logged in job seeker"))
	}

	return false
}

// Open shows the widget with a fresh intake. Opening an open widget is a no-op.
func (c *Controller) Open(ctx context.Context) error {
	if !c.Visible(ctx) {
		return ErrHidden
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.View != ViewClosed {
		return nil
	}

	c.state = c.state.Open()
	c.logger.Debug("widget opened")
	return nil
}

// Close resets the widget regardless of any outstanding call. It is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Pending {
		c.logger.Debug("closing with a request in flight", logger.SessionFields(c.state.SessionID, c.state.View.String())...)
	}
	c.resetLocked()
}

// ChooseUpload is the side channel that opens a file picker; the view does
// not change.
func (c *Controller) ChooseUpload(ctx context.Context) error {
	if !c.Visible(ctx) {
		return ErrHidden
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.View != ViewInitial {
		return fmt.Errorf("%w: upload from %s", ErrInvalidTransition, c.state.View)
	}
	if c.state.Pending {
		return ErrBusy
	}
	return nil
}

func (c *Controller) ChoosePaste(ctx context.Context) error {
	return c.transition(ctx, State.ChoosePaste)
}

func (c *Controller) Back(ctx context.Context) error {
	return c.transition(ctx, State.Back)
}

// SetDraft stores the text currently typed into the active input.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state.View {
	case ViewPasteEntry:
		c.state = c.state.SetDraftResume(text)
	case ViewChat:
		c.state = c.state.SetDraftText(text)
	}
}

// SelectFile uploads a picked resume file. Files other than PDF or DOCX are
// rejected before any call is made.
func (c *Controller) SelectFile(ctx context.Context, resume advisor.Resume) error {
	if !c.Visible(ctx) {
		return ErrHidden
	}

	c.mu.Lock()
	if c.state.View != ViewInitial {
		c.mu.Unlock()
		return fmt.Errorf("%w: upload from %s", ErrInvalidTransition, c.state.View)
	}

	if err := resume.Validate(); err != nil {
		c.mu.Unlock()
		c.notify(LevelError, noticeInvalidFile)
		return err
	}

	callCtx, gen, err := c.beginLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.logger.Debug("uploading resume",
		zap.String("filename", resume.Filename),
		zap.String("content_type", resume.ContentType),
		zap.Int("size", len(resume.Data)),
	)

	analysis, err := c.service.UploadResume(callCtx, resume)
	return c.finishIntake(gen, analysis, err, noticeUploadFailed)
}

// SubmitPaste sends pasted resume text. Whitespace-only text is rejected
// before any call is made.
func (c *Controller) SubmitPaste(ctx context.Context, text string) error {
	if !c.Visible(ctx) {
		return ErrHidden
	}

	c.mu.Lock()
	if c.state.View != ViewPasteEntry {
		c.mu.Unlock()
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, c.state.View)
	}

	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		c.notify(LevelError, noticeEmptyResume)
		return advisor.ErrEmptyResume
	}

	c.state = c.state.SetDraftResume(text)
	sessionID := c.state.SessionID

	callCtx, gen, err := c.beginLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	analysis, err := c.service.PasteResume(callCtx, text, sessionID)
	return c.finishIntake(gen, analysis, err, noticeAnalyzeFailed)
}

// Send posts one chat message. The message joins the transcript before the
// call is made and stays there whatever the outcome.
func (c *Controller) Send(ctx context.Context, text string) error {
	if !c.Visible(ctx) {
		return ErrHidden
	}

	c.mu.Lock()
	if c.state.View != ViewChat {
		c.mu.Unlock()
		return fmt.Errorf("%w: send from %s", ErrInvalidTransition, c.state.View)
	}
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return advisor.ErrEmptyMessage
	}
	sessionID := c.state.SessionID
	if sessionID == "" {
		c.mu.Unlock()
		return ErrNoSession
	}
	if c.state.Pending {
		c.mu.Unlock()
		return ErrBusy
	}

	c.state = c.state.AppendUser(text)
	callCtx, gen, err := c.beginLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	reply, err := c.service.Chat(callCtx, text, sessionID)
	if err == nil && reply == nil {
		err = fmt.Errorf("%w: empty chat reply", advisor.ErrMalformedResponse)
	}

	c.mu.Lock()
	if !c.currentLocked(gen) {
		c.mu.Unlock()
		c.logger.Debug("discarding chat response", zap.Error(ErrStaleResponse), zap.NamedError("call_error", err))
		return ErrStaleResponse
	}
	c.endLocked()

	log := logger.WithSession(c.logger, sessionID, c.state.View.String())
	if err != nil {
		c.state = c.state.AppendAssistant(chatFallbackResponse)
		c.mu.Unlock()

		log.Warn("chat call failed", zap.Error(err))
		c.notify(LevelError, noticeSendFailed)
		return fmt.Errorf("sending message: %w", err)
	}

	c.state = c.state.AppendAssistant(reply.Response)
	c.mu.Unlock()

	log.Debug("chat round complete")
	return nil
}

func (c *Controller) transition(ctx context.Context, fn func(State) (State, error)) error {
	if !c.Visible(ctx) {
		return ErrHidden
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(c.state)
	if err != nil {
		return err
	}

	c.logger.Debug("view changed", zap.Stringer("from", c.state.View), zap.Stringer("to", next.View))
	c.state = next
	return nil
}

func (c *Controller) finishIntake(gen uint64, analysis *advisor.Analysis, err error, failure string) error {
	if err == nil && analysis == nil {
		err = fmt.Errorf("%w: empty intake result", advisor.ErrMalformedResponse)
	}

	c.mu.Lock()
	if !c.currentLocked(gen) {
		c.mu.Unlock()
		c.logger.Debug("discarding intake response", zap.Error(ErrStaleResponse), zap.NamedError("call_error", err))
		return ErrStaleResponse
	}
	c.endLocked()

	if err != nil {
		view := c.state.View
		c.mu.Unlock()

		text := failure
		if detail := portal.Detail(err); detail != "" {
			text = detail
		}

		c.logger.Warn("resume intake failed", zap.Stringer("view", view), zap.Error(err))
		c.notify(LevelError, text)
		return fmt.Errorf("resume intake: %w", err)
	}

	c.state = c.state.CommitIntake(analysis)
	c.mu.Unlock()

	logger.WithSession(c.logger, analysis.SessionID, ViewChat.String()).Info("resume analyzed",
		zap.Int("recommended_jobs", len(analysis.RecommendedJobs)),
	)
	c.notify(LevelSuccess, noticeAnalyzed)
	return nil
}

// beginLocked marks a call as pending and derives its context. c.mu must be held.
func (c *Controller) beginLocked(ctx context.Context) (context.Context, uint64, error) {
	next, err := c.state.BeginRequest()
	if err != nil {
		return nil, 0, err
	}
	c.state = next

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	c.cancel = cancel

	return callCtx, c.generation, nil
}

// endLocked clears the pending call. c.mu must be held.
func (c *Controller) endLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = c.state.EndRequest()
}

func (c *Controller) currentLocked(gen uint64) bool {
	return gen == c.generation && c.state.View != ViewClosed
}

func (c *Controller) resetLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.state = c.state.Close()
}

func (c *Controller) notify(level Level, text string) {
	c.notifier.Notify(Notice{Level: level, Text: text})
}
