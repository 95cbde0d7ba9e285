package widget

import (
	"errors"
	"fmt"

	"github.com/spigell/career-advisor/internal/advisor"
)

type View int

const (
	ViewClosed View = iota
	ViewInitial
	ViewPasteEntry
	ViewChat
)

func (v View) String() string {
	switch v {
	case ViewClosed:
		return "closed"
	case ViewInitial:
		return "initial"
	case ViewPasteEntry:
		return "paste"
	case ViewChat:
		return "chat"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

var (
	ErrInvalidTransition = errors.New("action is not available in the current view")
	ErrBusy              = errors.New("a request is already in progress")
)

// State is everything one open widget knows. Values are never shared:
// every transition returns a fresh State whose slices the caller owns.
type State struct {
	View View
	// SessionID is the server session handle; empty until intake succeeds.
	SessionID       string
	Messages        []Message
	RecommendedJobs []advisor.JobSummary
	Pending         bool

	DraftText   string
	DraftResume string
}

// Zero is the closed widget.
func Zero() State {
	return State{}
}

func (s State) Open() State {
	return State{View: ViewInitial}
}

func (s State) Close() State {
	return Zero()
}

func (s State) ChoosePaste() (State, error) {
	if s.View != ViewInitial {
		return s, fmt.Errorf("%w: paste from %s", ErrInvalidTransition, s.View)
	}
	if s.Pending {
		return s, ErrBusy
	}

	next := s.clone()
	next.View = ViewPasteEntry
	return next, nil
}

// Back leaves paste entry and drops the draft.
func (s State) Back() (State, error) {
	if s.View != ViewPasteEntry {
		return s, fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.View)
	}
	if s.Pending {
		return s, ErrBusy
	}

	next := s.clone()
	next.View = ViewInitial
	next.DraftResume = ""
	return next, nil
}

func (s State) SetDraftText(text string) State {
	next := s.clone()
	next.DraftText = text
	return next
}

func (s State) SetDraftResume(text string) State {
	next := s.clone()
	next.DraftResume = text
	return next
}

func (s State) BeginRequest() (State, error) {
	if s.View == ViewClosed {
		return s, fmt.Errorf("%w: request while closed", ErrInvalidTransition)
	}
	if s.Pending {
		return s, ErrBusy
	}

	next := s.clone()
	next.Pending = true
	return next, nil
}

func (s State) EndRequest() State {
	next := s.clone()
	next.Pending = false
	return next
}

// CommitIntake applies a successful intake in one step: session, jobs,
// transcript and view change together.
func (s State) CommitIntake(a *advisor.Analysis) State {
	jobs := make([]advisor.JobSummary, len(a.RecommendedJobs))
	copy(jobs, a.RecommendedJobs)

	return State{
		View:            ViewChat,
		SessionID:       a.SessionID,
		Messages:        []Message{{Role: RoleAssistant, Content: a.Analysis}},
		RecommendedJobs: jobs,
		DraftText:       s.DraftText,
	}
}

// AppendUser adds the user's message and clears the chat input.
func (s State) AppendUser(text string) State {
	next := s.append(Message{Role: RoleUser, Content: text})
	next.DraftText = ""
	return next
}

func (s State) AppendAssistant(text string) State {
	return s.append(Message{Role: RoleAssistant, Content: text})
}

// TopJobs returns at most n recommended jobs in ranking order.
func (s State) TopJobs(n int) []advisor.JobSummary {
	if n <= 0 {
		return nil
	}
	if n > len(s.RecommendedJobs) {
		n = len(s.RecommendedJobs)
	}

	out := make([]advisor.JobSummary, n)
	copy(out, s.RecommendedJobs[:n])
	return out
}

func (s State) append(m Message) State {
	next := s.clone()
	next.Messages = append(next.Messages, m)
	return next
}

func (s State) clone() State {
	next := s
	if s.Messages != nil {
		next.Messages = make([]Message, len(s.Messages), len(s.Messages)+2)
		copy(next.Messages, s.Messages)
	}
	if s.RecommendedJobs != nil {
		next.RecommendedJobs = make([]advisor.JobSummary, len(s.RecommendedJobs))
		copy(next.RecommendedJobs, s.RecommendedJobs)
	}
	return next
}
