package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/advisor"
	"github.com/spigell/career-advisor/internal/widget"
)

const (
	PromptUpload   = "Upload resume (PDF or DOCX)"
	PromptPaste    = "Paste resume text"
	PromptClose    = "Close"
	PromptYes      = "Yes"
	PromptNo       = "No"
	commandDone    = "/done"
	commandBack    = "/back"
	commandClose   = "/close"
	commandJobs    = "/jobs"
	commandHelp    = "/help"
	assistantLabel = "advisor"
)

var errExit = errors.New("exit requested")

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the AI career advisor",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("resume", "r", "", "upload this resume file right away")
}

// session keeps what has already been printed for the open widget.
type session struct {
	ctrl    *widget.Controller
	logger  *zap.Logger
	topJobs int

	printed   int
	shownJobs string
}

func chat(cmd *cobra.Command) {
	ctx := context.Background()
	d := setup()

	notifier := widget.NotifierFunc(func(n widget.Notice) {
		fmt.Printf("[%s] %s\n", n.Level, n.Text)
	})

	ctrl := widget.New(d.authority, d.advisor,
		widget.WithLogger(d.logger),
		widget.WithNotifier(notifier),
		widget.WithTimeout(d.config.Backend.Timeout),
	)

	if !ctrl.Visible(ctx) {
		d.logger.Fatal("the career advisor is only available to logged in job seekers")
	}

	topJobs := d.config.Chat.TopJobs
	if topJobs <= 0 {
		topJobs = 3
	}

	s := &session{ctrl: ctrl, logger: d.logger, topJobs: topJobs}

	resumePath, _ := cmd.Flags().GetString("resume")

	for {
		if err := ctrl.Open(ctx); err != nil {
			d.logger.Fatal("opening the advisor", zap.Error(err))
		}
		s.reset()

		if resumePath != "" {
			s.upload(ctx, resumePath)
			resumePath = ""
		}

		if err := s.loop(ctx); err != nil {
			ctrl.Close()
			if errors.Is(err, errExit) || errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				d.logger.Info("exiting", zap.String("reason", "closed by user"))
				return
			}
			d.logger.Fatal("exiting", zap.Error(err))
		}

		again := promptui.Select{Label: "Start a new conversation?", Items: []string{PromptYes, PromptNo}}
		_, answer, err := again.Run()
		if err != nil || answer == PromptNo {
			d.logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}
}

// loop drives one open widget until it is closed.
func (s *session) loop(ctx context.Context) error {
	for {
		var err error

		switch view := s.ctrl.State().View; view {
		case widget.ViewClosed:
			return nil
		case widget.ViewInitial:
			err = s.initial(ctx)
		case widget.ViewPasteEntry:
			err = s.paste(ctx)
		case widget.ViewChat:
			err = s.chat(ctx)
		default:
			return fmt.Errorf("invalid view: %s", view)
		}

		if err != nil {
			return err
		}

		if !s.ctrl.Visible(ctx) {
			fmt.Println("The advisor is no longer available for this account.")
			return errExit
		}
	}
}

func (s *session) initial(ctx context.Context) error {
	menu := promptui.Select{
		Label: "Upload or paste your resume to get AI-powered job recommendations",
		Items: []string{PromptUpload, PromptPaste, PromptClose},
	}

	_, action, err := menu.Run()
	if err != nil {
		return err
	}

	switch action {
	case PromptUpload:
		if err := s.ctrl.ChooseUpload(ctx); err != nil {
			return s.recoverable(err)
		}

		path := promptui.Prompt{Label: "Path to resume"}
		file, err := path.Run()
		if err != nil {
			return err
		}
		s.upload(ctx, strings.TrimSpace(file))
	case PromptPaste:
		return s.recoverable(s.ctrl.ChoosePaste(ctx))
	case PromptClose:
		s.ctrl.Close()
	default:
		return fmt.Errorf("invalid action: %s", action)
	}

	return nil
}

func (s *session) upload(ctx context.Context, path string) {
	resume, err := advisor.ReadResume(path)
	if err != nil {
		fmt.Printf("[%s] %s\n", widget.LevelError, err)
		return
	}

	fmt.Println("Analyzing resume...")
	s.await(func() error { return s.ctrl.SelectFile(ctx, resume) })
}

func (s *session) paste(ctx context.Context) error {
	fmt.Printf("Paste your resume, one line at a time. %s sends it, %s returns to the menu.\n", commandDone, commandBack)

	var lines []string
	for {
		line := promptui.Prompt{Label: "resume"}
		text, err := line.Run()
		if err != nil {
			return err
		}

		switch strings.TrimSpace(text) {
		case commandBack:
			return s.recoverable(s.ctrl.Back(ctx))
		case commandDone:
			resume := strings.Join(lines, "\n")
			s.ctrl.SetDraft(resume)

			fmt.Println("Analyzing resume...")
			s.await(func() error { return s.ctrl.SubmitPaste(ctx, resume) })
			return nil
		default:
			lines = append(lines, text)
			s.ctrl.SetDraft(strings.Join(lines, "\n"))
		}
	}
}

func (s *session) chat(ctx context.Context) error {
	s.render()

	input := promptui.Prompt{Label: "you"}
	text, err := input.Run()
	if err != nil {
		return err
	}

	switch strings.TrimSpace(text) {
	case commandClose:
		s.ctrl.Close()
		return nil
	case commandJobs:
		s.shownJobs = ""
		s.renderJobs()
		return nil
	case commandHelp:
		fmt.Printf("%s shows recommended jobs, %s ends the conversation.\n", commandJobs, commandClose)
		return nil
	}

	s.ctrl.SetDraft(text)
	s.await(func() error { return s.ctrl.Send(ctx, text) })
	s.render()
	return nil
}

// await runs a backend call. Ctrl+C while it is in flight closes the widget,
// exactly like closing it during a request.
func (s *session) await(call func() error) {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	done := make(chan error, 1)
	go func() { done <- call() }()

	for {
		select {
		case <-interrupts:
			fmt.Println("Closing the advisor.")
			s.ctrl.Close()
		case err := <-done:
			s.report(err)
			return
		}
	}
}

func (s *session) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, widget.ErrStaleResponse):
		s.logger.Debug("response dropped after close")
	case errors.Is(err, advisor.ErrEmptyMessage), errors.Is(err, widget.ErrBusy):
		fmt.Printf("[%s] %s\n", widget.LevelInfo, err)
	default:
		// failures were already shown as notices
		s.logger.Debug("advisor call failed", zap.Error(err))
	}
}

func (s *session) recoverable(err error) error {
	if err == nil || errors.Is(err, widget.ErrHidden) {
		return nil
	}
	if errors.Is(err, widget.ErrInvalidTransition) || errors.Is(err, widget.ErrBusy) {
		s.logger.Debug("ignoring action", zap.Error(err))
		return nil
	}
	return err
}

func (s *session) reset() {
	s.printed = 0
	s.shownJobs = ""
}

func (s *session) render() {
	state := s.ctrl.State()
	if len(state.Messages) < s.printed {
		s.printed = 0
	}

	s.renderJobs()

	for _, m := range state.Messages[s.printed:] {
		label := "you"
		if m.Role == widget.RoleAssistant {
			label = assistantLabel
		}
		fmt.Printf("%s: %s\n\n", label, m.Content)
	}
	s.printed = len(state.Messages)
}

func (s *session) renderJobs() {
	state := s.ctrl.State()
	if len(state.RecommendedJobs) == 0 || s.shownJobs == state.SessionID {
		return
	}
	s.shownJobs = state.SessionID

	fmt.Printf("Recommended Jobs (%d)\n", len(state.RecommendedJobs))
	for _, job := range state.TopJobs(s.topJobs) {
		fmt.Printf("  • %s\n", job)
	}
	fmt.Println()
}
