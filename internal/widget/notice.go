package widget

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient, user-facing notification.
type Notice struct {
	Level Level
	Text  string
}

type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

const (
	noticeInvalidFile    = "Please upload a PDF or DOCX file"
	noticeEmptyResume    = "Please paste your resume text"
	noticeAnalyzed       = "Resume analyzed successfully!"
	noticeUploadFailed   = "Failed to upload resume"
	noticeAnalyzeFailed  = "Failed to analyze resume"
	noticeSendFailed     = "Failed to send message"
	chatFallbackResponse = "Sorry, I encountered an error. Please try again."
)
