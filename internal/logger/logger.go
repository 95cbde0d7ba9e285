package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FieldSessionID is the structured log field key for the advisor session handle.
	FieldSessionID = "session_id"
	// FieldRequestID is the structured log field key for the per-request correlation id.
	FieldRequestID = "request_id"
	// FieldView is the structured log field key for the widget view.
	FieldView = "view"
)

// New builds the application logger. Output goes to stderr because stdout
// belongs to the interactive chat.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}

	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	return logger, nil
}

// OrNop returns the logger or a no-op logger when nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// SessionFields returns fields describing an advisor session. Empty values
// are omitted so entries logged before intake stay compact.
func SessionFields(sessionID, view string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if id := strings.TrimSpace(sessionID); id != "" {
		fields = append(fields, zap.String(FieldSessionID, id))
	}
	if v := strings.TrimSpace(view); v != "" {
		fields = append(fields, zap.String(FieldView, v))
	}
	return fields
}

// WithSession attaches session fields to the logger.
func WithSession(logger *zap.Logger, sessionID, view string) *zap.Logger {
	logger = OrNop(logger)

	fields := SessionFields(sessionID, view)
	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}
