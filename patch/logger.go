package patch

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
)

// LogField is a single structured key-value pair attached to a log
// entry.
type LogField struct {
	Key   string
	Value any
}

// Field builds a LogField.
func Field(key string, value any) LogField {
	return LogField{Key: key, Value: value}
}

// Logger is the structured logging seam this package accepts. The core
// transform carries no global state and no default logger: callers that
// want diagnostics pass one in explicitly (see BatchOptions.Logger).
type Logger interface {
	Info(ctx context.Context, msg string, fields ...LogField)
	Warn(ctx context.Context, msg string, fields ...LogField)
	Error(ctx context.Context, msg string, err error, fields ...LogField)
}

// NoOpLogger discards every entry. It is the default when no Logger is
// configured.
type NoOpLogger struct{}

func (NoOpLogger) Info(context.Context, string, ...LogField)          {}
func (NoOpLogger) Warn(context.Context, string, ...LogField)          {}
func (NoOpLogger) Error(context.Context, string, error, ...LogField)  {}

// StdLogger writes structured entries to a writer using the standard
// library's log package. A nil writer discards all entries.
type StdLogger struct {
	logger *log.Logger
}

// NewStdLogger creates a StdLogger writing to w. If w is nil, entries
// are discarded.
func NewStdLogger(w io.Writer) *StdLogger {
	if w == nil {
		w = io.Discard
	}
	return &StdLogger{logger: log.New(w, "", 0)}
}

func (s *StdLogger) format(level, msg string, err error, fields []LogField) string {
	parts := []string{fmt.Sprintf("[%s]", level), msg}
	if err != nil {
		parts = append(parts, fmt.Sprintf("error=%q", err.Error()))
	}
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	return strings.Join(parts, " ")
}

func (s *StdLogger) Info(_ context.Context, msg string, fields ...LogField) {
	s.logger.Println(s.format("INFO", msg, nil, fields))
}

func (s *StdLogger) Warn(_ context.Context, msg string, fields ...LogField) {
	s.logger.Println(s.format("WARN", msg, nil, fields))
}

func (s *StdLogger) Error(_ context.Context, msg string, err error, fields ...LogField) {
	s.logger.Println(s.format("ERROR", msg, err, fields))
}
