package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

func consoleOrJSON(out io.Writer) io.Writer {
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return out
}

// NewZerologLogger creates a ZerologLogger using the APP_ENV environment variable
// to determine the output format. All logs include the provided component field.
func NewZerologLogger(component string) Logger {
	z := zerolog.New(consoleOrJSON(os.Stdout)).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

// RunLogger writes to stdout and to the per-run effects messages file.
type RunLogger struct {
	ZerologLogger
	mu   sync.Mutex
	file *os.File
}

// NewRunLogger opens (truncating) the messages file at path and returns a logger
// teeing every record into it. The file keeps a plain chronological layout so
// that it stays readable after a failed run.
func NewRunLogger(component, path string) (*RunLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open messages log: %w", err)
	}
	fileOut := zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: "2006-01-02 15:04:05"}
	multi := zerolog.MultiLevelWriter(consoleOrJSON(os.Stdout), fileOut)
	z := zerolog.New(multi).With().Timestamp().Str("component", component).Logger()
	return &RunLogger{ZerologLogger: ZerologLogger{log: z}, file: f}, nil
}

// With returns a child logger sharing the same outputs with another component name.
func (l *RunLogger) With(component string) Logger {
	return &ZerologLogger{log: l.log.With().Str("component", component).Logger()}
}

// Close flushes and closes the messages file.
func (l *RunLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

// SetLevel sets the minimum level of every zerolog logger.
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
