package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	level string
	zl    zerolog.Logger
}

// New returns a human-readable console logger writing to stderr.
func New(level string) *Logger {
	return NewWithOutput(level, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// NewWithOutput writes JSON lines to out, which is what production log shippers expect.
func NewWithOutput(level string, out io.Writer) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return &Logger{
		level: lvl.String(),
		zl:    zerolog.New(out).Level(lvl).With().Timestamp().Logger(),
	}
}

// With returns a child logger that attaches key=value to every entry.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{
		level: l.level,
		zl:    l.zl.With().Interface(key, value).Logger(),
	}
}

func (l *Logger) Level() string {
	return l.level
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.zl.Info().Msgf(msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.zl.Debug().Msgf(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.zl.Warn().Msgf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.zl.Error().Msgf(msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.zl.Fatal().Msgf(msg, args...)
}

// Request logs one served HTTP request as a structured entry.
func (l *Logger) Request(method, path string, status int, latency time.Duration, clientIP, requestID string) {
	event := l.zl.Info()
	if status >= 500 {
		event = l.zl.Error()
	} else if status >= 400 {
		event = l.zl.Warn()
	}

	event.
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("latency", latency).
		Str("client_ip", clientIP).
		Str("request_id", requestID).
		Msg("request")
}
