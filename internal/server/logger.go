package server

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// DefaultLogger writes through zerolog
type DefaultLogger struct {
	logger zerolog.Logger
}

// NewDefaultLogger logs human readable lines to stdout
func NewDefaultLogger() *DefaultLogger {
	return NewLogger(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05.000",
	})
}

// NewLogger logs one JSON object per line to w
func NewLogger(w io.Writer) *DefaultLogger {
	return &DefaultLogger{
		logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.log(l.logger.Debug(), msg, fields)
}

func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log(l.logger.Info(), msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.log(l.logger.Error(), msg, fields)
}

func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log(l.logger.Warn(), msg, fields)
}

func (l *DefaultLogger) log(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		switch v := sanitizeValue(f.Value).(type) {
		case string:
			ev = ev.Str(f.Key, v)
		case error:
			ev = ev.Str(f.Key, v.Error())
		default:
			ev = ev.Interface(f.Key, v)
		}
	}
	ev.Msg(msg)
}

// SlogLogger adapts a *slog.Logger
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: l}
}

// NewOTelLogger sends records to the global OpenTelemetry logger provider
func NewOTelLogger(name string) *SlogLogger {
	return NewSlogLogger(otelslog.NewLogger(name))
}

func (l *SlogLogger) Debug(msg string, fields ...Field) {
	l.log(slog.LevelDebug, msg, fields)
}

func (l *SlogLogger) Info(msg string, fields ...Field) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *SlogLogger) Error(msg string, fields ...Field) {
	l.log(slog.LevelError, msg, fields)
}

func (l *SlogLogger) Warn(msg string, fields ...Field) {
	l.log(slog.LevelWarn, msg, fields)
}

func (l *SlogLogger) log(level slog.Level, msg string, fields []Field) {
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, sanitizeValue(f.Value)))
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// sanitizeValue keeps long values such as header contents out of the logs
func sanitizeValue(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		if len(s) > 100 {
			return s[:100] + "...[truncated]"
		}
	}
	return v
}

// NullLogger discards all logs (for testing)
type NullLogger struct{}

func (n *NullLogger) Debug(msg string, fields ...Field) {}
func (n *NullLogger) Info(msg string, fields ...Field)  {}
func (n *NullLogger) Error(msg string, fields ...Field) {}
func (n *NullLogger) Warn(msg string, fields ...Field)  {}
