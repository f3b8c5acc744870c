package logging

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type ContextLogger struct {
	*logrus.Logger
}

type Options struct {
	Level  string
	Output io.Writer
}

// NewLogger returns a JSON logger at info level writing to stdout.
func NewLogger() *ContextLogger {
	logger, _ := NewLoggerWithOptions(Options{})
	return logger
}

func NewLoggerWithOptions(opts Options) (*ContextLogger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.SetOutput(out)
	logger.SetLevel(level)

	return &ContextLogger{Logger: logger}, nil
}

func (l *ContextLogger) WithTracing(ctx context.Context) *logrus.Entry {
	entry := l.WithContext(ctx)

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		entry = entry.WithFields(logrus.Fields{
			"trace_id": spanCtx.TraceID().String(),
			"span_id":  spanCtx.SpanID().String(),
		})
	}

	return entry
}

func (l *ContextLogger) entry(ctx context.Context, fields logrus.Fields) *logrus.Entry {
	entry := l.WithTracing(ctx)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	return entry
}

func (l *ContextLogger) InfoWithTracing(ctx context.Context, msg string, fields logrus.Fields) {
	l.entry(ctx, fields).Info(msg)
}

func (l *ContextLogger) ErrorWithTracing(ctx context.Context, msg string, err error, fields logrus.Fields) {
	entry := l.entry(ctx, fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

func (l *ContextLogger) WarnWithTracing(ctx context.Context, msg string, fields logrus.Fields) {
	l.entry(ctx, fields).Warn(msg)
}

func (l *ContextLogger) DebugWithTracing(ctx context.Context, msg string, fields logrus.Fields) {
	l.entry(ctx, fields).Debug(msg)
}
