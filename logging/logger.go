package logging

import (
	"context"
	"log/slog"
)

type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
}

type transferInfoKey struct{}

type transferInfo struct {
	url    string
	origin string
}

func (t *transferInfo) newLogger(logger *slog.Logger) *slog.Logger {
	args := []any{"transfer.url", t.url}
	if t.origin != "" {
		args = append(args, "transfer.origin", t.origin)
	}
	return logger.With(args...)
}

// WithTransfer returns a context whose log records are annotated with the URL being transferred
// and, if non-empty, the origin it was requested for.
func WithTransfer(ctx context.Context, url string, origin string) context.Context {
	return context.WithValue(ctx, transferInfoKey{}, &transferInfo{
		url:    url,
		origin: origin,
	})
}

// HasTransfer reports whether ctx already carries transfer attributes.
func HasTransfer(ctx context.Context) bool {
	_, ok := ctx.Value(transferInfoKey{}).(*transferInfo)
	return ok
}

type slogLogger struct {
	bareLogger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *slogLogger {
	return &slogLogger{bareLogger: logger}
}

func (l *slogLogger) logger(ctx context.Context) *slog.Logger {
	info, ok := ctx.Value(transferInfoKey{}).(*transferInfo)
	if ok {
		return info.newLogger(l.bareLogger)
	}
	return l.bareLogger
}

func (l *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger(ctx).DebugContext(ctx, msg, args...)
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger(ctx).InfoContext(ctx, msg, args...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger(ctx).WarnContext(ctx, msg, args...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger(ctx).ErrorContext(ctx, msg, args...)
}

type nopLogger struct{}

// Nop discards everything.
func Nop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
