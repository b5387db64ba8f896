package testfunc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chriskuehl/s3fetch/logging"
)

type Line struct {
	Level   string
	Message string
	// InTransfer is set if the line was logged with a context carrying transfer attributes.
	InTransfer bool
}

// MemoryLogger is a logging.Logger which keeps every line in memory for later inspection.
type MemoryLogger struct {
	lines []Line
	mu    sync.Mutex
}

func (ml *MemoryLogger) log(ctx context.Context, level string, msg string, args ...any) {
	line := strings.Builder{}
	line.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&line, "\t%v=%v", args[i], args[i+1])
	}
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.lines = append(ml.lines, Line{
		Level:      level,
		Message:    line.String(),
		InTransfer: logging.HasTransfer(ctx),
	})
}

func (ml *MemoryLogger) Debug(ctx context.Context, msg string, args ...any) {
	ml.log(ctx, "DEBUG", msg, args...)
}

func (ml *MemoryLogger) Info(ctx context.Context, msg string, args ...any) {
	ml.log(ctx, "INFO", msg, args...)
}

func (ml *MemoryLogger) Warn(ctx context.Context, msg string, args ...any) {
	ml.log(ctx, "WARN", msg, args...)
}

func (ml *MemoryLogger) Error(ctx context.Context, msg string, args ...any) {
	ml.log(ctx, "ERROR", msg, args...)
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (ml *MemoryLogger) Lines() []Line {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return append([]Line(nil), ml.lines...)
}

// FindLine returns the first line with the given level containing substr.
func (ml *MemoryLogger) FindLine(level string, substr string) (Line, bool) {
	for _, line := range ml.Lines() {
		if line.Level == level && strings.Contains(line.Message, substr) {
			return line, true
		}
	}
	return Line{}, false
}

func (ml *MemoryLogger) HasLine(level string, substr string) bool {
	_, ok := ml.FindLine(level, substr)
	return ok
}
