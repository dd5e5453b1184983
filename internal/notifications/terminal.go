package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"salesavor/internal/logging"
)

// Writer prints notices as single lines, for example "✔ Found 8 nearby stores".
type Writer struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewWriter returns a notifier printing to out. Color enables ANSI styling.
func NewWriter(out io.Writer, color bool) *Writer {
	return &Writer{out: out, color: color}
}

func (w *Writer) Notify(_ context.Context, notice Notice) error {
	symbol, code := "•", "36"
	switch notice.Level {
	case LevelSuccess:
		symbol, code = "✔", "32"
	case LevelError:
		symbol, code = "✖", "31"
	}
	if w.color {
		symbol = fmt.Sprintf("\x1b[%sm%s\x1b[0m", code, symbol)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.out, "%s %s\n", symbol, notice.Message)
	return err
}

// Log records notices in the structured log.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a notifier writing to logger.
func NewLog(logger *slog.Logger) Log {
	return Log{logger: logging.NewComponentLogger(logger, "notice")}
}

func (l Log) Notify(ctx context.Context, notice Notice) error {
	logger := logging.WithContext(ctx, l.logger)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "notice_"+string(notice.Level)),
	}
	if notice.Action != "" {
		attrs = append(attrs, logging.String(logging.FieldAction, notice.Action))
	}
	if notice.Level == LevelError {
		logger.Warn(notice.Message, logging.Args(attrs...)...)
		return nil
	}
	logger.Info(notice.Message, logging.Args(attrs...)...)
	return nil
}
