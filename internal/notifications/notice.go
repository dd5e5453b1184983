package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"salesavor/internal/logging"
)

// Level is the severity of a user-facing notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a short message for the shopper, such as "Found 8 nearby stores".
type Notice struct {
	Level   Level
	Title   string
	Message string
	// Action is the logical journey action the notice belongs to.
	Action string
}

// Info builds an informational notice.
func Info(message string) Notice { return Notice{Level: LevelInfo, Message: message} }

// Success builds a success notice.
func Success(message string) Notice { return Notice{Level: LevelSuccess, Message: message} }

// Failure builds an error notice from a failed action.
func Failure(label string, err error) Notice {
	label = strings.TrimSpace(label)
	message := "Something went wrong"
	if label != "" {
		message = label + " failed"
	}
	if err != nil {
		message = fmt.Sprintf("%s: %s", message, strings.TrimSpace(err.Error()))
	}
	return Notice{Level: LevelError, Title: label, Message: message}
}

// Notifier delivers notices.
type Notifier interface {
	Notify(ctx context.Context, notice Notice) error
}

// Dispatcher fans a notice out to every registered notifier. Delivery
// failures are logged and never block the journey.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers []Notifier
	logger    *slog.Logger
}

// NewDispatcher builds a dispatcher; nil notifiers are skipped.
func NewDispatcher(logger *slog.Logger, notifiers ...Notifier) *Dispatcher {
	d := &Dispatcher{logger: logging.NewComponentLogger(logger, "notifications")}
	for _, n := range notifiers {
		d.Add(n)
	}
	return d
}

// Add registers another notifier.
func (d *Dispatcher) Add(n Notifier) {
	if n == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers = append(d.notifiers, n)
}

// Notify delivers notice to all notifiers and returns the joined delivery errors.
func (d *Dispatcher) Notify(ctx context.Context, notice Notice) error {
	d.mu.RLock()
	notifiers := append([]Notifier(nil), d.notifiers...)
	d.mu.RUnlock()

	var errs []error
	for _, n := range notifiers {
		if err := n.Notify(ctx, notice); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, d.logger), "notice delivery failed", "notice_delivery_failed",
				logging.Error(err),
				logging.String("notifier", fmt.Sprintf("%T", n)),
				logging.String(logging.FieldImpact, "notice not shown on this channel"),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Failure satisfies the gateway's failure hook.
func (d *Dispatcher) Failure(ctx context.Context, label string, err error) {
	_ = d.Notify(ctx, Failure(label, err))
}
