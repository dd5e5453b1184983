package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"salesavor/internal/config"
)

const userAgent = "SaleSavor-Go/0.1.0"

// NewNtfy builds a notifier backed by ntfy when a topic is configured.
// When no topic is configured, a noop implementation is returned.
func NewNtfy(cfg config.Notifications) Notifier {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return Noop{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyNotifier{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		errors:   cfg.Errors,
		success:  cfg.Success,
	}
}

type ntfyNotifier struct {
	endpoint string
	client   *http.Client
	errors   bool
	success  bool
}

func (n *ntfyNotifier) Notify(ctx context.Context, notice Notice) error {
	switch notice.Level {
	case LevelError:
		if !n.errors {
			return nil
		}
	case LevelSuccess:
		if !n.success {
			return nil
		}
	default:
		return nil
	}

	title := "SaleSavor"
	tags := []string{"salesavor"}
	priority := ""
	if notice.Level == LevelError {
		title = "SaleSavor - Error"
		tags = append(tags, "error", "warning")
		priority = "high"
	} else {
		tags = append(tags, "shopping_cart")
	}
	if notice.Action != "" {
		tags = append(tags, notice.Action)
	}
	return n.send(ctx, title, notice.Message, tags, priority)
}

func (n *ntfyNotifier) send(ctx context.Context, title, message string, tags []string, priority string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", title)
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}
	if priority != "" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Noop discards notices.
type Noop struct{}

func (Noop) Notify(context.Context, Notice) error { return nil }
