package notifications_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"salesavor/internal/config"
	"salesavor/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var got []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
	}))
	t.Cleanup(server.Close)
	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), got...)
	}
}

func TestNewNtfyReturnsNoopWhenTopicMissing(t *testing.T) {
	n := notifications.NewNtfy(config.Default().Notifications)
	if _, ok := n.(notifications.Noop); !ok {
		t.Fatalf("expected noop notifier, got %T", n)
	}
	if err := n.Notify(context.Background(), notifications.Success("done")); err != nil {
		t.Fatalf("noop returned error: %v", err)
	}
}

func TestNtfyPublishesErrorsAndFiltersByLevel(t *testing.T) {
	server, requests := newNtfyServer(t)
	cfg := config.Default().Notifications
	cfg.NtfyTopic = server.URL
	cfg.Errors = true
	cfg.Success = false
	n := notifications.NewNtfy(cfg)

	ctx := context.Background()
	failure := notifications.Failure("Generating recipes", errors.New("http 500"))
	failure.Action = "recipes"
	if err := n.Notify(ctx, failure); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if err := n.Notify(ctx, notifications.Success("Grocery list ready")); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if err := n.Notify(ctx, notifications.Info("Using default location")); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected only the error to be published, got %d requests", len(got))
	}
	if got[0].title != "SaleSavor - Error" || got[0].priority != "high" {
		t.Fatalf("unexpected headers %+v", got[0])
	}
	if got[0].tags != "salesavor,error,warning,recipes" {
		t.Fatalf("unexpected tags %q", got[0].tags)
	}
	if got[0].body != "Generating recipes failed: http 500" {
		t.Fatalf("unexpected body %q", got[0].body)
	}
}

func TestNtfyReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "topic reserved")
	}))
	defer server.Close()

	cfg := config.Default().Notifications
	cfg.NtfyTopic = server.URL
	err := notifications.NewNtfy(cfg).Notify(context.Background(), notifications.Failure("Sending email", nil))
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, notifications.Notice) error {
	return errors.New("boom")
}

func TestDispatcherFansOutAndJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	d := notifications.NewDispatcher(nil, notifications.NewWriter(&buf, false), nil, failingNotifier{})

	err := d.Notify(context.Background(), notifications.Success("Found 2 nearby stores"))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected joined delivery error, got %v", err)
	}
	if buf.String() != "✔ Found 2 nearby stores\n" {
		t.Fatalf("unexpected terminal output %q", buf.String())
	}

	buf.Reset()
	d.Failure(context.Background(), "Loading sales", errors.New("timeout"))
	if buf.String() != "✖ Loading sales failed: timeout\n" {
		t.Fatalf("unexpected failure output %q", buf.String())
	}
}

func TestWriterColorizes(t *testing.T) {
	var buf bytes.Buffer
	w := notifications.NewWriter(&buf, true)
	if err := w.Notify(context.Background(), notifications.Info("Using default location")); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[36m") {
		t.Fatalf("expected ANSI color, got %q", buf.String())
	}
}
