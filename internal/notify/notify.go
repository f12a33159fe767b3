// Package notify pushes engine events to an ntfy topic. Notifications are
// best-effort: delivery failures are the caller's to log, never to act on.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	userAgent      = "dlbot/0.1.0"
	defaultServer  = "https://ntfy.sh"
	requestTimeout = 10 * time.Second
)

// Service is the notification surface the daemon drives from the event
// stream.
type Service interface {
	NotifyContentFound(ctx context.Context, account, title string, live bool) error
	NotifyDownloadComplete(ctx context.Context, account, title string) error
	NotifyDownloadFailed(ctx context.Context, account, title, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service for the given server and topic.
// An empty topic disables notifications via a noop implementation.
func NewService(server, topic string) Service {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return noopService{}
	}
	server = strings.TrimRight(strings.TrimSpace(server), "/")
	if server == "" {
		server = defaultServer
	}
	return &ntfyService{
		endpoint: server + "/" + topic,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyContentFound(ctx context.Context, account, title string, live bool) error {
	kind := "video"
	if live {
		kind = "live recording"
	}
	data := payload{
		title:   "dlbot - New Content",
		message: fmt.Sprintf("New %s from %s: %s", kind, account, strings.TrimSpace(title)),
		tags:    []string{"dlbot", "found"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDownloadComplete(ctx context.Context, account, title string) error {
	data := payload{
		title:   "dlbot - Download Complete",
		message: fmt.Sprintf("Downloaded from %s: %s", account, strings.TrimSpace(title)),
		tags:    []string{"dlbot", "download", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDownloadFailed(ctx context.Context, account, title, reason string) error {
	message := fmt.Sprintf("Download failed for %s: %s", account, strings.TrimSpace(title))
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\n%s", message, reason)
	}
	data := payload{
		title:    "dlbot - Download Failed",
		message:  message,
		tags:     []string{"dlbot", "download", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "dlbot - Test",
		message:  "Notification system test",
		tags:     []string{"dlbot", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
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

type noopService struct{}

func (noopService) NotifyContentFound(context.Context, string, string, bool) error     { return nil }
func (noopService) NotifyDownloadComplete(context.Context, string, string) error       { return nil }
func (noopService) NotifyDownloadFailed(context.Context, string, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
