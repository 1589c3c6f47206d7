package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/config"
)

const userAgent = "Reelforge-Go/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventSessionCompleted Event = "session_completed"
	EventSessionFailed    Event = "session_failed"
	EventRenderStarted    Event = "render_started"
	EventTest             Event = "test"
)

// Payload carries event specific values keyed by name.
type Payload map[string]any

// Service defines the notification surface used by the CLI and workbench.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventSessionCompleted: cfg.Notifications.SessionDone,
			EventSessionFailed:    cfg.Notifications.SessionFailed,
			EventRenderStarted:    cfg.Notifications.RenderStarted,
			EventTest:             true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	topic := payload.text("topic")
	if topic == "" {
		topic = payload.text("session_id")
	}
	switch event {
	case EventSessionCompleted:
		body := fmt.Sprintf("✅ Video ready: %s", topic)
		if output := payload.text("output"); output != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, output)
		}
		return message{
			title: "Reelforge - Session Complete",
			body:  body,
			tags:  []string{"reelforge", "session", "completed"},
		}, true
	case EventSessionFailed:
		reason := payload.text("message")
		if reason == "" {
			reason = "unknown"
		}
		return message{
			title:    "Reelforge - Session Failed",
			body:     fmt.Sprintf("❌ Session %s failed: %s", topic, reason),
			tags:     []string{"reelforge", "session", "error"},
			priority: "high",
		}, true
	case EventRenderStarted:
		body := "🎬 Render submitted"
		if title := payload.text("title"); title != "" {
			body = fmt.Sprintf("%s: %s", body, title)
		}
		return message{
			title: "Reelforge - Render Started",
			body:  body,
			tags:  []string{"reelforge", "render", "started"},
		}, true
	case EventTest:
		return message{
			title:    "Reelforge - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"reelforge", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
