package services_test

import (
	"errors"
	"strings"
	"testing"

	"reelforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransport, "factory", "GET /health", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"factory", "GET /health", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestClassification(t *testing.T) {
	transport := services.Wrap(services.ErrTransport, "factory", "status", "", errors.New("dial"))
	if !services.IsTransport(transport) || services.IsApplication(transport) {
		t.Fatalf("expected transport classification for %v", transport)
	}
	app := services.Wrap(services.ErrApplication, "factory", "status", "session not found", nil)
	if services.IsTransport(app) || !services.IsApplication(app) {
		t.Fatalf("expected application classification for %v", app)
	}
	if services.IsTransport(nil) || services.IsApplication(nil) {
		t.Fatal("nil error must not classify")
	}
}

type messageErr struct{ msg string }

func (e messageErr) Error() string          { return "wrapped: " + e.msg }
func (e messageErr) ServiceMessage() string { return e.msg }

func TestOperatorMessage(t *testing.T) {
	if got := services.OperatorMessage(nil); got != "" {
		t.Fatalf("expected empty message for nil, got %q", got)
	}
	transport := services.Wrap(services.ErrTransport, "factory", "status", "", errors.New("connection refused"))
	if got := services.OperatorMessage(transport); strings.Contains(got, "connection refused") {
		t.Fatalf("transport message should be generic, got %q", got)
	}
	app := services.Wrap(services.ErrApplication, "factory", "mine", "", messageErr{msg: "Topic is empty"})
	if got := services.OperatorMessage(app); got != "Topic is empty" {
		t.Fatalf("expected verbatim service message, got %q", got)
	}
}
