package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport marks network failures, timeouts, and unreadable responses.
	ErrTransport = errors.New("transport error")
	// ErrApplication marks a response envelope whose status was not "ok".
	ErrApplication   = errors.New("service error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransport reports whether err came from a failed request rather than the service itself.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsApplication reports whether err carries an application-level failure from the service.
func IsApplication(err error) bool {
	return errors.Is(err, ErrApplication)
}

// OperatorMessage renders err for display. Transport failures collapse into a
// generic connectivity message; application failures keep the service message
// verbatim when one is available.
func OperatorMessage(err error) string {
	if err == nil {
		return ""
	}
	var msg interface{ ServiceMessage() string }
	if errors.As(err, &msg) {
		if text := strings.TrimSpace(msg.ServiceMessage()); text != "" {
			return text
		}
	}
	if IsTransport(err) {
		return "Cannot reach the video service. Check that it is running and reachable."
	}
	return err.Error()
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
