package phase

import "strings"

// Status is the lifecycle state of a remote session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Kind is the display category used when rendering a status badge.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// ParseStatus normalizes a raw status string.
func ParseStatus(raw string) Status {
	return Status(strings.ToLower(strings.TrimSpace(raw)))
}

// IsTerminal reports whether no further polling should happen for the status.
func IsTerminal(status string) bool {
	switch ParseStatus(status) {
	case StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// StatusKind maps a session status to its display category.
func StatusKind(status string) Kind {
	switch ParseStatus(status) {
	case StatusCompleted:
		return KindSuccess
	case StatusError:
		return KindError
	case StatusRunning:
		return KindInfo
	default:
		return KindWarning
	}
}
