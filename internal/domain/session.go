package domain

import "time"

// SessionStatus represents the lifecycle state of a prediction session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
)

// Session groups predictions under a named label (for example one stream
// night). Sessions are local-only; the platform knows nothing about them.
type Session struct {
	ID            string
	BroadcasterID string
	Name          string
	Description   string
	Tags          string
	Status        SessionStatus
	StartedAt     time.Time
	EndedAt       *time.Time
}
