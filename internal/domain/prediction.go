package domain

import "time"

// PredictionStatus represents the lifecycle state of a Twitch prediction.
type PredictionStatus string

const (
	PredictionActive   PredictionStatus = "ACTIVE"
	PredictionLocked   PredictionStatus = "LOCKED"
	PredictionResolved PredictionStatus = "RESOLVED"
	PredictionCanceled PredictionStatus = "CANCELED"
)

// Outcome is a single wagering outcome of a prediction.
type Outcome struct {
	ID            string
	Title         string
	Color         string
	Users         int
	ChannelPoints int
}

// Prediction is a Twitch channel-point prediction. The platform owns it; we
// cache it locally for lookup. The outcome list is immutable in count and
// order after creation; only Status, EndedAt, and WinningOutcomeID change on
// resolution.
type Prediction struct {
	ID               string
	BroadcasterID    string
	Title            string
	Outcomes         []Outcome
	Status           PredictionStatus
	WinningOutcomeID string
	SessionID        string
	CreatedAt        time.Time
	LockedAt         *time.Time
	EndedAt          *time.Time
}

// Outcome count limits imposed by the Twitch Helix predictions API.
const (
	MinOutcomes = 2
	MaxOutcomes = 10
)
