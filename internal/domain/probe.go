package domain

import "time"

// ProbeStatus classifies the answer to "is this player in a match right now".
// A transport or authentication failure is reported as an error by the probe,
// never as a status, so it cannot be mistaken for NotInMatch.
type ProbeStatus string

const (
	StatusNotInMatch ProbeStatus = "NOT_IN_MATCH"
	StatusInMatch    ProbeStatus = "IN_MATCH"
)

// ProbeResult is the live-status answer for one account.
type ProbeResult struct {
	Status  ProbeStatus
	MatchID string // set when Status == StatusInMatch
}

// InMatch reports whether the player is currently in a match.
func (r ProbeResult) InMatch() bool { return r.Status == StatusInMatch }

// MatchResult is the outcome of the account's most recent completed match.
type MatchResult struct {
	MatchID string
	Won     bool
	EndedAt time.Time
}
