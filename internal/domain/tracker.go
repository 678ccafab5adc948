package domain

import "context"

// TrackerPhase is the per-account state of the game tracker.
type TrackerPhase string

const (
	// PhaseNotTracking: no match and no prediction are associated with the
	// account.
	PhaseNotTracking TrackerPhase = "NOT_TRACKING"
	// PhaseInMatch: a match is in progress and a prediction is open for it.
	// MatchID and PredictionID are both set.
	PhaseInMatch TrackerPhase = "IN_MATCH"
	// PhaseAwaitingNext: the previous match's prediction has been resolved
	// and the entry is watching for the next match to start.
	PhaseAwaitingNext TrackerPhase = "AWAITING_NEXT"
)

// TrackerEntry is the tracker's record for one account. Entries are owned
// exclusively by the tracker and keyed by Account.Key().
type TrackerEntry struct {
	AccountKey   string       `json:"account_key"`
	UserID       string       `json:"user_id"`
	MatchID      string       `json:"match_id"`
	PredictionID string       `json:"prediction_id"`
	Phase        TrackerPhase `json:"phase"`
}

// TrackerStore holds tracker entries. The default implementation is
// process-scoped and in-memory; a redis-backed implementation survives
// restarts at the cost of an extra round trip per account per tick.
type TrackerStore interface {
	// Get returns the entry for key. A missing key returns ErrNotFound.
	Get(ctx context.Context, key string) (TrackerEntry, error)
	Put(ctx context.Context, entry TrackerEntry) error
	Remove(ctx context.Context, key string) error
}
