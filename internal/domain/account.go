// Package domain defines the core data types and the store/cache interfaces
// implemented by the postgres and redis packages. Types here carry no
// transport or persistence concerns.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account links a Twitch broadcaster to a League of Legends player identity
// and carries the per-account automation flags.
type Account struct {
	ID           uuid.UUID
	UserID       string // Twitch broadcaster ID
	SummonerName string
	SummonerID   string
	PUUID        string
	Region       string

	// AutoCreate and AutoResolve are independent toggles; every combination
	// is valid.
	AutoCreate  bool
	AutoResolve bool

	// Active marks the account the poller drives for this user. At most one
	// account per user is active; AccountStore.Activate enforces this.
	Active bool

	// ActiveTemplateID optionally points at the prediction template used when
	// auto-creating. Nil means the built-in default title and outcomes.
	ActiveTemplateID *uuid.UUID

	// LastCheckTime is the end of the last poll outcome processed for this
	// account. Completed matches ending at or before it are never
	// reprocessed.
	LastCheckTime time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the identity under which the tracker keeps this account's
// entry. The PUUID is stable across summoner renames; fall back to the
// summoner ID for accounts connected before PUUIDs were recorded.
func (a Account) Key() string {
	if a.PUUID != "" {
		return a.PUUID
	}
	return a.SummonerID
}
