package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// AccountStore persists tracked accounts.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, account Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	ListByUser(ctx context.Context, userID string) ([]Account, error)
	GetActiveByUser(ctx context.Context, userID string) (Account, error)

	// Activate deactivates every other account of the same user and activates
	// the given one in a single transaction.
	Activate(ctx context.Context, userID string, id uuid.UUID) (Account, error)

	// DeactivateAll clears the active flag on all of the user's accounts.
	DeactivateAll(ctx context.Context, userID string) error

	// ListAutoCreate and ListAutoResolve return active accounts with the
	// respective automation flag enabled.
	ListAutoCreate(ctx context.Context) ([]Account, error)
	ListAutoResolve(ctx context.Context) ([]Account, error)

	UpdateLastCheck(ctx context.Context, id uuid.UUID, t time.Time) error
}

// PredictionStore is the local cache of predictions fetched from or created
// on the platform.
type PredictionStore interface {
	Upsert(ctx context.Context, p Prediction) error
	UpsertBatch(ctx context.Context, ps []Prediction) error
	GetByID(ctx context.Context, id string) (Prediction, error)
	ListByBroadcaster(ctx context.Context, broadcasterID string, opts ListOpts) ([]Prediction, error)
	ListBySession(ctx context.Context, broadcasterID, sessionID string) ([]Prediction, error)

	// ListEndedBefore returns resolved or canceled predictions that ended
	// strictly before the cutoff, for archival.
	ListEndedBefore(ctx context.Context, before time.Time) ([]Prediction, error)
	DeleteEndedBefore(ctx context.Context, before time.Time) (int64, error)
}

// TemplateStore persists prediction templates.
type TemplateStore interface {
	Create(ctx context.Context, t Template) (Template, error)
	Update(ctx context.Context, t Template) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Template, error)
	ListByUser(ctx context.Context, userID string) ([]Template, error)
}

// TokenStore persists per-user OAuth tokens.
type TokenStore interface {
	Save(ctx context.Context, token UserToken) error
	Get(ctx context.Context, userID string) (UserToken, error)
	Delete(ctx context.Context, userID string) error
}

// SessionStore persists prediction sessions.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	Update(ctx context.Context, s Session) error
	GetByID(ctx context.Context, id string) (Session, error)
	ListByBroadcaster(ctx context.Context, broadcasterID string) ([]Session, error)
	ListActiveByBroadcaster(ctx context.Context, broadcasterID string) ([]Session, error)
}

// RateLimiter throttles calls against an upstream API across processes.
type RateLimiter interface {
	// Allow reports whether one more call under key is permitted within the
	// current window of size per allowing at most limit calls.
	Allow(ctx context.Context, key string, limit int, per time.Duration) (bool, error)
}
