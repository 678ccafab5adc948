package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/riftcast/riftcast/internal/domain"
)

const (
	defaultTitleFormat   = "Will %s win their game?"
	defaultOutcomeWin    = "Win"
	defaultOutcomeLoss   = "Loss"
	defaultWindowSeconds = 30 * 60
)

// Probe reports a player's live game status and their most recent
// completed match.
type Probe interface {
	// LiveStatus reports whether the account is currently in a match.
	LiveStatus(ctx context.Context, acc domain.Account) (domain.ProbeResult, error)
	// LatestResult returns the most recent completed match that ended
	// after since. ok is false when no such match exists yet.
	LatestResult(ctx context.Context, acc domain.Account, since time.Time) (result domain.MatchResult, ok bool, err error)
}

// PredictionAPI is the slice of the prediction service the tracker drives.
type PredictionAPI interface {
	Create(ctx context.Context, userID, title string, outcomes []string, windowSeconds int) (domain.Prediction, error)
	Get(ctx context.Context, userID, predictionID string) (domain.Prediction, error)
	Resolve(ctx context.Context, userID, predictionID, winningOutcomeID string) (domain.Prediction, error)
}

// TemplateGetter loads a user's prediction template by id.
type TemplateGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Template, error)
}

// LastCheckUpdater persists the high-water mark of processed match time.
type LastCheckUpdater interface {
	UpdateLastCheck(ctx context.Context, id uuid.UUID, t time.Time) error
}

// Announcer receives tracker lifecycle events for fan-out to notifiers
// and websocket subscribers. Implementations must not block.
type Announcer interface {
	Announce(ctx context.Context, event, title, message string)
}

type noopAnnouncer struct{}

func (noopAnnouncer) Announce(context.Context, string, string, string) {}

// Tracker advances one account per call through the
// NOT_TRACKING / IN_MATCH / AWAITING_NEXT lifecycle.
type Tracker struct {
	store       domain.TrackerStore
	probe       Probe
	predictions PredictionAPI
	templates   TemplateGetter
	accounts    LastCheckUpdater
	picker      WinnerPicker
	announcer   Announcer
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store domain.TrackerStore, probe Probe, predictions PredictionAPI, templates TemplateGetter, accounts LastCheckUpdater, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:       store,
		probe:       probe,
		predictions: predictions,
		templates:   templates,
		accounts:    accounts,
		picker:      KeywordWinnerPicker{},
		announcer:   noopAnnouncer{},
		logger:      logger.With(slog.String("component", "tracker")),
		locks:       make(map[string]*sync.Mutex),
	}
}

// WithAnnouncer installs an event sink. Must be called before Process.
func (t *Tracker) WithAnnouncer(a Announcer) *Tracker {
	t.announcer = a
	return t
}

// WithWinnerPicker overrides the resolution strategy. Must be called
// before Process.
func (t *Tracker) WithWinnerPicker(p WinnerPicker) *Tracker {
	t.picker = p
	return t
}

// Process runs a single tracking step for one account. Calls for the
// same account key are serialized; a failed step leaves the stored
// entry unchanged so the next tick retries the same transition.
func (t *Tracker) Process(ctx context.Context, acc domain.Account) error {
	if !acc.AutoCreate && !acc.AutoResolve {
		return nil
	}

	unlock := t.lock(acc.Key())
	defer unlock()

	probe, err := t.probe.LiveStatus(ctx, acc)
	if err != nil {
		return fmt.Errorf("tracker: live status for %s: %w", acc.SummonerName, err)
	}

	entry, err := t.store.Get(ctx, acc.Key())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		entry = domain.TrackerEntry{AccountKey: acc.Key(), UserID: acc.UserID, Phase: domain.PhaseNotTracking}
	case err != nil:
		return fmt.Errorf("tracker: load entry for %s: %w", acc.Key(), err)
	}

	switch entry.Phase {
	case domain.PhaseNotTracking:
		if probe.InMatch() && acc.AutoCreate {
			return t.openPrediction(ctx, acc, probe.MatchID)
		}
	case domain.PhaseInMatch:
		if probe.InMatch() {
			t.touch(ctx, acc)
			return nil
		}
		if !acc.AutoResolve {
			t.logger.DebugContext(ctx, "match ended, auto-resolve disabled",
				slog.String("account", acc.SummonerName))
			return nil
		}
		return t.resolvePrediction(ctx, acc, entry)
	case domain.PhaseAwaitingNext:
		if probe.InMatch() && acc.AutoCreate && probe.MatchID != entry.MatchID {
			return t.openPrediction(ctx, acc, probe.MatchID)
		}
	}
	return nil
}

func (t *Tracker) openPrediction(ctx context.Context, acc domain.Account, matchID string) error {
	title, outcomes, window := t.predictionParams(ctx, acc)

	pred, err := t.predictions.Create(ctx, acc.UserID, title, outcomes, window)
	if err != nil {
		return fmt.Errorf("tracker: create prediction for %s: %w", acc.SummonerName, err)
	}
	entry := domain.TrackerEntry{
		AccountKey:   acc.Key(),
		UserID:       acc.UserID,
		MatchID:      matchID,
		PredictionID: pred.ID,
		Phase:        domain.PhaseInMatch,
	}
	if err := t.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("tracker: save entry for %s: %w", acc.Key(), err)
	}
	t.logger.InfoContext(ctx, "prediction created",
		slog.String("account", acc.SummonerName),
		slog.String("match_id", matchID),
		slog.String("prediction_id", pred.ID))
	t.announcer.Announce(ctx, "prediction_created", title,
		fmt.Sprintf("%s entered a match, prediction is open", acc.SummonerName))
	return nil
}

func (t *Tracker) resolvePrediction(ctx context.Context, acc domain.Account, entry domain.TrackerEntry) error {
	result, ok, err := t.probe.LatestResult(ctx, acc, acc.LastCheckTime)
	if err != nil {
		return fmt.Errorf("tracker: latest result for %s: %w", acc.SummonerName, err)
	}
	if !ok {
		// Match history has not caught up yet; retry next tick.
		return nil
	}

	pred, err := t.predictions.Get(ctx, acc.UserID, entry.PredictionID)
	if err != nil {
		return fmt.Errorf("tracker: load prediction %s: %w", entry.PredictionID, err)
	}

	winnerID, err := t.picker.Pick(pred, result.Won)
	if errors.Is(err, domain.ErrAmbiguousResolution) {
		t.logger.WarnContext(ctx, "cannot map match result to an outcome, leaving prediction open",
			slog.String("account", acc.SummonerName),
			slog.String("prediction_id", entry.PredictionID))
		t.announcer.Announce(ctx, "ambiguous_resolution", pred.Title,
			fmt.Sprintf("no outcome of %q matches the match result, resolve it manually", pred.Title))
		return nil
	}
	if err != nil {
		return fmt.Errorf("tracker: pick winner for %s: %w", entry.PredictionID, err)
	}

	if _, err := t.predictions.Resolve(ctx, acc.UserID, entry.PredictionID, winnerID); err != nil {
		return fmt.Errorf("tracker: resolve prediction %s: %w", entry.PredictionID, err)
	}

	if err := t.accounts.UpdateLastCheck(ctx, acc.ID, result.EndedAt); err != nil {
		t.logger.ErrorContext(ctx, "failed to persist last check time",
			slog.String("account", acc.SummonerName),
			slog.String("error", err.Error()))
	}

	if acc.AutoCreate {
		entry.Phase = domain.PhaseAwaitingNext
		entry.MatchID = result.MatchID
		entry.PredictionID = ""
		if err := t.store.Put(ctx, entry); err != nil {
			return fmt.Errorf("tracker: save entry for %s: %w", acc.Key(), err)
		}
	} else {
		if err := t.store.Remove(ctx, acc.Key()); err != nil {
			return fmt.Errorf("tracker: remove entry for %s: %w", acc.Key(), err)
		}
	}

	verdict := "lost"
	if result.Won {
		verdict = "won"
	}
	t.logger.InfoContext(ctx, "prediction resolved",
		slog.String("account", acc.SummonerName),
		slog.String("match_id", result.MatchID),
		slog.String("verdict", verdict))
	t.announcer.Announce(ctx, "prediction_resolved", pred.Title,
		fmt.Sprintf("%s %s their match", acc.SummonerName, verdict))
	return nil
}

// predictionParams resolves title, outcome labels and window from the
// account's active template, falling back to defaults when the template
// is missing or unset.
func (t *Tracker) predictionParams(ctx context.Context, acc domain.Account) (string, []string, int) {
	title := fmt.Sprintf(defaultTitleFormat, acc.SummonerName)
	outcomes := []string{defaultOutcomeWin, defaultOutcomeLoss}
	window := defaultWindowSeconds

	if acc.ActiveTemplateID == nil {
		return title, outcomes, window
	}
	tpl, err := t.templates.GetByID(ctx, *acc.ActiveTemplateID)
	if err != nil {
		t.logger.WarnContext(ctx, "active template not loadable, using defaults",
			slog.String("account", acc.SummonerName),
			slog.String("template_id", acc.ActiveTemplateID.String()),
			slog.String("error", err.Error()))
		return title, outcomes, window
	}
	return tpl.Render(acc.SummonerName), []string{tpl.Outcome1, tpl.Outcome2}, tpl.DurationSeconds
}

func (t *Tracker) touch(ctx context.Context, acc domain.Account) {
	if err := t.accounts.UpdateLastCheck(ctx, acc.ID, time.Now().UTC()); err != nil {
		t.logger.ErrorContext(ctx, "failed to persist last check time",
			slog.String("account", acc.SummonerName),
			slog.String("error", err.Error()))
	}
}

func (t *Tracker) lock(key string) func() {
	t.mu.Lock()
	m, ok := t.locks[key]
	if !ok {
		m = &sync.Mutex{}
		t.locks[key] = m
	}
	t.mu.Unlock()
	m.Lock()
	return m.Unlock
}
