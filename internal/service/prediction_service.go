package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/riftcast/riftcast/internal/domain"
	"github.com/riftcast/riftcast/internal/platform/twitch"
)

// HelixAPI is the prediction slice of the Twitch Helix client.
type HelixAPI interface {
	ListPredictions(ctx context.Context, accessToken, broadcasterID string, first int, after string) (twitch.PredictionPage, error)
	CreatePrediction(ctx context.Context, accessToken, broadcasterID, title string, outcomes []string, windowSeconds int) (domain.Prediction, error)
	EndPrediction(ctx context.Context, accessToken, broadcasterID, predictionID, winningOutcomeID string) (domain.Prediction, error)
	CancelPrediction(ctx context.Context, accessToken, broadcasterID, predictionID string) (domain.Prediction, error)
}

// TokenProvider yields a valid access token for a user.
type TokenProvider interface {
	GetValidToken(ctx context.Context, userID string) (domain.UserToken, error)
}

// PredictionService drives the Helix predictions API on behalf of a user
// and mirrors every prediction it sees into the local store.
type PredictionService struct {
	api    HelixAPI
	tokens TokenProvider
	store  domain.PredictionStore
	logger *slog.Logger
}

// NewPredictionService creates a PredictionService with all required dependencies.
func NewPredictionService(api HelixAPI, tokens TokenProvider, store domain.PredictionStore, logger *slog.Logger) *PredictionService {
	return &PredictionService{
		api:    api,
		tokens: tokens,
		store:  store,
		logger: logger.With(slog.String("component", "prediction_service")),
	}
}

// List fetches up to n of the user's most recent predictions, newest first.
// Helix caps pages at 25, so larger requests page through the cursor; each
// page is persisted as it arrives so a mid-listing failure keeps what was
// already fetched.
func (s *PredictionService) List(ctx context.Context, userID string, n int) ([]domain.Prediction, error) {
	if n <= 0 {
		n = twitch.PageLimit
	}

	token, err := s.tokens.GetValidToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		out    []domain.Prediction
		cursor string
	)
	for len(out) < n {
		first := n - len(out)
		if first > twitch.PageLimit {
			first = twitch.PageLimit
		}

		page, err := s.api.ListPredictions(ctx, token.AccessToken, userID, first, cursor)
		if err != nil {
			return nil, fmt.Errorf("prediction_service: list page for %s: %w", userID, err)
		}
		if len(page.Predictions) == 0 {
			break
		}

		if err := s.store.UpsertBatch(ctx, page.Predictions); err != nil {
			return nil, fmt.Errorf("prediction_service: persist page for %s: %w", userID, err)
		}

		out = append(out, page.Predictions...)
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	return out, nil
}

// Create opens a prediction. Outcome validation happens before any token
// lookup or network call.
func (s *PredictionService) Create(ctx context.Context, userID, title string, outcomes []string, windowSeconds int) (domain.Prediction, error) {
	if err := validateCreate(title, outcomes, windowSeconds); err != nil {
		return domain.Prediction{}, err
	}

	token, err := s.tokens.GetValidToken(ctx, userID)
	if err != nil {
		return domain.Prediction{}, err
	}

	pred, err := s.api.CreatePrediction(ctx, token.AccessToken, userID, title, outcomes, windowSeconds)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("prediction_service: create for %s: %w", userID, err)
	}

	if err := s.store.Upsert(ctx, pred); err != nil {
		return domain.Prediction{}, fmt.Errorf("prediction_service: persist %s: %w", pred.ID, err)
	}

	s.logger.InfoContext(ctx, "prediction created",
		slog.String("user_id", userID),
		slog.String("prediction_id", pred.ID),
		slog.String("title", pred.Title))
	return pred, nil
}

// Resolve ends a prediction with the given winning outcome.
func (s *PredictionService) Resolve(ctx context.Context, userID, predictionID, winningOutcomeID string) (domain.Prediction, error) {
	token, err := s.tokens.GetValidToken(ctx, userID)
	if err != nil {
		return domain.Prediction{}, err
	}

	pred, err := s.api.EndPrediction(ctx, token.AccessToken, userID, predictionID, winningOutcomeID)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("prediction_service: resolve %s: %w", predictionID, err)
	}

	if err := s.store.Upsert(ctx, pred); err != nil {
		return domain.Prediction{}, fmt.Errorf("prediction_service: persist %s: %w", pred.ID, err)
	}

	s.logger.InfoContext(ctx, "prediction resolved",
		slog.String("user_id", userID),
		slog.String("prediction_id", predictionID),
		slog.String("winning_outcome_id", winningOutcomeID))
	return pred, nil
}

// Cancel voids a prediction and refunds all channel points.
func (s *PredictionService) Cancel(ctx context.Context, userID, predictionID string) (domain.Prediction, error) {
	token, err := s.tokens.GetValidToken(ctx, userID)
	if err != nil {
		return domain.Prediction{}, err
	}

	pred, err := s.api.CancelPrediction(ctx, token.AccessToken, userID, predictionID)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("prediction_service: cancel %s: %w", predictionID, err)
	}

	if err := s.store.Upsert(ctx, pred); err != nil {
		return domain.Prediction{}, fmt.Errorf("prediction_service: persist %s: %w", pred.ID, err)
	}
	return pred, nil
}

// Get returns a single prediction, serving from the local store and falling
// back to a fresh listing when the store has not seen it yet.
func (s *PredictionService) Get(ctx context.Context, userID, predictionID string) (domain.Prediction, error) {
	pred, err := s.store.GetByID(ctx, predictionID)
	if err == nil {
		return pred, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Prediction{}, fmt.Errorf("prediction_service: get %s: %w", predictionID, err)
	}

	preds, err := s.List(ctx, userID, twitch.PageLimit)
	if err != nil {
		return domain.Prediction{}, err
	}
	for _, p := range preds {
		if p.ID == predictionID {
			return p, nil
		}
	}
	return domain.Prediction{}, domain.ErrNotFound
}

func validateCreate(title string, outcomes []string, windowSeconds int) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("prediction_service: empty title: %w", domain.ErrValidation)
	}
	if len(outcomes) < domain.MinOutcomes || len(outcomes) > domain.MaxOutcomes {
		return fmt.Errorf("prediction_service: %d outcomes, want %d to %d: %w",
			len(outcomes), domain.MinOutcomes, domain.MaxOutcomes, domain.ErrValidation)
	}
	for _, o := range outcomes {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("prediction_service: empty outcome title: %w", domain.ErrValidation)
		}
	}
	if windowSeconds <= 0 {
		return fmt.Errorf("prediction_service: window %ds: %w", windowSeconds, domain.ErrValidation)
	}
	return nil
}
