package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riftcast/riftcast/internal/domain"
)

// SessionService groups predictions under named sessions, one active
// session per broadcaster.
type SessionService struct {
	sessions    domain.SessionStore
	predictions domain.PredictionStore
	logger      *slog.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(sessions domain.SessionStore, predictions domain.PredictionStore, logger *slog.Logger) *SessionService {
	return &SessionService{
		sessions:    sessions,
		predictions: predictions,
		logger:      logger.With(slog.String("component", "session_service")),
	}
}

// Start opens a new session, completing any session still running for the
// broadcaster.
func (s *SessionService) Start(ctx context.Context, broadcasterID, name, description, tags string) (domain.Session, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Session{}, fmt.Errorf("session_service: empty name: %w", domain.ErrValidation)
	}

	active, err := s.sessions.ListActiveByBroadcaster(ctx, broadcasterID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session_service: list active for %s: %w", broadcasterID, err)
	}
	for _, old := range active {
		if err := s.complete(ctx, old); err != nil {
			return domain.Session{}, err
		}
	}

	sess := domain.Session{
		ID:            uuid.New().String(),
		BroadcasterID: broadcasterID,
		Name:          name,
		Description:   description,
		Tags:          tags,
		Status:        domain.SessionActive,
		StartedAt:     time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("session_service: create %s: %w", sess.ID, err)
	}

	s.logger.InfoContext(ctx, "session started",
		slog.String("broadcaster_id", broadcasterID),
		slog.String("session_id", sess.ID),
		slog.String("name", name))
	return sess, nil
}

// End completes a session the broadcaster owns.
func (s *SessionService) End(ctx context.Context, broadcasterID, sessionID string) (domain.Session, error) {
	sess, err := s.owned(ctx, broadcasterID, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.Status == domain.SessionCompleted {
		return sess, nil
	}
	if err := s.complete(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	sess.Status = domain.SessionCompleted
	return sess, nil
}

// Get returns a session the broadcaster owns.
func (s *SessionService) Get(ctx context.Context, broadcasterID, sessionID string) (domain.Session, error) {
	return s.owned(ctx, broadcasterID, sessionID)
}

// List returns the broadcaster's sessions, newest first.
func (s *SessionService) List(ctx context.Context, broadcasterID string) ([]domain.Session, error) {
	sessions, err := s.sessions.ListByBroadcaster(ctx, broadcasterID)
	if err != nil {
		return nil, fmt.Errorf("session_service: list for %s: %w", broadcasterID, err)
	}
	return sessions, nil
}

// Predictions returns the predictions recorded under a session.
func (s *SessionService) Predictions(ctx context.Context, broadcasterID, sessionID string) ([]domain.Prediction, error) {
	if _, err := s.owned(ctx, broadcasterID, sessionID); err != nil {
		return nil, err
	}
	preds, err := s.predictions.ListBySession(ctx, broadcasterID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session_service: predictions for %s: %w", sessionID, err)
	}
	return preds, nil
}

func (s *SessionService) complete(ctx context.Context, sess domain.Session) error {
	now := time.Now().UTC()
	sess.Status = domain.SessionCompleted
	sess.EndedAt = &now
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("session_service: complete %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SessionService) owned(ctx context.Context, broadcasterID, sessionID string) (domain.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session_service: get %s: %w", sessionID, err)
	}
	if sess.BroadcasterID != broadcasterID {
		return domain.Session{}, domain.ErrOwnershipMismatch
	}
	return sess, nil
}
