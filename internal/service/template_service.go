package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/riftcast/riftcast/internal/domain"
)

// Window length bounds imposed by the Helix predictions API.
const (
	minWindowSeconds = 30
	maxWindowSeconds = 1800
)

// TemplateService manages reusable prediction templates.
type TemplateService struct {
	templates domain.TemplateStore
	logger    *slog.Logger
}

// NewTemplateService creates a TemplateService.
func NewTemplateService(templates domain.TemplateStore, logger *slog.Logger) *TemplateService {
	return &TemplateService{
		templates: templates,
		logger:    logger.With(slog.String("component", "template_service")),
	}
}

// Create validates and stores a new template for the user.
func (s *TemplateService) Create(ctx context.Context, userID string, t domain.Template) (domain.Template, error) {
	t.ID = uuid.New()
	t.UserID = userID
	if err := validateTemplate(t); err != nil {
		return domain.Template{}, err
	}

	created, err := s.templates.Create(ctx, t)
	if err != nil {
		return domain.Template{}, fmt.Errorf("template_service: create for %s: %w", userID, err)
	}
	return created, nil
}

// Update rewrites a template the user owns.
func (s *TemplateService) Update(ctx context.Context, userID string, t domain.Template) (domain.Template, error) {
	existing, err := s.owned(ctx, userID, t.ID)
	if err != nil {
		return domain.Template{}, err
	}

	t.UserID = existing.UserID
	if err := validateTemplate(t); err != nil {
		return domain.Template{}, err
	}
	if err := s.templates.Update(ctx, t); err != nil {
		return domain.Template{}, fmt.Errorf("template_service: update %s: %w", t.ID, err)
	}
	return t, nil
}

// Delete removes a template the user owns.
func (s *TemplateService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return fmt.Errorf("template_service: delete %s: %w", id, err)
	}
	return nil
}

// Get returns a template the user owns.
func (s *TemplateService) Get(ctx context.Context, userID string, id uuid.UUID) (domain.Template, error) {
	return s.owned(ctx, userID, id)
}

// List returns the user's templates.
func (s *TemplateService) List(ctx context.Context, userID string) ([]domain.Template, error) {
	templates, err := s.templates.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("template_service: list for %s: %w", userID, err)
	}
	return templates, nil
}

func (s *TemplateService) owned(ctx context.Context, userID string, id uuid.UUID) (domain.Template, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return domain.Template{}, fmt.Errorf("template_service: get %s: %w", id, err)
	}
	if t.UserID != userID {
		return domain.Template{}, domain.ErrOwnershipMismatch
	}
	return t, nil
}

func validateTemplate(t domain.Template) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("template_service: empty title: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(t.Outcome1) == "" || strings.TrimSpace(t.Outcome2) == "" {
		return fmt.Errorf("template_service: both outcomes required: %w", domain.ErrValidation)
	}
	if t.DurationSeconds < minWindowSeconds || t.DurationSeconds > maxWindowSeconds {
		return fmt.Errorf("template_service: duration %ds, want %d to %d: %w",
			t.DurationSeconds, minWindowSeconds, maxWindowSeconds, domain.ErrValidation)
	}
	return nil
}
