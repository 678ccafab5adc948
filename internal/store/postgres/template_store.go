package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riftcast/riftcast/internal/domain"
)

// TemplateStore implements domain.TemplateStore using PostgreSQL.
type TemplateStore struct {
	pool *pgxpool.Pool
}

// NewTemplateStore creates a new TemplateStore backed by the given pool.
func NewTemplateStore(pool *pgxpool.Pool) *TemplateStore {
	return &TemplateStore{pool: pool}
}

const templateCols = `id, user_id, title, outcome_1, outcome_2, duration_seconds`

func scanTemplate(row pgx.Row) (domain.Template, error) {
	var t domain.Template
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Outcome1, &t.Outcome2, &t.DurationSeconds)
	return t, err
}

// Create inserts a new template. The caller assigns the ID.
func (s *TemplateStore) Create(ctx context.Context, t domain.Template) (domain.Template, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO prediction_templates (
			id, user_id, title, outcome_1, outcome_2, duration_seconds,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING `+templateCols,
		t.ID, t.UserID, t.Title, t.Outcome1, t.Outcome2, t.DurationSeconds,
	)
	created, err := scanTemplate(row)
	if err != nil {
		return domain.Template{}, fmt.Errorf("postgres: create template for %s: %w", t.UserID, err)
	}
	return created, nil
}

// Update rewrites a template's fields.
func (s *TemplateStore) Update(ctx context.Context, t domain.Template) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE prediction_templates SET
			title            = $2,
			outcome_1        = $3,
			outcome_2        = $4,
			duration_seconds = $5,
			updated_at       = NOW()
		WHERE id = $1`,
		t.ID, t.Title, t.Outcome1, t.Outcome2, t.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("postgres: update template %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a template. Accounts referencing it fall back to the
// default title through the ON DELETE SET NULL constraint.
func (s *TemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM prediction_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete template %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a template by its primary key.
func (s *TemplateStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Template, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+templateCols+` FROM prediction_templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Template{}, domain.ErrNotFound
		}
		return domain.Template{}, fmt.Errorf("postgres: get template %s: %w", id, err)
	}
	return t, nil
}

// ListByUser returns the user's templates, newest first.
func (s *TemplateStore) ListByUser(ctx context.Context, userID string) ([]domain.Template, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+templateCols+` FROM prediction_templates
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list templates for %s: %w", userID, err)
	}
	defer rows.Close()

	var templates []domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate templates: %w", err)
	}
	return templates, nil
}

var _ domain.TemplateStore = (*TemplateStore)(nil)
