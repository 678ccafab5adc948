package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riftcast/riftcast/internal/domain"
)

// PredictionStore implements domain.PredictionStore using PostgreSQL.
// Outcomes live in a child table and are rewritten on every upsert; the
// platform is the source of truth for vote counts.
type PredictionStore struct {
	pool *pgxpool.Pool
}

// NewPredictionStore creates a new PredictionStore backed by the given pool.
func NewPredictionStore(pool *pgxpool.Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

const upsertPredictionSQL = `
	INSERT INTO predictions (
		id, broadcaster_id, title, status, winning_outcome_id,
		session_id, created_at, locked_at, ended_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		title              = EXCLUDED.title,
		status             = EXCLUDED.status,
		winning_outcome_id = EXCLUDED.winning_outcome_id,
		session_id         = CASE
			WHEN EXCLUDED.session_id <> '' THEN EXCLUDED.session_id
			ELSE predictions.session_id
		END,
		locked_at = EXCLUDED.locked_at,
		ended_at  = EXCLUDED.ended_at`

const insertOutcomeSQL = `
	INSERT INTO prediction_outcomes (
		prediction_id, outcome_id, position, title, color, users, channel_points
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (prediction_id, outcome_id) DO UPDATE SET
		position       = EXCLUDED.position,
		title          = EXCLUDED.title,
		color          = EXCLUDED.color,
		users          = EXCLUDED.users,
		channel_points = EXCLUDED.channel_points`

func queuePrediction(batch *pgx.Batch, p domain.Prediction) {
	batch.Queue(upsertPredictionSQL,
		p.ID, p.BroadcasterID, p.Title, string(p.Status), p.WinningOutcomeID,
		p.SessionID, p.CreatedAt, p.LockedAt, p.EndedAt,
	)
	for i, o := range p.Outcomes {
		batch.Queue(insertOutcomeSQL,
			p.ID, o.ID, i, o.Title, o.Color, o.Users, o.ChannelPoints,
		)
	}
}

// Upsert inserts or refreshes a single prediction and its outcomes.
func (s *PredictionStore) Upsert(ctx context.Context, p domain.Prediction) error {
	return s.UpsertBatch(ctx, []domain.Prediction{p})
}

// UpsertBatch inserts or refreshes multiple predictions in one round trip.
func (s *PredictionStore) UpsertBatch(ctx context.Context, ps []domain.Prediction) error {
	if len(ps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range ps {
		queuePrediction(batch, p)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert prediction batch item %d: %w", i, err)
		}
	}
	return nil
}

const predictionCols = `id, broadcaster_id, title, status, winning_outcome_id,
	session_id, created_at, locked_at, ended_at`

func scanPrediction(row pgx.Row) (domain.Prediction, error) {
	var p domain.Prediction
	var status string
	err := row.Scan(
		&p.ID, &p.BroadcasterID, &p.Title, &status, &p.WinningOutcomeID,
		&p.SessionID, &p.CreatedAt, &p.LockedAt, &p.EndedAt,
	)
	if err != nil {
		return domain.Prediction{}, err
	}
	p.Status = domain.PredictionStatus(status)
	return p, nil
}

// GetByID retrieves a prediction with its outcomes.
func (s *PredictionStore) GetByID(ctx context.Context, id string) (domain.Prediction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+predictionCols+` FROM predictions WHERE id = $1`, id)
	p, err := scanPrediction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Prediction{}, domain.ErrNotFound
		}
		return domain.Prediction{}, fmt.Errorf("postgres: get prediction %s: %w", id, err)
	}

	outcomes, err := s.loadOutcomes(ctx, []string{p.ID})
	if err != nil {
		return domain.Prediction{}, err
	}
	p.Outcomes = outcomes[p.ID]
	return p, nil
}

// ListByBroadcaster returns the broadcaster's predictions, newest first.
func (s *PredictionStore) ListByBroadcaster(ctx context.Context, broadcasterID string, opts domain.ListOpts) ([]domain.Prediction, error) {
	query := `SELECT ` + predictionCols + ` FROM predictions
		WHERE broadcaster_id = $1 ORDER BY created_at DESC`
	args := []any{broadcasterID}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list predictions for %s: %w", broadcasterID, err)
	}
	defer rows.Close()
	return s.collect(ctx, rows)
}

// ListBySession returns the predictions grouped under one session.
func (s *PredictionStore) ListBySession(ctx context.Context, broadcasterID, sessionID string) ([]domain.Prediction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+predictionCols+` FROM predictions
		 WHERE broadcaster_id = $1 AND session_id = $2
		 ORDER BY created_at`, broadcasterID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list predictions for session %s: %w", sessionID, err)
	}
	defer rows.Close()
	return s.collect(ctx, rows)
}

// ListEndedBefore returns resolved or canceled predictions that ended
// strictly before the cutoff.
func (s *PredictionStore) ListEndedBefore(ctx context.Context, before time.Time) ([]domain.Prediction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+predictionCols+` FROM predictions
		 WHERE status IN ('RESOLVED', 'CANCELED') AND ended_at < $1
		 ORDER BY ended_at`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ended predictions: %w", err)
	}
	defer rows.Close()
	return s.collect(ctx, rows)
}

// DeleteEndedBefore removes archived predictions and reports how many
// rows went away. Outcomes cascade.
func (s *PredictionStore) DeleteEndedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM predictions
		 WHERE status IN ('RESOLVED', 'CANCELED') AND ended_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete ended predictions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PredictionStore) collect(ctx context.Context, rows pgx.Rows) ([]domain.Prediction, error) {
	var preds []domain.Prediction
	var ids []string
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan prediction: %w", err)
		}
		preds = append(preds, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate predictions: %w", err)
	}
	if len(preds) == 0 {
		return preds, nil
	}

	outcomes, err := s.loadOutcomes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range preds {
		preds[i].Outcomes = outcomes[preds[i].ID]
	}
	return preds, nil
}

func (s *PredictionStore) loadOutcomes(ctx context.Context, predictionIDs []string) (map[string][]domain.Outcome, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT prediction_id, outcome_id, title, color, users, channel_points
		 FROM prediction_outcomes
		 WHERE prediction_id = ANY($1)
		 ORDER BY prediction_id, position`, predictionIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres: load outcomes: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Outcome, len(predictionIDs))
	for rows.Next() {
		var predID string
		var o domain.Outcome
		if err := rows.Scan(&predID, &o.ID, &o.Title, &o.Color, &o.Users, &o.ChannelPoints); err != nil {
			return nil, fmt.Errorf("postgres: scan outcome: %w", err)
		}
		out[predID] = append(out[predID], o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate outcomes: %w", err)
	}
	return out, nil
}

var _ domain.PredictionStore = (*PredictionStore)(nil)
