package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riftcast/riftcast/internal/domain"
)

// SessionStore implements domain.SessionStore using PostgreSQL.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new SessionStore backed by the given pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

const sessionCols = `id, broadcaster_id, name, description, tags, status, started_at, ended_at`

func scanSession(row pgx.Row) (domain.Session, error) {
	var sess domain.Session
	var status string
	err := row.Scan(
		&sess.ID, &sess.BroadcasterID, &sess.Name, &sess.Description,
		&sess.Tags, &status, &sess.StartedAt, &sess.EndedAt,
	)
	if err != nil {
		return domain.Session{}, err
	}
	sess.Status = domain.SessionStatus(status)
	return sess, nil
}

// Create inserts a new session.
func (s *SessionStore) Create(ctx context.Context, sess domain.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO prediction_sessions (
			id, broadcaster_id, name, description, tags, status, started_at, ended_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.ID, sess.BroadcasterID, sess.Name, sess.Description,
		sess.Tags, string(sess.Status), sess.StartedAt, sess.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create session %s: %w", sess.ID, err)
	}
	return nil
}

// Update rewrites a session's mutable fields.
func (s *SessionStore) Update(ctx context.Context, sess domain.Session) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE prediction_sessions SET
			name        = $2,
			description = $3,
			tags        = $4,
			status      = $5,
			ended_at    = $6
		WHERE id = $1`,
		sess.ID, sess.Name, sess.Description, sess.Tags, string(sess.Status), sess.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update session %s: %w", sess.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its primary key.
func (s *SessionStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionCols+` FROM prediction_sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("postgres: get session %s: %w", id, err)
	}
	return sess, nil
}

// ListByBroadcaster returns the broadcaster's sessions, newest first.
func (s *SessionStore) ListByBroadcaster(ctx context.Context, broadcasterID string) ([]domain.Session, error) {
	return s.list(ctx,
		`SELECT `+sessionCols+` FROM prediction_sessions
		 WHERE broadcaster_id = $1 ORDER BY started_at DESC`, broadcasterID)
}

// ListActiveByBroadcaster returns the broadcaster's running sessions.
func (s *SessionStore) ListActiveByBroadcaster(ctx context.Context, broadcasterID string) ([]domain.Session, error) {
	return s.list(ctx,
		`SELECT `+sessionCols+` FROM prediction_sessions
		 WHERE broadcaster_id = $1 AND status = 'ACTIVE'
		 ORDER BY started_at DESC`, broadcasterID)
}

func (s *SessionStore) list(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate sessions: %w", err)
	}
	return sessions, nil
}

var _ domain.SessionStore = (*SessionStore)(nil)
