package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riftcast/riftcast/internal/domain"
)

// AccountStore implements domain.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates a new AccountStore backed by the given connection pool.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

const accountCols = `id, user_id, summoner_name, summoner_id, puuid, region,
	auto_create, auto_resolve, active, active_template_id,
	last_check_time, created_at, updated_at`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.UserID, &a.SummonerName, &a.SummonerID, &a.PUUID, &a.Region,
		&a.AutoCreate, &a.AutoResolve, &a.Active, &a.ActiveTemplateID,
		&a.LastCheckTime, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// Create inserts a new account. The caller assigns the ID.
func (s *AccountStore) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO league_accounts (
			id, user_id, summoner_name, summoner_id, puuid, region,
			auto_create, auto_resolve, active, active_template_id,
			last_check_time, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, NOW(), NOW()
		)
		RETURNING `+accountCols,
		a.ID, a.UserID, a.SummonerName, a.SummonerID, a.PUUID, a.Region,
		a.AutoCreate, a.AutoResolve, a.Active, a.ActiveTemplateID,
		a.LastCheckTime,
	)
	created, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, fmt.Errorf("postgres: create account %s: %w", a.SummonerName, err)
	}
	return created, nil
}

// Update rewrites the mutable account fields.
func (s *AccountStore) Update(ctx context.Context, a domain.Account) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE league_accounts SET
			summoner_name      = $2,
			summoner_id        = $3,
			puuid              = $4,
			region             = $5,
			auto_create        = $6,
			auto_resolve       = $7,
			active             = $8,
			active_template_id = $9,
			updated_at         = NOW()
		WHERE id = $1`,
		a.ID, a.SummonerName, a.SummonerID, a.PUUID, a.Region,
		a.AutoCreate, a.AutoResolve, a.Active, a.ActiveTemplateID,
	)
	if err != nil {
		return fmt.Errorf("postgres: update account %s: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an account.
func (s *AccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM league_accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete account %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves an account by its primary key.
func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM league_accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("postgres: get account %s: %w", id, err)
	}
	return a, nil
}

// ListByUser returns all of the user's connected accounts, newest first.
func (s *AccountStore) ListByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+accountCols+` FROM league_accounts
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list accounts for %s: %w", userID, err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// GetActiveByUser returns the user's single active account.
func (s *AccountStore) GetActiveByUser(ctx context.Context, userID string) (domain.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM league_accounts
		 WHERE user_id = $1 AND active`, userID)
	a, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("postgres: get active account for %s: %w", userID, err)
	}
	return a, nil
}

// Activate flips the active flag to the given account inside one
// transaction so the one-active-per-user invariant holds throughout.
func (s *AccountStore) Activate(ctx context.Context, userID string, id uuid.UUID) (domain.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("postgres: begin activate tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE league_accounts SET active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND active AND id <> $2`, userID, id); err != nil {
		return domain.Account{}, fmt.Errorf("postgres: deactivate siblings for %s: %w", userID, err)
	}

	row := tx.QueryRow(ctx, `
		UPDATE league_accounts SET active = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+accountCols, id, userID)
	a, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("postgres: activate account %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Account{}, fmt.Errorf("postgres: commit activate tx: %w", err)
	}
	return a, nil
}

// DeactivateAll clears the active flag on all of the user's accounts.
func (s *AccountStore) DeactivateAll(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `
		UPDATE league_accounts SET active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND active`, userID); err != nil {
		return fmt.Errorf("postgres: deactivate accounts for %s: %w", userID, err)
	}
	return nil
}

// ListAutoCreate returns active accounts with auto-creation enabled.
func (s *AccountStore) ListAutoCreate(ctx context.Context) ([]domain.Account, error) {
	return s.listFlagged(ctx, "auto_create")
}

// ListAutoResolve returns active accounts with auto-resolution enabled.
func (s *AccountStore) ListAutoResolve(ctx context.Context) ([]domain.Account, error) {
	return s.listFlagged(ctx, "auto_resolve")
}

func (s *AccountStore) listFlagged(ctx context.Context, flag string) ([]domain.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+accountCols+` FROM league_accounts
		 WHERE active AND `+flag+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s accounts: %w", flag, err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// UpdateLastCheck advances the processed-match high-water mark.
func (s *AccountStore) UpdateLastCheck(ctx context.Context, id uuid.UUID, t time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE league_accounts SET last_check_time = $2, updated_at = NOW()
		WHERE id = $1`, id, t)
	if err != nil {
		return fmt.Errorf("postgres: update last check for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate accounts: %w", err)
	}
	return accounts, nil
}

var _ domain.AccountStore = (*AccountStore)(nil)
