package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riftcast/riftcast/internal/crypto"
	"github.com/riftcast/riftcast/internal/domain"
)

// TokenStore implements domain.TokenStore using PostgreSQL. When a cipher
// is configured the refresh token is encrypted at rest and decrypted
// transparently on load.
type TokenStore struct {
	pool   *pgxpool.Pool
	cipher *crypto.TokenCipher
}

// NewTokenStore creates a new TokenStore. cipher may be nil, in which case
// tokens are stored in plaintext.
func NewTokenStore(pool *pgxpool.Pool, cipher *crypto.TokenCipher) *TokenStore {
	return &TokenStore{pool: pool, cipher: cipher}
}

// Save inserts or replaces the user's token pair.
func (s *TokenStore) Save(ctx context.Context, token domain.UserToken) error {
	refresh := token.RefreshToken
	if s.cipher != nil {
		enc, err := s.cipher.Encrypt(refresh)
		if err != nil {
			return fmt.Errorf("postgres: encrypt refresh token for %s: %w", token.UserID, err)
		}
		refresh = enc
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO twitch_tokens (
			user_id, access_token, refresh_token, scope, expires_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			scope         = EXCLUDED.scope,
			expires_at    = EXCLUDED.expires_at,
			updated_at    = NOW()`,
		token.UserID, token.AccessToken, refresh, token.Scope, token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save token for %s: %w", token.UserID, err)
	}
	return nil
}

// Get retrieves the user's token pair.
func (s *TokenStore) Get(ctx context.Context, userID string) (domain.UserToken, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, access_token, refresh_token, scope, expires_at, updated_at
		FROM twitch_tokens WHERE user_id = $1`, userID)

	var t domain.UserToken
	err := row.Scan(&t.UserID, &t.AccessToken, &t.RefreshToken, &t.Scope, &t.ExpiresAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.UserToken{}, domain.ErrNotFound
		}
		return domain.UserToken{}, fmt.Errorf("postgres: get token for %s: %w", userID, err)
	}

	if s.cipher != nil {
		plain, err := s.cipher.Decrypt(t.RefreshToken)
		if err != nil {
			return domain.UserToken{}, fmt.Errorf("postgres: decrypt refresh token for %s: %w", userID, err)
		}
		t.RefreshToken = plain
	}
	return t, nil
}

// Delete removes the user's tokens, for example on disconnect.
func (s *TokenStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM twitch_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("postgres: delete token for %s: %w", userID, err)
	}
	return nil
}

var _ domain.TokenStore = (*TokenStore)(nil)
