// Package service contains the application services between the HTTP/poller
// surfaces and the platform clients and stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/riftcast/riftcast/internal/domain"
	"github.com/riftcast/riftcast/internal/platform/twitch"
)

// Authorizer is the OAuth slice of the Twitch auth client.
type Authorizer interface {
	AuthorizeURL() string
	ExchangeCode(ctx context.Context, code string) (domain.UserToken, error)
	Refresh(ctx context.Context, refreshToken string) (domain.UserToken, error)
}

// UserFetcher resolves the Helix user behind an access token.
type UserFetcher interface {
	GetUser(ctx context.Context, accessToken string) (twitch.APIUser, error)
}

// TokenService owns OAuth credentials: the authorization flow, persistence
// and transparent refresh of expired access tokens.
type TokenService struct {
	tokens domain.TokenStore
	auth   Authorizer
	users  UserFetcher
	logger *slog.Logger
}

// NewTokenService creates a TokenService with all required dependencies.
func NewTokenService(tokens domain.TokenStore, auth Authorizer, users UserFetcher, logger *slog.Logger) *TokenService {
	return &TokenService{
		tokens: tokens,
		auth:   auth,
		users:  users,
		logger: logger.With(slog.String("component", "token_service")),
	}
}

// AuthorizeURL returns the Twitch consent-screen URL for the configured
// client and scopes.
func (s *TokenService) AuthorizeURL() string {
	return s.auth.AuthorizeURL()
}

// HandleAuthCode exchanges an authorization code, resolves the Helix user
// it belongs to, and persists the token pair under that user id.
func (s *TokenService) HandleAuthCode(ctx context.Context, code string) (domain.UserToken, error) {
	token, err := s.auth.ExchangeCode(ctx, code)
	if err != nil {
		return domain.UserToken{}, fmt.Errorf("token_service: exchange code: %w", err)
	}

	user, err := s.users.GetUser(ctx, token.AccessToken)
	if err != nil {
		return domain.UserToken{}, fmt.Errorf("token_service: resolve token owner: %w", err)
	}
	token.UserID = user.ID

	if err := s.tokens.Save(ctx, token); err != nil {
		return domain.UserToken{}, fmt.Errorf("token_service: save token for %s: %w", token.UserID, err)
	}

	s.logger.InfoContext(ctx, "user authorized",
		slog.String("user_id", user.ID),
		slog.String("login", user.Login))
	return token, nil
}

// GetValidToken returns a non-expired token for the user, refreshing and
// persisting it first when needed. A user without stored credentials, or
// whose refresh is rejected upstream, gets domain.ErrUnauthenticated.
func (s *TokenService) GetValidToken(ctx context.Context, userID string) (domain.UserToken, error) {
	token, err := s.tokens.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.UserToken{}, fmt.Errorf("token_service: no credentials for %s: %w", userID, domain.ErrUnauthenticated)
	}
	if err != nil {
		return domain.UserToken{}, fmt.Errorf("token_service: load token for %s: %w", userID, err)
	}

	if !token.Expired() {
		return token, nil
	}

	refreshed, err := s.auth.Refresh(ctx, token.RefreshToken)
	if err != nil {
		s.logger.WarnContext(ctx, "token refresh rejected",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return domain.UserToken{}, fmt.Errorf("token_service: refresh for %s: %w", userID, domain.ErrUnauthenticated)
	}
	refreshed.UserID = userID

	if err := s.tokens.Save(ctx, refreshed); err != nil {
		return domain.UserToken{}, fmt.Errorf("token_service: save refreshed token for %s: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "access token refreshed", slog.String("user_id", userID))
	return refreshed, nil
}

// Revoke drops the user's stored credentials.
func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	if err := s.tokens.Delete(ctx, userID); err != nil {
		return fmt.Errorf("token_service: revoke for %s: %w", userID, err)
	}
	return nil
}
