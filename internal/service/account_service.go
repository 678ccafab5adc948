package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riftcast/riftcast/internal/domain"
	"github.com/riftcast/riftcast/internal/platform/riot"
)

// RiotResolver resolves a Riot ID to its PUUID and summoner record.
type RiotResolver interface {
	GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (riot.Account, error)
	GetSummonerByPUUID(ctx context.Context, puuid string) (riot.Summoner, error)
}

// AccountSettings carries the mutable per-account tracking options.
type AccountSettings struct {
	AutoCreate       bool
	AutoResolve      bool
	ActiveTemplateID *uuid.UUID
}

// AccountService manages the link between a broadcaster and their League
// accounts.
type AccountService struct {
	accounts domain.AccountStore
	tracker  domain.TrackerStore
	riot     RiotResolver
	logger   *slog.Logger
}

// NewAccountService creates an AccountService with all required dependencies.
func NewAccountService(accounts domain.AccountStore, tracker domain.TrackerStore, resolver RiotResolver, logger *slog.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		tracker:  tracker,
		riot:     resolver,
		logger:   logger.With(slog.String("component", "account_service")),
	}
}

// Connect resolves a Riot ID ("name#tag"), stores the account and makes it
// the user's active one.
func (s *AccountService) Connect(ctx context.Context, userID, riotID, region string) (domain.Account, error) {
	gameName, tagLine, ok := strings.Cut(riotID, "#")
	if !ok || strings.TrimSpace(gameName) == "" || strings.TrimSpace(tagLine) == "" {
		return domain.Account{}, fmt.Errorf("account_service: riot id %q, want name#tag: %w", riotID, domain.ErrValidation)
	}

	riotAcc, err := s.riot.GetAccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account_service: resolve %s: %w", riotID, err)
	}
	summoner, err := s.riot.GetSummonerByPUUID(ctx, riotAcc.PUUID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account_service: summoner for %s: %w", riotID, err)
	}

	acc := domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		SummonerName:  riotAcc.GameName,
		SummonerID:    summoner.ID,
		PUUID:         riotAcc.PUUID,
		Region:        region,
		LastCheckTime: time.Now().UTC(),
	}
	if _, err := s.accounts.Create(ctx, acc); err != nil {
		return domain.Account{}, fmt.Errorf("account_service: store %s: %w", riotID, err)
	}

	activated, err := s.accounts.Activate(ctx, userID, acc.ID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account_service: activate %s: %w", acc.ID, err)
	}

	s.logger.InfoContext(ctx, "account connected",
		slog.String("user_id", userID),
		slog.String("summoner", acc.SummonerName),
		slog.String("region", region))
	return activated, nil
}

// Activate switches the user's active account.
func (s *AccountService) Activate(ctx context.Context, userID string, id uuid.UUID) (domain.Account, error) {
	acc, err := s.accounts.Activate(ctx, userID, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account_service: activate %s: %w", id, err)
	}
	return acc, nil
}

// UpdateSettings changes the automation flags and active template of an
// account the user owns.
func (s *AccountService) UpdateSettings(ctx context.Context, userID string, id uuid.UUID, settings AccountSettings) (domain.Account, error) {
	acc, err := s.owned(ctx, userID, id)
	if err != nil {
		return domain.Account{}, err
	}

	acc.AutoCreate = settings.AutoCreate
	acc.AutoResolve = settings.AutoResolve
	acc.ActiveTemplateID = settings.ActiveTemplateID
	if err := s.accounts.Update(ctx, acc); err != nil {
		return domain.Account{}, fmt.Errorf("account_service: update %s: %w", id, err)
	}
	return acc, nil
}

// Disconnect removes an account together with its tracking state. An open
// prediction for a running match stays open on the platform.
func (s *AccountService) Disconnect(ctx context.Context, userID string, id uuid.UUID) error {
	acc, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("account_service: delete %s: %w", id, err)
	}
	if err := s.tracker.Remove(ctx, acc.Key()); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to drop tracking state",
			slog.String("account", acc.SummonerName),
			slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "account disconnected",
		slog.String("user_id", userID),
		slog.String("summoner", acc.SummonerName))
	return nil
}

// Get returns one of the user's accounts.
func (s *AccountService) Get(ctx context.Context, userID string, id uuid.UUID) (domain.Account, error) {
	return s.owned(ctx, userID, id)
}

// List returns all of the user's accounts.
func (s *AccountService) List(ctx context.Context, userID string) ([]domain.Account, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service: list for %s: %w", userID, err)
	}
	return accounts, nil
}

func (s *AccountService) owned(ctx context.Context, userID string, id uuid.UUID) (domain.Account, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account_service: get %s: %w", id, err)
	}
	if acc.UserID != userID {
		return domain.Account{}, domain.ErrOwnershipMismatch
	}
	return acc, nil
}
