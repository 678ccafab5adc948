package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riftcast/riftcast/internal/domain"
	"github.com/riftcast/riftcast/internal/platform/twitch"
)

type fakeTokenStore struct {
	byUser map[string]domain.UserToken
	saved  []domain.UserToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{byUser: make(map[string]domain.UserToken)}
}

func (f *fakeTokenStore) Save(_ context.Context, t domain.UserToken) error {
	f.byUser[t.UserID] = t
	f.saved = append(f.saved, t)
	return nil
}

func (f *fakeTokenStore) Get(_ context.Context, userID string) (domain.UserToken, error) {
	t, ok := f.byUser[userID]
	if !ok {
		return domain.UserToken{}, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeTokenStore) Delete(_ context.Context, userID string) error {
	delete(f.byUser, userID)
	return nil
}

type fakeAuth struct {
	exchanged  domain.UserToken
	refreshed  domain.UserToken
	refreshErr error
	refreshes  []string
}

func (f *fakeAuth) AuthorizeURL() string { return "https://id.twitch.tv/oauth2/authorize?x=1" }

func (f *fakeAuth) ExchangeCode(context.Context, string) (domain.UserToken, error) {
	return f.exchanged, nil
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string) (domain.UserToken, error) {
	f.refreshes = append(f.refreshes, refreshToken)
	if f.refreshErr != nil {
		return domain.UserToken{}, f.refreshErr
	}
	return f.refreshed, nil
}

type fakeUsers struct {
	user twitch.APIUser
}

func (f *fakeUsers) GetUser(context.Context, string) (twitch.APIUser, error) {
	return f.user, nil
}

func TestHandleAuthCodeResolvesOwner(t *testing.T) {
	store := newFakeTokenStore()
	auth := &fakeAuth{exchanged: domain.UserToken{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}
	users := &fakeUsers{user: twitch.APIUser{ID: "12345", Login: "faker"}}
	svc := NewTokenService(store, auth, users, serviceLogger())

	token, err := svc.HandleAuthCode(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("HandleAuthCode() error = %v", err)
	}
	if token.UserID != "12345" {
		t.Errorf("token.UserID = %q, want the Helix user id", token.UserID)
	}
	if _, ok := store.byUser["12345"]; !ok {
		t.Error("token not persisted under the resolved user id")
	}
}

func TestGetValidTokenPassesThroughFreshToken(t *testing.T) {
	store := newFakeTokenStore()
	store.byUser["12345"] = domain.UserToken{
		UserID:      "12345",
		AccessToken: "at-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	auth := &fakeAuth{}
	svc := NewTokenService(store, auth, &fakeUsers{}, serviceLogger())

	token, err := svc.GetValidToken(context.Background(), "12345")
	if err != nil {
		t.Fatalf("GetValidToken() error = %v", err)
	}
	if token.AccessToken != "at-1" {
		t.Errorf("AccessToken = %q, want the stored token", token.AccessToken)
	}
	if len(auth.refreshes) != 0 {
		t.Errorf("refreshed %d times for a fresh token, want 0", len(auth.refreshes))
	}
}

func TestGetValidTokenRefreshesExpiredToken(t *testing.T) {
	store := newFakeTokenStore()
	store.byUser["12345"] = domain.UserToken{
		UserID:       "12345",
		AccessToken:  "at-old",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	auth := &fakeAuth{refreshed: domain.UserToken{
		AccessToken:  "at-new",
		RefreshToken: "rt-2",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}
	svc := NewTokenService(store, auth, &fakeUsers{}, serviceLogger())

	token, err := svc.GetValidToken(context.Background(), "12345")
	if err != nil {
		t.Fatalf("GetValidToken() error = %v", err)
	}
	if token.AccessToken != "at-new" {
		t.Errorf("AccessToken = %q, want the refreshed token", token.AccessToken)
	}
	if token.UserID != "12345" {
		t.Errorf("UserID = %q, refresh response must keep the owner", token.UserID)
	}
	if len(auth.refreshes) != 1 || auth.refreshes[0] != "rt-1" {
		t.Errorf("refreshes = %v, want one call with the stored refresh token", auth.refreshes)
	}
	if store.byUser["12345"].AccessToken != "at-new" {
		t.Error("refreshed token not persisted")
	}
}

func TestGetValidTokenRefreshesExpiringSoonToken(t *testing.T) {
	store := newFakeTokenStore()
	// Inside the slack window: technically valid, but would expire mid-request.
	store.byUser["12345"] = domain.UserToken{
		UserID:       "12345",
		AccessToken:  "at-old",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(10 * time.Second),
	}
	auth := &fakeAuth{refreshed: domain.UserToken{
		AccessToken: "at-new",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
	svc := NewTokenService(store, auth, &fakeUsers{}, serviceLogger())

	token, err := svc.GetValidToken(context.Background(), "12345")
	if err != nil {
		t.Fatalf("GetValidToken() error = %v", err)
	}
	if token.AccessToken != "at-new" {
		t.Errorf("AccessToken = %q, want an eager refresh near expiry", token.AccessToken)
	}
}

func TestGetValidTokenWithoutCredentials(t *testing.T) {
	svc := NewTokenService(newFakeTokenStore(), &fakeAuth{}, &fakeUsers{}, serviceLogger())

	_, err := svc.GetValidToken(context.Background(), "12345")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("GetValidToken() error = %v, want ErrUnauthenticated", err)
	}
}

func TestGetValidTokenRefreshRejected(t *testing.T) {
	store := newFakeTokenStore()
	store.byUser["12345"] = domain.UserToken{
		UserID:       "12345",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	auth := &fakeAuth{refreshErr: errors.New("invalid refresh token")}
	svc := NewTokenService(store, auth, &fakeUsers{}, serviceLogger())

	_, err := svc.GetValidToken(context.Background(), "12345")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("GetValidToken() error = %v, want ErrUnauthenticated on rejected refresh", err)
	}
}

func TestRevokeDropsCredentials(t *testing.T) {
	store := newFakeTokenStore()
	store.byUser["12345"] = domain.UserToken{UserID: "12345"}
	svc := NewTokenService(store, &fakeAuth{}, &fakeUsers{}, serviceLogger())

	if err := svc.Revoke(context.Background(), "12345"); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, ok := store.byUser["12345"]; ok {
		t.Error("credentials still present after revoke")
	}
}
