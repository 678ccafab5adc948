package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/riftcast/riftcast/internal/domain"
)

// predictionScopes are the OAuth scopes the application requests; they cover
// reading and managing channel-point predictions plus the user lookup needed
// to key tokens by broadcaster ID.
const predictionScopes = "channel:read:predictions channel:manage:predictions user:read:email"

// AuthClient talks to the Twitch OAuth token endpoints.
type AuthClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

// NewAuthClient creates a new OAuth client.
//
// baseURL is the OAuth root, e.g. "https://id.twitch.tv/oauth2".
func NewAuthClient(baseURL, clientID, clientSecret, redirectURI string) *AuthClient {
	return &AuthClient{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// AuthorizeURL builds the URL the user visits to grant the application the
// prediction scopes.
func (a *AuthClient) AuthorizeURL() string {
	params := url.Values{}
	params.Set("client_id", a.clientID)
	params.Set("redirect_uri", a.redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", predictionScopes)
	return a.baseURL + "/authorize?" + params.Encode()
}

// ExchangeCode trades an authorization code for an access/refresh token pair.
func (a *AuthClient) ExchangeCode(ctx context.Context, code string) (domain.UserToken, error) {
	params := url.Values{}
	params.Set("client_id", a.clientID)
	params.Set("client_secret", a.clientSecret)
	params.Set("code", code)
	params.Set("grant_type", "authorization_code")
	params.Set("redirect_uri", a.redirectURI)

	tok, err := a.tokenRequest(ctx, params)
	if err != nil {
		return domain.UserToken{}, fmt.Errorf("twitch: exchange code: %w", err)
	}
	return tok, nil
}

// Refresh trades a refresh token for a fresh access/refresh token pair.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (domain.UserToken, error) {
	params := url.Values{}
	params.Set("client_id", a.clientID)
	params.Set("client_secret", a.clientSecret)
	params.Set("refresh_token", refreshToken)
	params.Set("grant_type", "refresh_token")

	tok, err := a.tokenRequest(ctx, params)
	if err != nil {
		return domain.UserToken{}, fmt.Errorf("twitch: refresh token: %w", err)
	}
	return tok, nil
}

// tokenRequest posts form parameters to the token endpoint and maps the
// response into a UserToken. UserID is left empty; the caller resolves it via
// the Helix users endpoint.
func (a *AuthClient) tokenRequest(ctx context.Context, params url.Values) (domain.UserToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/token", strings.NewReader(params.Encode()))
	if err != nil {
		return domain.UserToken{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return domain.UserToken{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.UserToken{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.UserToken{}, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return domain.UserToken{}, fmt.Errorf("decode token response: %w", err)
	}

	return domain.UserToken{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		Scope:        strings.Join(tr.Scope, " "),
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}
