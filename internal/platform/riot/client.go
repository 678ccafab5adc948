// Package riot implements a REST client for the Riot Games API endpoints the
// game-status probe needs: account lookup, live-game spectation, and match
// history.
package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/riftcast/riftcast/internal/domain"
)

// Client is a Riot API client. It separates platform-routed endpoints
// (spectator, summoner) from regionally-routed ones (account, match history),
// mirroring Riot's routing model.
type Client struct {
	platformURL string
	regionalURL string
	apiKey      string
	httpClient  *http.Client

	// limiter, when set, throttles outgoing calls across all processes
	// sharing the same Redis.
	limiter   domain.RateLimiter
	rateLimit int
}

// NewClient creates a new Riot API client.
func NewClient(platformURL, regionalURL, apiKey string) *Client {
	return &Client{
		platformURL: platformURL,
		regionalURL: regionalURL,
		apiKey:      apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithRateLimiter installs a shared rate limiter capping calls per second.
func (c *Client) WithRateLimiter(l domain.RateLimiter, perSecond int) *Client {
	c.limiter = l
	c.rateLimit = perSecond
	return c
}

// GetAccountByRiotID resolves a "GameName#TagLine" Riot ID to an account.
func (c *Client) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (Account, error) {
	path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
		url.PathEscape(gameName), url.PathEscape(tagLine))

	var acc Account
	if err := c.get(ctx, c.regionalURL+path, &acc); err != nil {
		return Account{}, fmt.Errorf("riot: account by riot id %s#%s: %w", gameName, tagLine, err)
	}
	return acc, nil
}

// GetSummonerByPUUID resolves a PUUID to its platform summoner record.
func (c *Client) GetSummonerByPUUID(ctx context.Context, puuid string) (Summoner, error) {
	path := "/lol/summoner/v4/summoners/by-puuid/" + url.PathEscape(puuid)

	var s Summoner
	if err := c.get(ctx, c.platformURL+path, &s); err != nil {
		return Summoner{}, fmt.Errorf("riot: summoner by puuid: %w", err)
	}
	return s, nil
}

// GetActiveGame returns the live game the player is currently in. When the
// player is not in a game the upstream answers 404, which is surfaced as
// domain.ErrNotFound so callers can treat it as a normal outcome.
func (c *Client) GetActiveGame(ctx context.Context, puuid string) (ActiveGame, error) {
	path := "/lol/spectator/v5/active-games/by-summoner/" + url.PathEscape(puuid)

	var game ActiveGame
	if err := c.get(ctx, c.platformURL+path, &game); err != nil {
		return ActiveGame{}, fmt.Errorf("riot: active game: %w", err)
	}
	return game, nil
}

// GetMatchIDs returns the player's most recent match IDs, newest first.
func (c *Client) GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	if count <= 0 {
		count = 1
	}
	path := "/lol/match/v5/matches/by-puuid/" + url.PathEscape(puuid) + "/ids?count=" + strconv.Itoa(count)

	var ids []string
	if err := c.get(ctx, c.regionalURL+path, &ids); err != nil {
		return nil, fmt.Errorf("riot: match ids: %w", err)
	}
	return ids, nil
}

// GetMatch returns a completed match by its ID.
func (c *Client) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	path := "/lol/match/v5/matches/" + url.PathEscape(matchID)

	var m Match
	if err := c.get(ctx, c.regionalURL+path, &m); err != nil {
		return nil, fmt.Errorf("riot: match %s: %w", matchID, err)
	}
	return &m, nil
}

// get performs a rate-limited GET request and decodes the JSON response.
// 404 maps to domain.ErrNotFound; 429 is retried once after a short wait.
func (c *Client) get(ctx context.Context, fullURL string, result any) error {
	if err := c.waitForSlot(ctx); err != nil {
		return err
	}

	body, status, err := c.do(ctx, fullURL)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
		body, status, err = c.do(ctx, fullURL)
		if err != nil {
			return err
		}
	}

	switch {
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status < 200 || status > 299:
		return fmt.Errorf("status %d: %s", status, string(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do issues a single request and returns body and status.
func (c *Client) do(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// waitForSlot blocks until the shared limiter admits one more call, polling
// in short steps so context cancellation is honored.
func (c *Client) waitForSlot(ctx context.Context) error {
	if c.limiter == nil || c.rateLimit <= 0 {
		return nil
	}
	for {
		ok, err := c.limiter.Allow(ctx, "riot", c.rateLimit, time.Second)
		if err != nil {
			// Limiter errors are non-fatal; proceed unthrottled.
			return nil
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
