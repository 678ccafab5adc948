// Package twitch implements REST clients for the Twitch Helix API and the
// Twitch OAuth token endpoints. Token lifecycle is not handled here; callers
// pass a valid access token with every request.
package twitch

import (
	"bytes"
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

// PageLimit is the Helix per-page cap for prediction listings.
const PageLimit = 25

// Client is the REST client for the Twitch Helix API.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// NewClient creates a new Helix client.
//
// baseURL is the Helix API root, e.g. "https://api.twitch.tv/helix".
func NewClient(baseURL, clientID string) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// PredictionPage is one page of the broadcaster's prediction listing. Cursor
// is empty when the upstream signals no further pages.
type PredictionPage struct {
	Predictions []domain.Prediction
	Cursor      string
}

// ListPredictions returns one page of predictions for the broadcaster,
// newest first. first is clamped to the Helix page cap; after is the
// continuation cursor of the previous page, or empty for the first page.
func (c *Client) ListPredictions(ctx context.Context, accessToken, broadcasterID string, first int, after string) (PredictionPage, error) {
	if first <= 0 || first > PageLimit {
		first = PageLimit
	}

	params := url.Values{}
	params.Set("broadcaster_id", broadcasterID)
	params.Set("first", strconv.Itoa(first))
	if after != "" {
		params.Set("after", after)
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/predictions?"+params.Encode(), accessToken, nil)
	if err != nil {
		return PredictionPage{}, fmt.Errorf("twitch: list predictions: %w", err)
	}

	var resp struct {
		Data       []APIPrediction `json:"data"`
		Pagination struct {
			Cursor string `json:"cursor"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return PredictionPage{}, fmt.Errorf("twitch: decode predictions: %w", err)
	}

	page := PredictionPage{Cursor: resp.Pagination.Cursor}
	page.Predictions = make([]domain.Prediction, 0, len(resp.Data))
	for _, p := range resp.Data {
		page.Predictions = append(page.Predictions, p.ToDomain())
	}
	return page, nil
}

// CreatePrediction starts a new prediction with the given title, outcome
// labels, and auto-lock window in seconds. It returns the created prediction
// as reported by the platform.
func (c *Client) CreatePrediction(ctx context.Context, accessToken, broadcasterID, title string, outcomes []string, windowSeconds int) (domain.Prediction, error) {
	type outcomeReq struct {
		Title string `json:"title"`
	}
	reqOutcomes := make([]outcomeReq, 0, len(outcomes))
	for _, o := range outcomes {
		reqOutcomes = append(reqOutcomes, outcomeReq{Title: o})
	}

	reqBody := map[string]any{
		"broadcaster_id":    broadcasterID,
		"title":             title,
		"outcomes":          reqOutcomes,
		"prediction_window": windowSeconds,
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/predictions", accessToken, reqBody)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("twitch: create prediction: %w", err)
	}
	return decodeSingle(body, "create prediction")
}

// EndPrediction resolves a prediction with the given winning outcome.
func (c *Client) EndPrediction(ctx context.Context, accessToken, broadcasterID, predictionID, winningOutcomeID string) (domain.Prediction, error) {
	reqBody := map[string]any{
		"broadcaster_id":     broadcasterID,
		"id":                 predictionID,
		"status":             string(domain.PredictionResolved),
		"winning_outcome_id": winningOutcomeID,
	}

	body, err := c.doRequest(ctx, http.MethodPatch, "/predictions", accessToken, reqBody)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("twitch: end prediction %s: %w", predictionID, err)
	}
	return decodeSingle(body, "end prediction")
}

// CancelPrediction cancels a prediction, refunding all channel points.
func (c *Client) CancelPrediction(ctx context.Context, accessToken, broadcasterID, predictionID string) (domain.Prediction, error) {
	reqBody := map[string]any{
		"broadcaster_id": broadcasterID,
		"id":             predictionID,
		"status":         string(domain.PredictionCanceled),
	}

	body, err := c.doRequest(ctx, http.MethodPatch, "/predictions", accessToken, reqBody)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("twitch: cancel prediction %s: %w", predictionID, err)
	}
	return decodeSingle(body, "cancel prediction")
}

// GetUser returns the user the access token belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (APIUser, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/users", accessToken, nil)
	if err != nil {
		return APIUser{}, fmt.Errorf("twitch: get user: %w", err)
	}

	var resp struct {
		Data []APIUser `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return APIUser{}, fmt.Errorf("twitch: decode user: %w", err)
	}
	if len(resp.Data) == 0 {
		return APIUser{}, fmt.Errorf("twitch: get user: %w", domain.ErrNotFound)
	}
	return resp.Data[0], nil
}

// decodeSingle unpacks the single-element data array Helix returns from
// prediction mutations. An empty array is an upstream failure.
func decodeSingle(body []byte, op string) (domain.Prediction, error) {
	var resp struct {
		Data []APIPrediction `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Prediction{}, fmt.Errorf("twitch: decode %s response: %w", op, err)
	}
	if len(resp.Data) == 0 {
		return domain.Prediction{}, fmt.Errorf("twitch: %s: empty data in response", op)
	}
	return resp.Data[0].ToDomain(), nil
}

// doRequest performs an authenticated Helix request and returns the raw
// response body. Non-2xx responses are returned as errors carrying the status
// code and body.
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", c.clientID)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
