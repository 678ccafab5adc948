package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedHandler(t *testing.T, apiKey string, openPaths ...string) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return Auth(apiKey, openPaths...)(next)
}

func TestAuthDisabledWithoutKey(t *testing.T) {
	h := authedHandler(t, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want pass-through with no key configured", rec.Code)
	}
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	h := authedHandler(t, "sekrit")

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 for a valid bearer token", rec.Code)
	}
}

func TestAuthAcceptsAPIKeyHeader(t *testing.T) {
	h := authedHandler(t, "sekrit")

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 for a valid api key header", rec.Code)
	}
}

func TestAuthRejectsMissingAndWrongTokens(t *testing.T) {
	h := authedHandler(t, "sekrit")

	tests := []struct {
		name  string
		setup func(*http.Request)
	}{
		{name: "no token", setup: func(*http.Request) {}},
		{name: "wrong bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
		{name: "wrong header", setup: func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }},
		{name: "malformed scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic sekrit") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAuthOpenPathsBypassKey(t *testing.T) {
	h := authedHandler(t, "sekrit", "/api/auth/callback")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want the callback to stay open", rec.Code)
	}
}
