package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"docchat/internal/domain"
	"docchat/internal/domain/models"
	"docchat/internal/httputil"
)

type stubVerifier struct {
	subject string
}

func (s *stubVerifier) VerifyToken(token string) (*models.AuthClaims, error) {
	if token != "good-token" {
		return nil, domain.ErrUnauthorized
	}
	claims := &models.AuthClaims{}
	claims.Subject = s.subject
	return claims, nil
}

func (s *stubVerifier) Close() error { return nil }

func newChain(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var gotUserID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = httputil.GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return AuthMiddleware(&stubVerifier{subject: "user-42"}, logger)(inner), &gotUserID
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	chain, gotUserID := newChain(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if *gotUserID != "user-42" {
		t.Errorf("handler saw user id %q, want user-42", *gotUserID)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	chain, _ := newChain(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type %q", ct)
	}
}

func TestAuthMiddleware_BadToken(t *testing.T) {
	chain, _ := newChain(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_HealthExempt(t *testing.T) {
	chain, _ := newChain(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("health must not require auth, got status %d", rec.Code)
	}
}
