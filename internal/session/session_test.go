package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/siteway/siteway/internal/config"
)

const testSecret = "super-secret-jwt-key"

func signToken(t *testing.T, secret string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(expiresIn).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

// newAuthServer stands in for the auth service. revoked tokens fail the
// user endpoint with 401 regardless of their signature.
func newAuthServer(t *testing.T, revoked map[string]bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if revoked[token] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id":    "user-1",
			"email": "user1@example.com",
		})
	})
	mux.HandleFunc("/auth/v1/factors/assurance", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"current_level": "aal1"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) {
		return h[len(prefix):]
	}
	return ""
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(config.AuthConfig{
		BaseURL:   baseURL,
		JWTSecret: testSecret,
	})
}

func TestValidateGoodToken(t *testing.T) {
	auth := newAuthServer(t, nil)
	c := newTestClient(t, auth.URL)

	token := signToken(t, testSecret, time.Hour)
	sess, err := c.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sess.User == nil || sess.User.ID != "user-1" {
		t.Errorf("user = %+v, want user-1", sess.User)
	}
	if sess.AssuranceLevel != "aal1" {
		t.Errorf("assurance level = %q, want aal1", sess.AssuranceLevel)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	auth := newAuthServer(t, nil)
	c := newTestClient(t, auth.URL)

	token := signToken(t, "some-other-secret", time.Hour)
	if _, err := c.Validate(context.Background(), token); err == nil {
		t.Fatal("expected signature error for a token signed with the wrong secret")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	auth := newAuthServer(t, nil)
	c := newTestClient(t, auth.URL)

	token := signToken(t, testSecret, -time.Minute)
	if _, err := c.Validate(context.Background(), token); err == nil {
		t.Fatal("expected error for an expired token")
	}
}

func TestValidateRejectsRevokedToken(t *testing.T) {
	// Signature is fine, but the auth service no longer recognizes the
	// session. The remote check must win over the local one.
	token := signToken(t, testSecret, time.Hour)
	auth := newAuthServer(t, map[string]bool{token: true})
	c := newTestClient(t, auth.URL)

	if _, err := c.Validate(context.Background(), token); err == nil {
		t.Fatal("expected error for a revoked token")
	}
}

func TestValidateAuthServiceDown(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	token := signToken(t, testSecret, time.Hour)
	if _, err := c.Validate(context.Background(), token); err == nil {
		t.Fatal("expected error when the auth service is unreachable")
	}
}

func TestValidateSurvivesAssuranceFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "user-1"})
	})
	mux.HandleFunc("/auth/v1/factors/assurance", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	sess, err := c.Validate(context.Background(), signToken(t, testSecret, time.Hour))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sess.AssuranceLevel != "" {
		t.Errorf("assurance level = %q, want empty on a failed query", sess.AssuranceLevel)
	}
}
