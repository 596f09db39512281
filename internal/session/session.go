// Package session talks to the external auth service. Session tokens are
// JWTs carried in a cookie; a token is only trusted after the auth service
// revalidates it, never on its decoded claims alone.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/siteway/siteway/internal/config"
)

// User is the identity the auth service vouches for.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a validated session: signature-checked locally and confirmed
// by the auth service.
type Session struct {
	Token string
	User  *User
	// AssuranceLevel is the authenticator assurance reported by the auth
	// service ("aal1", "aal2"), empty when the query failed. Fetching it
	// is best-effort and never fails a session.
	AssuranceLevel string
}

// Client calls the auth service.
type Client struct {
	baseURL    string
	secret     []byte
	httpClient *http.Client
}

// NewClient creates an auth service client.
func NewClient(cfg config.AuthConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		secret:  []byte(cfg.JWTSecret),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Validate checks the token signature locally, then revalidates against
// the auth service. Both must pass: the local check cheaply rejects forged
// or expired tokens, the remote call catches revocation the claims cannot
// reflect.
func (c *Client) Validate(ctx context.Context, token string) (*Session, error) {
	if err := c.verifySignature(token); err != nil {
		return nil, err
	}

	user, err := c.fetchUser(ctx, token)
	if err != nil {
		return nil, err
	}

	sess := &Session{Token: token, User: user}
	if level, err := c.fetchAssuranceLevel(ctx, token); err == nil {
		sess.AssuranceLevel = level
	}
	return sess, nil
}

func (c *Client) verifySignature(token string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return fmt.Errorf("token signature check: %w", err)
	}
	if !parsed.Valid {
		return fmt.Errorf("token is not valid")
	}
	return nil
}

// fetchUser asks the auth service for the token's user. A non-200 answer
// means the token is no longer good, whatever its claims say.
func (c *Client) fetchUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.get(ctx, "/auth/v1/user", token, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("auth service returned no user")
	}
	return &user, nil
}

func (c *Client) fetchAssuranceLevel(ctx context.Context, token string) (string, error) {
	var resp struct {
		CurrentLevel string `json:"current_level"`
	}
	if err := c.get(ctx, "/auth/v1/factors/assurance", token, &resp); err != nil {
		return "", err
	}
	return resp.CurrentLevel, nil
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
