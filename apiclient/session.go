package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/clubcache/observe"
)

// Session describes the admin token as read from its claims. The token is
// not verified here; the API does that on every request.
type Session struct {
	Subject   string
	Email     string
	Roles     []string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Expired reports whether the session has a known expiry at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ParseSession reads the claims of a JWT session token without verifying
// its signature. Opaque tokens yield an error.
func ParseSession(token string) (Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("apiclient: parse session token: %w", err)
	}

	var s Session
	s.Subject, _ = claims.GetSubject()
	if email, ok := claims["email"].(string); ok {
		s.Email = email
	}
	switch v := claims["roles"].(type) {
	case []interface{}:
		s.Roles = make([]string, 0, len(v))
		for _, r := range v {
			if role, ok := r.(string); ok {
				s.Roles = append(s.Roles, role)
			}
		}
	case string:
		s.Roles = []string{v}
	}
	if role, ok := claims["role"].(string); ok && len(s.Roles) == 0 {
		s.Roles = []string{role}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		s.IssuedAt = iat.Time
	}
	return s, nil
}

// SetToken replaces the admin session token. An empty token logs out.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// sessionToken returns the token for an admin call, or an error if there is
// none or it is known to be expired.
func (c *Client) sessionToken() (string, error) {
	token := c.Token()
	if token == "" {
		return "", ErrNoSession
	}
	s, err := ParseSession(token)
	if err != nil {
		// Opaque tokens are the API's business.
		return token, nil
	}
	if s.Expired(c.now()) {
		return "", ErrSessionExpired
	}
	return token, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges admin credentials for a session token and keeps it.
//
// When the token is opaque (not a JWT) Login still succeeds but returns a
// zero Session: nothing about the subject or expiry is known, and a zero
// ExpiresAt means "unknown", not "never expires". Expiry then surfaces as an
// Unauthorized error from the first rejected admin call.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var resp loginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/login",
		body:   loginRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return Session{}, err
	}
	if resp.Token == "" {
		return Session{}, errors.New("apiclient: login response has no token")
	}
	c.SetToken(resp.Token)

	s, err := ParseSession(resp.Token)
	if err != nil {
		return Session{}, nil
	}
	c.logger.Info(ctx, "admin session started",
		observe.F("subject", s.Subject),
		observe.F("expires_at", s.ExpiresAt),
	)
	return s, nil
}

// Logout drops the session token. Cached public data is kept.
func (c *Client) Logout() {
	c.SetToken("")
}
