// Package session issues, resolves and revokes login sessions.
//
// A session is a signed token carrying a session id and a username. The
// token alone is not enough: the id must also be present in a Store, so that
// logout can revoke a session before the token expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// CookieName is the cookie carrying the session token.
	CookieName = "session_id"

	// DefaultTTL applies when the manager is built with a zero TTL.
	DefaultTTL = 24 * time.Hour
)

// Session is a resolved login session.
type Session struct {
	ID        string
	Username  string
	Token     string
	ExpiresAt time.Time
}

type claims struct {
	jwt.RegisteredClaims
}

// Manager ties token signing to the server-side Store.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
}

func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// TTL reports how long issued sessions live.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue starts a new session for username.
func (m *Manager) Issue(ctx context.Context, username string) (Session, error) {
	now := m.now()
	s := Session{
		ID:        m.newID(),
		Username:  username,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	s.Token = signed

	if err := m.store.Put(ctx, s.ID, username, m.ttl); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return s, nil
}

// Resolve verifies token and checks that its session is still live. Any
// invalid, expired or revoked token yields ErrNoSession.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}

	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || c.ID == "" {
		return Session{}, ErrNoSession
	}

	username, err := m.store.Get(ctx, c.ID)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if username != c.Subject {
		return Session{}, ErrNoSession
	}

	s := Session{ID: c.ID, Username: username, Token: token}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

// Revoke ends s. Revoking an already revoked session is not an error.
func (m *Manager) Revoke(ctx context.Context, s Session) error {
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping checks the session backend.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
