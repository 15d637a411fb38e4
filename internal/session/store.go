package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned when a token does not resolve to a live session.
var ErrNoSession = errors.New("no active session")

// Store keeps the server-side half of a session: id -> username.
type Store interface {
	Put(ctx context.Context, id, username string, ttl time.Duration) error
	// Get returns ErrNoSession when id is unknown or expired.
	Get(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
