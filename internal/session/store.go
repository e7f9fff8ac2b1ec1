package session

import (
	"context"
	"errors"
	"time"
)

// Storage errors. Stores translate backend-specific failures into these
// sentinels so callers can branch without inspecting driver errors.
var (
	// ErrSessionNotFound is returned when a session does not exist or
	// its TTL has elapsed. Expiry and absence are indistinguishable.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreClosed is returned when operations are attempted on a
	// closed store.
	ErrStoreClosed = errors.New("session store is closed")
)

// DefaultTTL is the idle lifetime of a session. Every successful write
// refreshes it.
const DefaultTTL = 24 * time.Hour

// Store is the persistence contract for conversation sessions. Both
// the Redis-backed and in-memory implementations satisfy it, so the
// failover layer can swap them freely.
type Store interface {
	// Get returns the session with the given ID, or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Put stores the session and refreshes its TTL.
	Put(ctx context.Context, sess *Session) error

	// Delete removes the session. Deleting a missing session is not an
	// error.
	Delete(ctx context.Context, id string) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
