package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

// FailoverStore layers an in-process fallback under the primary store.
// When the primary is unreachable the session keeps flowing through
// the fallback, and once the primary recovers the next successful
// write moves the state back and clears the fallback copy, so a
// session's authoritative state lives in exactly one layer at a time.
//
// The store itself does not serialize concurrent access to one
// session; the engagement pipeline holds the per-session lock around
// every load/store cycle.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   *slog.Logger

	// degraded is 1 while the most recent primary operation failed.
	// Exposed through Degraded for health reporting.
	degraded atomic.Bool
}

// NewFailoverStore wraps primary with fallback. Both stores are owned
// by the wrapper and closed with it.
func NewFailoverStore(primary, fallback Store, logger *slog.Logger) *FailoverStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Degraded reports whether the store is currently running on the
// fallback layer.
func (s *FailoverStore) Degraded() bool {
	return s.degraded.Load()
}

// Get prefers the fallback copy when one exists: during a primary
// outage the freshest state is written there, and a stale primary copy
// must not shadow it after recovery.
func (s *FailoverStore) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.fallback.Get(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	sess, err = s.primary.Get(ctx, id)
	if err == nil {
		s.markHealthy()
		return sess, nil
	}
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}

	s.markDegraded("get", id, err)
	return nil, ErrSessionNotFound
}

// Put writes to the primary, falling back to the in-process store on
// infrastructure failure. A successful primary write clears any
// fallback copy left over from an outage.
func (s *FailoverStore) Put(ctx context.Context, sess *Session) error {
	if err := s.primary.Put(ctx, sess); err != nil {
		s.markDegraded("put", sess.ID, err)
		return s.fallback.Put(ctx, sess)
	}

	s.markHealthy()
	if err := s.fallback.Delete(ctx, sess.ID); err != nil {
		s.logger.Warn("failed to clear fallback copy after primary recovery",
			"session_id", sess.ID, "error", err)
	}
	return nil
}

// Delete removes the session from both layers.
func (s *FailoverStore) Delete(ctx context.Context, id string) error {
	ferr := s.fallback.Delete(ctx, id)
	perr := s.primary.Delete(ctx, id)
	if perr != nil {
		s.markDegraded("delete", id, perr)
		return ferr
	}
	s.markHealthy()
	return ferr
}

// Ping reports primary reachability. The fallback keeps the service
// functional, so a degraded store still counts as alive for liveness
// but callers can surface Degraded separately.
func (s *FailoverStore) Ping(ctx context.Context) error {
	if err := s.primary.Ping(ctx); err != nil {
		s.markDegraded("ping", "", err)
		return s.fallback.Ping(ctx)
	}
	s.markHealthy()
	return nil
}

// Close closes both layers, returning the first error.
func (s *FailoverStore) Close() error {
	perr := s.primary.Close()
	ferr := s.fallback.Close()
	if perr != nil {
		return perr
	}
	return ferr
}

func (s *FailoverStore) markDegraded(op, id string, err error) {
	if s.degraded.CompareAndSwap(false, true) {
		s.logger.Warn("primary session store unavailable, using in-memory fallback",
			"op", op, "session_id", id, "error", err)
	}
}

func (s *FailoverStore) markHealthy() {
	if s.degraded.CompareAndSwap(true, false) {
		s.logger.Info("primary session store recovered")
	}
}
