package session

import (
	"context"
	"sync"
	"time"
)

// janitorInterval is how often the in-memory store sweeps expired
// entries. Lazy expiry on Get covers the window between sweeps.
const janitorInterval = time.Minute

type memoryEntry struct {
	sess      *Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with TTL semantics that
// mirror the Redis store. It backs tests and serves as the failover
// target when Redis is unreachable.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	closed  bool

	done chan struct{}
	once sync.Once

	// now is swappable in tests to drive expiry without sleeping.
	now func() time.Time
}

// NewMemoryStore creates an in-memory store. A ttl of zero means
// DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Get returns a deep-enough copy of the stored session so callers can
// mutate it without racing the store. Expired entries read as missing.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, id)
		return nil, ErrSessionNotFound
	}

	// Sliding expiry, matching the Redis store.
	e.expiresAt = s.now().Add(s.ttl)
	s.entries[id] = e

	return copySession(e.sess), nil
}

// Put stores a copy of the session and resets its TTL.
func (s *MemoryStore) Put(ctx context.Context, sess *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	s.entries[sess.ID] = memoryEntry{
		sess:      copySession(sess),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Delete removes the session if present.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	delete(s.entries, id)
	return nil
}

// Ping reports whether the store is usable.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Len returns the number of live entries. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the janitor and releases all entries.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.entries = nil
	return nil
}

func copySession(src *Session) *Session {
	dst := *src
	dst.Messages = make([]Message, len(src.Messages))
	copy(dst.Messages, src.Messages)
	dst.Intelligence = src.Intelligence.Clone()
	return &dst
}
