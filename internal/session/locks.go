package session

import "sync"

// KeyedMutex serializes work per session ID. Lock entries are
// reference-counted and removed once the last holder releases, so the
// map does not grow with the total number of sessions ever seen.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key and returns its release function.
// Concurrent calls for the same key run one at a time, in acquisition
// order; calls for distinct keys do not block each other.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
