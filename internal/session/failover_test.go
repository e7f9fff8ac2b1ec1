package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestFailoverStore(t *testing.T) (*FailoverStore, *miniredis.Miniredis, *MemoryStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	primary := NewRedisStoreFromClient(client, RedisConfig{TTL: time.Hour})
	fallback := NewMemoryStore(time.Hour)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewFailoverStore(primary, fallback, logger)
	t.Cleanup(func() { store.Close() })
	return store, mr, fallback
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	store, _, fallback := newTestFailoverStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleSession("fo-1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if store.Degraded() {
		t.Error("store should not be degraded with primary up")
	}
	if fallback.Len() != 0 {
		t.Errorf("fallback should be empty with primary up, have %d", fallback.Len())
	}

	if _, err := store.Get(ctx, "fo-1"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}

func TestFailoverSwitchesToFallbackOnOutage(t *testing.T) {
	store, mr, fallback := newTestFailoverStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleSession("fo-2")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.Close()

	sess := sampleSession("fo-2")
	sess.RaiseConfidence(0.95)
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put during outage should fall back, got %v", err)
	}
	if !store.Degraded() {
		t.Error("store should report degraded during outage")
	}
	if fallback.Len() != 1 {
		t.Errorf("fallback should hold the session during outage, have %d", fallback.Len())
	}

	got, err := store.Get(ctx, "fo-2")
	if err != nil {
		t.Fatalf("Get during outage failed: %v", err)
	}
	if got.ScamConfidence != 0.95 {
		t.Errorf("outage write lost: confidence %v", got.ScamConfidence)
	}
}

func TestFailoverRecoveryMovesStateBack(t *testing.T) {
	store, mr, fallback := newTestFailoverStore(t)
	ctx := context.Background()

	mr.Close()
	if err := store.Put(ctx, sampleSession("fo-3")); err != nil {
		t.Fatalf("Put during outage failed: %v", err)
	}

	mr.Restart()

	// Next write lands on the recovered primary and clears the
	// fallback copy, so state lives in exactly one layer.
	if err := store.Put(ctx, sampleSession("fo-3")); err != nil {
		t.Fatalf("Put after recovery failed: %v", err)
	}
	if store.Degraded() {
		t.Error("store should recover after successful primary write")
	}
	if fallback.Len() != 0 {
		t.Errorf("fallback copy should be cleared after recovery, have %d", fallback.Len())
	}

	if _, err := store.Get(ctx, "fo-3"); err != nil {
		t.Fatalf("Get after recovery failed: %v", err)
	}
}

func TestFailoverFreshFallbackShadowsStalePrimary(t *testing.T) {
	store, mr, _ := newTestFailoverStore(t)
	ctx := context.Background()

	stale := sampleSession("fo-4")
	if err := store.Put(ctx, stale); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.Close()
	fresh := sampleSession("fo-4")
	fresh.AppendExchange("send money now", "which account, beta?", time.Now())
	if err := store.Put(ctx, fresh); err != nil {
		t.Fatalf("Put during outage failed: %v", err)
	}

	mr.Restart()

	// Primary is back with the stale copy, but the fallback's fresher
	// state must win until a write moves it over.
	got, err := store.Get(ctx, "fo-4")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TurnCount != 2 {
		t.Errorf("expected fresh fallback state (2 turns), got %d", got.TurnCount)
	}
}

func TestFailoverMissingEverywhere(t *testing.T) {
	store, _, _ := newTestFailoverStore(t)

	if _, err := store.Get(context.Background(), "ghost"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestFailoverOutageReadsAsNotFound(t *testing.T) {
	store, mr, _ := newTestFailoverStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleSession("fo-5")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	mr.Close()

	// Session exists only on the dead primary: treated as a new
	// conversation rather than an error.
	if _, err := store.Get(ctx, "fo-5"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound during total outage, got %v", err)
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("same")
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("expected one holder at a time for the same key, saw %d", maxActive)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key should not block")
	}
	unlockA()
}
