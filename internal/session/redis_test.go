package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/trapline-dev/trapline/internal/extract"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client, RedisConfig{TTL: time.Hour})
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func sampleSession(id string) *Session {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{
		ID:        id,
		Language:  "en",
		Persona:   "retired_teacher",
		Strategy:  "build_trust",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.AppendExchange("You won a lottery!", "Oh my, really? How wonderful!", now)
	s.RaiseConfidence(0.85)
	s.Intelligence = extract.Extract("pay to scammer@paytm")
	return s
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	want := sampleSession("sess-1")
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.ID != want.ID || got.Persona != want.Persona || got.Language != want.Language {
		t.Errorf("session identity mismatch: got %+v", got)
	}
	if got.TurnCount != 1 || len(got.Messages) != 2 {
		t.Errorf("expected 1 turn / 2 messages, got %d / %d", got.TurnCount, len(got.Messages))
	}
	if got.ScamConfidence != 0.85 {
		t.Errorf("expected confidence 0.85, got %v", got.ScamConfidence)
	}
	if len(got.Intelligence.UPIIDs) != 1 || got.Intelligence.UPIIDs[0] != "scammer@paytm" {
		t.Errorf("intelligence did not survive round trip: %+v", got.Intelligence)
	}
}

func TestRedisStoreGetMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleSession("sess-ttl")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "sess-ttl")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected expired session to read as not found, got %v", err)
	}
}

func TestRedisStorePutRefreshesTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	sess := sampleSession("sess-refresh")
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(50 * time.Minute)
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	mr.FastForward(50 * time.Minute)
	if _, err := store.Get(ctx, "sess-refresh"); err != nil {
		t.Errorf("expected session alive after TTL refresh, got %v", err)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleSession("sess-del")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete(ctx, "sess-del"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "sess-del"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	// Deleting again is not an error.
	if err := store.Delete(ctx, "sess-del"); err != nil {
		t.Errorf("deleting missing session should succeed, got %v", err)
	}
}

func TestRedisStoreClosed(t *testing.T) {
	store, _ := newTestRedisStore(t)

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("double Close should be nil, got %v", err)
	}

	if _, err := store.Get(context.Background(), "x"); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
	if err := store.Put(context.Background(), sampleSession("x")); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}
