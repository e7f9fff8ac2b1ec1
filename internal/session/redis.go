package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists sessions in Redis as JSON values with a TTL.
// It is the primary store in production deployments.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration

	mu     sync.RWMutex
	closed bool
}

// RedisConfig holds connection settings for the primary store.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// NewRedisClient builds a Redis client without dialing. The client
// connects lazily, which lets the failover layer boot while Redis is
// still down.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisStore connects to Redis and verifies the connection before
// returning.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := NewRedisClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return newRedisStore(client, cfg), nil
}

// NewRedisStoreFromClient wraps an existing Redis client. Used by tests
// to inject a miniredis-backed client.
func NewRedisStoreFromClient(client *redis.Client, cfg RedisConfig) *RedisStore {
	return newRedisStore(client, cfg)
}

func newRedisStore(client *redis.Client, cfg RedisConfig) *RedisStore {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "trapline:session:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client:    client,
		keyPrefix: prefix,
		ttl:       ttl,
	}
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

// Get retrieves a session by ID. A missing or expired key maps to
// ErrSessionNotFound; the read also refreshes the TTL so active
// conversations never expire mid-engagement.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}

	// Sliding expiry: reading an active session keeps it alive.
	if err := s.client.Expire(ctx, s.key(id), s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("refresh ttl for session %s: %w", id, err)
	}

	return &sess, nil
}

// Put stores the session and resets its TTL.
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}

	if err := s.client.Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("put session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes the session. Missing keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}

	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	return s.client.Ping(ctx).Err()
}

// Close shuts down the Redis connection. Safe to call more than once.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
