package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"medsim/models"
)

// KeyValueStore is the contract the response cache needs from the key-value
// backend. Get reports (value, found, error); a store error is not a miss.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CacheKey derives a deterministic, collision-free fingerprint for a request.
// Parts are length-prefixed before hashing so ("ab","c") and ("a","bc") never
// produce the same digest.
func CacheKey(prefix string, parts ...string) string {
	h := sha256.New()
	var lenBuf [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write([]byte(p))
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// RedisStore backs the cache with Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", models.ErrCacheUnavailable, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrCacheUnavailable, err)
	}
	return nil
}

// MemoryStore is a mutex-guarded in-process store. It backs tests and any
// deployment without a reachable Redis.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// ResponseCache memoizes model responses by request fingerprint. Store
// failures degrade to a miss: the caller's request is never blocked or
// failed because the cache is down.
type ResponseCache struct {
	store KeyValueStore

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

type inflightCall struct {
	mu   sync.Mutex
	refs int
}

func NewResponseCache(store KeyValueStore) *ResponseCache {
	return &ResponseCache{store: store, inflight: make(map[string]*inflightCall)}
}

func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool, error) {
	return c.store.Get(ctx, key)
}

func (c *ResponseCache) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.store.Set(ctx, key, value, ttl)
}

// GetOrCompute returns the cached value for key, or runs compute and caches
// the result for ttl. Concurrent callers for the same key are serialized so
// a miss computes once instead of stampeding the provider. compute errors
// are returned as-is and nothing is cached.
func (c *ResponseCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (string, error)) (string, error) {
	call := c.acquire(key)
	call.mu.Lock()
	defer func() {
		call.mu.Unlock()
		c.release(key, call)
	}()

	val, found, err := c.store.Get(ctx, key)
	if err != nil {
		slog.Warn("cache read failed, treating as miss", "key", key, "error", err)
	} else if found {
		return val, nil
	}

	val, err = compute(ctx)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, key, val, ttl); err != nil {
		slog.Warn("cache write failed, continuing uncached", "key", key, "error", err)
	}
	return val, nil
}

func (c *ResponseCache) acquire(key string) *inflightCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.inflight[key]
	if !ok {
		call = &inflightCall{}
		c.inflight[key] = call
	}
	call.refs++
	return call
}

func (c *ResponseCache) release(key string, call *inflightCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call.refs--
	if call.refs == 0 {
		delete(c.inflight, key)
	}
}
