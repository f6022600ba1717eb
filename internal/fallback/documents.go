package fallback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Documents is the local key/value store holding one JSON document per key.
// A collection is stored as a single JSON array under its collection name.
type Documents interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, doc []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryDocuments keeps documents in process memory.
type MemoryDocuments struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{docs: make(map[string][]byte)}
}

func (m *MemoryDocuments) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, true, nil
}

func (m *MemoryDocuments) Put(_ context.Context, key string, doc []byte) error {
	stored := make([]byte, len(doc))
	copy(stored, doc)
	m.mu.Lock()
	m.docs[key] = stored
	m.mu.Unlock()
	return nil
}

func (m *MemoryDocuments) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.docs, key)
	m.mu.Unlock()
	return nil
}

// RedisDocuments stores documents as plain Redis strings under a key prefix.
type RedisDocuments struct {
	client *redis.Client
	prefix string
}

// NewRedisDocuments connects to Redis and verifies the connection with a ping.
func NewRedisDocuments(ctx context.Context, addr, password string, database int, prefix string) (*RedisDocuments, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisDocuments{client: client, prefix: prefix}, nil
}

func (r *RedisDocuments) Get(ctx context.Context, key string) ([]byte, bool, error) {
	doc, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (r *RedisDocuments) Put(ctx context.Context, key string, doc []byte) error {
	return r.client.Set(ctx, r.prefix+key, doc, 0).Err()
}

func (r *RedisDocuments) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Ping reports whether Redis is reachable.
func (r *RedisDocuments) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisDocuments) Close() error {
	return r.client.Close()
}
