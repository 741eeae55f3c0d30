package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mysterybox/internal/application"
	"mysterybox/internal/config"
	"mysterybox/internal/infrastructure/mysql"
	"mysterybox/internal/infrastructure/redisstore"
	"mysterybox/internal/infrastructure/sqlite"
)

// ProcessedStore is a ProcessedHashSet that can be health-checked and closed.
type ProcessedStore interface {
	application.ProcessedHashSet
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the processed hash set selected by cfg.HashStore.
func Open(cfg config.Config) (ProcessedStore, error) {
	switch cfg.HashStore {
	case config.HashStoreMemory, "":
		return NewMemoryStore(), nil
	case config.HashStoreRedis:
		store, err := redisstore.NewStore(redisstore.Config{
			Addr:      cfg.RedisAddr,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.HashStoreSQLite:
		repo, err := sqlite.NewRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.HashStoreMySQL:
		base, err := mysql.NewRepository(cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		cached, err := mysql.NewCachedRepository(base, mysql.CacheConfig{
			Addr: cfg.RedisAddr,
			TTL:  24 * time.Hour,
		})
		if err != nil {
			slog.Warn("redis cache disabled", "err", err)
			return base, nil
		}
		return cached, nil
	}
	return nil, fmt.Errorf("unknown hash store %q", cfg.HashStore)
}

// MemoryStore lives for the process lifetime only.
type MemoryStore struct {
	mu     sync.RWMutex
	hashes map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hashes: make(map[string]int)}
}

func (m *MemoryStore) IsProcessed(ctx context.Context, hash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.hashes[hash]
	return ok, nil
}

func (m *MemoryStore) MarkProcessed(ctx context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hashes[hash]; ok {
		return false, nil
	}
	m.hashes[hash] = 1
	return true, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hashes)
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
