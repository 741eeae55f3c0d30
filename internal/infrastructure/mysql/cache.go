package mysql

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	processedCacheKeyPrefix = "mysterybox:processed-cache:"
	defaultCacheTTL         = 24 * time.Hour
)

type CacheConfig struct {
	Addr string
	TTL  time.Duration
}

// CachedRepository answers IsProcessed from Redis when it can. Only
// positive lookups are cached; a hash never leaves the processed set.
type CachedRepository struct {
	*Repository
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedRepository(base *Repository, cfg CacheConfig) (*CachedRepository, error) {
	if base == nil {
		return nil, errors.New("base repository is required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return &CachedRepository{Repository: base}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return newCachedRepository(base, client, cfg.TTL), nil
}

func newCachedRepository(base *Repository, client *redis.Client, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedRepository{Repository: base, cache: client, ttl: ttl}
}

func (r *CachedRepository) IsProcessed(ctx context.Context, hash string) (bool, error) {
	if r.cache == nil {
		return r.Repository.IsProcessed(ctx, hash)
	}
	if _, err := r.cache.Get(ctx, processedCacheKey(hash)).Result(); err == nil {
		return true, nil
	} else if !errors.Is(err, redis.Nil) {
		slog.Debug("processed cache read failed", "tx_hash", hash, "err", err)
	}

	processed, err := r.Repository.IsProcessed(ctx, hash)
	if err != nil {
		return false, err
	}
	if processed {
		r.remember(ctx, hash)
	}
	return processed, nil
}

func (r *CachedRepository) MarkProcessed(ctx context.Context, hash string) (bool, error) {
	marked, err := r.Repository.MarkProcessed(ctx, hash)
	if err != nil {
		return false, err
	}
	if r.cache != nil {
		r.remember(ctx, hash)
	}
	return marked, nil
}

func (r *CachedRepository) Close() error {
	var cacheErr error
	if r.cache != nil {
		cacheErr = r.cache.Close()
	}
	return errors.Join(r.Repository.Close(), cacheErr)
}

func (r *CachedRepository) remember(ctx context.Context, hash string) {
	_ = r.cache.Set(ctx, processedCacheKey(hash), 1, r.ttl).Err()
}

func processedCacheKey(hash string) string {
	return processedCacheKeyPrefix + hash
}
