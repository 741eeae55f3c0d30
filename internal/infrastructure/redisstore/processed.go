package redisstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultKeyPrefix = "mysterybox:processed:"

type Config struct {
	Addr      string
	KeyPrefix string
}

// Store keeps processed hashes as Redis keys with value 1 and no expiry.
type Store struct {
	client *redis.Client
	prefix string
}

func NewStore(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis addr is required")
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
	return NewStoreFromClient(client, cfg.KeyPrefix), nil
}

func NewStoreFromClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) IsProcessed(ctx context.Context, hash string) (bool, error) {
	ctx, span := startSpan(ctx, "redis.IsProcessed", hash)
	defer span.End()

	n, err := s.client.Exists(ctx, s.key(hash)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return n > 0, nil
}

func (s *Store) MarkProcessed(ctx context.Context, hash string) (bool, error) {
	ctx, span := startSpan(ctx, "redis.MarkProcessed", hash)
	defer span.End()

	ok, err := s.client.SetNX(ctx, s.key(hash), 1, 0).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return ok, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(hash string) string {
	return s.prefix + hash
}

func startSpan(ctx context.Context, name, hash string) (context.Context, trace.Span) {
	return otel.Tracer("mysterybox/redis").Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "redis"), attribute.String("tx.hash", hash)),
	)
}
