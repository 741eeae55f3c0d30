package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Repository stores processed transaction hashes in MySQL.
type Repository struct {
	db *sql.DB
}

func NewRepository(dsn string) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("db dsn is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewRepositoryFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func NewRepositoryFromDB(db *sql.DB) (*Repository, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if err := createSchema(db); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS processed_hashes (
		tx_hash VARCHAR(128) NOT NULL,
		marker TINYINT UNSIGNED NOT NULL DEFAULT 1,
		processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (tx_hash)
	)`)
	return err
}

func (r *Repository) IsProcessed(ctx context.Context, hash string) (bool, error) {
	ctx, span := startDBSpan(ctx, "mysql.IsProcessed", attribute.String("tx.hash", hash))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var marker int
	err := r.db.QueryRowContext(ctx, `SELECT marker FROM processed_hashes WHERE tx_hash = ?`, hash).Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return true, nil
}

func (r *Repository) MarkProcessed(ctx context.Context, hash string) (bool, error) {
	ctx, span := startDBSpan(ctx, "mysql.MarkProcessed", attribute.String("tx.hash", hash))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT IGNORE INTO processed_hashes (tx_hash, marker) VALUES (?, 1)`, hash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func startDBSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.system", "mysql"))
	return otel.Tracer("mysterybox/mysql").Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}
