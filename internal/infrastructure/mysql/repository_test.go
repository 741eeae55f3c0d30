package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS processed_hashes").WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewRepositoryFromDB(db)
	require.NoError(t, err)
	return repo, mock
}

func TestIsProcessed(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT marker FROM processed_hashes").
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"marker"}).AddRow(1))
	mock.ExpectQuery("SELECT marker FROM processed_hashes").
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{"marker"}))

	processed, err := repo.IsProcessed(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = repo.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkProcessedIsOneTimeWrite(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT IGNORE INTO processed_hashes").
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT IGNORE INTO processed_hashes").
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 0))

	marked, err := repo.MarkProcessed(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = repo.MarkProcessed(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, marked)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkProcessedPropagatesErrors(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT IGNORE INTO processed_hashes").
		WithArgs("abc123").
		WillReturnError(errors.New("deadlock"))

	_, err := repo.MarkProcessed(context.Background(), "abc123")
	assert.EqualError(t, err, "deadlock")
}

func TestCachedRepositoryWithoutRedisFallsThrough(t *testing.T) {
	repo, mock := newMockRepository(t)
	cached, err := NewCachedRepository(repo, CacheConfig{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT marker FROM processed_hashes").
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"marker"}).AddRow(1))

	processed, err := cached.IsProcessed(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, processed)
	require.NoError(t, mock.ExpectationsWereMet())
}
