package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"mysterybox/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreMarksOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			marked, err := store.MarkProcessed(ctx, "abc123")
			require.NoError(t, err)
			if marked {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, store.Len())
	processed, err := store.IsProcessed(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestOpenSelectsStore(t *testing.T) {
	store, err := Open(config.Config{HashStore: config.HashStoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(config.Config{
		HashStore:  config.HashStoreSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "processed.db"),
	})
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(context.Background()))

	_, err = Open(config.Config{HashStore: "etcd"})
	assert.Error(t, err)
}
