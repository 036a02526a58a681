package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	return store
}

func TestLocalStore_AddHasRemove(t *testing.T) {
	store := newTestStore(t)
	hash := "abcdef0123456789"

	assert.False(t, store.Has(hash))

	require.NoError(t, store.Add(hash, strings.NewReader("audio bytes")))
	assert.True(t, store.Has(hash))

	data, err := os.ReadFile(store.Path(hash))
	require.NoError(t, err)
	assert.Equal(t, "audio bytes", string(data))

	require.NoError(t, store.Remove(hash))
	assert.False(t, store.Has(hash))

	// removing again is fine
	require.NoError(t, store.Remove(hash))
}

func TestLocalStore_Sharding(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Add("ab12", strings.NewReader("x")))
	assert.Equal(t, "ab", filepath.Base(filepath.Dir(store.Path("ab12"))))
}

func TestLocalStore_AddFile(t *testing.T) {
	store := newTestStore(t)

	src := filepath.Join(t.TempDir(), "upload.mp3")
	require.NoError(t, os.WriteFile(src, []byte("uploaded"), 0o644))

	require.NoError(t, store.AddFile("cafe01", src))
	assert.True(t, store.Has("cafe01"))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_ModTimeAndTouch(t *testing.T) {
	store := newTestStore(t)
	hash := "feed42"

	_, err := store.ModTime(hash)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Add(hash, strings.NewReader("x")))
	before, err := store.ModTime(hash)
	require.NoError(t, err)

	stale := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(store.Path(hash), stale, stale))
	require.NoError(t, store.Touch(hash))

	after, err := store.ModTime(hash)
	require.NoError(t, err)
	assert.True(t, after.After(before.Add(-time.Minute)))
}

func TestLocalStore_Iterate(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Add("one1", strings.NewReader("1")))
	require.NoError(t, store.Add("two2", strings.NewReader("2")))

	seen := map[string]bool{}
	require.NoError(t, store.Iterate(func(hash, path string) error {
		seen[hash] = true
		return nil
	}))
	assert.Equal(t, map[string]bool{"one1": true, "two2": true}, seen)
}

func TestLocalStore_Free(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 100)
	require.NoError(t, err)

	require.NoError(t, store.Add("a1", strings.NewReader(strings.Repeat("x", 60))))
	free, err := store.Free()
	require.NoError(t, err)
	assert.Equal(t, int64(40), free)

	require.NoError(t, store.Add("b2", strings.NewReader(strings.Repeat("x", 60))))
	free, err = store.Free()
	require.NoError(t, err)
	assert.Equal(t, int64(0), free)
}

func TestAddGuard_Serializes(t *testing.T) {
	guard := NewAddGuard()
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "hash1")
	require.NoError(t, err)
	assert.True(t, guard.IsHeld("hash1"))
	assert.False(t, guard.IsHeld("hash2"))

	var wg sync.WaitGroup
	entered := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		second, err := guard.Acquire(ctx, "hash1")
		assert.NoError(t, err)
		close(entered)
		second()
	}()

	select {
	case <-entered:
		t.Fatal("second acquire must wait for the first holder")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	wg.Wait()
	assert.False(t, guard.IsHeld("hash1"))
}

func TestAddGuard_ReleaseIdempotent(t *testing.T) {
	guard := NewAddGuard()
	release, err := guard.Acquire(context.Background(), "h")
	require.NoError(t, err)
	release()
	release()

	release, err = guard.Acquire(context.Background(), "h")
	require.NoError(t, err)
	release()
}

func TestAddGuard_ContextCancel(t *testing.T) {
	guard := NewAddGuard()
	release, err := guard.Acquire(context.Background(), "h")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = guard.Acquire(ctx, "h")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
