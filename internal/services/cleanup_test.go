package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melostore/internal/models"
	"melostore/internal/repositories"
	"melostore/internal/storage"
)

func TestSweep_RemovesDanglingDocuments(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	repo := repositories.NewMemoryMusicRepository()
	guard := storage.NewAddGuard()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, models.NewMusicDocument("Artist - Gone", "artist - gone", "missing", 0)))

	require.NoError(t, store.Add("kept", strings.NewReader("audio bytes")))
	require.NoError(t, repo.Save(ctx, models.NewMusicDocument("Artist - Kept", "artist - kept", "kept", 0)))

	NewSweeper(repo, store, guard, time.Minute, nil).Sweep(ctx)

	doc, err := repo.FindByFileHash(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, doc, "document without a blob is removed")

	doc, err = repo.FindByFileHash(ctx, "kept")
	require.NoError(t, err)
	assert.NotNil(t, doc, "document with a live blob survives")
}

func TestSweep_RemovesOrphanedBlobs(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	repo := repositories.NewMemoryMusicRepository()
	guard := storage.NewAddGuard()
	ctx := context.Background()

	require.NoError(t, store.Add("orphan", strings.NewReader("nobody references this")))
	require.NoError(t, store.Add("owned", strings.NewReader("referenced audio")))
	require.NoError(t, repo.Save(ctx, models.NewMusicDocument("Artist - Owned", "artist - owned", "owned", 0)))

	NewSweeper(repo, store, guard, time.Minute, nil).Sweep(ctx)

	assert.False(t, store.Has("orphan"))
	assert.True(t, store.Has("owned"))
}

func TestSweep_SkipsHashesMidAddition(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	repo := repositories.NewMemoryMusicRepository()
	guard := storage.NewAddGuard()
	ctx := context.Background()

	// A blob mid-addition: stored but its document not written yet.
	require.NoError(t, store.Add("adding", strings.NewReader("half-finished addition")))
	release, err := guard.Acquire(ctx, "adding")
	require.NoError(t, err)
	defer release()

	// Its future document's hash is also guarded against the dangling scan.
	require.NoError(t, repo.Save(ctx, models.NewMusicDocument("Artist - Racing", "artist - racing", "adding2", 0)))
	release2, err := guard.Acquire(ctx, "adding2")
	require.NoError(t, err)
	defer release2()

	NewSweeper(repo, store, guard, time.Minute, nil).Sweep(ctx)

	assert.True(t, store.Has("adding"), "guarded blob is not treated as orphaned")
	doc, err := repo.FindByFileHash(ctx, "adding2")
	require.NoError(t, err)
	assert.NotNil(t, doc, "guarded document is not treated as dangling")
}
