package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melostore/internal/models"
)

func saveDoc(t *testing.T, repo MusicRepository, title, hash string) *models.MusicDocument {
	t.Helper()
	doc := models.NewMusicDocument(title, "", hash, 0)
	require.NoError(t, repo.Save(context.Background(), doc))
	return doc
}

func TestMemoryRepository_SaveAndExactFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMusicRepository()
	saveDoc(t, repo, "Artist - Good Title", "hash1")

	// lookup input is canonicalized before matching
	doc, err := repo.FindByTitle(ctx, "  ARTIST  - good title", 0.91)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Artist - Good Title", doc.Title)
	assert.Equal(t, "artist - good title", doc.CompTitle)
}

func TestMemoryRepository_FuzzyFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMusicRepository()
	saveDoc(t, repo, "Artist - Good Title", "hash1")
	saveDoc(t, repo, "Other - Unrelated Song", "hash2")

	// a truncated name still resolves to the stored song
	doc, err := repo.FindByTitle(ctx, "artist - good titl", 0.91)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Artist - Good Title", doc.Title)

	// a dissimilar title resolves to nothing
	doc, err = repo.FindByTitle(ctx, "somebody - else entirely", 0.91)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMemoryRepository_InvalidTitle(t *testing.T) {
	repo := NewMemoryMusicRepository()
	doc, err := repo.FindByTitle(context.Background(), "no separator", 0.91)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMemoryRepository_FindByFileHash(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMusicRepository()
	saveDoc(t, repo, "Artist - Good Title", "hash1")

	doc, err := repo.FindByFileHash(ctx, "hash1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Artist - Good Title", doc.Title)

	doc, err = repo.FindByFileHash(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMemoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMusicRepository()
	saveDoc(t, repo, "Artist - One", "hash1")
	saveDoc(t, repo, "Artist - Two", "hash2")

	require.NoError(t, repo.DeleteByTitle(ctx, "Artist - One"))
	require.NoError(t, repo.DeleteByFileHash(ctx, "hash2"))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMemoryRepository_Touch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMusicRepository()
	saveDoc(t, repo, "Artist - One", "hash1")

	at := time.Now().Add(time.Hour)
	require.NoError(t, repo.Touch(ctx, "Artist - One", at))

	doc, err := repo.FindByTitle(ctx, "Artist - One", 0.91)
	require.NoError(t, err)
	assert.WithinDuration(t, at, doc.AccessedAt, time.Second)
}

func TestMemoryRepository_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMusicRepository()
	saveDoc(t, repo, "Artist - One", "hash1")
	saveDoc(t, repo, "Artist - One", "hash2")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	doc, err := repo.FindByFileHash(ctx, "hash2")
	require.NoError(t, err)
	require.NotNil(t, doc)
}
