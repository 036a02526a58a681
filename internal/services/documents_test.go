package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melostore/internal/links"
	"melostore/internal/models"
	"melostore/internal/repositories"
	"melostore/internal/search"
	"melostore/internal/songtitle"
	"melostore/internal/storage"
)

func TestDocumentProvider_AttachesLinksAndTags(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	repo := repositories.NewMemoryMusicRepository()
	ctx := context.Background()

	path := writeSongFile(t, t.TempDir(), "song.mp3", "Artist - Good Title", 10, 0x9, 0x0)
	hash, err := FileHash(path)
	require.NoError(t, err)
	require.NoError(t, store.AddFile(hash, path))
	require.NoError(t, repo.Save(ctx, models.NewMusicDocument("Artist - Good Title", songtitle.Comparison("Artist - Good Title"), hash, 0)))

	// A dangling document comes back bare but is still reported.
	require.NoError(t, repo.Save(ctx, models.NewMusicDocument("Artist - Good Night", "artist - good night", "gone", 0)))

	provider := NewDocumentProvider(repo, store, "http", "127.0.0.1:8080", nil)
	q := search.Query{Mode: search.ModeFind, FindingString: "good", Similarity: 0.91}

	docs, err := provider.Documents(ctx, q)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byTitle := map[string]*models.SongInfo{}
	for _, d := range docs {
		byTitle[d.Title] = d
	}

	live := byTitle["Artist - Good Title"]
	require.NotNil(t, live)
	assert.Equal(t, hash, live.FileHash)
	assert.True(t, links.IsValidAudioLink(live.AudioLink))
	assert.Equal(t, "Artist", live.Tags["TPE1"])
	assert.Empty(t, live.CoverLink, "no embedded cover means no cover link")

	bare := byTitle["Artist - Good Night"]
	require.NotNil(t, bare)
	assert.Empty(t, bare.FileHash)
	assert.Empty(t, bare.AudioLink)
}

func TestDocumentProvider_FiltersByQuery(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	repo := repositories.NewMemoryMusicRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, models.NewMusicDocument("Artist - Good Title", "artist - good title", "", 0)))
	require.NoError(t, repo.Save(ctx, models.NewMusicDocument("Other - Unrelated", "other - unrelated", "", 0)))

	provider := NewDocumentProvider(repo, store, "http", "127.0.0.1:8080", nil)
	docs, err := provider.Documents(ctx, search.Query{Mode: search.ModeFind, FindingString: "good title", Similarity: 0.91})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Artist - Good Title", docs[0].Title)
	assert.Equal(t, "127.0.0.1:8080", docs[0].Address)
}
