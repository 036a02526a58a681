package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melostore/internal/cache"
	"melostore/internal/links"
	"melostore/internal/models"
	"melostore/internal/search"
	"melostore/internal/songtitle"
)

type fixedSource struct {
	docs []*models.SongInfo
}

func (s *fixedSource) Documents(_ context.Context, q search.Query) ([]*models.SongInfo, error) {
	var out []*models.SongInfo
	for _, doc := range s.docs {
		if q.Matches(doc.CompTitle) {
			clone := *doc
			out = append(out, &clone)
		}
	}
	return out, nil
}

func newLinkFixture(t *testing.T, docs ...*models.SongInfo) (*LinkResolver, *links.LinkCache) {
	t.Helper()
	pipeline := search.NewPipeline(&fixedSource{docs: docs}, nil, search.Options{
		Similarity:             0.91,
		TitlePriority:          0.5,
		FindingLimit:           200,
		FindingStringMinLength: 4,
	}, nil)
	linkCache := links.NewLinkCache(cache.NewMemoryCache(), time.Minute)
	return NewLinkResolver(pipeline, linkCache, nil), linkCache
}

func songDoc(title, hash string) *models.SongInfo {
	return &models.SongInfo{
		Title:     title,
		CompTitle: songtitle.Comparison(title),
		FileHash:  hash,
		AudioLink: links.BuildAudioLink("http", "127.0.0.1:8080", title, hash),
	}
}

func TestGetSongLink_WrongType(t *testing.T) {
	resolver, _ := newLinkFixture(t)
	_, err := resolver.GetSongLink(context.Background(), "Artist - Title", "video")
	require.Error(t, err)
	assert.True(t, models.IsDomainError(err, models.ErrCodeSongLinkType))
}

func TestGetSongLink_WrongTitle(t *testing.T) {
	resolver, _ := newLinkFixture(t)
	_, err := resolver.GetSongLink(context.Background(), "no separator", LinkTypeAudio)
	require.Error(t, err)
	assert.True(t, models.IsDomainError(err, models.ErrCodeWrongTitle))
}

func TestGetSongLink_ResolvesAndCaches(t *testing.T) {
	doc := songDoc("Artist - Title", "abc123")
	resolver, linkCache := newLinkFixture(t, doc)
	ctx := context.Background()

	link, err := resolver.GetSongLink(ctx, "artist - title", LinkTypeAudio)
	require.NoError(t, err)
	assert.Equal(t, doc.AudioLink, link)

	entry, err := linkCache.Get(ctx, "Artist - Title")
	require.NoError(t, err)
	require.NotNil(t, entry, "the winning link is cached under the canonical title")
	assert.Equal(t, doc.AudioLink, entry.AudioLink)
}

func TestGetSongLink_CachedLinkShortCircuits(t *testing.T) {
	resolver, linkCache := newLinkFixture(t) // no documents anywhere
	ctx := context.Background()

	cached := links.BuildAudioLink("http", "10.0.0.9:8080", "Artist - Title", "zzz")
	require.NoError(t, linkCache.Update(ctx, "Artist - Title", links.Entry{AudioLink: cached}))

	link, err := resolver.GetSongLink(ctx, "Artist - Title", LinkTypeAudio)
	require.NoError(t, err)
	assert.Equal(t, cached, link, "a structurally valid cached link is reused without a search")
}

func TestGetSongLink_BrokenCacheEntryRepaired(t *testing.T) {
	doc := songDoc("Artist - Title", "abc123")
	resolver, linkCache := newLinkFixture(t, doc)
	ctx := context.Background()

	require.NoError(t, linkCache.Update(ctx, "Artist - Title", links.Entry{
		AudioLink: "http://example.com/not-an-audio-path",
		CoverLink: links.BuildCoverLink("http", "10.0.0.9:8080", "Artist - Title", "abc123", "jpg"),
	}))

	link, err := resolver.GetSongLink(ctx, "Artist - Title", LinkTypeAudio)
	require.NoError(t, err)
	assert.Equal(t, doc.AudioLink, link, "broken cached audio link is replaced from the search")
}

func TestGetSongLink_NothingFound(t *testing.T) {
	resolver, _ := newLinkFixture(t)
	link, err := resolver.GetSongLink(context.Background(), "Artist - Title", LinkTypeAudio)
	require.NoError(t, err)
	assert.Empty(t, link)
}

func TestGetSongLink_RepairsUnderBothTitles(t *testing.T) {
	// The stored document's canonical title differs from the queried one but
	// matches fuzzily.
	doc := songDoc("Artist - Good Title", "abc123")
	resolver, linkCache := newLinkFixture(t, doc)
	ctx := context.Background()

	link, err := resolver.GetSongLink(ctx, "artist - good titl", LinkTypeAudio)
	require.NoError(t, err)
	require.Equal(t, doc.AudioLink, link)

	queried, err := linkCache.Get(ctx, songtitle.Normalize("artist - good titl"))
	require.NoError(t, err)
	assert.NotNil(t, queried, "cache is written under the queried title")

	winner, err := linkCache.Get(ctx, "Artist - Good Title")
	require.NoError(t, err)
	assert.NotNil(t, winner, "cache is also written under the winning document's title")
}
