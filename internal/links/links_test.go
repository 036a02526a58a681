package links

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melostore/internal/cache"
	"melostore/internal/songtitle"
)

func TestBuildAudioLink(t *testing.T) {
	link := BuildAudioLink("http", "node1:8080", "Artist - Good Title", "abc123")
	assert.True(t, IsValidAudioLink(link))

	code := songtitle.Encode("Artist - Good Title")
	assert.Equal(t, "http://node1:8080/audio/"+code+".mp3?f=abc123", link)
}

func TestBuildCoverLink(t *testing.T) {
	link := BuildCoverLink("https", "node1:8080", "Artist - Good Title", "abc123", "jpg")
	assert.True(t, IsValidCoverLink(link))

	// no extension still produces a link, it just fails validation
	bare := BuildCoverLink("https", "node1:8080", "Artist - Good Title", "abc123", "")
	assert.False(t, IsValidCoverLink(bare))
}

func TestIsValidAudioLink(t *testing.T) {
	assert.True(t, IsValidAudioLink("http://node:8080/audio/dGl0bGU.mp3?f=hash"))
	assert.True(t, IsValidAudioLink("https://node/audio/dGl0bGU.MPEG?f=hash"))

	assert.False(t, IsValidAudioLink(""))
	assert.False(t, IsValidAudioLink("ftp://node/audio/dGl0bGU.mp3"))
	assert.False(t, IsValidAudioLink("http://node/cover/dGl0bGU.mp3"))
	assert.False(t, IsValidAudioLink("http://node/audio/dGl0bGU.jpg"))
	assert.False(t, IsValidAudioLink("not a link"))
}

func TestIsValidCoverLink(t *testing.T) {
	assert.True(t, IsValidCoverLink("http://node/cover/dGl0bGU.jpg?f=hash"))
	assert.True(t, IsValidCoverLink("http://node/cover/dGl0bGU.jpeg?f=hash"))
	assert.True(t, IsValidCoverLink("http://node/cover/dGl0bGU.png?f=hash"))

	assert.False(t, IsValidCoverLink("http://node/cover/dGl0bGU.mp3?f=hash"))
	assert.False(t, IsValidCoverLink("http://node/audio/dGl0bGU.png?f=hash"))
}

func newTestLinkCache() *LinkCache {
	return NewLinkCache(cache.NewMemoryCache(), time.Hour)
}

func validAudio() string {
	return BuildAudioLink("http", "node:8080", "Artist - Title", "hash1")
}

func validCover() string {
	return BuildCoverLink("http", "node:8080", "Artist - Title", "hash1", "jpg")
}

func TestLinkCache_UpdateAndGet(t *testing.T) {
	ctx := context.Background()
	lc := newTestLinkCache()

	require.NoError(t, lc.Update(ctx, "Artist - Title", Entry{
		AudioLink: validAudio(),
		CoverLink: validCover(),
	}))

	entry, err := lc.Get(ctx, "Artist - Title")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, validAudio(), entry.AudioLink)
	assert.Equal(t, validCover(), entry.CoverLink)
}

func TestLinkCache_InvalidFieldDropped(t *testing.T) {
	ctx := context.Background()
	lc := newTestLinkCache()

	require.NoError(t, lc.Update(ctx, "Artist - Title", Entry{
		AudioLink: validAudio(),
		CoverLink: "garbage",
	}))

	entry, err := lc.Get(ctx, "Artist - Title")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, validAudio(), entry.AudioLink)
	assert.Empty(t, entry.CoverLink)
}

func TestLinkCache_FullyInvalidRemoved(t *testing.T) {
	ctx := context.Background()
	lc := newTestLinkCache()

	require.NoError(t, lc.Update(ctx, "Artist - Title", Entry{AudioLink: "bad", CoverLink: "bad"}))

	entry, err := lc.Get(ctx, "Artist - Title")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestLinkCache_UpdateMerges(t *testing.T) {
	ctx := context.Background()
	lc := newTestLinkCache()

	require.NoError(t, lc.Update(ctx, "Artist - Title", Entry{AudioLink: validAudio()}))
	require.NoError(t, lc.Update(ctx, "Artist - Title", Entry{CoverLink: validCover()}))

	entry, err := lc.Get(ctx, "Artist - Title")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, validAudio(), entry.AudioLink)
	assert.Equal(t, validCover(), entry.CoverLink)
}

func TestLinkCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	lc := newTestLinkCache()

	require.NoError(t, lc.Update(ctx, "Artist - Title", Entry{
		AudioLink: validAudio(),
		CoverLink: validCover(),
	}))

	require.NoError(t, lc.Invalidate(ctx, "Artist - Title", "cover"))
	entry, err := lc.Get(ctx, "Artist - Title")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Empty(t, entry.CoverLink)

	// dropping the last remaining link removes the whole entry
	require.NoError(t, lc.Invalidate(ctx, "Artist - Title", "audio"))
	entry, err = lc.Get(ctx, "Artist - Title")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestLinkCache_CorruptEntryRemoved(t *testing.T) {
	ctx := context.Background()
	backing := cache.NewMemoryCache()
	lc := NewLinkCache(backing, time.Hour)

	require.NoError(t, backing.Set(ctx, "songlink:Artist - Title", []byte("not json"), 0))

	entry, err := lc.Get(ctx, "Artist - Title")
	require.NoError(t, err)
	assert.Nil(t, entry)
}
