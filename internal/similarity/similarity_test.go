package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, 1.0, String("abc", "abc", StringOptions{}))
	assert.Equal(t, 1.0, String("ABC", "abc", StringOptions{}))
	assert.Equal(t, 0.0, String("abc", "xyz", StringOptions{}))
	assert.Equal(t, 0.0, String("", "abc", StringOptions{}))
	assert.Equal(t, 0.0, String("", "", StringOptions{}))

	// swapped characters lose positional weight unless order is ignored
	assert.InDelta(t, 0.5, String("ab", "ba", StringOptions{}), 1e-9)
	assert.Equal(t, 1.0, String("ab", "ba", StringOptions{IgnoreOrder: true}))

	// argument order does not matter
	a := String("hello world", "helo wrold", StringOptions{})
	b := String("helo wrold", "hello world", StringOptions{})
	assert.Equal(t, a, b)
	assert.Greater(t, a, 0.5)
}

func TestString_MinCutsOff(t *testing.T) {
	score := String("hello", "help!", StringOptions{})
	assert.Greater(t, score, 0.0)

	// the same pair collapses to zero under a high threshold
	assert.Equal(t, 0.0, String("hello", "help!", StringOptions{Min: 0.95}))
}

func TestSong_Identity(t *testing.T) {
	assert.Equal(t, 1.0, Song("Artist - Title", "artist - title", SongOptions{}))
	assert.Equal(t, 1.0, Song("artist - title", "artist - title", SongOptions{Min: 0.91}))
}

func TestSong_Distinct(t *testing.T) {
	// unrelated songs fall under the acceptance threshold
	assert.Equal(t, 0.0, Song("Artist - Title", "nothing - tiger", SongOptions{Min: 0.91}))

	score := Song("Artist - Title", "nothing - tiger", SongOptions{})
	assert.GreaterOrEqual(t, score, 0.0)
	assert.Less(t, score, 0.91)
}

func TestSong_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"artist - title", "artist - title (feat. artist2)"},
		{"a, b - song", "a - song (feat. b)"},
		{"someone - anything", "someone else - anything else"},
	}
	for _, p := range pairs {
		score := Song(p[0], p[1], SongOptions{})
		assert.GreaterOrEqual(t, score, 0.0, "pair %v", p)
		assert.LessOrEqual(t, score, 1.0, "pair %v", p)
	}
}

func TestSong_InvalidTitles(t *testing.T) {
	assert.Equal(t, 0.0, Song("wrong song title", "artist - title", SongOptions{}))
	assert.Equal(t, 0.0, Song("", "", SongOptions{}))
}

func TestSong_TitlePriority(t *testing.T) {
	// a higher title priority rewards a matching name over matching artists
	nameMatch := Song("one - same title", "two - same title", SongOptions{TitlePriority: 0.9})
	artistMatch := Song("same artist - one", "same artist - two", SongOptions{TitlePriority: 0.9})
	assert.Greater(t, nameMatch, artistMatch)
}
