// Package similarity scores how close two strings or two song titles are,
// on a 0..1 scale. String scoring uses positional character alignment, song
// scoring combines the name and artist scores with a configurable weight.
package similarity

import (
	"math"
	"strings"

	"melostore/internal/songtitle"
)

// defaultTitlePriority shifts the song score toward the name side.
const defaultTitlePriority = 0.5

// StringOptions tunes String.
type StringOptions struct {
	// IgnoreOrder counts a matched character with full weight regardless of
	// how far it drifted from its expected position.
	IgnoreOrder bool
	// Min short-circuits the scan to 0 as soon as the best still reachable
	// score drops below it.
	Min float64
}

// SongOptions tunes Song.
type SongOptions struct {
	// TitlePriority in (0,1] weights the song name against the artist list.
	// Zero means the default of 0.5.
	TitlePriority float64
	// Min is the acceptance threshold. Scores below it collapse to 0, and
	// a failed name comparison alone zeroes the result.
	Min float64
	// Normalized marks both inputs as already canonical titles.
	Normalized bool
}

// String scores the character alignment of two strings, case-insensitively.
// Each character of the shorter string consumes its nearest unconsumed
// counterpart in the longer one, weighted down by the positional drift, and
// the sum is normalized by the geometric mean of both lengths.
func String(first, second string, opts StringOptions) float64 {
	short := []rune(strings.ToLower(first))
	long := []rune(strings.ToLower(second))
	if len(long) < len(short) {
		short, long = long, short
	}

	coef := math.Sqrt(float64(len(short)) * float64(len(long)))
	if coef == 0 {
		return 0
	}

	matches := 0.0
	for i := 0; i < len(short); i++ {
		index := -1
		for dist := 0; dist < len(long); dist++ {
			if p := i + dist; p < len(long) && long[p] == short[i] {
				index = p
				break
			}
			if p := i - dist; p >= 0 && long[p] == short[i] {
				index = p
				break
			}
		}

		if index != -1 {
			w := 1.0
			if !opts.IgnoreOrder {
				w = 1 - math.Abs(float64(index-i))/float64(len(short))
			}
			matches += w
			// consumed marker, never equals a real rune
			long[index] = -1
		}

		if (float64(len(short))+matches-float64(i)-1)/coef < opts.Min {
			return 0
		}
	}

	return matches / coef
}

// Song scores two song titles. Both are canonicalized unless Normalized is
// set, then the names and the artist lists are compared separately and
// blended by TitlePriority.
func Song(source, target string, opts SongOptions) float64 {
	tp := opts.TitlePriority
	if tp == 0 {
		tp = defaultTitlePriority
	}

	if !opts.Normalized {
		source = songtitle.Normalize(source)
		target = songtitle.Normalize(target)
	}
	source = strings.ToLower(source)
	target = strings.ToLower(target)
	if source == "" || target == "" {
		return 0
	}

	// the name threshold is the acceptance threshold rescaled from the
	// [0.5, 1] band down to [0, 1]
	mcoef := (opts.Min - 0.5) / 0.5
	nameScore := String(songtitle.Name(source, true), songtitle.Name(target, true), StringOptions{Min: mcoef})
	if opts.Min != 0 && nameScore == 0 {
		return 0
	}

	sourceArtists := strings.Join(songtitle.Artists(source, true), ",")
	targetArtists := strings.Join(songtitle.Artists(target, true), ",")
	artistScore := String(sourceArtists, targetArtists, StringOptions{})

	res := (nameScore*(1+tp) + artistScore*(1-tp)) / 2
	if res < opts.Min {
		return 0
	}
	return res
}
