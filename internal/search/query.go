package search

import (
	"strings"

	"melostore/internal/models"
	"melostore/internal/similarity"
	"melostore/internal/songtitle"
)

// Mode selects which predicate a query applies to stored comparison titles.
type Mode string

const (
	// ModeInfo matches by composite song similarity against one title.
	ModeInfo Mode = "info"
	// ModeFind matches by free-text substring or composite similarity.
	ModeFind Mode = "find"
	// ModeArtist matches by artist-list containment.
	ModeArtist Mode = "artist"
)

// Query is the filter a node evaluates against its own documents. It is the
// wire body of the get-documents action, so every field must survive a JSON
// round trip between peers.
type Query struct {
	Mode          Mode    `json:"mode"`
	Title         string  `json:"title,omitempty"`
	FindingString string  `json:"findingString,omitempty"`
	Similarity    float64 `json:"similarity"`
	Limit         int     `json:"limit,omitempty"`
}

// Matches reports whether a stored comparison title satisfies the query.
func (q Query) Matches(compTitle string) bool {
	switch q.Mode {
	case ModeInfo:
		return q.similarityMatch(compTitle)
	case ModeFind:
		if q.FindingString != "" && strings.Contains(songtitle.FindingString(compTitle), q.FindingString) {
			return true
		}
		return q.similarityMatch(compTitle)
	case ModeArtist:
		if q.FindingString == "" {
			return false
		}
		for _, artist := range songtitle.Artists(compTitle, true) {
			if strings.Contains(songtitle.FindingString(artist), q.FindingString) {
				return true
			}
		}
		return false
	}
	return false
}

// Score computes the ranking score of a matched document. Artist queries
// rank by priority and randomness alone.
func (q Query) Score(doc *models.SongInfo) float64 {
	switch q.Mode {
	case ModeInfo:
		return similarity.Song(q.Title, doc.CompTitle, similarity.SongOptions{Normalized: true})
	case ModeFind:
		return similarity.String(q.FindingString, doc.CompTitle, similarity.StringOptions{IgnoreOrder: true})
	}
	return 0
}

func (q Query) similarityMatch(compTitle string) bool {
	if q.Title == "" {
		return false
	}
	score := similarity.Song(q.Title, compTitle, similarity.SongOptions{
		Normalized: true,
		Min:        q.Similarity,
	})
	return score >= q.Similarity && score > 0
}
