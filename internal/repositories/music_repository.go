// Package repositories persists music documents.
package repositories

import (
	"context"
	"time"

	"melostore/internal/models"
)

// MusicRepository stores one document per logical song, keyed by canonical
// title. Find operations return (nil, nil) when nothing matches.
type MusicRepository interface {
	// Save upserts a document by title.
	Save(ctx context.Context, doc *models.MusicDocument) error

	// FindByTitle resolves a raw title to the closest stored document at or
	// above the similarity threshold. An exact canonical match wins with
	// score one; ties between equal scores are broken randomly.
	FindByTitle(ctx context.Context, title string, minSimilarity float64) (*models.MusicDocument, error)

	// FindByFileHash returns the document owning a blob.
	FindByFileHash(ctx context.Context, hash string) (*models.MusicDocument, error)

	// Iterate streams every document until fn errors.
	Iterate(ctx context.Context, fn func(*models.MusicDocument) error) error

	DeleteByTitle(ctx context.Context, title string) error
	DeleteByFileHash(ctx context.Context, hash string) error

	// Touch refreshes a document's access time.
	Touch(ctx context.Context, title string, at time.Time) error

	Count(ctx context.Context) (int64, error)
}
