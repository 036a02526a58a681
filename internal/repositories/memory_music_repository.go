package repositories

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"melostore/internal/models"
	"melostore/internal/similarity"
	"melostore/internal/songtitle"
)

// MemoryMusicRepository keeps documents in a process-local map. It backs
// tests and single-node setups without a MongoDB instance.
type MemoryMusicRepository struct {
	mu   sync.RWMutex
	docs map[string]*models.MusicDocument
}

func NewMemoryMusicRepository() *MemoryMusicRepository {
	return &MemoryMusicRepository{docs: make(map[string]*models.MusicDocument)}
}

func (r *MemoryMusicRepository) Save(ctx context.Context, doc *models.MusicDocument) error {
	doc.UpdatedAt = time.Now()
	if doc.CompTitle == "" {
		doc.CompTitle = songtitle.Comparison(doc.Title)
	}

	clone := *doc
	r.mu.Lock()
	r.docs[doc.Title] = &clone
	r.mu.Unlock()
	return nil
}

func (r *MemoryMusicRepository) FindByTitle(ctx context.Context, title string, minSimilarity float64) (*models.MusicDocument, error) {
	title = songtitle.Normalize(title)
	if title == "" {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if doc, ok := r.docs[title]; ok {
		clone := *doc
		return &clone, nil
	}

	var best *models.MusicDocument
	bestScore := 0.0
	for _, doc := range r.docs {
		score := similarity.Song(doc.Title, title, similarity.SongOptions{
			Normalized: true,
			Min:        minSimilarity,
		})

		switch {
		case best == nil || score > bestScore:
			best, bestScore = doc, score
		case score == bestScore && rand.Float64() > 0.5:
			best, bestScore = doc, score
		}
	}

	if best == nil || bestScore < minSimilarity {
		return nil, nil
	}
	clone := *best
	return &clone, nil
}

func (r *MemoryMusicRepository) FindByFileHash(ctx context.Context, hash string) (*models.MusicDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.docs {
		if doc.FileHash == hash {
			clone := *doc
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryMusicRepository) Iterate(ctx context.Context, fn func(*models.MusicDocument) error) error {
	r.mu.RLock()
	snapshot := make([]*models.MusicDocument, 0, len(r.docs))
	for _, doc := range r.docs {
		clone := *doc
		snapshot = append(snapshot, &clone)
	}
	r.mu.RUnlock()

	for _, doc := range snapshot {
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryMusicRepository) DeleteByTitle(ctx context.Context, title string) error {
	r.mu.Lock()
	delete(r.docs, title)
	r.mu.Unlock()
	return nil
}

func (r *MemoryMusicRepository) DeleteByFileHash(ctx context.Context, hash string) error {
	r.mu.Lock()
	for title, doc := range r.docs {
		if doc.FileHash == hash {
			delete(r.docs, title)
		}
	}
	r.mu.Unlock()
	return nil
}

func (r *MemoryMusicRepository) Touch(ctx context.Context, title string, at time.Time) error {
	r.mu.Lock()
	if doc, ok := r.docs[title]; ok {
		doc.AccessedAt = at
	}
	r.mu.Unlock()
	return nil
}

func (r *MemoryMusicRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.docs)), nil
}
