package services

import (
	"context"
	"fmt"
	"log/slog"

	"melostore/internal/models"
	"melostore/internal/repositories"
	"melostore/internal/songtitle"
)

// NormalizeTitles re-canonicalizes every stored title, run once at startup
// so documents written under an older normalization scheme converge. A
// document whose title no longer normalizes is dropped; a document whose
// new canonical title collides with an existing one is dropped in favor of
// the incumbent.
func NormalizeTitles(ctx context.Context, repo repositories.MusicRepository, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	var docs []*models.MusicDocument
	err := repo.Iterate(ctx, func(doc *models.MusicDocument) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan documents: %w", err)
	}

	// Documents already under their canonical title are incumbents; a rename
	// must never land on top of one of them.
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if songtitle.Normalize(doc.Title) == doc.Title {
			seen[doc.Title] = true
		}
	}

	for _, doc := range docs {
		canonical := songtitle.Normalize(doc.Title)
		if canonical == doc.Title && doc.CompTitle == songtitle.Comparison(doc.Title) {
			continue
		}
		if canonical == "" || (canonical != doc.Title && seen[canonical]) {
			if err := repo.DeleteByTitle(ctx, doc.Title); err != nil {
				return fmt.Errorf("failed to drop document %q: %w", doc.Title, err)
			}
			logger.Info("dropped document during title normalization", "title", doc.Title)
			continue
		}
		seen[canonical] = true
		if err := repo.DeleteByTitle(ctx, doc.Title); err != nil {
			return fmt.Errorf("failed to move document %q: %w", doc.Title, err)
		}
		old := doc.Title
		doc.Title = canonical
		doc.CompTitle = songtitle.Comparison(canonical)
		if err := repo.Save(ctx, doc); err != nil {
			return fmt.Errorf("failed to save renamed document %q: %w", canonical, err)
		}
		logger.Info("renamed document during title normalization", "from", old, "to", canonical)
	}
	return nil
}
