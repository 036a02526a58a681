package services

import (
	"context"
	"log/slog"
	"time"

	"melostore/internal/models"
	"melostore/internal/repositories"
	"melostore/internal/storage"
)

// Sweeper is the periodic consistency pass: documents whose blob vanished
// are deleted, blobs no document references are removed. Hashes mid-addition
// are skipped so a concurrent store is never raced.
type Sweeper struct {
	repo     repositories.MusicRepository
	store    storage.BlobStore
	guard    *storage.AddGuard
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper running at the given interval.
func NewSweeper(repo repositories.MusicRepository, store storage.BlobStore, guard *storage.AddGuard, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{repo: repo, store: store, guard: guard, interval: interval, logger: logger}
}

// Run sweeps on a ticker until the context ends.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Per-item failures are logged and skipped; the sweep
// itself never fails.
func (s *Sweeper) Sweep(ctx context.Context) {
	var dangling []*models.MusicDocument
	err := s.repo.Iterate(ctx, func(doc *models.MusicDocument) error {
		if doc.FileHash != "" && s.guard.IsHeld(doc.FileHash) {
			return nil
		}
		if doc.FileHash == "" || !s.store.Has(doc.FileHash) {
			dangling = append(dangling, doc)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("cleanup document scan failed", "error", err)
		return
	}
	for _, doc := range dangling {
		if err := s.repo.DeleteByTitle(ctx, doc.Title); err != nil {
			s.logger.Warn("failed to delete dangling document", "title", doc.Title, "error", err)
			continue
		}
		s.logger.Info("removed dangling document", "title", doc.Title)
	}

	var orphans []string
	err = s.store.Iterate(func(hash, path string) error {
		if s.guard.IsHeld(hash) {
			return nil
		}
		doc, err := s.repo.FindByFileHash(ctx, hash)
		if err != nil {
			s.logger.Warn("failed to check blob ownership", "hash", hash, "error", err)
			return nil
		}
		if doc == nil {
			orphans = append(orphans, hash)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("cleanup blob scan failed", "error", err)
		return
	}
	for _, hash := range orphans {
		if err := s.store.Remove(hash); err != nil {
			s.logger.Warn("failed to remove orphaned blob", "hash", hash, "error", err)
			continue
		}
		s.logger.Info("removed orphaned blob", "hash", hash)
	}
}
