package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"melostore/internal/models"
	"melostore/internal/network"
	"melostore/internal/repositories"
	"melostore/internal/storage"
)

// ExportStats summarizes one export batch.
type ExportStats struct {
	Total    int
	Exported int
	Failed   int
}

// Exporter pushes every stored song to another node.
type Exporter struct {
	repo    repositories.MusicRepository
	store   storage.BlobStore
	network network.Broadcaster
	logger  *slog.Logger
}

// NewExporter creates an exporter.
func NewExporter(repo repositories.MusicRepository, store storage.BlobStore, net network.Broadcaster, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{repo: repo, store: store, network: net, logger: logger}
}

// Export sends each stored song to the target node as an exported addition.
// Per-song failures are logged and counted; in strict mode the first failure
// aborts the batch.
func (e *Exporter) Export(ctx context.Context, address string, strict bool) (ExportStats, error) {
	var docs []*models.MusicDocument
	err := e.repo.Iterate(ctx, func(doc *models.MusicDocument) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return ExportStats{}, fmt.Errorf("failed to scan documents: %w", err)
	}

	stats := ExportStats{Total: len(docs)}
	for _, doc := range docs {
		if err := e.exportSong(ctx, address, doc); err != nil {
			stats.Failed++
			if strict {
				return stats, fmt.Errorf("export of %q failed: %w", doc.Title, err)
			}
			e.logger.Warn("song export failed", "title", doc.Title, "target", address, "error", err)
			continue
		}
		stats.Exported++
	}
	e.logger.Info("export finished", "target", address,
		"total", stats.Total, "exported", stats.Exported, "failed", stats.Failed)
	return stats, nil
}

func (e *Exporter) exportSong(ctx context.Context, address string, doc *models.MusicDocument) error {
	if doc.FileHash == "" || !e.store.Has(doc.FileHash) {
		return fmt.Errorf("no blob for hash %q", doc.FileHash)
	}
	f, err := os.Open(e.store.Path(doc.FileHash))
	if err != nil {
		return err
	}
	defer f.Close()

	resp := e.network.SendFile(ctx, address, "add-song", f, doc.Title+".mp3", map[string]string{
		"title":    doc.Title,
		"priority": fmt.Sprintf("%d", doc.Priority),
		"exported": "true",
	})
	return resp.Err
}
