package services

import (
	"context"
	"fmt"
	"log/slog"

	"melostore/internal/links"
	"melostore/internal/models"
	"melostore/internal/repositories"
	"melostore/internal/search"
	"melostore/internal/storage"
	"melostore/internal/tags"
)

// DocumentProvider serves this node's documents to the search pipeline and
// to peers asking through the get-documents action. Documents whose blob is
// present get their tags and content links attached; dangling documents are
// still reported, just bare.
type DocumentProvider struct {
	repo     repositories.MusicRepository
	store    storage.BlobStore
	protocol string
	address  string
	logger   *slog.Logger
}

// NewDocumentProvider creates a provider answering with links rooted at this
// node's public address.
func NewDocumentProvider(repo repositories.MusicRepository, store storage.BlobStore, protocol, address string, logger *slog.Logger) *DocumentProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentProvider{
		repo:     repo,
		store:    store,
		protocol: protocol,
		address:  address,
		logger:   logger,
	}
}

// Documents returns every stored document matching the query.
func (p *DocumentProvider) Documents(ctx context.Context, q search.Query) ([]*models.SongInfo, error) {
	var out []*models.SongInfo
	err := p.repo.Iterate(ctx, func(doc *models.MusicDocument) error {
		if !q.Matches(doc.CompTitle) {
			return nil
		}
		out = append(out, p.songInfo(doc))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents: %w", err)
	}
	return out, nil
}

// songInfo builds the wire form of one document.
func (p *DocumentProvider) songInfo(doc *models.MusicDocument) *models.SongInfo {
	info := &models.SongInfo{
		Address:   p.address,
		Title:     doc.Title,
		CompTitle: doc.CompTitle,
		Priority:  doc.Priority,
		Tags:      map[string]string{},
	}
	if doc.FileHash == "" || !p.store.Has(doc.FileHash) {
		return info
	}
	info.FileHash = doc.FileHash
	info.AudioLink = links.BuildAudioLink(p.protocol, p.address, doc.Title, doc.FileHash)

	t, err := tags.ReadFile(p.store.Path(doc.FileHash))
	if err != nil {
		p.logger.Warn("failed to read blob tags", "title", doc.Title, "hash", doc.FileHash, "error", err)
		return info
	}
	info.Tags = t.Fields()
	if t.HasCover() {
		info.CoverLink = links.BuildCoverLink(p.protocol, p.address, doc.Title, doc.FileHash, tags.CoverExt(t.Cover()))
	}
	return info
}
