package services

import (
	"context"
	"fmt"
	"log/slog"

	"melostore/internal/links"
	"melostore/internal/models"
	"melostore/internal/search"
	"melostore/internal/songtitle"
)

// Link types a song exposes.
const (
	LinkTypeAudio = "audio"
	LinkTypeCover = "cover"
)

// LinkResolver answers "where can this song be fetched right now". Answers
// are cached per canonical title; a stale or structurally broken cached link
// is dropped and repaired from a fresh network search.
type LinkResolver struct {
	pipeline *search.Pipeline
	cache    *links.LinkCache
	logger   *slog.Logger
}

// NewLinkResolver creates a resolver over the search pipeline and the link
// cache.
func NewLinkResolver(pipeline *search.Pipeline, cache *links.LinkCache, logger *slog.Logger) *LinkResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkResolver{pipeline: pipeline, cache: cache, logger: logger}
}

// GetSongLink resolves a title to a content link of the requested type.
// Returns "" when no reachable node exposes one.
func (r *LinkResolver) GetSongLink(ctx context.Context, title, linkType string) (string, error) {
	if linkType != LinkTypeAudio && linkType != LinkTypeCover {
		return "", models.NewDomainError(models.ErrCodeSongLinkType, "wrong link type %q", linkType)
	}
	canonical := songtitle.Normalize(title)
	if canonical == "" {
		return "", models.NewDomainError(models.ErrCodeWrongTitle, "wrong song title %q", title)
	}

	if entry, err := r.cache.Get(ctx, canonical); err != nil {
		r.logger.Warn("link cache read failed", "title", canonical, "error", err)
	} else if entry != nil {
		if link := pickLink(*entry, linkType); link != "" {
			return link, nil
		}
		// The cached value for this type is gone or broken; drop just it.
		if err := r.cache.Invalidate(ctx, canonical, linkType); err != nil {
			r.logger.Warn("link cache invalidation failed", "title", canonical, "error", err)
		}
	}

	docs, err := r.pipeline.GetSongInfo(ctx, canonical)
	if err != nil {
		return "", fmt.Errorf("failed to search the network: %w", err)
	}
	for _, doc := range docs {
		link := pickLink(links.Entry{AudioLink: doc.AudioLink, CoverLink: doc.CoverLink}, linkType)
		if link == "" {
			continue
		}
		entry := links.Entry{AudioLink: doc.AudioLink, CoverLink: doc.CoverLink}
		r.repairCache(ctx, canonical, entry)
		if winner := songtitle.Normalize(doc.Title); winner != "" && winner != canonical {
			r.repairCache(ctx, winner, entry)
		}
		return link, nil
	}
	return "", nil
}

func (r *LinkResolver) repairCache(ctx context.Context, title string, entry links.Entry) {
	if err := r.cache.Update(ctx, title, entry); err != nil {
		r.logger.Warn("link cache update failed", "title", title, "error", err)
	}
}

// pickLink returns the requested link only when it is structurally valid.
func pickLink(entry links.Entry, linkType string) string {
	switch linkType {
	case LinkTypeAudio:
		if links.IsValidAudioLink(entry.AudioLink) {
			return entry.AudioLink
		}
	case LinkTypeCover:
		if links.IsValidCoverLink(entry.CoverLink) {
			return entry.CoverLink
		}
	}
	return ""
}
