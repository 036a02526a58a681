package services

import (
	"log/slog"
	"os"
	"time"

	"melostore/internal/audioinfo"
	"melostore/internal/storage"
)

// RelevanceChecker decides whether the blob already stored for a song is
// still worth keeping when a new upload arrives for the same title.
type RelevanceChecker struct {
	store  storage.BlobStore
	window time.Duration
	logger *slog.Logger
}

// NewRelevanceChecker creates a checker with the configured grace window.
func NewRelevanceChecker(store storage.BlobStore, window time.Duration, logger *slog.Logger) *RelevanceChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelevanceChecker{store: store, window: window, logger: logger}
}

// StillRelevant reports whether the existing blob should survive against the
// incoming file. The existing blob starts with the full grace window; each
// quality criterion the incoming file strictly beats shrinks the window
// (full step for duration, half steps for sample rate and bitrate), and the
// existing blob stays relevant only while younger than what remains.
func (c *RelevanceChecker) StillRelevant(existingHash, incomingHash, incomingPath string) bool {
	if !c.store.Has(existingHash) {
		return false
	}
	if incomingPath == "" {
		return true
	}
	if _, err := os.Stat(incomingPath); err != nil {
		return true
	}
	if incomingHash != "" && incomingHash == existingHash {
		return true
	}
	if c.window <= 0 {
		return false
	}

	existing, err := decodeBlobInfo(c.store.Path(existingHash))
	if err != nil {
		c.logger.Warn("stored blob failed to decode, treating as irrelevant", "hash", existingHash, "error", err)
		return false
	}
	incoming, err := decodeBlobInfo(incomingPath)
	if err != nil {
		c.logger.Warn("incoming file failed to decode, keeping stored blob", "error", err)
		return true
	}

	step := c.window / 2
	window := c.window
	if incoming.Duration > existing.Duration {
		window -= step
	}
	if incoming.SampleRate > existing.SampleRate {
		window -= step / 2
	}
	if incoming.BitRate > existing.BitRate {
		window -= step / 2
	}

	storedAt, err := c.store.ModTime(existingHash)
	if err != nil {
		return false
	}
	return time.Since(storedAt) < window
}

func decodeBlobInfo(path string) (*audioinfo.Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return audioinfo.Decode(f)
}
