package links

import (
	"context"
	"encoding/json"
	"time"

	"melostore/internal/cache"
)

const keyPrefix = "songlink:"

// Entry is the cached link pair of one song title.
type Entry struct {
	AudioLink string `json:"audioLink,omitempty"`
	CoverLink string `json:"coverLink,omitempty"`
}

// Empty reports whether no link survived validation.
func (e Entry) Empty() bool {
	return e.AudioLink == "" && e.CoverLink == ""
}

// sanitize drops any structurally invalid link.
func (e Entry) sanitize() Entry {
	if !IsValidAudioLink(e.AudioLink) {
		e.AudioLink = ""
	}
	if !IsValidCoverLink(e.CoverLink) {
		e.CoverLink = ""
	}
	return e
}

// LinkCache stores resolved link entries per canonical title. Invalid links
// are dropped field by field and an entry with nothing left is removed.
type LinkCache struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewLinkCache(c cache.Cache, ttl time.Duration) *LinkCache {
	return &LinkCache{cache: c, ttl: ttl}
}

// Get returns the cached entry, or nil. A corrupt or fully invalid entry is
// removed and reported as missing.
func (c *LinkCache) Get(ctx context.Context, title string) (*Entry, error) {
	data, err := c.cache.Get(ctx, keyPrefix+title)
	if err != nil || data == nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, c.cache.Delete(ctx, keyPrefix+title)
	}

	entry = entry.sanitize()
	if entry.Empty() {
		return nil, c.cache.Delete(ctx, keyPrefix+title)
	}
	return &entry, nil
}

// Update merges the entry over the cached one, newer links winning, and
// stores the result. An update that leaves nothing valid removes the entry.
func (c *LinkCache) Update(ctx context.Context, title string, entry Entry) error {
	entry = entry.sanitize()

	if cached, err := c.Get(ctx, title); err == nil && cached != nil {
		if entry.AudioLink == "" {
			entry.AudioLink = cached.AudioLink
		}
		if entry.CoverLink == "" {
			entry.CoverLink = cached.CoverLink
		}
	}

	if entry.Empty() {
		return c.cache.Delete(ctx, keyPrefix+title)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, keyPrefix+title, data, c.ttl)
}

// Invalidate blanks one link type of the cached entry. The entry disappears
// when its other link is empty too.
func (c *LinkCache) Invalidate(ctx context.Context, title, linkType string) error {
	cached, err := c.Get(ctx, title)
	if err != nil || cached == nil {
		return err
	}

	entry := *cached
	switch linkType {
	case "audio":
		entry.AudioLink = ""
	case "cover":
		entry.CoverLink = ""
	}

	if entry.Empty() {
		return c.cache.Delete(ctx, keyPrefix+title)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, keyPrefix+title, data, c.ttl)
}

// Delete removes the entry.
func (c *LinkCache) Delete(ctx context.Context, title string) error {
	return c.cache.Delete(ctx, keyPrefix+title)
}
