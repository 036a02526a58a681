// Package tags models a song's ID3 metadata as a frame-keyed field set with
// an attached cover image, and implements the inheritance rules used when an
// uploaded song collides with a stored one.
package tags

import (
	"melostore/internal/songtitle"
)

// heritableFields are carried over from an older copy of a song when its
// metadata is merged into a newer one. Identity fields (TPE1, TIT2) and
// everything else stay with the newer copy.
var heritableFields = []string{
	"TALB", "TCOM", "TCON", "TCOP", "TDAT", "TEXT", "TIT1", "TIT3", "TLAN",
	"TOAL", "TOLY", "TOPE", "TORY", "TPE2", "TPE3", "TPE4",
}

// SongTags is one song's metadata: ID3 text frames keyed by frame ID plus
// the attached cover picture.
type SongTags struct {
	fields map[string]string
	cover  []byte
}

// New creates an empty tag set.
func New() *SongTags {
	return &SongTags{fields: make(map[string]string)}
}

// FromMap creates a tag set from plain frame values.
func FromMap(fields map[string]string) *SongTags {
	t := New()
	for k, v := range fields {
		t.fields[k] = v
	}
	return t
}

// Get returns the value of a text frame, or "".
func (t *SongTags) Get(id string) string {
	return t.fields[id]
}

// Has reports whether the text frame is present.
func (t *SongTags) Has(id string) bool {
	_, ok := t.fields[id]
	return ok
}

// Set stores a text frame value.
func (t *SongTags) Set(id, value string) {
	t.fields[id] = value
}

// Delete removes a text frame.
func (t *SongTags) Delete(id string) {
	delete(t.fields, id)
}

// Fields returns a copy of all text frames.
func (t *SongTags) Fields() map[string]string {
	out := make(map[string]string, len(t.fields))
	for k, v := range t.fields {
		out[k] = v
	}
	return out
}

// Cover returns the attached cover image bytes, or nil.
func (t *SongTags) Cover() []byte {
	return t.cover
}

// HasCover reports whether a cover picture is attached.
func (t *SongTags) HasCover() bool {
	return len(t.cover) > 0
}

// SetCover attaches a cover picture.
func (t *SongTags) SetCover(data []byte) {
	t.cover = data
}

// FullTitle derives the song title from the artist and name frames.
func (t *SongTags) FullTitle() string {
	return t.Get("TPE1") + " - " + t.Get("TIT2")
}

// SetFullTitle canonicalizes the title and splits it back into the artist
// and name frames. An invalid title clears both frames.
func (t *SongTags) SetFullTitle(title string) {
	title = songtitle.Normalize(title)
	if title == "" {
		t.Delete("TPE1")
		t.Delete("TIT2")
		return
	}
	artist, name := songtitle.Split(title)
	t.Set("TPE1", artist)
	t.Set("TIT2", name)
}

// Clone returns a deep copy of the tag set.
func (t *SongTags) Clone() *SongTags {
	c := FromMap(t.fields)
	if t.cover != nil {
		c.cover = append([]byte(nil), t.cover...)
	}
	return c
}

// Merge combines two tag sets: heritable frames and the cover come from
// source when dest lacks them, every frame present in dest wins, and the
// title frames are re-canonicalized from dest. Neither input is mutated.
func Merge(source, dest *SongTags) *SongTags {
	merged := New()

	for _, id := range heritableFields {
		if source.Has(id) {
			merged.Set(id, source.Get(id))
		}
	}
	if source.HasCover() {
		merged.SetCover(append([]byte(nil), source.Cover()...))
	}

	for id, v := range dest.fields {
		merged.Set(id, v)
	}
	if dest.HasCover() {
		merged.SetCover(append([]byte(nil), dest.Cover()...))
	}

	merged.SetFullTitle(dest.FullTitle())
	return merged
}
