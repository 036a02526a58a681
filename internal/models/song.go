package models

import "time"

// MusicDocument is the persisted record for one logical song. The title is
// the primary key; CompTitle is a derived comparison form and is rebuildable
// from Title at any time, so consumers must never treat it as identity.
// The audio blob referenced by FileHash is owned by the blob storage layer;
// a document with no resolvable blob is a dangling reference and gets swept.
type MusicDocument struct {
	Title      string    `bson:"title" json:"title"`
	CompTitle  string    `bson:"comp_title" json:"compTitle"`
	FileHash   string    `bson:"file_hash" json:"fileHash"`
	Priority   int       `bson:"priority" json:"priority"`
	AccessedAt time.Time `bson:"accessed_at" json:"accessedAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// SongInfo is the wire form of a song exchanged between nodes and returned
// to clients. Address and CompTitle are internal routing/ranking fields and
// are cleared before a response leaves the client API.
type SongInfo struct {
	Address   string            `json:"address,omitempty"`
	Title     string            `json:"title"`
	CompTitle string            `json:"compTitle,omitempty"`
	FileHash  string            `json:"fileHash,omitempty"`
	Priority  int               `json:"priority"`
	Tags      map[string]string `json:"tags"`
	AudioLink string            `json:"audioLink"`
	CoverLink string            `json:"coverLink"`
	Score     float64           `json:"score,omitempty"`
}

// Candidate is one remote node offering to store a new song. It lives only
// for the duration of a single addition request.
type Candidate struct {
	Address       string         `json:"address"`
	ExistenceInfo *MusicDocument `json:"existenceInfo,omitempty"`
	IsAvailable   bool           `json:"isAvailable"`
	Free          int64          `json:"free,omitempty"`
}

// NewMusicDocument creates a document for a song stored right now.
func NewMusicDocument(title, compTitle, fileHash string, priority int) *MusicDocument {
	now := time.Now()
	return &MusicDocument{
		Title:      title,
		CompTitle:  compTitle,
		FileHash:   fileHash,
		Priority:   priority,
		AccessedAt: now,
		UpdatedAt:  now,
	}
}
