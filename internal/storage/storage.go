// Package storage keeps song audio blobs on disk, keyed by content hash.
package storage

import (
	"errors"
	"io"
	"time"
)

// ErrNotFound means no blob exists for the hash.
var ErrNotFound = errors.New("blob not found")

// BlobStore is hash-addressed blob storage. A blob's modification time
// doubles as its age for relevance decisions.
type BlobStore interface {
	// Has reports whether a blob exists for the hash.
	Has(hash string) bool
	// Path returns the filesystem path a blob lives at, whether or not it
	// exists yet.
	Path(hash string) string
	// Add stores the stream under the hash, replacing any previous blob.
	Add(hash string, r io.Reader) error
	// AddFile moves an existing file into the store under the hash.
	AddFile(hash, srcPath string) error
	// Remove deletes the blob. Removing a missing blob is not an error.
	Remove(hash string) error
	// ModTime returns when the blob was stored. ErrNotFound when missing.
	ModTime(hash string) (time.Time, error)
	// Touch refreshes the blob's stored-at time.
	Touch(hash string) error
	// Iterate calls fn for every stored blob until fn errors.
	Iterate(fn func(hash, path string) error) error
	// Free reports the remaining capacity in bytes.
	Free() (int64, error)
}
