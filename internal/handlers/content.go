package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"melostore/internal/repositories"
	"melostore/internal/songtitle"
	"melostore/internal/storage"
	"melostore/internal/tags"
)

// ContentHandler serves the stored audio and cover bytes the links built by
// this node point at. The f query parameter pins the content hash a cached
// link was built for; a mismatch means the link is stale.
type ContentHandler struct {
	repo       repositories.MusicRepository
	store      storage.BlobStore
	similarity float64
}

// NewContentHandler creates the content routes.
func NewContentHandler(repo repositories.MusicRepository, store storage.BlobStore, similarity float64) *ContentHandler {
	return &ContentHandler{repo: repo, store: store, similarity: similarity}
}

// resolve decodes the title segment of a content path and finds the live
// document behind it.
func (h *ContentHandler) resolve(c *gin.Context) (hash string, ok bool) {
	code := c.Param("code")
	if i := strings.LastIndexByte(code, '.'); i >= 0 {
		code = code[:i]
	}
	title, err := songtitle.Decode(code)
	if err != nil {
		c.Status(http.StatusNotFound)
		return "", false
	}
	doc, err := h.repo.FindByTitle(c.Request.Context(), title, h.similarity)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return "", false
	}
	if doc == nil || doc.FileHash == "" || !h.store.Has(doc.FileHash) {
		c.Status(http.StatusNotFound)
		return "", false
	}
	if f := c.Query("f"); f != "" && f != doc.FileHash {
		c.Status(http.StatusNotFound)
		return "", false
	}
	_ = h.repo.Touch(c.Request.Context(), doc.Title, time.Now())
	return doc.FileHash, true
}

// Audio streams the song file with byte-range support.
func (h *ContentHandler) Audio(c *gin.Context) {
	hash, ok := h.resolve(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "audio/mpeg")
	http.ServeFile(c.Writer, c.Request, h.store.Path(hash))
}

// Cover serves the embedded front-cover image of the song file.
func (h *ContentHandler) Cover(c *gin.Context) {
	hash, ok := h.resolve(c)
	if !ok {
		return
	}
	st, err := tags.ReadFile(h.store.Path(hash))
	if err != nil || !st.HasCover() {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, tags.CoverMime(st.Cover()), st.Cover())
}
