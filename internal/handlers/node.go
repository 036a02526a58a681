package handlers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"melostore/internal/models"
	"melostore/internal/search"
	"melostore/internal/services"
	"melostore/internal/songtitle"
)

// NodeHandler is the peer-facing API used by other nodes: document queries,
// addition-info election and duplication pushes.
type NodeHandler struct {
	provider *services.DocumentProvider
	addition *services.AdditionService
	client   *ClientHandler
}

// NewNodeHandler wires the node API. The client handler is reused for the
// shared upload preparation path.
func NewNodeHandler(provider *services.DocumentProvider, addition *services.AdditionService, client *ClientHandler) *NodeHandler {
	return &NodeHandler{provider: provider, addition: addition, client: client}
}

// Ping answers liveness checks.
func (h *NodeHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetDocuments evaluates a peer's query against this node's documents.
func (h *NodeHandler) GetDocuments(c *gin.Context) {
	var q search.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		respondError(c, models.NewDomainError(models.ErrCodeNetwork, "malformed query"))
		return
	}
	docs, err := h.provider.Documents(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, search.DocumentsResponse{Documents: docs})
}

// GetDocumentAdditionInfo reports this node's standing for a proposed
// addition.
func (h *NodeHandler) GetDocumentAdditionInfo(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
		Size  int64  `json:"size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewDomainError(models.ErrCodeWrongTitle, "\"title\" field is required"))
		return
	}
	cand, err := h.addition.AdditionInfo(c.Request.Context(), req.Title, req.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cand)
}

// AddSong stores a song pushed by a peer. Unlike the client route it never
// re-elects candidates; the file lands here.
func (h *NodeHandler) AddSong(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, models.NewDomainError(models.ErrCodeInvalidFileField, "\"file\" field is invalid"))
		return
	}
	tmp, err := os.CreateTemp("", "melostore-push-*.mp3")
	if err != nil {
		respondError(c, fmt.Errorf("failed to create temp file: %w", err))
		return
	}
	tmp.Close()
	defer os.Remove(tmp.Name())
	if err := c.SaveUploadedFile(file, tmp.Name()); err != nil {
		respondError(c, fmt.Errorf("failed to save upload: %w", err))
		return
	}

	exported := c.PostForm("exported") == "true"
	req, err := h.client.prepareUpload(c, tmp.Name(), exported, true)
	if err != nil {
		respondError(c, err)
		return
	}

	release, err := h.client.admission.Acquire(c.Request.Context(), "title:"+req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()
	releaseHash, err := h.client.admission.Acquire(c.Request.Context(), "hash:"+req.FileHash)
	if err != nil {
		respondError(c, err)
		return
	}
	defer releaseHash()

	doc, err := h.addition.StoreSong(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": doc.Title, "fileHash": doc.FileHash})
}

// RemoveSong deletes a song locally, without re-broadcasting.
func (h *NodeHandler) RemoveSong(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewDomainError(models.ErrCodeWrongTitle, "\"title\" field is required"))
		return
	}
	canonical := songtitle.Normalize(req.Title)
	if canonical == "" {
		respondError(c, models.NewDomainError(models.ErrCodeWrongTitle, "wrong song title %q", req.Title))
		return
	}
	removed, err := h.addition.RemoveSong(c.Request.Context(), canonical)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
