package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"melostore/internal/models"
	"melostore/internal/network"
	"melostore/internal/search"
	"melostore/internal/services"
	"melostore/internal/songtitle"
	"melostore/internal/storage"
	"melostore/internal/tags"
)

// ClientOptions carries the per-node settings the client API needs.
type ClientOptions struct {
	Controlled   bool
	PrepareTitle bool
	PrepareCover bool
	Cover        tags.CoverOptions
}

// ClientHandler is the public song API: uploads, queries and link
// resolution.
type ClientHandler struct {
	addition  *services.AdditionService
	pipeline  *search.Pipeline
	links     *services.LinkResolver
	gate      *services.ApprovalGate
	network   network.Broadcaster
	admission *storage.AddGuard
	opts      ClientOptions
}

// NewClientHandler wires the client API.
func NewClientHandler(
	addition *services.AdditionService,
	pipeline *search.Pipeline,
	links *services.LinkResolver,
	gate *services.ApprovalGate,
	net network.Broadcaster,
	opts ClientOptions,
) *ClientHandler {
	return &ClientHandler{
		addition:  addition,
		pipeline:  pipeline,
		links:     links,
		gate:      gate,
		network:   net,
		admission: storage.NewAddGuard(),
		opts:      opts,
	}
}

// AddSong accepts a multipart upload and runs the full addition pipeline.
func (h *ClientHandler) AddSong(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, models.NewDomainError(models.ErrCodeInvalidFileField, "\"file\" field is invalid"))
		return
	}

	tmp, err := os.CreateTemp("", "melostore-upload-*.mp3")
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

	req, err := h.prepareUpload(c, tmp.Name(), false, false)
	if err != nil {
		respondError(c, err)
		return
	}

	release, err := h.admission.Acquire(c.Request.Context(), "title:"+req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()
	releaseHash, err := h.admission.Acquire(c.Request.Context(), "hash:"+req.FileHash)
	if err != nil {
		respondError(c, err)
		return
	}
	defer releaseHash()

	doc, err := h.addition.AddSong(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"title": req.Title}
	if doc != nil {
		resp["title"] = doc.Title
		resp["fileHash"] = doc.FileHash
	}
	c.JSON(http.StatusOK, resp)
}

// prepareUpload validates the form fields and rewrites the temp file with
// its canonical tags. Validation happens before any storage mutation.
// Uploads from peers carry the controlled flag as-is and skip the approval
// gate, which guards the client API only.
func (h *ClientHandler) prepareUpload(c *gin.Context, path string, exported, fromPeer bool) (*services.AdditionRequest, error) {
	priority := 0
	if v := c.PostForm("priority"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, models.NewDomainError(models.ErrCodeWrongPriority, "wrong song priority %q", v)
		}
		priority = p
	}
	controlled := c.PostForm("controlled") == "true"
	if !fromPeer {
		controlled = controlled && h.opts.Controlled
	}
	if err := services.PriorityTest(priority, controlled, exported); err != nil {
		return nil, err
	}

	st, err := tags.ReadFile(path)
	if err != nil {
		return nil, models.NewDomainError(models.ErrCodeInvalidFileField, "audio file is not readable")
	}

	title := c.PostForm("title")
	if title == "" {
		title = st.FullTitle()
	}
	canonical := title
	if h.opts.PrepareTitle {
		canonical = songtitle.Normalize(title)
	}
	if !songtitle.IsValid(canonical, true) {
		return nil, models.NewDomainError(models.ErrCodeWrongTitle, "wrong song title %q", title)
	}

	if controlled && !exported && !fromPeer {
		if err := h.gate.Verify(c.PostForm("approval"), canonical); err != nil {
			return nil, err
		}
	}

	if h.opts.PrepareCover && st.HasCover() {
		cover, err := tags.PrepareCover(st.Cover(), h.opts.Cover)
		if err != nil {
			return nil, err
		}
		st.SetCover(cover)
	}
	st.SetFullTitle(canonical)
	if err := tags.WriteFile(path, st); err != nil {
		return nil, fmt.Errorf("failed to write prepared tags: %w", err)
	}
	hash, err := services.FileHash(path)
	if err != nil {
		return nil, fmt.Errorf("failed to hash prepared file: %w", err)
	}

	return &services.AdditionRequest{
		Title:      canonical,
		Tags:       st,
		FilePath:   path,
		FileHash:   hash,
		Priority:   priority,
		Controlled: controlled,
		Exported:   exported,
	}, nil
}

type titleRequest struct {
	Title string `json:"title" binding:"required"`
}

// GetSongInfo returns the ranked network matches for one title.
func (h *ClientHandler) GetSongInfo(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewDomainError(models.ErrCodeWrongTitle, "\"title\" field is required"))
		return
	}
	docs, err := h.pipeline.GetSongInfo(c.Request.Context(), req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"info": docs})
}

// FindSongs runs a free-text search.
func (h *ClientHandler) FindSongs(c *gin.Context) {
	var req struct {
		Str   string `json:"str" binding:"required"`
		Limit int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewDomainError(models.ErrCodeFindingSongsStringLength, "\"str\" field is required"))
		return
	}
	docs, err := h.pipeline.FindSongs(c.Request.Context(), req.Str, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"songs": docs})
}

// FindArtistSongs lists every song credited to an artist.
func (h *ClientHandler) FindArtistSongs(c *gin.Context) {
	var req struct {
		Artist string `json:"artist" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewDomainError(models.ErrCodeWrongTitle, "\"artist\" field is required"))
		return
	}
	docs, err := h.pipeline.FindArtistSongs(c.Request.Context(), req.Artist)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"songs": docs})
}

// GetSongLink resolves one content link.
func (h *ClientHandler) GetSongLink(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
		Type  string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewDomainError(models.ErrCodeSongLinkType, "\"title\" and \"type\" fields are required"))
		return
	}
	link, err := h.links.GetSongLink(c.Request.Context(), req.Title, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

// RequestSong redirects the browser straight to the resolved content link.
func (h *ClientHandler) RequestSong(c *gin.Context) {
	title := c.Query("title")
	linkType := c.DefaultQuery("type", services.LinkTypeAudio)

	link, err := h.links.GetSongLink(c.Request.Context(), title, linkType)
	if err != nil {
		respondError(c, err)
		return
	}
	if link == "" {
		respondError(c, models.NewDomainError(models.ErrCodeNotFoundLink, "not found any song link"))
		return
	}
	c.Redirect(http.StatusFound, link)
}

// RemoveSong deletes a song here and on every peer.
func (h *ClientHandler) RemoveSong(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewDomainError(models.ErrCodeWrongTitle, "\"title\" field is required"))
		return
	}
	canonical := songtitle.Normalize(req.Title)
	if canonical == "" {
		respondError(c, models.NewDomainError(models.ErrCodeWrongTitle, "wrong song title %q", req.Title))
		return
	}

	release, err := h.admission.Acquire(c.Request.Context(), "title:"+canonical)
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()

	ok, err := h.addition.RemoveSong(c.Request.Context(), canonical)
	if err != nil {
		respondError(c, err)
		return
	}
	removed := 0
	if ok {
		removed++
	}
	// Every peer reports its own removal; the response is the network-wide
	// count.
	for _, resp := range h.network.Broadcast(c.Request.Context(), "remove-song", gin.H{"title": canonical}) {
		if resp.Err != nil {
			slog.Warn("peer song removal failed", "address", resp.Address, "title", canonical, "error", resp.Err)
			continue
		}
		var body struct {
			Removed bool `json:"removed"`
		}
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			slog.Warn("malformed peer removal response", "address", resp.Address, "error", err)
			continue
		}
		if body.Removed {
			removed++
		}
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
