package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"melostore/internal/models"
	"melostore/internal/network"
	"melostore/internal/repositories"
	"melostore/internal/songtitle"
	"melostore/internal/storage"
	"melostore/internal/tags"
)

// SuspicionTracker reports and ranks how much a peer has misbehaved.
// Candidates with lower levels win placement ties.
type SuspicionTracker interface {
	Report(address, behavior string)
	Level(address string) float64
}

// AdditionService owns the write path: storing a song locally and placing a
// new song on the best storage candidates across the network.
type AdditionService struct {
	repo      repositories.MusicRepository
	store     storage.BlobStore
	guard     *storage.AddGuard
	resolver  *Resolver
	network   network.Broadcaster
	suspicion SuspicionTracker
	self      string
	logger    *slog.Logger

	requestTimeout     time.Duration
	peerRequestTimeout time.Duration
}

// NewAdditionService wires the addition pipeline.
func NewAdditionService(
	repo repositories.MusicRepository,
	store storage.BlobStore,
	guard *storage.AddGuard,
	resolver *Resolver,
	net network.Broadcaster,
	suspicion SuspicionTracker,
	self string,
	requestTimeout, peerRequestTimeout time.Duration,
	logger *slog.Logger,
) *AdditionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdditionService{
		repo:               repo,
		store:              store,
		guard:              guard,
		resolver:           resolver,
		network:            net,
		suspicion:          suspicion,
		self:               self,
		logger:             logger,
		requestTimeout:     requestTimeout,
		peerRequestTimeout: peerRequestTimeout,
	}
}

// FileHash computes the content hash of a file.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// StoreSong applies a resolved addition to local storage. The winning file
// is rewritten with the merged tags, which changes its content hash, so the
// document's hash swaps and the superseded blob is released once no other
// document references it.
func (s *AdditionService) StoreSong(ctx context.Context, req *AdditionRequest) (*models.MusicDocument, error) {
	res, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	// The file that will carry the merged tags: the incoming upload unless
	// the stored blob stays canonical.
	sourcePath := req.FilePath
	oldHash := ""
	priority := req.Priority
	var doc *models.MusicDocument

	switch res.State {
	case StateNoExistingDocument:
		// nothing to inherit

	case StateReplace:
		oldHash = res.Existing.FileHash
		doc = res.Existing

	case StateMergeOnly:
		tmp, err := copyToTemp(s.store.Path(res.Existing.FileHash))
		if err != nil {
			return nil, fmt.Errorf("failed to stage stored blob for merge: %w", err)
		}
		defer os.Remove(tmp)
		sourcePath = tmp
		oldHash = res.Existing.FileHash
		doc = res.Existing
	}

	if err := tags.WriteFile(sourcePath, res.Tags); err != nil {
		return nil, fmt.Errorf("failed to write merged tags: %w", err)
	}
	hash, err := FileHash(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash prepared file: %w", err)
	}

	release, err := s.guard.Acquire(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.store.AddFile(hash, sourcePath); err != nil {
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}

	title := res.Tags.FullTitle()
	if title == "" {
		title = req.Title
	}
	if doc == nil {
		doc = models.NewMusicDocument(title, songtitle.Comparison(title), hash, priority)
	} else {
		doc.Title = title
		doc.CompTitle = songtitle.Comparison(title)
		doc.FileHash = hash
		doc.Priority = priority
		doc.UpdatedAt = time.Now()
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	if oldHash != "" && oldHash != hash {
		s.releaseBlob(ctx, oldHash)
	}
	s.logger.Info("song stored", "title", doc.Title, "hash", hash, "state", res.State.String())
	return doc, nil
}

// releaseBlob removes a superseded blob once no surviving document points at
// it. Failures only log: the cleanup sweep will catch strays.
func (s *AdditionService) releaseBlob(ctx context.Context, hash string) {
	owner, err := s.repo.FindByFileHash(ctx, hash)
	if err != nil {
		s.logger.Warn("failed to check blob ownership", "hash", hash, "error", err)
		return
	}
	if owner != nil {
		return
	}
	if err := s.store.Remove(hash); err != nil {
		s.logger.Warn("failed to remove superseded blob", "hash", hash, "error", err)
	}
}

// RemoveSong deletes a song's document and releases its blob. Reports
// whether a document existed.
func (s *AdditionService) RemoveSong(ctx context.Context, title string) (bool, error) {
	doc, err := s.repo.FindByTitle(ctx, title, s.resolver.similarity)
	if err != nil {
		return false, fmt.Errorf("failed to look up document: %w", err)
	}
	if doc == nil {
		return false, nil
	}
	if err := s.repo.DeleteByTitle(ctx, doc.Title); err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	if doc.FileHash != "" {
		s.releaseBlob(ctx, doc.FileHash)
	}
	s.logger.Info("song removed", "title", doc.Title)
	return true, nil
}

// AdditionInfo describes this node's standing for a proposed addition, used
// to elect storage candidates for a new song.
func (s *AdditionService) AdditionInfo(ctx context.Context, title string, size int64) (*models.Candidate, error) {
	free, err := s.store.Free()
	if err != nil {
		return nil, fmt.Errorf("failed to check free space: %w", err)
	}
	cand := &models.Candidate{IsAvailable: free >= size, Free: free}
	doc, err := s.repo.FindByTitle(ctx, title, s.resolver.similarity)
	if err != nil {
		return nil, fmt.Errorf("failed to check document existence: %w", err)
	}
	if doc != nil && s.store.Has(doc.FileHash) {
		cand.ExistenceInfo = doc
	}
	return cand, nil
}

// additionInfoRequest is the wire body of the get-document-addition-info
// action.
type additionInfoRequest struct {
	Title string `json:"title"`
	Size  int64  `json:"size"`
}

// AddSong elects the best storage node for a prepared upload, this node
// included, and either stores it here or pushes it there. The shared
// deadline budget is split between the candidate-gathering round and the
// duplication round; the gathering round may grab any slack the caller's
// budget leaves.
func (s *AdditionService) AddSong(ctx context.Context, req *AdditionRequest) (*models.MusicDocument, error) {
	timer := network.NewRequestTimer(s.requestTimeout)

	info, err := os.Stat(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat prepared file: %w", err)
	}

	gatherTimeout := timer.Take(
		[]time.Duration{s.peerRequestTimeout, s.requestTimeout},
		network.TakeOptions{Min: s.peerRequestTimeout, GrabFree: true},
	)
	gatherCtx, cancel := context.WithTimeout(ctx, gatherTimeout)
	defer cancel()

	body := additionInfoRequest{Title: req.Title, Size: info.Size()}
	candidates := s.gatherCandidates(gatherCtx, body)
	if len(candidates) == 0 {
		return nil, models.NewDomainError(models.ErrCodeNotFoundStorage, "not found any available storage")
	}
	SortCandidates(candidates, s.suspicion)

	// The best-ranked candidate claiming no existing document is the one
	// whose answer we cannot corroborate.
	for _, cand := range candidates {
		if cand.ExistenceInfo == nil && cand.Address != s.self {
			s.suspicion.Report(cand.Address, "addition-info-unconfirmed")
			break
		}
	}

	pushCtx, cancelPush := context.WithTimeout(ctx, timer.Take(nil, network.TakeOptions{Min: s.peerRequestTimeout}))
	defer cancelPush()

	// Walk the ranked list until one candidate accepts the song.
	winner := -1
	var doc *models.MusicDocument
	for i, cand := range candidates {
		if cand.Address == s.self {
			d, err := s.StoreSong(ctx, req)
			if err != nil {
				var de *models.DomainError
				if errors.As(err, &de) {
					return nil, err
				}
				s.logger.Warn("local store failed", "title", req.Title, "error", err)
				continue
			}
			doc = d
		} else if err := s.duplicate(pushCtx, cand.Address, req); err != nil {
			s.logger.Warn("candidate rejected the song", "address", cand.Address, "title", req.Title, "error", err)
			continue
		}
		winner = i
		break
	}
	if winner < 0 {
		return nil, models.NewDomainError(models.ErrCodeNotFoundStorage, "failed to store the song on any candidate")
	}

	// Replicate to the leftover candidates; failures only log, the song is
	// already safe on the winner.
	for _, cand := range candidates[winner+1:] {
		if cand.Address == s.self {
			continue
		}
		if err := s.duplicate(pushCtx, cand.Address, req); err != nil {
			s.logger.Warn("song duplication failed", "address", cand.Address, "title", req.Title, "error", err)
		}
	}
	return doc, nil
}

func (s *AdditionService) gatherCandidates(ctx context.Context, body additionInfoRequest) []*models.Candidate {
	var candidates []*models.Candidate
	if self, err := s.AdditionInfo(ctx, body.Title, body.Size); err != nil {
		s.logger.Warn("failed to compute own addition info", "error", err)
	} else if self.IsAvailable {
		self.Address = s.self
		candidates = append(candidates, self)
	}
	for _, resp := range s.network.Broadcast(ctx, "get-document-addition-info", body) {
		if resp.Err != nil {
			continue
		}
		var cand models.Candidate
		if err := json.Unmarshal(resp.Body, &cand); err != nil {
			s.logger.Warn("malformed addition info", "address", resp.Address, "error", err)
			continue
		}
		if !cand.IsAvailable {
			continue
		}
		cand.Address = resp.Address
		candidates = append(candidates, &cand)
	}
	return candidates
}

// duplicate streams the prepared file to one candidate's add-song action.
func (s *AdditionService) duplicate(ctx context.Context, address string, req *AdditionRequest) error {
	f, err := os.Open(req.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	fields := map[string]string{
		"title":    req.Title,
		"priority": fmt.Sprintf("%d", req.Priority),
	}
	if req.Controlled {
		fields["controlled"] = "true"
	}
	if req.Exported {
		fields["exported"] = "true"
	}
	resp := s.network.SendFile(ctx, address, "add-song", f, req.Title+".mp3", fields)
	return resp.Err
}

// SortCandidates ranks storage candidates: nodes that already hold a match
// first, then ascending suspicion, then address for stability.
func SortCandidates(candidates []*models.Candidate, suspicion SuspicionTracker) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		ae, be := a.ExistenceInfo != nil, b.ExistenceInfo != nil
		if ae != be {
			return ae
		}
		al, bl := suspicion.Level(a.Address), suspicion.Level(b.Address)
		if al != bl {
			return al < bl
		}
		return a.Address < b.Address
	})
}

func copyToTemp(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()
	dst, err := os.CreateTemp("", "melostore-merge-*.mp3")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}
