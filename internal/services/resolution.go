package services

import (
	"context"
	"fmt"

	"melostore/internal/models"
	"melostore/internal/repositories"
	"melostore/internal/storage"
	"melostore/internal/tags"
)

// State is the outcome of resolving an incoming song against what the node
// already stores for the same logical title.
type State int

const (
	// StateNoExistingDocument means nothing usable is stored yet; the
	// incoming file becomes the first blob for the title.
	StateNoExistingDocument State = iota
	// StateReplace means the incoming file supersedes the stored blob.
	StateReplace
	// StateMergeOnly means the stored blob stays canonical and only gains
	// metadata the incoming file carries.
	StateMergeOnly
)

func (s State) String() string {
	switch s {
	case StateNoExistingDocument:
		return "no-existing-document"
	case StateReplace:
		return "replace"
	case StateMergeOnly:
		return "merge-only"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// AdditionRequest is one incoming song, already validated and normalized,
// sitting in a temp file waiting for a placement decision.
type AdditionRequest struct {
	Title      string
	Tags       *tags.SongTags
	FilePath   string
	FileHash   string
	Priority   int
	Controlled bool
	Exported   bool
}

// Resolution is the decision plus the tag set the winning file must carry.
type Resolution struct {
	State    State
	Tags     *tags.SongTags
	Existing *models.MusicDocument
}

// PriorityTest validates an addition's priority. Priority one is reserved
// for controlled nodes and inter-node exports.
func PriorityTest(priority int, controlled, exported bool) error {
	if priority < -1 || priority > 1 {
		return models.NewDomainError(models.ErrCodeWrongPriority, "wrong song priority %d", priority)
	}
	if priority == 1 && !controlled && !exported {
		return models.NewDomainError(models.ErrCodeWrongPriorityControlled,
			"priority 1 requires a controlled addition or an export")
	}
	return nil
}

// Resolver runs the addition decision against the stored collection.
type Resolver struct {
	repo       repositories.MusicRepository
	store      storage.BlobStore
	relevance  *RelevanceChecker
	similarity float64
}

// NewResolver creates a resolver.
func NewResolver(repo repositories.MusicRepository, store storage.BlobStore, relevance *RelevanceChecker, similarity float64) *Resolver {
	return &Resolver{
		repo:       repo,
		store:      store,
		relevance:  relevance,
		similarity: similarity,
	}
}

// Resolve decides what happens to an incoming song. A stored document whose
// blob is gone or unreadable counts as absent and is discarded on the spot.
func (r *Resolver) Resolve(ctx context.Context, req *AdditionRequest) (*Resolution, error) {
	if err := PriorityTest(req.Priority, req.Controlled, req.Exported); err != nil {
		return nil, err
	}

	existing, err := r.repo.FindByTitle(ctx, req.Title, r.similarity)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing document: %w", err)
	}
	if existing == nil {
		return &Resolution{State: StateNoExistingDocument, Tags: req.Tags.Clone()}, nil
	}

	if existing.FileHash == "" || !r.store.Has(existing.FileHash) {
		if err := r.repo.DeleteByTitle(ctx, existing.Title); err != nil {
			return nil, fmt.Errorf("failed to discard stale document: %w", err)
		}
		return &Resolution{State: StateNoExistingDocument, Tags: req.Tags.Clone()}, nil
	}
	existingTags, err := tags.ReadFile(r.store.Path(existing.FileHash))
	if err != nil {
		if err := r.repo.DeleteByTitle(ctx, existing.Title); err != nil {
			return nil, fmt.Errorf("failed to discard stale document: %w", err)
		}
		return &Resolution{State: StateNoExistingDocument, Tags: req.Tags.Clone()}, nil
	}

	replace := (req.Controlled && !req.Exported) ||
		req.Priority > existing.Priority ||
		(req.Priority == existing.Priority &&
			!r.relevance.StillRelevant(existing.FileHash, req.FileHash, req.FilePath))

	if replace {
		return &Resolution{
			State:    StateReplace,
			Tags:     tags.Merge(existingTags, req.Tags),
			Existing: existing,
		}, nil
	}
	return &Resolution{
		State:    StateMergeOnly,
		Tags:     tags.Merge(req.Tags, existingTags),
		Existing: existing,
	}, nil
}
