package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"unicode/utf8"

	"melostore/internal/models"
	"melostore/internal/network"
	"melostore/internal/songtitle"
)

// Source yields this node's own documents matching a query, with tags and
// content links already attached.
type Source interface {
	Documents(ctx context.Context, q Query) ([]*models.SongInfo, error)
}

// DocumentsResponse is the body a node returns for the get-documents action.
type DocumentsResponse struct {
	Documents []*models.SongInfo `json:"documents"`
}

// Options are the tuning knobs of the pipeline.
type Options struct {
	Similarity             float64
	TitlePriority          float64
	FindingLimit           int
	FindingStringMinLength int
}

// Pipeline runs network-wide song queries: it fans a query out to every
// reachable peer, merges the responses with the local documents, deduplicates
// by content hash and ranks the survivors.
type Pipeline struct {
	local   Source
	network network.Broadcaster
	opts    Options
	logger  *slog.Logger
}

// NewPipeline creates a search pipeline over a local source and the peer
// broadcast client.
func NewPipeline(local Source, net network.Broadcaster, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{local: local, network: net, opts: opts, logger: logger}
}

// GetSongInfo looks one title up across the network by composite similarity.
func (p *Pipeline) GetSongInfo(ctx context.Context, title string) ([]*models.SongInfo, error) {
	q := Query{
		Mode:       ModeInfo,
		Title:      songtitle.Comparison(title),
		Similarity: p.opts.Similarity,
	}
	docs, err := p.collect(ctx, q)
	if err != nil {
		return nil, err
	}
	return p.rank(q, docs, 0), nil
}

// FindSongs runs a free-text search. The limit is clamped to the configured
// finding limit; zero or negative asks for the maximum.
func (p *Pipeline) FindSongs(ctx context.Context, str string, limit int) ([]*models.SongInfo, error) {
	title := songtitle.Comparison(str)
	finding := songtitle.FindingString(str)
	if utf8.RuneCountInString(finding) < p.opts.FindingStringMinLength {
		return nil, models.NewDomainError(models.ErrCodeFindingSongsStringLength,
			"you have to pass at least %d symbol(s)", p.opts.FindingStringMinLength)
	}
	if finding == "" {
		return []*models.SongInfo{}, nil
	}
	if limit <= 0 || limit > p.opts.FindingLimit {
		limit = p.opts.FindingLimit
	}
	q := Query{
		Mode:          ModeFind,
		Title:         title,
		FindingString: finding,
		Similarity:    p.opts.Similarity,
		Limit:         limit,
	}
	docs, err := p.collect(ctx, q)
	if err != nil {
		return nil, err
	}
	return p.rank(q, docs, limit), nil
}

// FindArtistSongs returns every song whose artist list contains the given
// artist string.
func (p *Pipeline) FindArtistSongs(ctx context.Context, artist string) ([]*models.SongInfo, error) {
	finding := songtitle.FindingString(artist)
	if finding == "" {
		return []*models.SongInfo{}, nil
	}
	q := Query{Mode: ModeArtist, FindingString: finding}
	docs, err := p.collect(ctx, q)
	if err != nil {
		return nil, err
	}
	return p.rank(q, docs, 0), nil
}

// collect gathers matching documents from the local source and all peers.
// Peer failures degrade the result set instead of failing the query.
func (p *Pipeline) collect(ctx context.Context, q Query) ([]*models.SongInfo, error) {
	docs, err := p.local.Documents(ctx, q)
	if err != nil {
		return nil, err
	}
	if p.network == nil {
		return docs, nil
	}
	for _, resp := range p.network.Broadcast(ctx, "get-documents", q) {
		if resp.Err != nil {
			continue
		}
		var body DocumentsResponse
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			p.logger.Warn("malformed get-documents response", "address", resp.Address, "error", err)
			continue
		}
		for _, doc := range body.Documents {
			if doc == nil || doc.Title == "" {
				continue
			}
			doc.Address = resp.Address
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// rankedDoc carries the per-request ranking fields. They never leave the
// pipeline.
type rankedDoc struct {
	doc      *models.SongInfo
	main     int
	intScore int
	random   float64
}

// rank deduplicates by content hash, elects one representative per title
// group, sorts and strips the internal routing fields.
func (p *Pipeline) rank(q Query, docs []*models.SongInfo, limit int) []*models.SongInfo {
	docs = dedupByFileHash(docs)

	ranked := make([]*rankedDoc, 0, len(docs))
	groups := make(map[string][]*rankedDoc)
	for _, doc := range docs {
		rd := &rankedDoc{doc: doc, random: rand.Float64()}
		if score := q.Score(doc); score > 0 {
			doc.Score = score
			rd.intScore = int(score * 100)
		}
		ranked = append(ranked, rd)
		groups[doc.Title] = append(groups[doc.Title], rd)
	}
	for _, group := range groups {
		group[rand.Intn(len(group))].main = 1
	}

	sortRanked(ranked)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]*models.SongInfo, 0, len(ranked))
	for _, rd := range ranked {
		rd.doc.Address = ""
		rd.doc.CompTitle = ""
		out = append(out, rd.doc)
	}
	return out
}

// dedupByFileHash collapses documents sharing one content hash to a single
// uniformly chosen member. Documents without a hash are kept as-is.
func dedupByFileHash(docs []*models.SongInfo) []*models.SongInfo {
	groups := make(map[string][]*models.SongInfo)
	order := make([]string, 0, len(docs))
	out := make([]*models.SongInfo, 0, len(docs))
	for _, doc := range docs {
		if doc.FileHash == "" {
			out = append(out, doc)
			continue
		}
		if _, ok := groups[doc.FileHash]; !ok {
			order = append(order, doc.FileHash)
		}
		groups[doc.FileHash] = append(groups[doc.FileHash], doc)
	}
	for _, hash := range order {
		group := groups[hash]
		out = append(out, group[rand.Intn(len(group))])
	}
	return out
}
