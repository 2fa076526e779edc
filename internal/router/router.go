// Package router matches free-text requests to the best agent in the
// catalog using sentence embeddings, backed by a content-addressed bundle
// cache so an unchanged catalog never embeds twice.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/agentrelay/relay/internal/bundle"
	"github.com/agentrelay/relay/internal/cache"
	"github.com/agentrelay/relay/internal/canonical"
	"github.com/agentrelay/relay/internal/catalog"
	"github.com/agentrelay/relay/internal/embeddings"
	"github.com/agentrelay/relay/internal/vectorindex"
)

// ChunkingID names the text-extraction scheme baked into SearchText. It is
// part of the cache key, so bump it whenever the search-text format changes.
const ChunkingID = "agents:v1"

// minRankK is the smallest internal ranking depth; even when the caller only
// surfaces the top agent, the decision carries at least this many matches
// for diagnostics.
const minRankK = 5

type state int32

const (
	stateUninitialized state = iota
	stateInitializing
	stateReady
	stateFailed
)

// Options configures a Router.
type Options struct {
	// TopK is the number of ranked matches in each decision. Values below 5
	// are raised to 5.
	TopK int

	// RefreshCache skips the cache read on initialize, forcing a re-embed.
	// The freshly computed bundle is still stored.
	RefreshCache bool

	Logger *slog.Logger
}

// Router routes queries to agents. Construct with New, call Initialize once
// (concurrent calls coalesce), then Route freely from any goroutine.
type Router struct {
	source catalog.Source
	engine *embeddings.Engine
	cache  *cache.Client
	opts   Options
	log    *slog.Logger

	initGroup singleflight.Group

	mu    sync.Mutex // guards st transitions
	st    state
	index atomic.Pointer[vectorindex.Index]
	info  atomic.Pointer[Info]
}

// Match is one ranked similarity result.
type Match = vectorindex.Match

// Decision is the outcome of routing one query.
type Decision struct {
	AgentName   string  `json:"agent_name"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"` // in [0,1]
	Ranked      []Match `json:"ranked_matches"`
}

// Info describes the last successful initialize.
type Info struct {
	BuildID     string
	Fingerprint string
	ModelID     string
	AgentCount  int
	CacheHit    bool
}

// New returns an uninitialized Router over the given collaborators.
func New(source catalog.Source, engine *embeddings.Engine, cacheClient *cache.Client, opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		source: source,
		engine: engine,
		cache:  cacheClient,
		opts:   opts,
		log:    logger,
	}
}

// Initialize loads the catalog, resolves the embedding bundle (cache or
// fresh), and atomically installs a new vector index. Concurrent calls
// coalesce onto one in-flight attempt. A failed attempt is retriable.
func (r *Router) Initialize(ctx context.Context) error {
	_, err, _ := r.initGroup.Do("initialize", func() (any, error) {
		return nil, r.initialize(ctx)
	})
	return err
}

func (r *Router) initialize(ctx context.Context) error {
	r.setState(stateInitializing)

	cat, err := r.source.Load(ctx)
	if err != nil {
		r.setState(stateFailed)
		return &CatalogLoadError{Err: err}
	}

	canonicalJSON, err := canonical.Canonicalize(cat.Document)
	if err != nil {
		r.setState(stateFailed)
		return &CatalogLoadError{Err: err}
	}
	fingerprint := canonical.Fingerprint([]byte(canonicalJSON))
	buildID := canonical.BuildID(r.engine.ModelID(), ChunkingID, fingerprint)

	entries, cacheHit := r.entriesFromCache(ctx, cat, buildID)
	if !cacheHit {
		entries, err = r.embedCatalog(ctx, cat, buildID, fingerprint)
		if err != nil {
			r.setState(stateFailed)
			return err
		}
	}

	idx, err := vectorindex.Build(entries, r.engine.Dims())
	if err != nil {
		r.setState(stateFailed)
		return fmt.Errorf("cannot build vector index: %w", err)
	}

	r.index.Store(idx)
	r.info.Store(&Info{
		BuildID:     buildID,
		Fingerprint: fingerprint,
		ModelID:     r.engine.ModelID(),
		AgentCount:  idx.Len(),
		CacheHit:    cacheHit,
	})
	r.setState(stateReady)
	r.log.Info("router ready", "build_id", buildID, "agents", idx.Len(), "cache_hit", cacheHit)
	return nil
}

// entriesFromCache tries to satisfy initialize from the bundle cache. Any
// fault (missing bundle, failed validation, a bundle inconsistent with the
// loaded catalog) is a miss; cache faults never propagate past here.
func (r *Router) entriesFromCache(ctx context.Context, cat *catalog.Catalog, buildID string) ([]vectorindex.Entry, bool) {
	if r.opts.RefreshCache {
		return nil, false
	}

	b, err := r.cache.Get(ctx, buildID)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			r.log.Warn("cache read failed, recomputing", "build_id", buildID, "error", err)
		}
		return nil, false
	}

	if len(b.Chunks) != len(cat.Agents) {
		r.log.Warn("cached bundle chunk count does not match catalog, recomputing",
			"build_id", buildID, "chunks", len(b.Chunks), "agents", len(cat.Agents))
		return nil, false
	}

	byName := make(map[string]catalog.AgentDescriptor, len(cat.Agents))
	for _, a := range cat.Agents {
		byName[a.Name] = a
	}

	entries := make([]vectorindex.Entry, 0, len(b.Chunks))
	for i := range b.Chunks {
		a, ok := byName[b.Chunks[i].AgentName]
		if !ok {
			r.log.Warn("cached bundle names an unknown agent, recomputing",
				"build_id", buildID, "agent", b.Chunks[i].AgentName)
			return nil, false
		}
		vec, err := b.ChunkVector(i)
		if err != nil {
			r.log.Warn("cached bundle vector unreadable, recomputing", "build_id", buildID, "error", err)
			return nil, false
		}
		entries = append(entries, vectorindex.Entry{Agent: a, Vector: vec})
	}
	return entries, true
}

// embedCatalog embeds every agent in catalog order, assembles a bundle, and
// stores it best-effort.
func (r *Router) embedCatalog(ctx context.Context, cat *catalog.Catalog, buildID, fingerprint string) ([]vectorindex.Entry, error) {
	entries := make([]vectorindex.Entry, 0, len(cat.Agents))
	chunks := make([]bundle.Chunk, 0, len(cat.Agents))

	for i, a := range cat.Agents {
		text := a.SearchText()
		vec, err := r.engine.EmbedDocument(ctx, text)
		if err != nil {
			return nil, &EmbeddingError{Text: text, Err: err}
		}
		entries = append(entries, vectorindex.Entry{Agent: a, Vector: vec})
		chunks = append(chunks, bundle.Chunk{
			Index:      i,
			AgentName:  a.Name,
			SourceText: text,
			Vector:     bundle.EncodeVector(vec),
		})
	}

	if len(chunks) > 0 {
		b := &bundle.Bundle{
			BuildID:         buildID,
			ModelID:         r.engine.ModelID(),
			Dims:            r.engine.Dims(),
			Dtype:           bundle.DtypeFloat32,
			ChunkingID:      ChunkingID,
			FileFingerprint: fingerprint,
			Chunks:          chunks,
		}
		if err := r.cache.Put(ctx, buildID, b); err != nil {
			// Best effort: the in-memory index is still good for this session.
			r.log.Warn("cache write failed", "build_id", buildID, "error", err)
		}
	}
	return entries, nil
}

// Route embeds the query and returns the best-matching agent with a ranked
// match list. Valid only once the router is ready; a failing call leaves the
// ready state and the index untouched.
func (r *Router) Route(ctx context.Context, query string) (*Decision, error) {
	if r.getState() != stateReady {
		return nil, ErrNotReady
	}
	idx := r.index.Load()
	if idx == nil || idx.Len() == 0 {
		return nil, ErrEmptyIndex
	}

	qv, err := r.engine.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Text: query, Err: err}
	}

	k := r.opts.TopK
	if k < minRankK {
		k = minRankK
	}
	ranked, err := idx.TopK(qv, k)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, ErrEmptyIndex
	}

	best := ranked[0]
	agent, ok := idx.Agent(best.AgentName)
	if !ok {
		return nil, fmt.Errorf("ranked agent %q missing from index", best.AgentName)
	}

	return &Decision{
		AgentName:   best.AgentName,
		Description: agent.Description,
		Confidence:  confidence(best.Score),
		Ranked:      ranked,
	}, nil
}

// Info returns details of the last successful initialize, or nil before one.
func (r *Router) Info() *Info {
	return r.info.Load()
}

// Ready reports whether Route may be called.
func (r *Router) Ready() bool {
	return r.getState() == stateReady
}

func (r *Router) setState(s state) {
	r.mu.Lock()
	r.st = s
	r.mu.Unlock()
}

func (r *Router) getState() state {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st
}

// confidence maps a cosine score from [-1,1] into [0,1]. Fixed and
// monotonic, so relative ordering of decisions is preserved.
func confidence(score float64) float64 {
	c := (score + 1) / 2
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
