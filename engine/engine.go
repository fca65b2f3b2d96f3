// Package engine implements the client-side query engine (C3-C7): lazy
// artifact loading over a content-addressed cache, query planning,
// n-gram posting evaluation with fuzzy coverage matching, relevance
// ranking, and a small result cache — the runtime half of the catalog
// search engine, paired with the offline builder in package build.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jpl-au/zmh/internal/metrics"
)

// Engine is the public runtime entry point. One Engine serves an entire
// process's worth of searches against a single index.
//
// Searches run cooperatively: Search may block on a shard load, and a
// newer call to Search while an older one is still in flight should win.
// Rather than a literal single-goroutine command loop, Engine tracks a
// generation counter bumped on every call; a search whose generation has
// been superseded by the time its shard loads complete abandons its work
// instead of returning a stale result (spec.md §5's "latest search wins"
// cancellation rule).
type Engine struct {
	loader  *Loader
	logger  *slog.Logger
	metrics *metrics.Engine

	generation atomic.Int64

	resultMu    sync.Mutex
	resultCache map[string]SearchResult
}

// New constructs an Engine. Call Init before the first Search.
func New(fetcher Fetcher, cache *Cache, m *metrics.Engine, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default().With("component", "engine")
	}
	return &Engine{
		loader:      NewLoader(fetcher, cache, m, logger),
		logger:      logger,
		metrics:     m,
		resultCache: make(map[string]SearchResult),
	}
}

// Init loads the manifest, tags, dict, and meta shards, then prunes the
// cache of any artifact the current manifest no longer references.
func (e *Engine) Init(ctx context.Context) error {
	if err := e.loader.Init(ctx); err != nil {
		return err
	}
	e.loader.PruneCache()
	return nil
}

// Tags returns the corpus's tag list, for building a filter UI.
func (e *Engine) Tags() []TagInfo { return e.loader.Tags() }

// Search plans, evaluates, and ranks req, consulting the result cache
// first. If a newer Search call starts before this one finishes loading
// the shards it needs, this call returns context.Canceled rather than a
// result computed against data a fresher request has already moved past.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	gen := e.generation.Add(1)

	plan := BuildPlan(req)
	key := plan.CacheKey()

	e.resultMu.Lock()
	if cached, ok := e.resultCache[key]; ok {
		e.resultMu.Unlock()
		if e.metrics != nil {
			e.metrics.ResultCacheHits.Inc()
		}
		return cached, nil
	}
	e.resultMu.Unlock()

	dict := e.loader.Dict()
	meta := e.loader.Meta()
	if dict == nil || meta == nil {
		return SearchResult{}, fmt.Errorf("engine: Search called before Init completed")
	}

	loadShard := func(shardID uint8) ([]byte, error) {
		data, err := e.loader.EnsureShard(ctx, shardID)
		if err != nil {
			return nil, err
		}
		if e.generation.Load() != gen {
			if e.metrics != nil {
				e.metrics.SearchesAborted.Inc()
			}
			return nil, context.Canceled
		}
		return data, nil
	}

	candidates, err := Evaluate(plan, dict, loadShard, meta)
	if err != nil {
		return SearchResult{}, err
	}
	if e.generation.Load() != gen {
		if e.metrics != nil {
			e.metrics.SearchesAborted.Inc()
		}
		return SearchResult{}, context.Canceled
	}

	result := Rank(candidates, meta, plan)

	e.resultMu.Lock()
	e.resultCache[key] = result
	e.resultMu.Unlock()

	return result, nil
}

// Close releases the engine's cache handle.
func (e *Engine) Close() error {
	if e.loader.cache == nil {
		return nil
	}
	return e.loader.cache.Close()
}
