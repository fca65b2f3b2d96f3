package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jpl-au/zmh/build"
	"github.com/jpl-au/zmh/internal/metrics"
)

// gzipMagic is the two leading bytes of a gzip stream (RFC 1952 §2.3.1).
var gzipMagic = []byte{0x1f, 0x8b}

// Loader owns manifest retrieval, the cache, and the lazily-loaded index
// shards — C3 of spec.md §4.3. Index shards are fetched on first use
// rather than at Init; tags, dict, and every meta shard load eagerly in
// parallel, since a search always needs them.
type Loader struct {
	fetcher  Fetcher
	cache    *Cache
	logger   *slog.Logger
	metrics  *metrics.Engine
	manifest build.Manifest

	dict *Dict
	meta *MetaIndex
	tags []TagInfo

	mu         sync.Mutex
	shardGroup singleflight.Group
	shards     map[uint8][]byte
}

// NewLoader constructs a Loader. cache may be nil, in which case every
// fetch bypasses the local store.
func NewLoader(fetcher Fetcher, cache *Cache, m *metrics.Engine, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default().With("component", "loader")
	}
	return &Loader{
		fetcher: fetcher,
		cache:   cache,
		metrics: m,
		logger:  logger,
		shards:  make(map[uint8][]byte),
	}
}

// fetch retrieves path, preferring the cache keyed by the manifest's
// recorded SHA-256, falling back to Fetcher on a miss, auto-detecting a
// gzip-compressed transport response by its magic bytes, and firing off a
// best-effort cache write on every miss (spec.md §4.7).
func (l *Loader) fetch(ctx context.Context, path, hash string) ([]byte, error) {
	if l.cache != nil && hash != "" {
		if data, ok := l.cache.Get(hash); ok {
			if l.metrics != nil {
				l.metrics.CacheHits.Inc()
			}
			return data, nil
		}
	}
	if l.metrics != nil {
		l.metrics.CacheMisses.Inc()
	}

	raw, err := l.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	data := raw
	if bytes.HasPrefix(raw, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("loader: opening gzip stream for %s: %w", path, err)
		}
		defer zr.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(zr); err != nil {
			return nil, fmt.Errorf("loader: inflating %s: %w", path, err)
		}
		data = buf.Bytes()
	}

	if l.cache != nil && hash != "" {
		go l.cache.Put(hash, data)
	}
	return data, nil
}

// Init fetches manifest.json, then tags.json, dict.bin, and every meta
// shard concurrently via golang.org/x/sync/errgroup (spec.md §4.3's
// "parallel init fan-out"). Index shards are deferred to EnsureShard.
func (l *Loader) Init(ctx context.Context) error {
	manifestBytes, err := l.fetcher.Fetch(ctx, "manifest.json")
	if err != nil {
		return fmt.Errorf("loader: fetching manifest.json: %w", err)
	}
	manifest, err := build.DecodeManifest(manifestBytes)
	if err != nil {
		return fmt.Errorf("loader: decoding manifest.json: %w", err)
	}
	l.manifest = manifest

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := l.fetch(gctx, manifest.Assets.Tags.Path, manifest.Assets.Tags.SHA256)
		if err != nil {
			return fmt.Errorf("loader: fetching tags.json: %w", err)
		}
		tags, err := DecodeTags(data)
		if err != nil {
			return err
		}
		l.tags = tags
		return nil
	})

	g.Go(func() error {
		data, err := l.fetch(gctx, manifest.Assets.Dict.Path, manifest.Assets.Dict.SHA256)
		if err != nil {
			return fmt.Errorf("loader: fetching dict.bin: %w", err)
		}
		dict, err := DecodeDict(data)
		if err != nil {
			return err
		}
		l.dict = dict
		return nil
	})

	metaShards := make([][]Doc, len(manifest.Assets.MetaShards))
	baseDocID := int32(0)
	bases := make([]int32, len(manifest.Assets.MetaShards))
	for i := range manifest.Assets.MetaShards {
		bases[i] = baseDocID
		width := manifest.Stats.MetaShardDocs
		if width <= 0 {
			width = manifest.Stats.Count
		}
		baseDocID += int32(width)
	}
	for i, asset := range manifest.Assets.MetaShards {
		i, asset := i, asset
		g.Go(func() error {
			data, err := l.fetch(gctx, asset.Path, asset.SHA256)
			if err != nil {
				return fmt.Errorf("loader: fetching %s: %w", asset.Path, err)
			}
			docs, err := DecodeMetaShard(data, bases[i])
			if err != nil {
				return fmt.Errorf("loader: decoding %s: %w", asset.Path, err)
			}
			metaShards[i] = docs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	l.meta = NewMetaIndex(metaShards)
	l.logger.Info("index ready", "docs", l.meta.Count(), "tokens", manifest.Stats.UniqueTokens, "index_shards", manifest.Stats.IndexShardCount)
	return nil
}

// EnsureShard returns the byte pool for shardID, fetching and caching it
// on first use and coalescing concurrent requests for the same shard via
// singleflight (spec.md §4.3's per-shard single-flight note).
func (l *Loader) EnsureShard(ctx context.Context, shardID uint8) ([]byte, error) {
	l.mu.Lock()
	if data, ok := l.shards[shardID]; ok {
		l.mu.Unlock()
		return data, nil
	}
	l.mu.Unlock()

	key := fmt.Sprint(shardID)
	v, err, _ := l.shardGroup.Do(key, func() (interface{}, error) {
		l.mu.Lock()
		if data, ok := l.shards[shardID]; ok {
			l.mu.Unlock()
			return data, nil
		}
		l.mu.Unlock()
		if int(shardID) >= len(l.manifest.Assets.IndexShards) {
			return nil, fmt.Errorf("loader: shard %d out of range", shardID)
		}
		asset := l.manifest.Assets.IndexShards[shardID]
		data, err := l.fetch(ctx, asset.Path, asset.SHA256)
		if err != nil {
			return nil, fmt.Errorf("loader: fetching %s: %w", asset.Path, err)
		}
		l.mu.Lock()
		l.shards[shardID] = data
		l.mu.Unlock()
		if l.metrics != nil {
			l.metrics.ShardLoads.WithLabelValues("loaded").Inc()
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Dict returns the loaded dictionary. Valid only after Init succeeds.
func (l *Loader) Dict() *Dict { return l.dict }

// Meta returns the loaded meta index. Valid only after Init succeeds.
func (l *Loader) Meta() *MetaIndex { return l.meta }

// Tags returns the decoded tag list. Valid only after Init succeeds.
func (l *Loader) Tags() []TagInfo { return l.tags }

// Manifest returns the decoded manifest. Valid only after Init succeeds.
func (l *Loader) Manifest() build.Manifest { return l.manifest }

// PruneCache removes every cached artifact not referenced by the current
// manifest (spec.md §4.7's manifest-driven cache pruning), called once
// Init has completed.
func (l *Loader) PruneCache() {
	if l.cache == nil {
		return
	}
	valid := make(map[string]struct{})
	valid[l.manifest.Assets.Tags.SHA256] = struct{}{}
	valid[l.manifest.Assets.Dict.SHA256] = struct{}{}
	for _, a := range l.manifest.Assets.MetaShards {
		valid[a.SHA256] = struct{}{}
	}
	for _, a := range l.manifest.Assets.IndexShards {
		valid[a.SHA256] = struct{}{}
	}
	l.cache.Prune(valid)
}
