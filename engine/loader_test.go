package engine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpl-au/zmh/build"
)

// countingFetcher wraps a LocalFetcher and counts fetches per path, to
// verify index shards load lazily and singleflight coalesces concurrent
// requests for the same shard.
type countingFetcher struct {
	*LocalFetcher
	mu     sync.Mutex
	counts map[string]int
}

func newCountingFetcher(dir string) *countingFetcher {
	return &countingFetcher{LocalFetcher: &LocalFetcher{Dir: dir}, counts: make(map[string]int)}
}

func (f *countingFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	f.counts[path]++
	f.mu.Unlock()
	return f.LocalFetcher.Fetch(ctx, path)
}

func (f *countingFetcher) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[path]
}

func buildLoaderFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := build.NewJSONLSource(strings.NewReader(engineFixture))
	_, err := build.Build(context.Background(), src, dir, build.Options{GeneratedAt: "2026-01-01T00:00:00Z"}, nil, nil)
	if err != nil {
		t.Fatalf("build.Build: %v", err)
	}
	return dir
}

func TestLoaderInitDoesNotFetchIndexShards(t *testing.T) {
	dir := buildLoaderFixture(t)
	fetcher := newCountingFetcher(dir)
	loader := NewLoader(fetcher, nil, nil, nil)

	if err := loader.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if fetcher.count("index.0.bin") != 0 {
		t.Error("Init should not eagerly fetch index shards")
	}
	if loader.Dict() == nil || loader.Meta() == nil {
		t.Fatal("Init should populate Dict and Meta")
	}
}

func TestLoaderEnsureShardFetchesOnceAndCaches(t *testing.T) {
	dir := buildLoaderFixture(t)
	fetcher := newCountingFetcher(dir)
	loader := NewLoader(fetcher, nil, nil, nil)
	if err := loader.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var wg sync.WaitGroup
	var errs int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := loader.EnsureShard(context.Background(), 0); err != nil {
				atomic.AddInt32(&errs, 1)
			}
		}()
	}
	wg.Wait()
	if errs != 0 {
		t.Fatalf("%d concurrent EnsureShard calls failed", errs)
	}
	if fetcher.count("index.0.bin") != 1 {
		t.Errorf("index.0.bin fetched %d times, want exactly 1 (singleflight + resident cache)", fetcher.count("index.0.bin"))
	}
}

func TestLoaderPruneCacheKeepsOnlyManifestAssets(t *testing.T) {
	dir := buildLoaderFixture(t)
	cachePath := dir + "/local-cache.db"
	cache, err := OpenCache(cachePath)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()
	cache.Put("stale-hash-not-in-manifest", []byte("x"))

	loader := NewLoader(&LocalFetcher{Dir: dir}, cache, nil, nil)
	if err := loader.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	loader.PruneCache()

	if cache.Has("stale-hash-not-in-manifest") {
		t.Error("PruneCache should have removed a hash absent from the manifest")
	}
	// Cache writes on a miss are fire-and-forget, so give the dict's write
	// time to land before checking that pruning kept it.
	dictHash := loader.Manifest().Assets.Dict.SHA256
	for deadline := time.Now().Add(2 * time.Second); !cache.Has(dictHash) && time.Now().Before(deadline); {
		time.Sleep(10 * time.Millisecond)
	}
	if !cache.Has(dictHash) {
		t.Error("PruneCache should keep the dict asset's hash")
	}
}
