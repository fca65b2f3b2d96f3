package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Fetcher retrieves an artifact's raw bytes by its manifest path. It does
// not concern itself with the cache or gzip detection — those are the
// loader's job (spec.md §4.3's fetch rule). Two implementations ship here:
// HTTPFetcher for the production transport, LocalFetcher for tests and the
// demo CLI, grounded on the same Fetcher-seam split
// Adithya-Monish-Kumar-K-Distributed-Search-Analytics-Platform uses between
// its pkg/postgres and pkg/redis clients and the logic that calls them.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// HTTPFetcher fetches artifacts by joining BaseURL and path.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher returns an HTTPFetcher with a sane default client timeout.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{BaseURL: baseURL, Client: &http.Client{Timeout: 30 * time.Second}}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	url := f.BaseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("加载失败: building request for %s: %w", path, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("加载失败: fetching %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("加载失败: %s returned status %d", path, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("加载失败: reading body for %s: %w", path, err)
	}
	return data, nil
}

// LocalFetcher reads artifacts from a directory on disk, for the demo CLI
// and for tests that don't want an HTTP server.
type LocalFetcher struct {
	Dir string
}

// Fetch implements Fetcher.
func (f *LocalFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.Dir, path))
	if err != nil {
		return nil, fmt.Errorf("加载失败: reading %s: %w", path, err)
	}
	return data, nil
}
