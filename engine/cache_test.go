package engine

import (
	"path/filepath"
	"testing"
)

func TestCachePutGetRoundTrip(t *testing.T) {
	c, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer c.Close()

	if c.Has("deadbeef") {
		t.Fatal("empty cache should not report a hit")
	}
	c.Put("deadbeef", []byte("payload"))
	data, ok := c.Get("deadbeef")
	if !ok || string(data) != "payload" {
		t.Fatalf("Get after Put = %q, %v", data, ok)
	}
}

func TestCachePruneRemovesUnreferencedKeys(t *testing.T) {
	c, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer c.Close()

	c.Put("keep", []byte("a"))
	c.Put("drop", []byte("b"))
	c.Prune(map[string]struct{}{"keep": {}})

	if !c.Has("keep") {
		t.Error("keep should survive Prune")
	}
	if c.Has("drop") {
		t.Error("drop should have been pruned")
	}
}

func TestCacheReopenRebuildsBloomFromExistingData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c1, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	c1.Put("persisted", []byte("x"))
	if err := c1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache (reopen): %v", err)
	}
	defer c2.Close()
	if !c2.Has("persisted") {
		t.Error("reopened cache should still report the previously-written key")
	}
}
