package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const jsonlFixture = `{"id":2,"title":"凉宫春日","aliases":[],"authors":["谷川流"],"cover":"https://cdn.example.com/covers/002/front.jpg","tags":[1],"flags":0}
{"id":1,"title":"阿虚的忧郁","aliases":["阿虚"],"authors":["谷川流"],"cover":"https://cdn.example.com/covers/001/front.jpg","tags":[1,2],"flags":0}
`

func TestBuildEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := NewJSONLSource(strings.NewReader(jsonlFixture))

	manifest, err := Build(context.Background(), src, dir, Options{GeneratedAt: "2026-01-01T00:00:00Z"}, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if manifest.Stats.Count != 2 {
		t.Errorf("Stats.Count = %d, want 2", manifest.Stats.Count)
	}
	if manifest.Stats.UniqueTokens == 0 {
		t.Error("expected nonzero unique tokens")
	}
	if len(manifest.Assets.MetaShards) != 1 {
		t.Fatalf("len(MetaShards) = %d, want 1", len(manifest.Assets.MetaShards))
	}
	if len(manifest.Assets.IndexShards) != manifest.Stats.IndexShardCount {
		t.Errorf("len(IndexShards) = %d, want %d", len(manifest.Assets.IndexShards), manifest.Stats.IndexShardCount)
	}

	// Every asset named in the manifest must exist on disk with a matching hash.
	checkAsset := func(info AssetInfo) {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(dir, info.Path))
		if err != nil {
			t.Fatalf("reading %s: %v", info.Path, err)
		}
		if len(data) != info.Bytes {
			t.Errorf("%s: len %d, want %d", info.Path, len(data), info.Bytes)
		}
		if HashAsset(data).SHA256 != info.SHA256 {
			t.Errorf("%s: sha256 mismatch", info.Path)
		}
	}
	checkAsset(manifest.Assets.Tags)
	checkAsset(manifest.Assets.Dict)
	for _, a := range manifest.Assets.MetaShards {
		checkAsset(a)
	}
	for _, a := range manifest.Assets.IndexShards {
		checkAsset(a)
	}

	if _, err := os.Stat(filepath.Join(dir, "manifest.json")); err != nil {
		t.Errorf("manifest.json missing: %v", err)
	}
}

func TestBuildDocIDsOrderedByExternalID(t *testing.T) {
	dir := t.TempDir()
	src := NewJSONLSource(strings.NewReader(jsonlFixture))
	_, err := Build(context.Background(), src, dir, Options{GeneratedAt: "2026-01-01T00:00:00Z"}, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "meta.0000.bin"))
	if err != nil {
		t.Fatalf("reading meta shard: %v", err)
	}
	// doc-id 0 should carry external id 1 (the smaller id), since rows are
	// sorted by external id ascending before doc-id assignment.
	firstExternalID := int32(data[16]) | int32(data[17])<<8 | int32(data[18])<<16 | int32(data[19])<<24
	if firstExternalID != 1 {
		t.Errorf("doc-id 0 external id = %d, want 1", firstExternalID)
	}
}

func TestCleanPurgesRecognizedPrefixesOnly(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("manifest.json")
	mustWrite("dict.bin")
	mustWrite("meta.0000.bin")
	mustWrite("index.0.bin")
	mustWrite("keep-me.txt")

	if err := Clean(dir); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "keep-me.txt" {
		t.Errorf("after Clean, dir = %v, want only keep-me.txt", entries)
	}
}
