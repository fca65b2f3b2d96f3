package build

import (
	"crypto/sha256"
	"encoding/hex"

	json "github.com/goccy/go-json"
)

// AssetInfo is one manifest.assets entry: spec.md §6's {path, sha256, bytes}.
type AssetInfo struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Bytes  int    `json:"bytes"`
}

// HashAsset computes the content-address (hex SHA-256) of an artifact's
// uncompressed bytes — the same digest the runtime cache keys cache
// entries by (spec.md §4.2 step 7, §4.7).
func HashAsset(data []byte) AssetInfo {
	sum := sha256.Sum256(data)
	return AssetInfo{SHA256: hex.EncodeToString(sum[:]), Bytes: len(data)}
}

// Stats is manifest.stats.
type Stats struct {
	Version         int    `json:"version"`
	Count           int    `json:"count"`
	UniqueTokens    int    `json:"uniqueTokens"`
	IndexBytes      int    `json:"indexBytes"`
	MetaShardDocs   int    `json:"metaShardDocs"`
	MetaShardCount  int    `json:"metaShardCount"`
	IndexShardCount int    `json:"indexShardCount"`
	IndexShardMode  string `json:"indexShardMode"`
}

// Assets is manifest.assets.
type Assets struct {
	Tags        AssetInfo   `json:"tags"`
	Dict        AssetInfo   `json:"dict"`
	MetaShards  []AssetInfo `json:"metaShards"`
	IndexShards []AssetInfo `json:"indexShards"`
}

// Manifest is the top-level manifest.json document.
type Manifest struct {
	Version     int    `json:"version"`
	GeneratedAt string `json:"generatedAt"`
	Stats       Stats  `json:"stats"`
	Assets      Assets `json:"assets"`
}

// Encode marshals m to its canonical JSON form, indented for human
// readability — the builder's output is meant to be checked into source
// control or inspected during a rebuild diff.
func (m Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// DecodeManifest parses manifest.json, as read by engine.Loader.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	err := json.Unmarshal(data, &m)
	return m, err
}
