package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/jpl-au/zmh/internal/format"
	"github.com/jpl-au/zmh/internal/metrics"
	"github.com/jpl-au/zmh/internal/normalize"
	"github.com/jpl-au/zmh/internal/varint"
)

// Options controls one builder run; its fields mirror the CLI flags
// (spec.md §6's "CLI surface (builder)"). The zero value writes a single
// meta shard, whereas the CLI's --meta-shard-docs defaults to
// DefaultMetaShardDocs.
type Options struct {
	// Clean purges prior artifacts with recognized prefixes before
	// writing (--clean).
	Clean bool
	// GeneratedAt overrides the manifest timestamp (--generated-at). Left
	// empty, the current time is stamped in RFC 3339.
	GeneratedAt string
	// MetaShardDocs is the meta-shard partition width (--meta-shard-docs).
	// 0 disables sharding (one meta file for the whole corpus).
	MetaShardDocs int
	// IndexShardCount is the index shard bucket count
	// (--index-shard-count). 0 selects the "bytes-target" default policy
	// (ResolveIndexShardCount).
	IndexShardCount int
	// TagNames optionally supplies display names for external tagIds;
	// unnamed tags are emitted with an empty name.
	TagNames map[int32]string
}

// recognizedPrefixes are the artifact filename prefixes --clean purges.
// Generalized from the original script's _clean_generated, which only
// recognized a flat file set — this implementation shards meta and index,
// so the prefix list covers every shard family plus the legacy
// authors.dict.bin form (spec.md §6, never emitted by this builder, but
// still a recognized prefix so a --clean run after switching builder
// versions doesn't leave it behind).
var recognizedPrefixes = []string{
	"meta.", "dict.bin", "index.", "tags.json", "manifest.json", "authors.dict.bin",
}

// Clean removes every file in dir whose name matches a recognized
// artifact prefix.
func Clean(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("build: listing %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		for _, p := range recognizedPrefixes {
			if strings.HasPrefix(name, p) {
				if err := os.Remove(filepath.Join(dir, name)); err != nil {
					return fmt.Errorf("build: removing %s: %w", name, err)
				}
				break
			}
		}
	}
	return nil
}

// Build runs the full builder algorithm of spec.md §4.2: collect & order,
// assign tags, dedup cover bases, invert n-grams, shard the index, shard
// the meta, hash every artifact, and write manifest.json. outDir is
// created if it does not exist.
func Build(ctx context.Context, src RowSource, outDir string, opts Options, logger *slog.Logger, m *metrics.Build) (Manifest, error) {
	if logger == nil {
		logger = slog.Default().With("component", "builder")
	}

	rows, err := ReadAll(src)
	if err != nil {
		return Manifest{}, fmt.Errorf("build: reading rows: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Manifest{}, err
	}
	if opts.Clean {
		if err := Clean(outDir); err != nil {
			return Manifest{}, err
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("build: creating %s: %w", outDir, err)
	}

	// Step 1: collect & order.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	// Step 2: tag assignment.
	assigned, dropped := AssignTags(rows, opts.TagNames)
	byBit := BitIndex(assigned)
	if len(dropped) > 0 && m != nil {
		m.TagsDropped.Add(float64(len(dropped)))
	}
	if len(dropped) > 0 {
		logger.Warn("tags exceeded bit budget, dropping", "dropped", len(dropped), "max_bits", MaxTagBits)
	}

	// Step 3: cover base dedup.
	covers := make([]string, len(rows))
	for i, r := range rows {
		covers[i] = r.Cover
	}
	coverTable := NewCoverTable(covers)

	metaDocs := make([]MetaDoc, len(rows))
	searchable := make([]string, len(rows))
	for i, r := range rows {
		lo, hi := BitsFor(r.Tags, byBit)
		base, path := SplitCover(r.Cover)
		metaDocs[i] = MetaDoc{
			ExternalID:  r.ID,
			TagLo:       lo,
			TagHi:       hi,
			Flags:       r.Flags,
			Title:       r.Title,
			CoverBaseID: coverTable.IDFor(base),
			CoverPath:   path,
			Authors:     r.Authors,
			Aliases:     r.Aliases,
		}
		searchable[i] = strings.Join([]string{r.Title, strings.Join(r.Aliases, " "), strings.Join(r.Authors, " ")}, " ")
	}

	// Step 4: n-gram inversion.
	normalized := make([]string, len(rows))
	for i, s := range searchable {
		normalized[i] = normalize.Normalize(s)
	}
	postings := Invert(len(rows), func(d int) string { return normalized[d] })
	if m != nil {
		m.TokensEmitted.Set(float64(len(postings)))
	}

	// Step 5: index sharding. Encode once to measure total bytes, then
	// resolve the final shard count and route for real.
	var totalBytes int64
	for _, ids := range postings {
		totalBytes += int64(postingsByteLen(ids))
	}
	shardCount, shardMode := ResolveIndexShardCount(opts.IndexShardCount, totalBytes)
	entries, shardPools := BuildDict(postings, shardCount)
	dictBytes := EncodeDict(entries)

	// Step 6: meta sharding.
	metaShards := PartitionMetaShards(metaDocs, opts.MetaShardDocs)

	generatedAt := opts.GeneratedAt
	if generatedAt == "" {
		generatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	// Step 7: write artifacts, hashing each as it's written.
	manifest := Manifest{
		Version:     format.CurrentVersion,
		GeneratedAt: generatedAt,
		Stats: Stats{
			Version:         format.CurrentVersion,
			Count:           len(rows),
			UniqueTokens:    len(postings),
			IndexBytes:      int(totalBytes),
			MetaShardDocs:   opts.MetaShardDocs,
			MetaShardCount:  len(metaShards),
			IndexShardCount: shardCount,
			IndexShardMode:  shardMode,
		},
	}

	tagsJSON, err := encodeTags(assigned)
	if err != nil {
		return Manifest{}, err
	}
	if err := writeAsset(outDir, "tags.json", tagsJSON, &manifest.Assets.Tags); err != nil {
		return Manifest{}, err
	}
	if err := writeAsset(outDir, "dict.bin", dictBytes, &manifest.Assets.Dict); err != nil {
		return Manifest{}, err
	}

	manifest.Assets.IndexShards = make([]AssetInfo, shardCount)
	for sid, pool := range shardPools {
		name := fmt.Sprintf("index.%d.bin", sid)
		if err := writeAsset(outDir, name, pool, &manifest.Assets.IndexShards[sid]); err != nil {
			return Manifest{}, err
		}
		if m != nil {
			m.ShardBytes.WithLabelValues(fmt.Sprint(sid)).Set(float64(len(pool)))
		}
	}

	manifest.Assets.MetaShards = make([]AssetInfo, len(metaShards))
	for idx, docs := range metaShards {
		name := fmt.Sprintf("meta.%04d.bin", idx)
		body := EncodeMetaShard(docs, coverTable.Bases())
		if err := writeAsset(outDir, name, body, &manifest.Assets.MetaShards[idx]); err != nil {
			return Manifest{}, err
		}
	}

	manifestJSON, err := manifest.Encode()
	if err != nil {
		return Manifest{}, fmt.Errorf("build: encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "manifest.json"), manifestJSON, 0o644); err != nil {
		return Manifest{}, fmt.Errorf("build: writing manifest.json: %w", err)
	}

	if m != nil {
		m.DocsProcessed.Add(float64(len(rows)))
	}
	logger.Info("build complete",
		"docs", len(rows),
		"unique_tokens", len(postings),
		"index_bytes", totalBytes,
		"meta_shards", len(metaShards),
		"index_shards", shardCount,
	)
	return manifest, nil
}

// postingsByteLen returns the delta-varint encoded size of a posting list
// without retaining the encoded bytes, used only to size the index before
// committing to a shard count.
func postingsByteLen(ids []int32) int {
	return len(varint.EncodePostings(ids))
}

func writeAsset(dir, name string, data []byte, into *AssetInfo) error {
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("build: writing %s: %w", name, err)
	}
	info := HashAsset(data)
	info.Path = name
	*into = info
	return nil
}

type tagsDoc struct {
	Version int         `json:"version"`
	Tags    []tagRecord `json:"tags"`
}

type tagRecord struct {
	TagID int32  `json:"tagId"`
	Name  string `json:"name"`
	Count int    `json:"count"`
	Bit   int    `json:"bit"`
}

func encodeTags(assigned []TagRecord) ([]byte, error) {
	doc := tagsDoc{Version: 1, Tags: make([]tagRecord, len(assigned))}
	for i, t := range assigned {
		doc.Tags[i] = tagRecord{TagID: t.TagID, Name: t.Name, Count: t.Count, Bit: t.Bit}
	}
	return json.MarshalIndent(doc, "", "  ")
}
