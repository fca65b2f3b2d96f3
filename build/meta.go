package build

import (
	"strings"

	"github.com/jpl-au/zmh/internal/format"
)

// MetaDoc is one doc's fully resolved record, ready for meta-shard
// encoding: tags and cover already reduced to their wire forms.
type MetaDoc struct {
	ExternalID  int32
	TagLo       uint32
	TagHi       uint32
	Flags       uint8
	Title       string
	CoverBaseID uint32
	CoverPath   string
	Authors     []string
	Aliases     []string
}

// DefaultMetaShardDocs is the default value of the --meta-shard-docs flag
// (spec.md §4.2 step 6: "default a power of two, e.g. 4096"). A width of 0
// disables sharding rather than selecting this default.
const DefaultMetaShardDocs = 4096

// PartitionMetaShards splits docs into contiguous chunks of at most width
// docs each (the last chunk may be short). width <= 0 disables sharding:
// all docs go into a single shard.
func PartitionMetaShards(docs []MetaDoc, width int) [][]MetaDoc {
	if width <= 0 || len(docs) == 0 {
		return [][]MetaDoc{docs}
	}
	var shards [][]MetaDoc
	for start := 0; start < len(docs); start += width {
		end := start + width
		if end > len(docs) {
			end = len(docs)
		}
		shards = append(shards, docs[start:end])
	}
	return shards
}

// EncodeMetaShard serialises one meta shard: a 16-byte header followed by
// the nine body sections of spec.md §6, each 4-byte-aligned. bases is the
// corpus-wide cover base table (build.CoverTable.Bases()); cover base ids
// in docs index into it directly — the wire form does not remap to a
// shard-local table, since the baseCnt header field only needs to bound
// the width of coverBaseIds, and a global table keeps base strings stable
// across shards that reference the same director.
func EncodeMetaShard(docs []MetaDoc, bases []string) []byte {
	count := len(docs)
	baseCnt := len(bases)

	header := format.EncodeMetaHeader(format.MetaHeader{
		Version: format.CurrentVersion,
		SepCode: format.DefaultSepCode,
		Count:   uint32(count),
		BaseCnt: uint32(baseCnt),
	})

	externalIDs := make([]byte, 0, 4*count)
	tagLo := make([]byte, 0, 4*count)
	tagHi := make([]byte, 0, 4*count)
	flags := make([]byte, 0, count)
	titles := make([]string, count)
	coverBaseIDs := make([]byte, 0, count*2)
	coverPaths := make([]string, count)
	authors := make([]string, count)
	aliases := make([]string, count)

	wideBaseIDs := baseCnt > 255
	for i, d := range docs {
		externalIDs = format.PutU32(externalIDs, uint32(d.ExternalID))
		tagLo = format.PutU32(tagLo, d.TagLo)
		tagHi = format.PutU32(tagHi, d.TagHi)
		flags = append(flags, d.Flags)
		titles[i] = d.Title
		if wideBaseIDs {
			coverBaseIDs = format.PutU16(coverBaseIDs, uint16(d.CoverBaseID))
		} else {
			coverBaseIDs = append(coverBaseIDs, byte(d.CoverBaseID))
		}
		coverPaths[i] = d.CoverPath
		authors[i] = strings.Join(d.Authors, string(rune(format.DefaultSepCode)))
		aliases[i] = strings.Join(d.Aliases, string(rune(format.DefaultSepCode)))
	}

	out := make([]byte, 0, len(header)+count*64)
	out = append(out, header...)
	out = append(out, format.AppendPad4(externalIDs)...)
	out = append(out, format.AppendPad4(tagLo)...)
	out = append(out, format.AppendPad4(tagHi)...)
	out = append(out, format.AppendPad4(flags)...)
	out = append(out, format.AppendPad4(format.EncodeStringPool(titles))...)
	out = append(out, format.AppendPad4(format.EncodeStringPool(bases))...)
	out = append(out, format.AppendPad4(coverBaseIDs)...)
	out = append(out, format.AppendPad4(format.EncodeStringPool(coverPaths))...)
	out = append(out, format.AppendPad4(format.EncodeStringPool(authors))...)
	out = append(out, format.AppendPad4(format.EncodeStringPool(aliases))...)
	return out
}
