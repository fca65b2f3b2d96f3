package build

import (
	"sort"

	"github.com/jpl-au/zmh/internal/format"
	"github.com/jpl-au/zmh/internal/normalize"
	"github.com/jpl-au/zmh/internal/varint"
)

// Invert computes, for every distinct token key seen across docs, the
// strictly increasing list of doc-ids whose searchable text contains it
// (spec.md §4.2 step 4: "the union of n-grams across normalized
// (title ⊕ aliases ⊕ authors)"). searchable(d) must return the already
// normalized union-of-fields text for doc d; Invert itself only windows it
// into n-grams and keys them. Doc-ids must be presented in ascending
// order — the builder calls this with docs 0..count-1 in that order, which
// is what keeps each posting list sorted without an explicit sort pass.
func Invert(docCount int, searchable func(docID int) string) map[uint32][]int32 {
	postings := make(map[uint32][]int32)
	for d := 0; d < docCount; d++ {
		for _, g := range normalize.NGrams(searchable(d), normalize.N) {
			key, ok := normalize.TokenKey(g)
			if !ok {
				continue
			}
			postings[key] = append(postings[key], int32(d))
		}
	}
	return postings
}

// DictEntry is one resolved dict.bin row, before byte-pool placement.
type DictEntry struct {
	Key      uint32
	ShardID  uint8
	Offset   uint32
	Length   uint16
	DF       uint16
	postings []byte
}

// BuildDict sorts postings by token key ascending, routes each to an index
// shard (spec.md §4.2 step 5), and packs each shard's posting bytes into
// one contiguous pool. It returns the sorted entries (ready for
// EncodeDict) and the shard byte pools, indexed by shardId.
func BuildDict(postings map[uint32][]int32, shardCount int) ([]DictEntry, [][]byte) {
	keys := make([]uint32, 0, len(postings))
	for k := range postings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	shards := make([][]byte, shardCount)
	entries := make([]DictEntry, 0, len(keys))
	for _, k := range keys {
		ids := postings[k]
		shardID := ShardFor(k, shardCount)
		encoded := varint.EncodePostings(ids)
		entries = append(entries, DictEntry{
			Key:      k,
			ShardID:  uint8(shardID),
			Offset:   uint32(len(shards[shardID])),
			Length:   uint16(len(encoded)),
			DF:       uint16(len(ids)),
			postings: encoded,
		})
		shards[shardID] = append(shards[shardID], encoded...)
	}
	return entries, shards
}

// EncodeDict serialises entries into dict.bin's wire form: a 16-byte
// header followed by five 4-byte-aligned parallel arrays (keys, shardIds,
// offsets, lengths, dfs), each array its own section per spec.md §6.
func EncodeDict(entries []DictEntry) []byte {
	n := len(entries)
	header := format.EncodeDictHeader(format.DictHeader{
		Version: format.CurrentVersion,
		N:       normalize.N,
		Count:   uint32(n),
	})

	keys := make([]byte, 0, 4*n)
	shardIDs := make([]byte, 0, n)
	offsets := make([]byte, 0, 4*n)
	lengths := make([]byte, 0, 2*n)
	dfs := make([]byte, 0, 2*n)
	for _, e := range entries {
		keys = format.PutU32(keys, e.Key)
		shardIDs = append(shardIDs, e.ShardID)
		offsets = format.PutU32(offsets, e.Offset)
		lengths = format.PutU16(lengths, e.Length)
		dfs = format.PutU16(dfs, e.DF)
	}

	out := make([]byte, 0, len(header)+len(keys)+len(shardIDs)+len(offsets)+len(lengths)+len(dfs)+16)
	out = append(out, header...)
	out = append(out, format.AppendPad4(keys)...)
	out = append(out, format.AppendPad4(shardIDs)...)
	out = append(out, format.AppendPad4(offsets)...)
	out = append(out, format.AppendPad4(lengths)...)
	out = append(out, format.AppendPad4(dfs)...)
	return out
}
