package engine

import (
	"fmt"
	"sort"

	"github.com/jpl-au/zmh/internal/format"
)

// Dict is the decoded dict.bin: parallel arrays over the distinct token
// keys, kept as raw accessors over the backing buffer rather than
// unpacked into a []DictEntry slice — the zero-copy discipline spec.md §9
// calls for ("Typed-array views... without copying").
type Dict struct {
	buf    []byte
	count  int
	keysOf int // byte offset of the keys array
	shOf   int // shardIds
	offOf  int // offsets
	lenOf  int // lengths
	dfOf   int // dfs
}

// DecodeDict parses dict.bin's header and five parallel arrays.
func DecodeDict(buf []byte) (*Dict, error) {
	header, err := format.DecodeDictHeader(buf)
	if err != nil {
		return nil, fmt.Errorf("engine: decoding dict header: %w", err)
	}
	n := int(header.Count)

	off := format.HeaderSize
	keysOf := off
	off += n * 4
	off += format.Pad4Len(n * 4)

	shOf := off
	off += n
	off += format.Pad4Len(n)

	offOf := off
	off += n * 4
	off += format.Pad4Len(n * 4)

	lenOf := off
	off += n * 2
	off += format.Pad4Len(n * 2)

	dfOf := off
	off += n * 2
	off += format.Pad4Len(n * 2)

	if off > len(buf) {
		return nil, format.ErrTruncated
	}
	return &Dict{buf: buf, count: n, keysOf: keysOf, shOf: shOf, offOf: offOf, lenOf: lenOf, dfOf: dfOf}, nil
}

// Count returns the number of distinct tokens.
func (d *Dict) Count() int { return d.count }

func (d *Dict) key(i int) uint32    { return format.U32At(d.buf, d.keysOf+4*i) }
func (d *Dict) shardID(i int) uint8 { return d.buf[d.shOf+i] }
func (d *Dict) offset(i int) uint32 { return format.U32At(d.buf, d.offOf+4*i) }
func (d *Dict) length(i int) uint16 { return format.U16At(d.buf, d.lenOf+2*i) }
func (d *Dict) df(i int) uint16     { return format.U16At(d.buf, d.dfOf+2*i) }

// Lookup binary-searches for tokenKey among the sorted ascending keys
// array, returning its dict index and true on a hit.
func (d *Dict) Lookup(tokenKey uint32) (int, bool) {
	idx := sort.Search(d.count, func(i int) bool { return d.key(i) >= tokenKey })
	if idx < d.count && d.key(idx) == tokenKey {
		return idx, true
	}
	return 0, false
}

// PostingSlice returns the byte range of the posting list at dict index i
// within its shard's byte pool.
func (d *Dict) PostingSlice(shardBytes []byte, i int) []byte {
	start := d.offset(i)
	end := start + uint32(d.length(i))
	return shardBytes[start:end]
}
