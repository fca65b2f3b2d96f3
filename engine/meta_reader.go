package engine

import (
	"fmt"
	"strings"

	"github.com/jpl-au/zmh/internal/format"
)

// MetaIndex holds every doc decoded from every meta shard, indexed by
// dense doc-id (spec.md §3: doc-ids are [0, count) with no gaps, and meta
// shards partition that space in contiguous ranges).
type MetaIndex struct {
	docs []Doc
}

// DecodeMetaShard parses one meta shard's bytes into Docs, whose DocID
// fields start at baseDocID (the shard's position in the overall doc-id
// space) and increment contiguously.
func DecodeMetaShard(buf []byte, baseDocID int32) ([]Doc, error) {
	header, err := format.DecodeMetaHeader(buf)
	if err != nil {
		return nil, fmt.Errorf("engine: decoding meta header: %w", err)
	}
	count := int(header.Count)
	baseCnt := int(header.BaseCnt)
	sep := string(rune(header.SepCode))

	off := format.HeaderSize

	externalIDsOff := off
	off += count * 4
	off += format.Pad4Len(count * 4)

	tagLoOff := off
	off += count * 4
	off += format.Pad4Len(count * 4)

	tagHiOff := off
	off += count * 4
	off += format.Pad4Len(count * 4)

	flagsOff := off
	off += count
	off += format.Pad4Len(count)

	titles, n, err := format.ReadStringPool(buf, off, count)
	if err != nil {
		return nil, fmt.Errorf("engine: reading titles pool: %w", err)
	}
	off += n + format.Pad4Len(n)

	bases, n, err := format.ReadStringPool(buf, off, baseCnt)
	if err != nil {
		return nil, fmt.Errorf("engine: reading cover bases pool: %w", err)
	}
	off += n + format.Pad4Len(n)

	coverBaseIDsOff := off
	wideBaseIDs := baseCnt > 255
	width := 1
	if wideBaseIDs {
		width = 2
	}
	off += count * width
	off += format.Pad4Len(count * width)

	coverPaths, n, err := format.ReadStringPool(buf, off, count)
	if err != nil {
		return nil, fmt.Errorf("engine: reading cover paths pool: %w", err)
	}
	off += n + format.Pad4Len(n)

	authors, n, err := format.ReadStringPool(buf, off, count)
	if err != nil {
		return nil, fmt.Errorf("engine: reading authors pool: %w", err)
	}
	off += n + format.Pad4Len(n)

	aliases, _, err := format.ReadStringPool(buf, off, count)
	if err != nil {
		return nil, fmt.Errorf("engine: reading aliases pool: %w", err)
	}

	docs := make([]Doc, count)
	for i := 0; i < count; i++ {
		var baseID uint32
		if wideBaseIDs {
			baseID = uint32(format.U16At(buf, coverBaseIDsOff+2*i))
		} else {
			baseID = uint32(buf[coverBaseIDsOff+i])
		}
		authorsStr := authors.At(i)
		aliasesStr := aliases.At(i)
		docs[i] = Doc{
			DocID:      baseDocID + int32(i),
			ExternalID: int32(format.U32At(buf, externalIDsOff+4*i)),
			Title:      titles.At(i),
			Authors:    splitJoined(authorsStr, sep),
			Aliases:    splitJoined(aliasesStr, sep),
			CoverBase:  bases.At(int(baseID)),
			CoverPath:  coverPaths.At(i),
			TagLo:      format.U32At(buf, tagLoOff+4*i),
			TagHi:      format.U32At(buf, tagHiOff+4*i),
			Flags:      buf[flagsOff+i],
		}
	}
	return docs, nil
}

func splitJoined(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}

// NewMetaIndex concatenates per-shard doc slices, already in ascending
// doc-id order, into one flat index.
func NewMetaIndex(shards [][]Doc) *MetaIndex {
	var all []Doc
	for _, s := range shards {
		all = append(all, s...)
	}
	return &MetaIndex{docs: all}
}

// Count returns the total number of documents.
func (m *MetaIndex) Count() int { return len(m.docs) }

// DocByID returns the doc at the given dense doc-id.
func (m *MetaIndex) DocByID(docID int32) Doc { return m.docs[docID] }

// All returns every doc in ascending doc-id order.
func (m *MetaIndex) All() []Doc { return m.docs }
