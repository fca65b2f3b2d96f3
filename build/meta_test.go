package build

import (
	"testing"

	"github.com/jpl-au/zmh/internal/format"
)

func TestEncodeMetaShardRoundTrip(t *testing.T) {
	bases := []string{"", "https://cdn.example.com/a/"}
	docs := []MetaDoc{
		{ExternalID: 7, TagLo: 0b101, TagHi: 0, Flags: 1, Title: "first title",
			CoverBaseID: 1, CoverPath: "1.jpg", Authors: []string{"alice", "bob"}, Aliases: []string{"alt1"}},
		{ExternalID: 9, TagLo: 0, TagHi: 0b10, Flags: 0, Title: "second",
			CoverBaseID: 0, CoverPath: "", Authors: nil, Aliases: nil},
	}

	buf := EncodeMetaShard(docs, bases)
	header, err := format.DecodeMetaHeader(buf)
	if err != nil {
		t.Fatalf("DecodeMetaHeader: %v", err)
	}
	if int(header.Count) != len(docs) {
		t.Fatalf("header.Count = %d, want %d", header.Count, len(docs))
	}
	if int(header.BaseCnt) != len(bases) {
		t.Fatalf("header.BaseCnt = %d, want %d", header.BaseCnt, len(bases))
	}

	off := format.HeaderSize
	// external ids
	ids := make([]int32, len(docs))
	for i := range docs {
		ids[i] = int32(format.U32At(buf, off+4*i))
	}
	if ids[0] != 7 || ids[1] != 9 {
		t.Errorf("external ids = %v, want [7 9]", ids)
	}
	off += format.Pad4Len(len(docs) * 4)
	off += 4 * len(docs)

	// tagLo
	lo0 := format.U32At(buf, off)
	if lo0 != docs[0].TagLo {
		t.Errorf("tagLo[0] = %b, want %b", lo0, docs[0].TagLo)
	}
}

func TestPartitionMetaShardsWidth(t *testing.T) {
	docs := make([]MetaDoc, 10)
	shards := PartitionMetaShards(docs, 4)
	if len(shards) != 3 {
		t.Fatalf("len(shards) = %d, want 3", len(shards))
	}
	if len(shards[0]) != 4 || len(shards[1]) != 4 || len(shards[2]) != 2 {
		t.Errorf("shard sizes = %d %d %d, want 4 4 2", len(shards[0]), len(shards[1]), len(shards[2]))
	}
}

func TestPartitionMetaShardsZeroWidthDisablesSharding(t *testing.T) {
	docs := make([]MetaDoc, 10)
	shards := PartitionMetaShards(docs, 0)
	if len(shards) != 1 || len(shards[0]) != 10 {
		t.Fatalf("expected single shard of 10, got %d shards", len(shards))
	}
}
