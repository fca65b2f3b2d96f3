package engine

import (
	"testing"

	"github.com/jpl-au/zmh/build"
)

func TestDecodeDictAndLookup(t *testing.T) {
	postings := map[uint32][]int32{
		5:  {0, 2, 4},
		3:  {1},
		10: {0, 1, 2, 3},
	}
	entries, shards := build.BuildDict(postings, 2)
	encoded := build.EncodeDict(entries)

	dict, err := DecodeDict(encoded)
	if err != nil {
		t.Fatalf("DecodeDict: %v", err)
	}
	if dict.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", dict.Count())
	}

	idx, ok := dict.Lookup(5)
	if !ok {
		t.Fatal("expected key 5 to be found")
	}
	raw := dict.PostingSlice(shards[dict.shardID(idx)], idx)
	if len(raw) == 0 {
		t.Error("expected nonempty posting slice for key 5")
	}

	if _, ok := dict.Lookup(999); ok {
		t.Error("key 999 should not be found")
	}
}
