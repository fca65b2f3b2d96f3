package build

import (
	"testing"

	"github.com/jpl-au/zmh/internal/format"
	"github.com/jpl-au/zmh/internal/varint"
)

func TestInvertProducesSortedPostings(t *testing.T) {
	docs := []string{"abcdef", "bcdefg", "xyz"}
	postings := Invert(len(docs), func(d int) string { return docs[d] })
	if len(postings) == 0 {
		t.Fatal("expected postings")
	}
	for key, ids := range postings {
		for i := 1; i < len(ids); i++ {
			if ids[i] <= ids[i-1] {
				t.Fatalf("token %d: postings not strictly increasing: %v", key, ids)
			}
		}
	}
}

func TestBuildDictAndEncodeRoundTrip(t *testing.T) {
	postings := map[uint32][]int32{
		5:  {0, 2, 4},
		3:  {1},
		10: {0, 1, 2, 3},
	}
	entries, shards := BuildDict(postings, 4)
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Key <= entries[i-1].Key {
			t.Fatalf("dict entries not sorted ascending by key")
		}
	}

	encoded := EncodeDict(entries)
	header, err := format.DecodeDictHeader(encoded)
	if err != nil {
		t.Fatalf("DecodeDictHeader: %v", err)
	}
	if int(header.Count) != len(entries) {
		t.Errorf("header.Count = %d, want %d", header.Count, len(entries))
	}

	for _, e := range entries {
		if int(e.ShardID) >= len(shards) {
			t.Fatalf("shardID %d out of range", e.ShardID)
		}
		pool := shards[e.ShardID]
		raw := pool[e.Offset : e.Offset+uint32(e.Length)]
		ids := varint.DecodePostings(raw)
		want := postings[e.Key]
		if len(ids) != len(want) {
			t.Fatalf("key %d: decoded %v, want %v", e.Key, ids, want)
		}
		for i := range ids {
			if ids[i] != want[i] {
				t.Errorf("key %d[%d] = %d, want %d", e.Key, i, ids[i], want[i])
			}
		}
	}
}
