package engine

import (
	"testing"

	"github.com/jpl-au/zmh/build"
)

func TestDecodeMetaShardRoundTrip(t *testing.T) {
	bases := []string{"", "https://cdn.example.com/a/"}
	docs := []build.MetaDoc{
		{ExternalID: 7, TagLo: 0b101, TagHi: 0, Flags: FlagHidden, Title: "first title",
			CoverBaseID: 1, CoverPath: "1.jpg", Authors: []string{"alice", "bob"}, Aliases: []string{"alt1"}},
		{ExternalID: 9, TagLo: 0, TagHi: 0b10, Flags: 0, Title: "second",
			CoverBaseID: 0, CoverPath: "", Authors: nil, Aliases: nil},
	}
	buf := build.EncodeMetaShard(docs, bases)

	decoded, err := DecodeMetaShard(buf, 100)
	if err != nil {
		t.Fatalf("DecodeMetaShard: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("len(decoded) = %d, want 2", len(decoded))
	}
	if decoded[0].DocID != 100 || decoded[1].DocID != 101 {
		t.Errorf("doc ids = %d, %d, want 100, 101 (baseDocID offset)", decoded[0].DocID, decoded[1].DocID)
	}
	if decoded[0].ExternalID != 7 || decoded[1].ExternalID != 9 {
		t.Errorf("external ids = %d, %d, want 7, 9", decoded[0].ExternalID, decoded[1].ExternalID)
	}
	if decoded[0].Title != "first title" || decoded[0].CoverBase != "https://cdn.example.com/a/" || decoded[0].CoverPath != "1.jpg" {
		t.Errorf("doc 0 = %+v", decoded[0])
	}
	if len(decoded[0].Authors) != 2 || decoded[0].Authors[0] != "alice" || decoded[0].Authors[1] != "bob" {
		t.Errorf("doc 0 authors = %v, want [alice bob]", decoded[0].Authors)
	}
	if decoded[0].Flags&FlagHidden == 0 {
		t.Error("doc 0 should carry FlagHidden")
	}
	if decoded[1].CoverBase != "" || decoded[1].Authors != nil {
		t.Errorf("doc 1 = %+v, want empty cover base and nil authors", decoded[1])
	}
}
