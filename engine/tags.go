package engine

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// TagInfo is one entry of tags.json: an external tag id, its display
// name, corpus document count, and the bit index it occupies in
// TagLo/TagHi (spec.md §4.2 step 2, build.TagRecord's wire form).
type TagInfo struct {
	TagID int32  `json:"tagId"`
	Name  string `json:"name"`
	Count int    `json:"count"`
	Bit   int    `json:"bit"`
}

type tagsDoc struct {
	Version int       `json:"version"`
	Tags    []TagInfo `json:"tags"`
}

// DecodeTags parses tags.json.
func DecodeTags(data []byte) ([]TagInfo, error) {
	var doc tagsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("engine: decoding tags.json: %w", err)
	}
	return doc.Tags, nil
}
