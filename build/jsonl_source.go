package build

import (
	"bufio"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// jsonlRow is the wire shape of one line of a JSONL dump, grounded on
// original_source/scripts/build_index.py's _iter_comic_json, which streamed
// one JSON object of exactly this shape per source row.
type jsonlRow struct {
	ID      int32    `json:"id"`
	Title   string   `json:"title"`
	Aliases []string `json:"aliases"`
	Authors []string `json:"authors"`
	Cover   string   `json:"cover"`
	Tags    []int32  `json:"tags"`
	Flags   uint8    `json:"flags"`
}

// JSONLSource reads newline-delimited JSON rows from an io.Reader. It is
// used for tests and for offline rebuilds that don't want a live database
// connection.
type JSONLSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewJSONLSource wraps r. If r also implements io.Closer, Close closes it.
func NewJSONLSource(r io.Reader) *JSONLSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	closer, _ := r.(io.Closer)
	return &JSONLSource{scanner: scanner, closer: closer}
}

// Next implements RowSource.
func (s *JSONLSource) Next() (Row, bool, error) {
	for s.scanner.Scan() {
		s.line++
		text := s.scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var jr jsonlRow
		if err := json.Unmarshal(text, &jr); err != nil {
			return Row{}, false, fmt.Errorf("build: jsonl line %d: %w", s.line, err)
		}
		return Row{
			ID:      jr.ID,
			Title:   jr.Title,
			Aliases: jr.Aliases,
			Authors: jr.Authors,
			Cover:   jr.Cover,
			Tags:    jr.Tags,
			Flags:   jr.Flags,
		}, true, nil
	}
	if err := s.scanner.Err(); err != nil {
		return Row{}, false, fmt.Errorf("build: reading jsonl: %w", err)
	}
	return Row{}, false, nil
}

// Close implements RowSource.
func (s *JSONLSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
