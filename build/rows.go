// Package build implements the offline index builder (C2): it walks a row
// source, inverts normalized text into n-gram posting lists, and packs the
// result into the meta/dict/index/tags/manifest artifact set the runtime
// engine loads.
package build

// Row is one source record, as read from the relational source (or a JSONL
// dump of the same shape) before doc-id assignment.
type Row struct {
	ID      int32
	Title   string
	Aliases []string
	Authors []string
	Cover   string
	Tags    []int32 // stable external tagIds
	Flags   uint8
}

// RowSource yields rows in an unspecified order; the builder sorts by
// external ID itself (step 1 of the build algorithm). Next returns
// ok=false with a nil error once the source is exhausted.
type RowSource interface {
	Next() (Row, bool, error)
	Close() error
}

// ReadAll drains src into a slice. Used by the builder, and directly by
// tests against small in-memory sources.
func ReadAll(src RowSource) ([]Row, error) {
	var rows []Row
	for {
		row, ok, err := src.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}
