package engine

// Doc is one document as decoded from a meta shard — the runtime's view of
// build.MetaDoc, plus its dense doc-id.
type Doc struct {
	DocID       int32
	ExternalID  int32
	Title       string
	Aliases     []string
	Authors     []string
	CoverBase   string
	CoverPath   string
	TagLo       uint32
	TagHi       uint32
	Flags       uint8
}

// Status bit positions within Doc.Flags (spec.md §3).
const (
	FlagHidden = 1 << iota
	FlagChapterHidden
	FlagNeedLogin
	FlagLocked
)

// TriState is a three-way status filter: ignore the bit, require it clear,
// or require it set.
type TriState int

const (
	Any TriState = iota
	Only0
	Only1
)

func (t TriState) passes(bit bool) bool {
	switch t {
	case Only0:
		return !bit
	case Only1:
		return bit
	default:
		return true
	}
}

// StatusFilters is the tri-state filter set over Doc.Flags (spec.md §4.4).
type StatusFilters struct {
	Hidden        TriState
	ChapterHidden TriState
	NeedLogin     TriState
	Locked        TriState
}

// Passes reports whether flags satisfies every configured status filter.
func (f StatusFilters) Passes(flags uint8) bool {
	return f.Hidden.passes(flags&FlagHidden != 0) &&
		f.ChapterHidden.passes(flags&FlagChapterHidden != 0) &&
		f.NeedLogin.passes(flags&FlagNeedLogin != 0) &&
		f.Locked.passes(flags&FlagLocked != 0)
}

// SortMode selects the ranker's ordering (spec.md §4.6).
type SortMode int

const (
	SortRelevance SortMode = iota
	SortIDAsc
	SortIDDesc
)

// SearchRequest is one query as submitted to Engine.Search.
type SearchRequest struct {
	Query        string
	SelectedBits []int // tag bits the UI has selected (AND: all must be present)
	ExcludedBits []int // tag bits the UI has excluded (none may be present)
	Status       StatusFilters
	Sort         SortMode
	Page         int // 1-based
	Size         int
}

// SearchResult is the ranked, paginated response.
type SearchResult struct {
	Docs    []Doc
	Total   int
	Page    int
	Size    int
	HasMore bool
}
