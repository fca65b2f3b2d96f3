package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jpl-au/zmh/internal/normalize"
)

// Plan is the resolved output of the query planner (C4): normalized,
// deduplicated include/exclude term lists, resolved tag bitmasks, status
// filters, sort mode, and pagination — plus a canonical cache key.
type Plan struct {
	Include     []string
	Exclude     []string
	SelectedLo  uint32
	SelectedHi  uint32
	ExcludedLo  uint32
	ExcludedHi  uint32
	Status      StatusFilters
	Sort        SortMode
	Page        int
	Size        int
}

// fullwidthHyphen is U+FF0D, an alternate exclusion-term prefix spec.md
// §4.4 names alongside ASCII '-'.
const fullwidthHyphen = '－'

// BuildPlan resolves a SearchRequest into a Plan (spec.md §4.4).
func BuildPlan(req SearchRequest) Plan {
	include, exclude := parseQuery(req.Query)

	p := Plan{
		Include: include,
		Exclude: exclude,
		Status:  req.Status,
		Sort:    req.Sort,
		Page:    req.Page,
		Size:    req.Size,
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = 1
	}
	for _, b := range req.SelectedBits {
		setBit(&p.SelectedLo, &p.SelectedHi, b)
	}
	for _, b := range req.ExcludedBits {
		setBit(&p.ExcludedLo, &p.ExcludedHi, b)
	}
	return p
}

func setBit(lo, hi *uint32, bit int) {
	if bit < 0 || bit > 63 {
		return
	}
	if bit < 32 {
		*lo |= 1 << uint(bit)
	} else {
		*hi |= 1 << uint(bit-32)
	}
}

// parseQuery implements spec.md §4.4's syntax: whitespace split; '-' or
// U+FF0D prefix marks exclusion; normalize each term's body, discarding
// normalized terms shorter than 2 characters; dedup within each list, with
// exclude winning any term present in both; sort both lists for a stable
// cache key.
func parseQuery(query string) (include, exclude []string) {
	inc := make(map[string]struct{})
	exc := make(map[string]struct{})

	for _, field := range strings.Fields(query) {
		runes := []rune(field)
		isExclude := false
		body := field
		if len(runes) > 0 && (runes[0] == '-' || runes[0] == fullwidthHyphen) {
			isExclude = true
			body = string(runes[1:])
		}
		norm := normalize.Normalize(body)
		if len([]rune(norm)) < 2 {
			continue
		}
		if isExclude {
			exc[norm] = struct{}{}
		} else {
			inc[norm] = struct{}{}
		}
	}

	// A term in both lists is treated only as exclude (spec.md §4.4,
	// tested by spec.md §8's "exclusion dominance" law).
	for t := range exc {
		delete(inc, t)
	}

	include = mapKeysSorted(inc)
	exclude = mapKeysSorted(exc)
	return include, exclude
}

func mapKeysSorted(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CacheKey returns the canonical string the result cache keys on — any
// change in any planner field must change this key (spec.md §4.6).
func (p Plan) CacheKey() string {
	var b strings.Builder
	b.WriteString("inc=")
	b.WriteString(strings.Join(p.Include, ","))
	b.WriteString("|exc=")
	b.WriteString(strings.Join(p.Exclude, ","))
	fmt.Fprintf(&b, "|sel=%d:%d|xsel=%d:%d", p.SelectedLo, p.SelectedHi, p.ExcludedLo, p.ExcludedHi)
	fmt.Fprintf(&b, "|status=%d:%d:%d:%d", p.Status.Hidden, p.Status.ChapterHidden, p.Status.NeedLogin, p.Status.Locked)
	b.WriteString("|sort=")
	b.WriteString(strconv.Itoa(int(p.Sort)))
	fmt.Fprintf(&b, "|page=%d|size=%d", p.Page, p.Size)
	return b.String()
}
