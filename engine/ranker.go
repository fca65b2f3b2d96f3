package engine

import (
	"sort"
	"strings"

	"github.com/jpl-au/zmh/internal/normalize"
)

const (
	titleBonus   = 1.4
	aliasBonus   = 0.6
	authorsBonus = 0.4
)

// scored pairs a doc with its final relevance score, kept alongside the
// doc itself so Rank never has to re-fetch from the MetaIndex while
// sorting.
type scored struct {
	doc   Doc
	score float64
}

// fullTextBonus adds spec.md §4.6's substring bonus: each include term
// that appears (after normalization) in the doc's title, aliases, or
// authors adds a fixed bonus, independent of the n-gram coverage score.
func fullTextBonus(d Doc, include []string) float64 {
	if len(include) == 0 {
		return 0
	}
	title := normalize.Normalize(d.Title)
	aliases := normalize.Normalize(strings.Join(d.Aliases, " "))
	authors := normalize.Normalize(strings.Join(d.Authors, " "))

	var bonus float64
	for _, term := range include {
		if strings.Contains(title, term) {
			bonus += titleBonus
		}
		if strings.Contains(aliases, term) {
			bonus += aliasBonus
		}
		if strings.Contains(authors, term) {
			bonus += authorsBonus
		}
	}
	return bonus
}

// Rank applies the full-text bonus, sorts by plan.Sort, and paginates
// (C6). candidates maps doc-id to the base n-gram coverage score produced
// by Evaluate.
func Rank(candidates map[int32]float64, meta *MetaIndex, plan Plan) SearchResult {
	items := make([]scored, 0, len(candidates))
	for docID, base := range candidates {
		d := meta.DocByID(docID)
		items = append(items, scored{doc: d, score: base + fullTextBonus(d, plan.Include)})
	}

	switch plan.Sort {
	case SortIDAsc:
		sort.Slice(items, func(i, j int) bool { return items[i].doc.ExternalID < items[j].doc.ExternalID })
	case SortIDDesc:
		sort.Slice(items, func(i, j int) bool { return items[i].doc.ExternalID > items[j].doc.ExternalID })
	default: // SortRelevance
		sort.Slice(items, func(i, j int) bool {
			if items[i].score != items[j].score {
				return items[i].score > items[j].score
			}
			return items[i].doc.ExternalID > items[j].doc.ExternalID
		})
	}

	total := len(items)
	start := (plan.Page - 1) * plan.Size
	if start > total {
		start = total
	}
	end := start + plan.Size
	if end > total {
		end = total
	}

	page := make([]Doc, 0, end-start)
	for _, it := range items[start:end] {
		page = append(page, it.doc)
	}

	return SearchResult{
		Docs:    page,
		Total:   total,
		Page:    plan.Page,
		Size:    plan.Size,
		HasMore: end < total,
	}
}
