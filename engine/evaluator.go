package engine

import (
	"math"
	"sort"

	"github.com/jpl-au/zmh/internal/normalize"
	"github.com/jpl-au/zmh/internal/varint"
)

// ShardBytes returns the byte pool for shardID, loading it first if it
// isn't resident — the loader's ensureIndexForTokens contract (spec.md
// §4.3).
type ShardBytes func(shardID uint8) ([]byte, error)

// coverageThreshold returns minHit for a term whose normalized form
// produced k distinct n-grams: ceil(k*0.6), floored at 1 and capped at k
// (spec.md §4.5 step 3 / §4.5's exclude-mask note — the same formula
// serves both; the min(k, ...) clamp in spec.md's include-term formula is
// a no-op given ceil(k*0.6) <= k for any k >= 1, so one helper covers
// both call sites).
func coverageThreshold(k int) int {
	if k <= 0 {
		return 0
	}
	need := int(math.Ceil(float64(k) * 0.6))
	if need < 1 {
		need = 1
	}
	if need > k {
		need = k
	}
	return need
}

// matchTerm decodes every posting list for term's n-grams and returns the
// per-doc hit count (spec.md §4.5 steps 1-4) plus k, the number of
// distinct n-grams term produced.
func matchTerm(term string, dict *Dict, loadShard ShardBytes) (hits map[int32]int, k int, err error) {
	tokens := normalize.NGrams(term, normalize.N)
	k = len(tokens)
	if k == 0 {
		return nil, 0, nil
	}

	type kept struct {
		idx int
		df  uint16
	}
	var indices []kept
	for _, tok := range tokens {
		key, ok := normalize.TokenKey(tok)
		if !ok {
			continue
		}
		idx, found := dict.Lookup(key)
		if !found {
			continue
		}
		indices = append(indices, kept{idx: idx, df: dict.df(idx)})
	}
	if len(indices) == 0 {
		return nil, k, nil
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i].df < indices[j].df })

	hits = make(map[int32]int)
	for _, e := range indices {
		shardBytes, err := loadShard(dict.shardID(e.idx))
		if err != nil {
			return nil, k, err
		}
		raw := dict.PostingSlice(shardBytes, e.idx)
		varint.Decode(raw, func(docID int32) bool {
			hits[docID]++
			return true
		})
	}
	return hits, k, nil
}

// tagPasses applies the bitset filter: all selected tags present, none of
// the excluded tags present (spec.md §4.4).
func tagPasses(d Doc, p Plan) bool {
	if d.TagLo&p.SelectedLo != p.SelectedLo || d.TagHi&p.SelectedHi != p.SelectedHi {
		return false
	}
	if d.TagLo&p.ExcludedLo != 0 || d.TagHi&p.ExcludedHi != 0 {
		return false
	}
	return true
}

// excludeMask returns the set of doc-ids matching any exclude term at the
// same coverage threshold used for include terms (spec.md §4.5's
// "Exclude mask" paragraph).
func excludeMask(exclude []string, dict *Dict, loadShard ShardBytes) (map[int32]struct{}, error) {
	mask := make(map[int32]struct{})
	for _, term := range exclude {
		hits, k, err := matchTerm(term, dict, loadShard)
		if err != nil {
			return nil, err
		}
		min := coverageThreshold(k)
		for id, c := range hits {
			if c >= min {
				mask[id] = struct{}{}
			}
		}
	}
	return mask, nil
}

// hasActiveFilter reports whether any tag or status filter is non-identity
// — spec.md §4.5's no-include-terms edge case hinges on this.
func (p Plan) hasActiveFilter() bool {
	if p.SelectedLo != 0 || p.SelectedHi != 0 || p.ExcludedLo != 0 || p.ExcludedHi != 0 {
		return true
	}
	return p.Status.Hidden != Any || p.Status.ChapterHidden != Any ||
		p.Status.NeedLogin != Any || p.Status.Locked != Any
}

// Evaluate runs the full posting-evaluator pipeline (C5): exclude mask,
// per-include-term candidate sets intersected via AND, and the edge cases
// of spec.md §4.5. The returned map's values are each candidate's base
// relevance score contribution (sum of hitCount/k across include terms) —
// zero for every doc when there are no include terms at all.
func Evaluate(plan Plan, dict *Dict, loadShard ShardBytes, meta *MetaIndex) (map[int32]float64, error) {
	excluded, err := excludeMask(plan.Exclude, dict, loadShard)
	if err != nil {
		return nil, err
	}

	passesFilters := func(docID int32) bool {
		if _, ok := excluded[docID]; ok {
			return false
		}
		d := meta.DocByID(docID)
		return tagPasses(d, plan) && plan.Status.Passes(d.Flags)
	}

	if len(plan.Include) == 0 {
		if !plan.hasActiveFilter() {
			return map[int32]float64{}, nil
		}
		all := make(map[int32]float64)
		for _, d := range meta.All() {
			if passesFilters(d.DocID) {
				all[d.DocID] = 0
			}
		}
		return all, nil
	}

	var candidates map[int32]float64
	for i, term := range plan.Include {
		hits, k, err := matchTerm(term, dict, loadShard)
		if err != nil {
			return nil, err
		}
		min := coverageThreshold(k)
		cov := make(map[int32]float64, len(hits))
		for id, c := range hits {
			if c >= min && passesFilters(id) {
				cov[id] = float64(c) / float64(k)
			}
		}
		if i == 0 {
			candidates = cov
		} else {
			next := make(map[int32]float64, len(candidates))
			for id, score := range candidates {
				if add, ok := cov[id]; ok {
					next[id] = score + add
				}
			}
			candidates = next
		}
		if len(candidates) == 0 {
			break
		}
	}
	return candidates, nil
}
