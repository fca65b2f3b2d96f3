package build

import "sort"

// MaxTagBits is the number of assignable tag slots (spec.md §3: "bitset
// over up to 50 tag slots").
const MaxTagBits = 50

// TagRecord is one assigned tag, as emitted to tags.json.
type TagRecord struct {
	TagID int32
	Name  string
	Count int
	Bit   int
}

// AssignTags computes per-tag document frequency across rows, sorts by
// (count desc, tagId asc), and assigns the first MaxTagBits tags bits
// 0..49. Remaining tags are dropped and returned separately so the caller
// can log a build warning. names maps external tagId to its display name;
// a tagId absent from names gets an empty name.
func AssignTags(rows []Row, names map[int32]string) (assigned []TagRecord, dropped []int32) {
	counts := make(map[int32]int)
	for _, r := range rows {
		for _, t := range r.Tags {
			counts[t]++
		}
	}

	ids := make([]int32, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})

	for i, id := range ids {
		if i >= MaxTagBits {
			dropped = append(dropped, ids[i:]...)
			break
		}
		assigned = append(assigned, TagRecord{
			TagID: id,
			Name:  tagName(names, id),
			Count: counts[id],
			Bit:   i,
		})
	}
	return assigned, dropped
}

func tagName(names map[int32]string, id int32) string {
	if n, ok := names[id]; ok {
		return n
	}
	return ""
}

// BitsFor resolves a row's external tagIds into the (tagLo, tagHi) bitset
// using the bit assignment in byBit (built from AssignTags's output).
// TagIds with no assigned bit (dropped for exceeding MaxTagBits) are
// silently omitted — spec.md §4.2 step 2 treats this as a build warning,
// not a per-row error.
func BitsFor(tagIDs []int32, byBit map[int32]int) (lo, hi uint32) {
	for _, id := range tagIDs {
		bit, ok := byBit[id]
		if !ok {
			continue
		}
		if bit < 32 {
			lo |= 1 << uint(bit)
		} else {
			hi |= 1 << uint(bit-32)
		}
	}
	return lo, hi
}

// BitIndex builds the tagId -> bit lookup used by BitsFor from AssignTags's
// assigned slice.
func BitIndex(assigned []TagRecord) map[int32]int {
	idx := make(map[int32]int, len(assigned))
	for _, t := range assigned {
		idx[t.TagID] = t.Bit
	}
	return idx
}
