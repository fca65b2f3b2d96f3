package engine

import (
	"encoding/binary"
	"hash/fnv"

	"golang.org/x/crypto/blake2b"
)

// bloomSize/bloomK mirror jpl-au-folio/bloom.go's sizing (~10k entries at
// 1% false-positive rate), since the local cache's working set — distinct
// SHA-256 hashes currently resident — is the same order of magnitude as
// the teacher's sparse-region record count.
const (
	bloomSize = 11982 // bytes, ~96k bits
	bloomK    = 7      // number of hash functions
)

// bloomFilter is an in-memory membership filter over the set of content
// hashes currently resident in the local cache, adapted from
// jpl-au-folio/bloom.go. Double hashing there combines FNV-64a and
// FNV-32a; here it combines blake2b (64-bit) and FNV-32a, since
// golang.org/x/crypto is a teacher dependency with no other home once
// content hashing is fixed to SHA-256 by the wire contract (DESIGN.md).
type bloomFilter struct {
	bits []byte
}

func newBloomFilter() *bloomFilter {
	return &bloomFilter{bits: make([]byte, bloomSize)}
}

// add inserts key (a hex SHA-256 string) into the filter.
func (b *bloomFilter) add(key string) {
	for _, pos := range bloomPositions(key) {
		b.bits[pos/8] |= 1 << (pos % 8)
	}
}

// maybeContains reports whether key might be present. false is a hard
// guarantee of absence; true requires a real lookup to confirm.
func (b *bloomFilter) maybeContains(key string) bool {
	for _, pos := range bloomPositions(key) {
		if b.bits[pos/8]&(1<<(pos%8)) == 0 {
			return false
		}
	}
	return true
}

func bloomPositions(key string) [bloomK]uint {
	sum := blake2b.Sum512([]byte(key))
	a := binary.LittleEndian.Uint64(sum[:8])

	h32 := fnv.New32a()
	h32.Write([]byte(key))
	b := uint(h32.Sum32())

	nbits := uint(bloomSize * 8)
	var pos [bloomK]uint
	for i := 0; i < bloomK; i++ {
		pos[i] = (uint(a) + uint(i)*b) % nbits
	}
	return pos
}
