package format

// EncodeStringPool packs strs into a string pool section: a u32 offsets
// array of length len(strs)+1, followed by the concatenated UTF-8 bytes.
// offsets[i]..offsets[i+1] bounds the i-th string. The result is NOT
// padded to 4 bytes; callers append AppendPad4 themselves so the padding
// decision stays visible at the call site next to the other sections.
func EncodeStringPool(strs []string) []byte {
	n := len(strs)
	out := make([]byte, 0, 4*(n+1)+16*n)

	offsets := make([]uint32, n+1)
	var pool []byte
	for i, s := range strs {
		offsets[i] = uint32(len(pool))
		pool = append(pool, s...)
	}
	offsets[n] = uint32(len(pool))

	for _, o := range offsets {
		out = PutU32(out, o)
	}
	out = append(out, pool...)
	return out
}

// StringPoolView is a zero-copy accessor over an already-decoded string
// pool section: offsets are read directly from the backing buffer on each
// call rather than materialised into a []uint32.
type StringPoolView struct {
	buf     []byte // the full offsets+pool section, starting at offset 0
	count   int    // number of strings (offsets has count+1 entries)
	poolOff int    // byte offset within buf where the pool bytes begin
}

// ReadStringPool interprets buf[off:] as a string pool of count strings
// and returns a view plus the number of bytes consumed (unpadded).
func ReadStringPool(buf []byte, off, count int) (StringPoolView, int, error) {
	need := off + 4*(count+1)
	if need > len(buf) {
		return StringPoolView{}, 0, ErrTruncated
	}
	section := buf[off:]
	poolOff := 4 * (count + 1)
	poolLen := int(U32At(section, 4*count))
	total := poolOff + poolLen
	if off+total > len(buf) {
		return StringPoolView{}, 0, ErrTruncated
	}
	return StringPoolView{buf: section[:total], count: count, poolOff: poolOff}, total, nil
}

// At returns the i-th string in the pool.
func (v StringPoolView) At(i int) string {
	start := int(U32At(v.buf, 4*i))
	end := int(U32At(v.buf, 4*(i+1)))
	return string(v.buf[v.poolOff+start : v.poolOff+end])
}

// Count returns the number of strings in the pool.
func (v StringPoolView) Count() int {
	return v.count
}
