// Package format encodes and decodes the on-disk binary contract shared by
// the builder (writer) and the runtime engine (reader): the 16-byte
// section headers, 4-byte-aligned string pools, and the little-endian
// parallel-array layout used by meta and dict shards.
//
// Every section is kept 4-byte aligned on write so the reader can address
// u32/u16 arrays directly off the backing byte slice with
// encoding/binary, without an intermediate copy — the zero-copy
// typed-slice discipline spec.md's design notes call for.
package format

import "encoding/binary"

// Magic values identify each artifact's binary header.
var (
	MetaMagic = [4]byte{'Z', 'M', 'H', 'm'}
	DictMagic = [4]byte{'Z', 'M', 'H', 'd'}
)

// CurrentVersion is the schema version stamped into every header.
const CurrentVersion = 1

// DefaultSepCode is the Unit Separator (U+001F) used to join multi-value
// text fields (authors, aliases) inside a single string-pool slot.
const DefaultSepCode = 0x001F

// HeaderSize is the fixed size, in bytes, of every artifact's leading
// header.
const HeaderSize = 16

// Pad4Len returns the number of zero bytes needed to bring n up to the
// next multiple of 4.
func Pad4Len(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}

// AppendPad4 appends zero bytes to buf until its length is a multiple of
// 4, returning the extended slice.
func AppendPad4(buf []byte) []byte {
	for n := Pad4Len(len(buf)); n > 0; n-- {
		buf = append(buf, 0)
	}
	return buf
}

// PutU32 appends a little-endian uint32.
func PutU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

// PutU16 appends a little-endian uint16.
func PutU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

// U32At reads a little-endian uint32 at byte offset off in buf.
func U32At(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+4])
}

// U16At reads a little-endian uint16 at byte offset off in buf.
func U16At(buf []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(buf[off : off+2])
}

// MetaHeader is the 16-byte header at the start of every meta shard.
type MetaHeader struct {
	Version uint16
	SepCode uint16
	Count   uint32
	BaseCnt uint32
}

// EncodeMetaHeader serialises h to its 16-byte wire form.
func EncodeMetaHeader(h MetaHeader) []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = append(buf, MetaMagic[:]...)
	buf = PutU16(buf, h.Version)
	buf = PutU16(buf, h.SepCode)
	buf = PutU32(buf, h.Count)
	buf = PutU32(buf, h.BaseCnt)
	return buf
}

// DecodeMetaHeader parses a 16-byte meta header. It returns an error if
// the magic or version do not match what this build understands.
func DecodeMetaHeader(buf []byte) (MetaHeader, error) {
	var h MetaHeader
	if len(buf) < HeaderSize {
		return h, ErrShortHeader
	}
	if [4]byte(buf[0:4]) != MetaMagic {
		return h, ErrBadMagic
	}
	h.Version = U16At(buf, 4)
	if h.Version != CurrentVersion {
		return h, ErrUnknownVersion
	}
	h.SepCode = U16At(buf, 6)
	h.Count = U32At(buf, 8)
	h.BaseCnt = U32At(buf, 12)
	return h, nil
}

// DictHeader is the 16-byte header at the start of dict.bin.
type DictHeader struct {
	Version uint16
	N       uint16
	Count   uint32
	// Reserved is written as zero and ignored on read.
}

// EncodeDictHeader serialises h to its 16-byte wire form.
func EncodeDictHeader(h DictHeader) []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = append(buf, DictMagic[:]...)
	buf = PutU16(buf, h.Version)
	buf = PutU16(buf, h.N)
	buf = PutU32(buf, h.Count)
	buf = PutU32(buf, 0)
	return buf
}

// DecodeDictHeader parses a 16-byte dict header.
func DecodeDictHeader(buf []byte) (DictHeader, error) {
	var h DictHeader
	if len(buf) < HeaderSize {
		return h, ErrShortHeader
	}
	if [4]byte(buf[0:4]) != DictMagic {
		return h, ErrBadMagic
	}
	h.Version = U16At(buf, 4)
	if h.Version != CurrentVersion {
		return h, ErrUnknownVersion
	}
	h.N = U16At(buf, 6)
	h.Count = U32At(buf, 8)
	return h, nil
}
