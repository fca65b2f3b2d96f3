package format

import "errors"

// Sentinel errors for artifact decoding, checked with errors.Is by callers
// that need to distinguish "not found" from "corrupt" conditions.
var (
	ErrShortHeader    = errors.New("zmh: artifact shorter than its header")
	ErrBadMagic       = errors.New("zmh: artifact has wrong magic bytes")
	ErrUnknownVersion = errors.New("zmh: artifact has unsupported schema version")
	ErrTruncated      = errors.New("zmh: artifact truncated before expected section end")
)
