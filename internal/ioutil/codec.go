package ioutil

import (
	"encoding/binary"
	"io"
)

// Uint16 and Uint32 decode little-endian integers the way
// NewRawDirentFromBytes does for on-disk dirent fields: no platform
// endianness is ever assumed.
func Uint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func Uint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// PutUint16 and PutUint32 are the write-side counterparts.
func PutUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func PutUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// sliceReader satisfies io.Reader over an already-fetched buffer, avoiding a
// bytes.Reader allocation just to hand binary.Read something to call Read
// on.
type sliceReader struct {
	b   []byte
	pos int
}

// NewSliceReader wraps b for use with binary.Read.
func NewSliceReader(b []byte) io.Reader { return &sliceReader{b: b} }

func (r *sliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}
