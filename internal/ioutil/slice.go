package ioutil

import (
	"io"

	"github.com/brinklabs/fatfs/errors"
)

// Slice is a bounded view over a BackingStore: an (offset, length) window,
// optionally describing Mirrors copies spaced Length bytes apart. Reads
// clamp to the window and a write that would pass its end is rejected, so
// neither silently touches the next region on disk; Seek does not bound the
// cursor. This is the
// "disk slice" the teacher's BlockDevice/BlockStream pair models for a
// single region; Slice generalizes it to the directory's notion of a
// bounded byte range instead of a block-counted one.
type Slice struct {
	store   BackingStore
	Offset  int64
	Length  int64
	Mirrors int

	pos int64
}

// NewSlice returns a Slice over store starting at offset and extending for
// length bytes, with mirrors-1 additional copies immediately following (pass
// mirrors=1 for an unmirrored region such as a directory or the root area).
func NewSlice(store BackingStore, offset, length int64, mirrors int) *Slice {
	if mirrors < 1 {
		mirrors = 1
	}
	return &Slice{store: store, Offset: offset, Length: length, Mirrors: mirrors}
}

func (s *Slice) Pos() int64 { return s.pos }

// Seek repositions the slice-relative cursor. io.SeekEnd is relative to
// Length; a negative result is rejected.
func (s *Slice) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.pos + offset
	case io.SeekEnd:
		newPos = s.Length + offset
	default:
		return s.pos, errors.ErrInvalidArgument.WithMessage("unsupported seek origin")
	}
	if newPos < 0 {
		return s.pos, errors.ErrInvalidArgument.WithMessage("negative seek result")
	}
	s.pos = newPos
	return newPos, nil
}

// ReadAt reads len(p) bytes from the primary copy of the slice at the given
// slice-relative offset, clamped to Length.
func (s *Slice) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= s.Length {
		return 0, io.EOF
	}
	n := len(p)
	if off+int64(n) > s.Length {
		n = int(s.Length - off)
	}
	read, err := s.store.ReadAt(p[:n], s.Offset+off)
	if err != nil && err != io.EOF {
		return read, errors.ErrIOFailed.WrapError(err)
	}
	return read, nil
}

// WriteAt writes p at the given slice-relative offset into the primary copy
// (index 0) only. Mirror copies are not written here: mirroring is
// best-effort fan-out, handled explicitly by the filesystem facade's Flush
// (see fat.FileSystem.Flush), not by every WriteAt call.
func (s *Slice) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > s.Length {
		return 0, errors.ErrInvalidArgument.WithMessage("write out of slice bounds")
	}
	n, err := s.store.WriteAt(p, s.Offset+off)
	if err != nil {
		return n, errors.ErrIOFailed.WrapError(err)
	}
	return n, nil
}

// MirrorOffset returns the absolute store offset of copy index (0 is the
// primary).
func (s *Slice) MirrorOffset(index int) int64 {
	return s.Offset + int64(index)*s.Length
}

// Read implements io.Reader using the slice's internal cursor.
func (s *Slice) Read(p []byte) (int, error) {
	n, err := s.ReadAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}

// Write implements io.Writer using the slice's internal cursor.
func (s *Slice) Write(p []byte) (int, error) {
	n, err := s.WriteAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}
