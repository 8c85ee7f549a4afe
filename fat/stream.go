package fat

import (
	"io"

	"github.com/brinklabs/fatfs/errors"
	"github.com/brinklabs/fatfs/internal/ioutil"
)

// Stream is the cluster-chain stream abstraction (component E): a byte
// stream over either a fixed disk region (the FAT12/16 root directory) or a
// cluster chain (every other directory, and every regular file). Per the
// design note in spec.md §9, this is a single tagged type rather than a
// virtual-method hierarchy -- the two modes differ only in cluster
// translation and extension policy, which the two branches below encode
// directly instead of through polymorphism.
type Stream struct {
	fs *FileSystem

	// fixed is non-nil for the FAT12/16 root directory: a bounded region
	// with no cluster chain and no extension.
	fixed *ioutil.Slice

	// Cluster-chain mode fields (unused when fixed != nil).
	firstCluster   uint32
	hasCurrent     bool
	currentCluster uint32
	currentIndex   int64 // index of currentCluster within the chain; -1 when hasCurrent is false

	sizeKnown bool
	size      uint32
	offset    uint32

	editor *entryEditor
}

// newChainStream builds a cluster-chain Stream. sizeKnown/size apply to
// regular files; directories (including the FAT32 root, which has no
// owning editor) pass sizeKnown=false.
func (fs *FileSystem) newChainStream(firstCluster uint32, editor *entryEditor, sizeKnown bool, size uint32) *Stream {
	s := &Stream{
		fs:           fs,
		firstCluster: firstCluster,
		currentIndex: -1,
		sizeKnown:    sizeKnown,
		size:         size,
		editor:       editor,
	}
	return s
}

func (s *Stream) clusterSize() uint32 { return s.fs.geom.ClusterSize() }

// Size returns the stream's current size if known (regular files); ok is
// false for directories, whose length isn't tracked as a byte count.
func (s *Stream) Size() (size uint32, ok bool) { return s.size, s.sizeKnown }

// Offset returns the stream's current read/write position.
func (s *Stream) Offset() uint32 { return s.offset }

// advance implements the boundary-crossing step common to Read and Write:
// spec.md §4.3's "Boundary case". forWrite controls whether running off the
// end of the chain allocates a new cluster or simply stops.
func (s *Stream) advance(forWrite bool) (atEnd bool, err error) {
	clusterSize := s.clusterSize()
	if s.offset%clusterSize != 0 {
		return false, nil
	}

	if !s.hasCurrent {
		if s.firstCluster != 0 {
			s.currentCluster = s.firstCluster
			s.hasCurrent = true
			s.currentIndex = 0
			return false, nil
		}
		if !forWrite {
			return true, nil
		}
		newCluster, err := s.fs.table.AllocCluster(0, false)
		if err != nil {
			return false, err
		}
		s.firstCluster = newCluster
		if s.editor != nil {
			if err := s.editor.SetFirstCluster(newCluster); err != nil {
				return false, err
			}
		}
		if !s.sizeKnown {
			if err := s.zeroFillCluster(newCluster); err != nil {
				return false, err
			}
		}
		s.currentCluster = newCluster
		s.hasCurrent = true
		s.currentIndex = 0
		return false, nil
	}

	entry, err := s.fs.table.Read(s.currentCluster)
	if err != nil {
		return false, err
	}
	if next, ok := entry.Next(); ok {
		s.currentCluster = next
		s.currentIndex++
		return false, nil
	}

	if !forWrite {
		return true, nil
	}

	newCluster, err := s.fs.table.AllocCluster(s.currentCluster, true)
	if err != nil {
		return false, err
	}
	if !s.sizeKnown {
		if err := s.zeroFillCluster(newCluster); err != nil {
			return false, err
		}
	}
	s.currentCluster = newCluster
	s.currentIndex++
	return false, nil
}

func (s *Stream) zeroFillCluster(cluster uint32) error {
	return zeroFillCluster(s.fs, cluster)
}

// zeroFillCluster writes a full cluster of zero bytes, the on-disk state a
// freshly allocated directory cluster needs so every slot in it reads back
// as an end-of-directory marker. Shared by Stream's on-demand directory
// extension and Dir.CreateDir's explicit cluster allocation.
func zeroFillCluster(fs *FileSystem, cluster uint32) error {
	zeros := make([]byte, fs.geom.ClusterSize())
	if _, err := fs.store.WriteAt(zeros, fs.geom.OffsetOfCluster(cluster)); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// Read implements spec.md §4.3's Read algorithm. It never spans more than
// one cluster; callers loop to read across cluster boundaries.
func (s *Stream) Read(buf []byte) (int, error) {
	if s.fixed != nil {
		return s.readFixed(buf)
	}

	atEnd, err := s.advance(false)
	if err != nil {
		return 0, err
	}
	if atEnd || !s.hasCurrent {
		return 0, nil
	}

	clusterSize := s.clusterSize()
	offsetInCluster := s.offset % clusterSize
	bytesLeft := clusterSize - offsetInCluster

	n := len(buf)
	if uint32(n) > bytesLeft {
		n = int(bytesLeft)
	}
	if s.sizeKnown {
		remaining := int64(s.size) - int64(s.offset)
		if remaining <= 0 {
			return 0, nil
		}
		if int64(n) > remaining {
			n = int(remaining)
		}
	}
	if n <= 0 {
		return 0, nil
	}

	absOffset := s.fs.geom.OffsetOfCluster(s.currentCluster) + int64(offsetInCluster)
	read, err := s.fs.store.ReadAt(buf[:n], absOffset)
	if err != nil && err != io.EOF {
		return read, errors.ErrIOFailed.WrapError(err)
	}
	s.offset += uint32(read)
	return read, nil
}

// Write implements spec.md §4.3's Write algorithm: it extends the chain on
// demand and never spans more than one cluster per call.
func (s *Stream) Write(buf []byte) (int, error) {
	if s.fixed != nil {
		return s.writeFixed(buf)
	}

	if _, err := s.advance(true); err != nil {
		return 0, err
	}

	clusterSize := s.clusterSize()
	offsetInCluster := s.offset % clusterSize
	bytesLeft := clusterSize - offsetInCluster

	n := len(buf)
	if uint32(n) > bytesLeft {
		n = int(bytesLeft)
	}

	absOffset := s.fs.geom.OffsetOfCluster(s.currentCluster) + int64(offsetInCluster)
	written, err := s.fs.store.WriteAt(buf[:n], absOffset)
	if err != nil {
		return written, errors.ErrIOFailed.WrapError(err)
	}

	s.offset += uint32(written)
	if s.sizeKnown && s.offset > s.size {
		s.size = s.offset
		if s.editor != nil {
			if err := s.editor.SetSize(s.size); err != nil {
				return written, err
			}
		}
	}
	if s.editor != nil {
		s.editor.MarkDirty()
	}
	return written, nil
}

// Seek implements spec.md §4.3's Seek algorithm, including the
// "previous-cluster-at-boundary" convention and the clamp-to-last-reachable
// behavior when a chain is shorter than expected.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.fixed != nil {
		return s.seekFixed(offset, whence)
	}

	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = int64(s.offset) + offset
	case io.SeekEnd:
		if !s.sizeKnown {
			return int64(s.offset), errors.ErrInvalidArgument.WithMessage("seek from end requires a known size")
		}
		newPos = int64(s.size) + offset
	default:
		return int64(s.offset), errors.ErrInvalidArgument.WithMessage("unsupported seek origin")
	}

	if newPos < 0 {
		return int64(s.offset), errors.ErrInvalidArgument.WithMessage("negative seek result")
	}
	if s.sizeKnown && newPos > int64(s.size) {
		newPos = int64(s.size)
	}

	if newPos == int64(s.offset) {
		return newPos, nil
	}

	if newPos == 0 {
		s.offset = 0
		s.hasCurrent = false
		s.currentCluster = 0
		s.currentIndex = -1
		return 0, nil
	}

	clusterSize := int64(s.clusterSize())
	targetIndex := (newPos - 1) / clusterSize

	if s.hasCurrent && targetIndex == s.currentIndex {
		s.offset = uint32(newPos)
		return newPos, nil
	}

	if s.firstCluster == 0 {
		s.offset = 0
		s.hasCurrent = false
		s.currentIndex = -1
		return 0, nil
	}

	cluster := s.firstCluster
	idx := int64(0)
	for idx < targetIndex {
		entry, err := s.fs.table.Read(cluster)
		if err != nil {
			return int64(s.offset), err
		}
		next, ok := entry.Next()
		if !ok {
			s.currentCluster = cluster
			s.currentIndex = idx
			s.hasCurrent = true
			s.offset = uint32((idx + 1) * clusterSize)
			return int64(s.offset), nil
		}
		cluster = next
		idx++
	}

	s.currentCluster = cluster
	s.currentIndex = idx
	s.hasCurrent = true
	s.offset = uint32(newPos)
	return newPos, nil
}

// Truncate implements spec.md §4.3's Truncate algorithm.
func (s *Stream) Truncate() error {
	if s.fixed != nil {
		return errors.ErrNotSupported.WithMessage("the root directory region cannot be truncated")
	}

	if s.offset == 0 || !s.hasCurrent {
		if s.firstCluster != 0 {
			it := NewClusterIterator(s.fs.table, s.firstCluster)
			if err := it.Free(); err != nil {
				return err
			}
		}
		s.firstCluster = 0
		s.hasCurrent = false
		s.currentCluster = 0
		s.currentIndex = -1
		if s.editor != nil {
			if err := s.editor.SetFirstCluster(0); err != nil {
				return err
			}
		}
	} else {
		it := NewClusterIterator(s.fs.table, s.currentCluster)
		if err := it.Truncate(); err != nil {
			return err
		}
	}

	if s.sizeKnown {
		s.size = s.offset
		if s.editor != nil {
			if err := s.editor.SetSize(s.size); err != nil {
				return err
			}
		}
	}
	if s.editor != nil {
		s.editor.MarkDirty()
	}
	return nil
}

// readRecord reads one 32-byte directory record and reports the absolute
// on-disk offset it came from, for the directory engine's use -- a
// dedicated method rather than a composition of Seek/Read because it needs
// the resolved cluster address Read's public signature doesn't expose.
func (s *Stream) readRecord() (rec [RecordSize]byte, absOffset int64, ok bool, err error) {
	if s.fixed != nil {
		if int64(s.offset)+RecordSize > s.fixed.Length {
			return rec, 0, false, nil
		}
		abs := s.fixed.Offset + int64(s.offset)
		buf := make([]byte, RecordSize)
		n, err := s.fixed.ReadAt(buf, int64(s.offset))
		if err != nil && err != io.EOF {
			return rec, 0, false, err
		}
		if n < RecordSize {
			return rec, 0, false, nil
		}
		copy(rec[:], buf)
		s.offset += RecordSize
		return rec, abs, true, nil
	}

	atEnd, err := s.advance(false)
	if err != nil {
		return rec, 0, false, err
	}
	if atEnd || !s.hasCurrent {
		return rec, 0, false, nil
	}

	clusterSize := s.clusterSize()
	offsetInCluster := s.offset % clusterSize
	abs := s.fs.geom.OffsetOfCluster(s.currentCluster) + int64(offsetInCluster)
	buf := make([]byte, RecordSize)
	n, err := s.fs.store.ReadAt(buf, abs)
	if err != nil && err != io.EOF {
		return rec, 0, false, errors.ErrIOFailed.WrapError(err)
	}
	if n < RecordSize {
		return rec, 0, false, nil
	}
	copy(rec[:], buf)
	s.offset += RecordSize
	return rec, abs, true, nil
}

// writeRecord writes one 32-byte directory record at the stream's current
// position (extending the chain if needed, exactly like Write) and reports
// the absolute offset it wrote to.
func (s *Stream) writeRecord(buf []byte) (int64, error) {
	if s.fixed != nil {
		abs := s.fixed.Offset + int64(s.offset)
		if _, err := s.fixed.WriteAt(buf, int64(s.offset)); err != nil {
			return 0, err
		}
		s.offset += RecordSize
		return abs, nil
	}

	if _, err := s.advance(true); err != nil {
		return 0, err
	}
	clusterSize := s.clusterSize()
	offsetInCluster := s.offset % clusterSize
	abs := s.fs.geom.OffsetOfCluster(s.currentCluster) + int64(offsetInCluster)
	if _, err := s.fs.store.WriteAt(buf, abs); err != nil {
		return 0, errors.ErrIOFailed.WrapError(err)
	}
	s.offset += RecordSize
	return abs, nil
}

// Flush writes the entry editor's pending directory-record changes, then
// flushes the backing store.
func (s *Stream) Flush() error {
	if s.editor != nil {
		if err := s.editor.Flush(s.fs.store); err != nil {
			return err
		}
	}
	if err := s.fs.store.Flush(); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// --- fixed-region mode (FAT12/16 root directory) -----------------------

func (s *Stream) readFixed(buf []byte) (int, error) {
	n, err := s.fixed.ReadAt(buf, int64(s.offset))
	if err != nil && err != io.EOF {
		return n, err
	}
	s.offset += uint32(n)
	return n, nil
}

func (s *Stream) writeFixed(buf []byte) (int, error) {
	n, err := s.fixed.WriteAt(buf, int64(s.offset))
	if err != nil {
		return n, err
	}
	s.offset += uint32(n)
	return n, nil
}

func (s *Stream) seekFixed(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = int64(s.offset) + offset
	case io.SeekEnd:
		newPos = s.fixed.Length + offset
	default:
		return int64(s.offset), errors.ErrInvalidArgument.WithMessage("unsupported seek origin")
	}
	if newPos < 0 {
		return int64(s.offset), errors.ErrInvalidArgument.WithMessage("negative seek result")
	}
	if newPos > s.fixed.Length {
		newPos = s.fixed.Length
	}
	s.offset = uint32(newPos)
	return newPos, nil
}
