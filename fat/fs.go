package fat

import (
	"time"

	"github.com/brinklabs/fatfs/errors"
	"github.com/brinklabs/fatfs/internal/ioutil"

	multierror "github.com/hashicorp/go-multierror"
)

// FileSystem is the mount-time handle (component H): geometry, the FAT
// engine, root-directory access, and cluster<->offset arithmetic. It
// exclusively owns mutable access to the backing store for the mount's
// lifetime; every Dir/File/Stream obtained from it borrows that access
// through the shared Borrow guard rather than holding its own handle,
// matching spec.md §3.6/§5.
type FileSystem struct {
	store  ioutil.BackingStore
	geom   Geometry
	table  *Table
	borrow ioutil.Borrow
	clock  func() time.Time

	// fsInfoOffset is nonzero only for FAT32 mounts: the byte offset of the
	// FSInfo sector, whose FreeCount/NextFree hints get refreshed on Flush.
	fsInfoOffset int64
}

// Option configures a mount. Most callers need none of these; Mount's
// zero-value behavior (detect geometry, use time.Now for fresh timestamps)
// is the common case.
type Option func(*FileSystem)

// WithClock overrides the source of "now" used to stamp newly created
// entries. spec.md §1 explicitly treats wall-clock generation as an
// external collaborator the core doesn't implement; this is that seam.
func WithClock(clock func() time.Time) Option {
	return func(fs *FileSystem) { fs.clock = clock }
}

// Mount detects a volume's geometry from its boot sector and returns a
// handle to it, per the public API shape in spec.md §6.4: mount(store) ->
// fs.
func Mount(store ioutil.BackingStore, opts ...Option) (*FileSystem, error) {
	geom, err := DetectGeometry(store)
	if err != nil {
		return nil, err
	}
	return MountWithGeometry(store, geom, opts...)
}

// MountWithGeometry mounts using an already-known Geometry, bypassing BPB
// detection. Format uses this directly since it already knows the layout
// it just wrote.
func MountWithGeometry(store ioutil.BackingStore, geom Geometry, opts ...Option) (*FileSystem, error) {
	fs := &FileSystem{
		store: store,
		geom:  geom,
		table: NewTable(store, geom),
		clock: time.Now,
	}
	if geom.RootDir.isFAT32() {
		fs.fsInfoOffset = fsInfoOffset(geom)
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs, nil
}

// Geometry returns the volume's mount-time geometry.
func (fs *FileSystem) Geometry() Geometry { return fs.geom }

// Status reports the FAT's dirty-clean and I/O-error flags (FAT16/32 only).
func (fs *FileSystem) Status() (StatusFlags, error) { return fs.table.Status() }

// FreeClusterHint reads the FAT32 FSInfo sector's FreeCount hint. ok is
// false for FAT12/16 volumes, or when the sector's signatures don't
// validate (an absent or stale FSInfo sector is tolerated, never trusted
// for correctness -- find_free always re-validates against the FAT itself).
func (fs *FileSystem) FreeClusterHint() (count uint32, ok bool, err error) {
	if fs.fsInfoOffset == 0 {
		return 0, false, nil
	}
	info, valid, err := readFSInfo(fs.store, fs.fsInfoOffset)
	if err != nil {
		return 0, false, err
	}
	if !valid || info.FreeCount == fsInfoUnknown {
		return 0, false, nil
	}
	return info.FreeCount, true, nil
}

// VolumeLabel returns the root directory's VOLUME_ID entry's name, if one
// exists. Creating a fresh label is part of Format, not of CreateDir /
// CreateFile.
func (fs *FileSystem) VolumeLabel() (string, bool, error) {
	root, err := fs.RootDir()
	if err != nil {
		return "", false, err
	}
	return root.volumeLabel()
}

// RootDir returns the root directory, built from the fixed FAT12/16 region
// or the FAT32 root cluster chain, whichever the geometry specifies.
func (fs *FileSystem) RootDir() (*Dir, error) {
	if fs.geom.RootDir.isFAT32() {
		stream := fs.newChainStream(fs.geom.RootDir.FirstCluster, nil, false, 0)
		return &Dir{fs: fs, stream: stream, firstCluster: fs.geom.RootDir.FirstCluster, parentFirstCluster: 0, isRoot: true}, nil
	}

	slice := ioutil.NewSlice(fs.store, fs.geom.RootDir.FixedOffset, int64(fs.geom.RootDir.MaxEntries)*int64(RecordSize), 1)
	stream := &Stream{fs: fs, fixed: slice, sizeKnown: true, size: uint32(slice.Length)}
	return &Dir{fs: fs, stream: stream, isRoot: true}, nil
}

// withBorrow acquires the single-borrow guard for the duration of fn, the
// Go-idiomatic rendition of spec.md §5's single-borrow discipline: a
// violation panics deterministically instead of racing.
func (fs *FileSystem) withBorrow(fn func() error) error {
	release := fs.borrow.Acquire()
	defer release()
	return fn()
}

// Flush fans the primary FAT out to its mirror copies (spec.md §9: "If
// writing [mirrors] is required, add a post-write fan-out through the
// filesystem facade") and flushes the backing store. A failure mirroring
// one copy does not undo the already-successful primary write; all mirror
// failures are collected and returned together.
func (fs *FileSystem) Flush() error {
	var result *multierror.Error

	if fs.geom.NumFATs > 1 {
		length := fs.geom.FATRegionLength()
		buf := make([]byte, length)
		primaryOffset := fs.geom.FATRegionOffset()
		if _, err := fs.store.ReadAt(buf, primaryOffset); err != nil {
			result = multierror.Append(result, errors.ErrIOFailed.WrapError(err))
		} else {
			for mirror := 1; mirror < int(fs.geom.NumFATs); mirror++ {
				mirrorOffset := primaryOffset + int64(mirror)*length
				if _, err := fs.store.WriteAt(buf, mirrorOffset); err != nil {
					result = multierror.Append(result, errors.ErrIOFailed.WrapError(err))
				}
			}
		}
	}

	if fs.fsInfoOffset != 0 {
		if free, ok := fs.table.FreeClusterCount(); ok {
			if err := writeFSInfo(fs.store, fs.fsInfoOffset, free, fsInfoUnknown); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	if err := fs.store.Flush(); err != nil {
		result = multierror.Append(result, errors.ErrIOFailed.WrapError(err))
	}

	return result.ErrorOrNil()
}
