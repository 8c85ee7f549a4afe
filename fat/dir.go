package fat

import (
	"io"
	"strings"

	"github.com/brinklabs/fatfs/errors"
)

// Dir is the directory engine's public handle (component G): a stream over
// the directory's records (fixed-region for the FAT12/16 root, a cluster
// chain for everything else) plus the back-reference to its own directory
// record, nil for the root, which has none.
type Dir struct {
	fs     *FileSystem
	stream *Stream
	editor *entryEditor

	firstCluster       uint32
	parentFirstCluster uint32
	isRoot             bool
}

// Entries lists every live (non-deleted, non-volume-label) record in the
// directory, in on-disk order.
func (d *Dir) Entries() ([]DirEntry, error) {
	var entries []DirEntry
	err := d.fs.withBorrow(func() error {
		es, err := d.entriesLocked()
		entries = es
		return err
	})
	return entries, err
}

// entriesLocked assumes the caller already holds fs's borrow.
func (d *Dir) entriesLocked() ([]DirEntry, error) {
	if _, err := d.stream.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var entries []DirEntry
	pendingStart := int64(-1)
	for {
		rec, abs, ok, err := d.stream.readRecord()
		if err != nil {
			return nil, err
		}
		if !ok || isEndMarker(rec[:]) {
			break
		}
		if isFreeMarker(rec[:]) {
			pendingStart = -1
			continue
		}

		attr := rec[11]
		if isLFNRecord(attr) {
			if pendingStart < 0 {
				pendingStart = abs
			}
			continue
		}
		if isVolumeID(attr) {
			pendingStart = -1
			continue
		}

		raw := DecodeRegular(rec[:])
		start := abs
		if pendingStart >= 0 {
			start = pendingStart
		}
		entries = append(entries, DirEntry{
			raw:      raw,
			name:     decodeShortName(raw.Name),
			entryPos: abs,
			start:    start,
			end:      abs + RecordSize,
		})
		pendingStart = -1
	}
	return entries, nil
}

func (d *Dir) findEntryLocked(name string) (DirEntry, bool, error) {
	target := strings.ToUpper(name)
	entries, err := d.entriesLocked()
	if err != nil {
		return DirEntry{}, false, err
	}
	for _, e := range entries {
		if strings.ToUpper(e.name) == target {
			return e, true, nil
		}
	}
	return DirEntry{}, false, nil
}

// Find looks up name (case-insensitively, matching the short name FAT
// actually stores) and reports whether it exists.
func (d *Dir) Find(name string) (DirEntry, bool, error) {
	var entry DirEntry
	var found bool
	err := d.fs.withBorrow(func() error {
		e, ok, err := d.findEntryLocked(name)
		entry, found = e, ok
		return err
	})
	return entry, found, err
}

// OpenDir looks up name and opens it as a directory, failing with
// ErrNotFound if it doesn't exist. Per spec.md §4.5, naming a file instead
// of a directory is a programming error, not a recoverable one: callers
// must check Find/IsDir first, or this panics (mustBeDir).
func (d *Dir) OpenDir(name string) (*Dir, error) {
	var result *Dir
	err := d.fs.withBorrow(func() error {
		e, found, err := d.findEntryLocked(name)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrNotFound
		}
		e.mustBeDir()
		cluster, _ := e.FirstCluster()
		editor := newEntryEditor(d.fs.store, e.raw, e.entryPos)
		stream := d.fs.newChainStream(cluster, editor, false, 0)
		result = &Dir{fs: d.fs, stream: stream, editor: editor, firstCluster: cluster, parentFirstCluster: d.firstCluster}
		return nil
	})
	return result, err
}

// OpenFile looks up name and opens it as a file, failing with ErrNotFound
// if it doesn't exist. Per spec.md §4.5, naming a directory instead of a
// file is a programming error, not a recoverable one: callers must check
// Find/IsDir first, or this panics (mustBeFile).
func (d *Dir) OpenFile(name string) (*File, error) {
	var result *File
	err := d.fs.withBorrow(func() error {
		e, found, err := d.findEntryLocked(name)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrNotFound
		}
		e.mustBeFile()
		cluster, _ := e.FirstCluster()
		editor := newEntryEditor(d.fs.store, e.raw, e.entryPos)
		stream := d.fs.newChainStream(cluster, editor, true, e.raw.Size)
		result = newFile(d.fs, stream, editor)
		return nil
	})
	return result, err
}

// createEntryLocked validates name, synthesizes its short name, stamps
// creation/modification times from the filesystem's clock, and appends the
// new record to the directory. The record's FirstCluster is left at 0;
// callers set it once they've allocated the new file/directory's first
// cluster (CreateFile leaves it unset until the first Write; CreateDir sets
// it immediately).
//
// Per spec.md §7, AlreadyExists is reserved and never raised here: if name
// already names an entry, createEntryLocked returns it as-is (existed=true)
// instead of creating a new record. Short-name collisions with an unrelated
// sibling are not checked, per spec.md §9.
func (d *Dir) createEntryLocked(name string, attr uint8) (DirEntry, *entryEditor, bool, error) {
	if e, found, err := d.findEntryLocked(name); err != nil {
		return DirEntry{}, nil, false, err
	} else if found {
		return e, newEntryEditor(d.fs.store, e.raw, e.entryPos), true, nil
	}

	shortName, err := BuildShortName(name)
	if err != nil {
		return DirEntry{}, nil, false, err
	}

	now := d.fs.clock()
	dateNow := DateToInt(now)
	timeNow, tenths := TimeToInt(now)
	record := RawRecord{
		Name:             shortName,
		Attr:             attr,
		CreateDate:       dateNow,
		CreateTime:       timeNow,
		CreateTimeTenths: tenths,
		ModifyDate:       dateNow,
		ModifyTime:       timeNow,
		AccessDate:       dateNow,
	}

	pos, err := d.appendRecordLocked(EncodeRegular(record))
	if err != nil {
		return DirEntry{}, nil, false, err
	}
	editor := newEntryEditor(d.fs.store, record, pos)
	entry := DirEntry{raw: record, name: decodeShortName(shortName), entryPos: pos, start: pos, end: pos + RecordSize}
	return entry, editor, false, nil
}

// appendRecordLocked writes buf into the first free or end-marker slot in
// the directory, or extends the chain by one cluster if none exists. It
// returns ErrNoSpaceOnDevice if the directory is the fixed-size FAT12/16
// root and already full.
func (d *Dir) appendRecordLocked(buf []byte) (int64, error) {
	if _, err := d.stream.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	for {
		posBefore := int64(d.stream.offset)
		rec, _, ok, err := d.stream.readRecord()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if isEndMarker(rec[:]) || isFreeMarker(rec[:]) {
			if _, err := d.stream.Seek(posBefore, io.SeekStart); err != nil {
				return 0, err
			}
			return d.stream.writeRecord(buf)
		}
	}

	if d.stream.fixed != nil {
		return 0, errors.ErrNoSpaceOnDevice
	}
	return d.stream.writeRecord(buf)
}

// CreateFile creates an empty regular file named name in the directory. Per
// spec.md §7, AlreadyExists is reserved and never raised: if name already
// names a file, that file is opened and returned instead; if it names a
// directory, ErrIsADirectory is returned.
func (d *Dir) CreateFile(name string) (*File, error) {
	var result *File
	err := d.fs.withBorrow(func() error {
		entry, editor, existed, err := d.createEntryLocked(name, 0)
		if err != nil {
			return err
		}
		if existed {
			if entry.IsDir() {
				return errors.ErrIsADirectory
			}
			cluster, _ := entry.FirstCluster()
			stream := d.fs.newChainStream(cluster, editor, true, entry.raw.Size)
			result = newFile(d.fs, stream, editor)
			return nil
		}
		stream := d.fs.newChainStream(0, editor, true, 0)
		result = newFile(d.fs, stream, editor)
		return nil
	})
	return result, err
}

// CreateDir creates an empty subdirectory named name, pre-populated with
// "." and ".." entries per spec.md's directory-engine supplement. Per
// spec.md §7, if name already names a directory it is opened and returned
// instead of erroring; if it names a file, ErrNotADirectory is returned.
func (d *Dir) CreateDir(name string) (*Dir, error) {
	var result *Dir
	err := d.fs.withBorrow(func() error {
		entry, editor, existed, err := d.createEntryLocked(name, AttrDirectory)
		if err != nil {
			return err
		}
		if existed {
			if !entry.IsDir() {
				return errors.ErrNotADirectory
			}
			cluster, _ := entry.FirstCluster()
			stream := d.fs.newChainStream(cluster, editor, false, 0)
			result = &Dir{fs: d.fs, stream: stream, editor: editor, firstCluster: cluster, parentFirstCluster: d.firstCluster}
			return nil
		}

		cluster, err := d.fs.table.AllocCluster(0, false)
		if err != nil {
			return err
		}
		if err := zeroFillCluster(d.fs, cluster); err != nil {
			return err
		}

		parentForDotDot := d.firstCluster
		if d.isRoot {
			parentForDotDot = 0
		}
		if err := d.writeDotEntries(cluster, parentForDotDot); err != nil {
			return err
		}

		if err := editor.SetFirstCluster(cluster); err != nil {
			return err
		}
		stream := d.fs.newChainStream(cluster, editor, false, 0)
		result = &Dir{fs: d.fs, stream: stream, editor: editor, firstCluster: cluster, parentFirstCluster: d.firstCluster}
		return nil
	})
	return result, err
}

// writeDotEntries stamps the "." and ".." records at the start of a freshly
// allocated, zero-filled directory cluster.
func (d *Dir) writeDotEntries(selfCluster, parentCluster uint32) error {
	now := d.fs.clock()
	dateNow := DateToInt(now)
	timeNow, tenths := TimeToInt(now)

	build := func(name [11]byte, cluster uint32) RawRecord {
		r := RawRecord{
			Name:             name,
			Attr:             AttrDirectory,
			CreateDate:       dateNow,
			CreateTime:       timeNow,
			CreateTimeTenths: tenths,
			ModifyDate:       dateNow,
			ModifyTime:       timeNow,
			AccessDate:       dateNow,
		}
		r.SetFirstCluster(cluster)
		return r
	}

	dot := build(encode8dot3(".", ""), selfCluster)
	dotdot := build(encode8dot3("..", ""), parentCluster)

	base := d.fs.geom.OffsetOfCluster(selfCluster)
	if _, err := d.fs.store.WriteAt(EncodeRegular(dot), base); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	if _, err := d.fs.store.WriteAt(EncodeRegular(dotdot), base+RecordSize); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// Remove deletes the entry named name: a file is unlinked unconditionally,
// a directory only if it contains nothing but "." and "..", per the
// resolution of spec.md's open question in SPEC_FULL.md (ErrDirectoryNotEmpty,
// not ErrNotFound, for a non-empty directory).
func (d *Dir) Remove(name string) error {
	return d.fs.withBorrow(func() error {
		e, found, err := d.findEntryLocked(name)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrNotFound
		}

		if e.IsDir() {
			empty, err := d.subdirIsEmptyLocked(e)
			if err != nil {
				return err
			}
			if !empty {
				return errors.ErrDirectoryNotEmpty
			}
		}

		if cluster, ok := e.FirstCluster(); ok {
			it := NewClusterIterator(d.fs.table, cluster)
			if err := it.Free(); err != nil {
				return err
			}
		}
		return d.markFreeLocked(e)
	})
}

func (d *Dir) subdirIsEmptyLocked(e DirEntry) (bool, error) {
	cluster, ok := e.FirstCluster()
	if !ok {
		return true, nil
	}
	stream := d.fs.newChainStream(cluster, nil, false, 0)
	child := &Dir{fs: d.fs, stream: stream}
	entries, err := child.entriesLocked()
	if err != nil {
		return false, err
	}
	for _, ce := range entries {
		if ce.name != "." && ce.name != ".." {
			return false, nil
		}
	}
	return true, nil
}

func (d *Dir) markFreeLocked(e DirEntry) error {
	start, end := e.OffsetRange()
	for pos := start; pos < end; pos += RecordSize {
		if _, err := d.fs.store.WriteAt([]byte{firstByteFree}, pos); err != nil {
			return errors.ErrIOFailed.WrapError(err)
		}
	}
	return nil
}

// volumeLabel scans for the root directory's VOLUME_ID record, if any.
func (d *Dir) volumeLabel() (string, bool, error) {
	var label string
	var found bool
	err := d.fs.withBorrow(func() error {
		if _, err := d.stream.Seek(0, io.SeekStart); err != nil {
			return err
		}
		for {
			rec, _, ok, err := d.stream.readRecord()
			if err != nil {
				return err
			}
			if !ok || isEndMarker(rec[:]) {
				break
			}
			if isFreeMarker(rec[:]) {
				continue
			}
			attr := rec[11]
			if isLFNRecord(attr) {
				continue
			}
			if isVolumeID(attr) {
				raw := DecodeRegular(rec[:])
				label = strings.TrimRight(string(asciiFold(raw.Name[:])), " ")
				found = true
				return nil
			}
		}
		return nil
	})
	return label, found, err
}

// SetVolumeLabel writes or replaces the root directory's VOLUME_ID record.
// Only meaningful on the root directory; callers shouldn't call it on a
// subdirectory, though nothing here enforces that since it's Format's job
// to call it correctly.
func (d *Dir) SetVolumeLabel(label string) error {
	return d.fs.withBorrow(func() error {
		if _, err := d.stream.Seek(0, io.SeekStart); err != nil {
			return err
		}
		for {
			posBefore := int64(d.stream.offset)
			rec, abs, ok, err := d.stream.readRecord()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if isEndMarker(rec[:]) {
				if _, err := d.stream.Seek(posBefore, io.SeekStart); err != nil {
					return err
				}
				return d.writeVolumeLabel(label)
			}
			if isFreeMarker(rec[:]) {
				continue
			}
			if isVolumeID(rec[11]) {
				base, _ := splitBaseExt(strings.ToUpper(label))
				name := encode8dot3(base, "")
				record := DecodeRegular(rec[:])
				record.Name = name
				if _, err := d.fs.store.WriteAt(EncodeRegular(record), abs); err != nil {
					return errors.ErrIOFailed.WrapError(err)
				}
				return nil
			}
		}
		return d.writeVolumeLabel(label)
	})
}

func (d *Dir) writeVolumeLabel(label string) error {
	base, _ := splitBaseExt(strings.ToUpper(label))
	name := encode8dot3(base, "")
	now := d.fs.clock()
	record := RawRecord{
		Name:       name,
		Attr:       AttrVolumeID,
		CreateDate: DateToInt(now),
		ModifyDate: DateToInt(now),
	}
	_, err := d.stream.writeRecord(EncodeRegular(record))
	return err
}
