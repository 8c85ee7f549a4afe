package fat

import "time"

// DirEntry is the parsed, in-memory form of a directory record (spec.md
// §3.4): the regular record data, its decoded short name, the absolute
// on-disk position of the short-name record, and the absolute on-disk byte
// range that it -- plus any leading LFN records -- occupies.
type DirEntry struct {
	raw      RawRecord
	name     string
	entryPos int64
	start    int64
	end      int64
}

// FileName returns the decoded short name, e.g. "FOOBAR.TXT". fatfs writes
// no LFN records, so this is also the long name as far as the library is
// concerned.
func (e DirEntry) FileName() string { return e.name }

// ShortFileName is an alias for FileName kept for parity with the public
// API surface named in spec.md §6.4; fatfs has no distinct long name.
func (e DirEntry) ShortFileName() string { return e.name }

// Attributes returns the raw FAT attribute byte.
func (e DirEntry) Attributes() uint8 { return e.raw.Attr }

func (e DirEntry) IsDir() bool  { return e.raw.Attr&AttrDirectory != 0 }
func (e DirEntry) IsFile() bool { return !e.IsDir() }

// Len returns the file's size in bytes. Directories always report 0 (FAT
// stores no size for them; their true extent requires walking the chain).
func (e DirEntry) Len() uint32 { return e.raw.Size }

// FirstCluster returns the entry's starting cluster, or (0, false) if the
// entry is empty and has no chain.
func (e DirEntry) FirstCluster() (uint32, bool) {
	c := e.raw.FirstCluster()
	return c, c != 0
}

func (e DirEntry) Created() time.Time {
	return TimeFromParts(DateFromInt(e.raw.CreateDate), e.raw.CreateTime, e.raw.CreateTimeTenths)
}

func (e DirEntry) Accessed() time.Time { return DateFromInt(e.raw.AccessDate) }

func (e DirEntry) Modified() time.Time {
	return TimeFromParts(DateFromInt(e.raw.ModifyDate), e.raw.ModifyTime, 0)
}

// EntryPos is the absolute on-disk byte offset of the short-name record.
func (e DirEntry) EntryPos() int64 { return e.entryPos }

// OffsetRange returns the [start, end) range of absolute on-disk byte
// offsets spanned by this entry and any leading LFN records that precede
// it. The bounds are disk offsets, not offsets within the directory
// stream: the range runs from the first leading LFN record's disk position
// to the end of the short-name record, so it covers exactly those records
// only when they lie in one cluster or in clusters that follow each other
// on disk.
func (e DirEntry) OffsetRange() (int64, int64) { return e.start, e.end }

// mustBeDir and mustBeFile assert the entry's kind. Per spec.md §4.5, opening a
// non-directory as a directory (or vice versa) is a programming error, not
// a recoverable condition -- callers must check IsDir() first.
func (e DirEntry) mustBeDir() {
	if !e.IsDir() {
		panic("fatfs: DirEntry is not a directory")
	}
}

func (e DirEntry) mustBeFile() {
	if e.IsDir() {
		panic("fatfs: DirEntry is not a regular file")
	}
}
