package fat

import (
	"github.com/brinklabs/fatfs/errors"
	"github.com/brinklabs/fatfs/internal/ioutil"
)

// kind discriminates the four logical states a FAT entry can hold, per
// spec.md §3.2.
type kind uint8

const (
	kindFree kind = iota
	kindData
	kindBad
	kindEnd
)

// Entry is the logical, width-independent value of one FAT slot.
type Entry struct {
	k    kind
	next uint32
}

// FreeEntry, BadEntry, and EndOfChainEntry construct the three sentinel
// states; DataEntry constructs a chain-continuation pointer.
func FreeEntry() Entry           { return Entry{k: kindFree} }
func BadEntry() Entry            { return Entry{k: kindBad} }
func EndOfChainEntry() Entry     { return Entry{k: kindEnd} }
func DataEntry(next uint32) Entry { return Entry{k: kindData, next: next} }

func (e Entry) IsFree() bool        { return e.k == kindFree }
func (e Entry) IsBad() bool         { return e.k == kindBad }
func (e Entry) IsEndOfChain() bool  { return e.k == kindEnd }
func (e Entry) IsData() bool        { return e.k == kindData }

// Next returns the next cluster in the chain and true if this is a Data
// entry; otherwise it returns (0, false).
func (e Entry) Next() (uint32, bool) {
	if e.k != kindData {
		return 0, false
	}
	return e.next, true
}

// StatusFlags reports the two health bits real FAT16/32 drivers stash in
// the otherwise-unused entry #1 of the table. FAT12 has no room for them
// and is always reported clean.
type StatusFlags struct {
	Clean       bool // 0 means dirty (volume wasn't unmounted cleanly)
	NoIOErrors  bool // 0 means an I/O error was previously recorded
}

// Table is the FAT engine (component C): per-variant encode/decode of
// cluster entries, free-cluster search, and status-flag readback. It
// operates on the PRIMARY FAT only; mirroring additional copies on write is
// the filesystem facade's job (FileSystem.Flush), per spec.md §4.1/§9.
type Table struct {
	store         ioutil.BackingStore
	offset        int64 // absolute byte offset of the primary FAT's first entry
	totalClusters uint32
	fatType       Type

	free freeMap
}

// NewTable builds a Table over the primary copy of the FAT region described
// by geom.
func NewTable(store ioutil.BackingStore, geom Geometry) *Table {
	return &Table{
		store:         store,
		offset:        geom.FATRegionOffset(),
		totalClusters: geom.TotalClusters,
		fatType:       geom.FATType,
	}
}

// entryByteOffsetAndLen returns where/how many bytes to touch for
// cluster n, per the per-variant layouts in spec.md §4.1.
func (t *Table) entryByteOffsetAndLen(n uint32) (int64, int) {
	switch t.fatType {
	case Type12:
		return int64(n + n/2), 2
	case Type16:
		return int64(n) * 2, 2
	default: // Type32
		return int64(n) * 4, 4
	}
}

func (t *Table) readRawWord(n uint32) (uint32, error) {
	off, length := t.entryByteOffsetAndLen(n)
	buf := make([]byte, length)
	if _, err := t.store.ReadAt(buf, t.offset+off); err != nil {
		return 0, errors.ErrIOFailed.WrapError(err)
	}
	if length == 2 {
		return uint32(ioutil.Uint16(buf)), nil
	}
	return ioutil.Uint32(buf), nil
}

func (t *Table) writeRawWord(n uint32, value uint32) error {
	off, length := t.entryByteOffsetAndLen(n)
	buf := make([]byte, length)
	if length == 2 {
		ioutil.PutUint16(buf, uint16(value))
	} else {
		ioutil.PutUint32(buf, value)
	}
	_, err := t.store.WriteAt(buf, t.offset+off)
	if err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// maskedValue extracts cluster n's value from the raw on-disk word(s),
// applying the FAT12 nibble-packing rule and the FAT32 reserved-bits mask.
func (t *Table) maskedValue(n uint32) (uint32, error) {
	if t.fatType == Type12 {
		word, err := t.readRawWord(n)
		if err != nil {
			return 0, err
		}
		if n%2 == 0 {
			return word & 0x0FFF, nil
		}
		return word >> 4, nil
	}

	word, err := t.readRawWord(n)
	if err != nil {
		return 0, err
	}
	if t.fatType == Type32 {
		return word & 0x0FFFFFFF, nil
	}
	return word, nil
}

// ReadRaw returns the unmasked 16- or 32-bit word backing cluster n,
// including reserved bits. Used to read the status flags stashed in entry 1.
func (t *Table) ReadRaw(n uint32) (uint32, error) {
	return t.readRawWord(n)
}

// Read decodes the FAT entry for cluster n into its logical form.
func (t *Table) Read(n uint32) (Entry, error) {
	value, err := t.maskedValue(n)
	if err != nil {
		return Entry{}, err
	}

	switch t.fatType {
	case Type12:
		switch {
		case value == 0x000:
			return FreeEntry(), nil
		case value == 0xFF7:
			return BadEntry(), nil
		case value >= 0xFF8:
			return EndOfChainEntry(), nil
		default:
			return DataEntry(value), nil
		}
	case Type16:
		switch {
		case value == 0x0000:
			return FreeEntry(), nil
		case value == 0xFFF7:
			return BadEntry(), nil
		case value >= 0xFFF8:
			return EndOfChainEntry(), nil
		default:
			return DataEntry(value), nil
		}
	default: // Type32
		switch {
		case value == 0x00000000:
			return FreeEntry(), nil
		case value == 0x0FFFFFF7:
			return BadEntry(), nil
		case value >= 0x0FFFFFF8:
			return EndOfChainEntry(), nil
		default:
			return DataEntry(value), nil
		}
	}
}

// canonicalValue maps a logical Entry to the bit pattern spec.md §4.1 says
// to write for it, within the variant's width (unmasked onto a full word;
// reserved-bit preservation happens in Write).
func (t *Table) canonicalValue(e Entry) uint32 {
	switch t.fatType {
	case Type12:
		switch e.k {
		case kindFree:
			return 0x000
		case kindBad:
			return 0xFF7
		case kindEnd:
			return 0xFFF
		default:
			return e.next & 0xFFF
		}
	case Type16:
		switch e.k {
		case kindFree:
			return 0x0000
		case kindBad:
			return 0xFFF7
		case kindEnd:
			return 0xFFFF
		default:
			return e.next & 0xFFFF
		}
	default: // Type32
		switch e.k {
		case kindFree:
			return 0x00000000
		case kindBad:
			return 0x0FFFFFF7
		case kindEnd:
			return 0x0FFFFFFF
		default:
			return e.next & 0x0FFFFFFF
		}
	}
}

// Write encodes e into cluster n's slot, preserving reserved bits: FAT32's
// upper 4 bits, and FAT12's neighbouring nibble (read-modify-write of the
// shared 16-bit word).
func (t *Table) Write(n uint32, e Entry) error {
	value := t.canonicalValue(e)

	var err error
	switch {
	case t.fatType == Type12:
		var word uint32
		word, err = t.readRawWord(n)
		if err == nil {
			var newWord uint32
			if n%2 == 0 {
				newWord = (word & 0xF000) | value
			} else {
				newWord = (word & 0x000F) | (value << 4)
			}
			err = t.writeRawWord(n, newWord)
		}
	case t.fatType == Type32:
		var word uint32
		word, err = t.readRawWord(n)
		if err == nil {
			newWord := (word & 0xF0000000) | value
			err = t.writeRawWord(n, newWord)
		}
	default:
		err = t.writeRawWord(n, value)
	}
	if err != nil {
		return err
	}

	if e.IsFree() {
		t.free.markFree(n)
	} else {
		t.free.markUsed(n)
	}
	return nil
}

// FindFree performs a linear scan for the first Free cluster starting at
// hint (callers pass 2 for "no preference", per spec.md §4.1). Cluster
// numbering starts at 2; the scan bound is TotalClusters+2 (exclusive).
func (t *Table) FindFree(hint uint32) (uint32, error) {
	return t.free.findFree(t, hint)
}

// AllocCluster finds a free cluster, marks it EndOfChain, and if prevValid
// is true, links prev's entry to point at the new cluster. It fails with
// ErrNoSpaceOnDevice if the scan exhausts the table.
func (t *Table) AllocCluster(prev uint32, prevValid bool) (uint32, error) {
	next, err := t.FindFree(2)
	if err != nil {
		return 0, err
	}
	if err := t.Write(next, EndOfChainEntry()); err != nil {
		return 0, err
	}
	if prevValid {
		if err := t.Write(prev, DataEntry(next)); err != nil {
			return 0, err
		}
	}
	return next, nil
}

// FreeClusterCount reports how many clusters the free-cluster cache
// currently considers unused, and whether the cache has actually been built
// yet (findFree/AllocCluster trigger the build; a table that has never
// allocated or searched reports ok=false rather than paying for a scan).
func (t *Table) FreeClusterCount() (count uint32, ok bool) {
	if !t.free.built {
		return 0, false
	}
	free := uint32(0)
	for c := uint32(2); c < t.totalClusters+2; c++ {
		if !t.free.bits.Get(int(c)) {
			free++
		}
	}
	return free, true
}

// Status reads the dirty-clean and I/O-error flags from entry #1. FAT12 has
// no such bits and is always reported clean with no recorded errors.
func (t *Table) Status() (StatusFlags, error) {
	if t.fatType == Type12 {
		return StatusFlags{Clean: true, NoIOErrors: true}, nil
	}
	raw, err := t.ReadRaw(1)
	if err != nil {
		return StatusFlags{}, err
	}
	if t.fatType == Type16 {
		return StatusFlags{
			Clean:      raw&(1<<15) != 0,
			NoIOErrors: raw&(1<<14) != 0,
		}, nil
	}
	return StatusFlags{
		Clean:      raw&(1<<27) != 0,
		NoIOErrors: raw&(1<<26) != 0,
	}, nil
}
