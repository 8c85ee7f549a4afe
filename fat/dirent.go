package fat

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/noxer/bytewriter"

	"github.com/brinklabs/fatfs/errors"
	"github.com/brinklabs/fatfs/internal/ioutil"
)

// Directory-entry attribute flags, per spec.md §3.3.
const (
	AttrReadOnly  uint8 = 0x01
	AttrHidden    uint8 = 0x02
	AttrSystem    uint8 = 0x04
	AttrVolumeID  uint8 = 0x08
	AttrDirectory uint8 = 0x10
	AttrArchive   uint8 = 0x20

	// attrLFNMask is the combination that marks a record as an LFN
	// continuation rather than a regular short-name entry.
	attrLFNMask = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

// RecordSize is the fixed size, in bytes, of every directory record --
// regular or LFN.
const RecordSize = 32

const (
	firstByteEnd  = 0x00
	firstByteFree = 0xE5
)

// RawRecord is the bit-exact, 32-byte regular (short-name) directory record,
// per the layout table in spec.md §6.2.
type RawRecord struct {
	Name             [11]byte
	Attr             uint8
	NTReserved       uint8
	CreateTimeTenths uint8
	CreateTime       uint16
	CreateDate       uint16
	AccessDate       uint16
	FirstClusterHi   uint16
	ModifyTime       uint16
	ModifyDate       uint16
	FirstClusterLo   uint16
	Size             uint32
}

func (r RawRecord) FirstCluster() uint32 {
	return uint32(r.FirstClusterHi)<<16 | uint32(r.FirstClusterLo)
}

func (r *RawRecord) SetFirstCluster(c uint32) {
	r.FirstClusterHi = uint16(c >> 16)
	r.FirstClusterLo = uint16(c & 0xFFFF)
}

// LFNRecord is the bit-exact layout of one long-filename continuation
// record. The 13 UCS-2 code units of its slice of the long name span
// Name0+Name1+Name2. fatfs parses and preserves these on delete but never
// synthesizes them on create, per spec.md §9.
type LFNRecord struct {
	Order     uint8
	Name0     [5]uint16
	Attr      uint8 // always attrLFNMask
	EntryType uint8
	Checksum  uint8
	Name1     [6]uint16
	Reserved  uint16
	Name2     [2]uint16
}

// DecodeRegular parses a 32-byte buffer as a regular record. Callers must
// have already determined (via the attribute byte) that this isn't an LFN
// record. RawRecord's field order matches the on-disk layout exactly, so
// binary.Read can decode it directly with no manual field-by-field slicing.
func DecodeRegular(buf []byte) RawRecord {
	var r RawRecord
	binary.Read(ioutil.NewSliceReader(buf), binary.LittleEndian, &r)
	return r
}

// EncodeRegular serializes r into a freshly allocated 32-byte buffer, using
// bytewriter the way the teacher's own directory/inode-table formatter
// pairs it with binary.Write: a fixed-size output slice as the sequential
// io.Writer binary.Write wants.
func EncodeRegular(r RawRecord) []byte {
	buf := make([]byte, RecordSize)
	binary.Write(bytewriter.New(buf), binary.LittleEndian, &r)
	return buf
}

// DecodeLFN parses a 32-byte buffer as an LFN continuation record.
func DecodeLFN(buf []byte) LFNRecord {
	var r LFNRecord
	binary.Read(ioutil.NewSliceReader(buf), binary.LittleEndian, &r)
	return r
}

// EncodeLFN serializes r into a freshly allocated 32-byte buffer. It exists
// for round-trip fidelity (spec.md §8 property 6); fatfs never writes a
// fresh LFN record of its own construction.
func EncodeLFN(r LFNRecord) []byte {
	buf := make([]byte, RecordSize)
	binary.Write(bytewriter.New(buf), binary.LittleEndian, &r)
	return buf
}

func isEndMarker(buf []byte) bool  { return buf[0] == firstByteEnd }
func isFreeMarker(buf []byte) bool { return buf[0] == firstByteFree }
func isLFNRecord(attr uint8) bool  { return attr&attrLFNMask == attrLFNMask }
func isVolumeID(attr uint8) bool   { return attr&AttrVolumeID != 0 }

// decodeShortName turns an 11-byte 8.3 field into its presentation form:
// trailing spaces stripped from both halves, joined with '.' when an
// extension is present, non-ASCII bytes replaced with '?' (full OEM
// decoding is out of scope, per spec.md §4.4).
func decodeShortName(name [11]byte) string {
	base := strings.TrimRight(string(asciiFold(name[0:8])), " ")
	ext := strings.TrimRight(string(asciiFold(name[8:11])), " ")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func asciiFold(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 0x80 {
			out[i] = '?'
		} else {
			out[i] = c
		}
	}
	return out
}

// DateFromInt converts a DOS date word into a time.Time (at midnight, UTC),
// per spec.md §6.2: (year-1980)<<9 | month<<5 | day.
func DateFromInt(value uint16) time.Time {
	day := int(value & 0x1F)
	month := time.Month((value >> 5) & 0x0F)
	year := 1980 + int(value>>9)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateToInt is the write-side counterpart of DateFromInt.
func DateToInt(t time.Time) uint16 {
	y := t.Year() - 1980
	if y < 0 {
		y = 0
	}
	return uint16(y)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
}

// TimeFromParts decodes a DOS time word (plus the optional "tenths" field,
// counted in 10ms units, 0-199, covering the odd second the 2-second DOS
// time resolution cannot hold) into the time-of-day components of a
// time.Time anchored to date.
func TimeFromParts(date time.Time, timePart uint16, tenths uint8) time.Time {
	seconds := int(timePart&0x1F) * 2
	nanos := 0
	if tenths >= 100 {
		seconds++
		tenths -= 100
	}
	nanos = int(tenths) * 10_000_000
	minutes := int((timePart >> 5) & 0x3F)
	hours := int(timePart >> 11)
	return time.Date(date.Year(), date.Month(), date.Day(), hours, minutes, seconds, nanos, time.UTC)
}

// TimeToInt is the write-side counterpart of the time portion of
// TimeFromParts; it discards sub-second precision finer than the format's
// 10ms tenths field, which is returned separately.
func TimeToInt(t time.Time) (timePart uint16, tenths uint8) {
	timePart = uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
	half := uint8(0)
	if t.Second()%2 != 0 {
		half = 100
	}
	tenths = half + uint8(t.Nanosecond()/10_000_000)
	return timePart, tenths
}

// entryEditor is the back-reference from a stream/file to the directory
// record that names it: a by-value copy of the record, its absolute
// on-disk position, and the store to write it back to.
//
// SetFirstCluster and SetSize write through to store immediately. Timestamps
// go through MarkDirty/SetModified/SetCreated/SetAccessed and stay buffered
// until Flush.
type entryEditor struct {
	record   RawRecord
	entryPos int64
	store    ioutil.BackingStore
	dirty    bool
}

func newEntryEditor(store ioutil.BackingStore, record RawRecord, pos int64) *entryEditor {
	return &entryEditor{record: record, entryPos: pos, store: store}
}

func (e *entryEditor) SetFirstCluster(c uint32) error {
	e.record.SetFirstCluster(c)
	return e.writeThrough()
}

func (e *entryEditor) SetSize(size uint32) error {
	e.record.Size = size
	return e.writeThrough()
}

// writeThrough immediately rewrites the 32-byte record at entryPos.
func (e *entryEditor) writeThrough() error {
	buf := EncodeRegular(e.record)
	if _, err := e.store.WriteAt(buf, e.entryPos); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}

func (e *entryEditor) MarkDirty() { e.dirty = true }

func (e *entryEditor) SetModified(t time.Time) {
	e.record.ModifyDate = DateToInt(t)
	tp, _ := TimeToInt(t)
	e.record.ModifyTime = tp
	e.dirty = true
}

func (e *entryEditor) SetAccessed(t time.Time) {
	e.record.AccessDate = DateToInt(t)
	e.dirty = true
}

func (e *entryEditor) SetCreated(t time.Time) {
	e.record.CreateDate = DateToInt(t)
	tp, tenths := TimeToInt(t)
	e.record.CreateTime = tp
	e.record.CreateTimeTenths = tenths
	e.dirty = true
}

// Flush rewrites the 32-byte record at entryPos if it is dirty.
func (e *entryEditor) Flush(store ioutil.BackingStore) error {
	if !e.dirty {
		return nil
	}
	buf := EncodeRegular(e.record)
	if _, err := store.WriteAt(buf, e.entryPos); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	e.dirty = false
	return nil
}
