package fat

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/brinklabs/fatfs/errors"
	"github.com/brinklabs/fatfs/internal/ioutil"
)

// mediaDescriptor is the byte stamped into the boot sector's Media field and
// mirrored into the low byte of FAT entry 0. 0xF8 means "fixed disk", the
// conventional choice for anything that isn't a recognized floppy format --
// real FAT drivers don't actually use it for anything beyond that byte.
const mediaDescriptor = 0xF8

// Format writes a fresh, empty FAT volume of the given geometry to store:
// boot sector, an empty FAT (mirrored across every copy geometry.NumFATs
// calls for), and a zeroed root directory, then mounts and returns it.
// This is the supplemented Format operation SPEC_FULL.md adds -- spec.md
// itself treats building a filesystem from nothing as out of scope, but a
// library that can create files has no way to get its first volume without
// it.
func Format(store ioutil.BackingStore, geom Geometry, volumeLabel string, opts ...Option) (*FileSystem, error) {
	if err := writeBootSector(store, geom); err != nil {
		return nil, err
	}
	if err := initFATCopies(store, geom); err != nil {
		return nil, err
	}

	fs, err := MountWithGeometry(store, geom, opts...)
	if err != nil {
		return nil, err
	}

	if geom.RootDir.isFAT32() {
		if err := fs.table.Write(geom.RootDir.FirstCluster, EndOfChainEntry()); err != nil {
			return nil, err
		}
		if err := zeroFillCluster(fs, geom.RootDir.FirstCluster); err != nil {
			return nil, err
		}
		freeCount := geom.TotalClusters - 1
		if err := writeFSInfo(store, fsInfoOffset(geom), freeCount, geom.RootDir.FirstCluster+1); err != nil {
			return nil, err
		}
	} else {
		zeros := make([]byte, int64(geom.RootDir.MaxEntries)*RecordSize)
		if _, err := store.WriteAt(zeros, geom.RootDir.FixedOffset); err != nil {
			return nil, errors.ErrIOFailed.WrapError(err)
		}
	}

	if volumeLabel != "" {
		root, err := fs.RootDir()
		if err != nil {
			return nil, err
		}
		if err := root.SetVolumeLabel(volumeLabel); err != nil {
			return nil, err
		}
	}

	if err := store.Flush(); err != nil {
		return nil, errors.ErrIOFailed.WrapError(err)
	}
	return fs, nil
}

// totalSectors recovers the BPB's TotalSectors field from a Geometry built
// by something other than DetectGeometry (i.e. a geometry.Preset), for
// writing the boot sector Format produces.
func (g Geometry) totalSectors() uint32 {
	rootDirSectors := uint32(0)
	if !g.RootDir.isFAT32() {
		rootDirSectors = (g.RootDir.MaxEntries*32 + g.BytesPerSector - 1) / g.BytesPerSector
	}
	return g.ReservedSectors + g.NumFATs*g.SectorsPerFAT + rootDirSectors + g.TotalClusters*g.SectorsPerCluster
}

func writeBootSector(store ioutil.BackingStore, geom Geometry) error {
	bpb := rawBootSectorBPB{
		JmpBoot:         [3]byte{0xEB, 0x3C, 0x90},
		OEMName:         [8]byte{'F', 'A', 'T', 'F', 'S', ' ', ' ', ' '},
		BytesPerSector:  uint16(geom.BytesPerSector),
		SecPerCluster:   uint8(geom.SectorsPerCluster),
		ReservedSectors: uint16(geom.ReservedSectors),
		NumFATs:         uint8(geom.NumFATs),
		Media:           mediaDescriptor,
	}

	totalSectors := geom.totalSectors()
	if totalSectors <= 0xFFFF {
		bpb.TotalSectors16 = uint16(totalSectors)
	} else {
		bpb.TotalSectors32 = totalSectors
	}

	sector := make([]byte, geom.BytesPerSector)
	writer := bytewriter.New(sector)

	if geom.RootDir.isFAT32() {
		bpb.SectorsPerFAT16 = 0
		if err := binary.Write(writer, binary.LittleEndian, &bpb); err != nil {
			return errors.ErrIOFailed.WrapError(err)
		}
		ext := rawFAT32Extension{
			SectorsPerFAT32: geom.SectorsPerFAT,
			RootCluster:     geom.RootDir.FirstCluster,
			FSInfoSector:    1,
			BackupBootSec:   6,
		}
		if err := binary.Write(writer, binary.LittleEndian, &ext); err != nil {
			return errors.ErrIOFailed.WrapError(err)
		}
	} else {
		bpb.SectorsPerFAT16 = uint16(geom.SectorsPerFAT)
		bpb.RootEntryCount = uint16(geom.RootDir.MaxEntries)
		if err := binary.Write(writer, binary.LittleEndian, &bpb); err != nil {
			return errors.ErrIOFailed.WrapError(err)
		}
	}

	sector[len(sector)-2] = 0x55
	sector[len(sector)-1] = 0xAA

	if _, err := store.WriteAt(sector, 0); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// initFATCopies zeroes every FAT copy and stamps the two reserved entries
// at the front of each: entry 0 carries the media descriptor, entry 1
// carries the clean-shutdown/no-I/O-error bits FAT16/32 read back via
// Table.Status. These are fixed bit patterns outside the normal Free/
// Data/Bad/End enum, so they're written as raw words rather than through
// Table.Write.
func initFATCopies(store ioutil.BackingStore, geom Geometry) error {
	length := geom.FATRegionLength()
	zeros := make([]byte, length)

	entry0, entry1 := reservedFATEntries(geom.FATType)

	for copyIdx := uint32(0); copyIdx < geom.NumFATs; copyIdx++ {
		base := geom.FATRegionOffset() + int64(copyIdx)*length
		if _, err := store.WriteAt(zeros, base); err != nil {
			return errors.ErrIOFailed.WrapError(err)
		}

		switch geom.FATType {
		case Type12:
			// Entries 0 and 1 share a 24-bit span across 3 bytes.
			word := entry0 | (entry1 << 12)
			buf := make([]byte, 3)
			buf[0] = byte(word)
			buf[1] = byte(word >> 8)
			buf[2] = byte(word >> 16)
			if _, err := store.WriteAt(buf, base); err != nil {
				return errors.ErrIOFailed.WrapError(err)
			}
		case Type16:
			buf := make([]byte, 4)
			ioutil.PutUint16(buf[0:2], uint16(entry0))
			ioutil.PutUint16(buf[2:4], uint16(entry1))
			if _, err := store.WriteAt(buf, base); err != nil {
				return errors.ErrIOFailed.WrapError(err)
			}
		default: // Type32
			buf := make([]byte, 8)
			ioutil.PutUint32(buf[0:4], entry0)
			ioutil.PutUint32(buf[4:8], entry1)
			if _, err := store.WriteAt(buf, base); err != nil {
				return errors.ErrIOFailed.WrapError(err)
			}
		}
	}
	return nil
}

func reservedFATEntries(t Type) (entry0, entry1 uint32) {
	switch t {
	case Type12:
		return 0xF00 | mediaDescriptor, 0xFFF
	case Type16:
		return 0xFF00 | mediaDescriptor, 0xFFFF
	default: // Type32
		return 0x0FFFFF00 | mediaDescriptor, 0x0FFFFFFF
	}
}
