// Package fat implements the core of an in-process FAT12/FAT16/FAT32
// filesystem: the File Allocation Table engine, the cluster-chain stream
// abstraction, the directory-entry engine, and the path resolver, all
// operating over a caller-supplied BackingStore.
package fat

import (
	"encoding/binary"
	"fmt"

	"github.com/brinklabs/fatfs/errors"
	"github.com/brinklabs/fatfs/internal/ioutil"
)

// Type identifies which of the three on-disk FAT variants a volume uses.
// When a volume is mounted from its boot sector, the variant is derived from
// the total cluster count, never guessed from volume size -- see
// DetermineType. A Geometry passed to Format or MountWithGeometry carries its
// FATType as given.
type Type int

const (
	Type12 Type = 12
	Type16 Type = 16
	Type32 Type = 32
)

func (t Type) String() string {
	switch t {
	case Type12:
		return "FAT12"
	case Type16:
		return "FAT16"
	case Type32:
		return "FAT32"
	default:
		return fmt.Sprintf("FAT(unknown:%d)", int(t))
	}
}

// DetermineType classifies a volume by its total cluster count, per
// Microsoft's FAT specification: this is the only correct way to tell the
// variants apart. Cluster counts below these thresholds are what real FAT
// drivers key off of, not any field that merely claims a version.
func DetermineType(totalClusters uint32) Type {
	if totalClusters < 4085 {
		return Type12
	}
	if totalClusters < 65525 {
		return Type16
	}
	return Type32
}

// RootDirSpec describes where a volume's root directory lives: either a
// fixed, non-chained region (FAT12/16) or the cluster chain starting at a
// given cluster (FAT32, typically cluster 2).
type RootDirSpec struct {
	// FixedOffset and MaxEntries are set for FAT12/16: the root directory is
	// a flat region of MaxEntries 32-byte slots starting at FixedOffset
	// bytes into the backing store, preceding the data area.
	FixedOffset int64
	MaxEntries  uint32

	// FirstCluster is set for FAT32: the root directory is an ordinary
	// cluster chain like any other directory, starting here.
	FirstCluster uint32
}

func (r RootDirSpec) isFAT32() bool { return r.MaxEntries == 0 }

// Geometry is the mount-time, immutable description of a volume's layout,
// per spec.md §3.1. It is normally produced by DetectGeometry from a boot
// sector, but callers may build one directly (e.g. after Format) without
// going through a byte-exact BPB.
type Geometry struct {
	FATType           Type
	BytesPerSector    uint32
	SectorsPerCluster uint32
	NumFATs           uint32
	SectorsPerFAT     uint32
	ReservedSectors   uint32
	// FirstDataSector is the BYTE offset of cluster #2, despite the name
	// mirroring the sector-counted field it is derived from -- see the
	// invariant in spec.md §3.1.
	FirstDataSector int64
	TotalClusters   uint32
	RootDir         RootDirSpec
}

// ClusterSize returns the number of bytes in one cluster.
func (g Geometry) ClusterSize() uint32 {
	return g.BytesPerSector * g.SectorsPerCluster
}

// OffsetOfCluster returns the absolute byte offset of cluster n (n >= 2),
// per the invariant in spec.md §3.1.
func (g Geometry) OffsetOfCluster(n uint32) int64 {
	return g.FirstDataSector + int64(n-2)*int64(g.ClusterSize())
}

// FATRegionOffset and FATRegionLength describe the primary FAT's byte range
// within the backing store; mirrors follow immediately, each FATRegionLength
// bytes apart, for a total of NumFATs copies.
func (g Geometry) FATRegionOffset() int64 {
	return int64(g.ReservedSectors) * int64(g.BytesPerSector)
}

func (g Geometry) FATRegionLength() int64 {
	return int64(g.SectorsPerFAT) * int64(g.BytesPerSector)
}

// rawBootSectorBPB mirrors the BIOS Parameter Block common to all FAT
// variants, bit-exact and little-endian.
type rawBootSectorBPB struct {
	JmpBoot         [3]byte
	OEMName         [8]byte
	BytesPerSector  uint16
	SecPerCluster   uint8
	ReservedSectors uint16
	NumFATs         uint8
	RootEntryCount  uint16
	TotalSectors16  uint16
	Media           uint8
	SectorsPerFAT16 uint16
	SectorsPerTrack uint16
	NumHeads        uint16
	HiddenSectors   uint32
	TotalSectors32  uint32
}

// rawFAT32Extension mirrors the fields unique to the FAT32 BPB extension,
// immediately following rawBootSectorBPB on disk.
type rawFAT32Extension struct {
	SectorsPerFAT32 uint32
	ExtFlags        uint16
	FSVersion       uint16
	RootCluster     uint32
	FSInfoSector    uint16
	BackupBootSec   uint16
	Reserved        [12]byte
}

// DetectGeometry reads the boot sector from store and derives the volume
// Geometry from it, the way NewFATBootSectorFromStream does: total sectors,
// total FAT sectors, root directory size, and from those, the FAT variant
// (spec.md treats this as the boundary of an external collaborator -- this
// is the minimal amount of BPB parsing Mount needs to become self-contained
// rather than requiring every caller to hand-build a Geometry).
func DetectGeometry(store ioutil.BackingStore) (Geometry, error) {
	header := make([]byte, 36)
	if _, err := store.ReadAt(header, 0); err != nil {
		return Geometry{}, errors.ErrIOFailed.WrapError(err)
	}

	var bpb rawBootSectorBPB
	if err := binary.Read(ioutil.NewSliceReader(header), binary.LittleEndian, &bpb); err != nil {
		return Geometry{}, errors.ErrIOFailed.WrapError(err)
	}

	switch bpb.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return Geometry{}, errors.ErrFileSystemCorrupted.WithMessage(
			fmt.Sprintf("bytes/sector must be 512/1024/2048/4096, got %d", bpb.BytesPerSector))
	}
	switch bpb.SecPerCluster {
	case 1, 2, 4, 8, 16, 32, 64, 128:
	default:
		return Geometry{}, errors.ErrFileSystemCorrupted.WithMessage(
			fmt.Sprintf("sectors/cluster must be a power of 2 in [1,128], got %d", bpb.SecPerCluster))
	}

	sectorsPerFAT := uint32(bpb.SectorsPerFAT16)
	var fat32 rawFAT32Extension
	extendedRead := sectorsPerFAT == 0
	if extendedRead {
		extBuf := make([]byte, 28)
		if _, err := store.ReadAt(extBuf, 36); err != nil {
			return Geometry{}, errors.ErrIOFailed.WrapError(err)
		}
		if err := binary.Read(ioutil.NewSliceReader(extBuf), binary.LittleEndian, &fat32); err != nil {
			return Geometry{}, errors.ErrIOFailed.WrapError(err)
		}
		sectorsPerFAT = fat32.SectorsPerFAT32
	}

	totalSectors := uint32(bpb.TotalSectors16)
	if totalSectors == 0 {
		totalSectors = bpb.TotalSectors32
	}

	rootDirSectors := (uint32(bpb.RootEntryCount)*32 + uint32(bpb.BytesPerSector) - 1) / uint32(bpb.BytesPerSector)
	totalFATSectors := uint32(bpb.NumFATs) * sectorsPerFAT
	dataSectors := totalSectors - uint32(bpb.ReservedSectors) - totalFATSectors - rootDirSectors
	totalClusters := dataSectors / uint32(bpb.SecPerCluster)

	fatType := DetermineType(totalClusters)
	if fatType == Type32 && rootDirSectors != 0 {
		return Geometry{}, errors.ErrFileSystemCorrupted.WithMessage(
			"root directory sector count is nonzero on a FAT32 volume")
	}

	firstDataSector := int64(bpb.ReservedSectors) + int64(totalFATSectors) + int64(rootDirSectors)
	geom := Geometry{
		FATType:           fatType,
		BytesPerSector:    uint32(bpb.BytesPerSector),
		SectorsPerCluster: uint32(bpb.SecPerCluster),
		NumFATs:           uint32(bpb.NumFATs),
		SectorsPerFAT:     sectorsPerFAT,
		ReservedSectors:   uint32(bpb.ReservedSectors),
		FirstDataSector:   firstDataSector * int64(bpb.BytesPerSector),
		TotalClusters:     totalClusters,
	}

	if fatType == Type32 {
		geom.RootDir = RootDirSpec{FirstCluster: fat32.RootCluster}
	} else {
		geom.RootDir = RootDirSpec{
			FixedOffset: (int64(bpb.ReservedSectors) + int64(totalFATSectors)) * int64(bpb.BytesPerSector),
			MaxEntries:  uint32(bpb.RootEntryCount),
		}
	}

	return geom, nil
}
