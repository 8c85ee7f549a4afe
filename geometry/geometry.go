// Package geometry holds a table of standard FAT12/FAT16 media geometries
// (component J), loaded from an embedded CSV the way the teacher's disks
// package loads its own disk-geometry table, and the sizing arithmetic
// Format uses to turn a preset into a mountable fat.Geometry.
package geometry

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/brinklabs/fatfs/fat"
)

//go:embed presets.csv
var presetsRawCSV string

// Preset is one row of the embedded table: the handful of parameters a FAT
// format tool needs up front, everything else (FAT size, data region
// layout, FAT variant) being derived the same way a real mkfs.fat would.
type Preset struct {
	Slug              string `csv:"slug"`
	Name              string `csv:"name"`
	TotalSectors      uint32 `csv:"total_sectors"`
	BytesPerSector    uint32 `csv:"bytes_per_sector"`
	SectorsPerCluster uint32 `csv:"sectors_per_cluster"`
	ReservedSectors   uint32 `csv:"reserved_sectors"`
	NumFATs           uint32 `csv:"num_fats"`
	RootEntryCount    uint32 `csv:"root_entry_count"`
	MediaDescriptor   string `csv:"media_descriptor"`
	Notes             string `csv:"notes"`
}

// TotalSizeBytes returns the minimum backing-store size a volume formatted
// with this preset needs.
func (p Preset) TotalSizeBytes() int64 {
	return int64(p.TotalSectors) * int64(p.BytesPerSector)
}

var presets map[string]Preset

func init() {
	presets = make(map[string]Preset)
	err := gocsv.UnmarshalToCallback(strings.NewReader(presetsRawCSV), func(row Preset) error {
		if _, exists := presets[row.Slug]; exists {
			return fmt.Errorf("duplicate geometry preset slug %q", row.Slug)
		}
		presets[row.Slug] = row
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// Lookup returns the preset registered under slug.
func Lookup(slug string) (Preset, error) {
	p, ok := presets[slug]
	if !ok {
		return Preset{}, fmt.Errorf("no predefined FAT geometry with slug %q", slug)
	}
	return p, nil
}

// Slugs returns every registered preset's slug in map iteration order, which
// is neither sorted nor the CSV's row order -- callers that want a stable
// listing should sort it themselves.
func Slugs() []string {
	out := make([]string, 0, len(presets))
	for slug := range presets {
		out = append(out, slug)
	}
	return out
}

// Build derives a mountable fat.Geometry from a preset, using the same
// sizing arithmetic Microsoft's own mkfs.fat documentation specifies for
// computing a FAT's size from the volume's other parameters. It fails if
// the preset's parameters would produce a FAT32 volume -- FAT32 presets
// aren't derivable this way since FAT32 has no fixed-size root directory to
// size against; use BuildFAT32 for those.
func Build(p Preset) (fat.Geometry, error) {
	rootDirSectors := (p.RootEntryCount*32 + p.BytesPerSector - 1) / p.BytesPerSector
	tmpVal1 := p.TotalSectors - (p.ReservedSectors + rootDirSectors)
	tmpVal2 := (256 * p.SectorsPerCluster) + p.NumFATs
	sectorsPerFAT := (tmpVal1 + tmpVal2 - 1) / tmpVal2

	dataSectors := p.TotalSectors - p.ReservedSectors - p.NumFATs*sectorsPerFAT - rootDirSectors
	totalClusters := dataSectors / p.SectorsPerCluster
	fatType := fat.DetermineType(totalClusters)
	if fatType == fat.Type32 {
		return fat.Geometry{}, fmt.Errorf("preset %q sizes to FAT32; use BuildFAT32 instead", p.Slug)
	}

	firstDataSector := int64(p.ReservedSectors+p.NumFATs*sectorsPerFAT+rootDirSectors) * int64(p.BytesPerSector)
	return fat.Geometry{
		FATType:           fatType,
		BytesPerSector:    p.BytesPerSector,
		SectorsPerCluster: p.SectorsPerCluster,
		NumFATs:           p.NumFATs,
		SectorsPerFAT:     sectorsPerFAT,
		ReservedSectors:   p.ReservedSectors,
		FirstDataSector:   firstDataSector,
		TotalClusters:     totalClusters,
		RootDir: fat.RootDirSpec{
			FixedOffset: int64(p.ReservedSectors+p.NumFATs*sectorsPerFAT) * int64(p.BytesPerSector),
			MaxEntries:  p.RootEntryCount,
		},
	}, nil
}

// BuildFAT32 derives a FAT32 geometry for a volume of the given size,
// using the conventional 32-reserved-sector, root-at-cluster-2 layout most
// FAT32 formatters default to.
func BuildFAT32(totalSectors, bytesPerSector, sectorsPerCluster, numFATs uint32) (fat.Geometry, error) {
	const reservedSectors = 32
	const rootCluster = 2

	tmpVal1 := totalSectors - reservedSectors
	tmpVal2 := ((256 * sectorsPerCluster) + numFATs) / 2
	sectorsPerFAT := (tmpVal1 + tmpVal2 - 1) / tmpVal2

	dataSectors := totalSectors - reservedSectors - numFATs*sectorsPerFAT
	totalClusters := dataSectors / sectorsPerCluster
	if fat.DetermineType(totalClusters) != fat.Type32 {
		return fat.Geometry{}, fmt.Errorf("volume of %d sectors is too small for FAT32", totalSectors)
	}

	firstDataSector := int64(reservedSectors+numFATs*sectorsPerFAT) * int64(bytesPerSector)
	return fat.Geometry{
		FATType:           fat.Type32,
		BytesPerSector:    bytesPerSector,
		SectorsPerCluster: sectorsPerCluster,
		NumFATs:           numFATs,
		SectorsPerFAT:     sectorsPerFAT,
		ReservedSectors:   reservedSectors,
		FirstDataSector:   firstDataSector,
		TotalClusters:     totalClusters,
		RootDir:           fat.RootDirSpec{FirstCluster: rootCluster},
	}, nil
}
