package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinklabs/fatfs/fat"
)

func TestLookupKnownPreset(t *testing.T) {
	p, err := Lookup("hd16m")
	require.NoError(t, err)
	assert.Equal(t, "hd16m", p.Slug)
	assert.Positive(t, p.TotalSectors)
}

func TestLookupUnknownPreset(t *testing.T) {
	_, err := Lookup("does-not-exist")
	require.Error(t, err)
}

func TestSlugsIncludesAllPresets(t *testing.T) {
	slugs := Slugs()
	assert.Contains(t, slugs, "hd16m")
	assert.Contains(t, slugs, "fd1440")
	assert.Len(t, slugs, 7)
}

func TestBuildProducesFAT12Or16Geometry(t *testing.T) {
	p, err := Lookup("fd1440")
	require.NoError(t, err)

	geom, err := Build(p)
	require.NoError(t, err)
	assert.Contains(t, []fat.Type{fat.Type12, fat.Type16}, geom.FATType)
	assert.EqualValues(t, p.BytesPerSector, geom.BytesPerSector)
	assert.NotZero(t, geom.TotalClusters)
}

func TestBuildFAT32ProducesFAT32Geometry(t *testing.T) {
	// 66600 sectors * 512 bytes/sector clears the 65525-cluster FAT32
	// threshold at 1 sector/cluster.
	geom, err := BuildFAT32(66600, 512, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, fat.Type32, geom.FATType)
	assert.GreaterOrEqual(t, geom.TotalClusters, uint32(65525))
	assert.EqualValues(t, 2, geom.RootDir.FirstCluster)
}

func TestBuildFAT32RejectsTooSmallVolume(t *testing.T) {
	_, err := BuildFAT32(4096, 512, 1, 2)
	require.Error(t, err)
}

func TestTotalSizeBytes(t *testing.T) {
	p, err := Lookup("fd1440")
	require.NoError(t, err)
	assert.EqualValues(t, int64(p.TotalSectors)*int64(p.BytesPerSector), p.TotalSizeBytes())
}
