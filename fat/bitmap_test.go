package fat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinklabs/fatfs/internal/ioutil"
)

func TestFreeMapFindFreeMatchesTableScan(t *testing.T) {
	store := ioutil.NewByteSliceStore(make([]byte, 4096))
	geom := Geometry{FATType: Type16, BytesPerSector: 512, ReservedSectors: 0, SectorsPerFAT: 4, TotalClusters: 20}
	table := NewTable(store, geom)

	require.NoError(t, table.Write(2, DataEntry(3)))
	require.NoError(t, table.Write(3, EndOfChainEntry()))

	fm := &freeMap{}
	c, err := fm.findFree(table, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, c)
}

func TestFreeMapMarkUsedAndFree(t *testing.T) {
	store := ioutil.NewByteSliceStore(make([]byte, 4096))
	geom := Geometry{FATType: Type16, BytesPerSector: 512, ReservedSectors: 0, SectorsPerFAT: 4, TotalClusters: 20}
	table := NewTable(store, geom)

	fm := &freeMap{}
	require.NoError(t, fm.ensureBuilt(table))

	fm.markUsed(2)
	c, err := fm.findFree(table, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, c)

	fm.markFree(2)
	c, err = fm.findFree(table, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c)
}

func TestFreeMapWrapsAroundSearch(t *testing.T) {
	store := ioutil.NewByteSliceStore(make([]byte, 4096))
	geom := Geometry{FATType: Type16, BytesPerSector: 512, ReservedSectors: 0, SectorsPerFAT: 4, TotalClusters: 6}
	table := NewTable(store, geom)

	fm := &freeMap{}
	require.NoError(t, fm.ensureBuilt(table))
	for c := uint32(3); c < 8; c++ {
		fm.markUsed(c)
	}

	c, err := fm.findFree(table, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c)
}

func TestFreeMapReturnsErrorWhenFull(t *testing.T) {
	store := ioutil.NewByteSliceStore(make([]byte, 4096))
	geom := Geometry{FATType: Type16, BytesPerSector: 512, ReservedSectors: 0, SectorsPerFAT: 4, TotalClusters: 2}
	table := NewTable(store, geom)

	fm := &freeMap{}
	require.NoError(t, fm.ensureBuilt(table))
	fm.markUsed(2)
	fm.markUsed(3)

	_, err := fm.findFree(table, 2)
	require.Error(t, err)
}
