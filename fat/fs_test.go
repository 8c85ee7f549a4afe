package fat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinklabs/fatfs/internal/ioutil"
)

func newTestStore(size int64) ioutil.BackingStore {
	return ioutil.NewByteSliceStore(make([]byte, size))
}

// newFormattedBackingStore builds an unformatted FAT32-shaped store and
// geometry, sized for Format to write directly.
func newFormattedBackingStore(t *testing.T, fatType Type, totalClusters uint32) (ioutil.BackingStore, Geometry) {
	t.Helper()
	const (
		bytesPerSector    = 512
		sectorsPerCluster = 1
		reservedSectors   = 32
		sectorsPerFAT     = 1
	)
	firstDataSector := int64(reservedSectors+sectorsPerFAT) * bytesPerSector
	geom := Geometry{
		FATType:           fatType,
		BytesPerSector:    bytesPerSector,
		SectorsPerCluster: sectorsPerCluster,
		NumFATs:           1,
		SectorsPerFAT:     sectorsPerFAT,
		ReservedSectors:   reservedSectors,
		FirstDataSector:   firstDataSector,
		TotalClusters:     totalClusters,
		RootDir:           RootDirSpec{FirstCluster: 2},
	}
	storeSize := firstDataSector + int64(totalClusters)*int64(geom.ClusterSize())
	return newTestStore(storeSize), geom
}

func TestMountRoundTripsThroughDetectGeometry(t *testing.T) {
	fs, store, geom := newFAT16TestVolume(t, 1, 10)
	require.NoError(t, fs.Flush())

	mounted, err := Mount(store)
	require.NoError(t, err)
	assert.Equal(t, geom.FATType, mounted.Geometry().FATType)
	assert.Equal(t, geom.TotalClusters, mounted.Geometry().TotalClusters)
}

func TestWithClockStampsNewEntries(t *testing.T) {
	fixed := time.Date(2020, time.January, 2, 3, 4, 0, 0, time.UTC)
	store, geom := newFormattedBackingStore(t, Type32, 10)

	fs, err := Format(store, geom, "", WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	root, err := fs.RootDir()
	require.NoError(t, err)
	_, err = root.CreateDir("sub")
	require.NoError(t, err)

	entries, err := root.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DateToInt(fixed), entries[0].raw.CreateDate)
}

func TestVolumeLabelRoundTrip(t *testing.T) {
	store, geom := newFormattedBackingStore(t, Type32, 10)
	fs, err := Format(store, geom, "MYLABEL")
	require.NoError(t, err)

	label, ok, err := fs.VolumeLabel()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "MYLABEL", label)
}

func TestVolumeLabelAbsentWhenNotSet(t *testing.T) {
	store, geom := newFormattedBackingStore(t, Type32, 10)
	fs, err := Format(store, geom, "")
	require.NoError(t, err)

	_, ok, err := fs.VolumeLabel()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlushMirrorsFATCopies(t *testing.T) {
	const (
		bytesPerSector  = 512
		reservedSectors = 1
		sectorsPerFAT   = 1
		totalClusters   = 10
		maxRootEntries  = 16
		numFATs         = 2
	)
	fixedOffset := int64(reservedSectors+numFATs*sectorsPerFAT) * bytesPerSector
	firstDataSector := fixedOffset + int64(maxRootEntries)*RecordSize
	geom := Geometry{
		FATType:           Type16,
		BytesPerSector:    bytesPerSector,
		SectorsPerCluster: 1,
		NumFATs:           numFATs,
		SectorsPerFAT:     sectorsPerFAT,
		ReservedSectors:   reservedSectors,
		FirstDataSector:   firstDataSector,
		TotalClusters:     totalClusters,
		RootDir:           RootDirSpec{FixedOffset: fixedOffset, MaxEntries: maxRootEntries},
	}
	storeSize := firstDataSector + int64(totalClusters)*int64(geom.ClusterSize())
	store := newTestStore(storeSize)

	fs, err := Format(store, geom, "")
	require.NoError(t, err)

	root, err := fs.RootDir()
	require.NoError(t, err)
	_, err = root.CreateFile("a")
	require.NoError(t, err)

	require.NoError(t, fs.Flush())

	primary := make([]byte, geom.FATRegionLength())
	_, err = store.ReadAt(primary, geom.FATRegionOffset())
	require.NoError(t, err)

	mirror := make([]byte, geom.FATRegionLength())
	_, err = store.ReadAt(mirror, geom.FATRegionOffset()+geom.FATRegionLength())
	require.NoError(t, err)

	assert.Equal(t, primary, mirror)
}
