package fat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatStampsFSInfoFreeCount(t *testing.T) {
	store, geom := newFormattedBackingStore(t, Type32, 10)
	fs, err := Format(store, geom, "")
	require.NoError(t, err)

	count, ok, err := fs.FreeClusterHint()
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, geom.TotalClusters-1, count)
}

func TestFreeClusterHintFalseOnFAT16(t *testing.T) {
	fs, _, _ := newFAT16TestVolume(t, 1, 10)
	_, ok, err := fs.FreeClusterHint()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlushRefreshesFSInfoAfterAllocation(t *testing.T) {
	store, geom := newFormattedBackingStore(t, Type32, 10)
	fs, err := Format(store, geom, "")
	require.NoError(t, err)

	root, err := fs.RootDir()
	require.NoError(t, err)
	file, err := root.CreateFile("a")
	require.NoError(t, err)
	_, err = file.Write([]byte("hello"))
	require.NoError(t, err)

	// The Write above already built the free-cluster cache that Flush needs
	// before it refreshes FSInfo; searching it does not change the count.
	_, err = fs.table.FindFree(2)
	require.NoError(t, err)

	require.NoError(t, fs.Flush())

	count, ok, err := fs.FreeClusterHint()
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, geom.TotalClusters-2, count)
}
