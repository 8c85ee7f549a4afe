package fat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirEntryIsDirIsFile(t *testing.T) {
	dir := DirEntry{raw: RawRecord{Attr: AttrDirectory}}
	assert.True(t, dir.IsDir())
	assert.False(t, dir.IsFile())

	file := DirEntry{raw: RawRecord{Attr: AttrArchive}}
	assert.False(t, file.IsDir())
	assert.True(t, file.IsFile())
}

func TestDirEntryFirstClusterEmptyFile(t *testing.T) {
	entry := DirEntry{raw: RawRecord{Size: 0}}
	cluster, ok := entry.FirstCluster()
	assert.Zero(t, cluster)
	assert.False(t, ok)
}

func TestDirEntryMustBeDirPanicsOnFile(t *testing.T) {
	file := DirEntry{raw: RawRecord{Attr: AttrArchive}}
	require.Panics(t, func() { file.mustBeDir() })
}

func TestDirEntryMustBeFilePanicsOnDir(t *testing.T) {
	dir := DirEntry{raw: RawRecord{Attr: AttrDirectory}}
	require.Panics(t, func() { dir.mustBeFile() })
}

func TestDirEntryMustBeDirDoesNotPanicOnDir(t *testing.T) {
	dir := DirEntry{raw: RawRecord{Attr: AttrDirectory}}
	require.NotPanics(t, func() { dir.mustBeDir() })
}

func TestDirEntryMustBeFileDoesNotPanicOnFile(t *testing.T) {
	file := DirEntry{raw: RawRecord{Attr: AttrArchive}}
	require.NotPanics(t, func() { file.mustBeFile() })
}

func TestDirEntryOffsetRange(t *testing.T) {
	entry := DirEntry{start: 64, end: 96}
	start, end := entry.OffsetRange()
	assert.EqualValues(t, 64, start)
	assert.EqualValues(t, 96, end)
}
