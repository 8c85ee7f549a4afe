package ioutil

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceReadWriteRoundTrip(t *testing.T) {
	store := NewByteSliceStore(make([]byte, 64))
	slice := NewSlice(store, 16, 8, 1)

	n, err := slice.WriteAt([]byte("abcdefgh"), 0)
	require.NoError(t, err)
	require.Equal(t, 8, n)

	buf := make([]byte, 8)
	n, err = slice.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", string(buf[:n]))
}

func TestSliceWriteOutOfBoundsRejected(t *testing.T) {
	store := NewByteSliceStore(make([]byte, 64))
	slice := NewSlice(store, 0, 8, 1)

	_, err := slice.WriteAt([]byte("toolongvalue"), 0)
	require.Error(t, err)
}

func TestSliceReadPastEndReturnsEOF(t *testing.T) {
	store := NewByteSliceStore(make([]byte, 64))
	slice := NewSlice(store, 0, 8, 1)

	buf := make([]byte, 4)
	_, err := slice.ReadAt(buf, 8)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSliceReadClampsToLength(t *testing.T) {
	store := NewByteSliceStore(make([]byte, 64))
	slice := NewSlice(store, 0, 8, 1)

	buf := make([]byte, 16)
	n, err := slice.ReadAt(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSliceSeekVariants(t *testing.T) {
	store := NewByteSliceStore(make([]byte, 64))
	slice := NewSlice(store, 0, 16, 1)

	pos, err := slice.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 4, pos)

	pos, err = slice.Seek(2, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 6, pos)

	pos, err = slice.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.EqualValues(t, 16, pos)

	_, err = slice.Seek(-100, io.SeekStart)
	require.Error(t, err)
}

func TestSliceReadWriteUseInternalCursor(t *testing.T) {
	store := NewByteSliceStore(make([]byte, 64))
	slice := NewSlice(store, 0, 16, 1)

	_, err := slice.Write([]byte("hi"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, slice.Pos())

	slice.Seek(0, io.SeekStart)
	buf := make([]byte, 2)
	n, err := slice.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf[:n]))
}

func TestSliceMirrorOffset(t *testing.T) {
	store := NewByteSliceStore(make([]byte, 256))
	slice := NewSlice(store, 32, 64, 2)

	assert.EqualValues(t, 32, slice.MirrorOffset(0))
	assert.EqualValues(t, 96, slice.MirrorOffset(1))
}
