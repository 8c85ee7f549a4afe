package ioutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteSliceStoreReadWriteRoundTrip(t *testing.T) {
	data := make([]byte, 64)
	store := NewByteSliceStore(data)

	n, err := store.WriteAt([]byte("hello"), 10)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = store.ReadAt(buf, 10)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))
}

func TestByteSliceStoreWritesMutateUnderlyingSlice(t *testing.T) {
	data := make([]byte, 16)
	store := NewByteSliceStore(data)

	_, err := store.WriteAt([]byte{0xAB, 0xCD}, 0)
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), data[0])
	require.Equal(t, byte(0xCD), data[1])
}

func TestLengthReportsSliceSize(t *testing.T) {
	store := NewByteSliceStore(make([]byte, 4096))
	n, err := Length(store)
	require.NoError(t, err)
	require.EqualValues(t, 4096, n)
}

func TestCodecRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	PutUint16(buf[:2], 0xABCD)
	PutUint32(buf, 0xDEADBEEF)

	require.Equal(t, uint32(0xDEADBEEF), Uint32(buf))
}
