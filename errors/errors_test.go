package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskoErrorIsComparable(t *testing.T) {
	var err error = ErrNotFound
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrExists))
}

func TestWithMessageWrapsSentinel(t *testing.T) {
	wrapped := ErrNotFound.WithMessage("foobar.txt")
	require.Error(t, wrapped)
	assert.Contains(t, wrapped.Error(), "foobar.txt")
	assert.True(t, ErrNotFound.IsSameError(wrapped))
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := errors.New("disk offline")
	wrapped := ErrIOFailed.WrapError(cause)

	assert.True(t, errors.Is(wrapped, cause))
	assert.Contains(t, wrapped.Error(), "disk offline")
}

func TestIsSameErrorFollowsChain(t *testing.T) {
	wrapped := ErrDirectoryNotEmpty.WithMessage("d").(DriverError)
	assert.True(t, ErrDirectoryNotEmpty.IsSameError(wrapped))
	assert.False(t, ErrNotFound.IsSameError(wrapped))
}
