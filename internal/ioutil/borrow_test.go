package ioutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrowAcquireRelease(t *testing.T) {
	var b Borrow
	release := b.Acquire()
	release()

	require.NotPanics(t, func() {
		release2 := b.Acquire()
		release2()
	})
}

func TestBorrowPanicsOnReentry(t *testing.T) {
	var b Borrow
	release := b.Acquire()
	defer release()

	assert.Panics(t, func() { b.Acquire() })
}
