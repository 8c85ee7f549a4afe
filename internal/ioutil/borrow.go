package ioutil

import "sync"

// Borrow enforces the single-borrow discipline spec.md §5 describes: at most
// one read-or-write access to the shared backing store may be outstanding at
// any instant. Re-entrant acquisition is a programming error (attempting to
// enumerate a directory while another operation holds the disk), and it
// must surface deterministically rather than deadlock or race -- so unlike
// a plain sync.Mutex, Acquire panics instead of blocking.
type Borrow struct {
	mu  sync.Mutex
	out bool
}

// Acquire claims the borrow and returns a release function. It panics if the
// borrow is already outstanding.
func (b *Borrow) Acquire() func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.out {
		panic("fatfs: borrow violation: backing store accessed while another operation holds it")
	}
	b.out = true
	return b.release
}

func (b *Borrow) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out = false
}
