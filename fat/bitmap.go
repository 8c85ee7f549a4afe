package fat

import (
	"github.com/boljen/go-bitmap"

	"github.com/brinklabs/fatfs/errors"
)

// freeMap is an in-memory free-cluster cache (component K): one bit per
// cluster, mirroring the Allocator pattern the teacher uses for its own
// block devices. Table builds one lazily on first use and keeps it in sync
// on every Write, so that after the initial scan that builds it FindFree
// scans in-memory bits instead of re-reading FAT entries from the store.
type freeMap struct {
	bits  bitmap.Bitmap
	built bool
}

// ensureBuilt performs the one full-table scan a freeMap needs, the same
// linear walk FindFree would otherwise repeat on every call.
func (fm *freeMap) ensureBuilt(t *Table) error {
	if fm.built {
		return nil
	}
	fm.bits = bitmap.New(int(t.totalClusters) + 2)
	for c := uint32(2); c < t.totalClusters+2; c++ {
		entry, err := t.Read(c)
		if err != nil {
			return err
		}
		fm.bits.Set(int(c), !entry.IsFree())
	}
	fm.built = true
	return nil
}

func (fm *freeMap) markUsed(cluster uint32) {
	if fm.built {
		fm.bits.Set(int(cluster), true)
	}
}

func (fm *freeMap) markFree(cluster uint32) {
	if fm.built {
		fm.bits.Set(int(cluster), false)
	}
}

// findFree scans the cache starting at hint, wrapping around once, exactly
// matching Table.FindFree's search order but against the bitmap instead of
// re-reading the FAT.
func (fm *freeMap) findFree(t *Table, hint uint32) (uint32, error) {
	if err := fm.ensureBuilt(t); err != nil {
		return 0, err
	}
	if hint < 2 {
		hint = 2
	}
	limit := t.totalClusters + 2

	for c := hint; c < limit; c++ {
		if !fm.bits.Get(int(c)) {
			return c, nil
		}
	}
	for c := uint32(2); c < hint && c < limit; c++ {
		if !fm.bits.Get(int(c)) {
			return c, nil
		}
	}
	return 0, errors.ErrNoSpaceOnDevice
}
