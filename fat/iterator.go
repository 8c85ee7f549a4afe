package fat

// ClusterIterator is a stateful forward walk of a cluster chain (component
// D). It holds a writable view of the FAT so it can both follow a chain
// (Next) and mutate it in place (Truncate, Free) -- modelled as a single
// type rather than splitting "read-only walker" and "FAT writer" apart,
// since every caller that walks a chain to free or relink it needs both.
type ClusterIterator struct {
	table   *Table
	current uint32
	valid   bool // false once the walk has reached the end of the chain
	errored bool
}

// NewClusterIterator begins a walk at start. start need not be validated
// ahead of time; a Free or Bad start cluster simply yields nothing from
// Next, and an EndOfChain start cluster yields just itself.
func NewClusterIterator(table *Table, start uint32) *ClusterIterator {
	return &ClusterIterator{table: table, current: start, valid: true}
}

// Next yields the current cluster, then advances to the one the FAT says
// follows it. It returns (cluster, true, nil) while the chain continues,
// (0, false, nil) at a clean end (EndOfChain/Bad/Free), and (0, false, err)
// on an I/O error. After an error the iterator latches: subsequent calls
// keep returning (0, false, nil).
func (it *ClusterIterator) Next() (uint32, bool, error) {
	if it.errored || !it.valid {
		return 0, false, nil
	}

	entry, err := it.table.Read(it.current)
	if err != nil {
		it.errored = true
		return 0, false, err
	}

	if entry.IsFree() || entry.IsBad() {
		it.valid = false
		return 0, false, nil
	}

	cluster := it.current
	if entry.IsEndOfChain() {
		it.valid = false
		return cluster, true, nil
	}

	next, _ := entry.Next()
	it.current = next
	return cluster, true, nil
}

// Truncate writes EndOfChain at the iterator's current cluster, then frees
// every cluster after it. The chain keeps everything up to and including
// the current cluster.
func (it *ClusterIterator) Truncate() error {
	if it.errored || !it.valid {
		return nil
	}

	entry, err := it.table.Read(it.current)
	if err != nil {
		it.errored = true
		return err
	}

	cut := it.current
	if entry.IsData() {
		next, _ := entry.Next()
		it.current = next
	} else {
		it.valid = false
	}

	if err := it.table.Write(cut, EndOfChainEntry()); err != nil {
		it.errored = true
		return err
	}

	return it.Free()
}

// Free walks from the iterator's current position to the end of the chain,
// writing Free to every cluster it visits.
func (it *ClusterIterator) Free() error {
	for it.valid && !it.errored {
		entry, err := it.table.Read(it.current)
		if err != nil {
			it.errored = true
			return err
		}

		cluster := it.current
		isData := entry.IsData()
		var next uint32
		if isData {
			next, _ = entry.Next()
		}

		if err := it.table.Write(cluster, FreeEntry()); err != nil {
			it.errored = true
			return err
		}

		if !isData {
			it.valid = false
			return nil
		}
		it.current = next
	}
	return nil
}
