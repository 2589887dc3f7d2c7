// Package partition provides the volume view of a disk: the ordered slots a partition table
// and the space around it break a disk into.
package partition

import (
	"sort"

	"github.com/diskfs/go-disktables/partition/part"
)

// Volume is a parsed volume system
type Volume interface {
	// BlockSize is the size of a volume block in bytes
	BlockSize() int64
	// Count is the number of slots, valid or not
	Count() int
	// Partition returns slot i, or nil if i is out of range or the slot is invalid
	Partition(i int) part.Partition
}

// Entry is a region of the volume before addresses are assigned
type Entry struct {
	Start uint64
	Len   uint64
	Flags part.Flags
	Desc  string
	// Index is the 1-based table index of the entry, 0 for synthesised regions
	Index int
}

// Slot is an Entry placed in the volume
type Slot struct {
	Entry
	Addr uint64
}

// UnallocatedDesc describes the gaps Layout fills in
const UnallocatedDesc = "Unallocated"

// Layout orders entries by start block, fills every gap and the tail up to totalBlocks with
// unallocated slots, and numbers the result. Entries of zero length are dropped. Overlapping
// entries are kept as given; only the uncovered space is synthesised.
func Layout(entries []Entry, totalBlocks uint64) []Slot {
	sorted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Len == 0 {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		// metadata first when two regions start together
		return sorted[i].Flags&part.FlagMeta > sorted[j].Flags&part.FlagMeta
	})

	var (
		slots  []Slot
		cursor uint64
	)
	add := func(e Entry) {
		slots = append(slots, Slot{Entry: e, Addr: uint64(len(slots))})
	}
	for _, e := range sorted {
		if e.Start > cursor {
			add(Entry{Start: cursor, Len: e.Start - cursor, Flags: part.FlagUnalloc, Desc: UnallocatedDesc})
		}
		add(e)
		if end := e.Start + e.Len; end > cursor {
			cursor = end
		}
	}
	if totalBlocks > cursor {
		add(Entry{Start: cursor, Len: totalBlocks - cursor, Flags: part.FlagUnalloc, Desc: UnallocatedDesc})
	}
	return slots
}
