package part

import (
	"github.com/diskfs/go-disktables/filesystem"
)

// Flags is the allocation bitmask a volume system reports for a slot
type Flags uint32

const (
	// FlagAlloc marks a slot backed by a partition table entry
	FlagAlloc Flags = 0x1
	// FlagUnalloc marks space not covered by any entry
	FlagUnalloc Flags = 0x2
	// FlagMeta marks a slot holding volume-system metadata (tables, headers, extended containers)
	FlagMeta Flags = 0x4
)

// Partition reference to an individual slot of a volume
type Partition interface {
	// Addr is the slot ordinal within the volume
	Addr() uint64
	// Desc is the free-form description, or "" if none
	Desc() string
	Flags() Flags
	// Start is the first block of the slot, in volume blocks
	Start() uint64
	// Len is the slot length, in volume blocks
	Len() uint64
	// OpenFileSystem detects and opens the filesystem held in the slot
	OpenFileSystem() (filesystem.FileSystem, error)
}

// Type names used for the classification of a slot
const (
	TypeMeta        = "meta"
	TypeUnallocated = "unallocated"
	TypeNormal      = "normal"
)

// Classify returns the type name for a flag set. The meta bit wins over the unalloc bit.
func Classify(f Flags) string {
	switch {
	case f&FlagMeta != 0:
		return TypeMeta
	case f&FlagUnalloc != 0:
		return TypeUnallocated
	default:
		return TypeNormal
	}
}
