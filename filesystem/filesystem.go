// Package filesystem provides the read-only view of a filesystem that the file tables are
// built from, and the Lister that walks it.
// Concrete implementations live in github.com/diskfs/go-disktables/driver and its subpackages.
package filesystem

import (
	"errors"
)

var ErrNotDirectory = errors.New("not a directory")

// FileSystem is a reference to a single filesystem inside a partition
type FileSystem interface {
	// Type return the type name of the filesystem, e.g. "ext4" or "ntfs"
	Type() string
	Flags() uint32
	// Offset is the byte offset of the filesystem from the start of the image
	Offset() int64
	BlockSize() int64
	BlockCount() uint64
	InodeCount() uint64
	RootInode() uint64
	// OpenDir opens the directory with the given inode
	OpenDir(inode uint64) (Directory, error)
	// OpenPath opens a file by its absolute path
	OpenPath(p string) (File, error)
	// OpenInode opens a file by its inode number
	OpenInode(inode uint64) (File, error)
	Close() error
}

// Directory is an open directory listing, entries in on-disk order
type Directory interface {
	Size() int
	File(i int) (File, error)
	Close() error
}

// File is an open handle to a single entry
type File interface {
	// Name is the entry name the file was opened under, "" when opened by inode
	Name() string
	// Meta returns the inode metadata, false when it could not be read
	Meta() (*Meta, bool)
	FileSystem() FileSystem
	Close() error
}
