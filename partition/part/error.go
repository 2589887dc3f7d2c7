package part

import "fmt"

// NoFilesystemError is returned by OpenFileSystem when a slot cannot hold a filesystem
type NoFilesystemError struct {
	addr  uint64
	flags Flags
}

func (e *NoFilesystemError) Error() string {
	return fmt.Sprintf("partition %d with flags %#x holds no filesystem", e.addr, uint32(e.flags))
}

func NewNoFilesystemError(addr uint64, flags Flags) error {
	return &NoFilesystemError{
		addr:  addr,
		flags: flags,
	}
}
