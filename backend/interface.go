// Package backend provides read-only byte access to disk images and block devices.
//
// Images are never written.
package backend

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

var (
	ErrNotSuitable = errors.New("backing file is not suitable")
	ErrOutOfRange  = errors.New("read outside of storage window")
)

// File is the minimal random-access view of an image.
type File interface {
	fs.File
	io.ReaderAt
	io.Seeker
	io.Closer
}

// Storage is a File with a known size, optionally backed by an OS file.
type Storage interface {
	File
	// Size of the addressable region in bytes
	Size() int64
	// OS-specific file for ioctl calls via fd
	Sys() (*os.File, error)
}
