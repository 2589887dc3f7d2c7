// Package file provides a backend.Storage over an image file or block device.
package file

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/diskfs/go-disktables/backend"
)

type rawBackend struct {
	storage fs.File
	size    int64
}

// New creates a backend.Storage from provided fs.File. The size is taken from Stat,
// or from the kernel when f is a block device.
func New(f fs.File) (backend.Storage, error) {
	size, err := storageSize(f)
	if err != nil {
		return nil, err
	}
	return &rawBackend{
		storage: f,
		size:    size,
	}, nil
}

// OpenFromPath creates a read-only backend.Storage from a path to a device or image.
// Should pass a path to a block device e.g. /dev/sda or a path to a file /tmp/foo.img
// The provided device/file must exist at the time you call OpenFromPath()
func OpenFromPath(pathName string) (backend.Storage, error) {
	if pathName == "" {
		return nil, errors.New("must pass device or file name")
	}

	if _, err := os.Stat(pathName); os.IsNotExist(err) {
		return nil, fmt.Errorf("provided device/file %s does not exist", pathName)
	}

	f, err := os.OpenFile(pathName, os.O_RDONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open device %s read-only: %w", pathName, err)
	}

	b, err := New(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return b, nil
}

func storageSize(f fs.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("could not stat storage: %w", err)
	}
	mode := info.Mode()
	switch {
	case mode.IsRegular():
		return info.Size(), nil
	case mode&os.ModeDevice != 0:
		osFile, ok := f.(*os.File)
		if !ok {
			return 0, backend.ErrNotSuitable
		}
		return deviceSize(osFile)
	default:
		return 0, fmt.Errorf("%s is neither a block device nor a regular file", info.Name())
	}
}

// backend.Storage interface guard
var _ backend.Storage = (*rawBackend)(nil)

// OS-specific file for ioctl calls via fd
func (f *rawBackend) Sys() (*os.File, error) {
	if osFile, ok := f.storage.(*os.File); ok {
		return osFile, nil
	}
	return nil, backend.ErrNotSuitable
}

func (f *rawBackend) Size() int64 {
	return f.size
}

func (f *rawBackend) Stat() (fs.FileInfo, error) {
	return f.storage.Stat()
}

func (f *rawBackend) Read(b []byte) (int, error) {
	return f.storage.Read(b)
}

func (f *rawBackend) Close() error {
	return f.storage.Close()
}

func (f *rawBackend) ReadAt(p []byte, off int64) (n int, err error) {
	if readerAt, ok := f.storage.(io.ReaderAt); ok {
		return readerAt.ReadAt(p, off)
	}
	return -1, backend.ErrNotSuitable
}

func (f *rawBackend) Seek(offset int64, whence int) (int64, error) {
	if seeker, ok := f.storage.(io.Seeker); ok {
		return seeker.Seek(offset, whence)
	}
	return -1, backend.ErrNotSuitable
}
