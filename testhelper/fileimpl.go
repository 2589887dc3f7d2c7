package testhelper

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

type reader func(b []byte, offset int64) (int, error)

// FileImpl implements github.com/diskfs/go-disktables/backend.Storage
// used for testing to enable stubbing out images
type FileImpl struct {
	Reader reader
	Length int64
}

// Bytes returns a FileImpl serving the contents of b.
func Bytes(b []byte) *FileImpl {
	return &FileImpl{
		Length: int64(len(b)),
		Reader: func(p []byte, offset int64) (int, error) {
			if offset >= int64(len(b)) {
				return 0, io.EOF
			}
			n := copy(p, b[offset:])
			if n < len(p) {
				return n, io.EOF
			}
			return n, nil
		},
	}
}

func (f *FileImpl) Stat() (fs.FileInfo, error) {
	return nil, nil
}

func (f *FileImpl) Read(b []byte) (int, error) {
	return f.Reader(b, 0)
}

func (f *FileImpl) Close() error {
	return nil
}

func (f *FileImpl) Size() int64 {
	return f.Length
}

// Sys there is no OS file behind a stub
func (f *FileImpl) Sys() (*os.File, error) {
	return nil, errors.New("FileImpl has no OS file")
}

// ReadAt read at a particular offset
func (f *FileImpl) ReadAt(b []byte, offset int64) (int, error) {
	return f.Reader(b, offset)
}

// Seek seek a particular offset - does not actually work
//
//nolint:unused,revive // to implement the interface
func (f *FileImpl) Seek(offset int64, whence int) (int64, error) {
	return 0, errors.New("FileImpl does not implement Seek()")
}
