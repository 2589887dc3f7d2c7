package backend

import (
	"io"
	"io/fs"
	"os"
)

// SubStorage is a window of size bytes starting at offset within an underlying Storage.
// Each SubStorage keeps its own read position, so windows over the same image do not
// disturb one another. Closing a window does not close the underlying storage.
type SubStorage struct {
	underlying Storage
	offset     int64
	size       int64
	pos        int64
}

// Sub returns a window over u. A size <= 0 extends the window to the end of u.
func Sub(u Storage, offset, size int64) *SubStorage {
	if size <= 0 || offset+size > u.Size() {
		size = u.Size() - offset
	}
	if size < 0 {
		size = 0
	}
	return &SubStorage{
		underlying: u,
		offset:     offset,
		size:       size,
	}
}

func (s *SubStorage) Stat() (fs.FileInfo, error) {
	return s.underlying.Stat()
}

func (s *SubStorage) Size() int64 {
	return s.size
}

// Offset of the window within the underlying storage
func (s *SubStorage) Offset() int64 {
	return s.offset
}

func (s *SubStorage) Read(b []byte) (int, error) {
	n, err := s.ReadAt(b, s.pos)
	s.pos += int64(n)
	return n, err
}

// Close only detaches the window; the underlying storage belongs to whoever opened it.
func (s *SubStorage) Close() error {
	return nil
}

func (s *SubStorage) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, ErrOutOfRange
	}
	if off >= s.size {
		return 0, io.EOF
	}
	short := false
	if remaining := s.size - off; int64(len(p)) > remaining {
		p = p[:remaining]
		short = true
	}
	n, err = s.underlying.ReadAt(p, s.offset+off)
	if err == nil && short {
		err = io.EOF
	}
	return n, err
}

func (s *SubStorage) Seek(offset int64, whence int) (int64, error) {
	var pos int64

	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.pos + offset
	case io.SeekEnd:
		pos = s.size + offset
	default:
		return -1, ErrNotSuitable
	}

	if pos < 0 {
		return -1, ErrOutOfRange
	}
	s.pos = pos
	return pos, nil
}

func (s *SubStorage) Sys() (*os.File, error) {
	return s.underlying.Sys()
}
