package backend_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/diskfs/go-disktables/backend"
	"github.com/diskfs/go-disktables/testhelper"
)

func TestSubReadAt(t *testing.T) {
	data := []byte("0123456789abcdef")
	u := testhelper.Bytes(data)

	tests := []struct {
		name     string
		offset   int64
		size     int64
		readAt   int64
		buf      int
		expected string
		err      error
	}{
		{"inside window", 4, 8, 0, 4, "4567", nil},
		{"window tail", 4, 8, 6, 4, "ab", io.EOF},
		{"past window", 4, 8, 8, 4, "", io.EOF},
		{"size to end", 10, 0, 0, 6, "abcdef", nil},
		{"size clamped", 10, 100, 0, 8, "abcdef", io.EOF},
		{"negative offset", 4, 8, -1, 4, "", backend.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := backend.Sub(u, tt.offset, tt.size)
			b := make([]byte, tt.buf)
			n, err := s.ReadAt(b, tt.readAt)
			if !errors.Is(err, tt.err) {
				t.Errorf("mismatched error, actual %v expected %v", err, tt.err)
			}
			if got := string(b[:n]); got != tt.expected {
				t.Errorf("mismatched data, actual %q expected %q", got, tt.expected)
			}
		})
	}
}

func TestSubSeekRead(t *testing.T) {
	u := testhelper.Bytes([]byte("0123456789abcdef"))
	s := backend.Sub(u, 8, 8)

	pos, err := s.Seek(2, io.SeekStart)
	if err != nil || pos != 2 {
		t.Fatalf("Seek(2, start) = %d, %v", pos, err)
	}
	b := make([]byte, 3)
	if _, err := io.ReadFull(s, b); err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if !bytes.Equal(b, []byte("abc")) {
		t.Errorf("read %q, expected %q", b, "abc")
	}
	pos, err = s.Seek(-1, io.SeekEnd)
	if err != nil || pos != 7 {
		t.Fatalf("Seek(-1, end) = %d, %v", pos, err)
	}
	if _, err := s.Seek(-10, io.SeekCurrent); !errors.Is(err, backend.ErrOutOfRange) {
		t.Errorf("expected out of range error, got %v", err)
	}
	if s.Size() != 8 || s.Offset() != 8 {
		t.Errorf("unexpected window %d+%d", s.Offset(), s.Size())
	}
}
