package pathfs

import (
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/diskfs/go-disktables/filesystem"
)

type statWithMethods struct {
	uid uint32
}

func (s *statWithMethods) UID() uint32 { return s.uid }
func (s *statWithMethods) GID() int    { return -1 }
func (s *statWithMethods) CreateTime() time.Time {
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestFileType(t *testing.T) {
	tests := []struct {
		mode     fs.FileMode
		expected filesystem.FileType
	}{
		{0o644, filesystem.TypeRegular},
		{fs.ModeDir | 0o755, filesystem.TypeDirectory},
		{fs.ModeSymlink | 0o777, filesystem.TypeSymlink},
		{fs.ModeNamedPipe, filesystem.TypeFIFO},
		{fs.ModeSocket, filesystem.TypeSocket},
		{fs.ModeDevice | fs.ModeCharDevice, filesystem.TypeCharacter},
		{fs.ModeDevice, filesystem.TypeBlock},
		{fs.ModeIrregular, filesystem.TypeUnknown},
	}
	for _, tt := range tests {
		if got := fileType(tt.mode); got != tt.expected {
			t.Errorf("fileType(%v) = %v, expected %v", tt.mode, got, tt.expected)
		}
	}
}

func TestPermissions(t *testing.T) {
	tests := []struct {
		mode     fs.FileMode
		expected uint32
	}{
		{0o644, 0o644},
		{0o755 | fs.ModeSetuid, 0o4755},
		{0o755 | fs.ModeSetgid, 0o2755},
		{fs.ModeDir | 0o777 | fs.ModeSticky, 0o1777},
	}
	for _, tt := range tests {
		if got := permissions(tt.mode); got != tt.expected {
			t.Errorf("permissions(%v) = %#o, expected %#o", tt.mode, got, tt.expected)
		}
	}
}

func TestSysLookup(t *testing.T) {
	s := &statWithMethods{uid: 42}
	if got := sysUint(s, "UID", "Uid"); got != 42 {
		t.Errorf("UID via method = %d", got)
	}
	if got := sysUint(s, "GID", "Gid"); got != 0 {
		t.Errorf("negative GID should read as 0, got %d", got)
	}
	if got := sysTime(s, "CreateTime"); got.Year() != 2000 {
		t.Errorf("CreateTime via method = %v", got)
	}

	fields := struct {
		Uid   int64
		Atime time.Time
		gid   uint32
	}{Uid: 7, Atime: time.Unix(100, 0), gid: 9}
	if got := sysUint(fields, "UID", "Uid"); got != 7 {
		t.Errorf("Uid via field = %d", got)
	}
	if got := sysUint(fields, "gid"); got != 0 {
		t.Errorf("unexported field should not be read, got %d", got)
	}
	if got := sysTime(fields, "Atime"); got.Unix() != 100 {
		t.Errorf("Atime via field = %v", got)
	}
	if got := sysUint(nil, "Uid"); got != 0 {
		t.Errorf("nil sys = %d", got)
	}
	var nilPtr *statWithMethods
	if got := sysUint(nilPtr, "Nlink"); got != 0 {
		t.Errorf("nil pointer sys = %d", got)
	}
}

func TestMetaFromTimes(t *testing.T) {
	mtime := time.Date(2021, 6, 7, 8, 9, 10, 0, time.UTC)
	m := fstest.MapFS{
		"plain": {Mode: 0o644, ModTime: mtime},
		"timed": {Mode: 0o644, ModTime: mtime, Sys: struct{ AccessTime time.Time }{time.Unix(100, 0)}},
	}

	plain, err := fs.Stat(m, "plain")
	if err != nil {
		t.Fatal(err)
	}
	got := metaFrom(2, plain)
	if !got.ATime.IsZero() || !got.CrTime.IsZero() {
		t.Errorf("times not exposed by the reader should be zero, got atime %v crtime %v", got.ATime, got.CrTime)
	}
	if !got.MTime.Equal(mtime) {
		t.Errorf("mtime = %v", got.MTime)
	}

	timed, err := fs.Stat(m, "timed")
	if err != nil {
		t.Fatal(err)
	}
	if got := metaFrom(3, timed); got.ATime.Unix() != 100 {
		t.Errorf("atime = %v", got.ATime)
	}
}
