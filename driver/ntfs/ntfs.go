// Package ntfs reads NTFS filesystems, using MFT entry numbers as inode numbers.
package ntfs

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"www.velocidex.com/golang/go-ntfs/parser"

	"github.com/diskfs/go-disktables/disk"
	"github.com/diskfs/go-disktables/driver/detect"
	"github.com/diskfs/go-disktables/driver/internal/safe"
	"github.com/diskfs/go-disktables/filesystem"
)

// RootInode is the MFT entry of the root directory
const RootInode = 5

const (
	pageSize   = 0x1000
	cachePages = 1024
)

// FileSystem is an open NTFS filesystem
type FileSystem struct {
	ctx    *parser.NTFSContext
	header detect.Header
	offset int64
}

// Open parses the boot sector and $MFT of the filesystem in r.
// offset is the byte offset of r within the image.
func Open(r io.ReaderAt, header detect.Header, offset int64) (*FileSystem, error) {
	ctx, err := safe.Call("open ntfs", func() (*parser.NTFSContext, error) {
		paged, err := parser.NewPagedReader(r, pageSize, cachePages)
		if err != nil {
			return nil, err
		}
		return parser.GetNTFSContext(paged, 0)
	})
	if err != nil {
		return nil, err
	}
	return &FileSystem{ctx: ctx, header: header, offset: offset}, nil
}

func (fs *FileSystem) Type() string       { return fs.header.Type.String() }
func (fs *FileSystem) Flags() uint32      { return fs.header.Flags }
func (fs *FileSystem) Offset() int64      { return fs.offset }
func (fs *FileSystem) BlockSize() int64   { return fs.header.BlockSize }
func (fs *FileSystem) BlockCount() uint64 { return fs.header.BlockCount }
func (fs *FileSystem) InodeCount() uint64 { return fs.header.InodeCount }
func (fs *FileSystem) RootInode() uint64  { return RootInode }

func (fs *FileSystem) Close() error {
	fs.ctx = nil
	return nil
}

func (fs *FileSystem) entry(n uint64) (*parser.MFT_ENTRY, error) {
	return safe.Call("read mft entry", func() (*parser.MFT_ENTRY, error) {
		return fs.ctx.GetMFT(int64(n))
	})
}

// stat returns the records of entry n: one for a directory index and one per data stream
func (fs *FileSystem) stat(n uint64) (*parser.MFT_ENTRY, []*parser.FileInfo, error) {
	e, err := fs.entry(n)
	if err != nil {
		return nil, nil, err
	}
	infos, err := safe.Call("stat", func() ([]*parser.FileInfo, error) {
		return parser.Stat(fs.ctx, e), nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(infos) == 0 {
		return nil, nil, disk.NewNotFoundError(fmt.Sprintf("mft entry %d", n))
	}
	return e, infos, nil
}

func (fs *FileSystem) list(n uint64) ([]*parser.FileInfo, error) {
	e, infos, err := fs.stat(n)
	if err != nil {
		return nil, err
	}
	if !infos[0].IsDir {
		return nil, filesystem.ErrNotDirectory
	}
	return safe.Call("list directory", func() ([]*parser.FileInfo, error) {
		return parser.ListDir(fs.ctx, e), nil
	})
}

func (fs *FileSystem) OpenDir(inode uint64) (filesystem.Directory, error) {
	entries, err := fs.list(inode)
	if err != nil {
		return nil, err
	}
	return &directory{fs: fs, entries: entries}, nil
}

// OpenPath resolves p one component at a time. NTFS names compare case-insensitively.
func (fs *FileSystem) OpenPath(p string) (filesystem.File, error) {
	n := uint64(RootInode)
	name := ""
	for _, part := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		if part == "" {
			continue
		}
		entries, err := fs.list(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		found := false
		for _, info := range entries {
			if !strings.EqualFold(info.Name, part) {
				continue
			}
			if id, ok := mftID(info.MFTId); ok {
				n, name, found = id, info.Name, true
				break
			}
		}
		if !found {
			return nil, disk.NewNotFoundError(p)
		}
	}
	f, err := fs.OpenInode(n)
	if err != nil {
		return nil, err
	}
	f.(*file).name = name
	return f, nil
}

func (fs *FileSystem) OpenInode(n uint64) (filesystem.File, error) {
	e, infos, err := fs.stat(n)
	if err != nil {
		return nil, err
	}
	m := metaFrom(n, infos[0], links(e))
	return &file{fs: fs, meta: m}, nil
}

type directory struct {
	fs      *FileSystem
	entries []*parser.FileInfo
}

func (d *directory) Size() int { return len(d.entries) }

// File returns entry i. The link count comes from the entry's own MFT record; when that
// cannot be read the entry is returned without metadata.
func (d *directory) File(i int) (filesystem.File, error) {
	if i < 0 || i >= len(d.entries) {
		return nil, fmt.Errorf("entry %d out of range", i)
	}
	info := d.entries[i]
	f := &file{fs: d.fs, name: info.Name}
	id, ok := mftID(info.MFTId)
	if !ok {
		return f, nil
	}
	if e, err := d.fs.entry(id); err == nil {
		f.meta = metaFrom(id, info, links(e))
	}
	return f, nil
}

func (d *directory) Close() error {
	d.entries = nil
	return nil
}

type file struct {
	fs   *FileSystem
	name string
	meta *filesystem.Meta
}

func (f *file) Name() string                      { return f.name }
func (f *file) Meta() (*filesystem.Meta, bool)    { return f.meta, f.meta != nil }
func (f *file) FileSystem() filesystem.FileSystem { return f.fs }
func (f *file) Close() error                      { return nil }

// links reads the hard link count of e, 0 when the record is damaged
func links(e *parser.MFT_ENTRY) uint32 {
	n, err := safe.Call("link count", func() (uint16, error) {
		return e.Link_count(), nil
	})
	if err != nil {
		return 0
	}
	return uint32(n)
}

// mftID extracts the entry number from an id of the form "entry[-type-id[:stream]]"
func mftID(id any) (uint64, bool) {
	s := fmt.Sprint(id)
	if idx, _, _, _, err := parser.ParseMFTId(s); err == nil && idx >= 0 {
		return uint64(idx), true
	}
	head, _, _ := strings.Cut(s, "-")
	n, err := strconv.ParseUint(head, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func metaFrom(n uint64, info *parser.FileInfo, nlink uint32) *filesystem.Meta {
	t := filesystem.TypeRegular
	if info.IsDir {
		t = filesystem.TypeDirectory
	}
	return &filesystem.Meta{
		Addr:   n,
		Type:   t,
		Size:   info.Size,
		ATime:  info.Atime,
		MTime:  info.Mtime,
		CrTime: info.Btime,
		NLink:  nlink,
		Name:   info.Name,
	}
}
