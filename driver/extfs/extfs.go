// Package extfs reads ext2, ext3 and ext4 filesystems, addressing files by their real inode
// numbers.
package extfs

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	ext4 "github.com/dsoprea/go-ext4"

	"github.com/diskfs/go-disktables/backend"
	"github.com/diskfs/go-disktables/disk"
	"github.com/diskfs/go-disktables/driver/detect"
	"github.com/diskfs/go-disktables/driver/internal/safe"
	"github.com/diskfs/go-disktables/filesystem"
	"github.com/diskfs/go-disktables/util/timestamp"
)

// RootInode is the inode of the root directory on every ext filesystem
const RootInode = 2

// FileSystem is an open ext2/3/4 filesystem
type FileSystem struct {
	storage backend.Storage
	header  detect.Header
	offset  int64
	bgdl    *ext4.BlockGroupDescriptorList
	// names holds the last name each inode was listed under
	names map[uint64]string
}

type dirEntry struct {
	name  string
	inode uint64
}

// Open reads the superblock and group descriptors of the filesystem in storage.
// offset is the byte offset of storage within the image.
func Open(storage backend.Storage, header detect.Header, offset int64) (*FileSystem, error) {
	bgdl, err := safe.Call("read group descriptors", func() (*ext4.BlockGroupDescriptorList, error) {
		if _, err := storage.Seek(ext4.Superblock0Offset, io.SeekStart); err != nil {
			return nil, err
		}
		sb, err := ext4.NewSuperblockWithReader(storage)
		if err != nil {
			return nil, fmt.Errorf("superblock: %w", err)
		}
		return ext4.NewBlockGroupDescriptorListWithReadSeeker(storage, sb)
	})
	if err != nil {
		return nil, err
	}
	return &FileSystem{
		storage: storage,
		header:  header,
		offset:  offset,
		bgdl:    bgdl,
		names:   map[uint64]string{RootInode: "/"},
	}, nil
}

func (fs *FileSystem) Type() string       { return fs.header.Type.String() }
func (fs *FileSystem) Flags() uint32      { return fs.header.Flags }
func (fs *FileSystem) Offset() int64      { return fs.offset }
func (fs *FileSystem) BlockSize() int64   { return fs.header.BlockSize }
func (fs *FileSystem) BlockCount() uint64 { return fs.header.BlockCount }
func (fs *FileSystem) InodeCount() uint64 { return fs.header.InodeCount }
func (fs *FileSystem) RootInode() uint64  { return RootInode }

func (fs *FileSystem) Close() error {
	fs.names = nil
	return nil
}

func (fs *FileSystem) readInode(n uint64) (*ext4.Inode, error) {
	if n == 0 || (fs.header.InodeCount > 0 && n > fs.header.InodeCount) {
		return nil, disk.NewNotFoundError(fmt.Sprintf("inode %d", n))
	}
	return safe.Call("read inode", func() (*ext4.Inode, error) {
		bgd, err := fs.bgdl.GetWithAbsoluteInode(int(n))
		if err != nil {
			return nil, err
		}
		return ext4.NewInodeWithReadSeeker(bgd, fs.storage, int(n))
	})
}

func (fs *FileSystem) meta(n uint64, inode *ext4.Inode) *filesystem.Meta {
	m := metaFrom(n, inode.Data(), inode.Size())
	m.Name = fs.names[n]
	return m
}

func (fs *FileSystem) readDir(n uint64) ([]dirEntry, error) {
	inode, err := fs.readInode(n)
	if err != nil {
		return nil, err
	}
	if fileType(inode.Data().IMode) != filesystem.TypeDirectory {
		return nil, filesystem.ErrNotDirectory
	}
	return safe.Call("read directory", func() ([]dirEntry, error) {
		var entries []dirEntry
		db := ext4.NewDirectoryBrowser(fs.storage, inode)
		for {
			de, err := db.Next()
			if err == io.EOF || (err == nil && de == nil) {
				break
			}
			if err != nil {
				return nil, err
			}
			e := dirEntry{name: de.Name(), inode: uint64(de.Data().Inode)}
			entries = append(entries, e)
			if e.name != "." && e.name != ".." && e.inode != 0 {
				fs.names[e.inode] = e.name
			}
		}
		return entries, nil
	})
}

func (fs *FileSystem) OpenDir(inode uint64) (filesystem.Directory, error) {
	entries, err := fs.readDir(inode)
	if err != nil {
		return nil, err
	}
	return &directory{fs: fs, entries: entries}, nil
}

func (fs *FileSystem) OpenPath(p string) (filesystem.File, error) {
	n := uint64(RootInode)
	name := ""
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		entries, err := fs.readDir(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		found := false
		for _, e := range entries {
			if e.name == part && e.inode != 0 {
				n, name, found = e.inode, e.name, true
				break
			}
		}
		if !found {
			return nil, disk.NewNotFoundError(p)
		}
	}
	return fs.open(n, name)
}

func (fs *FileSystem) OpenInode(n uint64) (filesystem.File, error) {
	return fs.open(n, "")
}

func (fs *FileSystem) open(n uint64, name string) (filesystem.File, error) {
	inode, err := fs.readInode(n)
	if err != nil {
		return nil, err
	}
	return &file{fs: fs, name: name, meta: fs.meta(n, inode)}, nil
}

type directory struct {
	fs      *FileSystem
	entries []dirEntry
}

func (d *directory) Size() int { return len(d.entries) }

// File returns entry i. An entry whose inode cannot be read is returned without metadata.
func (d *directory) File(i int) (filesystem.File, error) {
	if i < 0 || i >= len(d.entries) {
		return nil, fmt.Errorf("entry %d out of range", i)
	}
	e := d.entries[i]
	f := &file{fs: d.fs, name: e.name}
	if inode, err := d.fs.readInode(e.inode); err == nil {
		f.meta = d.fs.meta(e.inode, inode)
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

// fileType maps the S_IFMT bits of an inode mode
func fileType(mode uint16) filesystem.FileType {
	switch mode & 0xF000 {
	case 0x8000:
		return filesystem.TypeRegular
	case 0x4000:
		return filesystem.TypeDirectory
	case 0xA000:
		return filesystem.TypeSymlink
	case 0x6000:
		return filesystem.TypeBlock
	case 0x2000:
		return filesystem.TypeCharacter
	case 0x1000:
		return filesystem.TypeFIFO
	case 0xC000:
		return filesystem.TypeSocket
	default:
		return filesystem.TypeUnknown
	}
}

// metaFrom builds the metadata of inode n. ext2 and ext3 have no creation time, so the
// inode change time stands in for it. The high halves of the owner ids live in osd2.
func metaFrom(n uint64, d *ext4.InodeData, size uint64) *filesystem.Meta {
	return &filesystem.Meta{
		Addr:   n,
		Type:   fileType(d.IMode),
		UID:    uint32(d.IUid) | uint32(binary.LittleEndian.Uint16(d.Osd2[4:6]))<<16,
		GID:    uint32(d.IGid) | uint32(binary.LittleEndian.Uint16(d.Osd2[6:8]))<<16,
		Mode:   uint32(d.IMode) & 0o7777,
		Size:   int64(size),
		ATime:  timestamp.FromUnix(d.IAtime),
		MTime:  timestamp.FromUnix(d.IMtime),
		CrTime: timestamp.FromUnix(d.ICtime),
		NLink:  uint32(d.ILinksCount),
	}
}
