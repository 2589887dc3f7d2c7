// Package pathfs adapts path-addressed filesystems, such as the FAT, ISO9660 and squashfs
// readers of go-diskfs, to inode-addressed access.
//
// Inode numbers are synthesised. Open numbers the tree breadth-first from the root, which is
// 1, in listing order, reading at most MaxDirs directories. Every FileSystem opened on the
// same image therefore hands out the same numbers whatever it is asked first. Paths beyond
// that bound are numbered when first seen and are only stable within one FileSystem.
package pathfs

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/diskfs/go-disktables/disk"
	"github.com/diskfs/go-disktables/driver/detect"
	"github.com/diskfs/go-disktables/driver/internal/safe"
	"github.com/diskfs/go-disktables/filesystem"
)

// RootInode is the synthesised inode of "/"
const RootInode = 1

// ReadDirFunc lists the directory at an absolute path
type ReadDirFunc func(p string) ([]fs.FileInfo, error)

// ReadDirOf adapts a ReadDir returning any entry type to a ReadDirFunc. Entries that are
// neither fs.FileInfo nor fs.DirEntry, or whose info cannot be read, are dropped.
func ReadDirOf[E any](readDir func(string) ([]E, error)) ReadDirFunc {
	return func(p string) ([]fs.FileInfo, error) {
		entries, err := readDir(p)
		if err != nil {
			return nil, err
		}
		infos := make([]fs.FileInfo, 0, len(entries))
		for _, e := range entries {
			if info, ok := fileInfoOf(e); ok {
				infos = append(infos, info)
			}
		}
		return infos, nil
	}
}

func fileInfoOf(e any) (fs.FileInfo, bool) {
	switch v := e.(type) {
	case fs.FileInfo:
		return v, true
	case fs.DirEntry:
		info, err := v.Info()
		if err != nil {
			return nil, false
		}
		return info, true
	default:
		return nil, false
	}
}

// Config describes the filesystem being adapted
type Config struct {
	TypeName string
	Header   detect.Header
	Offset   int64
	// MaxDirs caps the directories read while numbering the tree
	MaxDirs int
}

// FileSystem is a path-addressed filesystem with synthesised inodes
type FileSystem struct {
	readDir ReadDirFunc
	cfg     Config
	paths   map[uint64]string
	inodes  map[string]uint64
	next    uint64
}

// Open wraps readDir and numbers the tree. The root directory must be listable.
func Open(readDir ReadDirFunc, cfg Config) (*FileSystem, error) {
	if cfg.MaxDirs <= 0 {
		cfg.MaxDirs = filesystem.DefaultMaxDepth
	}
	f := &FileSystem{
		readDir: readDir,
		cfg:     cfg,
		paths:   map[uint64]string{RootInode: "/"},
		inodes:  map[string]uint64{"/": RootInode},
		next:    RootInode + 1,
	}
	if err := f.index(); err != nil {
		return nil, err
	}
	return f, nil
}

// index numbers every path reachable within MaxDirs directory reads. Directories that
// cannot be read are skipped, except the root.
func (f *FileSystem) index() error {
	queue := []string{"/"}
	queued := map[string]bool{"/": true}
	for reads := 0; len(queue) > 0 && reads < f.cfg.MaxDirs; reads++ {
		dir := queue[0]
		queue = queue[1:]
		entries, err := f.list(dir)
		if err != nil {
			if dir == "/" {
				return err
			}
			continue
		}
		for _, e := range entries {
			if p := f.paths[e.inode]; e.info.IsDir() && !queued[p] {
				queued[p] = true
				queue = append(queue, p)
			}
		}
	}
	return nil
}

func (f *FileSystem) Type() string {
	if f.cfg.TypeName != "" {
		return f.cfg.TypeName
	}
	return f.cfg.Header.Type.String()
}
func (f *FileSystem) Flags() uint32      { return f.cfg.Header.Flags }
func (f *FileSystem) Offset() int64      { return f.cfg.Offset }
func (f *FileSystem) BlockSize() int64   { return f.cfg.Header.BlockSize }
func (f *FileSystem) BlockCount() uint64 { return f.cfg.Header.BlockCount }
func (f *FileSystem) RootInode() uint64  { return RootInode }

// InodeCount is the count from the superblock when there is one, otherwise the number of
// inodes numbered so far.
func (f *FileSystem) InodeCount() uint64 {
	if f.cfg.Header.InodeCount > 0 {
		return f.cfg.Header.InodeCount
	}
	return uint64(len(f.paths))
}

func (f *FileSystem) Close() error {
	f.paths, f.inodes = nil, nil
	return nil
}

func (f *FileSystem) assign(p string) uint64 {
	if n, ok := f.inodes[p]; ok {
		return n
	}
	n := f.next
	f.next++
	f.inodes[p] = n
	f.paths[n] = p
	return n
}

type entry struct {
	inode uint64
	info  fs.FileInfo
}

func (f *FileSystem) list(p string) ([]entry, error) {
	infos, err := safe.Call("read directory", func() ([]fs.FileInfo, error) {
		return f.readDir(p)
	})
	if err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
			continue
		}
		entries = append(entries, entry{inode: f.assign(path.Join(p, name)), info: info})
	}
	return entries, nil
}

func (f *FileSystem) OpenDir(inode uint64) (filesystem.Directory, error) {
	p, ok := f.paths[inode]
	if !ok {
		return nil, disk.NewNotFoundError(fmt.Sprintf("inode %d", inode))
	}
	entries, err := f.list(p)
	if err != nil {
		return nil, err
	}
	return &directory{fs: f, entries: entries}, nil
}

func (f *FileSystem) OpenPath(p string) (filesystem.File, error) {
	clean := path.Clean("/" + p)
	if clean == "/" {
		return &file{fs: f, name: "/", meta: f.rootMeta()}, nil
	}
	info, err := f.stat(clean)
	if err != nil {
		return nil, err
	}
	n := f.assign(path.Join(path.Dir(clean), info.Name()))
	return &file{fs: f, name: info.Name(), meta: metaFrom(n, info)}, nil
}

// stat finds p by listing its parent, preferring an exact name match
func (f *FileSystem) stat(p string) (fs.FileInfo, error) {
	dir, base := path.Split(p)
	infos, err := safe.Call("read directory", func() ([]fs.FileInfo, error) {
		return f.readDir(path.Clean(dir))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	var fold fs.FileInfo
	for _, info := range infos {
		if info.Name() == base {
			return info, nil
		}
		if fold == nil && strings.EqualFold(info.Name(), base) {
			fold = info
		}
	}
	if fold != nil {
		return fold, nil
	}
	return nil, disk.NewNotFoundError(p)
}

// OpenInode opens a numbered inode
func (f *FileSystem) OpenInode(n uint64) (filesystem.File, error) {
	if n == RootInode {
		return &file{fs: f, meta: f.rootMeta()}, nil
	}
	p, ok := f.paths[n]
	if !ok {
		return nil, disk.NewNotFoundError(fmt.Sprintf("inode %d", n))
	}
	info, err := f.stat(p)
	if err != nil {
		return nil, err
	}
	m := metaFrom(n, info)
	return &file{fs: f, meta: m}, nil
}

func (f *FileSystem) rootMeta() *filesystem.Meta {
	return &filesystem.Meta{
		Addr:  RootInode,
		Type:  filesystem.TypeDirectory,
		Mode:  0o755,
		NLink: 1,
		Name:  "/",
	}
}

type directory struct {
	fs      *FileSystem
	entries []entry
}

func (d *directory) Size() int { return len(d.entries) }

func (d *directory) File(i int) (filesystem.File, error) {
	if i < 0 || i >= len(d.entries) {
		return nil, fmt.Errorf("entry %d out of range", i)
	}
	e := d.entries[i]
	return &file{fs: d.fs, name: e.info.Name(), meta: metaFrom(e.inode, e.info)}, nil
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
