package testhelper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diskfs/go-disktables/filesystem"
)

// Node is one inode of a FileSystem
type Node struct {
	Meta filesystem.Meta
	// NoMeta makes File.Meta report the metadata as unreadable
	NoMeta  bool
	Entries []Entry
}

// Entry is a directory entry
type Entry struct {
	Name  string
	Inode uint64
}

// FileSystem is an in-memory filesystem.FileSystem. Directory graphs may contain cycles.
// It counts every handle it hands out so tests can check that all of them are released.
type FileSystem struct {
	TypeName   string
	FSFlags    uint32
	FSOffset   int64
	FSBlock    int64
	Blocks     uint64
	Inodes     uint64
	Root       uint64
	Nodes      map[uint64]*Node
	FailDirs   map[uint64]bool
	FailInodes map[uint64]bool

	next uint64

	Closes     int
	DirOpens   int
	DirCloses  int
	FileOpens  int
	FileCloses int
	// PeakOpenFiles is the largest number of file handles open at one time
	PeakOpenFiles int
	// DirOrder records the inode of every OpenDir call, in order
	DirOrder []uint64
}

// Epoch is the timestamp given to every node the builders create
var Epoch = time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

// NewFileSystem returns an empty ext4-like filesystem with root inode 2
func NewFileSystem() *FileSystem {
	f := &FileSystem{
		TypeName:   "ext4",
		FSBlock:    4096,
		Blocks:     1024,
		Root:       2,
		Nodes:      map[uint64]*Node{},
		FailDirs:   map[uint64]bool{},
		FailInodes: map[uint64]bool{},
		next:       11,
	}
	f.Nodes[f.Root] = &Node{
		Meta:    f.meta(f.Root, filesystem.TypeDirectory, "/", 4096, 0755),
		Entries: []Entry{{".", f.Root}, {"..", f.Root}},
	}
	return f
}

func (f *FileSystem) meta(inode uint64, t filesystem.FileType, name string, size int64, mode uint32) filesystem.Meta {
	return filesystem.Meta{
		Addr:   inode,
		Type:   t,
		UID:    1000,
		GID:    1000,
		Mode:   mode,
		Size:   size,
		ATime:  Epoch,
		MTime:  Epoch,
		CrTime: Epoch,
		NLink:  1,
		Name:   name,
	}
}

func (f *FileSystem) add(parent uint64, name string, n *Node) uint64 {
	inode := f.next
	f.next++
	n.Meta.Addr = inode
	f.Nodes[inode] = n
	f.Link(parent, name, inode)
	f.Inodes = uint64(len(f.Nodes))
	return inode
}

// AddDir creates a directory under parent and returns its inode
func (f *FileSystem) AddDir(parent uint64, name string) uint64 {
	n := &Node{Meta: f.meta(0, filesystem.TypeDirectory, name, 4096, 0755)}
	inode := f.add(parent, name, n)
	n.Entries = []Entry{{".", inode}, {"..", parent}}
	return inode
}

// AddFile creates a regular file under parent and returns its inode
func (f *FileSystem) AddFile(parent uint64, name string, size int64) uint64 {
	return f.add(parent, name, &Node{Meta: f.meta(0, filesystem.TypeRegular, name, size, 0644)})
}

// AddNode creates an inode of any type under parent and returns it
func (f *FileSystem) AddNode(parent uint64, name string, t filesystem.FileType) uint64 {
	return f.add(parent, name, &Node{Meta: f.meta(0, t, name, 0, 0777)})
}

// Link adds another entry for inode under parent
func (f *FileSystem) Link(parent uint64, name string, inode uint64) {
	p := f.Nodes[parent]
	p.Entries = append(p.Entries, Entry{Name: name, Inode: inode})
}

// OpenHandles is the number of directory and file handles not yet closed
func (f *FileSystem) OpenHandles() int {
	return f.DirOpens - f.DirCloses + f.FileOpens - f.FileCloses
}

func (f *FileSystem) Type() string       { return f.TypeName }
func (f *FileSystem) Flags() uint32      { return f.FSFlags }
func (f *FileSystem) Offset() int64      { return f.FSOffset }
func (f *FileSystem) BlockSize() int64   { return f.FSBlock }
func (f *FileSystem) BlockCount() uint64 { return f.Blocks }
func (f *FileSystem) InodeCount() uint64 { return f.Inodes }
func (f *FileSystem) RootInode() uint64  { return f.Root }

func (f *FileSystem) Close() error {
	f.Closes++
	return nil
}

func (f *FileSystem) OpenDir(inode uint64) (filesystem.Directory, error) {
	f.DirOrder = append(f.DirOrder, inode)
	n, ok := f.Nodes[inode]
	switch {
	case !ok:
		return nil, fmt.Errorf("inode %d not found", inode)
	case f.FailDirs[inode]:
		return nil, fmt.Errorf("inode %d: read error", inode)
	case n.Meta.Type != filesystem.TypeDirectory:
		return nil, filesystem.ErrNotDirectory
	}
	f.DirOpens++
	return &directory{fs: f, node: n}, nil
}

func (f *FileSystem) OpenPath(p string) (filesystem.File, error) {
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("path %q is not absolute", p)
	}
	inode := f.Root
	name := ""
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		n, ok := f.Nodes[inode]
		if !ok || n.Meta.Type != filesystem.TypeDirectory {
			return nil, filesystem.ErrNotDirectory
		}
		found := false
		for _, e := range n.Entries {
			if e.Name == part {
				inode, name, found = e.Inode, part, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%s: no such file", p)
		}
	}
	return f.open(inode, name)
}

func (f *FileSystem) OpenInode(inode uint64) (filesystem.File, error) {
	return f.open(inode, "")
}

func (f *FileSystem) open(inode uint64, name string) (filesystem.File, error) {
	n, ok := f.Nodes[inode]
	if !ok || f.FailInodes[inode] {
		return nil, fmt.Errorf("inode %d not found", inode)
	}
	f.FileOpens++
	if open := f.FileOpens - f.FileCloses; open > f.PeakOpenFiles {
		f.PeakOpenFiles = open
	}
	return &file{fs: f, node: n, name: name}, nil
}

type directory struct {
	fs     *FileSystem
	node   *Node
	closed bool
}

func (d *directory) Size() int { return len(d.node.Entries) }

func (d *directory) File(i int) (filesystem.File, error) {
	if i < 0 || i >= len(d.node.Entries) {
		return nil, errors.New("entry out of range")
	}
	e := d.node.Entries[i]
	return d.fs.open(e.Inode, e.Name)
}

func (d *directory) Close() error {
	if d.closed {
		return errors.New("directory closed twice")
	}
	d.closed = true
	d.fs.DirCloses++
	return nil
}

type file struct {
	fs     *FileSystem
	node   *Node
	name   string
	closed bool
}

func (f *file) Name() string { return f.name }

func (f *file) Meta() (*filesystem.Meta, bool) {
	if f.node.NoMeta {
		return nil, false
	}
	m := f.node.Meta
	return &m, true
}

func (f *file) FileSystem() filesystem.FileSystem { return f.fs }

func (f *file) Close() error {
	if f.closed {
		return errors.New("file closed twice")
	}
	f.closed = true
	f.fs.FileCloses++
	return nil
}
