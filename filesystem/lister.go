package filesystem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/diskfs/go-disktables/row"
	"github.com/diskfs/go-disktables/util/timestamp"
)

// DefaultMaxDepth is the number of directories a single walk may open
const DefaultMaxDepth = 1024

// Lister produces file rows for one partition of one device
type Lister struct {
	Device    string
	Partition string
	// MaxDepth caps the directory opens of one Walk; 0 means DefaultMaxDepth
	MaxDepth int
	Log      logrus.FieldLogger
}

func (l *Lister) log() logrus.FieldLogger {
	var log logrus.FieldLogger = logrus.StandardLogger()
	if l.Log != nil {
		log = l.Log
	}
	return log.WithFields(logrus.Fields{"device": l.Device, "partition": l.Partition})
}

// walk is the state of one top-level Walk
type walk struct {
	l       *Lister
	log     logrus.FieldLogger
	fsys    FileSystem
	results *row.Results
	max     int
	depth   int
	visited map[string]bool
}

type pending struct {
	path  string
	inode uint64
}

// Walk appends a row for every regular file reachable from the root of fsys.
// Each directory path is entered at most once, and no more than MaxDepth directories are
// opened; branches past that are dropped without error.
func (l *Lister) Walk(fsys FileSystem, results *row.Results) {
	max := l.MaxDepth
	if max <= 0 {
		max = DefaultMaxDepth
	}
	w := &walk{
		l:       l,
		log:     l.log(),
		fsys:    fsys,
		results: results,
		max:     max,
		visited: map[string]bool{},
	}
	w.dir("/", fsys.RootInode())
}

func (w *walk) dir(p string, inode uint64) {
	w.depth++
	if w.depth > w.max {
		w.log.WithField("path", p).Debugf("directory limit %d reached, skipping", w.max)
		return
	}

	d, err := w.fsys.OpenDir(inode)
	if err != nil {
		w.log.WithFields(logrus.Fields{"path": p, "inode": inode}).Debugf("unable to open directory: %v", err)
		return
	}
	defer d.Close()

	var children []pending
	for i := 0; i < d.Size(); i++ {
		if child, ok := w.entry(d, i, p); ok {
			children = append(children, child)
		}
	}

	for _, c := range children {
		if w.visited[c.path] {
			continue
		}
		w.dir(c.path, c.inode)
		w.visited[c.path] = true
	}
}

// entry handles entry i of d. It returns the subdirectory to descend into, if any.
func (w *walk) entry(d Directory, i int, parent string) (pending, bool) {
	file, err := d.File(i)
	if err != nil {
		return pending{}, false
	}
	defer file.Close()

	meta, ok := file.Meta()
	if !ok {
		return pending{}, false
	}
	name := file.Name()
	if strings.Contains(name, "/") {
		w.log.WithFields(logrus.Fields{"path": parent, "name": name}).Debug("skipping entry with a separator in its name")
		return pending{}, false
	}
	leaf := ""
	if name != "" {
		leaf = join(parent, name)
	}

	switch meta.Type {
	case TypeRegular:
		w.results.Append(w.l.Project(file, leaf))
	case TypeDirectory:
		if name == "" || name == "." || name == ".." {
			break
		}
		return pending{path: leaf, inode: meta.Addr}, true
	}
	return pending{}, false
}

// join appends name to the directory path parent. The result is not cleaned, so a ".."
// read from disk never moves the path up a level.
func join(parent, name string) string {
	if strings.HasSuffix(parent, "/") {
		return parent + name
	}
	return parent + "/" + name
}

// ResolvePath appends the row of the file at p, reporting whether it was found
func (l *Lister) ResolvePath(fsys FileSystem, p string, results *row.Results) bool {
	file, err := fsys.OpenPath(p)
	if err != nil {
		l.log().WithField("path", p).Debugf("unable to open path: %v", err)
		return false
	}
	defer file.Close()
	results.Append(l.Project(file, p))
	return true
}

// ResolveInode appends the row of the file with the base-10 inode number given, reporting
// whether it was found. The row path is the name the filesystem last knew the inode by.
func (l *Lister) ResolveInode(fsys FileSystem, inode string, results *row.Results) bool {
	addr, err := strconv.ParseUint(strings.TrimSpace(inode), 10, 64)
	if err != nil {
		l.log().WithField("inode", inode).Debugf("invalid inode: %v", err)
		return false
	}
	file, err := fsys.OpenInode(addr)
	if err != nil {
		l.log().WithField("inode", addr).Debugf("unable to open inode: %v", err)
		return false
	}
	defer file.Close()

	var p string
	if meta, ok := file.Meta(); ok {
		p = meta.Name
	}
	results.Append(l.Project(file, p))
	return true
}

// Project builds the row for file, displayed under p
func (l *Lister) Project(file File, p string) row.Row {
	r := row.Row{}
	r.SetText("device", l.Device)
	r.SetText("partition", l.Partition)
	r.SetText("path", p)
	r.SetText("filename", p[strings.LastIndex(p, "/")+1:])

	if fsys := file.FileSystem(); fsys != nil {
		r.SetInt("block_size", fsys.BlockSize())
	}

	meta, ok := file.Meta()
	if !ok {
		return r
	}
	r.SetUint("inode", meta.Addr)
	r.SetUint("uid", uint64(meta.UID))
	r.SetUint("gid", uint64(meta.GID))
	r.SetText("mode", fmt.Sprintf("%04o", meta.Mode))
	r.SetInt("size", meta.Size)
	r.SetInt("atime", timestamp.Unix(meta.ATime))
	r.SetInt("mtime", timestamp.Unix(meta.MTime))
	r.SetInt("ctime", timestamp.Unix(meta.CrTime))
	r.SetUint("hard_links", uint64(meta.NLink))
	r.SetText("type", meta.Type.String())
	return r
}
