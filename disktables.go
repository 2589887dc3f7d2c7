// Package disktables exposes the contents of disk images as flat rows.
//
// Two queries are provided:
//
//   - ListPartitions returns one row per volume slot of each requested device, with the
//     geometry of the filesystem found in the slot when there is one.
//   - ListFiles walks, or looks up by path or inode, the files of one partition.
//
// Example, listing the partitions of an image:
//
//	rows := disktables.ListPartitions(disktables.Constraints{Devices: []string{"/tmp/disk.img"}})
//	for _, r := range rows {
//		fmt.Println(r["partition"], r["type"], r["label"])
//	}
//
// Neither query returns an error. A device that cannot be opened, or a partition without a
// readable filesystem, yields fewer rows; the reasons are logged at debug level.
package disktables

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/diskfs/go-disktables/disk"
	"github.com/diskfs/go-disktables/driver"
	"github.com/diskfs/go-disktables/filesystem"
	"github.com/diskfs/go-disktables/partition/part"
	"github.com/diskfs/go-disktables/row"
)

// Constraints selects what a query reads. Each field holds the literal values of one column.
type Constraints struct {
	Devices    []string
	Partitions []string
	Paths      []string
	Inodes     []string
}

type options struct {
	driver   disk.Driver
	log      logrus.FieldLogger
	maxDepth int
}

// Option configures a query
type Option func(o *options)

// WithDriver sets the driver images are opened with
func WithDriver(d disk.Driver) Option {
	return func(o *options) {
		o.driver = d
	}
}

// WithLogger sets the logger used by the query and the disks it opens
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMaxDepth sets the number of directories a single walk may open
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		log:      logrus.StandardLogger(),
		maxDepth: filesystem.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.driver == nil {
		o.driver = driver.New(driver.WithLogger(o.log))
	}
	return o
}

// ListPartitions returns a row per partition of every device in c.Devices.
//
// Columns: device, partition, label, type, flags, offset, blocks_size, blocks, inodes.
func ListPartitions(c Constraints, opts ...Option) row.Results {
	o := newOptions(opts)
	var results row.Results
	for _, dev := range c.Devices {
		d := disk.New(dev, o.driver, disk.WithLogger(o.log))
		d.Partitions(func(p part.Partition) {
			results.Append(partitionRow(d, p, o.log))
		})
		_ = d.Close()
	}
	return results
}

func partitionRow(d *disk.Disk, p part.Partition, log logrus.FieldLogger) row.Row {
	r := row.Row{}
	r.SetText("device", d.Device)
	r.SetUint("partition", p.Addr())
	if desc := p.Desc(); desc != "" {
		r.SetText("label", desc)
	}
	r.SetText("flags", "0")
	r.SetText("type", part.Classify(p.Flags()))

	fsys, err := p.OpenFileSystem()
	if err != nil {
		log.WithFields(logrus.Fields{"device": d.Device, "partition": p.Addr()}).Debugf("no filesystem: %v", err)
		blockSize := d.Volume().BlockSize()
		r.SetInt("offset", int64(p.Start())*blockSize)
		r.SetInt("blocks_size", blockSize)
		r.SetUint("blocks", p.Len())
		r.SetInt("inodes", -1)
		r.SetUint("flags", uint64(p.Flags()))
		return r
	}
	defer fsys.Close()

	r.SetText("type", fsys.Type())
	r.SetUint("flags", uint64(fsys.Flags()))
	r.SetInt("offset", fsys.Offset())
	r.SetInt("blocks_size", fsys.BlockSize())
	r.SetUint("blocks", fsys.BlockCount())
	r.SetUint("inodes", fsys.InodeCount())
	return r
}

// ListFiles returns file rows for the single partition in c.Partitions, on every device in
// c.Devices. With no c.Paths and no c.Inodes the whole partition is walked, otherwise only
// the given paths and inodes are looked up.
//
// Columns: device, partition, path, filename, block_size, inode, uid, gid, mode, size, atime,
// mtime, ctime, hard_links, type.
func ListFiles(c Constraints, opts ...Option) row.Results {
	o := newOptions(opts)
	if len(c.Devices) == 0 || len(c.Partitions) != 1 {
		o.log.Warn("device files require at least one device and a single partition")
		return nil
	}
	want := c.Partitions[0]

	var results row.Results
	for _, dev := range c.Devices {
		d := disk.New(dev, o.driver, disk.WithLogger(o.log))
		d.Partitions(func(p part.Partition) {
			addr := strconv.FormatUint(p.Addr(), 10)
			if addr != want {
				return
			}
			fsys, err := p.OpenFileSystem()
			if err != nil {
				o.log.WithFields(logrus.Fields{"device": dev, "partition": addr}).Debugf("no filesystem: %v", err)
				return
			}
			defer fsys.Close()

			l := &filesystem.Lister{Device: dev, Partition: addr, MaxDepth: o.maxDepth, Log: o.log}
			if len(c.Paths) == 0 && len(c.Inodes) == 0 {
				l.Walk(fsys, &results)
			}
			for _, pth := range c.Paths {
				l.ResolvePath(fsys, pth, &results)
			}
			for _, inode := range c.Inodes {
				l.ResolveInode(fsys, inode, &results)
			}
		})
		_ = d.Close()
	}
	return results
}
