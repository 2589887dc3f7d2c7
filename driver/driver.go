// Package driver opens disk images and block devices with go-diskfs and reads the
// filesystems inside their partitions.
//
// Partition tables are parsed by go-diskfs. Filesystems are detected from their leading
// bytes and then read by the most capable reader available:
//
//   - ext2, ext3 and ext4 through github.com/dsoprea/go-ext4
//   - NTFS through www.velocidex.com/golang/go-ntfs
//   - FAT, ISO9660 and squashfs through go-diskfs, with synthesised inode numbers
package driver

import (
	"fmt"
	"os"

	diskfs "github.com/diskfs/go-diskfs"
	gofile "github.com/diskfs/go-diskfs/backend/file"
	godisk "github.com/diskfs/go-diskfs/disk"
	"github.com/sirupsen/logrus"

	"github.com/diskfs/go-disktables/backend"
	"github.com/diskfs/go-disktables/backend/file"
	"github.com/diskfs/go-disktables/disk"
	"github.com/diskfs/go-disktables/driver/internal/safe"
	"github.com/diskfs/go-disktables/filesystem"
)

const defaultBlockSize = 512

// Driver is a disk.Driver for images and devices on the local filesystem
type Driver struct {
	log     logrus.FieldLogger
	maxDirs int
}

// Opt configures a Driver
type Opt func(d *Driver)

// WithLogger sets the logger for debug output
func WithLogger(log logrus.FieldLogger) Opt {
	return func(d *Driver) {
		d.log = log
	}
}

// WithMaxDirs caps the directories read while numbering a path-addressed filesystem
func WithMaxDirs(n int) Opt {
	return func(d *Driver) {
		d.maxDirs = n
	}
}

// New returns a Driver
func New(opts ...Opt) *Driver {
	d := &Driver{
		log:     logrus.StandardLogger(),
		maxDirs: filesystem.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ disk.Driver = (*Driver)(nil)

// OpenImage opens path read-only. It must be a regular file or a block device.
func (drv *Driver) OpenImage(path string) (disk.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	kind, err := disk.DetermineDeviceType(info)
	if err != nil {
		return nil, err
	}
	storage, err := file.OpenFromPath(path)
	if err != nil {
		return nil, err
	}
	// go-diskfs reads through the same descriptor
	osFile, err := storage.Sys()
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	d, err := safe.Call("open image", func() (*godisk.Disk, error) {
		return diskfs.OpenBackend(gofile.New(osFile, true), diskfs.WithOpenMode(diskfs.ReadOnly))
	})
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	log := drv.log.WithFields(logrus.Fields{"device": path, "kind": kind.String()})
	log.Debugf("opened image of %d bytes", storage.Size())
	return &image{drv: drv, log: log, path: path, d: d, storage: storage}, nil
}

type image struct {
	drv     *Driver
	log     logrus.FieldLogger
	path    string
	d       *godisk.Disk
	storage backend.Storage
	closed  bool
}

// Close releases the image file. The go-diskfs disk shares it and is not closed separately.
func (img *image) Close() error {
	if img.closed {
		return nil
	}
	img.closed = true
	if err := img.storage.Close(); err != nil {
		return fmt.Errorf("close %s: %w", img.path, err)
	}
	return nil
}
