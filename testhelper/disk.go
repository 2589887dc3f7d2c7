package testhelper

import (
	"errors"
	"fmt"

	"github.com/diskfs/go-disktables/disk"
	"github.com/diskfs/go-disktables/filesystem"
	"github.com/diskfs/go-disktables/partition"
	"github.com/diskfs/go-disktables/partition/part"
)

// Partition is a partition.Volume slot backed by an optional FileSystem
type Partition struct {
	Address     uint64
	Description string
	Flag        part.Flags
	First       uint64
	Length      uint64
	FS          *FileSystem
	OpenErr     error

	Opens int
}

func (p *Partition) Addr() uint64      { return p.Address }
func (p *Partition) Desc() string      { return p.Description }
func (p *Partition) Flags() part.Flags { return p.Flag }
func (p *Partition) Start() uint64     { return p.First }
func (p *Partition) Len() uint64       { return p.Length }

func (p *Partition) OpenFileSystem() (filesystem.FileSystem, error) {
	p.Opens++
	if p.OpenErr != nil {
		return nil, p.OpenErr
	}
	if p.FS == nil {
		return nil, part.NewNoFilesystemError(p.Address, p.Flag)
	}
	return p.FS, nil
}

// Volume is a partition.Volume over a fixed slot list. A nil slot is an invalid one.
type Volume struct {
	Block int64
	Slots []part.Partition
}

func (v *Volume) BlockSize() int64 { return v.Block }
func (v *Volume) Count() int       { return len(v.Slots) }

func (v *Volume) Partition(i int) part.Partition {
	if i < 0 || i >= len(v.Slots) {
		return nil
	}
	return v.Slots[i]
}

// Image is a disk.Image that yields Volume, or VolumeErr if set
type Image struct {
	Volume    *Volume
	VolumeErr error

	VolumeOpens int
	Closes      int
}

func (i *Image) OpenVolume() (partition.Volume, error) {
	i.VolumeOpens++
	if i.VolumeErr != nil {
		return nil, i.VolumeErr
	}
	if i.Volume == nil {
		return nil, errors.New("no volume system found")
	}
	return i.Volume, nil
}

func (i *Image) Close() error {
	i.Closes++
	return nil
}

// Driver is a disk.Driver serving images by path
type Driver struct {
	Images map[string]*Image
	Opens  map[string]int
}

// NewDriver returns a Driver with no images
func NewDriver() *Driver {
	return &Driver{
		Images: map[string]*Image{},
		Opens:  map[string]int{},
	}
}

// Add registers an image at path holding the given slots, with 512 byte blocks
func (d *Driver) Add(path string, slots ...part.Partition) *Image {
	img := &Image{Volume: &Volume{Block: 512, Slots: slots}}
	d.Images[path] = img
	return img
}

func (d *Driver) OpenImage(path string) (disk.Image, error) {
	d.Opens[path]++
	img, ok := d.Images[path]
	if !ok {
		return nil, fmt.Errorf("%s: no such file or directory", path)
	}
	return img, nil
}
