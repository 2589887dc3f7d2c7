// Package disk provides the accessor for a single device or disk image.
//
// A Disk opens its image and volume lazily, once, through a Driver, and hands out the
// partitions of the volume. Implementations of Driver live in
// github.com/diskfs/go-disktables/driver.
package disk

import (
	"github.com/sirupsen/logrus"

	"github.com/diskfs/go-disktables/partition"
	"github.com/diskfs/go-disktables/partition/part"
)

// Disk is a reference to a single disk block device or image
type Disk struct {
	Device string

	driver Driver
	log    logrus.FieldLogger

	opened bool
	ok     bool
	image  Image
	volume partition.Volume
}

// OpenOpt configures a Disk
type OpenOpt func(d *Disk)

// WithLogger sets the logger open failures are reported to
func WithLogger(log logrus.FieldLogger) OpenOpt {
	return func(d *Disk) {
		d.log = log
	}
}

// New returns an accessor for device. Nothing is opened until first use.
func New(device string, driver Driver, opts ...OpenOpt) *Disk {
	d := &Disk{
		Device: device,
		driver: driver,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithField("device", device)
	return d
}

// Open opens the image and then the volume. Only the first call does any work, later calls
// return the cached outcome; a failed open is never retried.
func (d *Disk) Open() bool {
	if d.opened {
		return d.ok
	}
	d.opened = true

	if d.driver == nil {
		d.log.Debug("no driver configured")
		return false
	}
	image, err := d.driver.OpenImage(d.Device)
	if err != nil {
		d.log.Debugf("%v", NewOpenImageError(d.Device, err))
		return false
	}
	volume, err := image.OpenVolume()
	if err != nil {
		d.log.Debugf("%v", NewOpenVolumeError(d.Device, err))
		_ = image.Close()
		return false
	}
	d.image = image
	d.volume = volume
	d.ok = true
	return true
}

// Volume returns the open volume, or nil if the disk could not be opened
func (d *Disk) Volume() partition.Volume {
	if !d.Open() {
		return nil
	}
	return d.volume
}

// Partitions calls visit for every valid slot of the volume, in address order.
// Nothing is visited if the disk could not be opened.
func (d *Disk) Partitions(visit func(p part.Partition)) {
	if !d.Open() {
		return
	}
	for i := 0; i < d.volume.Count(); i++ {
		p := d.volume.Partition(i)
		if p == nil {
			continue
		}
		visit(p)
	}
}

// Close releases the image. The Disk stays closed; it is not reopened by later calls.
func (d *Disk) Close() error {
	d.opened = true
	d.ok = false
	d.volume = nil
	if d.image == nil {
		return nil
	}
	err := d.image.Close()
	d.image = nil
	return err
}
