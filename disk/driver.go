package disk

import (
	"github.com/diskfs/go-disktables/partition"
)

// Driver opens device images
type Driver interface {
	OpenImage(path string) (Image, error)
}

// Image is an open device image
type Image interface {
	// OpenVolume detects and parses the volume system of the image
	OpenVolume() (partition.Volume, error)
	Close() error
}
