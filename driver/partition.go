package driver

import (
	gofs "github.com/diskfs/go-diskfs/filesystem"
	"github.com/sirupsen/logrus"

	"github.com/diskfs/go-disktables/backend"
	"github.com/diskfs/go-disktables/disk"
	"github.com/diskfs/go-disktables/driver/detect"
	"github.com/diskfs/go-disktables/driver/extfs"
	"github.com/diskfs/go-disktables/driver/internal/safe"
	"github.com/diskfs/go-disktables/driver/ntfs"
	"github.com/diskfs/go-disktables/driver/pathfs"
	"github.com/diskfs/go-disktables/filesystem"
	"github.com/diskfs/go-disktables/partition"
	"github.com/diskfs/go-disktables/partition/part"
	"github.com/diskfs/go-disktables/util"
)

// dumpBytes is how much of an unrecognised partition is logged at trace level
const dumpBytes = 64

type slotPartition struct {
	img       *image
	blockSize int64
	slot      partition.Slot
}

func (p *slotPartition) Addr() uint64      { return p.slot.Addr }
func (p *slotPartition) Desc() string      { return p.slot.Desc }
func (p *slotPartition) Flags() part.Flags { return p.slot.Flags }
func (p *slotPartition) Start() uint64     { return p.slot.Start }
func (p *slotPartition) Len() uint64       { return p.slot.Len }

// OpenFileSystem reads the filesystem in an allocated slot. Metadata and unallocated
// slots never hold one.
func (p *slotPartition) OpenFileSystem() (filesystem.FileSystem, error) {
	if p.slot.Flags&part.FlagAlloc == 0 {
		return nil, part.NewNoFilesystemError(p.slot.Addr, p.slot.Flags)
	}
	offset := int64(p.slot.Start) * p.blockSize
	sub := backend.Sub(p.img.storage, offset, int64(p.slot.Len)*p.blockSize)
	log := p.img.log.WithField("partition", p.slot.Addr)

	header, err := detect.Detect(sub)
	if err != nil {
		return nil, err
	}
	log.Debugf("detected %s", header.Type)

	switch {
	case header.Type == detect.NTFS:
		fsys, err := ntfs.Open(sub, header, offset)
		if err == nil {
			return fsys, nil
		}
		log.Debugf("ntfs reader: %v", err)
	case header.Type.IsExt():
		fsys, err := extfs.Open(sub, header, offset)
		if err == nil {
			return fsys, nil
		}
		log.Debugf("ext reader: %v", err)
	case header.Type.IsPartitionTable():
		return nil, disk.NewUnknownFilesystemError(p.slot.Addr)
	case header.Type == detect.Unknown:
		if log.Logger.IsLevelEnabled(logrus.TraceLevel) {
			b := make([]byte, dumpBytes)
			n, _ := sub.ReadAt(b, 0)
			log.Tracef("unrecognised leading bytes:\n%s", util.HexDump(b[:n], 16))
		}
	}

	if p.slot.Index == 0 {
		return nil, disk.NewUnknownFilesystemError(p.slot.Addr)
	}
	return p.openUpstream(header, offset, log)
}

// openUpstream reads the partition through go-diskfs, which addresses files by path only
func (p *slotPartition) openUpstream(header detect.Header, offset int64, log *logrus.Entry) (filesystem.FileSystem, error) {
	up, err := safe.Call("read filesystem", func() (gofs.FileSystem, error) {
		return p.img.d.GetFilesystem(p.slot.Index)
	})
	if err != nil || up == nil {
		log.Debugf("go-diskfs reader: %v", err)
		return nil, disk.NewUnknownFilesystemError(p.slot.Addr)
	}
	if header.BlockSize == 0 {
		header.BlockSize = p.blockSize
		header.BlockCount = p.slot.Len
	}
	fsys, err := pathfs.Open(pathfs.ReadDirOf(up.ReadDir), pathfs.Config{
		TypeName: typeName(header, up.Type()),
		Header:   header,
		Offset:   offset,
		MaxDirs:  p.img.drv.maxDirs,
	})
	if err != nil {
		return nil, err
	}
	return fsys, nil
}

func typeName(header detect.Header, upstream gofs.Type) string {
	if header.Type != detect.Unknown {
		return header.Type.String()
	}
	switch upstream {
	case gofs.TypeFat32:
		return detect.FAT32.String()
	case gofs.TypeISO9660:
		return detect.ISO9660.String()
	case gofs.TypeSquashfs:
		return detect.Squashfs.String()
	case gofs.TypeExt4:
		return detect.Ext4.String()
	default:
		return detect.Unknown.String()
	}
}
