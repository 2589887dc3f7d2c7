// Package detect identifies filesystem types from the leading bytes of a partition.
package detect

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Type represents a filesystem type
type Type int

const (
	Unknown Type = iota
	FAT12
	FAT16
	FAT32
	NTFS
	Ext2
	Ext3
	Ext4
	ISO9660
	Squashfs
	MBR // Master Boot Record partition table
	GPT // GUID Partition Table
)

func (t Type) String() string {
	switch t {
	case FAT12:
		return "fat12"
	case FAT16:
		return "fat16"
	case FAT32:
		return "fat32"
	case NTFS:
		return "ntfs"
	case Ext2:
		return "ext2"
	case Ext3:
		return "ext3"
	case Ext4:
		return "ext4"
	case ISO9660:
		return "iso9660"
	case Squashfs:
		return "squashfs"
	case MBR:
		return "mbr"
	case GPT:
		return "gpt"
	default:
		return "unknown"
	}
}

// IsFAT returns true if the type is any FAT variant
func (t Type) IsFAT() bool {
	return t == FAT12 || t == FAT16 || t == FAT32
}

// IsExt returns true if the type is any ext variant
func (t Type) IsExt() bool {
	return t == Ext2 || t == Ext3 || t == Ext4
}

// IsPartitionTable returns true if the type is a partition table format
func (t Type) IsPartitionTable() bool {
	return t == MBR || t == GPT
}

// Filesystem flags reported in Header.Flags
const (
	FlagHaveSeq     uint32 = 0x08 // inode addresses carry a sequence number
	FlagHaveNanosec uint32 = 0x10 // timestamps have sub-second precision
)

// Header is what can be learned about a filesystem from its boot sector or superblock.
// Counts that the header does not hold are 0.
type Header struct {
	Type       Type
	Flags      uint32
	BlockSize  int64
	BlockCount uint64
	InodeCount uint64
}

const (
	isoDescriptorOffset = 0x8000
	headerSize          = isoDescriptorOffset + 0x800
	extSuperblock       = 1024
)

// Detect identifies the filesystem type from a reader positioned at the start of a
// partition. An unrecognised layout is reported as Unknown with a nil error.
func Detect(r io.ReaderAt) (Header, error) {
	header := make([]byte, headerSize)
	n, err := r.ReadAt(header, 0)
	if err != nil && err != io.EOF {
		return Header{}, fmt.Errorf("reading header: %w", err)
	}
	if n < 512 {
		return Header{}, fmt.Errorf("partition too small: %d bytes", n)
	}
	header = header[:n]

	// Check for GPT (GUID Partition Table) - "EFI PART" at LBA 1 (offset 512)
	if n >= 520 && bytes.Equal(header[512:520], []byte("EFI PART")) {
		return Header{Type: GPT}, nil
	}

	// squashfs superblock, "hsqs" at offset 0
	if bytes.Equal(header[0:4], []byte("hsqs")) {
		return squashfsHeader(header), nil
	}

	// Check NTFS (offset 3: "NTFS    ")
	if bytes.Equal(header[3:11], []byte("NTFS    ")) {
		return ntfsHeader(header), nil
	}

	// Check for ext2/3/4 superblock magic at offset 0x438 (1080)
	if n >= extSuperblock+0x100 && binary.LittleEndian.Uint16(header[0x438:0x43A]) == 0xEF53 {
		return extHeader(header[extSuperblock:]), nil
	}

	// ISO9660 primary volume descriptor, "CD001" at 0x8001
	if n >= isoDescriptorOffset+0x100 && bytes.Equal(header[isoDescriptorOffset+1:isoDescriptorOffset+6], []byte("CD001")) {
		return isoHeader(header[isoDescriptorOffset:]), nil
	}

	// Check for FAT boot sector signature or MBR partition table
	if header[510] == 0x55 && header[511] == 0xAA {
		if isMBRPartitionTable(header) {
			return Header{Type: MBR}, nil
		}
		return fatHeader(header), nil
	}

	return Header{Type: Unknown}, nil
}

func ntfsHeader(boot []byte) Header {
	bytesPerSector := int64(binary.LittleEndian.Uint16(boot[0x0B:0x0D]))
	sectorsPerCluster := int64(boot[0x0D])
	totalSectors := binary.LittleEndian.Uint64(boot[0x28:0x30])
	h := Header{Type: NTFS, Flags: FlagHaveSeq | FlagHaveNanosec}
	if bytesPerSector == 0 || sectorsPerCluster == 0 {
		return h
	}
	h.BlockSize = bytesPerSector * sectorsPerCluster
	h.BlockCount = totalSectors / uint64(sectorsPerCluster)
	return h
}

func extHeader(sb []byte) Header {
	h := Header{Type: detectExtVersion(sb)}
	h.InodeCount = uint64(binary.LittleEndian.Uint32(sb[0:4]))
	h.BlockCount = uint64(binary.LittleEndian.Uint32(sb[4:8]))
	logBlockSize := binary.LittleEndian.Uint32(sb[24:28])
	if logBlockSize < 16 {
		h.BlockSize = int64(1024) << logBlockSize
	}
	const incompat64Bit = 0x0080
	if binary.LittleEndian.Uint32(sb[0x60:0x64])&incompat64Bit != 0 && len(sb) >= 0x154 {
		h.BlockCount |= uint64(binary.LittleEndian.Uint32(sb[0x150:0x154])) << 32
	}
	if h.Type == Ext4 {
		h.Flags = FlagHaveNanosec
	}
	return h
}

// detectExtVersion distinguishes between ext2, ext3, and ext4
// superblock is the data starting at byte 1024 of the partition
func detectExtVersion(superblock []byte) Type {
	if len(superblock) < 0x68 {
		return Ext2
	}

	featureCompat := binary.LittleEndian.Uint32(superblock[0x5C:0x60])
	featureIncompat := binary.LittleEndian.Uint32(superblock[0x60:0x64])

	const (
		incompat64Bit     = 0x0080
		incompatExtents   = 0x0040
		incompatFlexBG    = 0x0200
		compatHasJournal  = 0x0004
		ext4IncompatFlags = incompat64Bit | incompatExtents | incompatFlexBG
	)

	if featureIncompat&ext4IncompatFlags != 0 {
		return Ext4
	}
	if featureCompat&compatHasJournal != 0 {
		return Ext3
	}
	return Ext2
}

func isoHeader(pvd []byte) Header {
	// both-endian fields, little-endian half first
	return Header{
		Type:       ISO9660,
		BlockSize:  int64(binary.LittleEndian.Uint16(pvd[128:130])),
		BlockCount: uint64(binary.LittleEndian.Uint32(pvd[80:84])),
	}
}

func squashfsHeader(sb []byte) Header {
	h := Header{Type: Squashfs}
	if len(sb) < 48 {
		return h
	}
	h.InodeCount = uint64(binary.LittleEndian.Uint32(sb[4:8]))
	h.BlockSize = int64(binary.LittleEndian.Uint32(sb[12:16]))
	if h.BlockSize > 0 {
		bytesUsed := binary.LittleEndian.Uint64(sb[40:48])
		h.BlockCount = (bytesUsed + uint64(h.BlockSize) - 1) / uint64(h.BlockSize)
	}
	return h
}

func fatHeader(boot []byte) Header {
	h := Header{Type: detectFATVersion(boot)}
	if h.Type == Unknown {
		return h
	}
	bytesPerSector := binary.LittleEndian.Uint16(boot[11:13])
	totalSectors := uint64(binary.LittleEndian.Uint16(boot[19:21]))
	if totalSectors == 0 {
		totalSectors = uint64(binary.LittleEndian.Uint32(boot[32:36]))
	}
	h.BlockSize = int64(bytesPerSector)
	h.BlockCount = totalSectors
	return h
}

// isMBRPartitionTable checks if the boot sector contains a valid MBR partition table
func isMBRPartitionTable(header []byte) bool {
	validPartitions := 0
	for i := 0; i < 4; i++ {
		entry := header[446+i*16 : 446+(i+1)*16]

		// boot flag must be 0x00 or 0x80
		if entry[0] != 0x00 && entry[0] != 0x80 {
			continue
		}
		if entry[4] == 0x00 {
			continue
		}
		lbaStart := binary.LittleEndian.Uint32(entry[8:12])
		lbaSize := binary.LittleEndian.Uint32(entry[12:16])
		if lbaStart > 0 && lbaSize > 0 {
			validPartitions++
		}
	}
	if validPartitions == 0 {
		return false
	}

	// a FAT boot sector can carry bytes that look like entries; a sane BPB wins
	bps := binary.LittleEndian.Uint16(header[11:13])
	if bps == 512 || bps == 1024 || bps == 2048 || bps == 4096 {
		if bytes.Equal(header[54:59], []byte("FAT12")) ||
			bytes.Equal(header[54:59], []byte("FAT16")) ||
			bytes.Equal(header[82:87], []byte("FAT32")) {
			return false
		}
		switch header[13] {
		case 1, 2, 4, 8, 16, 32, 64, 128:
			return false
		}
	}
	return true
}

// detectFATVersion distinguishes between FAT12, FAT16, and FAT32
func detectFATVersion(header []byte) Type {
	if bytes.Equal(header[82:90], []byte("FAT32   ")) {
		return FAT32
	}
	if bytes.Equal(header[54:62], []byte("FAT12   ")) {
		return FAT12
	}
	if bytes.Equal(header[54:62], []byte("FAT16   ")) {
		return FAT16
	}

	// no label, go by cluster count
	bytesPerSector := binary.LittleEndian.Uint16(header[11:13])
	sectorsPerCluster := header[13]
	reservedSectors := binary.LittleEndian.Uint16(header[14:16])
	numFATs := header[16]
	rootEntryCount := binary.LittleEndian.Uint16(header[17:19])
	totalSectors16 := binary.LittleEndian.Uint16(header[19:21])
	fatSize16 := binary.LittleEndian.Uint16(header[22:24])
	totalSectors32 := binary.LittleEndian.Uint32(header[32:36])

	if bytesPerSector == 0 || sectorsPerCluster == 0 {
		return Unknown
	}

	totalSectors := totalSectors32
	if totalSectors16 != 0 {
		totalSectors = uint32(totalSectors16)
	}
	fatSize := uint32(fatSize16)
	if fatSize == 0 {
		fatSize = binary.LittleEndian.Uint32(header[36:40])
	}

	rootDirSectors := ((uint32(rootEntryCount) * 32) + uint32(bytesPerSector) - 1) / uint32(bytesPerSector)
	overhead := uint32(reservedSectors) + uint32(numFATs)*fatSize + rootDirSectors
	if overhead >= totalSectors {
		return Unknown
	}
	countOfClusters := (totalSectors - overhead) / uint32(sectorsPerCluster)

	switch {
	case countOfClusters < 4085:
		return FAT12
	case countOfClusters < 65525:
		return FAT16
	default:
		return FAT32
	}
}
