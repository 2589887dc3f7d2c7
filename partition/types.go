package partition

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var mbrTypeNames = map[byte]string{
	0x01: "DOS FAT12",
	0x04: "DOS FAT16 (<32MB)",
	0x05: "DOS Extended",
	0x06: "DOS FAT16 (>32MB)",
	0x07: "NTFS / exFAT",
	0x0b: "Win95 FAT32",
	0x0c: "Win95 FAT32 (LBA)",
	0x0e: "Win95 FAT16 (LBA)",
	0x0f: "Win95 Extended (LBA)",
	0x11: "Hidden FAT12",
	0x17: "Hidden NTFS",
	0x1b: "Hidden Win95 FAT32",
	0x27: "Windows Recovery",
	0x42: "Windows Dynamic",
	0x82: "Linux Swap / Solaris x86",
	0x83: "Linux",
	0x85: "Linux Extended",
	0x8e: "Linux Logical Volume Manager",
	0xa5: "FreeBSD",
	0xa6: "OpenBSD",
	0xa8: "Mac OSX",
	0xa9: "NetBSD",
	0xaf: "Mac OSX HFS",
	0xee: "GPT Safety Partition",
	0xef: "EFI System",
	0xfb: "VMware FS",
	0xfd: "Linux RAID",
}

// DescribeMBR renders an MBR partition type as "Linux (0x83)"
func DescribeMBR(t byte) string {
	name, ok := mbrTypeNames[t]
	if !ok {
		name = "Unknown Type"
	}
	return fmt.Sprintf("%s (0x%02x)", name, t)
}

// IsExtendedMBR reports whether an MBR type is an extended partition container
func IsExtendedMBR(t byte) bool {
	switch t {
	case 0x05, 0x0f, 0x85:
		return true
	}
	return false
}

var gptTypeNames = map[uuid.UUID]string{
	uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B"): "EFI System Partition",
	uuid.MustParse("21686148-6449-6E6F-744E-656564454649"): "BIOS Boot Partition",
	uuid.MustParse("E3C9E316-0B5C-4DB8-817D-F92DF00215AE"): "Microsoft Reserved Partition",
	uuid.MustParse("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7"): "Microsoft Basic Data",
	uuid.MustParse("DE94BBA4-06D1-4D40-A16A-BFD50179D6AC"): "Windows Recovery Environment",
	uuid.MustParse("5808C8AA-7E8F-42E0-85D2-E1E90434CFB3"): "Microsoft LDM Metadata",
	uuid.MustParse("AF9B60A0-1431-4F62-BC68-3311714A69AD"): "Microsoft LDM Data",
	uuid.MustParse("0FC63DAF-8483-4772-8E79-3D69D8477DE4"): "Linux Filesystem",
	uuid.MustParse("0657FD6D-A4AB-43C4-84E5-0933C84B4F4F"): "Linux Swap",
	uuid.MustParse("E6D6D379-F507-44C2-A23C-238F2A3DF928"): "Linux LVM",
	uuid.MustParse("A19D880F-05FC-4D3B-A006-743F0F84911E"): "Linux RAID",
	uuid.MustParse("4F68BCE3-E8CD-4DB1-96E7-FBCAF984B709"): "Linux Root (x86-64)",
	uuid.MustParse("933AC7E1-2EB4-4F13-B844-0E14E2AEF915"): "Linux Home",
	uuid.MustParse("48465300-0000-11AA-AA11-00306543ECAC"): "Apple HFS+",
	uuid.MustParse("7C3457EF-0000-11AA-AA11-00306543ECAC"): "Apple APFS",
	uuid.MustParse("516E7CB4-6ECF-11D6-8FF8-00022D09712B"): "FreeBSD Data",
}

// DescribeGPT returns the partition name when set, otherwise the name of its type GUID.
// Unknown or malformed GUIDs are returned as given.
func DescribeGPT(typeGUID, name string) string {
	if n := strings.TrimSpace(strings.TrimRight(name, "\x00")); n != "" {
		return n
	}
	id, err := uuid.Parse(typeGUID)
	if err != nil {
		return typeGUID
	}
	if n, ok := gptTypeNames[id]; ok {
		return n
	}
	return strings.ToUpper(id.String())
}
