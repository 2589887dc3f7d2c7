package filesystem

import "time"

// FileType is the type of an inode, mapped from each filesystem's native codes
type FileType int

const (
	TypeUnknown FileType = iota
	TypeRegular
	TypeDirectory
	TypeSymlink
	TypeBlock
	TypeCharacter
	TypeFIFO
	TypeSocket
)

var fileTypeNames = [...]string{
	TypeUnknown:   "unknown",
	TypeRegular:   "regular",
	TypeDirectory: "directory",
	TypeSymlink:   "symlink",
	TypeBlock:     "block",
	TypeCharacter: "character",
	TypeFIFO:      "fifo",
	TypeSocket:    "socket",
}

func (t FileType) String() string {
	if t < 0 || int(t) >= len(fileTypeNames) {
		return fileTypeNames[TypeUnknown]
	}
	return fileTypeNames[t]
}

// Meta is the metadata of one inode
type Meta struct {
	Addr uint64
	Type FileType
	UID  uint32
	GID  uint32
	// Mode holds the permission bits only, 07777
	Mode   uint32
	Size   int64
	ATime  time.Time
	MTime  time.Time
	CrTime time.Time
	NLink  uint32
	// Name is the name the inode was last seen under, if known
	Name string
}
