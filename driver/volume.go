package driver

import (
	"fmt"
	"strings"

	gopart "github.com/diskfs/go-diskfs/partition"
	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/diskfs/go-diskfs/partition/mbr"

	"github.com/diskfs/go-disktables/driver/internal/safe"
	"github.com/diskfs/go-disktables/partition"
	"github.com/diskfs/go-disktables/partition/part"
)

// gptEntryArrayBytes is the size of the standard 128 entry GPT partition array
const gptEntryArrayBytes = 128 * 128

const emptyGUID = "00000000-0000-0000-0000-000000000000"

func (img *image) OpenVolume() (partition.Volume, error) {
	table, err := safe.Call("read partition table", func() (gopart.Table, error) {
		return img.d.GetPartitionTable()
	})
	if err != nil {
		return nil, err
	}
	img.d.Table = table

	blockSize := img.d.LogicalBlocksize
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	size := img.d.Size
	if size <= 0 {
		size = img.storage.Size()
	}

	var entries []partition.Entry
	switch t := table.(type) {
	case *mbr.Table:
		entries = mbrEntries(t)
	case *gpt.Table:
		entries = gptEntries(t, blockSize)
	default:
		return nil, fmt.Errorf("unsupported partition table %T", table)
	}
	slots := partition.Layout(entries, uint64(size/blockSize))
	img.log.Debugf("%s volume with %d slots of %d byte blocks", table.Type(), len(slots), blockSize)

	v := &volume{img: img, blockSize: blockSize, slots: make([]*slotPartition, len(slots))}
	for i := range slots {
		v.slots[i] = &slotPartition{img: img, blockSize: blockSize, slot: slots[i]}
	}
	return v, nil
}

func mbrEntries(t *mbr.Table) []partition.Entry {
	entries := []partition.Entry{{Start: 0, Len: 1, Flags: part.FlagMeta, Desc: "Primary Table (#0)"}}
	for i, p := range t.Partitions {
		if p == nil || p.Type == mbr.Empty {
			continue
		}
		flags := part.FlagAlloc
		if partition.IsExtendedMBR(byte(p.Type)) {
			flags = part.FlagMeta
		}
		entries = append(entries, partition.Entry{
			Start: uint64(p.Start),
			Len:   uint64(p.Size),
			Flags: flags,
			Desc:  partition.DescribeMBR(byte(p.Type)),
			Index: i + 1,
		})
	}
	return entries
}

func gptEntries(t *gpt.Table, blockSize int64) []partition.Entry {
	arrayBlocks := uint64(gptEntryArrayBytes / blockSize)
	if arrayBlocks == 0 {
		arrayBlocks = 1
	}
	entries := []partition.Entry{
		{Start: 0, Len: 1, Flags: part.FlagMeta, Desc: "Safety Table"},
		{Start: 1, Len: 1, Flags: part.FlagMeta, Desc: "GPT Header"},
		{Start: 2, Len: arrayBlocks, Flags: part.FlagMeta, Desc: "Partition Table"},
	}
	for i, p := range t.Partitions {
		if p == nil || strings.EqualFold(string(p.Type), emptyGUID) || p.End < p.Start || (p.Start == 0 && p.End == 0) {
			continue
		}
		entries = append(entries, partition.Entry{
			Start: p.Start,
			Len:   p.End - p.Start + 1,
			Flags: part.FlagAlloc,
			Desc:  partition.DescribeGPT(string(p.Type), p.Name),
			Index: i + 1,
		})
	}
	return entries
}

type volume struct {
	img       *image
	blockSize int64
	slots     []*slotPartition
}

func (v *volume) BlockSize() int64 { return v.blockSize }
func (v *volume) Count() int       { return len(v.slots) }

func (v *volume) Partition(i int) part.Partition {
	if i < 0 || i >= len(v.slots) {
		return nil
	}
	return v.slots[i]
}
