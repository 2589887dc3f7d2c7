package partition_test

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/diskfs/go-disktables/partition"
	"github.com/diskfs/go-disktables/partition/part"
)

func TestLayout(t *testing.T) {
	meta := partition.Entry{Start: 0, Len: 1, Flags: part.FlagMeta, Desc: "Primary Table (#0)"}
	linux := partition.Entry{Start: 2048, Len: 4096, Flags: part.FlagAlloc, Desc: "Linux (0x83)", Index: 1}
	swap := partition.Entry{Start: 6144, Len: 1024, Flags: part.FlagAlloc, Desc: "Linux Swap / Solaris x86 (0x82)", Index: 2}
	unalloc := func(start, length uint64) partition.Entry {
		return partition.Entry{Start: start, Len: length, Flags: part.FlagUnalloc, Desc: partition.UnallocatedDesc}
	}

	tests := []struct {
		name     string
		entries  []partition.Entry
		total    uint64
		expected []partition.Entry
	}{
		{"empty disk", nil, 100, []partition.Entry{unalloc(0, 100)}},
		{"empty zero disk", nil, 0, nil},
		{"gaps and tail", []partition.Entry{swap, linux, meta}, 8192,
			[]partition.Entry{meta, unalloc(1, 2047), linux, swap, unalloc(7168, 1024)}},
		{"exact fit", []partition.Entry{meta, {Start: 1, Len: 9, Flags: part.FlagAlloc, Index: 1}}, 10,
			[]partition.Entry{meta, {Start: 1, Len: 9, Flags: part.FlagAlloc, Index: 1}}},
		{"zero length dropped", []partition.Entry{meta, {Start: 5, Len: 0, Flags: part.FlagAlloc}}, 4,
			[]partition.Entry{meta, unalloc(1, 3)}},
		{"overlap keeps both", []partition.Entry{
			{Start: 10, Len: 100, Flags: part.FlagMeta, Desc: "ext"},
			{Start: 20, Len: 10, Flags: part.FlagAlloc, Desc: "inner"},
		}, 110, []partition.Entry{
			unalloc(0, 10),
			{Start: 10, Len: 100, Flags: part.FlagMeta, Desc: "ext"},
			{Start: 20, Len: 10, Flags: part.FlagAlloc, Desc: "inner"},
		}},
		{"meta first on same start", []partition.Entry{
			{Start: 0, Len: 4, Flags: part.FlagAlloc, Desc: "data"},
			{Start: 0, Len: 1, Flags: part.FlagMeta, Desc: "table"},
		}, 4, []partition.Entry{
			{Start: 0, Len: 1, Flags: part.FlagMeta, Desc: "table"},
			{Start: 0, Len: 4, Flags: part.FlagAlloc, Desc: "data"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := partition.Layout(tt.entries, tt.total)
			got := make([]partition.Entry, 0, len(slots))
			for i, s := range slots {
				if s.Addr != uint64(i) {
					t.Errorf("slot %d has address %d", i, s.Addr)
				}
				got = append(got, s.Entry)
			}
			if len(tt.expected) == 0 && len(got) == 0 {
				return
			}
			if diff := deep.Equal(got, tt.expected); diff != nil {
				t.Errorf("Layout() mismatch: %v", diff)
			}
		})
	}
}

func TestDescribeMBR(t *testing.T) {
	tests := []struct {
		t        byte
		expected string
	}{
		{0x83, "Linux (0x83)"},
		{0x0c, "Win95 FAT32 (LBA) (0x0c)"},
		{0xee, "GPT Safety Partition (0xee)"},
		{0x99, "Unknown Type (0x99)"},
	}
	for _, tt := range tests {
		if got := partition.DescribeMBR(tt.t); got != tt.expected {
			t.Errorf("DescribeMBR(%#x) = %q, expected %q", tt.t, got, tt.expected)
		}
	}
	for _, ext := range []byte{0x05, 0x0f, 0x85} {
		if !partition.IsExtendedMBR(ext) {
			t.Errorf("%#x should be extended", ext)
		}
	}
	if partition.IsExtendedMBR(0x83) {
		t.Errorf("0x83 should not be extended")
	}
}

func TestDescribeGPT(t *testing.T) {
	tests := []struct {
		guid, name, expected string
	}{
		{"C12A7328-F81F-11D2-BA4B-00A0C93EC93B", "", "EFI System Partition"},
		{"c12a7328-f81f-11d2-ba4b-00a0c93ec93b", "", "EFI System Partition"},
		{"0FC63DAF-8483-4772-8E79-3D69D8477DE4", "rootfs", "rootfs"},
		{"0FC63DAF-8483-4772-8E79-3D69D8477DE4", "  \x00\x00", "Linux Filesystem"},
		{"11111111-2222-3333-4444-555555555555", "", "11111111-2222-3333-4444-555555555555"},
		{"not-a-guid", "", "not-a-guid"},
	}
	for _, tt := range tests {
		if got := partition.DescribeGPT(tt.guid, tt.name); got != tt.expected {
			t.Errorf("DescribeGPT(%q, %q) = %q, expected %q", tt.guid, tt.name, got, tt.expected)
		}
	}
}
