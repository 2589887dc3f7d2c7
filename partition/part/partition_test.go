package part_test

import (
	"errors"
	"testing"

	"github.com/diskfs/go-disktables/partition/part"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		flags    part.Flags
		expected string
	}{
		{0, part.TypeNormal},
		{part.FlagAlloc, part.TypeNormal},
		{part.FlagUnalloc, part.TypeUnallocated},
		{part.FlagMeta, part.TypeMeta},
		{part.FlagMeta | part.FlagUnalloc, part.TypeMeta},
		{part.FlagMeta | part.FlagAlloc, part.TypeMeta},
		{part.FlagAlloc | part.FlagUnalloc, part.TypeUnallocated},
	}
	for _, tt := range tests {
		if got := part.Classify(tt.flags); got != tt.expected {
			t.Errorf("Classify(%#x) = %q, expected %q", uint32(tt.flags), got, tt.expected)
		}
	}
}

func TestNoFilesystemError(t *testing.T) {
	err := part.NewNoFilesystemError(3, part.FlagMeta)
	var target *part.NoFilesystemError
	if !errors.As(err, &target) {
		t.Fatalf("expected NoFilesystemError, got %T", err)
	}
	if err.Error() != "partition 3 with flags 0x4 holds no filesystem" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
