package disktables_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-test/deep"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	disktables "github.com/diskfs/go-disktables"
	"github.com/diskfs/go-disktables/partition/part"
	"github.com/diskfs/go-disktables/row"
	"github.com/diskfs/go-disktables/testhelper"
)

func sampleFS() (fsys *testhelper.FileSystem, a, b uint64) {
	fsys = testhelper.NewFileSystem()
	fsys.FSOffset = 2048 * 512
	a = fsys.AddFile(fsys.Root, "a.txt", 10)
	sub := fsys.AddDir(fsys.Root, "sub")
	b = fsys.AddFile(sub, "b.txt", 20)
	return fsys, a, b
}

// sampleDriver serves /img with a metadata slot and one ext4 partition at address 1
func sampleDriver() (*testhelper.Driver, *testhelper.FileSystem, *testhelper.Partition) {
	fsys, _, _ := sampleFS()
	drv := testhelper.NewDriver()
	p := &testhelper.Partition{Address: 1, Description: "Linux (0x83)", Flag: part.FlagAlloc, First: 2048, Length: 8192, FS: fsys}
	drv.Add("/img",
		&testhelper.Partition{Address: 0, Description: "Primary Table (#0)", Flag: part.FlagMeta, First: 0, Length: 1},
		p,
	)
	return drv, fsys, p
}

func opts(drv *testhelper.Driver) ([]disktables.Option, *logtest.Hook) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return []disktables.Option{disktables.WithDriver(drv), disktables.WithLogger(log)}, hook
}

func TestListPartitions(t *testing.T) {
	drv, fsys, _ := sampleDriver()
	o, _ := opts(drv)

	res := disktables.ListPartitions(disktables.Constraints{Devices: []string{"/img"}}, o...)

	expected := row.Results{
		{
			"device": "/img", "partition": "0", "label": "Primary Table (#0)", "type": "meta", "flags": "4",
			"offset": "0", "blocks_size": "512", "blocks": "1", "inodes": "-1",
		},
		{
			"device": "/img", "partition": "1", "label": "Linux (0x83)", "type": "ext4", "flags": "0",
			"offset": "1048576", "blocks_size": "4096", "blocks": "1024", "inodes": fmt.Sprint(fsys.Inodes),
		},
	}
	if diff := deep.Equal(res, expected); diff != nil {
		t.Errorf("ListPartitions() mismatch: %v", diff)
	}
	require.Equal(t, 1, fsys.Closes)
	require.Equal(t, 1, drv.Images["/img"].Closes)
}

func TestListPartitionsClassification(t *testing.T) {
	tests := []struct {
		name  string
		flags part.Flags
		typ   string
	}{
		{"meta", part.FlagMeta, "meta"},
		{"meta wins", part.FlagMeta | part.FlagUnalloc, "meta"},
		{"unallocated", part.FlagUnalloc, "unallocated"},
		{"allocated", part.FlagAlloc, "normal"},
		{"no bits", 0, "normal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := testhelper.NewDriver()
			drv.Add("/img", &testhelper.Partition{Address: 3, Flag: tt.flags, First: 2048, Length: 100})
			o, _ := opts(drv)

			res := disktables.ListPartitions(disktables.Constraints{Devices: []string{"/img"}}, o...)
			require.Len(t, res, 1)
			r := res[0]
			require.Equal(t, tt.typ, r["type"])
			require.Equal(t, fmt.Sprint(uint32(tt.flags)), r["flags"])
			require.Equal(t, "-1", r["inodes"])
			require.Equal(t, "100", r["blocks"])
			require.Equal(t, fmt.Sprint(2048*512), r["offset"])
			require.Equal(t, "512", r["blocks_size"])
			_, hasLabel := r["label"]
			require.False(t, hasLabel)
		})
	}
}

func TestListPartitionsFilesystemError(t *testing.T) {
	drv := testhelper.NewDriver()
	p := &testhelper.Partition{Address: 1, Flag: part.FlagAlloc, First: 63, Length: 10, OpenErr: errors.New("corrupt superblock")}
	drv.Add("/img", p)
	o, _ := opts(drv)

	res := disktables.ListPartitions(disktables.Constraints{Devices: []string{"/img"}}, o...)
	require.Len(t, res, 1)
	require.Equal(t, "normal", res[0]["type"])
	require.Equal(t, "1", res[0]["flags"])
	require.Equal(t, fmt.Sprint(63*512), res[0]["offset"])
	require.Equal(t, 1, p.Opens)
}

func TestListPartitionsDevices(t *testing.T) {
	drv, _, _ := sampleDriver()
	drv.Add("/other", &testhelper.Partition{Address: 0, Flag: part.FlagUnalloc, Length: 5})
	o, _ := opts(drv)

	res := disktables.ListPartitions(disktables.Constraints{Devices: []string{"/img", "/missing", "/other"}}, o...)
	var devices []string
	for _, r := range res {
		devices = append(devices, r["device"])
	}
	require.Equal(t, []string{"/img", "/img", "/other"}, devices)
}

func TestUnopenableDevice(t *testing.T) {
	drv := testhelper.NewDriver()
	o, _ := opts(drv)
	c := disktables.Constraints{Devices: []string{"/nonexistent"}, Partitions: []string{"1"}}

	require.Empty(t, disktables.ListPartitions(c, o...))
	require.Empty(t, disktables.ListFiles(c, o...))
}

func TestListFilesConstraints(t *testing.T) {
	tests := []struct {
		name string
		c    disktables.Constraints
	}{
		{"no device", disktables.Constraints{Partitions: []string{"1"}}},
		{"no partition", disktables.Constraints{Devices: []string{"/img"}}},
		{"two partitions", disktables.Constraints{Devices: []string{"/img"}, Partitions: []string{"0", "1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, _, _ := sampleDriver()
			o, hook := opts(drv)

			res := disktables.ListFiles(tt.c, o...)
			require.Empty(t, res)
			require.NotNil(t, hook.LastEntry())
			require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
			require.Zero(t, drv.Opens["/img"])
		})
	}
}

func TestListFilesWalk(t *testing.T) {
	drv, fsys, _ := sampleDriver()
	o, _ := opts(drv)

	res := disktables.ListFiles(disktables.Constraints{Devices: []string{"/img"}, Partitions: []string{"1"}}, o...)
	require.Len(t, res, 2)
	require.Equal(t, "/a.txt", res[0]["path"])
	require.Equal(t, "10", res[0]["size"])
	require.Equal(t, "/sub/b.txt", res[1]["path"])
	require.Equal(t, "20", res[1]["size"])
	for _, r := range res {
		require.Equal(t, "/img", r["device"])
		require.Equal(t, "1", r["partition"])
	}
	require.Equal(t, 1, fsys.Closes)
	require.Zero(t, fsys.OpenHandles())
}

func TestListFilesMaxDepth(t *testing.T) {
	drv, fsys, _ := sampleDriver()
	o, _ := opts(drv)
	o = append(o, disktables.WithMaxDepth(1))

	res := disktables.ListFiles(disktables.Constraints{Devices: []string{"/img"}, Partitions: []string{"1"}}, o...)
	require.Len(t, res, 1)
	require.Equal(t, "/a.txt", res[0]["path"])
	require.Equal(t, 1, fsys.DirOpens)
}

func TestListFilesResolve(t *testing.T) {
	fsys, _, b := sampleFS()
	drv := testhelper.NewDriver()
	drv.Add("/img", &testhelper.Partition{Address: 1, Flag: part.FlagAlloc, Length: 10, FS: fsys})
	o, _ := opts(drv)

	res := disktables.ListFiles(disktables.Constraints{
		Devices:    []string{"/img"},
		Partitions: []string{"1"},
		Paths:      []string{"/sub/b.txt", "/nope"},
		Inodes:     []string{fmt.Sprint(b), "not-a-number", "999999"},
	}, o...)

	require.Len(t, res, 2)
	byPath, byInode := res[0], res[1]
	require.Equal(t, "/sub/b.txt", byPath["path"])
	require.Equal(t, "b.txt", byInode["path"])
	for _, col := range []string{"inode", "uid", "gid", "size", "atime", "mtime", "ctime"} {
		require.Equal(t, byPath[col], byInode[col], "column %s", col)
	}
	// no walk when paths or inodes are given
	require.Zero(t, fsys.DirOpens)
	require.Equal(t, 1, fsys.Closes)
}

func TestListFilesMissingPath(t *testing.T) {
	drv, fsys, _ := sampleDriver()
	o, _ := opts(drv)

	res := disktables.ListFiles(disktables.Constraints{
		Devices:    []string{"/img"},
		Partitions: []string{"1"},
		Paths:      []string{"/does/not/exist"},
	}, o...)
	require.Empty(t, res)
	require.Equal(t, 1, fsys.Closes)
}

func TestListFilesPartitionSelection(t *testing.T) {
	t.Run("no match", func(t *testing.T) {
		drv, fsys, p := sampleDriver()
		o, _ := opts(drv)
		res := disktables.ListFiles(disktables.Constraints{Devices: []string{"/img"}, Partitions: []string{"7"}}, o...)
		require.Empty(t, res)
		require.Zero(t, p.Opens)
		require.Zero(t, fsys.Closes)
	})
	t.Run("no filesystem", func(t *testing.T) {
		drv, _, _ := sampleDriver()
		o, _ := opts(drv)
		res := disktables.ListFiles(disktables.Constraints{Devices: []string{"/img"}, Partitions: []string{"0"}}, o...)
		require.Empty(t, res)
	})
	t.Run("several devices", func(t *testing.T) {
		drv, _, _ := sampleDriver()
		other, _, _ := sampleFS()
		drv.Add("/img2", &testhelper.Partition{Address: 1, Flag: part.FlagAlloc, Length: 10, FS: other})
		o, _ := opts(drv)
		res := disktables.ListFiles(disktables.Constraints{Devices: []string{"/img", "/img2"}, Partitions: []string{"1"}}, o...)
		require.Len(t, res, 4)
		require.Equal(t, "/img", res[0]["device"])
		require.Equal(t, "/img2", res[3]["device"])
	})
}

func TestListFilesFirstSlot(t *testing.T) {
	fsys, _, _ := sampleFS()
	drv := testhelper.NewDriver()
	drv.Add("/img", &testhelper.Partition{Address: 0, Flag: part.FlagAlloc, Length: 100, FS: fsys})
	o, _ := opts(drv)

	res := disktables.ListFiles(disktables.Constraints{Devices: []string{"/img"}, Partitions: []string{"0"}}, o...)
	require.Len(t, res, 2)
	require.Equal(t, "/a.txt", res[0]["path"])
	require.Equal(t, "10", res[0]["size"])
	require.Equal(t, "/sub/b.txt", res[1]["path"])
	require.Equal(t, "20", res[1]["size"])
}
