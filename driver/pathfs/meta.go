package pathfs

import (
	"io/fs"
	"reflect"
	"time"

	"github.com/diskfs/go-disktables/filesystem"
)

func metaFrom(n uint64, info fs.FileInfo) *filesystem.Meta {
	sys := info.Sys()
	m := &filesystem.Meta{
		Addr:   n,
		Type:   fileType(info.Mode()),
		Mode:   permissions(info.Mode()),
		Size:   info.Size(),
		MTime:  info.ModTime(),
		ATime:  sysTime(sys, "AccessTime", "Atime", "ATime"),
		CrTime: sysTime(sys, "CreateTime", "CreationTime", "Btime", "BirthTime"),
		NLink:  uint32(sysUint(sys, "Nlink", "NLink", "Links")),
		Name:   info.Name(),
	}
	m.UID = uint32(sysUint(sys, "UID", "Uid"))
	m.GID = uint32(sysUint(sys, "GID", "Gid"))
	if m.NLink == 0 {
		m.NLink = 1
	}
	return m
}

func fileType(mode fs.FileMode) filesystem.FileType {
	switch {
	case mode.IsRegular():
		return filesystem.TypeRegular
	case mode.IsDir():
		return filesystem.TypeDirectory
	case mode&fs.ModeSymlink != 0:
		return filesystem.TypeSymlink
	case mode&fs.ModeNamedPipe != 0:
		return filesystem.TypeFIFO
	case mode&fs.ModeSocket != 0:
		return filesystem.TypeSocket
	case mode&fs.ModeCharDevice != 0:
		return filesystem.TypeCharacter
	case mode&fs.ModeDevice != 0:
		return filesystem.TypeBlock
	default:
		return filesystem.TypeUnknown
	}
}

// permissions renders mode as the 07777 bits of a unix mode
func permissions(mode fs.FileMode) uint32 {
	p := uint32(mode.Perm())
	if mode&fs.ModeSetuid != 0 {
		p |= 0o4000
	}
	if mode&fs.ModeSetgid != 0 {
		p |= 0o2000
	}
	if mode&fs.ModeSticky != 0 {
		p |= 0o1000
	}
	return p
}

// sysValue looks up a field or a no-argument method by name on the value returned by
// FileInfo.Sys; each filesystem reader exposes ownership and times differently.
func sysValue(sys any, names ...string) (val reflect.Value, found bool) {
	defer func() {
		if recover() != nil {
			val, found = reflect.Value{}, false
		}
	}()
	if sys == nil {
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(sys)
	for _, name := range names {
		if m := v.MethodByName(name); m.IsValid() && m.Type().NumIn() == 0 && m.Type().NumOut() >= 1 {
			return m.Call(nil)[0], true
		}
	}
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	for _, name := range names {
		f, ok := v.Type().FieldByName(name)
		if !ok || !f.IsExported() {
			continue
		}
		if fv, err := v.FieldByIndexErr(f.Index); err == nil {
			return fv, true
		}
	}
	return reflect.Value{}, false
}

func sysUint(sys any, names ...string) uint64 {
	v, ok := sysValue(sys, names...)
	if !ok {
		return 0
	}
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i := v.Int(); i > 0 {
			return uint64(i)
		}
	}
	return 0
}

func sysTime(sys any, names ...string) time.Time {
	v, ok := sysValue(sys, names...)
	if !ok || !v.CanInterface() {
		return time.Time{}
	}
	if t, ok := v.Interface().(time.Time); ok {
		return t
	}
	return time.Time{}
}
