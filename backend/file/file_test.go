package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/diskfs/go-disktables/backend/file"
)

func TestOpenFromPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "disk.img")
	if err := os.WriteFile(p, make([]byte, 4096), 0o600); err != nil {
		t.Fatalf("error creating image: %v", err)
	}

	t.Run("empty name", func(t *testing.T) {
		if _, err := file.OpenFromPath(""); err == nil {
			t.Errorf("expected error for empty path")
		}
	})
	t.Run("missing", func(t *testing.T) {
		if _, err := file.OpenFromPath(filepath.Join(dir, "nope.img")); err == nil {
			t.Errorf("expected error for missing path")
		}
	})
	t.Run("directory", func(t *testing.T) {
		if _, err := file.OpenFromPath(dir); err == nil {
			t.Errorf("expected error for directory")
		}
	})
	t.Run("image", func(t *testing.T) {
		b, err := file.OpenFromPath(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer b.Close()
		if b.Size() != 4096 {
			t.Errorf("size %d, expected 4096", b.Size())
		}
		if _, err := b.Sys(); err != nil {
			t.Errorf("expected an OS file: %v", err)
		}
	})
}
