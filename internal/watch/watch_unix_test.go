//go:build linux

package watch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddAndClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.acs")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	changed := make(chan string, 1)
	w, err := New(func(p string) { changed <- p })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Add(Unit{Name: path, Paths: []string{path}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	w.mu.Lock()
	n := len(w.watchMap)
	w.mu.Unlock()
	if n != 1 {
		t.Fatalf("watchMap has %d entries, want 1", n)
	}
}

func TestAddRejectsMissingFile(t *testing.T) {
	w, err := New(func(string) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	missing := filepath.Join(t.TempDir(), "nonexistent.acs")
	if err := w.Add(Unit{Name: missing, Paths: []string{missing}}); err == nil {
		t.Fatal("expected an error watching a file that does not exist")
	}
}

func TestAddCoalescesUnitPaths(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.acs")
	lib := filepath.Join(dir, "lib.o")
	for _, p := range []string{src, lib} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	w, err := New(func(string) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Add(Unit{Name: src, Paths: []string{src, lib}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.watchMap) != 2 {
		t.Fatalf("watchMap has %d entries, want 2", len(w.watchMap))
	}
	for _, unitName := range w.watchMap {
		if unitName != src {
			t.Fatalf("watch descriptor maps to unit %q, want %q", unitName, src)
		}
	}
}
