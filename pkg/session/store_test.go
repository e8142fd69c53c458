package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewFileStore(path)

	token, err := store.Load()
	if err != nil || token != "" {
		t.Fatalf("Load() on missing file = %q, %v; want \"\", nil", token, err)
	}

	if err := store.Save("abc"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != tokenFilePerms {
		t.Errorf("token file mode = %o, want %o", perm, tokenFilePerms)
	}

	token, err = store.Load()
	if err != nil || token != "abc" {
		t.Fatalf("Load() = %q, %v; want abc", token, err)
	}

	if err := store.Save("def"); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	if token, _ := store.Load(); token != "def" {
		t.Errorf("Load() after overwrite = %q, want def", token)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() on missing file error = %v", err)
	}
	if token, _ := store.Load(); token != "" {
		t.Errorf("Load() after Clear = %q, want empty", token)
	}
}

func TestFileStore_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  tok\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	token, err := NewFileStore(path).Load()
	if err != nil || token != "tok" {
		t.Errorf("Load() = %q, %v; want tok", token, err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("x")
	if token, _ := store.Load(); token != "x" {
		t.Errorf("Load() = %q, want x", token)
	}
	store.Save("y")
	if token, _ := store.Load(); token != "y" {
		t.Errorf("Load() = %q, want y", token)
	}
	store.Clear()
	if token, _ := store.Load(); token != "" {
		t.Errorf("Load() = %q, want empty", token)
	}
}
