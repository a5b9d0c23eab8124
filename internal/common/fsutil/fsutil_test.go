package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cases := []struct{ in, want string }{
		{"", ""},
		{"/opt/models/a.bin", "/opt/models/a.bin"},
		{"models/a.bin", "models/a.bin"},
		{"~", home},
		{"~/models/a.bin", filepath.Join(home, "models", "a.bin")},
	}
	for _, tc := range cases {
		got, err := ExpandHome(tc.in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ExpandHome(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStatModelFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "m.bin")
	if err := os.WriteFile(p, []byte("ggml"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	size, err := StatModelFile(p)
	if err != nil || size != 4 {
		t.Fatalf("size=%d err=%v", size, err)
	}
	if _, err := StatModelFile(dir); err == nil {
		t.Fatal("expected error for a directory")
	}
	if _, err := StatModelFile(filepath.Join(dir, "missing.bin")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
