package walker

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "aa")
	writeFile(t, filepath.Join(root, "sub", "deep", "b.txt"), "bbbb")

	result, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}

	byRel := make(map[string]Entry)
	for _, e := range result.Entries {
		byRel[e.RelPath] = e
	}
	if _, ok := byRel["a.txt"]; !ok {
		t.Error("missing a.txt")
	}
	deep, ok := byRel["sub/deep/b.txt"]
	if !ok {
		t.Fatal("missing sub/deep/b.txt")
	}
	if deep.Size != 4 {
		t.Errorf("expected size 4, got %d", deep.Size)
	}
	if deep.ModTime.IsZero() {
		t.Error("expected a modification time")
	}
	if len(result.Skipped) != 0 {
		t.Errorf("expected no skipped entries, got %v", result.Skipped)
	}
}

func TestWalkMissingRoot(t *testing.T) {
	if _, err := Walk(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestWalkRootIsFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "f.txt")
	writeFile(t, path, "x")
	if _, err := Walk(path); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}

func TestWalkSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real.txt"), "x")
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	result, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].RelPath != "real.txt" {
		t.Errorf("expected only real.txt, got %+v", result.Entries)
	}
}
