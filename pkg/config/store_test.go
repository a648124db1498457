package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.SetSection("scanner", map[string]any{"backup": true, "max_text_len": 500000}); err != nil {
		t.Fatalf("SetSection failed: %v", err)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	data, err := reloaded.GetSection("scanner")
	if err != nil {
		t.Fatalf("GetSection failed: %v", err)
	}
	if data["backup"] != true {
		t.Errorf("expected backup=true, got %v", data["backup"])
	}
	// JSON numbers decode as float64.
	if n, ok := data["max_text_len"].(float64); !ok || n != 500000 {
		t.Errorf("expected max_text_len=500000, got %v", data["max_text_len"])
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nope", "config.json"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	data, err := store.GetSection("anything")
	if err != nil {
		t.Fatalf("GetSection failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty section, got %v", data)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Fatal("expected error for corrupt config")
	}
}

func TestFileStoreSectionIsolation(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	in := map[string]any{"key": "value"}
	if err := store.SetSection("s", in); err != nil {
		t.Fatal(err)
	}
	in["key"] = "mutated"

	out, err := store.GetSection("s")
	if err != nil {
		t.Fatal(err)
	}
	if out["key"] != "value" {
		t.Errorf("store must copy section data, got %v", out["key"])
	}
}
