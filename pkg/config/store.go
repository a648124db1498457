// Package config persists custodian's settings: the scanner's size policy
// and the user's trace exclusions. It is the owning layer for exclusions;
// the core packages only ever consume in-memory lists.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists named configuration sections.
type Store interface {
	Load() error
	Save() error
	GetSection(sectionID string) (map[string]any, error)
	SetSection(sectionID string, data map[string]any) error
}

// FileStore implements Store using a versioned JSON file.
type FileStore struct {
	path    string
	data    map[string]map[string]any
	version string
	mu      sync.RWMutex
}

// NewFileStore creates a file-based store. An empty path defaults to
// ~/.custodian/config.json. A missing file is not an error.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".custodian", "config.json")
	}
	store := &FileStore{
		path:    path,
		data:    make(map[string]map[string]any),
		version: "1.0",
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

// Load reads the configuration from disk. A missing file leaves the store
// empty.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]map[string]any)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", s.path, err)
	}

	var file struct {
		Version  string                    `json:"version"`
		Sections map[string]map[string]any `json:"sections"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("config: decode %s: %w", s.path, err)
	}
	if file.Version != "" {
		s.version = file.Version
	}
	s.data = file.Sections
	if s.data == nil {
		s.data = make(map[string]map[string]any)
	}
	return nil
}

// Save writes the configuration atomically via a temp file.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("config: create config directory: %w", err)
	}
	file := struct {
		Version  string                    `json:"version"`
		Sections map[string]map[string]any `json:"sections"`
	}{Version: s.version, Sections: s.data}

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("config: write temp config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("config: atomic rename: %w", err)
	}
	return nil
}

// GetSection returns a copy of one section's data; missing sections return
// an empty map.
func (s *FileStore) GetSection(sectionID string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[sectionID]
	if !ok {
		return make(map[string]any), nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out, nil
}

// SetSection stores a copy of one section's data.
func (s *FileStore) SetSection(sectionID string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	s.data[sectionID] = out
	return nil
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}
