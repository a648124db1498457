package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SectionIDScanner is the identifier for the scanner policy section.
const SectionIDScanner = "scanner"

// ScannerSection holds the content scanner's size policy and the data root
// it operates on.
type ScannerSection struct {
	maxBase64Len int
	maxTextLen   int
	backup       bool
	dataRoot     string
	mu           sync.RWMutex
}

// NewScannerSection creates the section with the policy defaults.
func NewScannerSection() *ScannerSection {
	return &ScannerSection{
		maxBase64Len: 100_000,
		maxTextLen:   500_000,
		backup:       true,
	}
}

// ID returns the section identifier.
func (s *ScannerSection) ID() string {
	return SectionIDScanner
}

// Data returns the current configuration data.
func (s *ScannerSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"max_base64_len": s.maxBase64Len,
		"max_text_len":   s.maxTextLen,
		"backup":         s.backup,
		"data_root":      s.dataRoot,
	}
}

// SetData updates the section from stored data. JSON numbers arrive as
// float64 and are accepted alongside ints.
func (s *ScannerSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "max_base64_len", "max_text_len":
			n, ok := asInt(value)
			if !ok {
				return fmt.Errorf("invalid value for %q: expected number, got %T", key, value)
			}
			if key == "max_base64_len" {
				s.maxBase64Len = n
			} else {
				s.maxTextLen = n
			}
		case "backup":
			b, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value for %q: expected bool, got %T", key, value)
			}
			s.backup = b
		case "data_root":
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value for %q: expected string, got %T", key, value)
			}
			s.dataRoot = str
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *ScannerSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.maxBase64Len <= 0 || s.maxTextLen <= 0 {
		return fmt.Errorf("size thresholds must be positive")
	}
	return nil
}

// Thresholds returns the configured size limits.
func (s *ScannerSection) Thresholds() (maxBase64Len, maxTextLen int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxBase64Len, s.maxTextLen
}

// BackupEnabled reports whether fixes write backups first.
func (s *ScannerSection) BackupEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backup
}

// DataRoot returns the configured data root, falling back to the default
// well-known location when unset.
func (s *ScannerSection) DataRoot() (string, error) {
	s.mu.RLock()
	root := s.dataRoot
	s.mu.RUnlock()
	if root != "" {
		return root, nil
	}
	return DefaultDataRoot()
}

// DefaultDataRoot is the assistant's well-known data directory.
func DefaultDataRoot() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".forge"), nil
}

func asInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
