package config

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/entrhq/custodian/pkg/traces"
)

// SectionIDExclusions is the identifier for the exclusions section.
const SectionIDExclusions = "exclusions"

// ExclusionsSection persists the user's protection rules. The traces
// package consumes them as a plain slice per call.
type ExclusionsSection struct {
	items []traces.Exclusion
	mu    sync.RWMutex
}

// NewExclusionsSection creates an empty exclusions section.
func NewExclusionsSection() *ExclusionsSection {
	return &ExclusionsSection{}
}

// ID returns the section identifier.
func (s *ExclusionsSection) ID() string {
	return SectionIDExclusions
}

// Data returns the current configuration data.
func (s *ExclusionsSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]any, 0, len(s.items))
	for _, ex := range s.items {
		items = append(items, map[string]any{
			"id":          ex.ID,
			"type":        string(ex.Type),
			"value":       ex.Value,
			"description": ex.Description,
		})
	}
	return map[string]any{"items": items}
}

// SetData updates the section from stored data.
func (s *ExclusionsSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}
	raw, ok := data["items"]
	if !ok {
		return nil
	}
	// Round-trip through JSON rather than probing nested map types by hand.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("invalid exclusion list: %w", err)
	}
	var items []traces.Exclusion
	if err := json.Unmarshal(encoded, &items); err != nil {
		return fmt.Errorf("invalid exclusion list: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	return nil
}

// Validate validates the current configuration.
func (s *ExclusionsSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ex := range s.items {
		switch ex.Type {
		case traces.ExcludeCategory, traces.ExcludeProject, traces.ExcludePath:
		default:
			return fmt.Errorf("exclusion %s has unknown type %q", ex.ID, ex.Type)
		}
		if ex.Value == "" {
			return fmt.Errorf("exclusion %s has an empty value", ex.ID)
		}
	}
	return nil
}

// List returns a copy of the persisted exclusions.
func (s *ExclusionsSection) List() []traces.Exclusion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]traces.Exclusion, len(s.items))
	copy(out, s.items)
	return out
}

// Add appends an exclusion.
func (s *ExclusionsSection) Add(ex traces.Exclusion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, ex)
}

// Remove deletes an exclusion by id, reporting whether it existed.
func (s *ExclusionsSection) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ex := range s.items {
		if ex.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}
