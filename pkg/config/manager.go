package config

import (
	"fmt"
	"sync"
)

// Section is one named group of settings that knows how to round-trip
// itself through a Store.
type Section interface {
	// ID returns the stable section identifier used in the store.
	ID() string

	// Data returns the current configuration data.
	Data() map[string]any

	// SetData updates the section from stored data.
	SetData(data map[string]any) error

	// Validate validates the current configuration.
	Validate() error
}

// Manager ties registered sections to a store.
type Manager struct {
	store    Store
	sections map[string]Section
	mu       sync.RWMutex
}

// NewManager creates a manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// RegisterSection adds a section; duplicate ids are rejected.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := section.ID()
	if _, exists := m.sections[id]; exists {
		return fmt.Errorf("config: section %q already registered", id)
	}
	m.sections[id] = section
	return nil
}

// GetSection returns a registered section by id.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	section, ok := m.sections[id]
	return section, ok
}

// LoadAll pushes stored data into every registered section.
func (m *Manager) LoadAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, section := range m.sections {
		data, err := m.store.GetSection(id)
		if err != nil {
			return err
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("config: load section %q: %w", id, err)
		}
	}
	return nil
}

// SaveAll validates every section, pushes its data into the store, and
// persists the store.
func (m *Manager) SaveAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, section := range m.sections {
		if err := section.Validate(); err != nil {
			return fmt.Errorf("config: section %q invalid: %w", id, err)
		}
		if err := m.store.SetSection(id, section.Data()); err != nil {
			return err
		}
	}
	return m.store.Save()
}
