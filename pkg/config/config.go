package config

import (
	"sync"
)

var (
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates and loads the global configuration manager. It should
// be called once at application startup.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}
	manager := NewManager(store)
	if err := manager.RegisterSection(NewScannerSection()); err != nil {
		return err
	}
	if err := manager.RegisterSection(NewExclusionsSection()); err != nil {
		return err
	}
	if err := manager.LoadAll(); err != nil {
		return err
	}
	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalManager
}

// GetScanner returns the scanner policy section, or nil before Initialize.
func GetScanner() *ScannerSection {
	globalMu.Lock()
	manager := globalManager
	globalMu.Unlock()
	if manager == nil {
		return nil
	}
	section, ok := manager.GetSection(SectionIDScanner)
	if !ok {
		return nil
	}
	scanner, _ := section.(*ScannerSection)
	return scanner
}

// GetExclusions returns the exclusions section, or nil before Initialize.
func GetExclusions() *ExclusionsSection {
	globalMu.Lock()
	manager := globalManager
	globalMu.Unlock()
	if manager == nil {
		return nil
	}
	section, ok := manager.GetSection(SectionIDExclusions)
	if !ok {
		return nil
	}
	exclusions, _ := section.(*ExclusionsSection)
	return exclusions
}
