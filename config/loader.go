package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SourceCatalog represents the full source catalog configuration
type SourceCatalog struct {
	Sources []Source `json:"sources"`
}

var (
	sourceCatalog *SourceCatalog
	catalogLock   sync.RWMutex
	catalogPath   = "config/sources.json"
)

// LoadSourceCatalog loads the source catalog from file. Falls back to the
// built-in DefaultSources when no catalog file exists.
func LoadSourceCatalog() error {
	catalogLock.Lock()
	defer catalogLock.Unlock()

	absPath, err := filepath.Abs(catalogPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		sourceCatalog = &SourceCatalog{Sources: DefaultSources}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %v", err)
	}

	var catalog SourceCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("failed to parse catalog: %v", err)
	}

	sourceCatalog = &catalog
	return nil
}

// SaveSourceCatalog saves the current catalog to file
func SaveSourceCatalog() error {
	catalogLock.Lock()
	defer catalogLock.Unlock()

	if sourceCatalog == nil {
		return fmt.Errorf("no catalog loaded")
	}

	absPath, err := filepath.Abs(catalogPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := json.MarshalIndent(sourceCatalog, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %v", err)
	}

	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %v", err)
	}

	return nil
}

// GetSources returns all configured sources
func GetSources() []Source {
	catalogLock.RLock()
	defer catalogLock.RUnlock()

	if sourceCatalog == nil {
		return DefaultSources
	}

	sources := make([]Source, len(sourceCatalog.Sources))
	copy(sources, sourceCatalog.Sources)
	return sources
}

// GetSource returns a specific source by name, or nil when absent
func GetSource(name string) *Source {
	catalogLock.RLock()
	defer catalogLock.RUnlock()

	if sourceCatalog == nil {
		return GetSourceByName(name)
	}

	for _, src := range sourceCatalog.Sources {
		if src.Name == name {
			return &src
		}
	}
	return nil
}

// UpdateSource updates or adds a source configuration
func UpdateSource(source Source) error {
	catalogLock.Lock()
	defer catalogLock.Unlock()

	if sourceCatalog == nil {
		sourceCatalog = &SourceCatalog{Sources: DefaultSources}
	}

	for i, existing := range sourceCatalog.Sources {
		if existing.Name == source.Name {
			sourceCatalog.Sources[i] = source
			return nil
		}
	}

	sourceCatalog.Sources = append(sourceCatalog.Sources, source)
	return nil
}
