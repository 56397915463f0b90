package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// LoadCatalog reads and validates a single domain catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses YAML catalog data and validates it.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("catalog YAML: %v", err)}
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// LoadCatalogDir loads every *.yaml catalog in a directory, keyed by domain
// name. Used by cmd/api at startup to make all shipped domains available.
func LoadCatalogDir(dir string) (map[string]*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir %s: %w", dir, err)
	}

	catalogs := make(map[string]*Catalog)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		cat, err := LoadCatalog(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", entry.Name(), err)
		}
		if _, dup := catalogs[cat.Domain]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("domain %q defined by more than one catalog file", cat.Domain)}
		}
		catalogs[cat.Domain] = cat
	}
	if len(catalogs) == 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("no catalogs found in %s", dir)}
	}
	return catalogs, nil
}
