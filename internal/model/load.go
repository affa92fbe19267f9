package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schemadiff/schemadiff/internal/include"
)

// LoadFile reads a schema file, choosing the loader by extension:
// .sql files are parsed as PostgreSQL DDL, .yaml and .yml files as YAML schemas.
// SQL files may pull in other files with \i or \ir, and a directory loads
// every .sql file it contains.
func LoadFile(path string, platform *Platform) (*Database, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return loadSQL(path, filepath.Base(filepath.Clean(path)), platform)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".sql":
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return loadSQL(path, name, platform)
	case ".yaml", ".yml":
		db, err := LoadYAMLFile(path, platform)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported schema file %s (expected .sql, .yaml or .yml)", path)
	}
}

func loadSQL(path, name string, platform *Platform) (*Database, error) {
	sql, err := include.NewProcessor("").ProcessFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	db, err := ParseSQL(name, sql, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return db, nil
}
