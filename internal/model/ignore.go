package model

import (
	"path/filepath"
	"strings"
)

// IgnoreConfig holds glob patterns selecting entities to leave out of a comparison
type IgnoreConfig struct {
	// Entities matching these patterns are excluded from both sides of a comparison
	Entities []string `toml:"entities,omitempty"`
	// Entities matching these patterns are marked SkipSQL when a schema is loaded
	SkipSQL []string `toml:"skip_sql,omitempty"`
}

// ShouldIgnoreEntity checks if an entity should be excluded based on the patterns
func (c *IgnoreConfig) ShouldIgnoreEntity(name string) bool {
	if c == nil {
		return false
	}
	return shouldIgnore(name, c.Entities)
}

// ShouldSkipSQL checks if an entity should be treated as model-only
func (c *IgnoreConfig) ShouldSkipSQL(name string) bool {
	if c == nil {
		return false
	}
	return shouldIgnore(name, c.SkipSQL)
}

// ExcludedNames expands the entity patterns into the exact names found in the given databases.
// The result keeps first-seen order and has no duplicates.
func (c *IgnoreConfig) ExcludedNames(dbs ...*Database) []string {
	if c == nil || len(c.Entities) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, db := range dbs {
		if db == nil {
			continue
		}
		for _, e := range db.Entities {
			if seen[e.Name] || !c.ShouldIgnoreEntity(e.Name) {
				continue
			}
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	return names
}

// ApplySkipSQL marks every entity matching a skip_sql pattern
func (c *IgnoreConfig) ApplySkipSQL(db *Database) {
	if c == nil || db == nil {
		return
	}
	for _, e := range db.Entities {
		if c.ShouldSkipSQL(e.Name) {
			e.SkipSQL = true
		}
	}
}

// shouldIgnore checks if a name matches the patterns.
// Patterns support wildcards (*) and negation (!); a matching negation always wins.
func shouldIgnore(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	matched := false
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "!") {
			continue
		}
		if matchPattern(pattern, name) {
			matched = true
			break
		}
	}

	for _, pattern := range patterns {
		negPattern, ok := strings.CutPrefix(pattern, "!")
		if !ok {
			continue
		}
		if matchPattern(negPattern, name) {
			return false
		}
	}

	return matched
}

// matchPattern matches a glob-style pattern against a name
func matchPattern(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		// invalid pattern is a literal
		return pattern == name
	}
	return matched
}
