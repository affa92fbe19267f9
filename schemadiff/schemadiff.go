// Package schemadiff provides a programmatic API for comparing database schemas.
// Sources are schema files or live databases; the result is a plan describing
// the entities that were added, removed, modified or renamed.
package schemadiff

import (
	"context"

	diffCmd "github.com/schemadiff/schemadiff/cmd/diff"
	"github.com/schemadiff/schemadiff/internal/diff"
	"github.com/schemadiff/schemadiff/internal/model"
	"github.com/schemadiff/schemadiff/internal/plan"
)

// DiffOptions configures a comparison of two sources.
type DiffOptions struct {
	From         string   // Source schema: file path or database URL (current state)
	To           string   // Target schema: file path or database URL (desired state)
	WithRenaming bool     // Detect renamed entities
	KeepRemoved  bool     // Do not report entities missing from the target as removed
	Exclude      []string // Entity names left out of the comparison
	IgnoreFile   string   // Ignore file path (default: ./.schemadiffignore when present)
	Platform     string   // Platform for schema files (default: generic)
	Schema       string   // PostgreSQL schema to inspect (default: "public")
}

// Diff loads both sources and compares them.
func Diff(ctx context.Context, opts DiffOptions) (*Plan, error) {
	return diffCmd.GenerateDiff(ctx, &diffCmd.DiffConfig{
		From:         opts.From,
		To:           opts.To,
		WithRenaming: opts.WithRenaming,
		RemoveEntity: !opts.KeepRemoved,
		Exclude:      opts.Exclude,
		IgnoreFile:   opts.IgnoreFile,
		Platform:     opts.Platform,
		Schema:       opts.Schema,
	})
}

// Compare compares two loaded databases. The result is nil when they are equivalent.
func Compare(from, to *Database, opts ...Option) (*DatabaseDiff, error) {
	return diff.ComputeDiff(from, to, opts...)
}

// NewPlan wraps the result of Compare in a plan that can be rendered as text or JSON.
func NewPlan(from, to *Database, d *DatabaseDiff) (*Plan, error) {
	return plan.NewPlan(from, to, d)
}

// LoadFile reads a .sql, .yaml or .yml schema file. A nil platform keeps the
// platform named in a YAML file, and skips type validation otherwise.
func LoadFile(path string, platform *Platform) (*Database, error) {
	return model.LoadFile(path, platform)
}

// LoadYAML parses a YAML schema document.
func LoadYAML(data []byte, platform *Platform) (*Database, error) {
	return model.LoadYAML(data, platform)
}

// PlatformByName returns a built-in platform: generic, pgsql, mysql or sqlite.
func PlatformByName(name string) (*Platform, error) {
	return model.PlatformByName(name)
}
