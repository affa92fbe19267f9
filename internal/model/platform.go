package model

import (
	"fmt"
	"sort"
	"strings"
)

// TypeCategory groups types whose default values compare the same way
type TypeCategory int

const (
	CategoryOther TypeCategory = iota
	CategoryNumeric
	CategoryBoolean
	CategoryText
	CategoryTemporal
	CategoryBinary
)

// TypeInfo describes one type registered in a platform
type TypeInfo struct {
	Name     string
	Category TypeCategory
	// SizeSignificant types render their size in DDL, so an absent size differs from a zero size
	SizeSignificant bool
}

// Platform is the type system of a database vendor. It resolves type names and aliases
// to canonical types that can be compared.
type Platform struct {
	Name    string
	types   map[string]TypeInfo
	aliases map[string]string
}

// Platform names
const (
	PlatformGeneric = "generic"
	PlatformPgSQL   = "pgsql"
	PlatformMySQL   = "mysql"
	PlatformSQLite  = "sqlite"
)

var genericTypes = []TypeInfo{
	{Name: "BOOLEAN", Category: CategoryBoolean},
	{Name: "TINYINT", Category: CategoryNumeric},
	{Name: "SMALLINT", Category: CategoryNumeric},
	{Name: "INTEGER", Category: CategoryNumeric},
	{Name: "BIGINT", Category: CategoryNumeric},
	{Name: "REAL", Category: CategoryNumeric, SizeSignificant: true},
	{Name: "FLOAT", Category: CategoryNumeric, SizeSignificant: true},
	{Name: "DOUBLE", Category: CategoryNumeric, SizeSignificant: true},
	{Name: "DECIMAL", Category: CategoryNumeric, SizeSignificant: true},
	{Name: "NUMERIC", Category: CategoryNumeric, SizeSignificant: true},
	{Name: "CHAR", Category: CategoryText, SizeSignificant: true},
	{Name: "VARCHAR", Category: CategoryText, SizeSignificant: true},
	{Name: "LONGVARCHAR", Category: CategoryText},
	{Name: "CLOB", Category: CategoryText},
	{Name: "ENUM", Category: CategoryText},
	{Name: "DATE", Category: CategoryTemporal},
	{Name: "TIME", Category: CategoryTemporal},
	{Name: "TIMESTAMP", Category: CategoryTemporal},
	{Name: "BINARY", Category: CategoryBinary, SizeSignificant: true},
	{Name: "VARBINARY", Category: CategoryBinary, SizeSignificant: true},
	{Name: "LONGVARBINARY", Category: CategoryBinary},
	{Name: "BLOB", Category: CategoryBinary},
	{Name: "OBJECT", Category: CategoryOther},
	{Name: "ARRAY", Category: CategoryOther},
	{Name: "JSON", Category: CategoryOther},
	{Name: "UUID", Category: CategoryOther},
}

var genericAliases = map[string]string{
	"INT":       "INTEGER",
	"BOOL":      "BOOLEAN",
	"DATETIME":  "TIMESTAMP",
	"CHARACTER": "CHAR",
	"TEXT":      "LONGVARCHAR",
}

// Generic returns the vendor independent platform
func Generic() *Platform {
	return newPlatform(PlatformGeneric, nil, nil)
}

// PgSQL returns the PostgreSQL platform
func PgSQL() *Platform {
	return newPlatform(PlatformPgSQL,
		[]TypeInfo{
			{Name: "TEXT", Category: CategoryText},
			{Name: "BYTEA", Category: CategoryBinary},
			{Name: "JSONB", Category: CategoryOther},
			{Name: "TIMESTAMPTZ", Category: CategoryTemporal},
			{Name: "INTERVAL", Category: CategoryOther},
			{Name: "INET", Category: CategoryOther},
		},
		map[string]string{
			"INT2":                        "SMALLINT",
			"INT4":                        "INTEGER",
			"INT8":                        "BIGINT",
			"SERIAL":                      "INTEGER",
			"SERIAL4":                     "INTEGER",
			"BIGSERIAL":                   "BIGINT",
			"SERIAL8":                     "BIGINT",
			"SMALLSERIAL":                 "SMALLINT",
			"FLOAT4":                      "REAL",
			"FLOAT8":                      "DOUBLE",
			"DOUBLE PRECISION":            "DOUBLE",
			"BPCHAR":                      "CHAR",
			"CHARACTER VARYING":           "VARCHAR",
			"TEXT":                        "TEXT",
			"TIMESTAMP WITHOUT TIME ZONE": "TIMESTAMP",
			"TIMESTAMP WITH TIME ZONE":    "TIMESTAMPTZ",
			"TIME WITHOUT TIME ZONE":      "TIME",
		})
}

// MySQL returns the MySQL platform
func MySQL() *Platform {
	return newPlatform(PlatformMySQL,
		[]TypeInfo{
			{Name: "TEXT", Category: CategoryText},
			{Name: "MEDIUMTEXT", Category: CategoryText},
			{Name: "LONGTEXT", Category: CategoryText},
			{Name: "MEDIUMINT", Category: CategoryNumeric},
			{Name: "DATETIME", Category: CategoryTemporal},
			{Name: "YEAR", Category: CategoryNumeric},
			{Name: "MEDIUMBLOB", Category: CategoryBinary},
			{Name: "LONGBLOB", Category: CategoryBinary},
		},
		map[string]string{
			"DATETIME": "DATETIME",
			"TEXT":     "TEXT",
			"BIT":      "BOOLEAN",
		})
}

// SQLite returns the SQLite platform
func SQLite() *Platform {
	return newPlatform(PlatformSQLite,
		[]TypeInfo{
			{Name: "TEXT", Category: CategoryText},
		},
		map[string]string{
			"TEXT": "TEXT",
		})
}

// PlatformByName returns a built-in platform
func PlatformByName(name string) (*Platform, error) {
	switch strings.ToLower(name) {
	case "", PlatformGeneric:
		return Generic(), nil
	case PlatformPgSQL, "postgres", "postgresql":
		return PgSQL(), nil
	case PlatformMySQL:
		return MySQL(), nil
	case PlatformSQLite, "sqlite3":
		return SQLite(), nil
	default:
		return nil, fmt.Errorf("unsupported platform %q (supported: generic, pgsql, mysql, sqlite)", name)
	}
}

func newPlatform(name string, extra []TypeInfo, aliases map[string]string) *Platform {
	p := &Platform{
		Name:    name,
		types:   make(map[string]TypeInfo, len(genericTypes)+len(extra)),
		aliases: make(map[string]string, len(genericAliases)+len(aliases)),
	}
	for _, t := range genericTypes {
		p.types[t.Name] = t
	}
	for _, t := range extra {
		p.types[t.Name] = t
	}
	for k, v := range genericAliases {
		p.aliases[k] = v
	}
	for k, v := range aliases {
		p.aliases[k] = v
	}
	return p
}

// Normalize returns the canonical name of a type, resolving case and aliases.
// Unknown names are returned upper-cased.
func (p *Platform) Normalize(typeName string) string {
	name := strings.ToUpper(strings.Join(strings.Fields(typeName), " "))
	if canonical, ok := p.aliases[name]; ok {
		return canonical
	}
	return name
}

// Lookup returns the type info for a type name or alias
func (p *Platform) Lookup(typeName string) (TypeInfo, bool) {
	info, ok := p.types[p.Normalize(typeName)]
	return info, ok
}

// IsKnownType reports whether the type name resolves to a registered type
func (p *Platform) IsKnownType(typeName string) bool {
	_, ok := p.Lookup(typeName)
	return ok
}

// IsSizeSignificant reports whether an absent size differs from a zero size for the type
func (p *Platform) IsSizeSignificant(typeName string) bool {
	info, ok := p.Lookup(typeName)
	return ok && info.SizeSignificant
}

// Domain returns an empty domain for a registered type
func (p *Platform) Domain(typeName string) (Domain, error) {
	info, ok := p.Lookup(typeName)
	if !ok {
		return Domain{}, fmt.Errorf("%w %q for platform %s", ErrUnknownType, typeName, p.Name)
	}
	return Domain{Type: info.Name}, nil
}

// Types returns the registered type names in sorted order
func (p *Platform) Types() []string {
	names := make([]string, 0, len(p.types))
	for name := range p.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
