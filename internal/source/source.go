// Package source turns a source argument into a schema model. A source is a schema
// file (.sql, .yaml, .yml) or a live database given as a postgres://, mysql:// or
// sqlite: connection string.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/schemadiff/schemadiff/internal/logger"
	"github.com/schemadiff/schemadiff/internal/model"
)

// Kind identifies where a schema is read from
type Kind string

const (
	KindFile     Kind = "file"
	KindPostgres Kind = "postgres"
	KindMySQL    Kind = "mysql"
	KindSQLite   Kind = "sqlite"
)

// Options controls how a source is loaded
type Options struct {
	// Platform used for schema files. Live databases use their own platform.
	Platform *model.Platform
	// Schema inspected in PostgreSQL. MySQL uses the database named in the DSN.
	Schema string
	// Ignore marks skip_sql entities after loading
	Ignore *model.IgnoreConfig
}

// Detect returns the kind of a source argument
func Detect(spec string) Kind {
	lower := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return KindPostgres
	case strings.HasPrefix(lower, "mysql:"):
		return KindMySQL
	case strings.HasPrefix(lower, "sqlite:"):
		return KindSQLite
	default:
		return KindFile
	}
}

// Load reads the schema described by spec
func Load(ctx context.Context, spec string, opts Options) (*model.Database, error) {
	if spec == "" {
		return nil, fmt.Errorf("empty source")
	}

	kind := Detect(spec)
	logger.Get().Debug("Loading schema source", "kind", kind, "source", redact(spec))

	var (
		db  *model.Database
		err error
	)
	switch kind {
	case KindPostgres:
		db, err = loadPostgres(ctx, spec, opts.Schema)
	case KindMySQL:
		db, err = loadMySQL(ctx, spec)
	case KindSQLite:
		db, err = loadSQLite(ctx, sqlitePath(spec))
	default:
		db, err = model.LoadFile(spec, opts.Platform)
	}
	if err != nil {
		return nil, err
	}

	opts.Ignore.ApplySkipSQL(db)
	logger.Get().Debug("Loaded schema source", "kind", kind, "entities", len(db.Entities))
	return db, nil
}

func loadPostgres(ctx context.Context, dsn, schema string) (*model.Database, error) {
	if schema == "" {
		schema = "public"
	}
	conn, err := connect(ctx, "pgx", dsn)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	db, err := model.NewInspector(conn).Inspect(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect postgres schema %q: %w", schema, err)
	}
	return db, nil
}

func loadMySQL(ctx context.Context, spec string) (*model.Database, error) {
	cfg, err := mysqlConfig(spec)
	if err != nil {
		return nil, err
	}
	conn, err := connect(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	db, err := model.NewMySQLInspector(conn).Inspect(ctx, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect mysql database: %w", err)
	}
	return db, nil
}

func loadSQLite(ctx context.Context, path string) (*model.Database, error) {
	conn, err := model.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	db, err := model.NewSQLiteInspector(conn).Inspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect sqlite database %s: %w", path, err)
	}
	return db, nil
}

// sqlitePath strips the sqlite: scheme and an optional // prefix
func sqlitePath(spec string) string {
	path := spec[len("sqlite:"):]
	return strings.TrimPrefix(path, "//")
}
