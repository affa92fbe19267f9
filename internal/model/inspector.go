package model

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	pg_query "github.com/pganalyze/pg_query_go/v6"
	"golang.org/x/sync/errgroup"
)

// Inspector builds a Database model from a live PostgreSQL catalog
type Inspector struct {
	db       *sql.DB
	platform *Platform
}

// NewInspector creates a new PostgreSQL inspector
func NewInspector(db *sql.DB) *Inspector {
	return &Inspector{db: db, platform: PgSQL()}
}

type columnRow struct {
	table      string
	name       string
	udtName    string
	maxLength  sql.NullInt64
	precision  sql.NullInt64
	scale      sql.NullInt64
	dataType   string
	isNullable string
	colDefault sql.NullString
	isIdentity string
}

type constraintRow struct {
	table      string
	name       string
	kind       string
	columns    []string
	refSchema  string
	refTable   string
	refColumns []string
	onDelete   string
	onUpdate   string
}

type indexRow struct {
	table   string
	name    string
	unique  bool
	columns []string
}

// Inspect reads all tables of a schema. Catalog queries run concurrently and the model
// is assembled once every query has returned.
func (i *Inspector) Inspect(ctx context.Context, schemaName string) (*Database, error) {
	if err := i.validateSchemaExists(ctx, schemaName); err != nil {
		return nil, err
	}

	var (
		tables      []string
		columns     []columnRow
		constraints []constraintRow
		indexes     []indexRow
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		tables, err = i.queryTables(egCtx, schemaName)
		if err != nil {
			return fmt.Errorf("failed to query tables: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		columns, err = i.queryColumns(egCtx, schemaName)
		if err != nil {
			return fmt.Errorf("failed to query columns: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		constraints, err = i.queryConstraints(egCtx, schemaName)
		if err != nil {
			return fmt.Errorf("failed to query constraints: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		indexes, err = i.queryIndexes(egCtx, schemaName)
		if err != nil {
			return fmt.Errorf("failed to query indexes: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	db := NewDatabase(schemaName, i.platform)
	for _, name := range tables {
		if err := db.AddEntity(NewEntity(name)); err != nil {
			return nil, err
		}
	}

	for _, row := range columns {
		entity := db.Entity(row.table)
		if entity == nil {
			continue
		}
		if err := entity.AddField(i.buildField(row)); err != nil {
			return nil, err
		}
	}

	for _, row := range constraints {
		entity := db.Entity(row.table)
		if entity == nil {
			continue
		}
		switch row.kind {
		case "p":
			for _, col := range row.columns {
				if field := entity.Field(col); field != nil {
					field.PrimaryKey = true
				}
			}
		case "f":
			refEntity := row.refTable
			if row.refSchema != schemaName {
				refEntity = row.refSchema + "." + row.refTable
			}
			entity.AddForeignKey(&ForeignKey{
				Name:              row.name,
				Columns:           row.columns,
				ReferencedEntity:  refEntity,
				ReferencedColumns: row.refColumns,
				OnDelete:          referentialAction(row.onDelete),
				OnUpdate:          referentialAction(row.onUpdate),
			})
		}
	}

	for _, row := range indexes {
		entity := db.Entity(row.table)
		if entity == nil {
			continue
		}
		entity.AddIndex(&Index{Name: row.name, Columns: row.columns, Unique: row.unique})
	}

	return db, nil
}

func (i *Inspector) validateSchemaExists(ctx context.Context, schemaName string) error {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM pg_catalog.pg_namespace WHERE nspname = $1)"
	if err := i.db.QueryRowContext(ctx, query, schemaName).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check schema existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("schema %q does not exist", schemaName)
	}
	return nil
}

func (i *Inspector) queryTables(ctx context.Context, schemaName string) ([]string, error) {
	query := `
		SELECT c.relname
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relkind IN ('r', 'p') AND NOT c.relispartition
		ORDER BY c.relname`

	rows, err := i.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (i *Inspector) queryColumns(ctx context.Context, schemaName string) ([]columnRow, error) {
	query := `
		SELECT table_name, column_name, udt_name, character_maximum_length,
			numeric_precision, numeric_scale, data_type, is_nullable, column_default, is_identity
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position`

	rows, err := i.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []columnRow
	for rows.Next() {
		var r columnRow
		if err := rows.Scan(&r.table, &r.name, &r.udtName, &r.maxLength, &r.precision, &r.scale,
			&r.dataType, &r.isNullable, &r.colDefault, &r.isIdentity); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (i *Inspector) queryConstraints(ctx context.Context, schemaName string) ([]constraintRow, error) {
	query := `
		SELECT cl.relname, con.conname, con.contype::text,
			ARRAY(SELECT a.attname FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_catalog.pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
				ORDER BY k.ord)::text[],
			COALESCE(fn.nspname, ''), COALESCE(fcl.relname, ''),
			ARRAY(SELECT a.attname FROM unnest(con.confkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_catalog.pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = k.attnum
				ORDER BY k.ord)::text[],
			con.confdeltype::text, con.confupdtype::text
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class cl ON cl.oid = con.conrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = cl.relnamespace
		LEFT JOIN pg_catalog.pg_class fcl ON fcl.oid = con.confrelid
		LEFT JOIN pg_catalog.pg_namespace fn ON fn.oid = fcl.relnamespace
		WHERE n.nspname = $1 AND con.contype IN ('p', 'f')
		ORDER BY cl.relname, con.conname`

	rows, err := i.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []constraintRow
	for rows.Next() {
		var r constraintRow
		if err := rows.Scan(&r.table, &r.name, &r.kind, pq.Array(&r.columns), &r.refSchema, &r.refTable,
			pq.Array(&r.refColumns), &r.onDelete, &r.onUpdate); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (i *Inspector) queryIndexes(ctx context.Context, schemaName string) ([]indexRow, error) {
	query := `
		SELECT t.relname, ic.relname, ix.indisunique,
			ARRAY(SELECT pg_catalog.pg_get_indexdef(ix.indexrelid, k, true)
				FROM generate_series(1, ix.indnkeyatts) AS k ORDER BY k)::text[]
		FROM pg_catalog.pg_index ix
		JOIN pg_catalog.pg_class t ON t.oid = ix.indrelid
		JOIN pg_catalog.pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1 AND NOT ix.indisprimary
		ORDER BY t.relname, ic.relname`

	rows, err := i.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []indexRow
	for rows.Next() {
		var r indexRow
		if err := rows.Scan(&r.table, &r.name, &r.unique, pq.Array(&r.columns)); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// buildField converts an information_schema row to a field
func (i *Inspector) buildField(r columnRow) *Field {
	field := &Field{
		Name:          r.name,
		NotNull:       r.isNullable == "NO",
		AutoIncrement: r.isIdentity == "YES",
	}

	if r.dataType == "ARRAY" {
		field.Type = "ARRAY"
	} else {
		field.Type = i.platform.Normalize(r.udtName)
	}

	switch r.dataType {
	case "character varying", "character", "bit", "bit varying":
		if r.maxLength.Valid {
			field.SetSize(int(r.maxLength.Int64))
		}
	case "numeric":
		if r.precision.Valid {
			field.SetSize(int(r.precision.Int64))
		}
		if r.scale.Valid {
			field.SetScale(int(r.scale.Int64))
		}
	}

	if r.colDefault.Valid {
		applyCatalogDefault(field, r.colDefault.String)
	}
	return field
}

// applyCatalogDefault classifies a default expression stored in the catalog by parsing it
// with the same rules as DDL defaults
func applyCatalogDefault(field *Field, raw string) {
	result, err := pg_query.Parse("SELECT " + raw)
	if err != nil || len(result.Stmts) != 1 {
		field.Default = NewExpressionDefault(raw)
		return
	}
	sel := result.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil || len(sel.TargetList) != 1 {
		field.Default = NewExpressionDefault(raw)
		return
	}
	target := sel.TargetList[0].GetResTarget()
	if target == nil {
		field.Default = NewExpressionDefault(raw)
		return
	}
	(&Parser{platform: PgSQL()}).applyDefault(field, target.Val)
	if field.Default != nil && field.Default.IsExpression() && field.Default.Value == "" {
		field.Default.Value = strings.TrimSpace(raw)
	}
}
