package model

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"golang.org/x/sync/errgroup"
)

// MySQLInspector builds a Database model from the information_schema of a MySQL database
type MySQLInspector struct {
	db       *sql.DB
	platform *Platform
}

// NewMySQLInspector creates a new MySQL inspector
func NewMySQLInspector(db *sql.DB) *MySQLInspector {
	return &MySQLInspector{db: db, platform: MySQL()}
}

type mysqlColumnRow struct {
	table     string
	name      string
	dataType  string
	maxLength sql.NullInt64
	precision sql.NullInt64
	scale     sql.NullInt64
	nullable  string
	def       sql.NullString
	extra     string
	key       string
}

type mysqlKeyRow struct {
	table     string
	name      string
	column    string
	nonUnique bool
	refTable  string
	refColumn string
	onDelete  string
	onUpdate  string
}

// Inspect reads every base table of the given database, or of the current one when empty
func (m *MySQLInspector) Inspect(ctx context.Context, schemaName string) (*Database, error) {
	if schemaName == "" {
		if err := m.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&schemaName); err != nil {
			return nil, fmt.Errorf("failed to get current database: %w", err)
		}
	}

	var (
		tables  []string
		columns []mysqlColumnRow
		indexes []mysqlKeyRow
		fks     []mysqlKeyRow
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		tables, err = m.queryTables(egCtx, schemaName)
		if err != nil {
			return fmt.Errorf("failed to query tables: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		columns, err = m.queryColumns(egCtx, schemaName)
		if err != nil {
			return fmt.Errorf("failed to query columns: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		indexes, err = m.queryIndexes(egCtx, schemaName)
		if err != nil {
			return fmt.Errorf("failed to query indexes: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		fks, err = m.queryForeignKeys(egCtx, schemaName)
		if err != nil {
			return fmt.Errorf("failed to query foreign keys: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	db := NewDatabase(schemaName, m.platform)
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
		if err := entity.AddField(m.buildField(row)); err != nil {
			return nil, err
		}
	}

	// rows arrive ordered by table, name and column position
	indexByKey := make(map[string]*Index)
	for _, row := range indexes {
		entity := db.Entity(row.table)
		if entity == nil {
			continue
		}
		key := row.table + "." + row.name
		idx, ok := indexByKey[key]
		if !ok {
			idx = &Index{Name: row.name, Unique: !row.nonUnique}
			indexByKey[key] = idx
			entity.AddIndex(idx)
		}
		idx.Columns = append(idx.Columns, row.column)
	}

	fkByKey := make(map[string]*ForeignKey)
	for _, row := range fks {
		entity := db.Entity(row.table)
		if entity == nil {
			continue
		}
		key := row.table + "." + row.name
		fk, ok := fkByKey[key]
		if !ok {
			fk = &ForeignKey{
				Name:             row.name,
				ReferencedEntity: row.refTable,
				OnDelete:         row.onDelete,
				OnUpdate:         row.onUpdate,
			}
			fkByKey[key] = fk
			entity.AddForeignKey(fk)
		}
		fk.Columns = append(fk.Columns, row.column)
		fk.ReferencedColumns = append(fk.ReferencedColumns, row.refColumn)
	}

	return db, nil
}

func (m *MySQLInspector) queryTables(ctx context.Context, schemaName string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := m.db.QueryContext(ctx, query, schemaName)
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

func (m *MySQLInspector) queryColumns(ctx context.Context, schemaName string) ([]mysqlColumnRow, error) {
	query := `
		SELECT table_name, column_name, data_type, character_maximum_length,
			numeric_precision, numeric_scale, is_nullable, column_default, extra, column_key
		FROM information_schema.columns
		WHERE table_schema = ?
		ORDER BY table_name, ordinal_position`

	rows, err := m.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []mysqlColumnRow
	for rows.Next() {
		var r mysqlColumnRow
		if err := rows.Scan(&r.table, &r.name, &r.dataType, &r.maxLength, &r.precision, &r.scale,
			&r.nullable, &r.def, &r.extra, &r.key); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (m *MySQLInspector) queryIndexes(ctx context.Context, schemaName string) ([]mysqlKeyRow, error) {
	query := `
		SELECT table_name, index_name, column_name, non_unique
		FROM information_schema.statistics
		WHERE table_schema = ? AND index_name <> 'PRIMARY'
		ORDER BY table_name, index_name, seq_in_index`

	rows, err := m.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []mysqlKeyRow
	for rows.Next() {
		var r mysqlKeyRow
		var column sql.NullString
		if err := rows.Scan(&r.table, &r.name, &column, &r.nonUnique); err != nil {
			return nil, err
		}
		// functional key parts have no column name
		if !column.Valid {
			continue
		}
		r.column = column.String
		result = append(result, r)
	}
	return result, rows.Err()
}

func (m *MySQLInspector) queryForeignKeys(ctx context.Context, schemaName string) ([]mysqlKeyRow, error) {
	query := `
		SELECT kcu.table_name, kcu.constraint_name, kcu.column_name,
			kcu.referenced_table_name, kcu.referenced_column_name,
			rc.delete_rule, rc.update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = kcu.constraint_schema
			AND rc.constraint_name = kcu.constraint_name
			AND rc.table_name = kcu.table_name
		WHERE kcu.table_schema = ? AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.table_name, kcu.constraint_name, kcu.ordinal_position`

	rows, err := m.db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []mysqlKeyRow
	for rows.Next() {
		var r mysqlKeyRow
		if err := rows.Scan(&r.table, &r.name, &r.column, &r.refTable, &r.refColumn,
			&r.onDelete, &r.onUpdate); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// buildField converts an information_schema row to a field
func (m *MySQLInspector) buildField(r mysqlColumnRow) *Field {
	extra := strings.ToLower(r.extra)
	field := &Field{
		Name:          r.name,
		NotNull:       r.nullable == "NO",
		PrimaryKey:    r.key == "PRI",
		AutoIncrement: strings.Contains(extra, "auto_increment"),
	}
	field.Type = m.platform.Normalize(r.dataType)

	switch strings.ToLower(r.dataType) {
	case "char", "varchar", "binary", "varbinary":
		if r.maxLength.Valid {
			field.SetSize(int(r.maxLength.Int64))
		}
	case "decimal", "numeric", "float", "double":
		if r.precision.Valid {
			field.SetSize(int(r.precision.Int64))
		}
		if r.scale.Valid {
			field.SetScale(int(r.scale.Int64))
		}
	}

	if r.def.Valid {
		switch {
		case strings.Contains(extra, "default_generated"):
			field.Default = NewExpressionDefault(r.def.String)
		case strings.EqualFold(r.def.String, "CURRENT_TIMESTAMP"):
			field.Default = NewExpressionDefault(r.def.String)
		default:
			field.Default = NewValueDefault(unquoteMySQLDefault(r.def.String))
		}
	}
	return field
}

// unquoteMySQLDefault strips the quotes MariaDB adds around literal defaults
func unquoteMySQLDefault(raw string) string {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		if s, err := strconv.Unquote(`"` + strings.ReplaceAll(raw[1:len(raw)-1], `"`, `\"`) + `"`); err == nil {
			return s
		}
		return raw[1 : len(raw)-1]
	}
	return raw
}
