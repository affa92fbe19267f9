package model

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// tableInfoRow holds a row from PRAGMA table_info()
type tableInfoRow struct {
	CID     int     `db:"cid"`
	Name    string  `db:"name"`
	Type    string  `db:"type"`
	NotNull int     `db:"notnull"`
	Default *string `db:"dflt_value"`
	PK      int     `db:"pk"`
}

// foreignKeyRow holds a row from PRAGMA foreign_key_list()
type foreignKeyRow struct {
	ID       int     `db:"id"`
	Seq      int     `db:"seq"`
	Table    string  `db:"table"`
	From     string  `db:"from"`
	To       *string `db:"to"`
	OnUpdate string  `db:"on_update"`
	OnDelete string  `db:"on_delete"`
	Match    string  `db:"match"`
}

// indexListRow holds a row from PRAGMA index_list()
type indexListRow struct {
	Seq     int    `db:"seq"`
	Name    string `db:"name"`
	Unique  int    `db:"unique"`
	Origin  string `db:"origin"`
	Partial int    `db:"partial"`
}

// indexInfoRow holds a row from PRAGMA index_info()
type indexInfoRow struct {
	SeqNo int     `db:"seqno"`
	CID   int     `db:"cid"`
	Name  *string `db:"name"`
}

var sqliteTypeModifiers = regexp.MustCompile(`^\s*([^(]+?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?\s*$`)

// SQLiteInspector builds a Database model from a SQLite database
type SQLiteInspector struct {
	db       *sqlx.DB
	platform *Platform
}

// OpenSQLite opens a SQLite database file, or ":memory:"
func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite connect: %w", err)
	}
	return db, nil
}

// NewSQLiteInspector creates a new SQLite inspector
func NewSQLiteInspector(db *sqlx.DB) *SQLiteInspector {
	return &SQLiteInspector{db: db, platform: SQLite()}
}

// Inspect reads every table of the database
func (s *SQLiteInspector) Inspect(ctx context.Context) (*Database, error) {
	const query = `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	var names []string
	if err := s.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("introspect schema: %w", err)
	}

	db := NewDatabase("main", s.platform)
	for _, name := range names {
		entity, err := s.inspectTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("introspect table %q: %w", name, err)
		}
		if err := db.AddEntity(entity); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (s *SQLiteInspector) inspectTable(ctx context.Context, tableName string) (*Entity, error) {
	entity := NewEntity(tableName)
	quoted := quoteSQLiteIdentifier(tableName)

	var columns []tableInfoRow
	if err := s.db.SelectContext(ctx, &columns, fmt.Sprintf("PRAGMA table_info(%s)", quoted)); err != nil {
		return nil, fmt.Errorf("table_info: %w", err)
	}

	autoIncrement := s.usesAutoIncrement(ctx, tableName)
	for _, col := range columns {
		field := &Field{
			Name:       col.Name,
			NotNull:    col.NotNull == 1 || col.PK > 0,
			PrimaryKey: col.PK > 0,
		}
		s.parseType(col.Type, field)
		field.AutoIncrement = autoIncrement && col.PK > 0
		if col.Default != nil {
			field.Default = sqliteDefault(*col.Default)
		}
		if err := entity.AddField(field); err != nil {
			return nil, err
		}
	}

	var fkRows []foreignKeyRow
	if err := s.db.SelectContext(ctx, &fkRows, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoted)); err != nil {
		return nil, fmt.Errorf("foreign_key_list: %w", err)
	}
	byID := make(map[int]*ForeignKey)
	var ids []int
	for _, row := range fkRows {
		fk, ok := byID[row.ID]
		if !ok {
			fk = &ForeignKey{
				ReferencedEntity: row.Table,
				OnDelete:         strings.ToUpper(row.OnDelete),
				OnUpdate:         strings.ToUpper(row.OnUpdate),
			}
			byID[row.ID] = fk
			ids = append(ids, row.ID)
		}
		fk.Columns = append(fk.Columns, row.From)
		if row.To != nil {
			fk.ReferencedColumns = append(fk.ReferencedColumns, *row.To)
		}
	}
	// PRAGMA lists constraints in reverse declaration order
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	for _, id := range ids {
		entity.AddForeignKey(byID[id])
	}

	var idxRows []indexListRow
	if err := s.db.SelectContext(ctx, &idxRows, fmt.Sprintf("PRAGMA index_list(%s)", quoted)); err != nil {
		return nil, fmt.Errorf("index_list: %w", err)
	}
	sort.Slice(idxRows, func(a, b int) bool { return idxRows[a].Name < idxRows[b].Name })
	for _, idx := range idxRows {
		if idx.Origin == "pk" {
			continue
		}
		var infoRows []indexInfoRow
		if err := s.db.SelectContext(ctx, &infoRows, fmt.Sprintf("PRAGMA index_info(%s)", quoteSQLiteIdentifier(idx.Name))); err != nil {
			return nil, fmt.Errorf("index_info for %q: %w", idx.Name, err)
		}
		sort.Slice(infoRows, func(a, b int) bool { return infoRows[a].SeqNo < infoRows[b].SeqNo })
		index := &Index{Name: idx.Name, Unique: idx.Unique == 1}
		for _, info := range infoRows {
			if info.Name != nil {
				index.Columns = append(index.Columns, *info.Name)
			}
		}
		entity.AddIndex(index)
	}

	return entity, nil
}

// usesAutoIncrement checks the CREATE TABLE statement for the AUTOINCREMENT keyword
func (s *SQLiteInspector) usesAutoIncrement(ctx context.Context, tableName string) bool {
	var createSQL string
	query := `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`
	if err := s.db.GetContext(ctx, &createSQL, query, tableName); err != nil {
		return false
	}
	return strings.Contains(strings.ToUpper(createSQL), "AUTOINCREMENT")
}

// parseType splits a declared type such as VARCHAR(255) or DECIMAL(10,2)
func (s *SQLiteInspector) parseType(declared string, field *Field) {
	m := sqliteTypeModifiers.FindStringSubmatch(declared)
	if m == nil {
		field.Type = s.platform.Normalize(declared)
		return
	}
	field.Type = s.platform.Normalize(m[1])
	if m[2] != "" {
		size, _ := strconv.Atoi(m[2])
		field.SetSize(size)
	}
	if m[3] != "" {
		scale, _ := strconv.Atoi(m[3])
		field.SetScale(scale)
	}
}

// sqliteDefault classifies the dflt_value column: quoted strings and numbers are values,
// everything else is an expression
func sqliteDefault(raw string) *DefaultValue {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(raw, "NULL"):
		return nil
	case len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'':
		return NewValueDefault(strings.ReplaceAll(raw[1:len(raw)-1], "''", "'"))
	case strings.EqualFold(raw, "TRUE"), strings.EqualFold(raw, "FALSE"):
		return NewValueDefault(strings.ToLower(raw))
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return NewValueDefault(raw)
	}
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}
	return NewExpressionDefault(raw)
}

func quoteSQLiteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
