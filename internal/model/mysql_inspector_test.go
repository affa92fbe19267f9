package model

import (
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMySQLBuildField(t *testing.T) {
	inspector := NewMySQLInspector(nil)

	tests := []struct {
		name string
		row  mysqlColumnRow
		want *Field
	}{
		{
			name: "auto increment primary key",
			row:  mysqlColumnRow{name: "id", dataType: "int", nullable: "NO", key: "PRI", extra: "auto_increment"},
			want: &Field{Name: "id", Domain: Domain{Type: "INTEGER"}, NotNull: true, PrimaryKey: true, AutoIncrement: true},
		},
		{
			name: "varchar with quoted default",
			row: mysqlColumnRow{
				name: "status", dataType: "varchar", nullable: "YES",
				maxLength: sql.NullInt64{Int64: 20, Valid: true},
				def:       sql.NullString{String: "'draft'", Valid: true},
			},
			want: &Field{Name: "status", Domain: Domain{Type: "VARCHAR", Size: intPtr(20), Default: NewValueDefault("draft")}},
		},
		{
			name: "decimal precision and scale",
			row: mysqlColumnRow{
				name: "price", dataType: "decimal", nullable: "NO",
				precision: sql.NullInt64{Int64: 10, Valid: true},
				scale:     sql.NullInt64{Int64: 2, Valid: true},
				def:       sql.NullString{String: "0.00", Valid: true},
			},
			want: &Field{Name: "price", Domain: Domain{Type: "DECIMAL", Size: intPtr(10), Scale: intPtr(2), Default: NewValueDefault("0.00")}, NotNull: true},
		},
		{
			name: "generated timestamp default",
			row: mysqlColumnRow{
				name: "created_at", dataType: "datetime", nullable: "NO",
				def:   sql.NullString{String: "CURRENT_TIMESTAMP", Valid: true},
				extra: "DEFAULT_GENERATED",
			},
			want: &Field{Name: "created_at", Domain: Domain{Type: "DATETIME", Default: NewExpressionDefault("CURRENT_TIMESTAMP")}, NotNull: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inspector.buildField(tt.row)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("field mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnquoteMySQLDefault(t *testing.T) {
	tests := map[string]string{
		"plain":        "plain",
		"'quoted'":     "quoted",
		"'it''s'":      "it''s",
		"'tab\\there'": "tab\there",
		"''":           "",
		"'":            "'",
	}
	for raw, want := range tests {
		if got := unquoteMySQLDefault(raw); got != want {
			t.Errorf("unquoteMySQLDefault(%q) = %q, want %q", raw, got, want)
		}
	}
}
