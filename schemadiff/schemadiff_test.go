package schemadiff

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const currentSQL = `
CREATE TABLE author (id integer PRIMARY KEY, name varchar(50) NOT NULL);
CREATE TABLE book (id integer PRIMARY KEY, title varchar(100), author_id integer REFERENCES author (id));
CREATE TABLE audit_log (id bigint, payload text);
`

const desiredSQL = `
CREATE TABLE writer (id integer PRIMARY KEY, name varchar(50) NOT NULL);
CREATE TABLE book (id integer PRIMARY KEY, title varchar(200), author_id integer);
CREATE TABLE review (id integer PRIMARY KEY, body text);
`

func writeSchemas(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	from := filepath.Join(dir, "current.sql")
	to := filepath.Join(dir, "desired.sql")
	if err := os.WriteFile(from, []byte(currentSQL), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(to, []byte(desiredSQL), 0644); err != nil {
		t.Fatal(err)
	}
	return from, to
}

func TestDiff(t *testing.T) {
	from, to := writeSchemas(t)
	chdir(t, t.TempDir())

	tests := []struct {
		name string
		opts DiffOptions
		want []string
	}{
		{
			name: "defaults",
			opts: DiffOptions{From: from, To: to, Platform: "pgsql"},
			want: []string{"book", "author", "audit_log", "writer", "review"},
		},
		{
			name: "generic platform",
			opts: DiffOptions{From: from, To: to},
			want: []string{"book", "author", "audit_log", "writer", "review"},
		},
		{
			name: "with renaming",
			opts: DiffOptions{From: from, To: to, Platform: "pgsql", WithRenaming: true},
			want: []string{"book", "author", "audit_log", "review"},
		},
		{
			name: "keep removed",
			opts: DiffOptions{From: from, To: to, Platform: "pgsql", KeepRemoved: true},
			want: []string{"book", "writer", "review"},
		},
		{
			name: "excluded",
			opts: DiffOptions{From: from, To: to, Platform: "pgsql", Exclude: []string{"audit_log", "review"}},
			want: []string{"book", "author", "writer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Diff(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("Diff: %v", err)
			}
			if diff := cmp.Diff(tt.want, p.Diff.Keys()); diff != "" {
				t.Errorf("changed entities mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiff_IgnoreFile(t *testing.T) {
	from, to := writeSchemas(t)
	ignorePath := filepath.Join(t.TempDir(), "ignore.toml")
	content := `[entities]
patterns = ["audit_*"]

[skip_sql]
patterns = ["review"]
`
	if err := os.WriteFile(ignorePath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Diff(context.Background(), DiffOptions{From: from, To: to, IgnoreFile: ignorePath, Platform: "pgsql"})
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if diff := cmp.Diff([]string{"book", "author", "writer"}, p.Diff.Keys()); diff != "" {
		t.Errorf("changed entities mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_NoChanges(t *testing.T) {
	from, _ := writeSchemas(t)
	chdir(t, t.TempDir())

	p, err := Diff(context.Background(), DiffOptions{From: from, To: from})
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if p.HasChanges() {
		t.Errorf("expected no changes, got %s", p.Diff.Description())
	}
	if got := p.HumanColored(false); got != "No changes detected.\n" {
		t.Errorf("unexpected report %q", got)
	}
}

func TestDiff_Errors(t *testing.T) {
	from, _ := writeSchemas(t)
	chdir(t, t.TempDir())

	tests := []struct {
		name string
		opts DiffOptions
	}{
		{"missing target", DiffOptions{From: from, To: filepath.Join(t.TempDir(), "missing.sql")}},
		{"unknown platform", DiffOptions{From: from, To: from, Platform: "oracle"}},
		{"missing ignore file", DiffOptions{From: from, To: from, IgnoreFile: filepath.Join(t.TempDir(), "missing")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Diff(context.Background(), tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
