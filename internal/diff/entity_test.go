package diff

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/schemadiff/schemadiff/internal/model"
)

func newEntity(t *testing.T, name string, fields ...*model.Field) *model.Entity {
	t.Helper()
	e := model.NewEntity(name)
	for _, f := range fields {
		if err := e.AddField(f); err != nil {
			t.Fatalf("AddField: %v", err)
		}
	}
	return e
}

func TestComputeEntityDiff_Identical(t *testing.T) {
	from := newEntity(t, "Foo_Entity", doubleField("Foo"), model.NewField("Foo2", "INTEGER"))
	to := newEntity(t, "Foo_Entity", doubleField("Foo"), model.NewField("Foo2", "INTEGER"))

	d, err := ComputeEntityDiff(from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != nil {
		t.Fatalf("expected no diff, got %+v", d)
	}
}

func TestComputeEntityDiff_FieldOrderIgnored(t *testing.T) {
	from := newEntity(t, "t", model.NewField("a", "INTEGER"), model.NewField("b", "VARCHAR").SetSize(10))
	to := newEntity(t, "t", model.NewField("b", "VARCHAR").SetSize(10), model.NewField("a", "INTEGER"))

	if d, err := ComputeEntityDiff(from, to); err != nil || d != nil {
		t.Fatalf("expected no diff, got %+v (err %v)", d, err)
	}
}

func TestComputeEntityDiff_Fields(t *testing.T) {
	from := newEntity(t, "t",
		model.NewField("id", "INTEGER"),
		model.NewField("old_name", "VARCHAR").SetSize(50),
		doubleField("price"),
	)
	price := doubleField("price")
	price.NotNull = false
	to := newEntity(t, "t",
		model.NewField("id", "INTEGER"),
		model.NewField("new_name", "VARCHAR").SetSize(50),
		price,
		model.NewField("created_at", "TIMESTAMP"),
	)

	d, err := ComputeEntityDiff(from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil {
		t.Fatal("expected a diff")
	}

	if diff := cmp.Diff([]string{"new_name", "created_at"}, d.AddedFields.Keys()); diff != "" {
		t.Errorf("added fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"old_name"}, d.RemovedFields.Keys()); diff != "" {
		t.Errorf("removed fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"price"}, d.ModifiedFields.Keys()); diff != "" {
		t.Errorf("modified fields mismatch (-want +got):\n%s", diff)
	}
	fd, _ := d.ModifiedFields.Get("price")
	if diff := cmp.Diff([]Attribute{AttributeNotNull}, fd.Attributes()); diff != "" {
		t.Errorf("price attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeEntityDiff_FieldNamesCaseSensitive(t *testing.T) {
	from := newEntity(t, "t", model.NewField("Name", "VARCHAR").SetSize(10))
	to := newEntity(t, "t", model.NewField("name", "VARCHAR").SetSize(10))

	d, err := ComputeEntityDiff(from, to)
	if err != nil || d == nil {
		t.Fatalf("expected a diff, got %+v (err %v)", d, err)
	}
	if d.AddedFields.Len() != 1 || d.RemovedFields.Len() != 1 {
		t.Errorf("expected one added and one removed field, got %v / %v", d.AddedFields.Keys(), d.RemovedFields.Keys())
	}
}

func TestComputeEntityDiff_IndexesAndForeignKeys(t *testing.T) {
	from := newEntity(t, "orders", model.NewField("user_id", "INTEGER"))
	to := newEntity(t, "orders", model.NewField("user_id", "INTEGER"))
	to.AddIndex(&model.Index{Name: "idx_user", Columns: []string{"user_id"}})
	to.AddForeignKey(&model.ForeignKey{Columns: []string{"user_id"}, ReferencedEntity: "users", ReferencedColumns: []string{"id"}})

	d, err := ComputeEntityDiff(from, to)
	if err != nil || d == nil {
		t.Fatalf("expected a diff, got %+v (err %v)", d, err)
	}
	if d.Indexes.Added.Len() != 1 {
		t.Errorf("expected one added index, got %v", d.Indexes.Added.Keys())
	}
	if d.ForeignKeys.Added.Len() != 1 {
		t.Errorf("expected one added foreign key, got %v", d.ForeignKeys.Added.Keys())
	}
}

func TestComputeEntityDiff_UnknownType(t *testing.T) {
	fromDB := model.NewDatabase("from", model.MySQL())
	toDB := model.NewDatabase("to", model.MySQL())
	from := newEntity(t, "t", model.NewField("shape", "GEOMETRY"), model.NewField("id", "INTEGER"))
	to := newEntity(t, "t", model.NewField("shape", "GEOMETRY"), model.NewField("id", "BIGINT"))
	if err := fromDB.AddEntity(from); err != nil {
		t.Fatal(err)
	}
	if err := toDB.AddEntity(to); err != nil {
		t.Fatal(err)
	}

	d, err := ComputeEntityDiff(from, to)
	if d != nil {
		t.Errorf("expected no partial diff, got %+v", d)
	}
	if !errors.Is(err, model.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected a FieldError, got %T", err)
	}
	if fieldErr.Entity != "t" || fieldErr.Field != "shape" {
		t.Errorf("error tied to %s.%s, want t.shape", fieldErr.Entity, fieldErr.Field)
	}
}

func TestEntityDiff_Reverse(t *testing.T) {
	from := newEntity(t, "t", model.NewField("a", "INTEGER"), model.NewField("b", "INTEGER"))
	to := newEntity(t, "t", model.NewField("a", "BIGINT"), model.NewField("c", "INTEGER"))
	to.AddIndex(&model.Index{Name: "idx_c", Columns: []string{"c"}})

	d, err := ComputeEntityDiff(from, to)
	if err != nil || d == nil {
		t.Fatalf("expected a diff, got %+v (err %v)", d, err)
	}

	r := d.Reverse()
	if r.From != to || r.To != from {
		t.Error("reverse should swap entities")
	}
	if diff := cmp.Diff([]string{"b"}, r.AddedFields.Keys()); diff != "" {
		t.Errorf("reversed added fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, r.RemovedFields.Keys()); diff != "" {
		t.Errorf("reversed removed fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"idx_c"}, r.Indexes.Removed.Keys()); diff != "" {
		t.Errorf("reversed removed indexes mismatch (-want +got):\n%s", diff)
	}
	fd, _ := r.ModifiedFields.Get("a")
	change, _ := fd.Change(AttributeType)
	if change.Old != "BIGINT" || change.New != "INTEGER" {
		t.Errorf("reversed type change = %v -> %v, want BIGINT -> INTEGER", change.Old, change.New)
	}
}

func TestIsEquivalent(t *testing.T) {
	tests := []struct {
		name string
		a    *model.Entity
		b    *model.Entity
		want bool
	}{
		{
			name: "same shape different name",
			a:    newEntity(t, "a", model.NewField("id", "INTEGER"), model.NewField("name", "VARCHAR")),
			b:    newEntity(t, "b", model.NewField("name", "VARCHAR"), model.NewField("id", "INTEGER")),
			want: true,
		},
		{
			name: "type alias",
			a:    newEntity(t, "a", model.NewField("id", "int")),
			b:    newEntity(t, "b", model.NewField("id", "INTEGER")),
			want: true,
		},
		{
			name: "attributes outside the signature",
			a:    newEntity(t, "a", model.NewField("name", "VARCHAR").SetSize(10)),
			b:    newEntity(t, "b", model.NewField("name", "VARCHAR").SetSize(20)),
			want: true,
		},
		{
			name: "different type",
			a:    newEntity(t, "a", model.NewField("id", "INTEGER")),
			b:    newEntity(t, "b", model.NewField("id", "BIGINT")),
			want: false,
		},
		{
			name: "different field name",
			a:    newEntity(t, "a", model.NewField("id", "INTEGER")),
			b:    newEntity(t, "b", model.NewField("ID", "INTEGER")),
			want: false,
		},
		{
			name: "extra field",
			a:    newEntity(t, "a", model.NewField("id", "INTEGER")),
			b:    newEntity(t, "b", model.NewField("id", "INTEGER"), model.NewField("x", "INTEGER")),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEquivalent(tt.a, tt.b); got != tt.want {
				t.Errorf("IsEquivalent() = %v, want %v", got, tt.want)
			}
		})
	}
}
