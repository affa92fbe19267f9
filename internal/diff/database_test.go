package diff

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/schemadiff/schemadiff/internal/model"
)

func newDatabase(t *testing.T, platform *model.Platform, entities ...*model.Entity) *model.Database {
	t.Helper()
	db := model.NewDatabase("test", platform)
	for _, e := range entities {
		if err := db.AddEntity(e); err != nil {
			t.Fatalf("AddEntity: %v", err)
		}
	}
	return db
}

func skipSQL(e *model.Entity) *model.Entity {
	e.SkipSQL = true
	return e
}

func compare(t *testing.T, from, to *model.Database, opts ...Option) (int, *DatabaseDiff) {
	t.Helper()
	c := NewDatabaseComparator(from, to)
	for _, opt := range opts {
		opt(c)
	}
	n, err := c.CompareEntities()
	if err != nil {
		t.Fatalf("CompareEntities: %v", err)
	}
	return n, c.DatabaseDiff()
}

func TestComputeDiff_SameEntities(t *testing.T) {
	from := newDatabase(t, model.MySQL(), newEntity(t, "Foo_Entity", doubleField("Foo")), newEntity(t, "Bar"))
	to := newDatabase(t, model.MySQL(), newEntity(t, "Foo_Entity", doubleField("Foo")), newEntity(t, "Bar"))

	d, err := ComputeDiff(from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != nil {
		t.Fatalf("expected no diff, got %s", d.Description())
	}
}

func TestComputeDiff_NotSameEntities(t *testing.T) {
	d, err := ComputeDiff(newDatabase(t, nil, newEntity(t, "Foo")), newDatabase(t, nil, newEntity(t, "Bar")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil {
		t.Fatal("expected a diff")
	}
}

func TestCompareEntities_Added(t *testing.T) {
	bar := newEntity(t, "Bar")
	from := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")))
	to := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")), bar)

	n, d := compare(t, from, to)
	if n != 1 {
		t.Fatalf("expected 1 diff, got %d", n)
	}
	added := d.AddedEntities()
	if diff := cmp.Diff([]string{"Bar"}, added.Keys()); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
	if got, _ := added.Get("Bar"); got != bar {
		t.Error("added entry should carry the target entity")
	}
}

func TestCompareEntities_AddedSkipSQL(t *testing.T) {
	from := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")))
	to := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")), skipSQL(newEntity(t, "Bar")))

	if n, d := compare(t, from, to); n != 0 || d != nil {
		t.Fatalf("expected no diff, got %d", n)
	}
}

func TestCompareEntities_Removed(t *testing.T) {
	bar := newEntity(t, "Bar")
	from := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")), bar)
	to := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")))

	n, d := compare(t, from, to)
	if n != 1 {
		t.Fatalf("expected 1 diff, got %d", n)
	}
	removed := d.RemovedEntities()
	if diff := cmp.Diff([]string{"Bar"}, removed.Keys()); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if got, _ := removed.Get("Bar"); got != bar {
		t.Error("removed entry should carry the source entity")
	}
}

func TestCompareEntities_RemovedSkipSQL(t *testing.T) {
	from := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")), skipSQL(newEntity(t, "Bar")))
	to := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")))

	if n, _ := compare(t, from, to); n != 0 {
		t.Fatalf("expected 0 diffs, got %d", n)
	}
}

func TestCompareEntities_SkipSQLOnBothSides(t *testing.T) {
	from := newDatabase(t, nil,
		newEntity(t, "Foo_Entity", doubleField("Foo")),
		skipSQL(newEntity(t, "Bar", model.NewField("id", "INTEGER"))),
	)
	to := newDatabase(t, nil,
		newEntity(t, "Foo_Entity", doubleField("Foo")),
		skipSQL(newEntity(t, "Bar", model.NewField("id", "BIGINT"), model.NewField("name", "VARCHAR").SetSize(20))),
	)

	for _, renaming := range []bool{false, true} {
		n, d := compare(t, from, to, WithRenaming(renaming))
		if n != 0 || d.Len() != 0 {
			t.Errorf("renaming=%v: structural changes of a skip-sql entity should not be reported, got %d", renaming, n)
		}
	}
}

func TestCompareEntities_SkipSQLFlagChanged(t *testing.T) {
	managed := func() *model.Entity { return newEntity(t, "Bar", model.NewField("id", "INTEGER")) }
	skipped := func() *model.Entity { return skipSQL(managed()) }

	tests := []struct {
		name    string
		from    *model.Entity
		to      *model.Entity
		added   []string
		removed []string
	}{
		{name: "managed from now on", from: skipped(), to: managed(), added: []string{"Bar"}},
		{name: "no longer managed", from: managed(), to: skipped(), removed: []string{"Bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, d := compare(t, newDatabase(t, nil, tt.from), newDatabase(t, nil, tt.to))
			if n != 1 {
				t.Fatalf("expected 1 diff, got %d", n)
			}
			if diff := cmp.Diff(tt.added, d.AddedEntities().Keys(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("added mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.removed, d.RemovedEntities().Keys(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("removed mismatch (-want +got):\n%s", diff)
			}
			if d.ModifiedEntities().Len() != 0 {
				t.Errorf("a skip-sql flag change is not a modification: %v", d.ModifiedEntities().Keys())
			}
		})
	}
}

func TestCompareEntities_Modified(t *testing.T) {
	fromFoo := newEntity(t, "Foo_Entity", doubleField("Foo"), model.NewField("Foo2", "INTEGER"))
	toFoo := newEntity(t, "Foo_Entity", doubleField("Foo"))
	from := newDatabase(t, nil, fromFoo, newEntity(t, "Bar"))
	to := newDatabase(t, nil, toFoo, newEntity(t, "Bar"))

	n, d := compare(t, from, to)
	if n != 1 {
		t.Fatalf("expected 1 diff, got %d", n)
	}

	want, err := ComputeEntityDiff(fromFoo, toFoo)
	if err != nil {
		t.Fatalf("ComputeEntityDiff: %v", err)
	}
	got, ok := d.ModifiedEntities().Get("Foo_Entity")
	if !ok {
		t.Fatal("expected Foo_Entity to be modified")
	}
	opts := cmp.Options{
		cmp.AllowUnexported(OrderedMap[*model.Field]{}, OrderedMap[*FieldDiff]{}, OrderedMap[*model.Index]{},
			OrderedMap[*IndexDiff]{}, OrderedMap[*model.ForeignKey]{}, OrderedMap[*ForeignKeyDiff]{}),
		cmpopts.IgnoreUnexported(model.Entity{}),
	}
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("entity diff mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareEntities_Renamed(t *testing.T) {
	from := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")), newEntity(t, "Bar"))
	to := newDatabase(t, nil, newEntity(t, "Foo_Entity2", doubleField("Foo")), newEntity(t, "Bar"))

	n, d := compare(t, from, to, WithRenaming(true))
	if n != 1 {
		t.Fatalf("expected 1 diff, got %d", n)
	}
	renamed := d.RenamedEntities()
	if diff := cmp.Diff([]string{"Foo_Entity"}, renamed.Keys()); diff != "" {
		t.Errorf("renamed mismatch (-want +got):\n%s", diff)
	}
	if newName, _ := renamed.Get("Foo_Entity"); newName != "Foo_Entity2" {
		t.Errorf("Foo_Entity renamed to %q, want Foo_Entity2", newName)
	}
	if !d.AddedEntities().IsEmpty() || !d.RemovedEntities().IsEmpty() {
		t.Error("a rename must not appear as add and remove")
	}

	change, _ := d.Change("Foo_Entity")
	if rn := change.(RenamedEntity); rn.Diff != nil {
		t.Errorf("identical renamed entity should carry no diff, got %+v", rn.Diff)
	}
}

func TestCompareEntities_RenamedWithoutRenaming(t *testing.T) {
	from := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")))
	to := newDatabase(t, nil, newEntity(t, "Foo_Entity2", doubleField("Foo")))

	n, d := compare(t, from, to)
	if n != 2 {
		t.Fatalf("expected 2 diffs, got %d", n)
	}
	if d.RenamedEntities().Len() != 0 {
		t.Error("expected no renames")
	}
	if d.AddedEntities().Len() != 1 || d.RemovedEntities().Len() != 1 {
		t.Errorf("expected one addition and one removal, got %s", d.Description())
	}
}

func TestCompareEntities_RenamedWithIndexChange(t *testing.T) {
	to2 := newEntity(t, "Foo_Entity2", doubleField("Foo"))
	to2.AddIndex(&model.Index{Name: "idx_foo", Columns: []string{"Foo"}})
	from := newDatabase(t, nil, newEntity(t, "Foo_Entity", doubleField("Foo")))
	to := newDatabase(t, nil, to2)

	n, d := compare(t, from, to, WithRenaming(true))
	if n != 1 {
		t.Fatalf("expected 1 diff, got %d", n)
	}
	change, ok := d.Change("Foo_Entity")
	if !ok {
		t.Fatal("expected Foo_Entity in diff")
	}
	rn, ok := change.(RenamedEntity)
	if !ok {
		t.Fatalf("expected RenamedEntity, got %T", change)
	}
	if rn.Diff == nil || rn.Diff.Indexes.Added.Len() != 1 {
		t.Errorf("expected the rename to carry the added index")
	}
}

func TestCompareEntities_SeveralDifferences(t *testing.T) {
	fooFrom := newEntity(t, "Foo_Entity", doubleField("Foo"))
	bar := newEntity(t, "Bar", model.NewField("Bar_Field", "DOUBLE"))
	baz := newEntity(t, "Baz")
	fooTo := newEntity(t, "Foo_Entity", doubleField("Foo1"))
	bar2 := newEntity(t, "Bar2", model.NewField("Bar_Field", "DOUBLE"))
	biz := newEntity(t, "Biz", model.NewField("Biz_Field", "INTEGER"))

	from := newDatabase(t, nil, fooFrom, bar, baz)
	to := newDatabase(t, nil, fooTo, bar2, biz)

	n, d := compare(t, from, to)
	if n != 5 {
		t.Fatalf("expected 5 diffs, got %d", n)
	}
	if !d.RenamedEntities().IsEmpty() {
		t.Error("expected no renames without renaming enabled")
	}
	if diff := cmp.Diff([]string{"Bar2", "Biz"}, d.AddedEntities().Keys()); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Bar", "Baz"}, d.RemovedEntities().Keys()); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Foo_Entity"}, d.ModifiedEntities().Keys()); diff != "" {
		t.Errorf("modified mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Foo_Entity", "Bar", "Baz", "Bar2", "Biz"}, d.Keys()); diff != "" {
		t.Errorf("diff order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareEntities_SeveralDifferencesWithRenaming(t *testing.T) {
	from := newDatabase(t, nil,
		newEntity(t, "Foo_Entity", doubleField("Foo")),
		newEntity(t, "Bar", model.NewField("Bar_Field", "DOUBLE")),
		newEntity(t, "Baz"),
	)
	to := newDatabase(t, nil,
		newEntity(t, "Foo_Entity", doubleField("Foo1")),
		newEntity(t, "Bar2", model.NewField("Bar_Field", "DOUBLE")),
		newEntity(t, "Biz", model.NewField("Biz_Field", "INTEGER")),
	)

	n, d := compare(t, from, to, WithRenaming(true))
	if n != 4 {
		t.Fatalf("expected 4 diffs, got %d", n)
	}
	if diff := cmp.Diff([]string{"Foo_Entity", "Bar", "Baz", "Biz"}, d.Keys()); diff != "" {
		t.Errorf("diff order mismatch (-want +got):\n%s", diff)
	}
	if newName, _ := d.RenamedEntities().Get("Bar"); newName != "Bar2" {
		t.Errorf("Bar renamed to %q, want Bar2", newName)
	}
}

func TestCompareEntities_SeveralRenamedSameEntities(t *testing.T) {
	col := func() *model.Field { return model.NewField("col1", "INTEGER") }
	from := newDatabase(t, nil, newEntity(t, "entity1", col()), newEntity(t, "entity2", col()), newEntity(t, "entity3", col()))
	to := newDatabase(t, nil, newEntity(t, "entity4", col()), newEntity(t, "entity5", col()), newEntity(t, "entity3", col()))

	n, d := compare(t, from, to, WithRenaming(true))
	if n != 4 {
		t.Fatalf("expected 4 diffs, got %d", n)
	}
	if d.RenamedEntities().Len() != 0 {
		t.Errorf("expected no renames, got %v", d.RenamedEntities().Keys())
	}
	if diff := cmp.Diff([]string{"entity4", "entity5"}, d.AddedEntities().Keys()); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"entity1", "entity2"}, d.RemovedEntities().Keys()); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareEntities_RenameAmbiguity(t *testing.T) {
	col := func() *model.Field { return model.NewField("col1", "INTEGER") }
	from := newDatabase(t, nil, newEntity(t, "a", col()), newEntity(t, "b", col()))
	to := newDatabase(t, nil, newEntity(t, "c", col()))

	n, d := compare(t, from, to, WithRenaming(true))
	if n != 3 {
		t.Fatalf("expected 3 diffs, got %d", n)
	}
	if d.RenamedEntities().Len() != 0 {
		t.Errorf("expected no renames, got %v", d.RenamedEntities().Keys())
	}
}

func TestCompareEntities_RenameSkipsAmbiguousGroupOnly(t *testing.T) {
	col := func(name string) *model.Field { return model.NewField(name, "INTEGER") }
	from := newDatabase(t, nil,
		newEntity(t, "a", col("x")),
		newEntity(t, "b", col("x")),
		newEntity(t, "old_users", col("id"), col("age")),
	)
	to := newDatabase(t, nil,
		newEntity(t, "c", col("x")),
		newEntity(t, "users", col("age"), col("id")),
	)

	n, d := compare(t, from, to, WithRenaming(true))
	if n != 4 {
		t.Fatalf("expected 4 diffs, got %d", n)
	}
	if diff := cmp.Diff([]string{"old_users"}, d.RenamedEntities().Keys()); diff != "" {
		t.Errorf("renamed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, d.RemovedEntities().Keys()); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, d.AddedEntities().Keys()); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareEntities_RenameIgnoresSkipSQL(t *testing.T) {
	from := newDatabase(t, nil, newEntity(t, "Foo", model.NewField("id", "INTEGER")))
	to := newDatabase(t, nil, skipSQL(newEntity(t, "Foo2", model.NewField("id", "INTEGER"))))

	n, d := compare(t, from, to, WithRenaming(true))
	if n != 1 {
		t.Fatalf("expected 1 diff, got %d", n)
	}
	if diff := cmp.Diff([]string{"Foo"}, d.RemovedEntities().Keys()); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDiff_RemoveEntity(t *testing.T) {
	c := NewDatabaseComparator(nil, nil)
	if !c.RemoveEntity {
		t.Error("RemoveEntity should default to true")
	}
	if c.WithRenaming {
		t.Error("WithRenaming should default to false")
	}

	tests := []struct {
		renaming bool
		remove   bool
		wantDiff bool
	}{
		{renaming: false, remove: false, wantDiff: false},
		{renaming: true, remove: false, wantDiff: false},
		{renaming: false, remove: true, wantDiff: true},
		{renaming: true, remove: true, wantDiff: true},
	}

	for _, tt := range tests {
		from := newDatabase(t, nil, newEntity(t, "Foo"))
		to := newDatabase(t, nil)

		d, err := ComputeDiff(from, to, WithRenaming(tt.renaming), WithRemoveEntity(tt.remove))
		if err != nil {
			t.Fatalf("renaming=%v remove=%v: unexpected error: %v", tt.renaming, tt.remove, err)
		}
		if got := d != nil; got != tt.wantDiff {
			t.Errorf("renaming=%v remove=%v: diff present = %v, want %v", tt.renaming, tt.remove, got, tt.wantDiff)
		}
	}

	n, _ := compare(t, newDatabase(t, nil, newEntity(t, "Foo")), newDatabase(t, nil), WithRemoveEntity(false))
	if n != 0 {
		t.Errorf("expected 0 diffs with removals disabled, got %d", n)
	}
}

func TestComputeDiff_ExcludedEntities(t *testing.T) {
	for _, renaming := range []bool{false, true} {
		tests := []struct {
			name     string
			from     func() *model.Database
			to       func() *model.Database
			remove   bool
			excluded []string
			wantDiff bool
		}{
			{
				name:     "excluded addition",
				from:     func() *model.Database { return newDatabase(t, nil) },
				to:       func() *model.Database { return newDatabase(t, nil, newEntity(t, "Bar")) },
				excluded: []string{"Bar"},
			},
			{
				name:     "other name excluded",
				from:     func() *model.Database { return newDatabase(t, nil) },
				to:       func() *model.Database { return newDatabase(t, nil, newEntity(t, "Bar")) },
				excluded: []string{"Baz"},
				wantDiff: true,
			},
			{
				name:     "both sides excluded",
				from:     func() *model.Database { return newDatabase(t, nil, newEntity(t, "Foo")) },
				to:       func() *model.Database { return newDatabase(t, nil, newEntity(t, "Bar")) },
				excluded: []string{"Bar", "Foo"},
			},
			{
				name:     "removal excluded",
				from:     func() *model.Database { return newDatabase(t, nil, newEntity(t, "Foo")) },
				to:       func() *model.Database { return newDatabase(t, nil, newEntity(t, "Bar")) },
				remove:   true,
				excluded: []string{"Foo"},
				wantDiff: true,
			},
			{
				name:     "addition excluded with removals",
				from:     func() *model.Database { return newDatabase(t, nil, newEntity(t, "Foo")) },
				to:       func() *model.Database { return newDatabase(t, nil, newEntity(t, "Bar")) },
				remove:   true,
				excluded: []string{"Bar"},
				wantDiff: true,
			},
			{
				name: "excluded modification",
				from: func() *model.Database {
					return newDatabase(t, nil, newEntity(t, "Foo", model.NewField("col1", "")))
				},
				to:       func() *model.Database { return newDatabase(t, nil, newEntity(t, "Foo")) },
				excluded: []string{"Bar", "Foo"},
			},
			{
				name: "modification",
				from: func() *model.Database {
					return newDatabase(t, nil, newEntity(t, "Foo", model.NewField("col1", "")))
				},
				to:       func() *model.Database { return newDatabase(t, nil, newEntity(t, "Foo")) },
				excluded: []string{"Bar"},
				wantDiff: true,
			},
		}

		for _, tt := range tests {
			d, err := ComputeDiff(tt.from(), tt.to(),
				WithRenaming(renaming),
				WithRemoveEntity(tt.remove),
				WithExcludedEntities(tt.excluded...),
			)
			if err != nil {
				t.Fatalf("%s (renaming=%v): unexpected error: %v", tt.name, renaming, err)
			}
			if got := d != nil; got != tt.wantDiff {
				t.Errorf("%s (renaming=%v): diff present = %v, want %v", tt.name, renaming, got, tt.wantDiff)
			}
			for _, name := range tt.excluded {
				if _, ok := d.Change(name); ok {
					t.Errorf("%s (renaming=%v): excluded entity %s in diff", tt.name, renaming, name)
				}
			}
		}
	}
}

func TestComputeDiff_ExcludedIsCaseSensitive(t *testing.T) {
	d, err := ComputeDiff(newDatabase(t, nil), newDatabase(t, nil, newEntity(t, "Bar")), WithExcludedEntities("bar"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil {
		t.Fatal("expected Bar to be reported")
	}
}

func TestComputeDiff_Reflexive(t *testing.T) {
	users := newEntity(t, "users", model.NewField("id", "INTEGER"), model.NewField("email", "VARCHAR").SetSize(255))
	users.AddIndex(&model.Index{Name: "users_email_key", Columns: []string{"email"}, Unique: true})
	orders := newEntity(t, "orders", model.NewField("user_id", "INTEGER"))
	orders.AddForeignKey(&model.ForeignKey{Columns: []string{"user_id"}, ReferencedEntity: "users", ReferencedColumns: []string{"id"}})
	stats := newEntity(t, "stats", model.NewField("ratio", "DOUBLE"))
	stats.Field("ratio").Default = model.NewValueDefault("NaN")
	db := newDatabase(t, model.PgSQL(), users, orders, stats, skipSQL(newEntity(t, "docs")))

	for _, renaming := range []bool{false, true} {
		d, err := ComputeDiff(db, db, WithRenaming(renaming), WithExcludedEntities("orders"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != nil {
			t.Errorf("renaming=%v: expected no diff, got %s", renaming, d.Description())
		}
	}
}

func TestComputeDiff_DisjointPartitions(t *testing.T) {
	col := func(name string) *model.Field { return model.NewField(name, "INTEGER") }
	from := newDatabase(t, nil,
		newEntity(t, "kept", col("a")),
		newEntity(t, "changed", col("a")),
		newEntity(t, "dropped", col("z")),
		newEntity(t, "old", col("r")),
	)
	to := newDatabase(t, nil,
		newEntity(t, "kept", col("a")),
		newEntity(t, "changed", col("b")),
		newEntity(t, "created", col("y")),
		newEntity(t, "new", col("r")),
	)

	c := NewDatabaseComparator(from, to)
	c.WithRenaming = true
	n, err := c.CompareEntities()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := c.DatabaseDiff()

	seen := make(map[string]int)
	for _, keys := range [][]string{
		d.AddedEntities().Keys(),
		d.RemovedEntities().Keys(),
		d.ModifiedEntities().Keys(),
		d.RenamedEntities().Keys(),
	} {
		for _, k := range keys {
			seen[k]++
		}
	}
	for name, count := range seen {
		if count != 1 {
			t.Errorf("%s appears in %d partitions", name, count)
		}
	}
	if n != len(seen) || n != d.Len() {
		t.Errorf("count %d does not match partitions %d / %d", n, len(seen), d.Len())
	}
	if diff := cmp.Diff([]string{"changed", "old", "dropped", "created"}, d.Keys()); diff != "" {
		t.Errorf("diff order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareEntities_Duplicates(t *testing.T) {
	from := model.NewDatabase("from", nil)
	from.Entities = []*model.Entity{model.NewEntity("Foo"), model.NewEntity("Foo")}
	to := model.NewDatabase("to", nil)

	c := NewDatabaseComparator(from, to)
	if _, err := c.CompareEntities(); !errors.Is(err, model.ErrDuplicateEntity) {
		t.Fatalf("expected ErrDuplicateEntity, got %v", err)
	}
	if c.DatabaseDiff() != nil {
		t.Error("expected no diff after a failed comparison")
	}
}

func TestCompareEntities_UnknownTypeYieldsNoDiff(t *testing.T) {
	from := newDatabase(t, model.MySQL(), newEntity(t, "Foo", model.NewField("g", "GEOMETRY")), newEntity(t, "Bar"))
	to := newDatabase(t, model.MySQL(), newEntity(t, "Foo", model.NewField("g", "GEOMETRY")))

	d, err := ComputeDiff(from, to)
	if d != nil {
		t.Errorf("expected no partial diff, got %s", d.Description())
	}
	var cmpErr *ComparisonError
	if !errors.As(err, &cmpErr) {
		t.Fatalf("expected ComparisonError, got %v", err)
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "g" {
		t.Errorf("expected error tied to field g, got %v", err)
	}
}

func TestDatabaseDiff_Reverse(t *testing.T) {
	from := newDatabase(t, nil,
		newEntity(t, "changed", model.NewField("a", "INTEGER")),
		newEntity(t, "old", model.NewField("r", "INTEGER")),
		newEntity(t, "dropped", model.NewField("z", "INTEGER")),
	)
	to := newDatabase(t, nil,
		newEntity(t, "changed", model.NewField("a", "BIGINT")),
		newEntity(t, "new", model.NewField("r", "INTEGER")),
		newEntity(t, "created", model.NewField("y", "INTEGER")),
	)

	d, err := ComputeDiff(from, to, WithRenaming(true))
	if err != nil || d == nil {
		t.Fatalf("expected a diff, got %v", err)
	}

	r := d.Reverse()
	if r.From != to || r.To != from {
		t.Error("reverse should swap databases")
	}
	if diff := cmp.Diff([]string{"changed", "new", "created", "dropped"}, r.Keys()); diff != "" {
		t.Errorf("reversed order mismatch (-want +got):\n%s", diff)
	}
	if newName, _ := r.RenamedEntities().Get("new"); newName != "old" {
		t.Errorf("new renamed to %q, want old", newName)
	}
	if diff := cmp.Diff([]string{"created"}, r.RemovedEntities().Keys()); diff != "" {
		t.Errorf("reversed removed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"dropped"}, r.AddedEntities().Keys()); diff != "" {
		t.Errorf("reversed added mismatch (-want +got):\n%s", diff)
	}
}

func TestDatabaseDiff_Description(t *testing.T) {
	var empty *DatabaseDiff
	if got := empty.Description(); got != "no changes" {
		t.Errorf("Description() = %q, want %q", got, "no changes")
	}

	d, err := ComputeDiff(
		newDatabase(t, nil, newEntity(t, "a"), newEntity(t, "b")),
		newDatabase(t, nil, newEntity(t, "c", model.NewField("x", "INTEGER"))),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := d.Description(), "1 added entity, 2 removed entities"; got != want {
		t.Errorf("Description() = %q, want %q", got, want)
	}
}
