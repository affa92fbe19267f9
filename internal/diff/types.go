package diff

import (
	"fmt"
	"strings"

	"github.com/schemadiff/schemadiff/internal/model"
)

// ChangeKind names the partition an entity change belongs to
type ChangeKind string

const (
	ChangeKindAdded    ChangeKind = "added"
	ChangeKindRemoved  ChangeKind = "removed"
	ChangeKindModified ChangeKind = "modified"
	ChangeKindRenamed  ChangeKind = "renamed"
)

// EntityChange is the change recorded for one entity name. The set of
// implementations is closed: AddedEntity, RemovedEntity, ModifiedEntity and RenamedEntity.
type EntityChange interface {
	Kind() ChangeKind
	entityChange()
}

// AddedEntity is an entity present only in the target database
type AddedEntity struct {
	Entity *model.Entity
}

// RemovedEntity is an entity present only in the source database
type RemovedEntity struct {
	Entity *model.Entity
}

// ModifiedEntity is an entity present on both sides with structural differences
type ModifiedEntity struct {
	Diff *EntityDiff
}

// RenamedEntity is a source entity matched to a target entity of the same column shape.
// Diff is nil unless indexes, foreign keys or field attributes outside the signature changed too.
type RenamedEntity struct {
	NewName string
	From    *model.Entity
	To      *model.Entity
	Diff    *EntityDiff
}

func (AddedEntity) Kind() ChangeKind    { return ChangeKindAdded }
func (RemovedEntity) Kind() ChangeKind  { return ChangeKindRemoved }
func (ModifiedEntity) Kind() ChangeKind { return ChangeKindModified }
func (RenamedEntity) Kind() ChangeKind  { return ChangeKindRenamed }

func (AddedEntity) entityChange()    {}
func (RemovedEntity) entityChange()  {}
func (ModifiedEntity) entityChange() {}
func (RenamedEntity) entityChange()  {}

// DatabaseDiff maps each changed entity name to exactly one change. Entries are
// ordered modified, renamed, removed, then added; within each group source
// entities keep "from" order and added entities keep "to" order.
type DatabaseDiff struct {
	From *model.Database
	To   *model.Database

	changes *OrderedMap[EntityChange]
}

func newDatabaseDiff(from, to *model.Database) *DatabaseDiff {
	return &DatabaseDiff{From: from, To: to, changes: NewOrderedMap[EntityChange]()}
}

// Len returns the number of changed entities; a rename counts once
func (d *DatabaseDiff) Len() int {
	if d == nil {
		return 0
	}
	return d.changes.Len()
}

// IsEmpty reports whether no entity changed
func (d *DatabaseDiff) IsEmpty() bool {
	return d.Len() == 0
}

// Keys returns changed entity names in diff order. Renames are keyed by their old name.
func (d *DatabaseDiff) Keys() []string {
	if d == nil {
		return nil
	}
	return d.changes.Keys()
}

// Change returns the change recorded for an entity name
func (d *DatabaseDiff) Change(name string) (EntityChange, bool) {
	if d == nil {
		return nil, false
	}
	return d.changes.Get(name)
}

// Changes returns every change in diff order
func (d *DatabaseDiff) Changes() []EntityChange {
	if d == nil {
		return nil
	}
	return d.changes.Values()
}

// AddedEntities returns the added partition keyed by entity name
func (d *DatabaseDiff) AddedEntities() *OrderedMap[*model.Entity] {
	out := NewOrderedMap[*model.Entity]()
	d.each(func(name string, c EntityChange) {
		if a, ok := c.(AddedEntity); ok {
			out.Set(name, a.Entity)
		}
	})
	return out
}

// RemovedEntities returns the removed partition keyed by entity name
func (d *DatabaseDiff) RemovedEntities() *OrderedMap[*model.Entity] {
	out := NewOrderedMap[*model.Entity]()
	d.each(func(name string, c EntityChange) {
		if r, ok := c.(RemovedEntity); ok {
			out.Set(name, r.Entity)
		}
	})
	return out
}

// ModifiedEntities returns the modified partition keyed by entity name
func (d *DatabaseDiff) ModifiedEntities() *OrderedMap[*EntityDiff] {
	out := NewOrderedMap[*EntityDiff]()
	d.each(func(name string, c EntityChange) {
		if m, ok := c.(ModifiedEntity); ok {
			out.Set(name, m.Diff)
		}
	})
	return out
}

// RenamedEntities returns the renamed partition as old name to new name
func (d *DatabaseDiff) RenamedEntities() *OrderedMap[string] {
	out := NewOrderedMap[string]()
	d.each(func(name string, c EntityChange) {
		if r, ok := c.(RenamedEntity); ok {
			out.Set(name, r.NewName)
		}
	})
	return out
}

func (d *DatabaseDiff) each(fn func(name string, c EntityChange)) {
	if d == nil {
		return
	}
	d.changes.Each(fn)
}

func (d *DatabaseDiff) set(name string, c EntityChange) {
	d.changes.Set(name, c)
}

// Reverse returns the diff that turns "to" back into "from"
func (d *DatabaseDiff) Reverse() *DatabaseDiff {
	if d == nil {
		return nil
	}
	r := newDatabaseDiff(d.To, d.From)
	d.ModifiedEntities().Each(func(name string, ed *EntityDiff) {
		r.set(name, ModifiedEntity{Diff: ed.Reverse()})
	})
	d.each(func(_ string, c EntityChange) {
		if rn, ok := c.(RenamedEntity); ok {
			rev := RenamedEntity{NewName: rn.From.Name, From: rn.To, To: rn.From}
			if rn.Diff != nil {
				rev.Diff = rn.Diff.Reverse()
			}
			r.set(rn.NewName, rev)
		}
	})
	d.AddedEntities().Each(func(name string, e *model.Entity) {
		r.set(name, RemovedEntity{Entity: e})
	})
	d.RemovedEntities().Each(func(name string, e *model.Entity) {
		r.set(name, AddedEntity{Entity: e})
	})
	return r
}

// Description summarizes the partition sizes
func (d *DatabaseDiff) Description() string {
	counts := make(map[ChangeKind]int)
	d.each(func(_ string, c EntityChange) {
		counts[c.Kind()]++
	})

	var parts []string
	for _, kind := range []ChangeKind{ChangeKindAdded, ChangeKindRemoved, ChangeKindModified, ChangeKindRenamed} {
		if n := counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s %s", n, kind, pluralize(n, "entity", "entities")))
		}
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
