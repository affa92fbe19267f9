package diff

import (
	"slices"
	"strings"

	"github.com/schemadiff/schemadiff/internal/model"
)

// ForeignKeyDiff represents changes to a foreign key sharing the same identity
type ForeignKeyDiff struct {
	From *model.ForeignKey
	To   *model.ForeignKey
}

// ActionsChanged reports whether ON DELETE or ON UPDATE differs
func (d *ForeignKeyDiff) ActionsChanged() bool {
	return normalizeAction(d.From.OnDelete) != normalizeAction(d.To.OnDelete) ||
		normalizeAction(d.From.OnUpdate) != normalizeAction(d.To.OnUpdate)
}

// ForeignKeyChanges holds foreign key differences keyed by foreign key identity
type ForeignKeyChanges struct {
	Added    *OrderedMap[*model.ForeignKey]
	Removed  *OrderedMap[*model.ForeignKey]
	Modified *OrderedMap[*ForeignKeyDiff]
}

// IsEmpty reports whether no foreign key changed
func (c *ForeignKeyChanges) IsEmpty() bool {
	return c.Added.IsEmpty() && c.Removed.IsEmpty() && c.Modified.IsEmpty()
}

// CompareForeignKeys compares the foreign keys of two entity versions by identity
func CompareForeignKeys(from, to *model.Entity) *ForeignKeyChanges {
	changes := &ForeignKeyChanges{
		Added:    NewOrderedMap[*model.ForeignKey](),
		Removed:  NewOrderedMap[*model.ForeignKey](),
		Modified: NewOrderedMap[*ForeignKeyDiff](),
	}

	oldKeys := make(map[string]*model.ForeignKey, len(from.ForeignKeys))
	for _, fk := range from.ForeignKeys {
		oldKeys[fk.Identity()] = fk
	}
	newKeys := make(map[string]*model.ForeignKey, len(to.ForeignKeys))
	for _, fk := range to.ForeignKeys {
		newKeys[fk.Identity()] = fk
	}

	for _, fk := range to.ForeignKeys {
		if _, exists := oldKeys[fk.Identity()]; !exists {
			changes.Added.Set(fk.Identity(), fk)
		}
	}

	for _, oldFK := range from.ForeignKeys {
		key := oldFK.Identity()
		newFK, exists := newKeys[key]
		if !exists {
			changes.Removed.Set(key, oldFK)
			continue
		}
		if !foreignKeysEqual(oldFK, newFK) {
			changes.Modified.Set(key, &ForeignKeyDiff{From: oldFK, To: newFK})
		}
	}

	return changes
}

// foreignKeysEqual compares two foreign keys for equality
func foreignKeysEqual(old, new *model.ForeignKey) bool {
	return slices.Equal(old.Columns, new.Columns) &&
		old.ReferencedEntity == new.ReferencedEntity &&
		slices.Equal(old.ReferencedColumns, new.ReferencedColumns) &&
		normalizeAction(old.OnDelete) == normalizeAction(new.OnDelete) &&
		normalizeAction(old.OnUpdate) == normalizeAction(new.OnUpdate)
}

// normalizeAction treats an unspecified action as NO ACTION, the SQL default
func normalizeAction(action string) string {
	action = strings.ToUpper(strings.Join(strings.Fields(action), " "))
	if action == "" {
		return "NO ACTION"
	}
	return action
}
