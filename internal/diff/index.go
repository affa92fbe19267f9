package diff

import (
	"slices"

	"github.com/schemadiff/schemadiff/internal/model"
)

// IndexDiff represents changes to an index sharing the same identity
type IndexDiff struct {
	From *model.Index
	To   *model.Index
}

// UniqueChanged reports whether the unique flag differs
func (d *IndexDiff) UniqueChanged() bool {
	return d.From.Unique != d.To.Unique
}

// ColumnsChanged reports whether the column list or its order differs
func (d *IndexDiff) ColumnsChanged() bool {
	return !slices.Equal(d.From.Columns, d.To.Columns)
}

// IndexChanges holds index differences keyed by index identity
type IndexChanges struct {
	Added    *OrderedMap[*model.Index]
	Removed  *OrderedMap[*model.Index]
	Modified *OrderedMap[*IndexDiff]
}

// IsEmpty reports whether no index changed
func (c *IndexChanges) IsEmpty() bool {
	return c.Added.IsEmpty() && c.Removed.IsEmpty() && c.Modified.IsEmpty()
}

// CompareIndexes compares the indexes of two entity versions by identity.
// Added indexes follow the order of "to", removed and modified ones the order of "from".
func CompareIndexes(from, to *model.Entity) *IndexChanges {
	changes := &IndexChanges{
		Added:    NewOrderedMap[*model.Index](),
		Removed:  NewOrderedMap[*model.Index](),
		Modified: NewOrderedMap[*IndexDiff](),
	}

	oldIndexes := make(map[string]*model.Index, len(from.Indexes))
	for _, idx := range from.Indexes {
		oldIndexes[idx.Identity()] = idx
	}
	newIndexes := make(map[string]*model.Index, len(to.Indexes))
	for _, idx := range to.Indexes {
		newIndexes[idx.Identity()] = idx
	}

	// Find added indexes
	for _, idx := range to.Indexes {
		if _, exists := oldIndexes[idx.Identity()]; !exists {
			changes.Added.Set(idx.Identity(), idx)
		}
	}

	// Find removed and modified indexes
	for _, oldIdx := range from.Indexes {
		key := oldIdx.Identity()
		newIdx, exists := newIndexes[key]
		if !exists {
			changes.Removed.Set(key, oldIdx)
			continue
		}
		if !indexesEqual(oldIdx, newIdx) {
			changes.Modified.Set(key, &IndexDiff{From: oldIdx, To: newIdx})
		}
	}

	return changes
}

// indexesEqual compares two indexes for equality
func indexesEqual(old, new *model.Index) bool {
	return old.Unique == new.Unique && slices.Equal(old.Columns, new.Columns)
}
