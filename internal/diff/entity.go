package diff

import (
	"github.com/schemadiff/schemadiff/internal/fingerprint"
	"github.com/schemadiff/schemadiff/internal/model"
)

// EntityDiff represents changes between two versions of an entity
type EntityDiff struct {
	From *model.Entity
	To   *model.Entity

	AddedFields    *OrderedMap[*model.Field]
	RemovedFields  *OrderedMap[*model.Field]
	ModifiedFields *OrderedMap[*FieldDiff]
	Indexes        *IndexChanges
	ForeignKeys    *ForeignKeyChanges
}

// IsEmpty reports whether the two entity versions are structurally equal
func (d *EntityDiff) IsEmpty() bool {
	return d.AddedFields.IsEmpty() &&
		d.RemovedFields.IsEmpty() &&
		d.ModifiedFields.IsEmpty() &&
		d.Indexes.IsEmpty() &&
		d.ForeignKeys.IsEmpty()
}

// Reverse returns the diff that turns "to" back into "from"
func (d *EntityDiff) Reverse() *EntityDiff {
	r := &EntityDiff{
		From:           d.To,
		To:             d.From,
		AddedFields:    d.RemovedFields,
		RemovedFields:  d.AddedFields,
		ModifiedFields: NewOrderedMap[*FieldDiff](),
		Indexes: &IndexChanges{
			Added:    d.Indexes.Removed,
			Removed:  d.Indexes.Added,
			Modified: NewOrderedMap[*IndexDiff](),
		},
		ForeignKeys: &ForeignKeyChanges{
			Added:    d.ForeignKeys.Removed,
			Removed:  d.ForeignKeys.Added,
			Modified: NewOrderedMap[*ForeignKeyDiff](),
		},
	}
	d.ModifiedFields.Each(func(name string, fd *FieldDiff) {
		r.ModifiedFields.Set(name, fd.Reverse())
	})
	d.Indexes.Modified.Each(func(key string, id *IndexDiff) {
		r.Indexes.Modified.Set(key, &IndexDiff{From: id.To, To: id.From})
	})
	d.ForeignKeys.Modified.Each(func(key string, fd *ForeignKeyDiff) {
		r.ForeignKeys.Modified.Set(key, &ForeignKeyDiff{From: fd.To, To: fd.From})
	})
	return r
}

// ComputeEntityDiff compares two entity versions and returns nil when they are
// structurally equal. Fields are matched by exact name; a renamed field shows up
// as one removal plus one addition. Type names are validated against the platform
// of the owning database when one is set.
func ComputeEntityDiff(from, to *model.Entity) (*EntityDiff, error) {
	d, errs := diffEntities(from, to, entityPlatform(from, to))
	if err := newComparisonError(errs); err != nil {
		return nil, err
	}
	return d, nil
}

// diffEntities returns the entity diff, or nil when nothing changed, together with
// one error per field that could not be compared
func diffEntities(from, to *model.Entity, platform *model.Platform) (*EntityDiff, []error) {
	d := &EntityDiff{
		From:           from,
		To:             to,
		AddedFields:    NewOrderedMap[*model.Field](),
		RemovedFields:  NewOrderedMap[*model.Field](),
		ModifiedFields: NewOrderedMap[*FieldDiff](),
	}

	oldFields := make(map[string]*model.Field, len(from.Fields))
	for _, f := range from.Fields {
		oldFields[f.Name] = f
	}
	newFields := make(map[string]*model.Field, len(to.Fields))
	for _, f := range to.Fields {
		newFields[f.Name] = f
	}

	var errs []error

	// Find removed and modified fields
	for _, oldField := range from.Fields {
		newField, exists := newFields[oldField.Name]
		if !exists {
			if platform != nil && !platform.IsKnownType(oldField.Type) {
				errs = append(errs, &FieldError{Entity: from.Name, Field: oldField.Name, Err: unknownType(oldField.Type, platform)})
				continue
			}
			d.RemovedFields.Set(oldField.Name, oldField)
			continue
		}
		fd, err := CompareFields(oldField, newField, platform)
		if err != nil {
			errs = append(errs, &FieldError{Entity: to.Name, Field: oldField.Name, Err: err})
			continue
		}
		if fd != nil {
			d.ModifiedFields.Set(oldField.Name, fd)
		}
	}

	// Find added fields
	for _, newField := range to.Fields {
		if _, exists := oldFields[newField.Name]; exists {
			continue
		}
		if platform != nil && !platform.IsKnownType(newField.Type) {
			errs = append(errs, &FieldError{Entity: to.Name, Field: newField.Name, Err: unknownType(newField.Type, platform)})
			continue
		}
		d.AddedFields.Set(newField.Name, newField)
	}

	d.Indexes = CompareIndexes(from, to)
	d.ForeignKeys = CompareForeignKeys(from, to)

	if len(errs) > 0 || d.IsEmpty() {
		return nil, errs
	}
	return d, nil
}

// IsEquivalent reports whether two entities have the same field name/type signature,
// regardless of entity name, field order, indexes and foreign keys
func IsEquivalent(a, b *model.Entity) bool {
	platform := entityPlatform(a, b)
	sigA, err := fingerprint.EntitySignature(a, platform)
	if err != nil {
		return false
	}
	sigB, err := fingerprint.EntitySignature(b, platform)
	if err != nil {
		return false
	}
	return sigA == sigB
}

// entityPlatform returns the platform of the first entity attached to a database that has one
func entityPlatform(entities ...*model.Entity) *model.Platform {
	for _, e := range entities {
		if db := e.Database(); db != nil && db.Platform != nil {
			return db.Platform
		}
	}
	return nil
}
