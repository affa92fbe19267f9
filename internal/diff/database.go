package diff

import (
	"fmt"

	"github.com/schemadiff/schemadiff/internal/fingerprint"
	"github.com/schemadiff/schemadiff/internal/logger"
	"github.com/schemadiff/schemadiff/internal/model"
)

// DatabaseComparator classifies every comparable entity of two databases into
// the added, removed, modified or renamed partition.
//
// Entities flagged SkipSQL and entities named in ExcludedEntities are dropped
// from both sides before anything else, including rename detection.
type DatabaseComparator struct {
	from *model.Database
	to   *model.Database

	// ExcludedEntities are matched case-sensitively against both sides
	ExcludedEntities []string
	// WithRenaming enables table-level rename detection
	WithRenaming bool
	// RemoveEntity controls whether entities present only in "from" are reported
	RemoveEntity bool

	diff *DatabaseDiff

	// signature caches keyed by entity index within each database
	fromSignatures map[int]string
	toSignatures   map[int]string
}

// NewDatabaseComparator creates a comparator with renaming disabled and removals reported
func NewDatabaseComparator(from, to *model.Database) *DatabaseComparator {
	return &DatabaseComparator{
		from:         from,
		to:           to,
		RemoveEntity: true,
	}
}

// Option configures a DatabaseComparator
type Option func(*DatabaseComparator)

// WithRenaming enables or disables rename detection
func WithRenaming(enabled bool) Option {
	return func(c *DatabaseComparator) {
		c.WithRenaming = enabled
	}
}

// WithRemoveEntity controls whether entities only present in "from" are reported as removed
func WithRemoveEntity(enabled bool) Option {
	return func(c *DatabaseComparator) {
		c.RemoveEntity = enabled
	}
}

// WithExcludedEntities adds entity names that never appear in the diff
func WithExcludedEntities(names ...string) Option {
	return func(c *DatabaseComparator) {
		c.ExcludedEntities = append(c.ExcludedEntities, names...)
	}
}

// ComputeDiff compares two databases and returns nil when nothing changed
func ComputeDiff(from, to *model.Database, opts ...Option) (*DatabaseDiff, error) {
	c := NewDatabaseComparator(from, to)
	for _, opt := range opts {
		opt(c)
	}
	if _, err := c.CompareEntities(); err != nil {
		return nil, err
	}
	return c.DatabaseDiff(), nil
}

// DatabaseDiff returns the result of the last CompareEntities call, or nil when it found no change
func (c *DatabaseComparator) DatabaseDiff() *DatabaseDiff {
	if c.diff.IsEmpty() {
		return nil
	}
	return c.diff
}

// CompareEntities classifies the entities of both databases and returns the number
// of changed entities. A rename counts once. On error no diff is recorded.
func (c *DatabaseComparator) CompareEntities() (int, error) {
	c.diff = nil
	log := logger.Get()

	if err := c.validate(); err != nil {
		return 0, err
	}

	platform := c.platform()
	result := newDatabaseDiff(c.from, c.to)
	c.fromSignatures = make(map[int]string)
	c.toSignatures = make(map[int]string)

	excluded := make(map[string]bool, len(c.ExcludedEntities))
	for _, name := range c.ExcludedEntities {
		excluded[name] = true
	}

	fromEntities := comparableEntities(c.from, excluded)
	toEntities := comparableEntities(c.to, excluded)

	toByName := make(map[string]indexedEntity, len(toEntities))
	for _, ie := range toEntities {
		toByName[ie.entity.Name] = ie
	}
	fromByName := make(map[string]bool, len(fromEntities))
	for _, ie := range fromEntities {
		fromByName[ie.entity.Name] = true
	}

	var errs []error
	var removals, additions []indexedEntity

	// Entities on both sides
	for _, ie := range fromEntities {
		target, exists := toByName[ie.entity.Name]
		if !exists {
			removals = append(removals, ie)
			continue
		}
		ed, entityErrs := diffEntities(ie.entity, target.entity, platform)
		if len(entityErrs) > 0 {
			errs = append(errs, entityErrs...)
			continue
		}
		if ed != nil {
			log.Debug("Entity modified", "entity", ie.entity.Name)
			result.set(ie.entity.Name, ModifiedEntity{Diff: ed})
		}
	}
	for _, ie := range toEntities {
		if !fromByName[ie.entity.Name] {
			additions = append(additions, ie)
		}
	}

	if c.WithRenaming && len(removals) > 0 && len(additions) > 0 {
		renames, err := c.detectRenames(removals, additions, platform)
		if err != nil {
			errs = append(errs, err)
		}
		var remaining []indexedEntity
		for _, ie := range removals {
			target, ok := renames[ie.index]
			if !ok {
				remaining = append(remaining, ie)
				continue
			}
			ed, entityErrs := diffEntities(ie.entity, target.entity, platform)
			if len(entityErrs) > 0 {
				errs = append(errs, entityErrs...)
				continue
			}
			log.Debug("Entity renamed", "from", ie.entity.Name, "to", target.entity.Name)
			result.set(ie.entity.Name, RenamedEntity{
				NewName: target.entity.Name,
				From:    ie.entity,
				To:      target.entity,
				Diff:    ed,
			})
		}
		removals = remaining

		renamedTargets := make(map[int]bool, len(renames))
		for _, target := range renames {
			renamedTargets[target.index] = true
		}
		var unmatched []indexedEntity
		for _, ie := range additions {
			if !renamedTargets[ie.index] {
				unmatched = append(unmatched, ie)
			}
		}
		additions = unmatched
	}

	if c.RemoveEntity {
		for _, ie := range removals {
			log.Debug("Entity removed", "entity", ie.entity.Name)
			result.set(ie.entity.Name, RemovedEntity{Entity: ie.entity})
		}
	} else if len(removals) > 0 {
		log.Debug("Ignoring entities only present in source", "count", len(removals))
	}

	for _, ie := range additions {
		log.Debug("Entity added", "entity", ie.entity.Name)
		result.set(ie.entity.Name, AddedEntity{Entity: ie.entity})
	}

	if err := newComparisonError(errs); err != nil {
		return 0, err
	}

	c.diff = result
	return result.Len(), nil
}

type indexedEntity struct {
	index  int
	entity *model.Entity
}

// comparableEntities returns the entities that take part in the comparison, keeping
// their position in the database as a stable key
func comparableEntities(db *model.Database, excluded map[string]bool) []indexedEntity {
	if db == nil {
		return nil
	}
	var out []indexedEntity
	for i, e := range db.Entities {
		if e.SkipSQL || excluded[e.Name] {
			continue
		}
		out = append(out, indexedEntity{index: i, entity: e})
	}
	return out
}

// detectRenames pairs removal and addition candidates whose signatures match exactly
// one candidate on each side. Ambiguous groups are left untouched. The result maps the
// index of a source entity to its target.
func (c *DatabaseComparator) detectRenames(removals, additions []indexedEntity, platform *model.Platform) (map[int]indexedEntity, error) {
	matches := make(map[int][]indexedEntity, len(removals))
	degree := make(map[int]int, len(additions))

	for _, r := range removals {
		fromSig, err := c.signature(c.fromSignatures, r, platform)
		if err != nil {
			return nil, err
		}
		for _, a := range additions {
			toSig, err := c.signature(c.toSignatures, a, platform)
			if err != nil {
				return nil, err
			}
			if fromSig == toSig {
				matches[r.index] = append(matches[r.index], a)
				degree[a.index]++
			}
		}
	}

	renames := make(map[int]indexedEntity)
	for _, r := range removals {
		candidates := matches[r.index]
		if len(candidates) == 1 && degree[candidates[0].index] == 1 {
			renames[r.index] = candidates[0]
		} else if len(candidates) > 1 {
			logger.Get().Debug("Ambiguous rename candidates", "entity", r.entity.Name, "candidates", len(candidates))
		}
	}
	return renames, nil
}

func (c *DatabaseComparator) signature(cache map[int]string, ie indexedEntity, platform *model.Platform) (string, error) {
	if sig, ok := cache[ie.index]; ok {
		return sig, nil
	}
	sig, err := fingerprint.EntitySignature(ie.entity, platform)
	if err != nil {
		return "", err
	}
	cache[ie.index] = sig
	return sig, nil
}

// validate rejects models violating the uniqueness invariants
func (c *DatabaseComparator) validate() error {
	if c.from == nil || c.to == nil {
		return fmt.Errorf("both databases are required")
	}
	if err := c.from.Validate(); err != nil {
		return fmt.Errorf("invalid source database %q: %w", c.from.Name, err)
	}
	if err := c.to.Validate(); err != nil {
		return fmt.Errorf("invalid target database %q: %w", c.to.Name, err)
	}
	return nil
}

// platform returns the type system used to validate and normalize types, preferring the target's
func (c *DatabaseComparator) platform() *model.Platform {
	if c.to.Platform != nil {
		return c.to.Platform
	}
	return c.from.Platform
}
