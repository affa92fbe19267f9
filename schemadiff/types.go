package schemadiff

import (
	"github.com/schemadiff/schemadiff/internal/diff"
	"github.com/schemadiff/schemadiff/internal/model"
	"github.com/schemadiff/schemadiff/internal/plan"
)

// Re-export important types for external consumption

// Plan is a rendered comparison of two schemas.
type Plan = plan.Plan

// Database is the schema model of one source.
type Database = model.Database

// Entity is a table of a Database.
type Entity = model.Entity

// Field is a column of an Entity.
type Field = model.Field

// Platform resolves type names of one database vendor.
type Platform = model.Platform

// DatabaseDiff holds the entity changes between two databases.
type DatabaseDiff = diff.DatabaseDiff

// EntityDiff holds the field, index and foreign key changes of one entity.
type EntityDiff = diff.EntityDiff

// EntityChange is one of AddedEntity, RemovedEntity, ModifiedEntity or RenamedEntity.
type EntityChange = diff.EntityChange

type (
	AddedEntity    = diff.AddedEntity
	RemovedEntity  = diff.RemovedEntity
	ModifiedEntity = diff.ModifiedEntity
	RenamedEntity  = diff.RenamedEntity
)

// Option configures Compare.
type Option = diff.Option

// Comparison options
var (
	WithRenaming         = diff.WithRenaming
	WithRemoveEntity     = diff.WithRemoveEntity
	WithExcludedEntities = diff.WithExcludedEntities
)
