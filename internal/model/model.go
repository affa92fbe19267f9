package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateEntity is returned when an entity name appears twice in one database
	ErrDuplicateEntity = errors.New("duplicate entity")
	// ErrDuplicateField is returned when a field name appears twice in one entity
	ErrDuplicateField = errors.New("duplicate field")
	// ErrUnknownType is returned when a type name is not registered in a platform
	ErrUnknownType = errors.New("unknown type")
)

// DefaultKind tells how a default value is interpreted by the database
type DefaultKind string

const (
	DefaultKindValue      DefaultKind = "VALUE"
	DefaultKindExpression DefaultKind = "EXPRESSION"
)

// DefaultValue represents a column default, either a literal or an SQL expression
type DefaultValue struct {
	Kind  DefaultKind `json:"kind" yaml:"kind"`
	Value string      `json:"value" yaml:"value"`
}

// NewValueDefault creates a literal default value
func NewValueDefault(value string) *DefaultValue {
	return &DefaultValue{Kind: DefaultKindValue, Value: value}
}

// NewExpressionDefault creates an expression default value such as CURRENT_TIMESTAMP
func NewExpressionDefault(expr string) *DefaultValue {
	return &DefaultValue{Kind: DefaultKindExpression, Value: expr}
}

// IsExpression reports whether the default is evaluated by the database
func (d *DefaultValue) IsExpression() bool {
	return d != nil && d.Kind == DefaultKindExpression
}

func (d *DefaultValue) String() string {
	if d == nil {
		return "<none>"
	}
	if d.Kind == DefaultKindExpression {
		return d.Value
	}
	return fmt.Sprintf("'%s'", d.Value)
}

// Domain describes the storage of a field: type, size, scale and default
type Domain struct {
	Type    string        `json:"type"`
	Size    *int          `json:"size,omitempty"`
	Scale   *int          `json:"scale,omitempty"`
	Default *DefaultValue `json:"default,omitempty"`
}

// SQLType renders the domain as a type declaration, e.g. DECIMAL(10,2)
func (d Domain) SQLType() string {
	switch {
	case d.Size != nil && d.Scale != nil:
		return fmt.Sprintf("%s(%d,%d)", d.Type, *d.Size, *d.Scale)
	case d.Size != nil:
		return fmt.Sprintf("%s(%d)", d.Type, *d.Size)
	default:
		return d.Type
	}
}

// Field represents a column of an entity
type Field struct {
	Name string `json:"name"`
	Domain
	NotNull       bool `json:"not_null,omitempty"`
	AutoIncrement bool `json:"auto_increment,omitempty"`
	PrimaryKey    bool `json:"primary_key,omitempty"`
}

// NewField creates a field of the given type
func NewField(name, typeName string) *Field {
	return &Field{Name: name, Domain: Domain{Type: typeName}}
}

// SetSize sets the size of the field's domain
func (f *Field) SetSize(size int) *Field {
	f.Size = &size
	return f
}

// SetScale sets the scale of the field's domain
func (f *Field) SetScale(scale int) *Field {
	f.Scale = &scale
	return f
}

// Index represents an index over one or more columns of an entity
type Index struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// Identity returns the explicit name, or the ordered column tuple when the index is unnamed
func (i *Index) Identity() string {
	if i.Name != "" {
		return i.Name
	}
	return "(" + strings.Join(i.Columns, ", ") + ")"
}

// ForeignKey represents a reference from local columns to columns of another entity
type ForeignKey struct {
	Name              string   `json:"name,omitempty"`
	Columns           []string `json:"columns"`
	ReferencedEntity  string   `json:"referenced_entity"`
	ReferencedColumns []string `json:"referenced_columns"`
	OnDelete          string   `json:"on_delete,omitempty"`
	OnUpdate          string   `json:"on_update,omitempty"`
}

// Identity returns the explicit name, or the local columns plus the referenced target when unnamed
func (fk *ForeignKey) Identity() string {
	if fk.Name != "" {
		return fk.Name
	}
	return fmt.Sprintf("(%s) -> %s(%s)",
		strings.Join(fk.Columns, ", "), fk.ReferencedEntity, strings.Join(fk.ReferencedColumns, ", "))
}

// Entity represents a table
type Entity struct {
	Name        string        `json:"name"`
	Namespace   string        `json:"namespace,omitempty"`
	Package     string        `json:"package,omitempty"`
	SkipSQL     bool          `json:"skip_sql,omitempty"`
	Fields      []*Field      `json:"fields"`
	Indexes     []*Index      `json:"indexes,omitempty"`
	ForeignKeys []*ForeignKey `json:"foreign_keys,omitempty"`

	database *Database
}

// NewEntity creates an empty entity
func NewEntity(name string) *Entity {
	return &Entity{Name: name}
}

// Database returns the database the entity was added to, or nil
func (e *Entity) Database() *Database {
	return e.database
}

// AddField appends a field, rejecting a name already present
func (e *Entity) AddField(f *Field) error {
	if e.Field(f.Name) != nil {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateField, e.Name, f.Name)
	}
	e.Fields = append(e.Fields, f)
	return nil
}

// AddIndex appends an index
func (e *Entity) AddIndex(idx *Index) {
	e.Indexes = append(e.Indexes, idx)
}

// AddForeignKey appends a foreign key
func (e *Entity) AddForeignKey(fk *ForeignKey) {
	e.ForeignKeys = append(e.ForeignKeys, fk)
}

// Field returns the field with the given name, or nil
func (e *Entity) Field(name string) *Field {
	for _, f := range e.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// PrimaryKey returns the primary key fields in declaration order
func (e *Entity) PrimaryKey() []*Field {
	var pk []*Field
	for _, f := range e.Fields {
		if f.PrimaryKey {
			pk = append(pk, f)
		}
	}
	return pk
}

// Validate checks that field names are unique
func (e *Entity) Validate() error {
	seen := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		if seen[f.Name] {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateField, e.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// Database represents a named collection of entities sharing a platform
type Database struct {
	Name     string    `json:"name"`
	Platform *Platform `json:"-"`
	Entities []*Entity `json:"entities"`
}

// NewDatabase creates an empty database bound to an optional platform
func NewDatabase(name string, platform *Platform) *Database {
	return &Database{Name: name, Platform: platform}
}

// AddEntity appends an entity and sets its back-reference, rejecting a name already present
func (d *Database) AddEntity(e *Entity) error {
	if d.Entity(e.Name) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateEntity, e.Name)
	}
	e.database = d
	d.Entities = append(d.Entities, e)
	return nil
}

// Entity returns the entity with the given name, or nil
func (d *Database) Entity(name string) *Entity {
	for _, e := range d.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// EntityNames returns entity names in declaration order
func (d *Database) EntityNames() []string {
	names := make([]string, 0, len(d.Entities))
	for _, e := range d.Entities {
		names = append(names, e.Name)
	}
	return names
}

// Validate checks the uniqueness invariants of the whole model
func (d *Database) Validate() error {
	seen := make(map[string]bool, len(d.Entities))
	var errs []error
	for _, e := range d.Entities {
		if seen[e.Name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.Name))
			continue
		}
		seen[e.Name] = true
		if err := e.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
