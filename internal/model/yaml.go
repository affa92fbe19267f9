package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SchemaYAML is the document format of a YAML schema file
type SchemaYAML struct {
	Database string       `yaml:"database"`
	Platform string       `yaml:"platform,omitempty"`
	Entities []EntityYAML `yaml:"entities"`
}

// EntityYAML describes one entity in a YAML schema file
type EntityYAML struct {
	Name        string           `yaml:"name"`
	Namespace   string           `yaml:"namespace,omitempty"`
	Package     string           `yaml:"package,omitempty"`
	SkipSQL     bool             `yaml:"skip_sql,omitempty"`
	Fields      []FieldYAML      `yaml:"fields"`
	Indexes     []IndexYAML      `yaml:"indexes,omitempty"`
	ForeignKeys []ForeignKeyYAML `yaml:"foreign_keys,omitempty"`
}

// FieldYAML describes one field in a YAML schema file
type FieldYAML struct {
	Name          string       `yaml:"name"`
	Type          string       `yaml:"type"`
	Size          *int         `yaml:"size,omitempty"`
	Scale         *int         `yaml:"scale,omitempty"`
	NotNull       bool         `yaml:"not_null,omitempty"`
	PrimaryKey    bool         `yaml:"primary_key,omitempty"`
	AutoIncrement bool         `yaml:"auto_increment,omitempty"`
	Default       *DefaultYAML `yaml:"default,omitempty"`
}

// DefaultYAML holds either a literal value or an expression
type DefaultYAML struct {
	Value      *string `yaml:"value,omitempty"`
	Expression *string `yaml:"expression,omitempty"`
}

// IndexYAML describes one index in a YAML schema file
type IndexYAML struct {
	Name    string   `yaml:"name,omitempty"`
	Columns []string `yaml:"columns,flow"`
	Unique  bool     `yaml:"unique,omitempty"`
}

// ForeignKeyYAML describes one foreign key in a YAML schema file
type ForeignKeyYAML struct {
	Name              string   `yaml:"name,omitempty"`
	Columns           []string `yaml:"columns,flow"`
	References        string   `yaml:"references"`
	ReferencedColumns []string `yaml:"referenced_columns,flow"`
	OnDelete          string   `yaml:"on_delete,omitempty"`
	OnUpdate          string   `yaml:"on_update,omitempty"`
}

// LoadYAMLFile reads a YAML schema file
func LoadYAMLFile(path string, platform *Platform) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return LoadYAML(data, platform)
}

// LoadYAML parses a YAML schema document. The platform named in the document is used
// when platform is nil.
func LoadYAML(data []byte, platform *Platform) (*Database, error) {
	var doc SchemaYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}

	if platform == nil && doc.Platform != "" {
		p, err := PlatformByName(doc.Platform)
		if err != nil {
			return nil, err
		}
		platform = p
	}

	db := NewDatabase(doc.Database, platform)
	for _, ey := range doc.Entities {
		entity, err := ey.toEntity()
		if err != nil {
			return nil, err
		}
		if err := db.AddEntity(entity); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (ey EntityYAML) toEntity() (*Entity, error) {
	entity := &Entity{
		Name:      ey.Name,
		Namespace: ey.Namespace,
		Package:   ey.Package,
		SkipSQL:   ey.SkipSQL,
	}
	if entity.Name == "" {
		return nil, fmt.Errorf("entity without a name")
	}

	for _, fy := range ey.Fields {
		field := &Field{
			Name: fy.Name,
			Domain: Domain{
				Type:  fy.Type,
				Size:  fy.Size,
				Scale: fy.Scale,
			},
			NotNull:       fy.NotNull,
			PrimaryKey:    fy.PrimaryKey,
			AutoIncrement: fy.AutoIncrement,
		}
		if fy.Default != nil {
			switch {
			case fy.Default.Value != nil && fy.Default.Expression != nil:
				return nil, fmt.Errorf("field %s.%s: default has both value and expression", ey.Name, fy.Name)
			case fy.Default.Value != nil:
				field.Default = NewValueDefault(*fy.Default.Value)
			case fy.Default.Expression != nil:
				field.Default = NewExpressionDefault(*fy.Default.Expression)
			}
		}
		if err := entity.AddField(field); err != nil {
			return nil, err
		}
	}

	for _, iy := range ey.Indexes {
		entity.AddIndex(&Index{Name: iy.Name, Columns: iy.Columns, Unique: iy.Unique})
	}
	for _, fky := range ey.ForeignKeys {
		entity.AddForeignKey(&ForeignKey{
			Name:              fky.Name,
			Columns:           fky.Columns,
			ReferencedEntity:  fky.References,
			ReferencedColumns: fky.ReferencedColumns,
			OnDelete:          fky.OnDelete,
			OnUpdate:          fky.OnUpdate,
		})
	}
	return entity, nil
}

// ToYAML renders a database in the YAML schema format
func ToYAML(db *Database) ([]byte, error) {
	doc := SchemaYAML{Database: db.Name}
	if db.Platform != nil {
		doc.Platform = db.Platform.Name
	}
	for _, e := range db.Entities {
		ey := EntityYAML{
			Name:      e.Name,
			Namespace: e.Namespace,
			Package:   e.Package,
			SkipSQL:   e.SkipSQL,
		}
		for _, f := range e.Fields {
			fy := FieldYAML{
				Name:          f.Name,
				Type:          f.Type,
				Size:          f.Size,
				Scale:         f.Scale,
				NotNull:       f.NotNull,
				PrimaryKey:    f.PrimaryKey,
				AutoIncrement: f.AutoIncrement,
			}
			if f.Default != nil {
				value := f.Default.Value
				if f.Default.IsExpression() {
					fy.Default = &DefaultYAML{Expression: &value}
				} else {
					fy.Default = &DefaultYAML{Value: &value}
				}
			}
			ey.Fields = append(ey.Fields, fy)
		}
		for _, idx := range e.Indexes {
			ey.Indexes = append(ey.Indexes, IndexYAML{Name: idx.Name, Columns: idx.Columns, Unique: idx.Unique})
		}
		for _, fk := range e.ForeignKeys {
			ey.ForeignKeys = append(ey.ForeignKeys, ForeignKeyYAML{
				Name:              fk.Name,
				Columns:           fk.Columns,
				References:        fk.ReferencedEntity,
				ReferencedColumns: fk.ReferencedColumns,
				OnDelete:          fk.OnDelete,
				OnUpdate:          fk.OnUpdate,
			})
		}
		doc.Entities = append(doc.Entities, ey)
	}
	return yaml.Marshal(doc)
}
