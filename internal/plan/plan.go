package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/schemadiff/schemadiff/internal/color"
	"github.com/schemadiff/schemadiff/internal/diff"
	"github.com/schemadiff/schemadiff/internal/fingerprint"
	"github.com/schemadiff/schemadiff/internal/model"
	"github.com/schemadiff/schemadiff/internal/version"
)

// Plan represents the changes needed to turn one schema into another
type Plan struct {
	// The underlying diff data, nil when nothing changed
	Diff *diff.DatabaseDiff `json:"-"`

	SourceFingerprint *fingerprint.SchemaFingerprint `json:"source_fingerprint"`
	TargetFingerprint *fingerprint.SchemaFingerprint `json:"target_fingerprint"`

	// Plan metadata
	CreatedAt time.Time `json:"created_at"`
}

// ObjectChange represents a single change to a schema object
type ObjectChange struct {
	Address string `json:"address"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Entity  string `json:"entity,omitempty"`
	Change  Change `json:"change"`
}

// Change represents the actual change being made
type Change struct {
	Actions []string       `json:"actions"`
	Before  map[string]any `json:"before"`
	After   map[string]any `json:"after"`
}

// PlanJSON represents the structured JSON output format
type PlanJSON struct {
	Version           string         `json:"version"`
	SchemadiffVersion string         `json:"schemadiff_version"`
	CreatedAt         time.Time      `json:"created_at"`
	SourceFingerprint string         `json:"source_fingerprint,omitempty"`
	TargetFingerprint string         `json:"target_fingerprint,omitempty"`
	Summary           PlanSummary    `json:"summary"`
	ObjectChanges     []ObjectChange `json:"object_changes"`
}

// PlanSummary provides counts of entity changes. Field, index and foreign key
// changes belong to their entity and only show up in ByType.
type PlanSummary struct {
	Add     int                    `json:"add"`
	Change  int                    `json:"change"`
	Destroy int                    `json:"destroy"`
	Rename  int                    `json:"rename"`
	Total   int                    `json:"total"`
	ByType  map[string]TypeSummary `json:"by_type"`
}

// TypeSummary provides counts for a specific object type
type TypeSummary struct {
	Add     int `json:"add"`
	Change  int `json:"change"`
	Destroy int `json:"destroy"`
	Rename  int `json:"rename,omitempty"`
}

// ObjectType represents the kinds of schema objects in display order
type ObjectType string

const (
	ObjectTypeEntity     ObjectType = "entities"
	ObjectTypeField      ObjectType = "fields"
	ObjectTypeIndex      ObjectType = "indexes"
	ObjectTypeForeignKey ObjectType = "foreign_keys"
)

func getObjectOrder() []ObjectType {
	return []ObjectType{
		ObjectTypeEntity,
		ObjectTypeField,
		ObjectTypeIndex,
		ObjectTypeForeignKey,
	}
}

const (
	actionCreate = "create"
	actionUpdate = "update"
	actionDelete = "delete"
	actionRename = "rename"
)

// NewPlan creates a plan from a comparison of two databases. d may be nil when nothing changed.
func NewPlan(from, to *model.Database, d *diff.DatabaseDiff) (*Plan, error) {
	plan := &Plan{
		Diff:      d,
		CreatedAt: time.Now(),
	}

	var err error
	if from != nil {
		if plan.SourceFingerprint, err = fingerprint.ComputeFingerprint(from); err != nil {
			return nil, err
		}
	}
	if to != nil {
		if plan.TargetFingerprint, err = fingerprint.ComputeFingerprint(to); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// HasChanges reports whether the plan contains any change
func (p *Plan) HasChanges() bool {
	return !p.Diff.IsEmpty()
}

// HumanColored returns a human-readable summary of the plan with color support
func (p *Plan) HumanColored(enableColor bool) string {
	c := color.New(enableColor)
	var summary strings.Builder

	planJSON := p.convertToStructuredJSON()

	if planJSON.Summary.Total == 0 {
		summary.WriteString("No changes detected.\n")
		return summary.String()
	}

	summary.WriteString(c.FormatPlanHeader(planJSON.Summary.Add, planJSON.Summary.Change,
		planJSON.Summary.Destroy, planJSON.Summary.Rename) + "\n\n")

	summary.WriteString(c.Bold("Summary by type:") + "\n")
	for _, objType := range getObjectOrder() {
		objTypeStr := string(objType)
		if ts, exists := planJSON.Summary.ByType[objTypeStr]; exists {
			summary.WriteString(c.FormatSummaryLine(objTypeStr, ts.Add, ts.Change, ts.Destroy) + "\n")
		}
	}
	summary.WriteString("\n")

	summary.WriteString(c.Bold("Entities:") + "\n")
	for _, change := range p.Diff.Changes() {
		p.writeEntityChange(&summary, change, c)
	}

	return summary.String()
}

// ToJSON returns the plan as structured JSON
func (p *Plan) ToJSON() (string, error) {
	planJSON := p.convertToStructuredJSON()

	data, err := json.MarshalIndent(planJSON, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan to JSON: %w", err)
	}
	return string(data), nil
}

// ========== PRIVATE METHODS ==========

func (p *Plan) writeEntityChange(summary *strings.Builder, change diff.EntityChange, c *color.Color) {
	switch v := change.(type) {
	case diff.AddedEntity:
		fmt.Fprintf(summary, "  %s %s\n", c.PlanSymbol("add"), v.Entity.Name)
		for _, f := range v.Entity.Fields {
			fmt.Fprintf(summary, "      %s %s\n", c.PlanSymbol("add"), describeField(f))
		}
	case diff.RemovedEntity:
		fmt.Fprintf(summary, "  %s %s\n", c.PlanSymbol("destroy"), v.Entity.Name)
	case diff.ModifiedEntity:
		fmt.Fprintf(summary, "  %s %s\n", c.PlanSymbol("change"), v.Diff.To.Name)
		writeEntityDiff(summary, v.Diff, c)
	case diff.RenamedEntity:
		fmt.Fprintf(summary, "  %s %s -> %s\n", c.PlanSymbol("rename"), v.From.Name, v.NewName)
		if v.Diff != nil {
			writeEntityDiff(summary, v.Diff, c)
		}
	}
}

func writeEntityDiff(summary *strings.Builder, d *diff.EntityDiff, c *color.Color) {
	d.AddedFields.Each(func(_ string, f *model.Field) {
		fmt.Fprintf(summary, "      %s %s\n", c.PlanSymbol("add"), describeField(f))
	})
	d.ModifiedFields.Each(func(name string, fd *diff.FieldDiff) {
		parts := make([]string, 0, len(fd.Changes))
		for _, ch := range fd.Changes {
			parts = append(parts, fmt.Sprintf("%s %s -> %s", ch.Attribute, formatValue(ch.Old), formatValue(ch.New)))
		}
		fmt.Fprintf(summary, "      %s %s: %s\n", c.PlanSymbol("change"), name, strings.Join(parts, ", "))
	})
	d.RemovedFields.Each(func(name string, _ *model.Field) {
		fmt.Fprintf(summary, "      %s %s\n", c.PlanSymbol("destroy"), name)
	})

	d.Indexes.Added.Each(func(key string, idx *model.Index) {
		fmt.Fprintf(summary, "      %s index %s\n", c.PlanSymbol("add"), describeIndex(key, idx))
	})
	d.Indexes.Modified.Each(func(key string, id *diff.IndexDiff) {
		fmt.Fprintf(summary, "      %s index %s\n", c.PlanSymbol("change"), describeIndex(key, id.To))
	})
	d.Indexes.Removed.Each(func(key string, _ *model.Index) {
		fmt.Fprintf(summary, "      %s index %s\n", c.PlanSymbol("destroy"), key)
	})

	d.ForeignKeys.Added.Each(func(key string, fk *model.ForeignKey) {
		fmt.Fprintf(summary, "      %s foreign key %s\n", c.PlanSymbol("add"), describeForeignKey(key, fk))
	})
	d.ForeignKeys.Modified.Each(func(key string, fd *diff.ForeignKeyDiff) {
		fmt.Fprintf(summary, "      %s foreign key %s\n", c.PlanSymbol("change"), describeForeignKey(key, fd.To))
	})
	d.ForeignKeys.Removed.Each(func(key string, _ *model.ForeignKey) {
		fmt.Fprintf(summary, "      %s foreign key %s\n", c.PlanSymbol("destroy"), key)
	})
}

func describeField(f *model.Field) string {
	var b strings.Builder
	b.WriteString(f.Name + " " + f.SQLType())
	if f.NotNull {
		b.WriteString(" NOT NULL")
	}
	if f.Default != nil {
		b.WriteString(" DEFAULT " + f.Default.String())
	}
	if f.AutoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	if f.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	return b.String()
}

func describeIndex(key string, idx *model.Index) string {
	s := key
	if idx.Name != "" {
		s += " (" + strings.Join(idx.Columns, ", ") + ")"
	}
	if idx.Unique {
		s += " UNIQUE"
	}
	return s
}

func describeForeignKey(key string, fk *model.ForeignKey) string {
	s := key
	if fk.Name != "" {
		s += fmt.Sprintf(" (%s) -> %s(%s)", strings.Join(fk.Columns, ", "), fk.ReferencedEntity, strings.Join(fk.ReferencedColumns, ", "))
	}
	if fk.OnDelete != "" {
		s += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" {
		s += " ON UPDATE " + fk.OnUpdate
	}
	return s
}

// formatValue renders an attribute value of a field change
func formatValue(v any) string {
	switch t := v.(type) {
	case *int:
		if t == nil {
			return "<none>"
		}
		return fmt.Sprintf("%d", *t)
	case *model.DefaultValue:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// convertToStructuredJSON converts the DatabaseDiff to a structured JSON format
func (p *Plan) convertToStructuredJSON() *PlanJSON {
	planJSON := &PlanJSON{
		Version:           version.ReportFormat(),
		SchemadiffVersion: version.App(),
		CreatedAt:         p.CreatedAt.Truncate(time.Second),
		Summary: PlanSummary{
			ByType: make(map[string]TypeSummary),
		},
		ObjectChanges: []ObjectChange{},
	}
	if p.SourceFingerprint != nil {
		planJSON.SourceFingerprint = p.SourceFingerprint.Hash
	}
	if p.TargetFingerprint != nil {
		planJSON.TargetFingerprint = p.TargetFingerprint.Hash
	}

	for _, change := range p.Diff.Changes() {
		switch v := change.(type) {
		case diff.AddedEntity:
			planJSON.add(entityChange(v.Entity.Name, actionCreate, nil, entityToMap(v.Entity)))
		case diff.RemovedEntity:
			planJSON.add(entityChange(v.Entity.Name, actionDelete, entityToMap(v.Entity), nil))
		case diff.ModifiedEntity:
			planJSON.add(entityChange(v.Diff.To.Name, actionUpdate, entityToMap(v.Diff.From), entityToMap(v.Diff.To)))
			planJSON.addEntityDiff(v.Diff)
		case diff.RenamedEntity:
			oc := entityChange(v.From.Name, actionRename, map[string]any{"name": v.From.Name}, map[string]any{"name": v.NewName})
			planJSON.add(oc)
			if v.Diff != nil {
				planJSON.addEntityDiff(v.Diff)
			}
		}
	}

	planJSON.calculateSummary()
	return planJSON
}

func (j *PlanJSON) add(oc ObjectChange) {
	j.ObjectChanges = append(j.ObjectChanges, oc)
}

func (j *PlanJSON) addEntityDiff(d *diff.EntityDiff) {
	entity := d.To.Name
	sub := func(objType ObjectType, name, action string, before, after map[string]any) {
		j.add(ObjectChange{
			Address: entity + "." + name,
			Type:    string(objType),
			Name:    name,
			Entity:  entity,
			Change:  Change{Actions: []string{action}, Before: before, After: after},
		})
	}

	d.AddedFields.Each(func(name string, f *model.Field) {
		sub(ObjectTypeField, name, actionCreate, nil, fieldToMap(f))
	})
	d.ModifiedFields.Each(func(name string, fd *diff.FieldDiff) {
		before := make(map[string]any, len(fd.Changes))
		after := make(map[string]any, len(fd.Changes))
		for _, ch := range fd.Changes {
			before[string(ch.Attribute)] = jsonValue(ch.Old)
			after[string(ch.Attribute)] = jsonValue(ch.New)
		}
		sub(ObjectTypeField, name, actionUpdate, before, after)
	})
	d.RemovedFields.Each(func(name string, f *model.Field) {
		sub(ObjectTypeField, name, actionDelete, fieldToMap(f), nil)
	})

	d.Indexes.Added.Each(func(key string, idx *model.Index) {
		sub(ObjectTypeIndex, key, actionCreate, nil, indexToMap(idx))
	})
	d.Indexes.Modified.Each(func(key string, id *diff.IndexDiff) {
		sub(ObjectTypeIndex, key, actionUpdate, indexToMap(id.From), indexToMap(id.To))
	})
	d.Indexes.Removed.Each(func(key string, idx *model.Index) {
		sub(ObjectTypeIndex, key, actionDelete, indexToMap(idx), nil)
	})

	d.ForeignKeys.Added.Each(func(key string, fk *model.ForeignKey) {
		sub(ObjectTypeForeignKey, key, actionCreate, nil, foreignKeyToMap(fk))
	})
	d.ForeignKeys.Modified.Each(func(key string, fd *diff.ForeignKeyDiff) {
		sub(ObjectTypeForeignKey, key, actionUpdate, foreignKeyToMap(fd.From), foreignKeyToMap(fd.To))
	})
	d.ForeignKeys.Removed.Each(func(key string, fk *model.ForeignKey) {
		sub(ObjectTypeForeignKey, key, actionDelete, foreignKeyToMap(fk), nil)
	})
}

// calculateSummary counts entity level changes in the totals and every object in ByType
func (j *PlanJSON) calculateSummary() {
	for _, change := range j.ObjectChanges {
		stats := j.Summary.ByType[change.Type]
		entityLevel := change.Type == string(ObjectTypeEntity)

		switch change.Change.Actions[0] {
		case actionCreate:
			stats.Add++
			if entityLevel {
				j.Summary.Add++
			}
		case actionUpdate:
			stats.Change++
			if entityLevel {
				j.Summary.Change++
			}
		case actionDelete:
			stats.Destroy++
			if entityLevel {
				j.Summary.Destroy++
			}
		case actionRename:
			stats.Rename++
			if entityLevel {
				j.Summary.Rename++
			}
		}

		j.Summary.ByType[change.Type] = stats
	}

	j.Summary.Total = j.Summary.Add + j.Summary.Change + j.Summary.Destroy + j.Summary.Rename
}

func entityChange(name, action string, before, after map[string]any) ObjectChange {
	return ObjectChange{
		Address: name,
		Type:    string(ObjectTypeEntity),
		Name:    name,
		Change:  Change{Actions: []string{action}, Before: before, After: after},
	}
}

func entityToMap(e *model.Entity) map[string]any {
	fields := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, f.Name)
	}
	m := map[string]any{
		"name":   e.Name,
		"fields": fields,
	}
	if e.Namespace != "" {
		m["namespace"] = e.Namespace
	}
	return m
}

func fieldToMap(f *model.Field) map[string]any {
	m := map[string]any{
		"type":     f.Type,
		"not_null": f.NotNull,
	}
	if f.Size != nil {
		m["size"] = *f.Size
	}
	if f.Scale != nil {
		m["scale"] = *f.Scale
	}
	if f.Default != nil {
		m["default"] = f.Default
	}
	if f.AutoIncrement {
		m["auto_increment"] = true
	}
	if f.PrimaryKey {
		m["primary_key"] = true
	}
	return m
}

func indexToMap(idx *model.Index) map[string]any {
	return map[string]any{
		"name":    idx.Name,
		"columns": idx.Columns,
		"unique":  idx.Unique,
	}
}

func foreignKeyToMap(fk *model.ForeignKey) map[string]any {
	return map[string]any{
		"name":               fk.Name,
		"columns":            fk.Columns,
		"referenced_entity":  fk.ReferencedEntity,
		"referenced_columns": fk.ReferencedColumns,
		"on_delete":          fk.OnDelete,
		"on_update":          fk.OnUpdate,
	}
}

// jsonValue dereferences size and scale pointers so absent values encode as null
func jsonValue(v any) any {
	if p, ok := v.(*int); ok {
		if p == nil {
			return nil
		}
		return *p
	}
	return v
}
