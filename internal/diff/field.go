package diff

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/schemadiff/schemadiff/internal/model"
)

var genericPlatform = model.Generic()

// Attribute names a compared property of a field
type Attribute string

const (
	AttributeType          Attribute = "type"
	AttributeSize          Attribute = "size"
	AttributeScale         Attribute = "scale"
	AttributeNotNull       Attribute = "notNull"
	AttributeDefault       Attribute = "default"
	AttributeAutoIncrement Attribute = "autoIncrement"
	AttributePrimaryKey    Attribute = "primaryKey"
)

// AttributeChange holds the old and new value of one changed attribute.
// Size and scale are *int, the default is *model.DefaultValue, flags are bool and the type is string.
type AttributeChange struct {
	Attribute Attribute
	Old       any
	New       any
}

// FieldDiff represents changes to a field
type FieldDiff struct {
	From    *model.Field
	To      *model.Field
	Changes []AttributeChange
}

// Changed reports whether the attribute differs
func (d *FieldDiff) Changed(attr Attribute) bool {
	_, ok := d.Change(attr)
	return ok
}

// Change returns the change recorded for an attribute
func (d *FieldDiff) Change(attr Attribute) (AttributeChange, bool) {
	for _, c := range d.Changes {
		if c.Attribute == attr {
			return c, true
		}
	}
	return AttributeChange{}, false
}

// Attributes lists the changed attributes in comparison order
func (d *FieldDiff) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(d.Changes))
	for _, c := range d.Changes {
		attrs = append(attrs, c.Attribute)
	}
	return attrs
}

// Reverse returns the diff that undoes this one
func (d *FieldDiff) Reverse() *FieldDiff {
	r := &FieldDiff{From: d.To, To: d.From, Changes: make([]AttributeChange, 0, len(d.Changes))}
	for _, c := range d.Changes {
		r.Changes = append(r.Changes, AttributeChange{Attribute: c.Attribute, Old: c.New, New: c.Old})
	}
	return r
}

// CompareFields compares two fields and returns nil when every attribute is equal.
// With a platform, type names must be registered in it; without one, any type name
// is accepted and resolved through the generic registry.
func CompareFields(from, to *model.Field, platform *model.Platform) (*FieldDiff, error) {
	if platform != nil {
		var errs []error
		for _, f := range []*model.Field{from, to} {
			if !platform.IsKnownType(f.Type) {
				errs = append(errs, unknownType(f.Type, platform))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
	} else {
		platform = genericPlatform
	}

	d := &FieldDiff{From: from, To: to}
	add := func(attr Attribute, old, new any) {
		d.Changes = append(d.Changes, AttributeChange{Attribute: attr, Old: old, New: new})
	}

	if platform.Normalize(from.Type) != platform.Normalize(to.Type) {
		add(AttributeType, from.Type, to.Type)
	}

	significant := platform.IsSizeSignificant(from.Type) || platform.IsSizeSignificant(to.Type)
	if !sizeEqual(from.Size, to.Size, significant) {
		add(AttributeSize, from.Size, to.Size)
	}
	if !sizeEqual(from.Scale, to.Scale, significant) {
		add(AttributeScale, from.Scale, to.Scale)
	}
	if from.NotNull != to.NotNull {
		add(AttributeNotNull, from.NotNull, to.NotNull)
	}

	info, _ := platform.Lookup(to.Type)
	if !defaultsEqual(from.Default, to.Default, info.Category) {
		add(AttributeDefault, from.Default, to.Default)
	}
	if from.AutoIncrement != to.AutoIncrement {
		add(AttributeAutoIncrement, from.AutoIncrement, to.AutoIncrement)
	}
	if from.PrimaryKey != to.PrimaryKey {
		add(AttributePrimaryKey, from.PrimaryKey, to.PrimaryKey)
	}

	if len(d.Changes) == 0 {
		return nil, nil
	}
	return d, nil
}

func unknownType(typeName string, platform *model.Platform) error {
	return fmt.Errorf("%w %q for platform %s", model.ErrUnknownType, typeName, platform.Name)
}

// sizeEqual compares sizes or scales. An absent value equals zero unless the type is size-significant.
func sizeEqual(a, b *int, significant bool) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a != nil && b != nil:
		return *a == *b
	case significant:
		return false
	case a != nil:
		return *a == 0
	default:
		return *b == 0
	}
}

// defaultsEqual compares defaults by kind first, then by cast value or normalized expression
func defaultsEqual(a, b *model.DefaultValue, category model.TypeCategory) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == model.DefaultKindExpression {
		return normalizeExpression(a.Value) == normalizeExpression(b.Value)
	}
	return valuesEqual(a.Value, b.Value, category)
}

func valuesEqual(a, b string, category model.TypeCategory) bool {
	switch category {
	case model.CategoryNumeric:
		fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
		fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if errA == nil && errB == nil {
			// NaN is a valid numeric default and equals itself here
			return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
		}
	case model.CategoryBoolean:
		ba, okA := parseBool(a)
		bb, okB := parseBool(b)
		if okA && okB {
			return ba == bb
		}
	}
	return a == b
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, true
	case "0", "f", "false", "n", "no", "off":
		return false, true
	}
	return false, false
}

var expressionAliases = map[string]string{
	"NOW()":                   "CURRENT_TIMESTAMP",
	"CURRENT_TIMESTAMP()":     "CURRENT_TIMESTAMP",
	"TRANSACTION_TIMESTAMP()": "CURRENT_TIMESTAMP",
}

// normalizeExpression upper-cases text outside string literals, collapses whitespace,
// strips redundant outer parentheses and maps known synonyms
func normalizeExpression(expr string) string {
	var b strings.Builder
	inQuote := false
	lastSpace := false
	for _, r := range strings.TrimSpace(expr) {
		switch {
		case r == '\'':
			inQuote = !inQuote
			lastSpace = false
			b.WriteRune(r)
		case inQuote:
			b.WriteRune(r)
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
		default:
			lastSpace = false
			b.WriteRune(unicode.ToUpper(r))
		}
	}

	s := b.String()
	for hasWrappingParens(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if alias, ok := expressionAliases[s]; ok {
		return alias
	}
	return s
}

// hasWrappingParens reports whether the first parenthesis closes at the last character
func hasWrappingParens(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}
