package model

import (
	"fmt"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Parser builds a Database model from PostgreSQL DDL
type Parser struct {
	db       *Database
	platform *Platform
}

// NewParser creates a parser resolving types through the given platform.
// A nil platform falls back to the PostgreSQL platform.
func NewParser(platform *Platform) *Parser {
	if platform == nil {
		platform = PgSQL()
	}
	return &Parser{platform: platform}
}

// ParseSQL parses DDL into a Database model
func ParseSQL(name, sqlContent string, platform *Platform) (*Database, error) {
	return NewParser(platform).ParseSQL(name, sqlContent)
}

// ParseSQL parses CREATE TABLE, CREATE INDEX and ALTER TABLE statements.
// Other statements are ignored.
func (p *Parser) ParseSQL(name, sqlContent string) (*Database, error) {
	p.db = NewDatabase(name, p.platform)

	result, err := pg_query.Parse(sqlContent)
	if err != nil {
		return nil, fmt.Errorf("pg_query parse error: %w", err)
	}

	for _, rawStmt := range result.Stmts {
		if err := p.processStatement(rawStmt.Stmt); err != nil {
			return nil, err
		}
	}

	return p.db, nil
}

// processStatement processes a single parsed statement node
func (p *Parser) processStatement(stmt *pg_query.Node) error {
	switch node := stmt.Node.(type) {
	case *pg_query.Node_CreateStmt:
		return p.parseCreateTable(node.CreateStmt)
	case *pg_query.Node_IndexStmt:
		return p.parseCreateIndex(node.IndexStmt)
	case *pg_query.Node_AlterTableStmt:
		return p.parseAlterTable(node.AlterTableStmt)
	default:
		return nil
	}
}

// entityName qualifies the table name with its schema unless it lives in public
func entityName(rangeVar *pg_query.RangeVar) string {
	if rangeVar.Schemaname != "" && rangeVar.Schemaname != "public" {
		return rangeVar.Schemaname + "." + rangeVar.Relname
	}
	return rangeVar.Relname
}

func (p *Parser) parseCreateTable(createStmt *pg_query.CreateStmt) error {
	entity := NewEntity(entityName(createStmt.Relation))

	// table constraints refer to columns, so they run after all columns are known
	var constraints []*pg_query.Constraint
	for _, element := range createStmt.TableElts {
		switch elt := element.Node.(type) {
		case *pg_query.Node_ColumnDef:
			if err := p.addColumn(entity, elt.ColumnDef); err != nil {
				return err
			}
		case *pg_query.Node_Constraint:
			constraints = append(constraints, elt.Constraint)
		}
	}

	for _, cons := range constraints {
		if err := p.applyTableConstraint(entity, cons); err != nil {
			return err
		}
	}

	return p.db.AddEntity(entity)
}

// addColumn parses a column definition together with its inline constraints
func (p *Parser) addColumn(entity *Entity, colDef *pg_query.ColumnDef) error {
	field := &Field{Name: colDef.Colname}
	if colDef.TypeName != nil {
		p.parseTypeName(colDef.TypeName, field)
	}

	for _, node := range colDef.Constraints {
		cons := node.GetConstraint()
		if cons == nil {
			continue
		}
		switch cons.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			field.NotNull = true
		case pg_query.ConstrType_CONSTR_NULL:
			field.NotNull = false
		case pg_query.ConstrType_CONSTR_DEFAULT:
			p.applyDefault(field, cons.RawExpr)
		case pg_query.ConstrType_CONSTR_IDENTITY:
			field.AutoIncrement = true
			field.NotNull = true
		case pg_query.ConstrType_CONSTR_PRIMARY:
			field.PrimaryKey = true
			field.NotNull = true
		case pg_query.ConstrType_CONSTR_UNIQUE:
			name := cons.Conname
			if name == "" {
				name = fmt.Sprintf("%s_%s_key", baseName(entity.Name), field.Name)
			}
			entity.AddIndex(&Index{Name: name, Columns: []string{field.Name}, Unique: true})
		case pg_query.ConstrType_CONSTR_FOREIGN:
			fk := p.parseForeignKey(entity, cons)
			fk.Columns = []string{field.Name}
			if fk.Name == "" {
				fk.Name = fmt.Sprintf("%s_%s_fkey", baseName(entity.Name), field.Name)
			}
			entity.AddForeignKey(fk)
		}
	}

	return entity.AddField(field)
}

// parseTypeName resolves the column type, its size and scale
func (p *Parser) parseTypeName(typeName *pg_query.TypeName, field *Field) {
	var parts []string
	for _, name := range typeName.Names {
		if str := name.GetString_(); str != nil && str.Sval != "pg_catalog" {
			parts = append(parts, str.Sval)
		}
	}
	raw := strings.Join(parts, ".")

	switch strings.ToLower(raw) {
	case "serial", "serial4", "bigserial", "serial8", "smallserial", "serial2":
		field.AutoIncrement = true
		field.NotNull = true
	}

	if len(typeName.ArrayBounds) > 0 {
		field.Type = "ARRAY"
		return
	}
	field.Type = p.resolveType(raw)

	var mods []int
	for _, mod := range typeName.Typmods {
		if aConst := mod.GetAConst(); aConst != nil {
			if intVal := aConst.GetIval(); intVal != nil {
				mods = append(mods, int(intVal.Ival))
			}
		}
	}
	if len(mods) > 0 {
		field.SetSize(mods[0])
	}
	if len(mods) > 1 {
		field.SetScale(mods[1])
	}
}

// catalogTypes resolves the internal names pg_query reports (int4, float8, bpchar)
// whatever platform the model targets
var catalogTypes = PgSQL()

// portableTypes maps PostgreSQL-only types onto their closest vendor neutral type
var portableTypes = map[string]string{
	"TIMESTAMPTZ": "TIMESTAMP",
	"BYTEA":       "BLOB",
	"JSONB":       "JSON",
}

func (p *Parser) resolveType(raw string) string {
	name := catalogTypes.Normalize(raw)
	if p.platform.Name != PlatformPgSQL {
		if portable, ok := portableTypes[name]; ok {
			name = portable
		}
	}
	return p.platform.Normalize(name)
}

// applyDefault sets the default of a field from a DEFAULT expression.
// Literals become values, anything evaluated by the server becomes an expression.
func (p *Parser) applyDefault(field *Field, expr *pg_query.Node) {
	if expr == nil {
		field.Default = nil
		return
	}

	switch e := expr.Node.(type) {
	case *pg_query.Node_AConst:
		if e.AConst.Isnull {
			field.Default = nil
			return
		}
		if value, ok := constValue(e.AConst); ok {
			field.Default = NewValueDefault(value)
			return
		}
	case *pg_query.Node_TypeCast:
		if aConst := e.TypeCast.Arg.GetAConst(); aConst != nil {
			if value, ok := constValue(aConst); ok {
				field.Default = NewValueDefault(value)
				return
			}
		}
	case *pg_query.Node_FuncCall:
		if funcName(e.FuncCall) == "nextval" {
			field.AutoIncrement = true
			field.Default = nil
			return
		}
	case *pg_query.Node_SqlvalueFunction:
		field.Default = NewExpressionDefault(sqlValueFunction(e.SqlvalueFunction.Op))
		return
	}

	field.Default = NewExpressionDefault(deparseExpression(expr))
}

// constValue returns the literal text of a constant
func constValue(c *pg_query.A_Const) (string, bool) {
	switch val := c.Val.(type) {
	case *pg_query.A_Const_Sval:
		return val.Sval.Sval, true
	case *pg_query.A_Const_Ival:
		return strconv.FormatInt(int64(val.Ival.Ival), 10), true
	case *pg_query.A_Const_Fval:
		return val.Fval.Fval, true
	case *pg_query.A_Const_Boolval:
		return strconv.FormatBool(val.Boolval.Boolval), true
	case *pg_query.A_Const_Bsval:
		return val.Bsval.Bsval, true
	}
	return "", false
}

func funcName(call *pg_query.FuncCall) string {
	var parts []string
	for _, part := range call.Funcname {
		if str := part.GetString_(); str != nil && str.Sval != "pg_catalog" {
			parts = append(parts, str.Sval)
		}
	}
	return strings.Join(parts, ".")
}

func sqlValueFunction(op pg_query.SQLValueFunctionOp) string {
	switch op {
	case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_DATE:
		return "CURRENT_DATE"
	case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_TIME, pg_query.SQLValueFunctionOp_SVFOP_CURRENT_TIME_N:
		return "CURRENT_TIME"
	case pg_query.SQLValueFunctionOp_SVFOP_LOCALTIME, pg_query.SQLValueFunctionOp_SVFOP_LOCALTIME_N:
		return "LOCALTIME"
	case pg_query.SQLValueFunctionOp_SVFOP_LOCALTIMESTAMP, pg_query.SQLValueFunctionOp_SVFOP_LOCALTIMESTAMP_N:
		return "LOCALTIMESTAMP"
	case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_USER:
		return "CURRENT_USER"
	case pg_query.SQLValueFunctionOp_SVFOP_SESSION_USER:
		return "SESSION_USER"
	case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_SCHEMA:
		return "CURRENT_SCHEMA"
	default:
		return "CURRENT_TIMESTAMP"
	}
}

// deparseExpression renders an expression node back to SQL by wrapping it in a SELECT
func deparseExpression(expr *pg_query.Node) string {
	tempResult := &pg_query.ParseResult{
		Stmts: []*pg_query.RawStmt{{
			Stmt: &pg_query.Node{
				Node: &pg_query.Node_SelectStmt{SelectStmt: &pg_query.SelectStmt{
					TargetList: []*pg_query.Node{{
						Node: &pg_query.Node_ResTarget{ResTarget: &pg_query.ResTarget{Val: expr}},
					}},
				}},
			},
		}},
	}

	deparsed, err := pg_query.Deparse(tempResult)
	if err != nil {
		return ""
	}
	text, _ := strings.CutPrefix(deparsed, "SELECT ")
	return strings.TrimSpace(text)
}

// applyTableConstraint handles PRIMARY KEY, UNIQUE and FOREIGN KEY table constraints
func (p *Parser) applyTableConstraint(entity *Entity, cons *pg_query.Constraint) error {
	switch cons.Contype {
	case pg_query.ConstrType_CONSTR_PRIMARY:
		for _, col := range stringList(cons.Keys) {
			field := entity.Field(col)
			if field == nil {
				return fmt.Errorf("primary key on %s references unknown column %s", entity.Name, col)
			}
			field.PrimaryKey = true
			field.NotNull = true
		}
	case pg_query.ConstrType_CONSTR_UNIQUE:
		columns := stringList(cons.Keys)
		name := cons.Conname
		if name == "" {
			name = fmt.Sprintf("%s_%s_key", baseName(entity.Name), strings.Join(columns, "_"))
		}
		entity.AddIndex(&Index{Name: name, Columns: columns, Unique: true})
	case pg_query.ConstrType_CONSTR_FOREIGN:
		fk := p.parseForeignKey(entity, cons)
		fk.Columns = stringList(cons.FkAttrs)
		if fk.Name == "" {
			fk.Name = fmt.Sprintf("%s_%s_fkey", baseName(entity.Name), strings.Join(fk.Columns, "_"))
		}
		entity.AddForeignKey(fk)
	}
	return nil
}

func (p *Parser) parseForeignKey(entity *Entity, cons *pg_query.Constraint) *ForeignKey {
	fk := &ForeignKey{
		Name:              cons.Conname,
		ReferencedColumns: stringList(cons.PkAttrs),
		OnDelete:          referentialAction(cons.FkDelAction),
		OnUpdate:          referentialAction(cons.FkUpdAction),
	}
	if cons.Pktable != nil {
		fk.ReferencedEntity = entityName(cons.Pktable)
	}
	return fk
}

// referentialAction maps pg_query referential action codes
func referentialAction(action string) string {
	switch action {
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		return "NO ACTION"
	}
}

func stringList(nodes []*pg_query.Node) []string {
	values := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if str := node.GetString_(); str != nil {
			values = append(values, str.Sval)
		}
	}
	return values
}

// baseName strips the schema qualifier from an entity name
func baseName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func (p *Parser) parseCreateIndex(indexStmt *pg_query.IndexStmt) error {
	name := entityName(indexStmt.Relation)
	entity := p.db.Entity(name)
	if entity == nil {
		return fmt.Errorf("CREATE INDEX on non-existent table %s", name)
	}

	idx := &Index{Name: indexStmt.Idxname, Unique: indexStmt.Unique}
	for _, param := range indexStmt.IndexParams {
		elem := param.GetIndexElem()
		if elem == nil {
			continue
		}
		if elem.Name != "" {
			idx.Columns = append(idx.Columns, elem.Name)
		} else if elem.Expr != nil {
			idx.Columns = append(idx.Columns, deparseExpression(elem.Expr))
		}
	}
	if idx.Name == "" {
		idx.Name = fmt.Sprintf("%s_%s_idx", baseName(entity.Name), strings.Join(idx.Columns, "_"))
	}

	entity.AddIndex(idx)
	return nil
}

func (p *Parser) parseAlterTable(alterStmt *pg_query.AlterTableStmt) error {
	name := entityName(alterStmt.Relation)
	entity := p.db.Entity(name)
	if entity == nil {
		return fmt.Errorf("ALTER TABLE on non-existent table %s - CREATE TABLE statement missing or out of order", name)
	}

	for _, node := range alterStmt.Cmds {
		cmd := node.GetAlterTableCmd()
		if cmd == nil {
			continue
		}
		if err := p.processAlterTableCommand(entity, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) processAlterTableCommand(entity *Entity, cmd *pg_query.AlterTableCmd) error {
	switch cmd.Subtype {
	case pg_query.AlterTableType_AT_AddColumn:
		colDef := cmd.Def.GetColumnDef()
		if colDef == nil {
			return fmt.Errorf("ADD COLUMN on %s missing column definition", entity.Name)
		}
		return p.addColumn(entity, colDef)
	case pg_query.AlterTableType_AT_AddConstraint:
		cons := cmd.Def.GetConstraint()
		if cons == nil {
			return fmt.Errorf("ADD CONSTRAINT on %s missing constraint definition", entity.Name)
		}
		return p.applyTableConstraint(entity, cons)
	case pg_query.AlterTableType_AT_SetNotNull, pg_query.AlterTableType_AT_DropNotNull, pg_query.AlterTableType_AT_ColumnDefault:
		field := entity.Field(cmd.Name)
		if field == nil {
			return fmt.Errorf("ALTER COLUMN on unknown column %s.%s", entity.Name, cmd.Name)
		}
		switch cmd.Subtype {
		case pg_query.AlterTableType_AT_SetNotNull:
			field.NotNull = true
		case pg_query.AlterTableType_AT_DropNotNull:
			field.NotNull = false
		default:
			p.applyDefault(field, cmd.Def)
		}
	}
	return nil
}
