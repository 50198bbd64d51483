package compiler

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"cqlmap/internal/cqlident"
	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// entityHeader is what is known about an entity before its columns are built.
// Column types that reference UDTs only need the header.
type entityHeader struct {
	def     *ast.Definition
	cqlName string
	target  model.Target
	input   string
}

// entityBuilder compiles the object types of a document into entities.
type entityBuilder struct {
	ctx      *Context
	reader   *directive.Reader
	registry *typeRegistry
	headers  map[string]*entityHeader
}

// candidateEntities returns the object types that map to tables or UDTs, in
// document order: every object that is neither a root type nor a payload.
func candidateEntities(reg *typeRegistry) []*ast.Definition {
	var out []*ast.Definition
	for _, def := range reg.defs {
		if def.Kind != ast.Object {
			continue
		}
		if _, isRoot := reg.root(def.Name); isRoot {
			continue
		}
		if def.Directives.ForName(directive.Payload) != nil {
			continue
		}
		out = append(out, def)
	}
	return out
}

// buildAll compiles every candidate entity. Failures are recorded under the
// type name and the entity is left out of the result.
func (b *entityBuilder) buildAll(defs []*ast.Definition) []*model.EntityModel {
	b.headers = make(map[string]*entityHeader, len(defs))
	var ordered []*entityHeader
	for _, def := range defs {
		h, err := b.header(def)
		if err != nil {
			continue
		}
		b.headers[def.Name] = h
		ordered = append(ordered, h)
	}

	var entities []*model.EntityModel
	for _, h := range ordered {
		e, err := b.build(h)
		if err != nil {
			continue
		}
		entities = append(entities, e)
	}
	return entities
}

func (b *entityBuilder) errorf(def *ast.Definition, pos *ast.Position, format string, args ...any) error {
	if pos == nil {
		pos = def.Position
	}
	return b.ctx.Errorf(def.Name, pos, "Type %s: %s", def.Name, fmt.Sprintf(format, args...))
}

func (b *entityBuilder) mappingError(def *ast.Definition, err error, fallback *ast.Position) error {
	return b.errorf(def, positionOf(err, fallback), "%v", err)
}

func (b *entityBuilder) header(def *ast.Definition) (*entityHeader, error) {
	if err := b.reader.Check(def.Directives, ast.LocationObject); err != nil {
		return nil, b.mappingError(def, err, def.Position)
	}
	entity, err := b.reader.Read(directive.Entity, def.Directives, ast.LocationObject)
	if err != nil {
		return nil, b.mappingError(def, err, def.Position)
	}
	if entity == nil {
		entity = b.reader.Defaults(directive.Entity)
	}
	h := &entityHeader{def: def, cqlName: def.Name, target: model.TargetTable}
	if name, ok := entity.String(directive.ArgName); ok {
		h.cqlName = name
	}
	if err := cqlident.ValidateTableName(h.cqlName); err != nil {
		return nil, b.errorf(def, entity.Position(), "invalid CQL name: %v", err)
	}
	if target, _ := entity.Enum(directive.ArgTarget); target == "UDT" {
		h.target = model.TargetUDT
	}

	input, err := b.reader.Read(directive.Input, def.Directives, ast.LocationObject)
	if err != nil {
		return nil, b.mappingError(def, err, def.Position)
	}
	if input != nil {
		h.input = def.Name + "Input"
		if name, ok := input.String(directive.ArgName); ok {
			h.input = name
		}
		if existing, clash := b.registry.lookup(h.input); clash && existing.Kind != ast.InputObject {
			return nil, b.errorf(def, input.Position(), "generated input type name %s conflicts with an existing type", h.input)
		}
	}
	return h, nil
}

func (b *entityBuilder) build(h *entityHeader) (*model.EntityModel, error) {
	def := h.def
	if len(def.Fields) == 0 {
		return nil, b.errorf(def, nil, "must have at least one field")
	}
	columns := make([]*model.ColumnModel, 0, len(def.Fields))
	for _, f := range def.Fields {
		c, err := b.column(h, f)
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}

	if h.target == model.TargetTable {
		if err := b.defaultPartitionKey(h, columns); err != nil {
			return nil, err
		}
		if err := b.checkCounters(h, columns); err != nil {
			return nil, err
		}
	}

	e, err := model.NewEntityModel(def.Name, h.cqlName, h.target, h.input, columns)
	if err != nil {
		return nil, b.errorf(def, nil, "%v", err)
	}
	return e, nil
}

// defaultPartitionKey makes the first ID field the partition key of a table
// that declares none.
func (b *entityBuilder) defaultPartitionKey(h *entityHeader, columns []*model.ColumnModel) error {
	for _, c := range columns {
		if c.Role == model.RolePartitionKey {
			return nil
		}
	}
	for _, c := range columns {
		if c.Role == model.RoleRegular && isNamed(c.GraphQLType, "ID") {
			if c.Index != nil {
				return b.errorf(h.def, nil, "@%s is not allowed on primary key field %s", directive.Index, c.FieldName)
			}
			c.Role = model.RolePartitionKey
			return nil
		}
	}
	return b.errorf(h.def, nil, "must have at least one partition key field (use @%s(%s: true), or declare a field of type ID)",
		directive.Column, directive.ArgPartitionKey)
}

// checkCounters enforces that counter tables only have counter regular columns.
func (b *entityBuilder) checkCounters(h *entityHeader, columns []*model.ColumnModel) error {
	var counter, other string
	for _, c := range columns {
		if c.IsPrimaryKey() {
			if c.Counter {
				return b.errorf(h.def, nil, "counter field %s can't be part of the primary key", c.FieldName)
			}
			continue
		}
		if c.Counter {
			counter = c.FieldName
		} else {
			other = c.FieldName
		}
	}
	if counter != "" && other != "" {
		return b.errorf(h.def, nil, "can't mix counter (%s) and non-counter (%s) fields", counter, other)
	}
	return nil
}

func (b *entityBuilder) column(h *entityHeader, f *ast.FieldDefinition) (*model.ColumnModel, error) {
	def := h.def
	if err := b.reader.Check(f.Directives, ast.LocationFieldDefinition); err != nil {
		return nil, b.mappingError(def, err, f.Position)
	}
	if len(f.Arguments) > 0 {
		return nil, b.errorf(def, f.Position, "field %s can't have arguments", f.Name)
	}
	col, err := b.reader.Read(directive.Column, f.Directives, ast.LocationFieldDefinition)
	if err != nil {
		return nil, b.mappingError(def, err, f.Position)
	}
	if col == nil {
		col = b.reader.Defaults(directive.Column)
	}

	c := &model.ColumnModel{FieldName: f.Name, CQLName: f.Name, GraphQLType: f.Type}
	if name, ok := col.String(directive.ArgName); ok {
		c.CQLName = name
	}
	if err := cqlident.ValidateIdentifier(c.CQLName); err != nil {
		return nil, b.errorf(def, f.Position, "invalid CQL name for field %s: %v", f.Name, err)
	}

	partitionKey, _ := col.Bool(directive.ArgPartitionKey)
	order, hasOrder := col.Enum(directive.ArgClusteringOrder)
	switch {
	case partitionKey && hasOrder:
		return nil, b.errorf(def, f.Position, "field %s can't be both a partition key and a clustering column", f.Name)
	case partitionKey:
		c.Role = model.RolePartitionKey
	case hasOrder:
		c.Role = model.RoleClustering
		c.Order = model.OrderAsc
		if order == "DESC" {
			c.Order = model.OrderDesc
		}
	}
	if c.IsPrimaryKey() && h.target == model.TargetUDT {
		return nil, b.errorf(def, f.Position, "UDT fields can't be part of a primary key (%s)", f.Name)
	}

	var t cqlident.Type
	if hint, ok := col.String(directive.ArgTypeHint); ok {
		t, err = cqlident.ParseType(hint)
		if err != nil {
			return nil, b.errorf(def, f.Position, "invalid type hint for field %s: %v", f.Name, err)
		}
		c.TypeHint = true
	} else {
		t, err = b.inferType(f.Type, c.IsPrimaryKey(), false)
		if err != nil {
			return nil, b.errorf(def, f.Position, "field %s: %v", f.Name, err)
		}
	}
	c.CQLType = t.String()
	c.Frozen = t.IsFrozen()
	c.Collection = collectionKindOf(t)
	c.Counter = t.Name == "counter"

	index, err := b.reader.Read(directive.Index, f.Directives, ast.LocationFieldDefinition)
	if err != nil {
		return nil, b.mappingError(def, err, f.Position)
	}
	if index != nil {
		if c.Index, err = b.index(h, c, index); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// inferType derives the CQL type of a GraphQL type. Collections are frozen in
// keys; anything nested in a collection is frozen too.
func (b *entityBuilder) inferType(t *ast.Type, inKey, nested bool) (cqlident.Type, error) {
	if t.Elem != nil {
		elem, err := b.inferType(t.Elem, inKey, true)
		if err != nil {
			return cqlident.Type{}, err
		}
		list := cqlident.Type{Name: "list", Params: []cqlident.Type{elem}}
		if inKey || nested {
			return cqlident.Frozen(list), nil
		}
		return list, nil
	}
	if native, ok := scalarTypes[t.NamedType]; ok {
		return cqlident.Type{Name: native}, nil
	}
	if b.registry.isEnum(t.NamedType) {
		return cqlident.Type{Name: "varchar"}, nil
	}
	if h, ok := b.headers[t.NamedType]; ok {
		if h.target != model.TargetUDT {
			return cqlident.Type{}, fmt.Errorf("type %s maps to a table, only UDTs can be used as field types", t.NamedType)
		}
		udt := cqlident.Type{Name: h.cqlName}
		if inKey || nested {
			return cqlident.Frozen(udt), nil
		}
		return udt, nil
	}
	if _, declared := b.registry.lookup(t.NamedType); declared {
		return cqlident.Type{}, fmt.Errorf("can't infer the CQL type of %s, use a scalar, an enum or a UDT entity (or set a type hint)", t.NamedType)
	}
	return cqlident.Type{}, fmt.Errorf("unknown type %s", t.NamedType)
}

func (b *entityBuilder) index(h *entityHeader, c *model.ColumnModel, inst *directive.Instance) (*model.IndexModel, error) {
	def, pos := h.def, inst.Position()
	if h.target != model.TargetTable {
		return nil, b.errorf(def, pos, "@%s is only allowed on tables (%s)", directive.Index, c.FieldName)
	}
	if c.IsPrimaryKey() {
		return nil, b.errorf(def, pos, "@%s is not allowed on primary key field %s", directive.Index, c.FieldName)
	}

	idx := &model.IndexModel{}
	if name, ok := inst.String(directive.ArgName); ok {
		if err := cqlident.ValidateTableName(name); err != nil {
			return nil, b.errorf(def, pos, "invalid index name for field %s: %v", c.FieldName, err)
		}
		idx.Name = name
	}
	idx.Class, _ = inst.String(directive.ArgClass)
	idx.Options, _ = inst.String(directive.ArgOptions)

	target, explicit := inst.Enum(directive.ArgTarget)
	switch {
	case explicit && c.Collection == model.NotCollection:
		return nil, b.errorf(def, pos, "index target can only be set on collection fields (%s)", c.FieldName)
	case target == "VALUES" && (c.Frozen || (c.Collection != model.CollectionList && c.Collection != model.CollectionSet)):
		return nil, b.errorf(def, pos, "index target VALUES requires a non-frozen list or set field (%s)", c.FieldName)
	case target == "FULL" && !c.Frozen:
		return nil, b.errorf(def, pos, "index target FULL requires a frozen collection field (%s)", c.FieldName)
	case target == "FULL", !explicit && c.Frozen && c.Collection != model.NotCollection:
		idx.Target = model.IndexFull
	default:
		idx.Target = model.IndexValues
	}
	return idx, nil
}
