package compiler

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// entityResolver finds compiled entities by type name, input type name, or
// directive argument.
type entityResolver struct {
	ordered []*model.EntityModel
	byName  map[string]*model.EntityModel
	byInput map[string]*model.EntityModel
}

func newEntityResolver(entities []*model.EntityModel) *entityResolver {
	r := &entityResolver{
		ordered: entities,
		byName:  make(map[string]*model.EntityModel, len(entities)),
		byInput: make(map[string]*model.EntityModel),
	}
	for _, e := range entities {
		r.byName[e.GraphQLName()] = e
		if e.InputTypeName() != "" {
			r.byInput[e.InputTypeName()] = e
		}
	}
	return r
}

func (r *entityResolver) entity(name string) (*model.EntityModel, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// resolveArgument returns the table entity whose input type arg is declared
// with. UDT inputs and lists never qualify.
func (r *entityResolver) resolveArgument(arg *ast.ArgumentDefinition) (*model.EntityModel, bool) {
	if isList(arg.Type) {
		return nil, false
	}
	e, ok := r.byInput[arg.Type.NamedType]
	if !ok || e.Target() != model.TargetTable {
		return nil, false
	}
	return e, true
}

var uuidTypes = map[string]bool{"ID": true, "Uuid": true}

// equivalent reports whether an argument of named type arg can carry a value
// for a field of named type field: an entity input stands for its entity and
// ID and Uuid are interchangeable.
func (r *entityResolver) equivalent(arg, field string) bool {
	if e, ok := r.byInput[arg]; ok && e.GraphQLName() == field {
		return true
	}
	return uuidTypes[arg] && uuidTypes[field]
}

// resolveByDirective finds the target entity of a key-fields mutation. An
// explicit targetEntity wins; otherwise hint (the entity of the response
// payload) is used; otherwise the only table entity that has a field for
// every argument name in fields.
func (r *entityResolver) resolveByDirective(b *operationBuilder, inst *directive.Instance, hint *model.EntityModel, fields []string) (*model.EntityModel, error) {
	if name, ok := inst.String(directive.ArgTargetEntity); ok {
		e, found := r.entity(name)
		if !found {
			return nil, b.errorf("unknown target entity %s (@%s.%s)", name, inst.Name(), directive.ArgTargetEntity)
		}
		if e.Target() != model.TargetTable {
			return nil, b.errorf("target entity %s must map to a table, not a UDT", name)
		}
		return e, nil
	}
	if hint != nil {
		return hint, nil
	}

	var candidates []*model.EntityModel
	for _, e := range r.ordered {
		if e.Target() != model.TargetTable {
			continue
		}
		covers := true
		for _, f := range fields {
			if _, ok := e.Column(f); !ok {
				covers = false
				break
			}
		}
		if covers {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	names := make([]string, len(candidates))
	for i, e := range candidates {
		names[i] = e.GraphQLName()
	}
	detail := "no entity matches the arguments"
	if len(candidates) > 1 {
		detail = "candidates: " + strings.Join(names, ", ")
	}
	return nil, b.errorf("ambiguous target entity (%s), set it with @%s(%s: ...)", detail, inst.Name(), directive.ArgTargetEntity)
}
