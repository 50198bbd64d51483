package compiler

import (
	"github.com/vektah/gqlparser/v2/ast"

	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// payloadBuilder compiles @cql_payload objects into response payloads.
type payloadBuilder struct {
	ctx      *Context
	reader   *directive.Reader
	registry *typeRegistry
	entities map[string]*model.EntityModel
}

func (b *payloadBuilder) buildAll() []*model.ResponsePayloadModel {
	var out []*model.ResponsePayloadModel
	for _, def := range b.registry.defs {
		if def.Kind != ast.Object || def.Directives.ForName(directive.Payload) == nil {
			continue
		}
		if _, isRoot := b.registry.root(def.Name); isRoot {
			b.ctx.Errorf(def.Name, def.Position, "Type %s: root operation types can't be payloads", def.Name)
			continue
		}
		p, err := b.build(def)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (b *payloadBuilder) build(def *ast.Definition) (*model.ResponsePayloadModel, error) {
	if err := b.reader.Check(def.Directives, ast.LocationObject); err != nil {
		return nil, b.ctx.Errorf(def.Name, positionOf(err, def.Position), "Type %s: %v", def.Name, err)
	}
	if _, err := b.reader.Read(directive.Payload, def.Directives, ast.LocationObject); err != nil {
		return nil, b.ctx.Errorf(def.Name, positionOf(err, def.Position), "Type %s: %v", def.Name, err)
	}
	var (
		entity    *model.EntityField
		technical []model.TechnicalField
		user      []model.PayloadField
	)
	for _, f := range def.Fields {
		if tf, ok := model.TechnicalFieldByName(f.Name); ok {
			if !isNamed(f.Type, tf.GraphQLType()) {
				return nil, b.ctx.Errorf(def.Name, f.Position, "Type %s: field %s must have type %s", def.Name, f.Name, tf.GraphQLType())
			}
			technical = append(technical, tf)
			continue
		}
		if e, ok := b.entities[baseName(f.Type)]; ok && e.Target() == model.TargetTable && !nestedList(f.Type) {
			if entity != nil {
				return nil, b.ctx.Errorf(def.Name, f.Position, "Type %s: payloads can have at most one entity field (found %s and %s)",
					def.Name, entity.Name, f.Name)
			}
			entity = &model.EntityField{Name: f.Name, Entity: e, List: isList(f.Type)}
			continue
		}
		user = append(user, model.PayloadField{Name: f.Name, Type: f.Type})
	}
	return model.NewResponsePayloadModel(def.Name, entity, technical, user), nil
}

// nestedList reports whether t is a list of lists.
func nestedList(t *ast.Type) bool {
	return t.Elem != nil && t.Elem.Elem != nil
}
