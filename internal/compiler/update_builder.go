package compiler

import (
	"github.com/vektah/gqlparser/v2/ast"

	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// updateBuilder compiles a mutation into an UPDATE, either of a full entity
// or of the row selected by key field arguments.
type updateBuilder struct {
	*operationBuilder
}

func (b *updateBuilder) build() (*model.UpdateModel, error) {
	inst, err := b.read(directive.Update)
	if err != nil {
		return nil, err
	}
	if err := b.checkArguments(); err != nil {
		return nil, err
	}
	ifExists := b.flag(inst, directive.ArgIfExists, b.conventions.HasIfExistsSuffix)

	returns, err := b.conditionalReturnType()
	if err != nil {
		return nil, err
	}

	args := b.field.Arguments
	if len(args) == 0 {
		return nil, b.errorf("updates must take either the entity input type or a list of primary key fields")
	}

	m := &model.UpdateModel{IfExists: ifExists}
	var entity *model.EntityModel
	if e, ok := b.resolver.resolveArgument(args[0]); ok {
		if len(args) > 1 {
			return nil, b.errorAt(args[1].Position, "if an update takes an entity input type, it must be the only argument")
		}
		entity = e
		m.EntityArgument = args[0].Name
		m.Where = e.PrimaryKeyWhereConditions()
	} else {
		timestamp, rest, err := b.splitTimestamp(args)
		if err != nil {
			return nil, err
		}
		entity, err = b.resolver.resolveByDirective(b.operationBuilder, inst, payloadEntity(returns), argumentFields(rest))
		if err != nil {
			return nil, err
		}
		conds, err := (&conditionsBuilder{op: b.operationBuilder, entity: entity, args: rest}).build()
		if err != nil {
			return nil, err
		}
		if err := validateConditional(b.operationBuilder, entity, conds.where, conds.ifs, ifExists); err != nil {
			return nil, err
		}
		if len(conds.assignments) == 0 && len(conds.increments) == 0 {
			return nil, b.errorf("nothing to update, add arguments for the fields to set or @%s arguments", directive.Increment)
		}
		m.Where, m.If = conds.where, conds.ifs
		m.Assignments, m.Increments = conds.assignments, conds.increments
		m.TimestampArgument = timestamp
	}

	if m.TTL, err = b.ttl(inst); err != nil {
		return nil, err
	}
	consistency, serial, err := b.mutationConsistency(inst)
	if err != nil {
		return nil, err
	}
	m.Operation = b.base(entity, returns)
	m.Consistency, m.SerialConsistency = consistency, serial
	return m, nil
}

// conditionalReturnType accepts Boolean or a response payload, and warns
// about every payload field other than 'applied'.
func (b *operationBuilder) conditionalReturnType() (model.ReturnType, error) {
	returns, err := b.returnType()
	if err != nil {
		return nil, err
	}
	switch rt := returns.(type) {
	case model.BooleanReturnType:
	case *model.ResponsePayloadModel:
		b.warnUnsupported(rt, false, model.TechnicalApplied)
	default:
		return nil, b.errorf("invalid return type, expected Boolean or a response payload")
	}
	return returns, nil
}

// validateConditional checks a key-fields WHERE clause and its conditional
// parts: the full primary key must be selected, and IF conditions exclude
// both IN restrictions and ifExists.
func validateConditional(b *operationBuilder, entity *model.EntityModel, where, ifs []model.ConditionModel, ifExists bool) error {
	if err := entity.ValidateForUpdate(where); err != nil {
		return b.errorf("%v", err)
	}
	if len(ifs) == 0 {
		return nil
	}
	if c, ok := model.FirstWithPredicate(where, model.IN); ok {
		return b.errorf("IN predicates on primary key fields are not allowed if there are @%s conditions (%s)", directive.If, c.ArgumentName)
	}
	if ifExists {
		return b.errorf("can't use @%s and ifExists at the same time", directive.If)
	}
	return nil
}

// argumentFields returns the entity field each argument refers to.
func argumentFields(args []*ast.ArgumentDefinition) []string {
	fields := make([]string, 0, len(args))
	for _, arg := range args {
		name := arg.Name
		for _, d := range []string{directive.Where, directive.If, directive.Increment} {
			if dir := arg.Directives.ForName(d); dir != nil {
				if a := dir.Arguments.ForName(directive.ArgField); a != nil && a.Value != nil && a.Value.Kind == ast.StringValue {
					name = a.Value.Raw
				}
			}
		}
		fields = append(fields, name)
	}
	return fields
}
