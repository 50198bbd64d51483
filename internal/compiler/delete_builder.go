package compiler

import (
	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// deleteBuilder compiles a mutation into a DELETE of the row selected by its
// key field arguments.
type deleteBuilder struct {
	*operationBuilder
}

func (b *deleteBuilder) build() (*model.DeleteModel, error) {
	inst, err := b.read(directive.Delete)
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
		return nil, b.errorf("deletes must take the primary key fields as arguments")
	}
	for _, arg := range args {
		if _, isEntity := b.resolver.resolveArgument(arg); isEntity {
			return nil, b.errorAt(arg.Position, "deletes can't take an entity input type (%s), use the primary key fields", arg.Name)
		}
		ts, err := b.readArgument(directive.Timestamp, arg)
		if err != nil {
			return nil, err
		}
		if ts != nil {
			return nil, b.errorAt(arg.Position, "@%s can't be used on deletes (%s)", directive.Timestamp, arg.Name)
		}
	}

	entity, err := b.resolver.resolveByDirective(b.operationBuilder, inst, payloadEntity(returns), argumentFields(args))
	if err != nil {
		return nil, err
	}
	conds, err := (&conditionsBuilder{op: b.operationBuilder, entity: entity, args: args}).build()
	if err != nil {
		return nil, err
	}
	if err := validateConditional(b.operationBuilder, entity, conds.where, conds.ifs, ifExists); err != nil {
		return nil, err
	}

	consistency, serial, err := b.mutationConsistency(inst)
	if err != nil {
		return nil, err
	}
	m := &model.DeleteModel{
		Operation: b.base(entity, returns),
		Where:     conds.where,
		If:        conds.ifs,
		IfExists:  ifExists,
	}
	m.Consistency, m.SerialConsistency = consistency, serial
	return m, nil
}
