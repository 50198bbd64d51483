package compiler

import (
	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// insertBuilder compiles a mutation into an INSERT of a full entity.
type insertBuilder struct {
	*operationBuilder
}

func (b *insertBuilder) build() (*model.InsertModel, error) {
	inst, err := b.read(directive.Insert)
	if err != nil {
		return nil, err
	}
	if err := b.checkArguments(); err != nil {
		return nil, err
	}
	ifNotExists := b.flag(inst, directive.ArgIfNotExists, b.conventions.HasIfNotExistsSuffix)

	args := b.field.Arguments
	if len(args) == 0 {
		return nil, b.errorf("inserts must take the entity input type as the first argument")
	}
	entity, ok := b.resolver.resolveArgument(args[0])
	if !ok {
		return nil, b.errorAt(args[0].Position, "inserts must take the entity input type as the first argument (got %s)", args[0].Type.String())
	}
	for _, name := range []string{directive.Where, directive.If, directive.Increment, directive.Timestamp, directive.PagingState} {
		if args[0].Directives.ForName(name) != nil {
			return nil, b.errorAt(args[0].Position, "@%s can't be used on the entity argument %s", name, args[0].Name)
		}
	}
	timestamp, rest, err := b.splitTimestamp(args[1:])
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, b.errorAt(rest[0].Position, "unexpected argument %s, inserts only take the entity and an optional @%s argument",
			rest[0].Name, directive.Timestamp)
	}

	returns, err := b.returnType()
	if err != nil {
		return nil, err
	}
	switch rt := returns.(type) {
	case model.BooleanReturnType:
	case model.EntityReturnType:
		if rt.List || rt.Entity != entity {
			return nil, b.errorf("invalid return type, expected Boolean, %s or a response payload", entity.GraphQLName())
		}
	case *model.ResponsePayloadModel:
		if ef := rt.EntityField(); ef != nil && (ef.List || ef.Entity != entity) {
			return nil, b.errorf("the entity field %s of response payload %s must have type %s", ef.Name, rt.Name(), entity.GraphQLName())
		}
		b.warnUnsupported(rt, true, model.TechnicalApplied)
	}

	ttl, err := b.ttl(inst)
	if err != nil {
		return nil, err
	}
	consistency, serial, err := b.mutationConsistency(inst)
	if err != nil {
		return nil, err
	}

	m := &model.InsertModel{
		Operation:         b.base(entity, returns),
		EntityArgument:    args[0].Name,
		IfNotExists:       ifNotExists,
		TTL:               ttl,
		TimestampArgument: timestamp,
	}
	m.Consistency, m.SerialConsistency = consistency, serial
	return m, nil
}
