package compiler

import (
	"github.com/gocql/gocql"
	"github.com/vektah/gqlparser/v2/ast"

	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// queryBuilder compiles a query field into a SELECT.
type queryBuilder struct {
	*operationBuilder
}

func (b *queryBuilder) build() (*model.QueryModel, error) {
	for _, forbidden := range []string{directive.Insert, directive.Update, directive.Delete} {
		if b.field.Directives.ForName(forbidden) != nil {
			return nil, b.errorf("@%s can't be used on queries", forbidden)
		}
	}
	sel, err := b.read(directive.Select)
	if err != nil {
		return nil, err
	}
	if err := b.checkArguments(); err != nil {
		return nil, err
	}

	returns, err := b.returnType()
	if err != nil {
		return nil, err
	}
	var entity *model.EntityModel
	switch rt := returns.(type) {
	case model.EntityReturnType:
		entity = rt.Entity
	case *model.ResponsePayloadModel:
		if rt.EntityField() == nil {
			return nil, b.errorf("response payload %s must have an entity field", rt.Name())
		}
		entity = rt.EntityField().Entity
		b.warnUnsupported(rt, true, model.TechnicalPagingState)
	default:
		return nil, b.errorf("invalid return type, expected an entity, a list of entities or a response payload")
	}

	q := &model.QueryModel{Operation: b.base(entity, returns), PageSize: directive.DefaultPageSize}

	var args []*ast.ArgumentDefinition
	for _, arg := range b.field.Arguments {
		paging, err := b.readArgument(directive.PagingState, arg)
		if err != nil {
			return nil, err
		}
		if ts, err := b.readArgument(directive.Timestamp, arg); err != nil {
			return nil, err
		} else if ts != nil {
			return nil, b.errorAt(arg.Position, "@%s can't be used on query arguments (%s)", directive.Timestamp, arg.Name)
		}
		if paging == nil {
			args = append(args, arg)
			continue
		}
		if q.PagingStateArgument != "" {
			return nil, b.errorAt(arg.Position, "only one argument can be annotated with @%s (found %s and %s)",
				directive.PagingState, q.PagingStateArgument, arg.Name)
		}
		if !isNamed(arg.Type, "String") {
			return nil, b.errorAt(arg.Position, "argument %s annotated with @%s must have type String", arg.Name, directive.PagingState)
		}
		q.PagingStateArgument = arg.Name
	}

	conds, err := (&conditionsBuilder{op: b.operationBuilder, entity: entity, args: args}).build()
	if err != nil {
		return nil, err
	}
	if err := entity.ValidateForQuery(conds.where); err != nil {
		return nil, b.errorf("%v", err)
	}
	q.Where = conds.where

	if limit, ok := sel.Int(directive.ArgLimit); ok {
		if limit <= 0 {
			return nil, b.errorAt(sel.Position(), "limit must be greater than 0")
		}
		q.Limit = &limit
	}
	if pageSize, ok := sel.Int(directive.ArgPageSize); ok {
		if pageSize <= 0 {
			return nil, b.errorAt(sel.Position(), "pageSize must be greater than 0")
		}
		q.PageSize = pageSize
	}

	levelName, _ := sel.Enum(directive.ArgConsistencyLevel)
	level, err := model.ParseConsistency(levelName)
	if err != nil {
		return nil, b.errorf("%v", err)
	}
	q.Consistency = level
	if model.IsSerial(level) {
		q.SerialConsistency = gocql.SerialConsistency(level)
	}
	return q, nil
}
