package compiler

import (
	"github.com/vektah/gqlparser/v2/ast"

	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// conditions is what the arguments of a key-fields operation compile to.
type conditions struct {
	where       []model.ConditionModel
	ifs         []model.ConditionModel
	increments  []model.IncrementModel
	assignments []model.AssignmentModel
}

// conditionsBuilder turns operation arguments into conditions on entity.
//
// An argument annotated with @cql_where, @cql_if or @cql_increment goes to
// that clause. An unannotated argument is an EQ condition on the field of the
// same name, except in updates where an unannotated argument naming a regular
// column is assigned to it.
type conditionsBuilder struct {
	op     *operationBuilder
	entity *model.EntityModel
	args   []*ast.ArgumentDefinition
}

func (b *conditionsBuilder) build() (conditions, error) {
	var out conditions
	seen := map[model.Clause]map[string]string{
		model.ClauseWhere:     {},
		model.ClauseIf:        {},
		model.ClauseIncrement: {},
	}
	assigned := map[string]string{}

	for _, arg := range b.args {
		where, err := b.op.readArgument(directive.Where, arg)
		if err != nil {
			return conditions{}, err
		}
		ifc, err := b.op.readArgument(directive.If, arg)
		if err != nil {
			return conditions{}, err
		}
		inc, err := b.op.readArgument(directive.Increment, arg)
		if err != nil {
			return conditions{}, err
		}
		if countPresent(where, ifc, inc) > 1 {
			return conditions{}, b.op.errorAt(arg.Position, "argument %s can only have one of @%s, @%s and @%s",
				arg.Name, directive.Where, directive.If, directive.Increment)
		}

		clause, inst := model.ClauseWhere, where
		switch {
		case ifc != nil:
			clause, inst = model.ClauseIf, ifc
		case inc != nil:
			clause, inst = model.ClauseIncrement, inc
		}

		fieldName := arg.Name
		if inst != nil {
			if f, ok := inst.String(directive.ArgField); ok {
				fieldName = f
			}
		}
		col, ok := b.entity.Column(fieldName)
		if !ok {
			return conditions{}, b.op.errorAt(arg.Position, "unknown field %s in type %s (argument %s)", fieldName, b.entity.GraphQLName(), arg.Name)
		}

		if inst == nil && b.op.kind == model.KindUpdate && !col.IsPrimaryKey() {
			if other, dup := assigned[col.FieldName]; dup {
				return conditions{}, b.op.errorAt(arg.Position, "field %s is assigned by both %s and %s", col.FieldName, other, arg.Name)
			}
			if other, dup := seen[model.ClauseIncrement][col.FieldName]; dup {
				return conditions{}, b.op.errorAt(arg.Position, "field %s is both incremented by %s and assigned by %s", col.FieldName, other, arg.Name)
			}
			if !sameType(arg.Type, col.GraphQLType, b.op.resolver.equivalent) {
				return conditions{}, b.op.errorAt(arg.Position, "argument %s must have the same type as field %s (%s)", arg.Name, col.FieldName, col.GraphQLType.String())
			}
			assigned[col.FieldName] = arg.Name
			out.assignments = append(out.assignments, model.AssignmentModel{ArgumentName: arg.Name, Column: col})
			continue
		}

		if other, dup := seen[clause][col.FieldName]; dup {
			return conditions{}, b.op.errorAt(arg.Position, "field %s is used by two %s arguments (%s and %s)", col.FieldName, clause, other, arg.Name)
		}
		if other, dup := assigned[col.FieldName]; dup && clause == model.ClauseIncrement {
			return conditions{}, b.op.errorAt(arg.Position, "field %s is both assigned by %s and incremented by %s", col.FieldName, other, arg.Name)
		}
		seen[clause][col.FieldName] = arg.Name

		switch clause {
		case model.ClauseIncrement:
			m, err := b.increment(arg, col, inst)
			if err != nil {
				return conditions{}, err
			}
			out.increments = append(out.increments, m)
		case model.ClauseIf:
			c, err := b.condition(arg, col, inst, clause)
			if err != nil {
				return conditions{}, err
			}
			out.ifs = append(out.ifs, c)
		default:
			c, err := b.condition(arg, col, inst, clause)
			if err != nil {
				return conditions{}, err
			}
			out.where = append(out.where, c)
		}
	}
	return out, nil
}

func countPresent(instances ...*directive.Instance) int {
	n := 0
	for _, i := range instances {
		if i != nil {
			n++
		}
	}
	return n
}

func (b *conditionsBuilder) condition(arg *ast.ArgumentDefinition, col *model.ColumnModel, inst *directive.Instance, clause model.Clause) (model.ConditionModel, error) {
	predicate := model.EQ
	if inst != nil {
		if p, ok := inst.Enum(directive.ArgPredicate); ok {
			predicate = model.Predicate(p)
		}
	}

	if clause == model.ClauseIf {
		if b.op.kind != model.KindUpdate && b.op.kind != model.KindDelete {
			return model.ConditionModel{}, b.op.errorAt(arg.Position, "@%s is only allowed on updates and deletes (%s)", directive.If, arg.Name)
		}
		if col.IsPrimaryKey() {
			return model.ConditionModel{}, b.op.errorAt(arg.Position, "@%s is not allowed on primary key field %s", directive.If, col.FieldName)
		}
	}
	if clause == model.ClauseWhere && predicate == model.NEQ {
		return model.ConditionModel{}, b.op.errorAt(arg.Position, "predicate NEQ can't be used in @%s (%s)", directive.Where, arg.Name)
	}

	if err := b.checkArgumentType(arg, col, predicate); err != nil {
		return model.ConditionModel{}, err
	}
	return model.ConditionModel{ArgumentName: arg.Name, Column: col, Predicate: predicate}, nil
}

// checkArgumentType verifies that the argument can hold the value the predicate compares with.
func (b *conditionsBuilder) checkArgumentType(arg *ast.ArgumentDefinition, col *model.ColumnModel, predicate model.Predicate) error {
	eq := b.op.resolver.equivalent
	switch predicate {
	case model.IN:
		if !isList(arg.Type) || !sameType(arg.Type.Elem, col.GraphQLType, eq) {
			return b.op.errorAt(arg.Position, "argument %s must be a list of %s to use predicate IN on field %s",
				arg.Name, col.GraphQLType.Name(), col.FieldName)
		}
	case model.CONTAINS:
		if col.Collection != model.CollectionList && col.Collection != model.CollectionSet {
			return b.op.errorAt(arg.Position, "predicate CONTAINS can only be used on list or set fields (%s)", col.FieldName)
		}
		if !isList(col.GraphQLType) || !sameType(arg.Type, col.GraphQLType.Elem, eq) {
			return b.op.errorAt(arg.Position, "argument %s must have the element type of field %s to use predicate CONTAINS",
				arg.Name, col.FieldName)
		}
	default:
		if !sameType(arg.Type, col.GraphQLType, eq) {
			return b.op.errorAt(arg.Position, "argument %s must have the same type as field %s (%s)",
				arg.Name, col.FieldName, col.GraphQLType.String())
		}
	}
	return nil
}

func (b *conditionsBuilder) increment(arg *ast.ArgumentDefinition, col *model.ColumnModel, inst *directive.Instance) (model.IncrementModel, error) {
	if b.op.kind != model.KindUpdate {
		return model.IncrementModel{}, b.op.errorAt(arg.Position, "@%s is only allowed on updates (%s)", directive.Increment, arg.Name)
	}
	if col.IsPrimaryKey() {
		return model.IncrementModel{}, b.op.errorAt(arg.Position, "@%s is not allowed on primary key field %s", directive.Increment, col.FieldName)
	}
	prepend, _ := inst.Bool(directive.ArgPrepend)

	switch {
	case col.Counter:
		if !isNamed(arg.Type, "Int") && !isNamed(arg.Type, "BigInt") && !isNamed(arg.Type, "Counter") {
			return model.IncrementModel{}, b.op.errorAt(arg.Position, "argument %s must be an Int, BigInt or Counter to increment counter field %s", arg.Name, col.FieldName)
		}
		if prepend {
			return model.IncrementModel{}, b.op.errorAt(arg.Position, "prepend can only be used with list fields (%s)", col.FieldName)
		}
	case col.Collection == model.CollectionList || col.Collection == model.CollectionSet:
		if col.Frozen {
			return model.IncrementModel{}, b.op.errorAt(arg.Position, "@%s can't be used on frozen field %s", directive.Increment, col.FieldName)
		}
		if prepend && col.Collection != model.CollectionList {
			return model.IncrementModel{}, b.op.errorAt(arg.Position, "prepend can only be used with list fields (%s)", col.FieldName)
		}
		if !sameType(arg.Type, col.GraphQLType, b.op.resolver.equivalent) {
			return model.IncrementModel{}, b.op.errorAt(arg.Position, "argument %s must have the same type as field %s (%s)",
				arg.Name, col.FieldName, col.GraphQLType.String())
		}
	default:
		return model.IncrementModel{}, b.op.errorAt(arg.Position, "@%s can only be used on counter, list or set fields (%s)", directive.Increment, col.FieldName)
	}
	return model.IncrementModel{ArgumentName: arg.Name, Column: col, Prepend: prepend}, nil
}
