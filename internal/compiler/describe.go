package compiler

import (
	"github.com/gocql/gocql"

	"cqlmap/internal/cqlident"
	"cqlmap/internal/model"
)

// describeOperation returns slog key/value pairs summarizing the CQL an
// operation maps to.
func describeOperation(op model.OperationModel) []any {
	var (
		base       model.Operation
		where, ifs []model.ConditionModel
	)
	switch m := op.(type) {
	case *model.QueryModel:
		base, where = m.Operation, m.Where
	case *model.InsertModel:
		base = m.Operation
	case *model.UpdateModel:
		base, where, ifs = m.Operation, m.Where, m.If
	case *model.DeleteModel:
		base, where, ifs = m.Operation, m.Where, m.If
	}

	attrs := []any{
		"operation", op.ParentTypeName() + "." + op.Name(),
		"kind", op.Kind().String(),
		"table", cqlident.QuoteIdentifier(op.Entity().CQLName()),
		"consistency", model.ConsistencyName(base.Consistency),
	}
	if base.SerialConsistency != 0 {
		attrs = append(attrs, "serial_consistency", model.ConsistencyName(gocql.Consistency(base.SerialConsistency)))
	}
	if len(where) > 0 {
		attrs = append(attrs, "where", model.ConditionsCQL(where))
	}
	if len(ifs) > 0 {
		attrs = append(attrs, "if", model.ConditionsCQL(ifs))
	}
	return attrs
}
