package model

import (
	"strings"

	"cqlmap/internal/cqlident"
)

// Predicate is the comparison operator of a condition.
type Predicate string

const (
	EQ       Predicate = "EQ"
	NEQ      Predicate = "NEQ"
	LT       Predicate = "LT"
	GT       Predicate = "GT"
	LTE      Predicate = "LTE"
	GTE      Predicate = "GTE"
	IN       Predicate = "IN"
	CONTAINS Predicate = "CONTAINS"
)

// IsRange reports whether the predicate is an inequality bound.
func (p Predicate) IsRange() bool {
	switch p {
	case LT, GT, LTE, GTE:
		return true
	default:
		return false
	}
}

// CQL returns the operator as it appears in a CQL statement.
func (p Predicate) CQL() string {
	switch p {
	case EQ:
		return "="
	case NEQ:
		return "!="
	case LT:
		return "<"
	case GT:
		return ">"
	case LTE:
		return "<="
	case GTE:
		return ">="
	case IN:
		return "IN"
	case CONTAINS:
		return "CONTAINS"
	default:
		return string(p)
	}
}

// Clause is the part of a statement a condition belongs to.
type Clause int

const (
	ClauseWhere Clause = iota
	ClauseIf
	ClauseIncrement
)

// String returns the directive that produces conditions of this clause.
func (c Clause) String() string {
	switch c {
	case ClauseIf:
		return "@cql_if"
	case ClauseIncrement:
		return "@cql_increment"
	default:
		return "@cql_where"
	}
}

// ConditionModel is a WHERE or IF condition. At execution time the value is
// read from the operation argument ArgumentName.
type ConditionModel struct {
	ArgumentName string
	Column       *ColumnModel
	Predicate    Predicate
}

// FieldName returns the GraphQL field the condition applies to.
func (c ConditionModel) FieldName() string { return c.Column.FieldName }

// IncrementModel adds the value of ArgumentName to a counter, list or set column.
type IncrementModel struct {
	ArgumentName string
	Column       *ColumnModel
	// Prepend is only meaningful for lists; the default appends.
	Prepend bool
}

// AssignmentModel sets a regular column from an argument of a key-fields update.
type AssignmentModel struct {
	ArgumentName string
	Column       *ColumnModel
}

// CQL renders the condition with a bind marker, e.g. `"userId" IN ?`.
func (c ConditionModel) CQL() string {
	return cqlident.QuoteIdentifier(c.Column.CQLName) + " " + c.Predicate.CQL() + " ?"
}

// ConditionsCQL renders conditions joined with AND, "" for none.
func ConditionsCQL(conditions []ConditionModel) string {
	parts := make([]string, len(conditions))
	for i, c := range conditions {
		parts[i] = c.CQL()
	}
	return strings.Join(parts, " AND ")
}

// FirstWithPredicate returns the first condition in the list that uses p.
func FirstWithPredicate(conditions []ConditionModel, p Predicate) (ConditionModel, bool) {
	for _, c := range conditions {
		if c.Predicate == p {
			return c, true
		}
	}
	return ConditionModel{}, false
}
