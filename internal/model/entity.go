// Package model defines the compiled, immutable description of how a
// GraphQL schema document maps onto CQL tables and queries.
//
// Every value in this package is built once by the compiler and never
// mutated afterwards. A SchemaModel and everything reachable from it can be
// shared by any number of goroutines without locking.
package model

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Target identifies the kind of CQL element an entity maps to.
type Target int

const (
	// TargetTable maps the entity to a CQL table.
	TargetTable Target = iota
	// TargetUDT maps the entity to a user-defined type.
	TargetUDT
)

// String returns the directive spelling of the target.
func (t Target) String() string {
	switch t {
	case TargetTable:
		return "TABLE"
	case TargetUDT:
		return "UDT"
	default:
		return "UNKNOWN"
	}
}

// ColumnRole is the position of a column in the primary key.
type ColumnRole int

const (
	RoleRegular ColumnRole = iota
	RolePartitionKey
	RoleClustering
)

// String returns a lower-case name for the role.
func (r ColumnRole) String() string {
	switch r {
	case RolePartitionKey:
		return "partition key"
	case RoleClustering:
		return "clustering"
	default:
		return "regular"
	}
}

// ClusteringOrder is the on-disk sort order of a clustering column.
type ClusteringOrder int

const (
	OrderNone ClusteringOrder = iota
	OrderAsc
	OrderDesc
)

// String returns the CQL spelling of the order, or "" for non-clustering columns.
func (o ClusteringOrder) String() string {
	switch o {
	case OrderAsc:
		return "ASC"
	case OrderDesc:
		return "DESC"
	default:
		return ""
	}
}

// CollectionKind classifies the (unfrozen) CQL type of a column.
type CollectionKind int

const (
	NotCollection CollectionKind = iota
	CollectionList
	CollectionSet
	CollectionMap
)

// IndexTarget selects which part of a collection column a secondary index covers.
type IndexTarget int

const (
	IndexValues IndexTarget = iota
	IndexFull
)

// String returns the directive spelling of the index target.
func (t IndexTarget) String() string {
	if t == IndexFull {
		return "FULL"
	}
	return "VALUES"
}

// IndexModel is a secondary index declared with @cql_index.
type IndexModel struct {
	Name    string
	Class   string
	Target  IndexTarget
	Options string
}

// ColumnModel maps one GraphQL field to a CQL column (or UDT field).
type ColumnModel struct {
	// FieldName is the GraphQL field name.
	FieldName string
	// CQLName is the column name in the database.
	CQLName string
	// GraphQLType is the declared GraphQL type of the field.
	GraphQLType *ast.Type
	// CQLType is the rendered CQL type, e.g. "frozen<list<varchar>>".
	CQLType string
	// TypeHint is true when CQLType came from @cql_column(typeHint:).
	TypeHint bool

	Role       ColumnRole
	Order      ClusteringOrder
	Collection CollectionKind
	Frozen     bool
	Counter    bool

	// Index is nil unless the field carries @cql_index.
	Index *IndexModel
}

// IsPrimaryKey reports whether the column is part of the partition key or a clustering column.
func (c *ColumnModel) IsPrimaryKey() bool {
	return c.Role == RolePartitionKey || c.Role == RoleClustering
}

// EntityModel maps a GraphQL object type to a CQL table or UDT.
type EntityModel struct {
	graphqlName   string
	cqlName       string
	target        Target
	inputTypeName string

	columns     []*ColumnModel
	byField     map[string]*ColumnModel
	partition   []*ColumnModel
	clustering  []*ColumnModel
	primaryKeyW []ConditionModel
}

// NewEntityModel assembles an entity from its columns, kept in declaration order.
// Partition key columns always precede clustering columns in key order.
func NewEntityModel(graphqlName, cqlName string, target Target, inputTypeName string, columns []*ColumnModel) (*EntityModel, error) {
	e := &EntityModel{
		graphqlName:   graphqlName,
		cqlName:       cqlName,
		target:        target,
		inputTypeName: inputTypeName,
		columns:       columns,
		byField:       make(map[string]*ColumnModel, len(columns)),
	}
	for _, c := range columns {
		if _, dup := e.byField[c.FieldName]; dup {
			return nil, fmt.Errorf("duplicate field %s", c.FieldName)
		}
		e.byField[c.FieldName] = c
		switch c.Role {
		case RolePartitionKey:
			if c.Order != OrderNone {
				return nil, fmt.Errorf("field %s can't be both a partition key and a clustering column", c.FieldName)
			}
			e.partition = append(e.partition, c)
		case RoleClustering:
			if c.Order == OrderNone {
				return nil, fmt.Errorf("clustering field %s has no clustering order", c.FieldName)
			}
			e.clustering = append(e.clustering, c)
		}
	}
	if target == TargetUDT && len(e.partition)+len(e.clustering) > 0 {
		return nil, fmt.Errorf("UDT %s can't have primary key fields", graphqlName)
	}
	if target == TargetTable && len(e.partition) == 0 {
		return nil, fmt.Errorf("table %s must have at least one partition key field", graphqlName)
	}
	for _, c := range e.PrimaryKey() {
		e.primaryKeyW = append(e.primaryKeyW, ConditionModel{
			ArgumentName: c.FieldName,
			Column:       c,
			Predicate:    EQ,
		})
	}
	return e, nil
}

// GraphQLName returns the name of the GraphQL object type.
func (e *EntityModel) GraphQLName() string { return e.graphqlName }

// CQLName returns the table or UDT name.
func (e *EntityModel) CQLName() string { return e.cqlName }

// Target returns whether the entity is a table or a UDT.
func (e *EntityModel) Target() Target { return e.target }

// InputTypeName returns the name of the GraphQL input type that carries a full instance of the entity.
func (e *EntityModel) InputTypeName() string { return e.inputTypeName }

// Columns returns all columns in declaration order.
func (e *EntityModel) Columns() []*ColumnModel {
	return append([]*ColumnModel(nil), e.columns...)
}

// Column looks up a column by GraphQL field name.
func (e *EntityModel) Column(fieldName string) (*ColumnModel, bool) {
	c, ok := e.byField[fieldName]
	return c, ok
}

// PartitionKey returns the partition key columns in declaration order.
func (e *EntityModel) PartitionKey() []*ColumnModel {
	return append([]*ColumnModel(nil), e.partition...)
}

// ClusteringColumns returns the clustering columns in declaration order.
func (e *EntityModel) ClusteringColumns() []*ColumnModel {
	return append([]*ColumnModel(nil), e.clustering...)
}

// PrimaryKey returns the partition key columns followed by the clustering columns.
func (e *EntityModel) PrimaryKey() []*ColumnModel {
	pk := make([]*ColumnModel, 0, len(e.partition)+len(e.clustering))
	pk = append(pk, e.partition...)
	return append(pk, e.clustering...)
}

// RegularColumns returns the columns that are not part of the primary key.
func (e *EntityModel) RegularColumns() []*ColumnModel {
	var out []*ColumnModel
	for _, c := range e.columns {
		if !c.IsPrimaryKey() {
			out = append(out, c)
		}
	}
	return out
}

// PrimaryKeyWhereConditions returns one EQ condition per primary key column,
// in key order, each expecting an argument named after the field. This is the
// WHERE clause of mutations that take a full entity instance.
func (e *EntityModel) PrimaryKeyWhereConditions() []ConditionModel {
	return append([]ConditionModel(nil), e.primaryKeyW...)
}

// ValidateForUpdate checks that a WHERE clause selects exactly one row
// partition: every primary key column restricted with EQ or IN, and no
// condition on a regular column.
func (e *EntityModel) ValidateForUpdate(where []ConditionModel) error {
	restricted := make(map[string]bool, len(where))
	for _, c := range where {
		if !c.Column.IsPrimaryKey() {
			return fmt.Errorf("@cql_where is not allowed on regular field %s, only on primary key fields", c.Column.FieldName)
		}
		if c.Predicate != EQ && c.Predicate != IN {
			return fmt.Errorf("predicate %s is not allowed on primary key field %s, expected EQ or IN", c.Predicate, c.Column.FieldName)
		}
		restricted[c.Column.FieldName] = true
	}
	var missing []string
	for _, c := range e.PrimaryKey() {
		if !restricted[c.FieldName] {
			missing = append(missing, c.FieldName)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("every primary key field of %s must be restricted (missing: %s)", e.graphqlName, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateForQuery checks that a WHERE clause can be served without a full scan.
//
// Conditions on regular fields need a secondary index. Without any indexed
// condition the whole partition key must be restricted with EQ or IN, and the
// clustering columns may only be restricted as a prefix in key order, with a
// range predicate allowed on the last restricted one.
func (e *EntityModel) ValidateForQuery(where []ConditionModel) error {
	byField := make(map[string]ConditionModel, len(where))
	indexed := false
	for _, c := range where {
		col := c.Column
		byField[col.FieldName] = c
		switch col.Role {
		case RoleRegular:
			if col.Index == nil {
				return fmt.Errorf("non-primary key field %s must be indexed (@cql_index) to be used in a condition", col.FieldName)
			}
			if c.Predicate == CONTAINS {
				if col.Collection != CollectionList && col.Collection != CollectionSet {
					return fmt.Errorf("CONTAINS can only be used on list or set fields (%s)", col.FieldName)
				}
				if col.Index.Target == IndexFull {
					return fmt.Errorf("CONTAINS on %s requires an index on the collection values, not FULL", col.FieldName)
				}
			}
			indexed = true
		case RolePartitionKey:
			if c.Predicate != EQ && c.Predicate != IN {
				return fmt.Errorf("predicate %s is not allowed on partition key field %s, expected EQ or IN", c.Predicate, col.FieldName)
			}
		case RoleClustering:
			if c.Predicate == CONTAINS {
				return fmt.Errorf("CONTAINS is not allowed on primary key field %s", col.FieldName)
			}
		}
	}

	var missing []string
	for _, c := range e.partition {
		if _, ok := byField[c.FieldName]; !ok {
			missing = append(missing, c.FieldName)
		}
	}
	fullPartition := len(missing) == 0
	if !fullPartition && (!indexed || len(missing) < len(e.partition)) {
		return fmt.Errorf("every partition key field of %s must be restricted (missing: %s)", e.graphqlName, strings.Join(missing, ", "))
	}

	var gap, rangeOn string
	for _, c := range e.clustering {
		cond, ok := byField[c.FieldName]
		if !ok {
			if gap == "" {
				gap = c.FieldName
			}
			continue
		}
		if !fullPartition {
			return fmt.Errorf("clustering field %s can't be restricted unless the full partition key is", c.FieldName)
		}
		if gap != "" {
			return fmt.Errorf("clustering field %s can't be restricted unless %s is restricted too", c.FieldName, gap)
		}
		if rangeOn != "" {
			return fmt.Errorf("clustering field %s can't be restricted after a range condition on %s", c.FieldName, rangeOn)
		}
		if cond.Predicate.IsRange() {
			rangeOn = c.FieldName
		}
	}
	return nil
}
