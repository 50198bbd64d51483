package model

import (
	"github.com/gocql/gocql"
	"github.com/vektah/gqlparser/v2/ast"
)

// OperationKind is the CQL statement an operation compiles to.
type OperationKind int

const (
	KindQuery OperationKind = iota
	KindInsert
	KindUpdate
	KindDelete
)

// String returns a lower-case label for the kind.
func (k OperationKind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// OperationModel is implemented by *QueryModel, *InsertModel, *UpdateModel
// and *DeleteModel, and by nothing else.
type OperationModel interface {
	Kind() OperationKind
	Name() string
	ParentTypeName() string
	Field() *ast.FieldDefinition
	Entity() *EntityModel
	ReturnType() ReturnType
	ResponsePayload() (*ResponsePayloadModel, bool)

	operation()
}

// Operation holds what every operation variant has in common.
type Operation struct {
	ParentType string
	Definition *ast.FieldDefinition
	Target     *EntityModel
	Returns    ReturnType

	Consistency gocql.Consistency
	// SerialConsistency is zero when the operation has none.
	SerialConsistency gocql.SerialConsistency
}

// Name returns the GraphQL field name of the operation.
func (o *Operation) Name() string { return o.Definition.Name }

// ParentTypeName returns the root type (e.g. Query or Mutation) that declares the operation.
func (o *Operation) ParentTypeName() string { return o.ParentType }

// Field returns the source field definition.
func (o *Operation) Field() *ast.FieldDefinition { return o.Definition }

// Entity returns the entity the operation reads or writes.
func (o *Operation) Entity() *EntityModel { return o.Target }

// ReturnType returns the operation's return type.
func (o *Operation) ReturnType() ReturnType { return o.Returns }

// ResponsePayload returns the return type if it is a response payload.
func (o *Operation) ResponsePayload() (*ResponsePayloadModel, bool) {
	p, ok := o.Returns.(*ResponsePayloadModel)
	return p, ok
}

// HasSerialConsistency reports whether a serial consistency level is set.
func (o *Operation) HasSerialConsistency() bool { return o.SerialConsistency != 0 }

func (*Operation) operation() {}

// QueryModel is a GraphQL query mapped to a CQL SELECT.
//
// A serial read (SERIAL or LOCAL_SERIAL) is stored with SerialConsistency set
// and Consistency holding the same protocol code, which is how the native
// protocol expresses it.
type QueryModel struct {
	Operation

	Where []ConditionModel
	// Limit is nil when the query has no overall limit.
	Limit    *int
	PageSize int
	// PagingStateArgument is "" unless an argument carries @cql_pagingState.
	PagingStateArgument string
}

// Kind implements OperationModel.
func (*QueryModel) Kind() OperationKind { return KindQuery }

// InsertModel is a mutation mapped to a CQL INSERT.
type InsertModel struct {
	Operation

	EntityArgument string
	IfNotExists    bool
	// TTL is the row time to live in seconds, nil when unset.
	TTL               *int32
	TimestampArgument string
}

// Kind implements OperationModel.
func (*InsertModel) Kind() OperationKind { return KindInsert }

// UpdateModel is a mutation mapped to a CQL UPDATE.
type UpdateModel struct {
	Operation

	Where       []ConditionModel
	If          []ConditionModel
	Increments  []IncrementModel
	Assignments []AssignmentModel
	// EntityArgument is set when the mutation takes a full entity input.
	EntityArgument    string
	IfExists          bool
	TTL               *int32
	TimestampArgument string
}

// Kind implements OperationModel.
func (*UpdateModel) Kind() OperationKind { return KindUpdate }

// DeleteModel is a mutation mapped to a CQL DELETE.
type DeleteModel struct {
	Operation

	Where    []ConditionModel
	If       []ConditionModel
	IfExists bool
}

// Kind implements OperationModel.
func (*DeleteModel) Kind() OperationKind { return KindDelete }
