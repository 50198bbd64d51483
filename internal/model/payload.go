package model

import "github.com/vektah/gqlparser/v2/ast"

// TechnicalField is a response payload field populated from the storage
// response itself rather than from a column.
type TechnicalField int

const (
	// TechnicalApplied reports whether a conditional mutation was applied.
	TechnicalApplied TechnicalField = iota
	// TechnicalPagingState carries the paging state of a query.
	TechnicalPagingState
)

// GraphQLName returns the field name that triggers the technical field.
func (f TechnicalField) GraphQLName() string {
	switch f {
	case TechnicalApplied:
		return "applied"
	case TechnicalPagingState:
		return "pagingState"
	default:
		return ""
	}
}

// GraphQLType returns the scalar type the field must be declared with.
func (f TechnicalField) GraphQLType() string {
	if f == TechnicalApplied {
		return "Boolean"
	}
	return "String"
}

// TechnicalFieldByName returns the technical field named name, if any.
func TechnicalFieldByName(name string) (TechnicalField, bool) {
	for _, f := range []TechnicalField{TechnicalApplied, TechnicalPagingState} {
		if f.GraphQLName() == name {
			return f, true
		}
	}
	return 0, false
}

// EntityField is the payload field that returns rows of an entity.
type EntityField struct {
	Name   string
	Entity *EntityModel
	List   bool
}

// PayloadField is any other payload field. It is never populated.
type PayloadField struct {
	Name string
	Type *ast.Type
}

// ResponsePayloadModel is a @cql_payload object used as an operation's return type.
type ResponsePayloadModel struct {
	name       string
	entity     *EntityField
	technical  []TechnicalField
	userFields []PayloadField
}

// NewResponsePayloadModel builds a payload; entity may be nil.
func NewResponsePayloadModel(name string, entity *EntityField, technical []TechnicalField, userFields []PayloadField) *ResponsePayloadModel {
	return &ResponsePayloadModel{
		name:       name,
		entity:     entity,
		technical:  technical,
		userFields: userFields,
	}
}

// Name returns the GraphQL type name.
func (p *ResponsePayloadModel) Name() string { return p.name }

// EntityField returns the entity field, or nil if the payload has none.
func (p *ResponsePayloadModel) EntityField() *EntityField { return p.entity }

// TechnicalFields returns the technical fields in declaration order.
func (p *ResponsePayloadModel) TechnicalFields() []TechnicalField {
	return append([]TechnicalField(nil), p.technical...)
}

// HasTechnicalField reports whether the payload declares f.
func (p *ResponsePayloadModel) HasTechnicalField(f TechnicalField) bool {
	for _, t := range p.technical {
		if t == f {
			return true
		}
	}
	return false
}

// UserFields returns the fields that are neither technical nor the entity.
func (p *ResponsePayloadModel) UserFields() []PayloadField {
	return append([]PayloadField(nil), p.userFields...)
}

func (*ResponsePayloadModel) returnType() {}

// ReturnType describes what an operation returns. It is one of
// BooleanReturnType, EntityReturnType or *ResponsePayloadModel.
type ReturnType interface {
	returnType()
}

// BooleanReturnType is a plain Boolean result.
type BooleanReturnType struct{}

func (BooleanReturnType) returnType() {}

// Boolean is the singleton Boolean return type.
var Boolean ReturnType = BooleanReturnType{}

// EntityReturnType returns one row or a list of rows of an entity.
type EntityReturnType struct {
	Entity *EntityModel
	List   bool
}

func (EntityReturnType) returnType() {}
