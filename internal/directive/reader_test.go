package directive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func parseField(t *testing.T, field string) *ast.FieldDefinition {
	t.Helper()
	doc, err := parser.ParseSchema(&ast.Source{Name: "test.graphql", Input: "type Mutation {\n" + field + "\n}"})
	require.NoError(t, err)
	require.Len(t, doc.Definitions, 1)
	require.Len(t, doc.Definitions[0].Fields, 1)
	return doc.Definitions[0].Fields[0]
}

func TestRead_Absent(t *testing.T) {
	r := NewReader(nil)
	f := parseField(t, "insertUser(user: UserInput!): Boolean")

	inst, err := r.Read(Insert, f.Directives, ast.LocationFieldDefinition)
	require.NoError(t, err)
	assert.Nil(t, inst)
}

func TestRead_DefaultsApplied(t *testing.T) {
	r := NewReader(nil)
	f := parseField(t, "users: [User] @cql_select")

	inst, err := r.Read(Select, f.Directives, ast.LocationFieldDefinition)
	require.NoError(t, err)
	require.NotNil(t, inst)

	pageSize, ok := inst.Int(ArgPageSize)
	require.True(t, ok)
	assert.Equal(t, DefaultPageSize, pageSize)
	assert.False(t, inst.Explicit(ArgPageSize))

	cl, ok := inst.Enum(ArgConsistencyLevel)
	require.True(t, ok)
	assert.Equal(t, "LOCAL_QUORUM", cl)

	_, ok = inst.Int(ArgLimit)
	assert.False(t, ok, "limit has no default")
	assert.False(t, inst.Present(ArgLimit))
}

func TestRead_ExplicitValues(t *testing.T) {
	r := NewReader(nil)
	f := parseField(t, `updateUser(id: ID!): Boolean @cql_update(targetEntity: "User", ifExists: true, consistencyLevel: ALL, ttl: "PT1H")`)

	inst, err := r.Read(Update, f.Directives, ast.LocationFieldDefinition)
	require.NoError(t, err)
	require.NotNil(t, inst)

	target, ok := inst.String(ArgTargetEntity)
	require.True(t, ok)
	assert.Equal(t, "User", target)

	ifExists, ok := inst.Bool(ArgIfExists)
	require.True(t, ok)
	assert.True(t, ifExists)
	assert.True(t, inst.Explicit(ArgIfExists))

	cl, _ := inst.Enum(ArgConsistencyLevel)
	assert.Equal(t, "ALL", cl)
	serial, _ := inst.Enum(ArgSerialConsistency)
	assert.Equal(t, "SERIAL", serial)
	assert.False(t, inst.Explicit(ArgSerialConsistency))

	ttl, _ := inst.String(ArgTTL)
	assert.Equal(t, "PT1H", ttl)
	require.NotNil(t, inst.Position())
	assert.Equal(t, 2, inst.Position().Line)
}

func TestRead_ExplicitFalseIsExplicit(t *testing.T) {
	r := NewReader(nil)
	f := parseField(t, "deleteUserIfExists(id: ID!): Boolean @cql_delete(ifExists: false)")

	inst, err := r.Read(Delete, f.Directives, ast.LocationFieldDefinition)
	require.NoError(t, err)
	v, ok := inst.Bool(ArgIfExists)
	require.True(t, ok)
	assert.False(t, v)
	assert.True(t, inst.Explicit(ArgIfExists))
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		read     string
		loc      ast.DirectiveLocation
		argument string
		contains string
	}{
		{
			name:     "boolean given a string",
			field:    `insertUser(u: UserInput): Boolean @cql_insert(ifNotExists: "yes")`,
			read:     Insert,
			loc:      ast.LocationFieldDefinition,
			argument: ArgIfNotExists,
			contains: "expected a Boolean",
		},
		{
			name:     "int given a string",
			field:    `users: [User] @cql_select(limit: "10")`,
			read:     Select,
			loc:      ast.LocationFieldDefinition,
			argument: ArgLimit,
			contains: "expected an Int",
		},
		{
			name:     "enum value outside its set",
			field:    "users: [User] @cql_select(consistencyLevel: EACH_QUORUM)",
			read:     Select,
			loc:      ast.LocationFieldDefinition,
			argument: ArgConsistencyLevel,
			contains: "invalid QueryConsistency value EACH_QUORUM",
		},
		{
			name:     "serial level rejected for mutations",
			field:    "insertUser(u: UserInput): Boolean @cql_insert(consistencyLevel: SERIAL)",
			read:     Insert,
			loc:      ast.LocationFieldDefinition,
			argument: ArgConsistencyLevel,
			contains: "MutationConsistency",
		},
		{
			name:     "enum given a string",
			field:    `users: [User] @cql_select(consistencyLevel: "ALL")`,
			read:     Select,
			loc:      ast.LocationFieldDefinition,
			argument: ArgConsistencyLevel,
			contains: "expected a QueryConsistency value",
		},
		{
			name:     "unknown argument",
			field:    "deleteUser(id: ID): Boolean @cql_delete(ttl: \"1\")",
			read:     Delete,
			loc:      ast.LocationFieldDefinition,
			argument: ArgTTL,
			contains: "unknown argument",
		},
		{
			name:     "wrong location",
			field:    "users: [User] @cql_where(field: \"id\")",
			read:     Where,
			loc:      ast.LocationFieldDefinition,
			contains: "not allowed on FIELD_DEFINITION",
		},
		{
			name:     "used twice",
			field:    "deleteUser(id: ID!): Boolean @cql_delete @cql_delete(ifExists: true)",
			read:     Delete,
			loc:      ast.LocationFieldDefinition,
			contains: "more than once",
		},
	}
	r := NewReader(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseField(t, tt.field)
			inst, err := r.Read(tt.read, f.Directives, tt.loc)
			require.Error(t, err)
			assert.Nil(t, inst)

			var me *MappingError
			require.True(t, errors.As(err, &me), "want *MappingError, got %T", err)
			assert.Equal(t, tt.read, me.Directive)
			assert.Equal(t, tt.argument, me.Argument)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestRead_ArgumentDirective(t *testing.T) {
	r := NewReader(nil)
	f := parseField(t, `updateUser(id: ID!, n: String @cql_if(field: "name", predicate: NEQ)): Boolean`)
	arg := f.Arguments.ForName("n")
	require.NotNil(t, arg)

	inst, err := r.Read(If, arg.Directives, ast.LocationArgumentDefinition)
	require.NoError(t, err)
	require.NotNil(t, inst)
	field, _ := inst.String(ArgField)
	assert.Equal(t, "name", field)
	p, _ := inst.Enum(ArgPredicate)
	assert.Equal(t, "NEQ", p)
}

func TestRead_NEQNotAWherePredicate(t *testing.T) {
	r := NewReader(nil)
	f := parseField(t, `users(n: String @cql_where(field: "name", predicate: NEQ)): [User]`)

	_, err := r.Read(Where, f.Arguments.ForName("n").Directives, ast.LocationArgumentDefinition)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid Predicate value NEQ")
}

func TestRead_NotInCatalog(t *testing.T) {
	r := NewReader(NewCatalog())
	f := parseField(t, "users: [User] @cql_select")

	_, err := r.Read(Select, f.Directives, ast.LocationFieldDefinition)
	require.Error(t, err)
	var me *MappingError
	assert.False(t, errors.As(err, &me))
}

func TestDefaults(t *testing.T) {
	r := NewReader(nil)

	inst := r.Defaults(Insert)
	ifNotExists, ok := inst.Bool(ArgIfNotExists)
	require.True(t, ok)
	assert.False(t, ifNotExists)
	serial, _ := inst.Enum(ArgSerialConsistency)
	assert.Equal(t, "SERIAL", serial)
	assert.False(t, inst.Explicit(ArgIfNotExists))
	assert.Nil(t, inst.Position())

	unknown := r.Defaults("cql_nope")
	assert.False(t, unknown.Present(ArgName))
}

func TestCheck(t *testing.T) {
	r := NewReader(nil)

	ok := parseField(t, "users: [User] @cql_select @deprecated(reason: \"old\")")
	assert.NoError(t, r.Check(ok.Directives, ast.LocationFieldDefinition))

	typo := parseField(t, "users: [User] @cql_selekt")
	err := r.Check(typo.Directives, ast.LocationFieldDefinition)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "@cql_selekt: unknown directive")

	misplaced := parseField(t, "users: [User] @cql_pagingState")
	err = r.Check(misplaced.Directives, ast.LocationFieldDefinition)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed on FIELD_DEFINITION")
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, []string{
		Entity, Input, Column, Index, Payload, PagingState, Select,
		Insert, Update, Delete, Where, If, Increment, Timestamp,
	}, c.Names())

	del, ok := c.Lookup(Delete)
	require.True(t, ok)
	_, hasTTL := del.Argument(ArgTTL)
	assert.False(t, hasTTL, "deletes carry no TTL")

	payload, _ := c.Lookup(Payload)
	assert.True(t, payload.AllowedAt(ast.LocationInputObject))
	assert.False(t, payload.AllowedAt(ast.LocationFieldDefinition))
}
