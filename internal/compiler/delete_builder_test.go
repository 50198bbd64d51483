package compiler

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cqlmap/internal/model"
)

const deleteSchema = `
type User @cql_input {
  id: ID! @cql_column(partitionKey: true)
  name: String
}
type DeleteResponse @cql_payload { applied: Boolean user: User }
`

func TestDelete_Valid(t *testing.T) {
	m := compile(t, deleteSchema+`
type Mutation {
  deleteUser(id: ID!): Boolean
  removeUserIfExists(id: ID!): Boolean @cql_delete(consistencyLevel: LOCAL_ONE)
  deleteUsers(id: [ID!] @cql_where(predicate: IN)): Boolean
  deleteUserIfName(id: ID!, name: String @cql_if): DeleteResponse
}
`)
	d := operation[*model.DeleteModel](t, m, "Mutation", "deleteUser")
	assert.Equal(t, "User", d.Entity().GraphQLName())
	assert.Equal(t, []string{"id"}, fieldNames(d.Where))
	assert.Empty(t, d.If)
	assert.False(t, d.IfExists)

	ifExists := operation[*model.DeleteModel](t, m, "Mutation", "removeUserIfExists")
	assert.True(t, ifExists.IfExists)
	assert.Equal(t, gocql.LocalOne, ifExists.Consistency)

	in := operation[*model.DeleteModel](t, m, "Mutation", "deleteUsers")
	assert.Equal(t, model.IN, in.Where[0].Predicate)

	cond := operation[*model.DeleteModel](t, m, "Mutation", "deleteUserIfName")
	assert.Equal(t, []string{"name"}, fieldNames(cond.If))
	assert.Equal(t, model.EQ, cond.If[0].Predicate)
	warnings := m.DiagnosticsFor("deleteUserIfName")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "deletes only supports 'applied' in response payloads, user will always be null")
}

func TestDelete_IfWithIfExists(t *testing.T) {
	t.Run("argument condition", func(t *testing.T) {
		m := compile(t, deleteSchema+`
type Mutation {
  deleteUser(id: ID!, name: String @cql_if(predicate: NEQ)): Boolean @cql_delete(ifExists: true)
}
`)
		requireRejected(t, m, "Mutation", "deleteUser", "Mutation deleteUser: can't use @cql_if and ifExists at the same time")
	})
	t.Run("misplaced field condition", func(t *testing.T) {
		m := compile(t, deleteSchema+`
type Mutation {
  deleteUser(id: ID!): Boolean @cql_delete @cql_if(field: "name", predicate: NEQ) @cql_delete(ifExists: true)
}
`)
		_, ok := m.Operation("Mutation", "deleteUser")
		assert.False(t, ok)
		require.NotEmpty(t, m.DiagnosticsFor("deleteUser"))
		assert.True(t, m.HasErrors())
	})
}

func TestDelete_Errors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		msg   string
	}{
		{"no arguments", "deleteUser: Boolean", "deletes must take the primary key fields as arguments"},
		{"entity input", "deleteUser(user: UserInput!): Boolean", "deletes can't take an entity input type (user)"},
		{"timestamp", "deleteUser(id: ID!, ts: BigInt @cql_timestamp): Boolean", "@cql_timestamp can't be used on deletes (ts)"},
		{"regular field in where", "deleteUser(id: ID!, name: String): Boolean", "@cql_where is not allowed on regular field name"},
		{"in with if", "deleteUser(id: [ID!] @cql_where(predicate: IN), name: String @cql_if): Boolean", "IN predicates on primary key fields are not allowed if there are @cql_if conditions"},
		{"increment", "deleteUser(id: ID!, name: String @cql_increment): Boolean", "@cql_increment is only allowed on updates"},
		{"entity return", "deleteUser(id: ID!): User", "invalid return type, expected Boolean or a response payload"},
		{"ttl argument", `deleteUser(id: ID!): Boolean @cql_delete(ttl: "60")`, "@cql_delete.ttl: unknown argument"},
		{"repeated directive", "deleteUser(id: ID!): Boolean @cql_delete @cql_delete", "@cql_delete: can't be used more than once"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := compile(t, deleteSchema+"type Mutation {\n  "+tt.field+"\n}\n")
			requireRejected(t, m, "Mutation", "deleteUser", tt.msg)
		})
	}
}
