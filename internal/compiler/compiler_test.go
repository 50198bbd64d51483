package compiler

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cqlmap/internal/model"
)

const librarySchema = `
type Book @cql_entity(name: "books") @cql_input {
  isbn: String! @cql_column(partitionKey: true)
  title: String @cql_index
  authors: [String] @cql_index
  pages: Int
}
type Reader @cql_input {
  id: ID!
  name: String
  visits: [Timestamp]
}
type BooksPage @cql_payload {
  books: [Book]
  pagingState: String
}
type Query {
  book(isbn: String!): Book
  booksByTitle(title: String, page: String @cql_pagingState): BooksPage @cql_select(pageSize: 25)
  booksByAuthor(author: String @cql_where(field: "authors", predicate: CONTAINS)): [Book]
  reader(id: ID!): Reader
}
type Mutation {
  insertBook(book: BookInput!): Boolean
  updateBookPages(isbn: String!, pages: Int): Boolean
  deleteBook(isbn: String!): Boolean @cql_delete(ifExists: true)
  insertReaderIfNotExists(reader: ReaderInput!): Reader
  updateReaderVisits(id: ID!, visits: [Timestamp] @cql_increment): Boolean
  removeReader(id: ID!): Boolean
}
`

func TestCompile_Library(t *testing.T) {
	m := compile(t, librarySchema)
	require.Empty(t, m.Diagnostics())
	require.NoError(t, m.Err())

	var names []string
	for _, op := range m.Operations() {
		names = append(names, op.ParentTypeName()+"."+op.Name()+":"+op.Kind().String())
	}
	assert.Equal(t, []string{
		"Query.book:query",
		"Query.booksByTitle:query",
		"Query.booksByAuthor:query",
		"Query.reader:query",
		"Mutation.insertBook:insert",
		"Mutation.updateBookPages:update",
		"Mutation.deleteBook:delete",
		"Mutation.insertReaderIfNotExists:insert",
		"Mutation.updateReaderVisits:update",
		"Mutation.removeReader:delete",
	}, names)

	var entities []string
	for _, e := range m.Entities() {
		entities = append(entities, e.GraphQLName()+"="+e.CQLName())
	}
	assert.Equal(t, []string{"Book=books", "Reader=Reader"}, entities)

	page := operation[*model.QueryModel](t, m, "Query", "booksByTitle")
	assert.Equal(t, 25, page.PageSize)
	assert.Equal(t, "page", page.PagingStateArgument)

	_, ok := m.ResponsePayload("BooksPage")
	assert.True(t, ok)
}

func TestCompile_PrimaryKeyConditionsFollowKeyOrder(t *testing.T) {
	m := compile(t, `
type Reading @cql_input {
  value: Float
  minute: Int! @cql_column(clusteringOrder: ASC)
  sensor: ID! @cql_column(partitionKey: true)
  hour: Int! @cql_column(clusteringOrder: DESC)
  day: Date! @cql_column(partitionKey: true)
}
type Mutation {
  updateReading(reading: ReadingInput!): Boolean
}
`)
	u := operation[*model.UpdateModel](t, m, "Mutation", "updateReading")
	assert.Equal(t, []string{"sensor", "day", "minute", "hour"}, fieldNames(u.Where))
	for _, c := range u.Where {
		assert.Equal(t, model.EQ, c.Predicate)
	}
}

func TestCompile_PayloadWarningsKeepOperation(t *testing.T) {
	m := compile(t, `
type User { id: ID! name: String }
type UpdateUserResponse @cql_payload {
  applied: Boolean
  user: User
  pagingState: String
  extra: String
}
type Mutation {
  updateUser(id: ID!, name: String): UpdateUserResponse @cql_update
}
`)
	u := operation[*model.UpdateModel](t, m, "Mutation", "updateUser")
	assert.Equal(t, "User", u.Entity().GraphQLName())

	warnings := m.DiagnosticsFor("updateUser")
	require.Len(t, warnings, 3)
	var ignored []string
	for _, w := range warnings {
		assert.Equal(t, model.SeverityWarning, w.Severity)
		ignored = append(ignored, strings.TrimSuffix(w.Message[strings.LastIndex(w.Message, ", ")+2:], " will always be null"))
	}
	assert.Equal(t, []string{"pagingState", "user", "extra"}, ignored)
	assert.False(t, m.HasErrors())
}

func TestCompile_Deterministic(t *testing.T) {
	render := func(m *model.SchemaModel) string {
		var b strings.Builder
		for _, op := range m.Operations() {
			fmt.Fprintf(&b, "%s.%s %s %s\n", op.ParentTypeName(), op.Name(), op.Kind(), op.Entity().GraphQLName())
			fmt.Fprintln(&b, describeOperation(op)...)
			switch o := op.(type) {
			case *model.QueryModel:
				fmt.Fprintln(&b, fieldNames(o.Where), conditionPredicates(o.Where))
			case *model.UpdateModel:
				fmt.Fprintln(&b, fieldNames(o.Where), conditionPredicates(o.Where), fieldNames(o.If), conditionPredicates(o.If))
			case *model.DeleteModel:
				fmt.Fprintln(&b, fieldNames(o.Where), conditionPredicates(o.Where), fieldNames(o.If), conditionPredicates(o.If))
			}
		}
		for _, e := range m.Entities() {
			for _, c := range e.Columns() {
				fmt.Fprintf(&b, "%s.%s %s %s\n", e.GraphQLName(), c.FieldName, c.CQLType, c.Role)
			}
		}
		for _, d := range m.Diagnostics() {
			fmt.Fprintf(&b, "%s\n", d.Error())
		}
		return b.String()
	}
	src := librarySchema + "\ntype Broken { text: String }\n"
	first := render(compile(t, src))
	assert.Contains(t, first, "where authors CONTAINS ?")
	assert.Contains(t, first, "[authors] [CONTAINS]")
	for range 5 {
		assert.Equal(t, first, render(compile(t, src)))
	}
}

func TestCompile_SchemaBlockAndExtensions(t *testing.T) {
	m := compile(t, `
schema { query: Q mutation: M }
type User @cql_input { id: ID! name: String }
type Q { users(id: ID!): [User] }
type M { insertUser(user: UserInput!): Boolean }
extend type M { deleteUser(id: ID!): Boolean }
extend type User { email: String }
`)
	require.Empty(t, m.Diagnostics())

	_, ok := m.Operation("Q", "users")
	assert.True(t, ok)
	_, ok = m.Operation("M", "insertUser")
	assert.True(t, ok)
	del, ok := m.Operation("M", "deleteUser")
	require.True(t, ok)
	assert.Equal(t, model.KindDelete, del.Kind())

	user, _ := m.Entity("User")
	_, ok = user.Column("email")
	assert.True(t, ok)
}

func TestCompile_Subscription(t *testing.T) {
	m := compile(t, `
type User { id: ID! }
type Subscription { userChanged(id: ID!): User }
`)
	assert.Empty(t, m.Operations())
	assert.False(t, m.HasErrors())
	warnings := m.DiagnosticsFor("userChanged")
	require.Len(t, warnings, 1)
	assert.Equal(t, model.SeverityWarning, warnings[0].Severity)
	assert.Contains(t, warnings[0].Message, "subscriptions are not supported")
}

func TestCompile_ParseError(t *testing.T) {
	m, err := New(Options{Logger: slog.New(slog.DiscardHandler)}).Compile("broken.graphql", "type {")
	require.Error(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "parse schema broken.graphql")
}

func TestCompile_CustomConventions(t *testing.T) {
	src := `
type User @cql_input { id: ID! name: String }
type Mutation {
  saveUser(user: UserInput!): Boolean
  dropUserWhenPresent(id: ID!): Boolean
  insertUser(user: UserInput!): Boolean
}
`
	m := compileWith(t, Options{Conventions: &Conventions{
		InsertPrefixes: []string{"save"},
		DeletePrefixes: []string{"drop"},
		IfExistsSuffix: "WhenPresent",
	}}, src)

	operation[*model.InsertModel](t, m, "Mutation", "saveUser")
	drop := operation[*model.DeleteModel](t, m, "Mutation", "dropUserWhenPresent")
	assert.True(t, drop.IfExists)
	requireRejected(t, m, "Mutation", "insertUser", "could not determine the type of operation")
}

func TestCompile_ErrCombinesErrors(t *testing.T) {
	m := compile(t, `
type Note { text: String }
type User { id: ID! }
type Query {
  users(name: String): [User]
}
`)
	require.Len(t, m.Errors(), 2)
	err := m.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Type Note")
	assert.Contains(t, err.Error(), "Query users: unknown field name in type User")
	assert.Equal(t, []string{"Query.users"}, m.Skipped())
}

func TestCompile_CompilerIsReusable(t *testing.T) {
	c := New(Options{Logger: slog.New(slog.DiscardHandler)})
	broken, err := c.Compile("a.graphql", "type Note { text: String }")
	require.NoError(t, err)
	assert.True(t, broken.HasErrors())

	ok, err := c.Compile("b.graphql", "type User { id: ID! }")
	require.NoError(t, err)
	assert.Empty(t, ok.Diagnostics())
}

func TestCompile_LogsCompiledOperations(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m, err := New(Options{Logger: logger}).Compile("test.graphql", `
type Reading @cql_entity(name: "Readings") {
  sensor: ID! @cql_column(partitionKey: true)
  day: Date! @cql_column(clusteringOrder: DESC)
  value: Float
}
type Query {
  readings(sensor: [ID] @cql_where(predicate: IN), day: Date @cql_where(predicate: GTE)): [Reading] @cql_select(consistencyLevel: LOCAL_SERIAL)
}
type Mutation {
  updateReading(sensor: ID!, day: Date!, value: Float, old: Float @cql_if(field: "value", predicate: NEQ)): Boolean
}
`)
	require.NoError(t, err)
	require.Empty(t, m.Errors())

	out := buf.String()
	assert.Contains(t, out, `msg="operation compiled" operation=Query.readings kind=query table="\"Readings\""`)
	assert.Contains(t, out, `consistency=LOCAL_SERIAL serial_consistency=LOCAL_SERIAL where="sensor IN ? AND day >= ?"`)
	assert.Contains(t, out, `operation=Mutation.updateReading kind=update`)
	assert.Contains(t, out, `consistency=LOCAL_QUORUM serial_consistency=SERIAL where="sensor = ? AND day = ?" if="value != ?"`)
}
