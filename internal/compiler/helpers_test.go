package compiler

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"cqlmap/internal/model"
)

func compile(t *testing.T, src string) *model.SchemaModel {
	t.Helper()
	return compileWith(t, Options{}, src)
}

func compileWith(t *testing.T, opts Options, src string) *model.SchemaModel {
	t.Helper()
	opts.Logger = slog.New(slog.DiscardHandler)
	m, err := New(opts).Compile("test.graphql", src)
	require.NoError(t, err)
	return m
}

// operation returns the named operation, failing if it was skipped or has the wrong kind.
func operation[T model.OperationModel](t *testing.T, m *model.SchemaModel, parent, name string) T {
	t.Helper()
	for _, d := range m.DiagnosticsFor(name) {
		require.NotEqual(t, model.SeverityError, d.Severity, "unexpected error: %s", d.Message)
	}
	op, ok := m.Operation(parent, name)
	require.True(t, ok, "operation %s.%s not found", parent, name)
	typed, ok := op.(T)
	require.True(t, ok, "operation %s.%s has kind %s", parent, name, op.Kind())
	return typed
}

// requireRejected checks that the operation is absent and an error about it contains msg.
func requireRejected(t *testing.T, m *model.SchemaModel, parent, name, msg string) {
	t.Helper()
	_, ok := m.Operation(parent, name)
	require.False(t, ok, "operation %s.%s should have been skipped", parent, name)
	requireError(t, m, name, msg)
}

func requireError(t *testing.T, m *model.SchemaModel, element, msg string) {
	t.Helper()
	for _, d := range m.DiagnosticsFor(element) {
		if d.Severity == model.SeverityError {
			require.Contains(t, d.Message, msg)
			return
		}
	}
	require.Failf(t, "missing error", "no error recorded for %s, got %v", element, m.Diagnostics())
}

func fieldNames(conds []model.ConditionModel) []string {
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = c.FieldName()
	}
	return out
}

func conditionPredicates(conds []model.ConditionModel) []model.Predicate {
	out := make([]model.Predicate, len(conds))
	for i, c := range conds {
		out[i] = c.Predicate
	}
	return out
}
