package model

import "go.uber.org/multierr"

// SchemaModel is the result of compiling one schema document.
//
// Operations that failed to compile are absent from Operations; the reasons
// are in Diagnostics, in source order.
type SchemaModel struct {
	entities    []*EntityModel
	byName      map[string]*EntityModel
	payloads    map[string]*ResponsePayloadModel
	operations  []OperationModel
	diagnostics []Diagnostic
	skipped     []string
}

// NewSchemaModel assembles a schema model. The slices are owned by the model afterwards.
func NewSchemaModel(entities []*EntityModel, payloads []*ResponsePayloadModel, operations []OperationModel, diagnostics []Diagnostic) *SchemaModel {
	s := &SchemaModel{
		entities:    entities,
		byName:      make(map[string]*EntityModel, len(entities)),
		payloads:    make(map[string]*ResponsePayloadModel, len(payloads)),
		operations:  operations,
		diagnostics: diagnostics,
	}
	for _, e := range entities {
		s.byName[e.GraphQLName()] = e
	}
	for _, p := range payloads {
		s.payloads[p.Name()] = p
	}
	return s
}

// WithSkipped records the root fields, as "Parent.field", that were left out
// of Operations. It returns s.
func (s *SchemaModel) WithSkipped(fields ...string) *SchemaModel {
	s.skipped = append(s.skipped, fields...)
	return s
}

// Skipped returns the root fields that failed to compile, in source order.
func (s *SchemaModel) Skipped() []string {
	return append([]string(nil), s.skipped...)
}

// Entity looks up an entity by GraphQL type name.
func (s *SchemaModel) Entity(name string) (*EntityModel, bool) {
	e, ok := s.byName[name]
	return e, ok
}

// Entities returns all compiled entities in source order.
func (s *SchemaModel) Entities() []*EntityModel {
	return append([]*EntityModel(nil), s.entities...)
}

// ResponsePayload looks up a response payload by GraphQL type name.
func (s *SchemaModel) ResponsePayload(name string) (*ResponsePayloadModel, bool) {
	p, ok := s.payloads[name]
	return p, ok
}

// Operations returns the compiled operations in source order.
func (s *SchemaModel) Operations() []OperationModel {
	return append([]OperationModel(nil), s.operations...)
}

// Operation finds a compiled operation by field name and parent type.
func (s *SchemaModel) Operation(parentType, name string) (OperationModel, bool) {
	for _, op := range s.operations {
		if op.ParentTypeName() == parentType && op.Name() == name {
			return op, true
		}
	}
	return nil, false
}

// Diagnostics returns every error and warning in source order.
func (s *SchemaModel) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), s.diagnostics...)
}

// DiagnosticsFor returns the diagnostics recorded for one operation or type.
func (s *SchemaModel) DiagnosticsFor(element string) []Diagnostic {
	var out []Diagnostic
	for _, d := range s.diagnostics {
		if d.Element == element {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns the error diagnostics.
func (s *SchemaModel) Errors() []Diagnostic { return s.bySeverity(SeverityError) }

// Warnings returns the warning diagnostics.
func (s *SchemaModel) Warnings() []Diagnostic { return s.bySeverity(SeverityWarning) }

// HasErrors reports whether any element was excluded.
func (s *SchemaModel) HasErrors() bool {
	for _, d := range s.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err combines all error diagnostics into one error, or returns nil.
func (s *SchemaModel) Err() error {
	var err error
	for _, d := range s.Errors() {
		err = multierr.Append(err, d)
	}
	return err
}

func (s *SchemaModel) bySeverity(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range s.diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}
