package compiler

import (
	"fmt"
	"strings"

	"github.com/gocql/gocql"
	"github.com/vektah/gqlparser/v2/ast"

	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// operationBuilder holds what the four operation builders share: the field
// being compiled, its diagnostics prefix and the compiled types it can refer to.
type operationBuilder struct {
	ctx         *Context
	reader      *directive.Reader
	registry    *typeRegistry
	resolver    *entityResolver
	payloads    map[string]*model.ResponsePayloadModel
	conventions Conventions

	parent string
	field  *ast.FieldDefinition
	kind   model.OperationKind
	// label prefixes every diagnostic: "Query" or "Mutation".
	label string
}

func (b *operationBuilder) name() string { return b.field.Name }

func (b *operationBuilder) errorf(format string, args ...any) error {
	return b.errorAt(b.field.Position, format, args...)
}

func (b *operationBuilder) errorAt(pos *ast.Position, format string, args ...any) error {
	return b.ctx.Errorf(b.field.Name, pos, "%s %s: %s", b.label, b.field.Name, fmt.Sprintf(format, args...))
}

func (b *operationBuilder) warnf(format string, args ...any) {
	b.ctx.Warnf(b.field.Name, b.field.Position, "%s %s: %s", b.label, b.field.Name, fmt.Sprintf(format, args...))
}

// mappingError records a directive read failure.
func (b *operationBuilder) mappingError(err error, fallback *ast.Position) error {
	return b.errorAt(positionOf(err, fallback), "%v", err)
}

// read reads a field-level directive, substituting its defaults when absent.
func (b *operationBuilder) read(name string) (*directive.Instance, error) {
	inst, err := b.reader.Read(name, b.field.Directives, ast.LocationFieldDefinition)
	if err != nil {
		return nil, b.mappingError(err, b.field.Position)
	}
	if inst == nil {
		inst = b.reader.Defaults(name)
	}
	return inst, nil
}

// readArgument reads an argument-level directive; nil when absent.
func (b *operationBuilder) readArgument(name string, arg *ast.ArgumentDefinition) (*directive.Instance, error) {
	inst, err := b.reader.Read(name, arg.Directives, ast.LocationArgumentDefinition)
	if err != nil {
		return nil, b.mappingError(err, arg.Position)
	}
	return inst, nil
}

// checkArguments rejects misplaced or misspelled directives on every argument.
func (b *operationBuilder) checkArguments() error {
	for _, arg := range b.field.Arguments {
		if err := b.reader.Check(arg.Directives, ast.LocationArgumentDefinition); err != nil {
			return b.mappingError(err, arg.Position)
		}
	}
	return nil
}

// returnType classifies the field type as Boolean, an entity, a list of
// entities or a response payload.
func (b *operationBuilder) returnType() (model.ReturnType, error) {
	t := b.field.Type
	if nestedList(t) {
		return nil, b.errorf("unsupported return type %s", t.String())
	}
	name := baseName(t)
	if !isList(t) && name == "Boolean" {
		return model.Boolean, nil
	}
	if e, ok := b.resolver.entity(name); ok {
		if e.Target() != model.TargetTable {
			return nil, b.errorf("return type %s maps to a UDT, expected a table entity", name)
		}
		return model.EntityReturnType{Entity: e, List: isList(t)}, nil
	}
	if p, ok := b.payloads[name]; ok {
		if isList(t) {
			return nil, b.errorf("response payloads can't be returned as lists (%s)", t.String())
		}
		return p, nil
	}
	if _, scalar := scalarTypes[name]; !scalar {
		// Objects that failed to compile are reported as unknown too.
		if def, declared := b.registry.lookup(name); !declared || def.Kind == ast.Object {
			return nil, b.errorf("unknown type %s", name)
		}
	}
	return nil, b.errorf("unsupported return type %s, expected Boolean, an entity or a response payload", t.String())
}

// warnUnsupported warns once per payload field that the operation can't populate.
func (b *operationBuilder) warnUnsupported(p *model.ResponsePayloadModel, entitySupported bool, technical ...model.TechnicalField) {
	supported := make(map[model.TechnicalField]bool, len(technical))
	var names []string
	for _, t := range technical {
		supported[t] = true
		names = append(names, "'"+t.GraphQLName()+"'")
	}
	if entitySupported {
		names = append(names, "the entity field")
	}
	what := strings.Join(names, " and ")

	for _, t := range p.TechnicalFields() {
		if !supported[t] {
			b.warnf("%s only supports %s in response payloads, %s will always be null", b.kindLabel(), what, t.GraphQLName())
		}
	}
	if ef := p.EntityField(); ef != nil && !entitySupported {
		b.warnf("%s only supports %s in response payloads, %s will always be null", b.kindLabel(), what, ef.Name)
	}
	for _, f := range p.UserFields() {
		b.warnf("%s only supports %s in response payloads, %s will always be null", b.kindLabel(), what, f.Name)
	}
}

func (b *operationBuilder) kindLabel() string {
	if b.kind == model.KindQuery {
		return "queries"
	}
	return b.kind.String() + "s"
}

// kindFromDirectives returns the kind selected by a mutation directive.
func (b *operationBuilder) kindFromDirectives() (model.OperationKind, int) {
	var kind model.OperationKind
	n := 0
	for _, candidate := range []struct {
		name string
		kind model.OperationKind
	}{
		{directive.Insert, model.KindInsert},
		{directive.Update, model.KindUpdate},
		{directive.Delete, model.KindDelete},
	} {
		if b.field.Directives.ForName(candidate.name) != nil {
			if n == 0 {
				kind = candidate.kind
			}
			n++
		}
	}
	return kind, n
}

// mutationConsistency reads consistencyLevel and serialConsistency.
func (b *operationBuilder) mutationConsistency(inst *directive.Instance) (gocql.Consistency, gocql.SerialConsistency, error) {
	name, _ := inst.Enum(directive.ArgConsistencyLevel)
	c, err := model.ParseConsistency(name)
	if err != nil {
		return 0, 0, b.errorf("%v", err)
	}
	serialName, _ := inst.Enum(directive.ArgSerialConsistency)
	s, err := model.ParseSerialConsistency(serialName)
	if err != nil {
		return 0, 0, b.errorf("%v", err)
	}
	return c, s, nil
}

// flag returns a Boolean directive argument. When the document doesn't set
// it, a name ending in suffix turns it on.
func (b *operationBuilder) flag(inst *directive.Instance, arg string, bySuffix func(string) bool) bool {
	if inst.Explicit(arg) {
		v, _ := inst.Bool(arg)
		return v
	}
	if bySuffix(b.name()) {
		return true
	}
	v, _ := inst.Bool(arg)
	return v
}

// ttl parses the ttl argument; nil when unset.
func (b *operationBuilder) ttl(inst *directive.Instance) (*int32, error) {
	raw, ok := inst.String(directive.ArgTTL)
	if !ok {
		return nil, nil
	}
	secs, err := parseTTL(raw)
	if err != nil {
		return nil, b.errorAt(inst.Position(), "invalid ttl %q: %v", raw, err)
	}
	return &secs, nil
}

// timestampArgument validates an argument annotated with @cql_timestamp.
func (b *operationBuilder) timestampArgument(arg *ast.ArgumentDefinition) error {
	if !isNamed(arg.Type, "BigInt") && !isNamed(arg.Type, "String") {
		return b.errorAt(arg.Position, "argument %s annotated with @%s must have type BigInt or String", arg.Name, directive.Timestamp)
	}
	return nil
}

// splitTimestamp separates at most one @cql_timestamp argument from the others.
func (b *operationBuilder) splitTimestamp(args ast.ArgumentDefinitionList) (string, []*ast.ArgumentDefinition, error) {
	var timestamp string
	var rest []*ast.ArgumentDefinition
	for _, arg := range args {
		inst, err := b.readArgument(directive.Timestamp, arg)
		if err != nil {
			return "", nil, err
		}
		if inst == nil {
			rest = append(rest, arg)
			continue
		}
		if timestamp != "" {
			return "", nil, b.errorAt(arg.Position, "only one argument can be annotated with @%s (found %s and %s)", directive.Timestamp, timestamp, arg.Name)
		}
		if err := b.timestampArgument(arg); err != nil {
			return "", nil, err
		}
		timestamp = arg.Name
	}
	return timestamp, rest, nil
}

// base fills the fields common to every operation.
func (b *operationBuilder) base(entity *model.EntityModel, returns model.ReturnType) model.Operation {
	return model.Operation{
		ParentType: b.parent,
		Definition: b.field,
		Target:     entity,
		Returns:    returns,
	}
}

// payloadEntity returns the entity of a response payload return type, or nil.
func payloadEntity(rt model.ReturnType) *model.EntityModel {
	if p, ok := rt.(*model.ResponsePayloadModel); ok && p.EntityField() != nil {
		return p.EntityField().Entity
	}
	return nil
}
