// Package compiler turns an annotated GraphQL schema document into a
// model.SchemaModel describing how each query and mutation maps onto CQL.
//
// A compilation pass never stops at the first problem. Entities, payloads and
// operations that can't be compiled are left out of the result and the
// reason is recorded as a diagnostic; the rest of the document still compiles.
package compiler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// Options configures a Compiler. The zero value uses the built-in catalog and
// naming conventions and logs to slog.Default().
type Options struct {
	Catalog     *directive.Catalog
	Conventions *Conventions
	Logger      *slog.Logger
}

// Compiler compiles schema documents. It holds no per-pass state and is safe
// for concurrent use.
type Compiler struct {
	reader      *directive.Reader
	conventions Conventions
	logger      *slog.Logger
}

// New returns a compiler configured by opts.
func New(opts Options) *Compiler {
	c := &Compiler{
		reader:      directive.NewReader(opts.Catalog),
		conventions: DefaultConventions(),
		logger:      opts.Logger,
	}
	if opts.Conventions != nil {
		c.conventions = *opts.Conventions
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Compile parses source and compiles it. The only error it returns is a
// parse failure; mapping problems are reported in the model's diagnostics.
func (c *Compiler) Compile(name, source string) (*model.SchemaModel, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	start := time.Now()
	m := c.CompileDocument(doc)
	c.logger.Info("schema compiled",
		"name", name,
		"entities", len(m.Entities()),
		"operations", len(m.Operations()),
		"errors", len(m.Errors()),
		"warnings", len(m.Warnings()),
		"duration", time.Since(start),
	)
	return m, nil
}

// CompileDocument compiles an already parsed document.
func (c *Compiler) CompileDocument(doc *ast.SchemaDocument) *model.SchemaModel {
	ctx := NewContext(c.logger)
	reg := newTypeRegistry(doc)

	eb := &entityBuilder{ctx: ctx, reader: c.reader, registry: reg}
	entities := eb.buildAll(candidateEntities(reg))
	resolver := newEntityResolver(entities)

	pb := &payloadBuilder{ctx: ctx, reader: c.reader, registry: reg, entities: resolver.byName}
	payloads := pb.buildAll()
	byPayload := make(map[string]*model.ResponsePayloadModel, len(payloads))
	for _, p := range payloads {
		byPayload[p.Name()] = p
	}

	var (
		operations []model.OperationModel
		skipped    []string
	)
	for _, def := range reg.defs {
		op, isRoot := reg.root(def.Name)
		if !isRoot || def.Kind != ast.Object {
			continue
		}
		for _, field := range def.Fields {
			b := &operationBuilder{
				ctx:         ctx,
				reader:      c.reader,
				registry:    reg,
				resolver:    resolver,
				payloads:    byPayload,
				conventions: c.conventions,
				parent:      def.Name,
				field:       field,
			}
			m, err := c.compileOperation(b, op)
			if err != nil {
				c.logger.Debug("operation skipped", "type", def.Name, "operation", field.Name)
				skipped = append(skipped, def.Name+"."+field.Name)
				continue
			}
			if m != nil {
				c.logger.Debug("operation compiled", describeOperation(m)...)
				operations = append(operations, m)
			}
		}
	}

	return model.NewSchemaModel(entities, payloads, operations, ctx.Diagnostics()).WithSkipped(skipped...)
}

// compileOperation selects the builder for a root field. It returns (nil, nil)
// for fields that are ignored with a warning.
func (c *Compiler) compileOperation(b *operationBuilder, op ast.Operation) (model.OperationModel, error) {
	switch op {
	case ast.Query:
		b.label, b.kind = "Query", model.KindQuery
	case ast.Mutation:
		b.label = "Mutation"
	default:
		b.label = "Subscription"
		b.warnf("subscriptions are not supported, the field is ignored")
		return nil, nil
	}
	if err := b.reader.Check(b.field.Directives, ast.LocationFieldDefinition); err != nil {
		return nil, b.mappingError(err, b.field.Position)
	}
	for _, name := range []string{directive.Column, directive.Index} {
		if b.field.Directives.ForName(name) != nil {
			return nil, b.errorf("@%s can only be used on entity fields", name)
		}
	}

	if op == ast.Query {
		m, err := (&queryBuilder{b}).build()
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	if b.field.Directives.ForName(directive.Select) != nil {
		return nil, b.errorf("@%s can't be used on mutations", directive.Select)
	}
	kind, n := b.kindFromDirectives()
	switch {
	case n > 1:
		return nil, b.errorf("can't use more than one of @%s, @%s and @%s", directive.Insert, directive.Update, directive.Delete)
	case n == 0:
		var ok bool
		if kind, ok = b.conventions.MutationKind(b.field.Name); !ok {
			return nil, b.errorf("could not determine the type of operation, annotate it with @%s, @%s or @%s",
				directive.Insert, directive.Update, directive.Delete)
		}
	}
	b.kind = kind
	switch kind {
	case model.KindInsert:
		m, err := (&insertBuilder{b}).build()
		if err != nil {
			return nil, err
		}
		return m, nil
	case model.KindUpdate:
		m, err := (&updateBuilder{b}).build()
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		m, err := (&deleteBuilder{b}).build()
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}
