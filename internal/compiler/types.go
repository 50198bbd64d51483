package compiler

import (
	"github.com/vektah/gqlparser/v2/ast"

	"cqlmap/internal/cqlident"
	"cqlmap/internal/model"
)

// scalarTypes maps GraphQL scalars to the CQL type they are stored as.
var scalarTypes = map[string]string{
	"ID":      "uuid",
	"String":  "varchar",
	"Int":     "int",
	"Float":   "double",
	"Boolean": "boolean",

	"Uuid":      "uuid",
	"TimeUuid":  "timeuuid",
	"Inet":      "inet",
	"Date":      "date",
	"Duration":  "duration",
	"BigInt":    "bigint",
	"Counter":   "counter",
	"Ascii":     "ascii",
	"Decimal":   "decimal",
	"Varint":    "varint",
	"Float32":   "float",
	"Blob":      "blob",
	"SmallInt":  "smallint",
	"TinyInt":   "tinyint",
	"Timestamp": "timestamp",
	"Time":      "time",
}

// typeRegistry indexes the type definitions of a document, with extensions merged.
type typeRegistry struct {
	defs  []*ast.Definition
	named map[string]*ast.Definition
	roots map[string]ast.Operation
}

func newTypeRegistry(doc *ast.SchemaDocument) *typeRegistry {
	r := &typeRegistry{
		named: make(map[string]*ast.Definition),
		roots: make(map[string]ast.Operation),
	}
	add := func(def *ast.Definition) {
		existing, ok := r.named[def.Name]
		if !ok {
			merged := *def
			merged.Fields = append(ast.FieldList(nil), def.Fields...)
			merged.Directives = append(ast.DirectiveList(nil), def.Directives...)
			r.named[def.Name] = &merged
			r.defs = append(r.defs, &merged)
			return
		}
		existing.Fields = append(existing.Fields, def.Fields...)
		existing.Directives = append(existing.Directives, def.Directives...)
	}
	for _, def := range doc.Definitions {
		add(def)
	}
	for _, def := range doc.Extensions {
		add(def)
	}

	for _, list := range []ast.SchemaDefinitionList{doc.Schema, doc.SchemaExtension} {
		for _, s := range list {
			for _, ot := range s.OperationTypes {
				r.roots[ot.Type] = ot.Operation
			}
		}
	}
	if len(r.roots) == 0 {
		r.roots["Query"] = ast.Query
		r.roots["Mutation"] = ast.Mutation
		r.roots["Subscription"] = ast.Subscription
	}
	return r
}

// root reports whether name is a root operation type, and which.
func (r *typeRegistry) root(name string) (ast.Operation, bool) {
	op, ok := r.roots[name]
	return op, ok
}

func (r *typeRegistry) lookup(name string) (*ast.Definition, bool) {
	d, ok := r.named[name]
	return d, ok
}

func (r *typeRegistry) isEnum(name string) bool {
	d, ok := r.named[name]
	return ok && d.Kind == ast.Enum
}

// baseName returns the named type at the bottom of any list wrapping.
func baseName(t *ast.Type) string {
	for t.Elem != nil {
		t = t.Elem
	}
	return t.NamedType
}

// isList reports whether t is a list, ignoring nullability.
func isList(t *ast.Type) bool { return t.Elem != nil }

// isNamed reports whether t is the plain named type name, nullable or not.
func isNamed(t *ast.Type, name string) bool {
	return t.Elem == nil && t.NamedType == name
}

// sameType compares two GraphQL types ignoring nullability. equivalent
// decides whether two named types match.
func sameType(a, b *ast.Type, equivalent func(a, b string) bool) bool {
	switch {
	case a.Elem != nil && b.Elem != nil:
		return sameType(a.Elem, b.Elem, equivalent)
	case a.Elem == nil && b.Elem == nil:
		return a.NamedType == b.NamedType || equivalent(a.NamedType, b.NamedType)
	default:
		return false
	}
}

// collectionKindOf classifies a CQL type once frozen<> is removed.
func collectionKindOf(t cqlident.Type) model.CollectionKind {
	switch t.Unfrozen().Name {
	case "list":
		return model.CollectionList
	case "set":
		return model.CollectionSet
	case "map":
		return model.CollectionMap
	default:
		return model.NotCollection
	}
}
