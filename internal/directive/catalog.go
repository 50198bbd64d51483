// Package directive describes the cql_* mapping directives and reads them
// from schema document nodes into typed instances.
package directive

import "github.com/vektah/gqlparser/v2/ast"

// Directive names.
const (
	Entity      = "cql_entity"
	Input       = "cql_input"
	Column      = "cql_column"
	Index       = "cql_index"
	Payload     = "cql_payload"
	PagingState = "cql_pagingState"
	Select      = "cql_select"
	Insert      = "cql_insert"
	Update      = "cql_update"
	Delete      = "cql_delete"
	Where       = "cql_where"
	If          = "cql_if"
	Increment   = "cql_increment"
	Timestamp   = "cql_timestamp"
)

// Argument names shared by several directives.
const (
	ArgName              = "name"
	ArgTarget            = "target"
	ArgPartitionKey      = "partitionKey"
	ArgClusteringOrder   = "clusteringOrder"
	ArgTypeHint          = "typeHint"
	ArgClass             = "class"
	ArgOptions           = "options"
	ArgLimit             = "limit"
	ArgPageSize          = "pageSize"
	ArgConsistencyLevel  = "consistencyLevel"
	ArgSerialConsistency = "serialConsistency"
	ArgIfNotExists       = "ifNotExists"
	ArgIfExists          = "ifExists"
	ArgTTL               = "ttl"
	ArgTargetEntity      = "targetEntity"
	ArgField             = "field"
	ArgPredicate         = "predicate"
	ArgPrepend           = "prepend"
)

// prefix is shared by every mapping directive name.
const prefix = "cql_"

// Kind is the declared type of a directive argument.
type Kind int

const (
	KindString Kind = iota
	KindBoolean
	KindInt
	KindEnum
)

// String returns the GraphQL spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "Boolean"
	case KindInt:
		return "Int"
	case KindEnum:
		return "enum"
	default:
		return "String"
	}
}

// ArgumentSpec declares one directive argument.
type ArgumentSpec struct {
	Name string
	Kind Kind
	// EnumName and Values are set for KindEnum.
	EnumName string
	Values   []string
	// Default is nil when the argument has no default.
	Default *Value
}

func (a ArgumentSpec) allows(v string) bool {
	for _, candidate := range a.Values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Spec declares one directive.
type Spec struct {
	Name       string
	Locations  []ast.DirectiveLocation
	Arguments  []ArgumentSpec
	Repeatable bool
}

// Argument looks up an argument by name.
func (s *Spec) Argument(name string) (ArgumentSpec, bool) {
	for _, a := range s.Arguments {
		if a.Name == name {
			return a, true
		}
	}
	return ArgumentSpec{}, false
}

// AllowedAt reports whether the directive may be used at loc.
func (s *Spec) AllowedAt(loc ast.DirectiveLocation) bool {
	for _, l := range s.Locations {
		if l == loc {
			return true
		}
	}
	return false
}

// Catalog is a fixed set of directive declarations.
type Catalog struct {
	specs map[string]*Spec
	order []string
}

// NewCatalog builds a catalog from specs. Later specs replace earlier ones with the same name.
func NewCatalog(specs ...Spec) *Catalog {
	c := &Catalog{specs: make(map[string]*Spec, len(specs))}
	for i := range specs {
		s := specs[i]
		if _, ok := c.specs[s.Name]; !ok {
			c.order = append(c.order, s.Name)
		}
		c.specs[s.Name] = &s
	}
	return c
}

// Lookup returns the declaration of a directive.
func (c *Catalog) Lookup(name string) (*Spec, bool) {
	s, ok := c.specs[name]
	return s, ok
}

// Names returns the directive names in declaration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Enum value sets.
var (
	EntityTargets         = []string{"TABLE", "UDT"}
	ClusteringOrders      = []string{"ASC", "DESC"}
	IndexTargets          = []string{"VALUES", "FULL"}
	QueryConsistencies    = []string{"LOCAL_ONE", "LOCAL_QUORUM", "ALL", "SERIAL", "LOCAL_SERIAL"}
	MutationConsistencies = []string{"LOCAL_ONE", "LOCAL_QUORUM", "ALL"}
	SerialConsistencies   = []string{"SERIAL", "LOCAL_SERIAL"}
	WherePredicates       = []string{"EQ", "IN", "LT", "GT", "LTE", "GTE", "CONTAINS"}
	IfPredicates          = []string{"EQ", "NEQ", "IN", "LT", "GT", "LTE", "GTE"}
)

func str(name string) ArgumentSpec { return ArgumentSpec{Name: name, Kind: KindString} }

func boolean(name string, def bool) ArgumentSpec {
	return ArgumentSpec{Name: name, Kind: KindBoolean, Default: &Value{Kind: KindBoolean, Bool: def}}
}

func integer(name string, def *int) ArgumentSpec {
	a := ArgumentSpec{Name: name, Kind: KindInt}
	if def != nil {
		a.Default = &Value{Kind: KindInt, Int: *def}
	}
	return a
}

func enum(name, enumName string, values []string, def string) ArgumentSpec {
	a := ArgumentSpec{Name: name, Kind: KindEnum, EnumName: enumName, Values: values}
	if def != "" {
		a.Default = &Value{Kind: KindEnum, Str: def}
	}
	return a
}

// DefaultPageSize is the page size of queries without an explicit one.
const DefaultPageSize = 100

var (
	onObject   = []ast.DirectiveLocation{ast.LocationObject}
	onField    = []ast.DirectiveLocation{ast.LocationFieldDefinition}
	onArgument = []ast.DirectiveLocation{ast.LocationArgumentDefinition}
)

func mutationArgs(withTTL bool) []ArgumentSpec {
	args := []ArgumentSpec{
		enum(ArgConsistencyLevel, "MutationConsistency", MutationConsistencies, "LOCAL_QUORUM"),
		enum(ArgSerialConsistency, "SerialConsistency", SerialConsistencies, "SERIAL"),
	}
	if withTTL {
		args = append(args, str(ArgTTL))
	}
	return args
}

// DefaultCatalog returns the built-in cql_* directives.
func DefaultCatalog() *Catalog {
	pageSize := DefaultPageSize
	return NewCatalog(
		Spec{Name: Entity, Locations: onObject, Arguments: []ArgumentSpec{
			str(ArgName),
			enum(ArgTarget, "EntityTarget", EntityTargets, "TABLE"),
		}},
		Spec{Name: Input, Locations: onObject, Arguments: []ArgumentSpec{str(ArgName)}},
		Spec{Name: Column, Locations: onField, Arguments: []ArgumentSpec{
			str(ArgName),
			boolean(ArgPartitionKey, false),
			enum(ArgClusteringOrder, "ClusteringOrder", ClusteringOrders, ""),
			str(ArgTypeHint),
		}},
		Spec{Name: Index, Locations: onField, Arguments: []ArgumentSpec{
			str(ArgName),
			str(ArgClass),
			enum(ArgTarget, "IndexTarget", IndexTargets, ""),
			str(ArgOptions),
		}},
		Spec{Name: Payload, Locations: []ast.DirectiveLocation{ast.LocationObject, ast.LocationInputObject}},
		Spec{Name: PagingState, Locations: onArgument},
		Spec{Name: Select, Locations: onField, Arguments: []ArgumentSpec{
			integer(ArgLimit, nil),
			integer(ArgPageSize, &pageSize),
			enum(ArgConsistencyLevel, "QueryConsistency", QueryConsistencies, "LOCAL_QUORUM"),
		}},
		Spec{Name: Insert, Locations: onField, Arguments: append(
			[]ArgumentSpec{boolean(ArgIfNotExists, false)}, mutationArgs(true)...)},
		Spec{Name: Update, Locations: onField, Arguments: append(
			[]ArgumentSpec{str(ArgTargetEntity), boolean(ArgIfExists, false)}, mutationArgs(true)...)},
		Spec{Name: Delete, Locations: onField, Arguments: append(
			[]ArgumentSpec{str(ArgTargetEntity), boolean(ArgIfExists, false)}, mutationArgs(false)...)},
		Spec{Name: Where, Locations: onArgument, Arguments: []ArgumentSpec{
			str(ArgField),
			enum(ArgPredicate, "Predicate", WherePredicates, "EQ"),
		}},
		Spec{Name: If, Locations: onArgument, Arguments: []ArgumentSpec{
			str(ArgField),
			enum(ArgPredicate, "IfPredicate", IfPredicates, "EQ"),
		}},
		Spec{Name: Increment, Locations: onArgument, Arguments: []ArgumentSpec{
			str(ArgField),
			boolean(ArgPrepend, false),
		}},
		Spec{Name: Timestamp, Locations: onArgument},
	)
}
