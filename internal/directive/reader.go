package directive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// MappingError reports a directive that can't be read as declared.
type MappingError struct {
	Directive string
	// Argument is "" when the problem is with the directive as a whole.
	Argument string
	Message  string
	Position *ast.Position
}

func (e *MappingError) Error() string {
	if e.Argument != "" {
		return fmt.Sprintf("@%s.%s: %s", e.Directive, e.Argument, e.Message)
	}
	return fmt.Sprintf("@%s: %s", e.Directive, e.Message)
}

// Value is a coerced argument value.
type Value struct {
	Kind Kind
	// Str holds String and enum values.
	Str  string
	Bool bool
	Int  int
}

// Instance is one directive read from a node, with defaults applied.
type Instance struct {
	name     string
	position *ast.Position
	values   map[string]Value
	explicit map[string]bool
}

// Name returns the directive name.
func (i *Instance) Name() string { return i.name }

// Position returns where the directive appears, or nil for defaults-only instances.
func (i *Instance) Position() *ast.Position { return i.position }

// Present reports whether arg has a value, explicit or default.
func (i *Instance) Present(arg string) bool {
	_, ok := i.values[arg]
	return ok
}

// Explicit reports whether arg was written in the document.
func (i *Instance) Explicit(arg string) bool { return i.explicit[arg] }

// String returns a String argument.
func (i *Instance) String(arg string) (string, bool) { return i.get(arg, KindString) }

// Enum returns the symbol of an enum argument.
func (i *Instance) Enum(arg string) (string, bool) { return i.get(arg, KindEnum) }

// Bool returns a Boolean argument.
func (i *Instance) Bool(arg string) (bool, bool) {
	v, ok := i.values[arg]
	if !ok || v.Kind != KindBoolean {
		return false, false
	}
	return v.Bool, true
}

// Int returns an Int argument.
func (i *Instance) Int(arg string) (int, bool) {
	v, ok := i.values[arg]
	if !ok || v.Kind != KindInt {
		return 0, false
	}
	return v.Int, true
}

func (i *Instance) get(arg string, kind Kind) (string, bool) {
	v, ok := i.values[arg]
	if !ok || v.Kind != kind {
		return "", false
	}
	return v.Str, true
}

// Reader reads directives against a catalog. It is safe for concurrent use.
type Reader struct {
	catalog *Catalog
}

// NewReader returns a reader for c, or for DefaultCatalog when c is nil.
func NewReader(c *Catalog) *Reader {
	if c == nil {
		c = DefaultCatalog()
	}
	return &Reader{catalog: c}
}

// Catalog returns the catalog the reader checks against.
func (r *Reader) Catalog() *Catalog { return r.catalog }

// Read looks up directive name among directives, which were found on a node at
// location loc. It returns (nil, nil) when the directive is absent.
func (r *Reader) Read(name string, directives ast.DirectiveList, loc ast.DirectiveLocation) (*Instance, error) {
	spec, ok := r.catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("directive %s is not in the catalog", name)
	}
	found := directives.ForNames(name)
	if len(found) == 0 {
		return nil, nil
	}
	if len(found) > 1 && !spec.Repeatable {
		return nil, &MappingError{Directive: name, Message: "can't be used more than once", Position: found[1].Position}
	}
	d := found[0]
	if !spec.AllowedAt(loc) {
		return nil, &MappingError{Directive: name, Message: fmt.Sprintf("not allowed on %s", loc), Position: d.Position}
	}

	inst := r.defaults(spec)
	inst.position = d.Position
	seen := make(map[string]bool, len(d.Arguments))
	for _, a := range d.Arguments {
		argSpec, ok := spec.Argument(a.Name)
		if !ok {
			return nil, &MappingError{Directive: name, Argument: a.Name, Message: "unknown argument", Position: a.Position}
		}
		if seen[a.Name] {
			return nil, &MappingError{Directive: name, Argument: a.Name, Message: "argument specified more than once", Position: a.Position}
		}
		seen[a.Name] = true
		if a.Value == nil || a.Value.Kind == ast.NullValue {
			continue
		}
		v, err := coerce(argSpec, a.Value)
		if err != nil {
			return nil, &MappingError{Directive: name, Argument: a.Name, Message: err.Error(), Position: a.Position}
		}
		inst.values[a.Name] = v
		inst.explicit[a.Name] = true
	}
	return inst, nil
}

// Defaults returns an instance holding only the declared defaults of name, as
// if the directive had been written without arguments.
func (r *Reader) Defaults(name string) *Instance {
	spec, ok := r.catalog.Lookup(name)
	if !ok {
		return &Instance{name: name, values: map[string]Value{}, explicit: map[string]bool{}}
	}
	return r.defaults(spec)
}

// Check rejects mapping directives that a node can't carry: names with the
// cql_ prefix that are not in the catalog, and catalog directives declared for
// other locations. Directives without the prefix are left alone.
func (r *Reader) Check(directives ast.DirectiveList, loc ast.DirectiveLocation) error {
	for _, d := range directives {
		if !strings.HasPrefix(d.Name, prefix) {
			continue
		}
		spec, ok := r.catalog.Lookup(d.Name)
		if !ok {
			return &MappingError{Directive: d.Name, Message: "unknown directive", Position: d.Position}
		}
		if !spec.AllowedAt(loc) {
			return &MappingError{Directive: d.Name, Message: fmt.Sprintf("not allowed on %s", loc), Position: d.Position}
		}
	}
	return nil
}

func (r *Reader) defaults(spec *Spec) *Instance {
	inst := &Instance{
		name:     spec.Name,
		values:   make(map[string]Value, len(spec.Arguments)),
		explicit: make(map[string]bool),
	}
	for _, a := range spec.Arguments {
		if a.Default != nil {
			inst.values[a.Name] = *a.Default
		}
	}
	return inst
}

func coerce(spec ArgumentSpec, v *ast.Value) (Value, error) {
	if v.Kind == ast.Variable {
		return Value{}, fmt.Errorf("variables are not allowed, expected a literal %s", spec.Kind)
	}
	switch spec.Kind {
	case KindString:
		if v.Kind != ast.StringValue && v.Kind != ast.BlockValue {
			return Value{}, fmt.Errorf("expected a String, got %s", v.String())
		}
		return Value{Kind: KindString, Str: v.Raw}, nil
	case KindBoolean:
		if v.Kind != ast.BooleanValue {
			return Value{}, fmt.Errorf("expected a Boolean, got %s", v.String())
		}
		return Value{Kind: KindBoolean, Bool: v.Raw == "true"}, nil
	case KindInt:
		if v.Kind != ast.IntValue {
			return Value{}, fmt.Errorf("expected an Int, got %s", v.String())
		}
		n, err := strconv.ParseInt(v.Raw, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid Int %s", v.Raw)
		}
		return Value{Kind: KindInt, Int: int(n)}, nil
	case KindEnum:
		if v.Kind != ast.EnumValue {
			return Value{}, fmt.Errorf("expected a %s value, got %s", spec.EnumName, v.String())
		}
		if !spec.allows(v.Raw) {
			return Value{}, fmt.Errorf("invalid %s value %s, expected one of %s", spec.EnumName, v.Raw, strings.Join(spec.Values, ", "))
		}
		return Value{Kind: KindEnum, Str: v.Raw}, nil
	default:
		return Value{}, fmt.Errorf("unsupported argument kind %d", spec.Kind)
	}
}
