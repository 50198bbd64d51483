package cqlident

import (
	"fmt"
	"strings"
	"unicode"
)

// maxTypeLen bounds the length of a type expression.
const maxTypeLen = 256

// Native CQL types.
var nativeTypes = map[string]bool{
	"ascii": true, "bigint": true, "blob": true, "boolean": true,
	"counter": true, "date": true, "decimal": true, "double": true,
	"duration": true, "float": true, "inet": true, "int": true,
	"smallint": true, "text": true, "time": true, "timestamp": true,
	"timeuuid": true, "tinyint": true, "uuid": true, "varchar": true,
	"varint": true,
}

// Parameterized type constructors and how many parameters they take (-1: one or more).
var constructors = map[string]int{
	"frozen": 1,
	"list":   1,
	"set":    1,
	"map":    2,
	"tuple":  -1,
}

// Type is a parsed CQL type expression such as frozen<list<varchar>>.
type Type struct {
	// Name is a native type, a constructor (frozen, list, set, map, tuple) or a UDT name.
	Name   string
	Params []Type
}

// String renders the type in canonical form.
func (t Type) String() string {
	if len(t.Params) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return t.Name + "<" + strings.Join(parts, ", ") + ">"
}

// IsFrozen reports whether the type is wrapped in frozen<>.
func (t Type) IsFrozen() bool { return t.Name == "frozen" }

// Unfrozen returns the type inside frozen<>, or t itself.
func (t Type) Unfrozen() Type {
	if t.IsFrozen() {
		return t.Params[0]
	}
	return t
}

// IsNative reports whether the type is a built-in scalar type.
func (t Type) IsNative() bool { return nativeTypes[t.Name] }

// IsUDT reports whether the type refers to a user-defined type.
func (t Type) IsUDT() bool {
	_, isConstructor := constructors[t.Name]
	return !isConstructor && !t.IsNative()
}

// Frozen wraps t in frozen<> unless it already is.
func Frozen(t Type) Type {
	if t.IsFrozen() {
		return t
	}
	return Type{Name: "frozen", Params: []Type{t}}
}

// ValidateTypeHint checks that hint is a well-formed CQL type expression.
func ValidateTypeHint(hint string) error {
	_, err := ParseType(hint)
	return err
}

// ParseType parses a CQL type expression. Native type and constructor names
// are case-insensitive; UDT names must be valid identifiers.
func ParseType(s string) (Type, error) {
	if strings.TrimSpace(s) == "" {
		return Type{}, fmt.Errorf("type is required")
	}
	if len(s) > maxTypeLen {
		return Type{}, fmt.Errorf("type must be at most %d characters", maxTypeLen)
	}
	p := &typeParser{input: s}
	t, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return Type{}, fmt.Errorf("invalid type %q: unexpected %q at offset %d", s, p.input[p.pos:], p.pos)
	}
	return t, nil
}

type typeParser struct {
	input string
	pos   int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) word() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c != '_' && !unicode.IsLetter(rune(c)) && !unicode.IsDigit(rune(c)) {
			break
		}
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *typeParser) accept(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("invalid type %q: %s", p.input, fmt.Sprintf(format, args...))
}

func (p *typeParser) parseType() (Type, error) {
	w := p.word()
	if w == "" {
		return Type{}, p.errorf("expected a type name at offset %d", p.pos)
	}
	lower := strings.ToLower(w)
	if nativeTypes[lower] {
		if p.accept('<') {
			return Type{}, p.errorf("%s takes no parameters", lower)
		}
		return Type{Name: lower}, nil
	}
	arity, isConstructor := constructors[lower]
	if !isConstructor {
		if err := ValidateIdentifier(w); err != nil {
			return Type{}, p.errorf("%v", err)
		}
		if p.accept('<') {
			return Type{}, p.errorf("unknown parameterized type %s", w)
		}
		return Type{Name: w}, nil
	}

	if !p.accept('<') {
		return Type{}, p.errorf("%s requires type parameters", lower)
	}
	t := Type{Name: lower}
	for {
		param, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		t.Params = append(t.Params, param)
		if p.accept('>') {
			break
		}
		if !p.accept(',') {
			return Type{}, p.errorf("expected ',' or '>' at offset %d", p.pos)
		}
	}
	if arity > 0 && len(t.Params) != arity {
		return Type{}, p.errorf("%s takes %d parameter(s), got %d", lower, arity, len(t.Params))
	}
	if lower == "frozen" && t.Params[0].IsFrozen() {
		return Type{}, p.errorf("frozen can't be nested directly")
	}
	for _, param := range t.Params {
		if param.Name == "counter" {
			return Type{}, p.errorf("counter can't be used inside %s", lower)
		}
	}
	return t, nil
}
