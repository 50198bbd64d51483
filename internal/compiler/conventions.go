package compiler

import (
	"strings"

	"cqlmap/internal/model"
)

// Conventions are the naming rules used when a mutation doesn't spell out its
// kind or its conditional flags with a directive.
type Conventions struct {
	InsertPrefixes []string
	UpdatePrefixes []string
	DeletePrefixes []string
	// IfExistsSuffix sets ifExists on updates and deletes, e.g. deleteUserIfExists.
	IfExistsSuffix string
	// IfNotExistsSuffix sets ifNotExists on inserts.
	IfNotExistsSuffix string
	CaseSensitive     bool
}

// DefaultConventions returns the built-in naming rules.
func DefaultConventions() Conventions {
	return Conventions{
		InsertPrefixes:    []string{"insert", "create"},
		UpdatePrefixes:    []string{"update"},
		DeletePrefixes:    []string{"delete", "remove"},
		IfExistsSuffix:    "IfExists",
		IfNotExistsSuffix: "IfNotExists",
		CaseSensitive:     true,
	}
}

// MutationKind infers the kind of a mutation from its name.
func (c Conventions) MutationKind(name string) (model.OperationKind, bool) {
	for _, rule := range []struct {
		kind     model.OperationKind
		prefixes []string
	}{
		{model.KindInsert, c.InsertPrefixes},
		{model.KindUpdate, c.UpdatePrefixes},
		{model.KindDelete, c.DeletePrefixes},
	} {
		for _, p := range rule.prefixes {
			if p != "" && c.hasPrefix(name, p) {
				return rule.kind, true
			}
		}
	}
	return 0, false
}

// HasIfExistsSuffix reports whether an update or delete name asks for IF EXISTS.
func (c Conventions) HasIfExistsSuffix(name string) bool {
	return c.hasSuffix(name, c.IfExistsSuffix)
}

// HasIfNotExistsSuffix reports whether an insert name asks for IF NOT EXISTS.
func (c Conventions) HasIfNotExistsSuffix(name string) bool {
	return c.hasSuffix(name, c.IfNotExistsSuffix)
}

func (c Conventions) hasPrefix(name, prefix string) bool {
	if c.CaseSensitive {
		return strings.HasPrefix(name, prefix)
	}
	return strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix))
}

func (c Conventions) hasSuffix(name, suffix string) bool {
	if suffix == "" || len(name) <= len(suffix) {
		return false
	}
	if c.CaseSensitive {
		return strings.HasSuffix(name, suffix)
	}
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(suffix))
}
