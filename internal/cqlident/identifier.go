// Package cqlident validates and quotes CQL identifiers and type expressions.
package cqlident

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRe allows alphanumeric + underscores, starting with a letter or underscore.
var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// unquotedRe matches identifiers CQL accepts without quotes (they are case folded).
var unquotedRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// maxTableNameLen is the limit Cassandra puts on keyspace, table and type names.
const maxTableNameLen = 48

// maxIdentifierLen bounds column and field names.
const maxIdentifierLen = 128

// reserved holds the CQL keywords that can't be used unquoted.
var reserved = map[string]bool{
	"add": true, "allow": true, "alter": true, "and": true, "apply": true,
	"asc": true, "authorize": true, "batch": true, "begin": true, "by": true,
	"columnfamily": true, "create": true, "delete": true, "desc": true,
	"describe": true, "drop": true, "entries": true, "execute": true,
	"from": true, "full": true, "grant": true, "if": true, "in": true,
	"index": true, "infinity": true, "insert": true, "into": true,
	"is": true, "keyspace": true, "limit": true, "materialized": true,
	"mbean": true, "mbeans": true, "modify": true, "nan": true,
	"norecursive": true, "not": true, "null": true, "of": true, "on": true,
	"or": true, "order": true, "primary": true, "rename": true,
	"replace": true, "revoke": true, "schema": true, "select": true,
	"set": true, "table": true, "to": true, "token": true, "truncate": true,
	"unlogged": true, "unset": true, "update": true, "use": true,
	"using": true, "view": true, "where": true, "with": true,
}

// ValidateIdentifier checks that name can be used as a column or UDT field name:
//   - Non-empty
//   - At most 128 characters
//   - Matches [a-zA-Z_][a-zA-Z0-9_]*
func ValidateIdentifier(name string) error {
	return validate(name, maxIdentifierLen)
}

// ValidateTableName checks that name can be used as a table or UDT name. It
// follows ValidateIdentifier with a 48 character limit.
func ValidateTableName(name string) error {
	return validate(name, maxTableNameLen)
}

func validate(name string, maxLen int) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > maxLen {
		return fmt.Errorf("name %s must be at most %d characters", name, maxLen)
	}
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("name %s must match [a-zA-Z_][a-zA-Z0-9_]*", name)
	}
	return nil
}

// NeedsQuoting reports whether name must be double-quoted in a CQL statement
// to keep its exact spelling.
func NeedsQuoting(name string) bool {
	return !unquotedRe.MatchString(name) || reserved[name]
}

// QuoteIdentifier returns name ready for use in a CQL statement: unchanged when
// it is a plain lower-case identifier, otherwise wrapped in double quotes with
// embedded double quotes doubled.
func QuoteIdentifier(name string) string {
	if !NeedsQuoting(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
