package model

import (
	"encoding/json"
	"fmt"
)

// Severity distinguishes errors, which exclude the element from the compiled
// schema, from warnings, which do not.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns "error" or "warning".
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", string(text))
	}
	return nil
}

// Diagnostic is one problem found while compiling a schema document.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	// Element is the operation or type the diagnostic is about.
	Element string `json:"element"`
	Message string `json:"message"`
	// Line and Column locate the element in the source; 0 when unknown.
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// Error implements error so that error diagnostics can be combined and returned.
func (d Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
	}
	return d.Message
}

// MarshalDiagnostics encodes diagnostics as a JSON array.
func MarshalDiagnostics(diags []Diagnostic) ([]byte, error) {
	if diags == nil {
		diags = []Diagnostic{}
	}
	return json.Marshal(diags)
}

// UnmarshalDiagnostics decodes a JSON array produced by MarshalDiagnostics.
func UnmarshalDiagnostics(data []byte) ([]Diagnostic, error) {
	var diags []Diagnostic
	if err := json.Unmarshal(data, &diags); err != nil {
		return nil, fmt.Errorf("decode diagnostics: %w", err)
	}
	return diags, nil
}
