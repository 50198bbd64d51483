package compiler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vektah/gqlparser/v2/ast"

	"cqlmap/internal/directive"
	"cqlmap/internal/model"
)

// errSkip tells the caller to leave the element out of the schema model. The
// reason has already been recorded in the Context.
var errSkip = errors.New("element skipped")

// Context accumulates the diagnostics of one compilation pass. It is not safe
// for concurrent use; each pass owns its own.
type Context struct {
	logger      *slog.Logger
	diagnostics []model.Diagnostic
}

// NewContext returns an empty context. A nil logger means slog.Default().
func NewContext(logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{logger: logger}
}

// Errorf records an error about element and returns errSkip, so that call
// sites read `return nil, ctx.Errorf(...)`.
func (c *Context) Errorf(element string, pos *ast.Position, format string, args ...any) error {
	c.add(model.SeverityError, element, pos, fmt.Sprintf(format, args...))
	return errSkip
}

// Warnf records a warning about element.
func (c *Context) Warnf(element string, pos *ast.Position, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.add(model.SeverityWarning, element, pos, msg)
	c.logger.Debug("schema warning", "element", element, "message", msg)
}

// Diagnostics returns the recorded diagnostics in call order.
func (c *Context) Diagnostics() []model.Diagnostic {
	return append([]model.Diagnostic(nil), c.diagnostics...)
}

// HasErrors reports whether any error was recorded.
func (c *Context) HasErrors() bool {
	for _, d := range c.diagnostics {
		if d.Severity == model.SeverityError {
			return true
		}
	}
	return false
}

func (c *Context) add(sev model.Severity, element string, pos *ast.Position, msg string) {
	d := model.Diagnostic{Severity: sev, Element: element, Message: msg}
	if pos != nil {
		d.Line, d.Column = pos.Line, pos.Column
	}
	c.diagnostics = append(c.diagnostics, d)
}

// positionOf returns the position carried by a mapping error, or fallback.
func positionOf(err error, fallback *ast.Position) *ast.Position {
	var me *directive.MappingError
	if errors.As(err, &me) && me.Position != nil {
		return me.Position
	}
	return fallback
}
