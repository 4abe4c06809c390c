package parser

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-tplengine/pkg/template"
)

var (
	// ErrUnsupportedMode matches every UnsupportedModeError.
	ErrUnsupportedMode = errors.New("parser: unsupported template mode")
	// ErrParse matches every ParseError.
	ErrParse = errors.New("parser: malformed template")
)

// UnsupportedModeError reports a mode with no registered parser.
type UnsupportedModeError struct {
	Mode template.Mode
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("parser: no parser exists for template mode %q", e.Mode)
}

// Is matches ErrUnsupportedMode.
func (e *UnsupportedModeError) Is(target error) bool {
	return target == ErrUnsupportedMode
}

// ParseError reports malformed input at a position of the named template.
type ParseError struct {
	Template string
	Line     int
	Col      int
	Err      error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parser: template %q (line %d, col %d): %v", e.Template, e.Line, e.Col, e.Err)
	}
	return fmt.Sprintf("parser: template %q: %v", e.Template, e.Err)
}

// Unwrap exposes the grammar error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
