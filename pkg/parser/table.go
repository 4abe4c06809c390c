package parser

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-tplengine/pkg/template"
)

// Table maps template modes to parsers.
type Table struct {
	mu      sync.RWMutex
	parsers map[template.Mode]Parser
}

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{parsers: make(map[template.Mode]Parser)}
}

// Register binds parser to mode, replacing any previous binding.
func (t *Table) Register(mode template.Mode, parser Parser) error {
	if parser == nil {
		return fmt.Errorf("parser: parser for mode %q is required", mode)
	}
	if !mode.Valid() {
		return fmt.Errorf("parser: unknown template mode %q", mode)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parsers[mode] = parser
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (t *Table) MustRegister(mode template.Mode, parser Parser) {
	if err := t.Register(mode, parser); err != nil {
		panic(err)
	}
}

// For returns the parser registered for mode.
func (t *Table) For(mode template.Mode) (Parser, error) {
	if t == nil {
		return nil, &UnsupportedModeError{Mode: mode}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	parser, ok := t.parsers[mode]
	if !ok {
		return nil, &UnsupportedModeError{Mode: mode}
	}
	return parser, nil
}

// Has reports whether a parser is registered for mode.
func (t *Table) Has(mode template.Mode) bool {
	_, err := t.For(mode)
	return err == nil
}

// Modes lists the registered modes in template.Modes order.
func (t *Table) Modes() []template.Mode {
	out := make([]template.Mode, 0, len(template.Modes()))
	for _, mode := range template.Modes() {
		if t.Has(mode) {
			out = append(out, mode)
		}
	}
	return out
}
