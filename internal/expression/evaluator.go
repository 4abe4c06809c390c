// Package expression evaluates inline template expressions with expr-lang,
// caching compiled programs across calls.
package expression

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator compiles and runs expressions. It is safe for concurrent use and
// meant to be shared by every call of an engine.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

// New creates an evaluator with an empty program cache.
func New() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

// Eval runs expression against env. Unknown variables evaluate to nil.
func (e *Evaluator) Eval(expression string, env map[string]any) (any, error) {
	program, err := e.compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	if env == nil {
		env = map[string]any{}
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expression, err)
	}
	return result, nil
}

// Len returns the number of cached programs.
func (e *Evaluator) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.programs)
}

func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if program, ok := e.programs[expression]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	// Another goroutine may have compiled the same expression meanwhile.
	if existing, ok := e.programs[expression]; ok {
		e.mu.Unlock()
		return existing, nil
	}
	e.programs[expression] = program
	e.mu.Unlock()

	return program, nil
}
