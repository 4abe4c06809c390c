package pipeline

import (
	"errors"
	"fmt"
)

// ErrHandlerInstantiation matches every HandlerInstantiationError.
var ErrHandlerInstantiation = errors.New("pipeline: handler instantiation failed")

// Role names a position in the chain.
type Role string

const (
	RolePreProcessor  Role = "pre-processor"
	RoleCore          Role = "core processor"
	RolePostProcessor Role = "post-processor"
	RoleOutput        Role = "output"
)

// HandlerInstantiationError reports a stage that could not be created or
// bound. Chains failing this way are never run.
type HandlerInstantiationError struct {
	Role  Role
	Stage string
	Err   error
}

func (e *HandlerInstantiationError) Error() string {
	return fmt.Sprintf("pipeline: an error happened during the creation of a new instance of %s %q: %v", e.Role, e.Stage, e.Err)
}

// Unwrap exposes the factory error.
func (e *HandlerInstantiationError) Unwrap() error {
	return e.Err
}

// Is matches ErrHandlerInstantiation.
func (e *HandlerInstantiationError) Is(target error) bool {
	return target == ErrHandlerInstantiation
}
