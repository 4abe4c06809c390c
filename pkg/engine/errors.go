package engine

import (
	"errors"
	"fmt"
)

// ErrForeignModel matches ForeignModelError via errors.Is.
var ErrForeignModel = errors.New("engine: model belongs to another engine configuration")

// ForeignModelError reports a model built by a different engine.
type ForeignModelError struct {
	Template string
}

func (e *ForeignModelError) Error() string {
	return fmt.Sprintf("engine: template %q was built by another engine configuration", e.Template)
}

func (e *ForeignModelError) Is(target error) bool {
	return target == ErrForeignModel
}
