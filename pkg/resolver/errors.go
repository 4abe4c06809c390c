package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotResolvable matches every NotResolvableError via errors.Is.
var ErrNotResolvable = errors.New("resolver: template not resolvable")

// NotResolvableError reports that no configured resolver matched.
type NotResolvableError struct {
	Template string
	Tried    []string
}

func (e *NotResolvableError) Error() string {
	tried := "none configured"
	if len(e.Tried) > 0 {
		tried = strings.Join(e.Tried, ", ")
	}
	return fmt.Sprintf("resolver: error resolving template %q, template might not exist or might not be accessible by any of the configured resolvers (tried: %s)", e.Template, tried)
}

// Is matches ErrNotResolvable.
func (e *NotResolvableError) Is(target error) bool {
	return target == ErrNotResolvable
}
