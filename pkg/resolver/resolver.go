package resolver

import (
	"context"

	"github.com/goliatone/go-tplengine/pkg/template"
)

// Request carries what a resolver may see. Selectors are deliberately absent:
// fragment selection happens in the parser.
type Request struct {
	Owner      string
	Name       string
	Attributes map[string]any
}

// Resolver locates templates. A resolver that does not handle the request
// returns (nil, nil); an error aborts the whole chain.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, req Request) (*template.Resolution, error)
}

// Func adapts a function into a Resolver.
type Func struct {
	Label string
	Fn    func(ctx context.Context, req Request) (*template.Resolution, error)
}

// Name returns the label.
func (f Func) Name() string {
	return f.Label
}

// Resolve calls the wrapped function.
func (f Func) Resolve(ctx context.Context, req Request) (*template.Resolution, error) {
	if f.Fn == nil {
		return nil, nil
	}
	return f.Fn(ctx, req)
}
