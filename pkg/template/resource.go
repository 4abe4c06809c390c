package template

import (
	"context"
	"io"
	"strings"
)

// Resource is the concrete backing content located by a resolver. Opening a
// resource may perform I/O; it is only done by parsers.
type Resource interface {
	// Name is the resolved name (file path, URL, row key).
	Name() string
	// Description is a human readable form used in diagnostics.
	Description() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// StringResource wraps in-memory content.
type StringResource struct {
	name    string
	content string
}

// NewStringResource returns a resource serving content under name.
func NewStringResource(name, content string) *StringResource {
	return &StringResource{name: name, content: content}
}

func (r *StringResource) Name() string {
	return r.name
}

func (r *StringResource) Description() string {
	return "string:" + r.name
}

// Open returns a reader over the content.
func (r *StringResource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(r.content)), nil
}

// Content exposes the wrapped text.
func (r *StringResource) Content() string {
	return r.content
}
