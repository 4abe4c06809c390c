package parser

import (
	"context"

	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// Sink receives events in document order.
type Sink interface {
	Emit(model.Event) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(model.Event) error

// Emit calls fn.
func (fn SinkFunc) Emit(ev model.Event) error {
	return fn(ev)
}

// StandaloneRequest describes a template backed by a resource.
type StandaloneRequest struct {
	Owner     string
	Template  string
	Selectors []string
	Resource  template.Resource
	Mode      template.Mode
}

// StringRequest describes an inline fragment. Offsets locate the fragment
// inside its owner so reported positions point at the containing template.
type StringRequest struct {
	Owner    string
	Template string
	Content  string
	Line     int
	Col      int
	Mode     template.Mode
}

// Parser turns template text into events for one or more modes.
type Parser interface {
	ParseStandalone(ctx context.Context, req StandaloneRequest, sink Sink) error
	ParseString(req StringRequest, sink Sink) error
}
