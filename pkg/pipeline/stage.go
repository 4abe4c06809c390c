package pipeline

import (
	"io"

	"github.com/goliatone/go-tplengine/pkg/model"
)

// Emit forwards an event to the next stage of the chain.
type Emit func(model.Event) error

// Handler is a pre-processor, core processor or post-processor. Handle may
// drop, rewrite or multiply events; it forwards them by calling emit.
type Handler interface {
	Bind(ec *EngineContext) error
	Handle(ev model.Event, emit Emit) error
}

// Output is the terminal stage. It is the only stage holding the destination
// writer.
type Output interface {
	Bind(ec *EngineContext) error
	Write(ev model.Event) error
	Flush() error
}

// Factory creates a fresh handler per call.
type Factory interface {
	Name() string
	New() (Handler, error)
}

// OutputFactory creates a fresh output stage per call.
type OutputFactory interface {
	Name() string
	New(w io.Writer) (Output, error)
}

type factoryFunc struct {
	name string
	fn   func() (Handler, error)
}

func (f factoryFunc) Name() string {
	return f.name
}

func (f factoryFunc) New() (Handler, error) {
	return f.fn()
}

// NewFactory adapts a constructor function into a Factory.
func NewFactory(name string, fn func() (Handler, error)) Factory {
	return factoryFunc{name: name, fn: fn}
}

type outputFactoryFunc struct {
	name string
	fn   func(io.Writer) (Output, error)
}

func (f outputFactoryFunc) Name() string {
	return f.name
}

func (f outputFactoryFunc) New(w io.Writer) (Output, error) {
	return f.fn(w)
}

// NewOutputFactory adapts a constructor function into an OutputFactory.
func NewOutputFactory(name string, fn func(io.Writer) (Output, error)) OutputFactory {
	return outputFactoryFunc{name: name, fn: fn}
}

// HandlerFunc adapts a stateless function into a Handler.
type HandlerFunc func(ev model.Event, emit Emit) error

// Bind is a no-op.
func (fn HandlerFunc) Bind(*EngineContext) error {
	return nil
}

// Handle calls fn.
func (fn HandlerFunc) Handle(ev model.Event, emit Emit) error {
	return fn(ev, emit)
}
