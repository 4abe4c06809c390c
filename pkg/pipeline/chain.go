package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-tplengine/pkg/model"
)

// Spec lists the factories a chain is built from.
type Spec struct {
	Pre    []Factory
	Core   Factory
	Post   []Factory
	Output OutputFactory
}

// Chain is an immutable, fully instantiated processing pipeline for a single
// call.
type Chain struct {
	names    []string
	handlers []Handler
	output   Output
	head     Emit
}

// Build instantiates every stage of spec and binds it to ec. Any failure
// aborts before a single event is streamed.
func Build(ec *EngineContext, spec Spec, w io.Writer) (*Chain, error) {
	if ec == nil {
		return nil, errors.New("pipeline: engine context is required")
	}
	if w == nil {
		return nil, errors.New("pipeline: writer is required")
	}
	if spec.Core == nil {
		return nil, &HandlerInstantiationError{Role: RoleCore, Stage: "<nil>", Err: errors.New("no core processor configured")}
	}
	if spec.Output == nil {
		return nil, &HandlerInstantiationError{Role: RoleOutput, Stage: "<nil>", Err: errors.New("no output configured")}
	}

	chain := &Chain{}
	add := func(role Role, factory Factory) error {
		if factory == nil {
			return &HandlerInstantiationError{Role: role, Stage: "<nil>", Err: errors.New("factory is nil")}
		}
		handler, err := factory.New()
		if err == nil && handler == nil {
			err = errors.New("factory returned no handler")
		}
		if err != nil {
			return &HandlerInstantiationError{Role: role, Stage: factory.Name(), Err: err}
		}
		if err := handler.Bind(ec); err != nil {
			return &HandlerInstantiationError{Role: role, Stage: factory.Name(), Err: fmt.Errorf("bind: %w", err)}
		}
		chain.handlers = append(chain.handlers, handler)
		chain.names = append(chain.names, factory.Name())
		return nil
	}

	for _, factory := range spec.Pre {
		if err := add(RolePreProcessor, factory); err != nil {
			return nil, err
		}
	}
	if err := add(RoleCore, spec.Core); err != nil {
		return nil, err
	}
	for _, factory := range spec.Post {
		if err := add(RolePostProcessor, factory); err != nil {
			return nil, err
		}
	}

	output, err := spec.Output.New(w)
	if err == nil && output == nil {
		err = errors.New("factory returned no output")
	}
	if err != nil {
		return nil, &HandlerInstantiationError{Role: RoleOutput, Stage: spec.Output.Name(), Err: err}
	}
	if err := output.Bind(ec); err != nil {
		return nil, &HandlerInstantiationError{Role: RoleOutput, Stage: spec.Output.Name(), Err: fmt.Errorf("bind: %w", err)}
	}
	chain.output = output
	chain.names = append(chain.names, spec.Output.Name())

	chain.head = chain.link()
	return chain, nil
}

// link wires each handler to the next one, ending at the output.
func (c *Chain) link() Emit {
	next := Emit(c.output.Write)
	for i := len(c.handlers) - 1; i >= 0; i-- {
		handler, downstream := c.handlers[i], next
		next = func(ev model.Event) error {
			return handler.Handle(ev, downstream)
		}
	}
	return next
}

// Stages lists stage names in streaming order.
func (c *Chain) Stages() []string {
	return append([]string(nil), c.names...)
}

// Emit pushes a single event through the chain.
func (c *Chain) Emit(ev model.Event) error {
	return c.head(ev)
}

// Run streams every event of m through the chain and flushes the output.
func (c *Chain) Run(m *model.Model) error {
	if m == nil {
		return errors.New("pipeline: model is required")
	}
	if err := m.Each(c.head); err != nil {
		return err
	}
	return c.output.Flush()
}
