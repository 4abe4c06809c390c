package pipeline

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-tplengine/pkg/template"
)

// Registry stores the stage factories of an engine configuration. Pre- and
// post-processors are registered per template mode and keep registration
// order.
type Registry struct {
	mu     sync.RWMutex
	pre    map[template.Mode][]Factory
	post   map[template.Mode][]Factory
	core   Factory
	output OutputFactory
}

// NewRegistry creates a registry with the given core and output factories.
func NewRegistry(core Factory, output OutputFactory) *Registry {
	return &Registry{
		pre:    make(map[template.Mode][]Factory),
		post:   make(map[template.Mode][]Factory),
		core:   core,
		output: output,
	}
}

// AddPreProcessor appends a pre-processor for the given modes. With no modes
// it applies to every mode.
func (r *Registry) AddPreProcessor(factory Factory, modes ...template.Mode) error {
	return r.add(r.pre, factory, modes)
}

// AddPostProcessor appends a post-processor for the given modes. With no
// modes it applies to every mode.
func (r *Registry) AddPostProcessor(factory Factory, modes ...template.Mode) error {
	return r.add(r.post, factory, modes)
}

func (r *Registry) add(target map[template.Mode][]Factory, factory Factory, modes []template.Mode) error {
	if factory == nil {
		return fmt.Errorf("pipeline: factory is required")
	}
	if factory.Name() == "" {
		return fmt.Errorf("pipeline: factory name is required")
	}
	if len(modes) == 0 {
		modes = template.Modes()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mode := range modes {
		if !mode.Valid() {
			return fmt.Errorf("pipeline: unknown template mode %q", mode)
		}
		target[mode] = append(target[mode], factory)
	}
	return nil
}

// SetCore replaces the core processor factory.
func (r *Registry) SetCore(factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.core = factory
}

// SetOutput replaces the output factory.
func (r *Registry) SetOutput(factory OutputFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output = factory
}

// Spec returns the chain specification for mode.
func (r *Registry) Spec(mode template.Mode) Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Spec{
		Pre:    append([]Factory(nil), r.pre[mode]...),
		Core:   r.core,
		Post:   append([]Factory(nil), r.post[mode]...),
		Output: r.output,
	}
}
