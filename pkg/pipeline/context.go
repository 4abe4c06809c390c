package pipeline

import (
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// Context is the ambient state supplied by the caller of a processing call.
type Context struct {
	Locale    string
	Variables map[string]any
}

// EngineContext is the per-call execution state handed to every stage. It
// combines the caller context with the descriptor of the template being
// processed. It must not outlive the call that prepared it.
type EngineContext struct {
	id         string
	origin     model.Origin
	descriptor template.Descriptor
	attributes map[string]any
	locale     string
	logger     *slog.Logger

	mu        sync.RWMutex
	variables map[string]any

	disposed atomic.Bool
}

// ID is the correlation id of the call, also attached to the logger.
func (c *EngineContext) ID() string {
	return c.id
}

// Origin is the configuration identity of the engine running the call.
func (c *EngineContext) Origin() model.Origin {
	return c.origin
}

// Descriptor describes the template being processed.
func (c *EngineContext) Descriptor() template.Descriptor {
	return c.descriptor
}

// Mode is the effective template mode.
func (c *EngineContext) Mode() template.Mode {
	return c.descriptor.Mode
}

// TemplateName is the name of the template being processed.
func (c *EngineContext) TemplateName() string {
	return c.descriptor.Name
}

// Locale returns the caller locale.
func (c *EngineContext) Locale() string {
	return c.locale
}

// Attribute returns a resolution attribute.
func (c *EngineContext) Attribute(name string) (any, bool) {
	value, ok := c.attributes[name]
	return value, ok
}

// Attributes returns a copy of the resolution attributes.
func (c *EngineContext) Attributes() map[string]any {
	return maps.Clone(c.attributes)
}

// Variable returns a context variable.
func (c *EngineContext) Variable(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.variables[name]
	return value, ok
}

// Variables returns a copy of the context variables.
func (c *EngineContext) Variables() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.variables)
}

// SetVariable defines a variable visible to later stages of the same call.
// Caller maps are copied at preparation so this never leaks outside the call.
func (c *EngineContext) SetVariable(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variables[name] = value
}

// Logger returns a logger annotated with the call's correlation id and
// template name.
func (c *EngineContext) Logger() *slog.Logger {
	return c.logger
}

// Disposed reports whether the context was already disposed.
func (c *EngineContext) Disposed() bool {
	return c.disposed.Load()
}

// Hook observes context lifecycle transitions.
type Hook func(*EngineContext)

// ContextManager prepares and disposes engine contexts.
type ContextManager struct {
	origin    model.Origin
	logger    *slog.Logger
	newID     func() string
	onPrepare []Hook
	onDispose []Hook
}

// ManagerOption customises a ContextManager.
type ManagerOption func(*ContextManager)

// WithManagerLogger sets the base logger for prepared contexts.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *ContextManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIDGenerator overrides the correlation id generator.
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *ContextManager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithPrepareHook registers a hook run after a context is prepared.
func WithPrepareHook(hook Hook) ManagerOption {
	return func(m *ContextManager) {
		if hook != nil {
			m.onPrepare = append(m.onPrepare, hook)
		}
	}
}

// WithDisposeHook registers a hook run when a context is disposed.
func WithDisposeHook(hook Hook) ManagerOption {
	return func(m *ContextManager) {
		if hook != nil {
			m.onDispose = append(m.onDispose, hook)
		}
	}
}

// NewContextManager creates a manager for contexts of origin.
func NewContextManager(origin model.Origin, options ...ManagerOption) *ContextManager {
	m := &ContextManager{
		origin: origin,
		logger: slog.New(slog.DiscardHandler),
		newID:  uuid.NewString,
	}
	for _, opt := range options {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Prepare builds the engine context for one processing call.
func (m *ContextManager) Prepare(descriptor template.Descriptor, attributes map[string]any, call Context) *EngineContext {
	id := m.newID()
	variables := maps.Clone(call.Variables)
	if variables == nil {
		variables = make(map[string]any)
	}
	ec := &EngineContext{
		id:         id,
		origin:     m.origin,
		descriptor: descriptor,
		attributes: maps.Clone(attributes),
		locale:     call.Locale,
		variables:  variables,
		logger: m.logger.With(
			slog.String("correlation_id", id),
			slog.String("template", descriptor.Name),
		),
	}
	for _, hook := range m.onPrepare {
		hook(ec)
	}
	return ec
}

// Dispose releases ec. Repeated calls are no-ops, so hooks run exactly once.
func (m *ContextManager) Dispose(ec *EngineContext) {
	if ec == nil || !ec.disposed.CompareAndSwap(false, true) {
		return
	}
	for _, hook := range m.onDispose {
		hook(ec)
	}
	ec.mu.Lock()
	ec.variables = make(map[string]any)
	ec.mu.Unlock()
}
