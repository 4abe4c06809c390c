package model

import (
	"errors"

	"github.com/goliatone/go-tplengine/pkg/template"
)

// ErrModelFrozen is returned when events are appended after Build.
var ErrModelFrozen = errors.New("model: builder already built")

// Model is the immutable parsed form of a template.
type Model struct {
	descriptor template.Descriptor
	owner      Origin
	events     []Event
}

// Origin returns the configuration identity the model was built under.
func (m *Model) Origin() Origin {
	return m.owner
}

// Descriptor returns the template descriptor.
func (m *Model) Descriptor() template.Descriptor {
	descriptor := m.descriptor
	if descriptor.Selectors != nil {
		descriptor.Selectors = append([]string(nil), descriptor.Selectors...)
	}
	return descriptor
}

// Len returns the number of events.
func (m *Model) Len() int {
	return len(m.events)
}

// At returns the i-th event.
func (m *Model) At(i int) Event {
	return m.events[i].Clone()
}

// Events returns a copy of the event sequence.
func (m *Model) Events() []Event {
	out := make([]Event, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Clone()
	}
	return out
}

// Each streams every event in order, stopping at the first error.
func (m *Model) Each(fn func(Event) error) error {
	for _, ev := range m.events {
		if err := fn(ev.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// Rebind returns a model bound to origin sharing the same events. Bound
// models are returned unchanged; rebinding only applies to models that were
// decoded without an origin (for example from a remote cache).
func (m *Model) Rebind(origin Origin) *Model {
	if !m.owner.IsZero() {
		return m
	}
	return &Model{descriptor: m.descriptor, owner: origin, events: m.events}
}

// Builder accumulates events for a single model. It is the sink parsers emit
// into; it is not safe for concurrent use.
type Builder struct {
	descriptor template.Descriptor
	origin     Origin
	events     []Event
	built      bool
}

// NewBuilder starts a model for descriptor under origin.
func NewBuilder(origin Origin, descriptor template.Descriptor) *Builder {
	return &Builder{descriptor: descriptor, origin: origin}
}

// Emit appends ev to the model under construction.
func (b *Builder) Emit(ev Event) error {
	if b.built {
		return ErrModelFrozen
	}
	b.events = append(b.events, ev.Clone())
	return nil
}

// Build freezes the builder and returns the model.
func (b *Builder) Build() *Model {
	b.built = true
	events := make([]Event, len(b.events))
	copy(events, b.events)
	return &Model{descriptor: b.descriptor, owner: b.origin, events: events}
}

// New constructs a model directly from events. It is used by cache codecs
// and tests; parsers go through Builder.
func New(origin Origin, descriptor template.Descriptor, events []Event) *Model {
	b := NewBuilder(origin, descriptor)
	for _, ev := range events {
		_ = b.Emit(ev)
	}
	return b.Build()
}
