package resolver

import (
	"context"
	"sync"

	pkgresolver "github.com/goliatone/go-tplengine/pkg/resolver"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// Memory serves templates from an in-memory map. Templates can be added after
// construction.
type Memory struct {
	base
	mu        sync.RWMutex
	templates map[string]string
}

var _ pkgresolver.Resolver = (*Memory)(nil)

// NewMemory constructs a memory resolver seeded with templates.
func NewMemory(templates map[string]string, opts pkgresolver.Options) (*Memory, error) {
	b, err := newBase("memory", opts)
	if err != nil {
		return nil, err
	}
	m := &Memory{base: b, templates: make(map[string]string, len(templates))}
	for name, content := range templates {
		m.templates[name] = content
	}
	return m, nil
}

// Set adds or replaces a template.
func (m *Memory) Set(name, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[name] = content
}

// Resolve returns the stored template or a miss.
func (m *Memory) Resolve(ctx context.Context, req pkgresolver.Request) (*template.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !m.handles(req.Name) {
		return nil, nil
	}
	resourceName := m.resourceName(req.Name)

	m.mu.RLock()
	content, ok := m.templates[resourceName]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	return &template.Resolution{
		Resource: template.NewStringResource(resourceName, content),
		Mode:     m.mode(resourceName),
		Validity: m.validity(req.Name),
	}, nil
}
