package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goliatone/go-tplengine/internal/expression"
	internalParser "github.com/goliatone/go-tplengine/internal/parser"
	"github.com/goliatone/go-tplengine/pkg/cache"
	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/parser"
	"github.com/goliatone/go-tplengine/pkg/pipeline"
	"github.com/goliatone/go-tplengine/pkg/processor"
	"github.com/goliatone/go-tplengine/pkg/resolver"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// Context is the caller supplied state of a single call.
type Context = pipeline.Context

// TemplateSpec names a top level template for ParseAndProcess.
type TemplateSpec struct {
	Name       string
	Selectors  []string
	Mode       template.Mode
	Attributes map[string]any
}

func (s TemplateSpec) reference() template.Reference {
	return template.Reference{
		Name:       s.Name,
		Selectors:  s.Selectors,
		Mode:       s.Mode,
		Attributes: s.Attributes,
	}
}

// Engine resolves, parses, caches and processes templates. It is safe for
// concurrent use; calls share nothing but the cache.
type Engine struct {
	origin    model.Origin
	resolvers *resolver.Chain
	cache     cache.Cache
	parsers   *parser.Table
	stages    *pipeline.Registry
	contexts  *pipeline.ContextManager
	logger    *slog.Logger

	resolverList    []resolver.Resolver
	parserOverrides []parserOverride
	pre             []stageRegistration
	post            []stageRegistration
	core            pipeline.Factory
	output          pipeline.OutputFactory
	evaluator       processor.Evaluator
	managerOptions  []pipeline.ManagerOption
}

// New constructs an engine applying options. Missing collaborators default
// to the built-in parsers, the inlining core processor and the writer
// output. Caching is disabled unless WithCache is given.
func New(options ...Option) (*Engine, error) {
	e := &Engine{
		origin: model.NewOrigin(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if err := e.applyDefaults(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) applyDefaults() error {
	if e.parsers == nil {
		e.parsers = internalParser.NewDefaultTable()
	}
	for _, override := range e.parserOverrides {
		if err := e.parsers.Register(override.mode, override.parser); err != nil {
			return fmt.Errorf("engine: register parser: %w", err)
		}
	}
	if e.core == nil {
		if e.evaluator == nil {
			e.evaluator = expression.New()
		}
		e.core = processor.NewCoreFactory(e.evaluator)
	}
	if e.output == nil {
		e.output = processor.NewOutputFactory()
	}
	e.stages = pipeline.NewRegistry(e.core, e.output)
	if err := e.applyStages(); err != nil {
		return err
	}

	e.resolvers = resolver.NewChain(e.resolverList, resolver.WithLogger(e.logger))
	e.contexts = pipeline.NewContextManager(e.origin,
		append([]pipeline.ManagerOption{pipeline.WithManagerLogger(e.logger)}, e.managerOptions...)...)
	return nil
}

// Origin identifies the engine configuration.
func (e *Engine) Origin() model.Origin {
	return e.origin
}

// Cache returns the configured cache, or nil when caching is disabled.
func (e *Engine) Cache() cache.Cache {
	return e.cache
}

// Resolvers lists the resolver names in chain order.
func (e *Engine) Resolvers() []string {
	return e.resolvers.Names()
}

// Stages lists the stage names a chain for mode is built from.
func (e *Engine) Stages(mode template.Mode) []string {
	spec := e.stages.Spec(mode)
	names := make([]string, 0, len(spec.Pre)+len(spec.Post)+2)
	for _, f := range spec.Pre {
		names = append(names, f.Name())
	}
	names = append(names, spec.Core.Name())
	for _, f := range spec.Post {
		names = append(names, f.Name())
	}
	return append(names, spec.Output.Name())
}

// ParseStandalone returns the model for ref, resolving and parsing it on a
// cache miss. ref.Owner names the template that triggered the call, empty for
// top level templates. ref.Mode, when set, overrides the resolver mode.
// With useCache false the cache is neither read nor written.
func (e *Engine) ParseStandalone(ctx context.Context, call Context, ref template.Reference, useCache bool) (*model.Model, error) {
	if ctx == nil {
		return nil, errors.New("engine: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref.Name == "" {
		return nil, errors.New("engine: template name is required")
	}
	if !ref.Mode.IsZero() && !ref.Mode.Valid() {
		return nil, &parser.UnsupportedModeError{Mode: ref.Mode}
	}
	selectors, err := template.NormalizeSelectors(ref.Selectors)
	if err != nil {
		return nil, fmt.Errorf("engine: template %q: %w", ref.Name, err)
	}
	ref.Selectors = selectors
	ref.Line, ref.Col = 0, 0

	caching := useCache && e.cache != nil
	var key cache.Key
	if caching {
		key = cache.NewKey(ref)
		if m, ok := e.lookup(key); ok {
			return m, nil
		}
	}

	res, err := e.resolvers.Resolve(ctx, resolver.Request{
		Owner:      ref.Owner,
		Name:       ref.Name,
		Attributes: ref.Attributes,
	})
	if err != nil {
		return nil, err
	}

	descriptor := template.Descriptor{
		Name:      ref.Name,
		Selectors: selectors,
		Resource:  res.Resource,
		Mode:      res.Mode,
		Validity:  res.Validity,
	}
	if !ref.Mode.IsZero() {
		descriptor.Mode = ref.Mode
	}
	if !useCache {
		descriptor.Validity = template.NeverCacheable
	}

	p, err := e.parsers.For(descriptor.Mode)
	if err != nil {
		return nil, fmt.Errorf("engine: template %q: %w", ref.Name, err)
	}
	builder := model.NewBuilder(e.origin, descriptor)
	if err := p.ParseStandalone(ctx, parser.StandaloneRequest{
		Owner:     ref.Owner,
		Template:  ref.Name,
		Selectors: selectors,
		Resource:  res.Resource,
		Mode:      descriptor.Mode,
	}, builder); err != nil {
		return nil, fmt.Errorf("engine: parse %q: %w", ref.Name, err)
	}
	m := builder.Build()

	if caching && descriptor.Cacheable() {
		e.store(key, m)
	}
	return m, nil
}

// ParseString parses an inline fragment of owner. Positions are offset by
// line and col so diagnostics point into the owner. An empty mode keeps the
// owner mode. The fragment is cached only if useCache is set and the owner
// itself is cacheable.
func (e *Engine) ParseString(owner template.Descriptor, text string, line, col int, mode template.Mode, useCache bool) (*model.Model, error) {
	if mode.IsZero() {
		mode = owner.Mode
	}
	if !mode.Valid() {
		return nil, &parser.UnsupportedModeError{Mode: mode}
	}

	cacheable := useCache && owner.Cacheable()
	caching := cacheable && e.cache != nil
	var key cache.Key
	if caching {
		key = cache.NewKey(template.Reference{
			Owner: owner.Name,
			Name:  text,
			Line:  line,
			Col:   col,
			Mode:  mode,
		})
		if m, ok := e.lookup(key); ok {
			return m, nil
		}
	}

	// The owner descriptor is reused as is unless the mode changes.
	descriptor := owner
	if mode != owner.Mode {
		validity := owner.Validity
		if !cacheable {
			validity = template.NeverCacheable
		}
		descriptor = owner.WithMode(mode, validity)
	}

	p, err := e.parsers.For(mode)
	if err != nil {
		return nil, fmt.Errorf("engine: fragment of %q: %w", owner.Name, err)
	}
	builder := model.NewBuilder(e.origin, descriptor)
	if err := p.ParseString(parser.StringRequest{
		Owner:    owner.Name,
		Template: owner.Name,
		Content:  text,
		Line:     line,
		Col:      col,
		Mode:     mode,
	}, builder); err != nil {
		return nil, fmt.Errorf("engine: parse fragment of %q: %w", owner.Name, err)
	}
	m := builder.Build()

	if caching {
		e.store(key, m)
	}
	return m, nil
}

// Process streams m through a freshly built chain into w. The engine context
// is disposed on every exit path, stage failures and panics included.
func (e *Engine) Process(ctx context.Context, m *model.Model, call Context, w io.Writer) error {
	return e.process(ctx, m, nil, call, w)
}

// ParseAndProcess resolves and parses spec through the cache, then processes
// the resulting model. A miss is parsed exactly once.
func (e *Engine) ParseAndProcess(ctx context.Context, spec TemplateSpec, call Context, w io.Writer) error {
	m, err := e.ParseStandalone(ctx, call, spec.reference(), true)
	if err != nil {
		return err
	}
	return e.process(ctx, m, spec.Attributes, call, w)
}

func (e *Engine) process(ctx context.Context, m *model.Model, attributes map[string]any, call Context, w io.Writer) error {
	if ctx == nil {
		return errors.New("engine: context is required")
	}
	if m == nil {
		return errors.New("engine: model is required")
	}
	if m.Origin() != e.origin {
		return &ForeignModelError{Template: m.Descriptor().Name}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ec := e.contexts.Prepare(m.Descriptor(), attributes, call)
	defer e.contexts.Dispose(ec)

	chain, err := pipeline.Build(ec, e.stages.Spec(ec.Mode()), w)
	if err != nil {
		return fmt.Errorf("engine: template %q: %w", ec.TemplateName(), err)
	}
	ec.Logger().Debug("processing template", slog.Any("stages", chain.Stages()))
	if err := chain.Run(m); err != nil {
		return fmt.Errorf("engine: process %q: %w", ec.TemplateName(), err)
	}
	return nil
}

// ClearCaches drops every cached model.
func (e *Engine) ClearCaches() {
	if e.cache == nil {
		return
	}
	e.cache.Clear()
	e.logger.Debug("template cache cleared")
}

// ClearCachesFor drops the entries of the standalone template name and every
// fragment owned by it. Entries added during the sweep may survive.
func (e *Engine) ClearCachesFor(name string) {
	if e.cache == nil {
		return
	}
	removed := cache.ClearFor(e.cache, name)
	e.logger.Debug("template cache entries cleared",
		slog.String("template", name),
		slog.Int("removed", removed))
}

func (e *Engine) lookup(key cache.Key) (*model.Model, bool) {
	m, ok := e.cache.Get(key)
	if !ok || m == nil {
		e.logger.Debug("template cache miss", slog.String("key", key.String()))
		return nil, false
	}
	m = m.Rebind(e.origin)
	if m.Origin() != e.origin {
		e.logger.Debug("ignoring cached model of another engine", slog.String("key", key.String()))
		return nil, false
	}
	e.logger.Debug("template cache hit", slog.String("key", key.String()))
	return m, true
}

func (e *Engine) store(key cache.Key, m *model.Model) {
	e.cache.Put(key, m)
	e.logger.Debug("template cache put", slog.String("key", key.String()))
}
