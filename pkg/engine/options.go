package engine

import (
	"fmt"
	"log/slog"

	"github.com/goliatone/go-tplengine/pkg/cache"
	"github.com/goliatone/go-tplengine/pkg/parser"
	"github.com/goliatone/go-tplengine/pkg/pipeline"
	"github.com/goliatone/go-tplengine/pkg/processor"
	"github.com/goliatone/go-tplengine/pkg/resolver"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// Option customises the engine configuration.
type Option func(*Engine)

type stageRegistration struct {
	factory pipeline.Factory
	modes   []template.Mode
}

// WithResolvers appends resolvers to the resolution chain, in order.
func WithResolvers(resolvers ...resolver.Resolver) Option {
	return func(e *Engine) {
		for _, r := range resolvers {
			if r != nil {
				e.resolverList = append(e.resolverList, r)
			}
		}
	}
}

// WithCache enables model caching. A nil cache disables it.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithParserTable replaces the default parser table.
func WithParserTable(table *parser.Table) Option {
	return func(e *Engine) {
		e.parsers = table
	}
}

// WithParser registers p for mode on top of the default table.
func WithParser(mode template.Mode, p parser.Parser) Option {
	return func(e *Engine) {
		e.parserOverrides = append(e.parserOverrides, parserOverride{mode: mode, parser: p})
	}
}

// WithPreProcessor registers a pre-processor for modes (all modes when empty).
func WithPreProcessor(factory pipeline.Factory, modes ...template.Mode) Option {
	return func(e *Engine) {
		e.pre = append(e.pre, stageRegistration{factory: factory, modes: modes})
	}
}

// WithPostProcessor registers a post-processor for modes (all modes when
// empty).
func WithPostProcessor(factory pipeline.Factory, modes ...template.Mode) Option {
	return func(e *Engine) {
		e.post = append(e.post, stageRegistration{factory: factory, modes: modes})
	}
}

// WithCore replaces the core processor factory.
func WithCore(factory pipeline.Factory) Option {
	return func(e *Engine) {
		e.core = factory
	}
}

// WithEvaluator shares an expression evaluator with the default core
// processor. Ignored when WithCore is used.
func WithEvaluator(eval processor.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = eval
	}
}

// WithOutput replaces the output factory.
func WithOutput(factory pipeline.OutputFactory) Option {
	return func(e *Engine) {
		e.output = factory
	}
}

// WithLogger sets the engine logger. Nil keeps the discarding default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPrepareHook runs hook after every engine context is prepared.
func WithPrepareHook(hook pipeline.Hook) Option {
	return func(e *Engine) {
		if hook != nil {
			e.managerOptions = append(e.managerOptions, pipeline.WithPrepareHook(hook))
		}
	}
}

// WithDisposeHook runs hook exactly once when an engine context is disposed.
func WithDisposeHook(hook pipeline.Hook) Option {
	return func(e *Engine) {
		if hook != nil {
			e.managerOptions = append(e.managerOptions, pipeline.WithDisposeHook(hook))
		}
	}
}

// WithIDGenerator overrides the correlation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.managerOptions = append(e.managerOptions, pipeline.WithIDGenerator(fn))
		}
	}
}

type parserOverride struct {
	mode   template.Mode
	parser parser.Parser
}

func (e *Engine) applyStages() error {
	for _, reg := range e.pre {
		if err := e.stages.AddPreProcessor(reg.factory, reg.modes...); err != nil {
			return fmt.Errorf("engine: register pre-processor: %w", err)
		}
	}
	for _, reg := range e.post {
		if err := e.stages.AddPostProcessor(reg.factory, reg.modes...); err != nil {
			return fmt.Errorf("engine: register post-processor: %w", err)
		}
	}
	return nil
}
