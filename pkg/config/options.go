package config

import (
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/goliatone/go-tplengine/internal/expression"
	internalResolver "github.com/goliatone/go-tplengine/internal/resolver"
	"github.com/goliatone/go-tplengine/pkg/cache"
	"github.com/goliatone/go-tplengine/pkg/cache/rediscache"
	"github.com/goliatone/go-tplengine/pkg/engine"
	"github.com/goliatone/go-tplengine/pkg/processor"
	pkgresolver "github.com/goliatone/go-tplengine/pkg/resolver"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// Build is the result of turning a Config into engine options. Close
// releases connections opened for the cache backend.
type Build struct {
	Options []engine.Option
	Logger  *slog.Logger
	Close   func() error
}

// ResolverOptions returns the resolver options shared by every configured
// resolver. Existence checks are always on so a miss falls through to the
// next resolver.
func (c Config) ResolverOptions() ([]pkgresolver.Option, error) {
	mode, err := template.ParseMode(c.Templates.Mode)
	if err != nil {
		return nil, fmt.Errorf("config: templates.mode: %w", err)
	}
	opts := []pkgresolver.Option{
		pkgresolver.WithPrefix(c.Templates.Prefix),
		pkgresolver.WithSuffix(c.Templates.Suffix),
		pkgresolver.WithMode(mode),
		pkgresolver.WithCacheable(c.Templates.Cacheable),
		pkgresolver.WithExistenceCheck(),
	}
	if c.Templates.TTL > 0 {
		opts = append(opts, pkgresolver.WithTTL(c.Templates.TTL))
	}
	if len(c.Templates.Patterns) > 0 {
		opts = append(opts, pkgresolver.WithPatterns(c.Templates.Patterns...))
	}
	if len(c.Templates.NonCacheable) > 0 {
		opts = append(opts, pkgresolver.WithNonCacheablePatterns(c.Templates.NonCacheable...))
	}
	return opts, nil
}

// Options validates the configuration and assembles engine options: file
// resolvers for each directory, an HTTP resolver when a URL is set, the cache
// backend, the logger, the expression dialect and the optional stages. A nil
// logger is built from the log section.
func (c Config) Options(logger *slog.Logger) (*Build, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = c.Logger()
	}
	shared, err := c.ResolverOptions()
	if err != nil {
		return nil, err
	}

	build := &Build{
		Logger: logger,
		Close:  func() error { return nil },
	}
	build.Options = append(build.Options, engine.WithLogger(logger))

	for i, dir := range c.Templates.Dirs {
		opts := append([]pkgresolver.Option{pkgresolver.WithLabel(fmt.Sprintf("file[%d]", i))}, shared...)
		r, err := internalResolver.NewFile(dir, pkgresolver.NewOptions(opts...))
		if err != nil {
			return nil, fmt.Errorf("config: template dir %s: %w", dir, err)
		}
		build.Options = append(build.Options, engine.WithResolvers(r))
	}
	if c.Templates.URL != "" {
		opts := append([]pkgresolver.Option{}, shared...)
		opts = append(opts, pkgresolver.WithPrefix(c.Templates.URL+c.Templates.Prefix))
		r, err := internalResolver.NewHTTP(pkgresolver.NewOptions(opts...))
		if err != nil {
			return nil, fmt.Errorf("config: template url: %w", err)
		}
		build.Options = append(build.Options, engine.WithResolvers(r))
	}

	switch c.Cache.Backend {
	case BackendMemory, "":
		build.Options = append(build.Options, engine.WithCache(cache.NewMemory(cache.MemoryConfig{
			MaxSize: c.Cache.MaxSize,
			TTL:     c.Cache.TTL,
		})))
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Address,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		build.Close = client.Close
		build.Options = append(build.Options, engine.WithCache(rediscache.New(client,
			rediscache.WithPrefix(c.Redis.Prefix),
			rediscache.WithTTL(c.Cache.TTL),
			rediscache.WithLogger(logger),
		)))
	}

	if c.Expressions.Dialect == DialectDjango {
		django, err := expression.NewDjango(expression.WithGlobals(c.Expressions.Globals))
		if err != nil {
			_ = build.Close()
			return nil, fmt.Errorf("config: expressions: %w", err)
		}
		build.Options = append(build.Options, engine.WithEvaluator(django))
	}

	if c.Stages.TrimWhitespace {
		build.Options = append(build.Options, engine.WithPreProcessor(processor.NewTrimFactory(), template.ModeHTML, template.ModeXML))
	}
	if c.Stages.Sanitize {
		build.Options = append(build.Options, engine.WithPostProcessor(processor.NewSanitizerFactory(nil), template.ModeHTML))
	}
	return build, nil
}
