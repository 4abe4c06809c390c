package resolver

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-tplengine/pkg/template"
)

// Options configures the built-in resolvers. Not every field applies to every
// resolver; unused fields are ignored.
type Options struct {
	// Label names the resolver in diagnostics.
	Label string

	// Prefix and Suffix wrap the template name to build the resource name.
	Prefix string
	Suffix string

	// Aliases map template names to resource names before Prefix/Suffix.
	Aliases map[string]string

	// Patterns restricts the template names the resolver answers for
	// (doublestar syntax). Empty means every name.
	Patterns []string

	// Mode is used when the resource name has no recognised extension, or
	// always when ForceMode is set.
	Mode      template.Mode
	ForceMode bool

	// Cacheable turns caching on for resolved templates; TTL bounds the entry
	// lifetime when positive.
	Cacheable bool
	TTL       time.Duration

	// NonCacheablePatterns marks matching names as never cacheable.
	NonCacheablePatterns []string

	// CheckExistence makes the resolver verify the resource exists and report a
	// miss otherwise, letting later resolvers in the chain try.
	CheckExistence bool

	// HTTPClient and RequestTimeout apply to the HTTP resolver.
	HTTPClient     *http.Client
	RequestTimeout time.Duration

	// Query is the SQL statement used by the SQL resolver. It receives the
	// resource name as its only argument and must select the content and,
	// optionally, the template mode.
	Query string
}

// Option mutates Options prior to construction.
type Option func(*Options)

// WithLabel names the resolver.
func WithLabel(label string) Option {
	return func(opts *Options) {
		opts.Label = strings.TrimSpace(label)
	}
}

// WithPrefix sets the resource name prefix.
func WithPrefix(prefix string) Option {
	return func(opts *Options) {
		opts.Prefix = prefix
	}
}

// WithSuffix sets the resource name suffix.
func WithSuffix(suffix string) Option {
	return func(opts *Options) {
		opts.Suffix = suffix
	}
}

// WithAlias maps a template name to a different resource name.
func WithAlias(name, target string) Option {
	return func(opts *Options) {
		if opts.Aliases == nil {
			opts.Aliases = make(map[string]string)
		}
		opts.Aliases[name] = target
	}
}

// WithPatterns restricts the resolver to names matching any pattern.
func WithPatterns(patterns ...string) Option {
	return func(opts *Options) {
		opts.Patterns = append(opts.Patterns, patterns...)
	}
}

// WithMode sets the fallback template mode.
func WithMode(mode template.Mode) Option {
	return func(opts *Options) {
		opts.Mode = mode
	}
}

// WithForcedMode ignores extensions and always reports mode.
func WithForcedMode(mode template.Mode) Option {
	return func(opts *Options) {
		opts.Mode = mode
		opts.ForceMode = true
	}
}

// WithCacheable toggles caching of resolved templates.
func WithCacheable(cacheable bool) Option {
	return func(opts *Options) {
		opts.Cacheable = cacheable
	}
}

// WithTTL bounds how long resolved templates stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		opts.TTL = ttl
	}
}

// WithNonCacheablePatterns marks names matching any pattern as never cacheable.
func WithNonCacheablePatterns(patterns ...string) Option {
	return func(opts *Options) {
		opts.NonCacheablePatterns = append(opts.NonCacheablePatterns, patterns...)
	}
}

// WithExistenceCheck enables resource existence verification.
func WithExistenceCheck() Option {
	return func(opts *Options) {
		opts.CheckExistence = true
	}
}

// WithHTTPClient injects the client used by the HTTP resolver.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

// WithRequestTimeout caps remote fetch durations.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.RequestTimeout = timeout
	}
}

// WithQuery overrides the SQL resolver statement.
func WithQuery(query string) Option {
	return func(opts *Options) {
		opts.Query = query
	}
}

// NewOptions applies options over the defaults: cacheable, HTML fallback mode.
func NewOptions(options ...Option) Options {
	cfg := Options{
		Mode:      template.ModeHTML,
		Cacheable: true,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
