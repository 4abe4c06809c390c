package resolver

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	pkgresolver "github.com/goliatone/go-tplengine/pkg/resolver"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// base holds the name mapping and validity policy shared by every resolver.
type base struct {
	opts pkgresolver.Options
}

func newBase(kind string, opts pkgresolver.Options) (base, error) {
	if opts.Label == "" {
		opts.Label = kind
	}
	for _, pattern := range append(append([]string(nil), opts.Patterns...), opts.NonCacheablePatterns...) {
		if !doublestar.ValidatePattern(pattern) {
			return base{}, fmt.Errorf("%s resolver: invalid pattern %q", kind, pattern)
		}
	}
	if opts.Mode.IsZero() {
		opts.Mode = template.ModeHTML
	}
	return base{opts: opts}, nil
}

func (b base) Name() string {
	return b.opts.Label
}

// handles reports whether the resolver is configured to answer for name.
func (b base) handles(name string) bool {
	if len(b.opts.Patterns) == 0 {
		return true
	}
	return matchAny(b.opts.Patterns, name)
}

// resourceName maps a template name to the backing resource name.
func (b base) resourceName(name string) string {
	target := name
	if alias, ok := b.opts.Aliases[name]; ok && alias != "" {
		target = alias
	}
	if b.opts.Prefix != "" && !strings.HasPrefix(target, b.opts.Prefix) {
		target = b.opts.Prefix + target
	}
	if b.opts.Suffix != "" && !strings.HasSuffix(target, b.opts.Suffix) {
		target += b.opts.Suffix
	}
	return target
}

func (b base) mode(resourceName string) template.Mode {
	if b.opts.ForceMode {
		return b.opts.Mode
	}
	return template.ModeFromExtension(resourceName, b.opts.Mode)
}

func (b base) validity(name string) template.Validity {
	if !b.opts.Cacheable || matchAny(b.opts.NonCacheablePatterns, name) {
		return template.NeverCacheable
	}
	if b.opts.TTL > 0 {
		return template.NewTTLValidity(b.opts.TTL)
	}
	return template.AlwaysValid
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
