// Package tplengine resolves, caches, parses and processes templates.
//
// The root package re-exports the engine constructor and the built-in
// resolvers so most callers need a single import:
//
//	files, _ := tplengine.NewFileResolver("./views", resolver.WithSuffix(".html"))
//	eng, _ := tplengine.NewEngine(
//		tplengine.WithResolvers(files),
//		tplengine.WithCache(cache.NewMemory(cache.MemoryConfig{MaxSize: 256})),
//	)
//	out, _ := tplengine.Render(ctx, eng, "home", tplengine.Context{Variables: vars})
package tplengine

import (
	"bytes"
	"context"

	"github.com/goliatone/go-tplengine/pkg/engine"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// Engine aliases engine.Engine.
type Engine = engine.Engine

// Option aliases engine.Option.
type Option = engine.Option

// Context is the caller supplied state of a call: locale and variables.
type Context = engine.Context

// TemplateSpec names a template for ParseAndProcess.
type TemplateSpec = engine.TemplateSpec

// Reference identifies a template before resolution.
type Reference = template.Reference

// Mode aliases template.Mode.
type Mode = template.Mode

// Template modes.
const (
	ModeHTML       = template.ModeHTML
	ModeXML        = template.ModeXML
	ModeText       = template.ModeText
	ModeJavaScript = template.ModeJavaScript
	ModeCSS        = template.ModeCSS
	ModeRaw        = template.ModeRaw
)

// NewEngine exposes the engine constructor from the top-level module.
func NewEngine(options ...Option) (*Engine, error) {
	return engine.New(options...)
}

// Forwarded engine options.
var (
	WithResolvers     = engine.WithResolvers
	WithCache         = engine.WithCache
	WithParser        = engine.WithParser
	WithPreProcessor  = engine.WithPreProcessor
	WithPostProcessor = engine.WithPostProcessor
	WithCore          = engine.WithCore
	WithOutput        = engine.WithOutput
	WithLogger        = engine.WithLogger
	WithDisposeHook   = engine.WithDisposeHook
)

// Render processes the named template through the cache and returns the
// output as a string.
func Render(ctx context.Context, eng *Engine, name string, call Context) (string, error) {
	var buf bytes.Buffer
	if err := eng.ParseAndProcess(ctx, TemplateSpec{Name: name}, call, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderSpec is Render for a full TemplateSpec, for selectors, a forced mode
// or resolution attributes.
func RenderSpec(ctx context.Context, eng *Engine, spec TemplateSpec, call Context) (string, error) {
	var buf bytes.Buffer
	if err := eng.ParseAndProcess(ctx, spec, call, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
