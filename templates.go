package tplengine

import (
	"embed"
	"io/fs"

	pkgresolver "github.com/goliatone/go-tplengine/pkg/resolver"
)

//go:embed templates/*
var embeddedTemplates embed.FS

// EmbeddedTemplates exposes the bundled sample templates (one per mode) used
// by the CLI demo and the package tests.
func EmbeddedTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// NewEmbeddedResolver serves EmbeddedTemplates.
func NewEmbeddedResolver(options ...pkgresolver.Option) (pkgresolver.Resolver, error) {
	opts := append([]pkgresolver.Option{pkgresolver.WithLabel("embedded")}, options...)
	return NewFSResolver(EmbeddedTemplates(), opts...)
}
