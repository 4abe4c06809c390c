package tplengine

import (
	"database/sql"
	"io/fs"

	internalResolver "github.com/goliatone/go-tplengine/internal/resolver"
	pkgresolver "github.com/goliatone/go-tplengine/pkg/resolver"
)

// NewMemoryResolver serves templates from a name to content map.
func NewMemoryResolver(templates map[string]string, options ...pkgresolver.Option) (pkgresolver.Resolver, error) {
	return internalResolver.NewMemory(templates, pkgresolver.NewOptions(options...))
}

// NewFSResolver serves templates from fsys.
func NewFSResolver(fsys fs.FS, options ...pkgresolver.Option) (pkgresolver.Resolver, error) {
	return internalResolver.NewFS(fsys, pkgresolver.NewOptions(options...))
}

// NewFileResolver serves templates from dir and revalidates cached models
// against the file modification time.
func NewFileResolver(dir string, options ...pkgresolver.Option) (pkgresolver.Resolver, error) {
	return internalResolver.NewFile(dir, pkgresolver.NewOptions(options...))
}

// NewHTTPResolver fetches templates over HTTP. Use resolver.WithPrefix for
// the base URL.
func NewHTTPResolver(options ...pkgresolver.Option) (pkgresolver.Resolver, error) {
	return internalResolver.NewHTTP(pkgresolver.NewOptions(options...))
}

// NewSQLResolver loads templates from db, see resolver.WithQuery.
func NewSQLResolver(db *sql.DB, options ...pkgresolver.Option) (pkgresolver.Resolver, error) {
	return internalResolver.NewSQL(db, pkgresolver.NewOptions(options...))
}
