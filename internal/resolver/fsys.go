package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	pkgresolver "github.com/goliatone/go-tplengine/pkg/resolver"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// FS resolves templates stored in an fs.FS.
type FS struct {
	base
	fsys fs.FS
	// dir is set for directory-backed resolvers so validity can stat files.
	dir string
}

var _ pkgresolver.Resolver = (*FS)(nil)

// NewFS constructs a resolver over fsys.
func NewFS(fsys fs.FS, opts pkgresolver.Options) (*FS, error) {
	if fsys == nil {
		return nil, errors.New("fs resolver: filesystem is not configured")
	}
	b, err := newBase("fs", opts)
	if err != nil {
		return nil, err
	}
	return &FS{base: b, fsys: fsys}, nil
}

// NewFile constructs a resolver over a directory on disk. Cached entries are
// invalidated when the file's modification time moves past the caching time.
func NewFile(dir string, opts pkgresolver.Options) (*FS, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("file resolver: directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("file resolver: %w", err)
	}
	b, err := newBase("file", opts)
	if err != nil {
		return nil, err
	}
	return &FS{base: b, fsys: os.DirFS(abs), dir: abs}, nil
}

// Resolve maps the name onto the filesystem.
func (r *FS) Resolve(ctx context.Context, req pkgresolver.Request) (*template.Resolution, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if !r.handles(req.Name) {
		return nil, nil
	}

	resourceName := cleanFSPath(r.resourceName(req.Name))
	if !fs.ValidPath(resourceName) {
		return nil, nil
	}

	if r.opts.CheckExistence {
		info, err := fs.Stat(r.fsys, resourceName)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, nil
		}
	}

	return &template.Resolution{
		Resource: &fsResource{fsys: r.fsys, name: resourceName, dir: r.dir},
		Mode:     r.mode(resourceName),
		Validity: r.fileValidity(req.Name, resourceName),
	}, nil
}

func (r *FS) fileValidity(name, resourceName string) template.Validity {
	validity := r.validity(name)
	if r.dir == "" || !validity.Cacheable() {
		return validity
	}
	full := filepath.Join(r.dir, filepath.FromSlash(resourceName))
	ttl := r.opts.TTL
	return template.CheckValidity(func(cachedAt time.Time) bool {
		if ttl > 0 && !time.Now().Before(cachedAt.Add(ttl)) {
			return false
		}
		info, err := os.Stat(full)
		if err != nil {
			return false
		}
		return !info.ModTime().After(cachedAt)
	})
}

func cleanFSPath(name string) string {
	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimPrefix(cleaned, "/")
}

type fsResource struct {
	fsys fs.FS
	name string
	dir  string
}

func (r *fsResource) Name() string {
	return r.name
}

func (r *fsResource) Description() string {
	if r.dir != "" {
		return filepath.Join(r.dir, filepath.FromSlash(r.name))
	}
	return "fs:" + r.name
}

func (r *fsResource) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := r.fsys.Open(r.name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.Description(), err)
	}
	return f, nil
}
