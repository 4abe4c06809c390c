package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	pkgresolver "github.com/goliatone/go-tplengine/pkg/resolver"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// DefaultQuery selects the content and optional mode of a named template.
const DefaultQuery = "SELECT content, mode FROM templates WHERE name = ?"

// SQL resolves templates stored in a database table. The content is read at
// resolution time so existence is always checked.
type SQL struct {
	base
	db    *sql.DB
	query string
}

var _ pkgresolver.Resolver = (*SQL)(nil)

// NewSQL constructs a resolver over db.
func NewSQL(db *sql.DB, opts pkgresolver.Options) (*SQL, error) {
	if db == nil {
		return nil, errors.New("sql resolver: database is required")
	}
	b, err := newBase("sql", opts)
	if err != nil {
		return nil, err
	}
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		query = DefaultQuery
	}
	return &SQL{base: b, db: db, query: query}, nil
}

// Resolve loads the row for the resource name.
func (r *SQL) Resolve(ctx context.Context, req pkgresolver.Request) (*template.Resolution, error) {
	if !r.handles(req.Name) {
		return nil, nil
	}
	resourceName := r.resourceName(req.Name)

	var (
		content string
		mode    sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.query, resourceName).Scan(&content, &mode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sql resolver: query %q: %w", resourceName, err)
	}

	resolved := r.mode(resourceName)
	if mode.Valid && !r.opts.ForceMode {
		parsed, err := template.ParseMode(mode.String)
		if err != nil {
			return nil, fmt.Errorf("sql resolver: template %q: %w", resourceName, err)
		}
		if !parsed.IsZero() {
			resolved = parsed
		}
	}

	return &template.Resolution{
		Resource: &sqlResource{name: resourceName, content: content},
		Mode:     resolved,
		Validity: r.validity(req.Name),
	}, nil
}

type sqlResource struct {
	name    string
	content string
}

func (r *sqlResource) Name() string {
	return r.name
}

func (r *sqlResource) Description() string {
	return "sql:" + r.name
}

func (r *sqlResource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(r.content)), nil
}
