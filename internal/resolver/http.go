package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgresolver "github.com/goliatone/go-tplengine/pkg/resolver"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// HTTP resolves templates served over HTTP. Prefix usually holds the base URL.
type HTTP struct {
	base
	client  *http.Client
	timeout time.Duration
}

var _ pkgresolver.Resolver = (*HTTP)(nil)

// NewHTTP constructs an HTTP resolver. A nil client falls back to a client
// honouring RequestTimeout.
func NewHTTP(opts pkgresolver.Options) (*HTTP, error) {
	b, err := newBase("http", opts)
	if err != nil {
		return nil, err
	}
	timeout := opts.RequestTimeout

	var client *http.Client
	if opts.HTTPClient != nil {
		clone := *opts.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		client = &clone
	} else {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTP{base: b, client: client, timeout: timeout}, nil
}

// Resolve builds the URL for the name. With existence checking enabled a HEAD
// request decides between a match and a miss.
func (r *HTTP) Resolve(ctx context.Context, req pkgresolver.Request) (*template.Resolution, error) {
	if !r.handles(req.Name) {
		return nil, nil
	}
	url := r.resourceName(req.Name)

	if r.opts.CheckExistence {
		ok, err := r.exists(ctx, url)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}

	return &template.Resolution{
		Resource: &httpResource{client: r.client, url: url, timeout: r.timeout},
		Mode:     r.mode(url),
		Validity: r.validity(req.Name),
	}, nil
}

func (r *HTTP) exists(ctx context.Context, url string) (bool, error) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if r.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

type httpResource struct {
	client  *http.Client
	url     string
	timeout time.Duration
}

func (r *httpResource) Name() string {
	return r.url
}

func (r *httpResource) Description() string {
	return r.url
}

func (r *httpResource) Open(ctx context.Context) (io.ReadCloser, error) {
	if r.client == nil {
		return nil, errors.New("http resolver: http client is not configured")
	}
	reqCtx := ctx
	var cancel context.CancelFunc
	if r.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, r.url, nil)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		if cancel != nil {
			cancel()
		}
		return nil, fmt.Errorf("http resolver: unexpected status %s for %s", resp.Status, r.url)
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	if b.cancel != nil {
		b.cancel()
	}
	return err
}
