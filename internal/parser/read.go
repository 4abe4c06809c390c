package parser

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-tplengine/pkg/model"
	pkgparser "github.com/goliatone/go-tplengine/pkg/parser"
)

func readResource(ctx context.Context, req pkgparser.StandaloneRequest) ([]byte, error) {
	if req.Resource == nil {
		return nil, errors.New("parser: template resource is required")
	}
	rc, err := req.Resource.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("parser: open template %q: %w", req.Template, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("parser: read template %q: %w", req.Template, err)
	}
	return data, nil
}

// document wraps the grammar-specific body with template start/end events.
func document(sink pkgparser.Sink, name string, body func() error) error {
	if err := sink.Emit(model.Event{Kind: model.EventTemplateStart, Name: name}); err != nil {
		return err
	}
	if err := body(); err != nil {
		return err
	}
	return sink.Emit(model.Event{Kind: model.EventTemplateEnd, Name: name})
}
