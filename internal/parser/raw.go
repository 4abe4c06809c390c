package parser

import (
	"context"

	"github.com/goliatone/go-tplengine/pkg/model"
	pkgparser "github.com/goliatone/go-tplengine/pkg/parser"
)

// Raw emits the whole content as a single text event. Selectors do not apply
// to raw templates and are ignored.
type Raw struct{}

var _ pkgparser.Parser = Raw{}

// ParseStandalone reads the resource.
func (p Raw) ParseStandalone(ctx context.Context, req pkgparser.StandaloneRequest, sink pkgparser.Sink) error {
	data, err := readResource(ctx, req)
	if err != nil {
		return err
	}
	return p.emit(string(data), req.Template, newTracker(0, 0), sink)
}

// ParseString wraps the fragment.
func (p Raw) ParseString(req pkgparser.StringRequest, sink pkgparser.Sink) error {
	return p.emit(req.Content, req.Template, newTracker(req.Line, req.Col), sink)
}

func (Raw) emit(content, name string, pos *tracker, sink pkgparser.Sink) error {
	return document(sink, name, func() error {
		if content == "" {
			return nil
		}
		line, col := pos.position()
		return sink.Emit(model.Event{Kind: model.EventText, Content: content, Line: line, Col: col})
	})
}
