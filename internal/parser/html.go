package parser

import (
	"bytes"
	"context"
	"io"

	"golang.org/x/net/html"

	"github.com/goliatone/go-tplengine/pkg/model"
	pkgparser "github.com/goliatone/go-tplengine/pkg/parser"
)

var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "param": {}, "source": {}, "track": {}, "wbr": {},
}

// IsVoidElement reports whether name is an HTML element without end tag.
func IsVoidElement(name string) bool {
	_, ok := voidElements[name]
	return ok
}

// HTML parses HTML templates with the x/net/html tokenizer. The grammar is
// lenient: unbalanced tags are forwarded as they appear.
type HTML struct{}

var _ pkgparser.Parser = HTML{}

// ParseStandalone reads the resource and tokenizes it.
func (p HTML) ParseStandalone(ctx context.Context, req pkgparser.StandaloneRequest, sink pkgparser.Sink) error {
	data, err := readResource(ctx, req)
	if err != nil {
		return err
	}
	out := withSelectors(sink, req.Selectors)
	return document(out, req.Template, func() error {
		return p.tokenize(data, req.Template, newTracker(0, 0), out)
	})
}

// ParseString tokenizes an inline fragment.
func (p HTML) ParseString(req pkgparser.StringRequest, sink pkgparser.Sink) error {
	return document(sink, req.Template, func() error {
		return p.tokenize([]byte(req.Content), req.Template, newTracker(req.Line, req.Col), sink)
	})
}

func (HTML) tokenize(data []byte, name string, pos *tracker, sink pkgparser.Sink) error {
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				line, col := pos.position()
				return &pkgparser.ParseError{Template: name, Line: line, Col: col, Err: err}
			}
			return nil
		}

		raw := append([]byte(nil), z.Raw()...)
		line, col := pos.position()
		pos.advance(raw)

		ev := model.Event{Line: line, Col: col}
		switch tt {
		case html.TextToken:
			ev.Kind = model.EventText
			ev.Content = string(raw)
		case html.CommentToken:
			ev.Kind = model.EventComment
			ev.Content = string(z.Text())
		case html.DoctypeToken:
			ev.Kind = model.EventDocType
			ev.Content = string(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			tagName, hasAttr := z.TagName()
			ev.Name = string(tagName)
			ev.Attributes = tagAttributes(z, hasAttr)
			switch {
			case tt == html.SelfClosingTagToken:
				ev.Kind = model.EventStandaloneElement
				ev.Minimized = true
			case IsVoidElement(ev.Name):
				ev.Kind = model.EventStandaloneElement
			default:
				ev.Kind = model.EventOpenElement
			}
		case html.EndTagToken:
			tagName, _ := z.TagName()
			ev.Kind = model.EventCloseElement
			ev.Name = string(tagName)
		default:
			continue
		}

		if err := sink.Emit(ev); err != nil {
			return err
		}
	}
}

func tagAttributes(z *html.Tokenizer, more bool) []model.Attribute {
	var attrs []model.Attribute
	for more {
		var key, value []byte
		key, value, more = z.TagAttr()
		attrs = append(attrs, model.Attribute{Name: string(key), Value: string(value)})
	}
	return attrs
}
