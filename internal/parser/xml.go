package parser

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-tplengine/pkg/model"
	pkgparser "github.com/goliatone/go-tplengine/pkg/parser"
)

// XML parses well-formed XML with encoding/xml. Mismatched or unclosed
// elements are reported as parse errors.
type XML struct{}

var _ pkgparser.Parser = XML{}

// ParseStandalone reads the resource and decodes it.
func (p XML) ParseStandalone(ctx context.Context, req pkgparser.StandaloneRequest, sink pkgparser.Sink) error {
	data, err := readResource(ctx, req)
	if err != nil {
		return err
	}
	out := withSelectors(sink, req.Selectors)
	return document(out, req.Template, func() error {
		return p.decode(data, req.Template, newTracker(0, 0), out)
	})
}

// ParseString decodes an inline fragment.
func (p XML) ParseString(req pkgparser.StringRequest, sink pkgparser.Sink) error {
	return document(sink, req.Template, func() error {
		return p.decode([]byte(req.Content), req.Template, newTracker(req.Line, req.Col), sink)
	})
}

func (XML) decode(data []byte, name string, pos *tracker, sink pkgparser.Sink) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var (
		open        []string
		skipNextEnd bool
	)
	fail := func(line, col int, err error) error {
		return &pkgparser.ParseError{Template: name, Line: line, Col: col, Err: err}
	}

	for {
		start := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				return fail(syntaxErr.Line+pos.lineOff, 0, errors.New(syntaxErr.Msg))
			}
			line, col := pos.position()
			return fail(line, col, err)
		}
		end := dec.InputOffset()
		raw := data[start:end]
		line, col := pos.position()
		pos.advance(raw)

		ev := model.Event{Line: line, Col: col}
		switch t := tok.(type) {
		case xml.StartElement:
			ev.Name = qualifiedName(t.Name)
			ev.Attributes = xmlAttributes(t.Attr)
			if bytes.HasSuffix(raw, []byte("/>")) {
				ev.Kind = model.EventStandaloneElement
				ev.Minimized = true
				skipNextEnd = true
			} else {
				ev.Kind = model.EventOpenElement
				open = append(open, ev.Name)
			}
		case xml.EndElement:
			if skipNextEnd {
				skipNextEnd = false
				continue
			}
			closing := qualifiedName(t.Name)
			if len(open) == 0 {
				return fail(line, col, fmt.Errorf("unexpected closing tag </%s>", closing))
			}
			if top := open[len(open)-1]; top != closing {
				return fail(line, col, fmt.Errorf("element <%s> closed by </%s>", top, closing))
			}
			open = open[:len(open)-1]
			ev.Kind = model.EventCloseElement
			ev.Name = closing
		case xml.CharData:
			if bytes.HasPrefix(raw, []byte("<![CDATA[")) {
				ev.Kind = model.EventCDATA
				ev.Content = string(t)
			} else {
				ev.Kind = model.EventText
				ev.Content = string(raw)
			}
		case xml.Comment:
			ev.Kind = model.EventComment
			ev.Content = string(t)
		case xml.ProcInst:
			if t.Target == "xml" {
				ev.Kind = model.EventXMLDeclaration
				ev.Content = string(t.Inst)
			} else {
				ev.Kind = model.EventProcessingInstruction
				ev.Name = t.Target
				ev.Content = string(t.Inst)
			}
		case xml.Directive:
			if !strings.HasPrefix(strings.ToUpper(string(t)), "DOCTYPE") {
				continue
			}
			ev.Kind = model.EventDocType
			ev.Content = strings.TrimSpace(string(t)[len("DOCTYPE"):])
		default:
			continue
		}

		if err := sink.Emit(ev); err != nil {
			return err
		}
	}

	if len(open) > 0 {
		line, col := pos.position()
		return fail(line, col, fmt.Errorf("element <%s> is never closed", open[len(open)-1]))
	}
	return nil
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func xmlAttributes(attrs []xml.Attr) []model.Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]model.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, model.Attribute{Name: qualifiedName(attr.Name), Value: attr.Value})
	}
	return out
}
