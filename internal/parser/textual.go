package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/goliatone/go-tplengine/pkg/model"
	pkgparser "github.com/goliatone/go-tplengine/pkg/parser"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// Textual parses the TEXT, JAVASCRIPT and CSS grammars. Elements are written
// as [#name attr="v"]...[/name] (or [/]) and [#name/]; in JAVASCRIPT and CSS
// they may also be wrapped in comments, /*[#name]*/ ... /*[/]*/, so templates
// stay valid scripts. Inline expressions [[...]] and [(...)] are plain text
// for the parser.
type Textual struct {
	Mode template.Mode
}

var _ pkgparser.Parser = Textual{}

// ParseStandalone reads the resource and scans it.
func (p Textual) ParseStandalone(ctx context.Context, req pkgparser.StandaloneRequest, sink pkgparser.Sink) error {
	data, err := readResource(ctx, req)
	if err != nil {
		return err
	}
	out := withSelectors(sink, req.Selectors)
	return document(out, req.Template, func() error {
		return p.scan(string(data), req.Template, newTracker(0, 0), out)
	})
}

// ParseString scans an inline fragment.
func (p Textual) ParseString(req pkgparser.StringRequest, sink pkgparser.Sink) error {
	return document(sink, req.Template, func() error {
		return p.scan(req.Content, req.Template, newTracker(req.Line, req.Col), sink)
	})
}

func (p Textual) commentWrapped() bool {
	return p.Mode == template.ModeJavaScript || p.Mode == template.ModeCSS
}

func (p Textual) scan(src, name string, pos *tracker, sink pkgparser.Sink) error {
	var open []string
	fail := func(line, col int, err error) error {
		return &pkgparser.ParseError{Template: name, Line: line, Col: col, Err: err}
	}
	emitText := func(text string) error {
		if text == "" {
			return nil
		}
		line, col := pos.position()
		pos.advanceString(text)
		return sink.Emit(model.Event{Kind: model.EventText, Content: text, Line: line, Col: col})
	}

	textStart := 0
	i := 0
	for i < len(src) {
		if skip := inlineExpressionEnd(src, i); skip > i {
			i = skip
			continue
		}
		wrapped, ok := p.tagAt(src, i)
		if !ok {
			i++
			continue
		}

		if err := emitText(src[textStart:i]); err != nil {
			return err
		}

		bodyStart := i + 1
		closer := "]"
		if wrapped {
			bodyStart = i + 3
			closer = "]*/"
		}
		line, col := pos.position()
		end := strings.Index(src[bodyStart:], closer)
		if end < 0 {
			return fail(line, col, errors.New("unterminated element tag"))
		}
		body := src[bodyStart : bodyStart+end]
		next := bodyStart + end + len(closer)
		pos.advanceString(src[i:next])

		ev, err := parseTextualTag(body)
		if err != nil {
			return fail(line, col, err)
		}
		ev.Line, ev.Col = line, col

		switch ev.Kind {
		case model.EventOpenElement:
			open = append(open, ev.Name)
		case model.EventCloseElement:
			if len(open) == 0 {
				return fail(line, col, fmt.Errorf("unexpected closing tag [/%s]", ev.Name))
			}
			top := open[len(open)-1]
			if ev.Name == "" {
				ev.Name = top
			} else if ev.Name != top {
				return fail(line, col, fmt.Errorf("element [#%s] closed by [/%s]", top, ev.Name))
			}
			open = open[:len(open)-1]
		}
		if err := sink.Emit(ev); err != nil {
			return err
		}

		i = next
		textStart = next
	}

	if err := emitText(src[textStart:]); err != nil {
		return err
	}
	if len(open) > 0 {
		line, col := pos.position()
		return fail(line, col, fmt.Errorf("element [#%s] is never closed", open[len(open)-1]))
	}
	return nil
}

// tagAt reports whether an element tag starts at i and whether it is
// comment-wrapped.
func (p Textual) tagAt(src string, i int) (bool, bool) {
	rest := src[i:]
	if strings.HasPrefix(rest, "[#") || strings.HasPrefix(rest, "[/") {
		return false, true
	}
	if p.commentWrapped() && (strings.HasPrefix(rest, "/*[#") || strings.HasPrefix(rest, "/*[/")) {
		return true, true
	}
	return false, false
}

// inlineExpressionEnd returns the index just past an inline expression
// starting at i, or i when there is none.
func inlineExpressionEnd(src string, i int) int {
	rest := src[i:]
	var closer string
	switch {
	case strings.HasPrefix(rest, "[["):
		closer = "]]"
	case strings.HasPrefix(rest, "[("):
		closer = ")]"
	default:
		return i
	}
	end := strings.Index(rest[2:], closer)
	if end < 0 {
		return i
	}
	return i + 2 + end + len(closer)
}

func parseTextualTag(body string) (model.Event, error) {
	if strings.HasPrefix(body, "/") {
		return model.Event{Kind: model.EventCloseElement, Name: strings.TrimSpace(body[1:])}, nil
	}
	inner := strings.TrimSpace(body[1:])
	kind := model.EventOpenElement
	if strings.HasSuffix(inner, "/") {
		kind = model.EventStandaloneElement
		inner = strings.TrimSpace(strings.TrimSuffix(inner, "/"))
	}
	nameEnd := strings.IndexFunc(inner, unicode.IsSpace)
	name, rest := inner, ""
	if nameEnd >= 0 {
		name, rest = inner[:nameEnd], inner[nameEnd:]
	}
	if name == "" {
		return model.Event{}, errors.New("element tag without name")
	}
	attrs, err := parseTextualAttributes(rest)
	if err != nil {
		return model.Event{}, err
	}
	return model.Event{Kind: kind, Name: name, Attributes: attrs, Minimized: kind == model.EventStandaloneElement}, nil
}

func parseTextualAttributes(src string) ([]model.Attribute, error) {
	var attrs []model.Attribute
	i := 0
	for {
		for i < len(src) && unicode.IsSpace(rune(src[i])) {
			i++
		}
		if i >= len(src) {
			return attrs, nil
		}
		start := i
		for i < len(src) && src[i] != '=' && !unicode.IsSpace(rune(src[i])) {
			i++
		}
		name := src[start:i]
		if i >= len(src) || src[i] != '=' {
			attrs = append(attrs, model.Attribute{Name: name, NoValue: true})
			continue
		}
		i++
		if i >= len(src) {
			return nil, fmt.Errorf("attribute %q has no value", name)
		}
		var value string
		if quote := src[i]; quote == '"' || quote == '\'' {
			end := strings.IndexByte(src[i+1:], quote)
			if end < 0 {
				return nil, fmt.Errorf("attribute %q has an unterminated value", name)
			}
			value = src[i+1 : i+1+end]
			i += end + 2
		} else {
			start := i
			for i < len(src) && !unicode.IsSpace(rune(src[i])) {
				i++
			}
			value = src[start:i]
		}
		attrs = append(attrs, model.Attribute{Name: name, Value: value})
	}
}
