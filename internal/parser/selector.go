package parser

import (
	"strings"

	"github.com/goliatone/go-tplengine/pkg/model"
	pkgparser "github.com/goliatone/go-tplengine/pkg/parser"
)

// fragmentAttributes name the attributes a bare selector is matched against.
var fragmentAttributes = []string{"fragment", "th:fragment", "data-fragment"}

type selector struct {
	raw   string
	id    string
	class string
	attr  string
	value string
	has   bool
	tag   string
}

func compileSelector(raw string) selector {
	trimmed := strings.TrimSpace(raw)
	sel := selector{raw: trimmed}
	switch {
	case strings.HasPrefix(trimmed, "#"):
		sel.id = trimmed[1:]
	case strings.HasPrefix(trimmed, "."):
		sel.class = trimmed[1:]
	case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
		body := trimmed[1 : len(trimmed)-1]
		if name, value, ok := strings.Cut(body, "="); ok {
			sel.attr = strings.TrimSpace(name)
			sel.value = strings.Trim(strings.TrimSpace(value), `"'`)
			sel.has = true
		} else {
			sel.attr = strings.TrimSpace(body)
		}
	default:
		sel.tag = trimmed
	}
	return sel
}

func (s selector) matches(ev model.Event) bool {
	switch {
	case s.id != "":
		value, ok := ev.Attr("id")
		return ok && value == s.id
	case s.class != "":
		value, ok := ev.Attr("class")
		if !ok {
			return false
		}
		for _, class := range strings.Fields(value) {
			if class == s.class {
				return true
			}
		}
		return false
	case s.attr != "":
		value, ok := ev.Attr(s.attr)
		if !ok {
			return false
		}
		return !s.has || value == s.value
	}
	if strings.EqualFold(ev.Name, s.tag) {
		return true
	}
	for _, attrName := range fragmentAttributes {
		if value, ok := ev.Attr(attrName); ok && fragmentName(value) == s.tag {
			return true
		}
	}
	return false
}

// fragmentName strips a parameter list: "card(title)" -> "card".
func fragmentName(value string) string {
	name, _, _ := strings.Cut(value, "(")
	return strings.TrimSpace(name)
}

// selectingSink forwards only the events inside elements matching any
// selector. Template start/end events always pass.
type selectingSink struct {
	next      pkgparser.Sink
	selectors []selector
	open      []string
}

func withSelectors(next pkgparser.Sink, selectors []string) pkgparser.Sink {
	if len(selectors) == 0 {
		return next
	}
	compiled := make([]selector, 0, len(selectors))
	for _, raw := range selectors {
		compiled = append(compiled, compileSelector(raw))
	}
	return &selectingSink{next: next, selectors: compiled}
}

func (s *selectingSink) Emit(ev model.Event) error {
	switch ev.Kind {
	case model.EventTemplateStart, model.EventTemplateEnd:
		return s.next.Emit(ev)
	}

	if len(s.open) > 0 {
		switch ev.Kind {
		case model.EventOpenElement:
			s.open = append(s.open, ev.Name)
		case model.EventCloseElement:
			s.closeElement(ev.Name)
		}
		return s.next.Emit(ev)
	}

	switch ev.Kind {
	case model.EventOpenElement:
		if s.match(ev) {
			s.open = append(s.open, ev.Name)
			return s.next.Emit(ev)
		}
	case model.EventStandaloneElement:
		if s.match(ev) {
			return s.next.Emit(ev)
		}
	}
	return nil
}

func (s *selectingSink) match(ev model.Event) bool {
	for _, sel := range s.selectors {
		if sel.matches(ev) {
			return true
		}
	}
	return false
}

// closeElement pops the stack down to the innermost element named name.
// Closing tags with no matching open element are ignored.
func (s *selectingSink) closeElement(name string) {
	for i := len(s.open) - 1; i >= 0; i-- {
		if strings.EqualFold(s.open[i], name) {
			s.open = s.open[:i]
			return
		}
	}
}
