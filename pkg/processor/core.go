package processor

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-tplengine/internal/expression"
	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/pipeline"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// CoreName is the stage name of the default core processor.
const CoreName = "core"

// Evaluator runs inline expressions.
type Evaluator interface {
	Eval(expression string, env map[string]any) (any, error)
}

// Core evaluates inline expressions found in text events: [[expr]] output is
// escaped for the template mode, [(expr)] output is written as is. RAW
// templates are forwarded untouched.
type Core struct {
	eval Evaluator
	ec   *pipeline.EngineContext
}

// NewCoreFactory returns a factory creating core processors that share eval.
// A nil eval gets a private program cache.
func NewCoreFactory(eval Evaluator) pipeline.Factory {
	if eval == nil {
		eval = expression.New()
	}
	return pipeline.NewFactory(CoreName, func() (pipeline.Handler, error) {
		return &Core{eval: eval}, nil
	})
}

// Bind attaches the call context.
func (c *Core) Bind(ec *pipeline.EngineContext) error {
	c.ec = ec
	return nil
}

// Handle rewrites text events and forwards everything else.
func (c *Core) Handle(ev model.Event, emit pipeline.Emit) error {
	if ev.Kind != model.EventText || c.ec.Mode() == template.ModeRaw {
		return emit(ev)
	}
	if !strings.Contains(ev.Content, "[[") && !strings.Contains(ev.Content, "[(") {
		return emit(ev)
	}
	content, err := c.inline(ev.Content)
	if err != nil {
		return fmt.Errorf("processor: template %q (line %d, col %d): %w", c.ec.TemplateName(), ev.Line, ev.Col, err)
	}
	ev.Content = content
	return emit(ev)
}

func (c *Core) inline(text string) (string, error) {
	var (
		out strings.Builder
		env map[string]any
	)
	for {
		start, closer, escaped := nextInline(text)
		if start < 0 {
			out.WriteString(text)
			return out.String(), nil
		}
		end := strings.Index(text[start+2:], closer)
		if end < 0 {
			out.WriteString(text)
			return out.String(), nil
		}
		out.WriteString(text[:start])
		source := strings.TrimSpace(text[start+2 : start+2+end])

		if env == nil {
			env = c.environment()
		}
		value, err := c.eval.Eval(source, env)
		if err != nil {
			return "", err
		}
		out.WriteString(render(value, c.ec.Mode(), escaped))
		text = text[start+2+end+len(closer):]
	}
}

func (c *Core) environment() map[string]any {
	env := c.ec.Variables()
	if _, ok := env["locale"]; !ok && c.ec.Locale() != "" {
		env["locale"] = c.ec.Locale()
	}
	return env
}

// nextInline finds the earliest inline expression opener.
func nextInline(text string) (int, string, bool) {
	escaped := strings.Index(text, "[[")
	unescaped := strings.Index(text, "[(")
	switch {
	case escaped < 0 && unescaped < 0:
		return -1, "", false
	case unescaped < 0 || (escaped >= 0 && escaped < unescaped):
		return escaped, "]]", true
	default:
		return unescaped, ")]", false
	}
}

func render(value any, mode template.Mode, escaped bool) string {
	if mode == template.ModeJavaScript && escaped {
		encoded, err := json.Marshal(value)
		if err != nil {
			return "null"
		}
		return string(encoded)
	}
	if value == nil {
		return ""
	}
	text := fmt.Sprint(value)
	if !escaped {
		return text
	}
	switch mode {
	case template.ModeHTML, template.ModeXML:
		return html.EscapeString(text)
	case template.ModeCSS:
		return escapeCSS(text)
	default:
		return text
	}
}

func escapeCSS(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r > 0x7f:
			b.WriteRune(r)
		case r == ' ':
			b.WriteString(`\ `)
		default:
			fmt.Fprintf(&b, `\%x `, r)
		}
	}
	return b.String()
}
