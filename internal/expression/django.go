package expression

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"
)

// FilterFunc is a filter usable from Django style expressions.
type FilterFunc func(input any, param any) (any, error)

// DjangoOption configures a Django evaluator before construction.
type DjangoOption func(*djangoConfig)

type djangoConfig struct {
	globals map[string]any
	filters map[string]FilterFunc
}

// WithGlobals seeds values visible to every expression. Call variables
// shadow globals with the same name.
func WithGlobals(data map[string]any) DjangoOption {
	return func(cfg *djangoConfig) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// WithFilter registers a filter. Filters live in a process wide registry;
// the first registration of a name wins.
func WithFilter(name string, fn FilterFunc) DjangoOption {
	return func(cfg *djangoConfig) {
		name = strings.TrimSpace(name)
		if name == "" || fn == nil {
			return
		}
		if cfg.filters == nil {
			cfg.filters = make(map[string]FilterFunc)
		}
		cfg.filters[name] = fn
	}
}

// Django evaluates expressions in the Django template dialect through
// pongo2, e.g. `name|upper` or `items|join:", "`. Results are always
// strings. Compiled expressions are cached like Evaluator does.
type Django struct {
	set *pongo2.TemplateSet

	mu        sync.RWMutex
	templates map[string]*pongo2.Template
}

// NewDjango constructs a Django evaluator.
func NewDjango(options ...DjangoOption) (*Django, error) {
	cfg := &djangoConfig{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	loader, err := pongo2.NewLocalFileSystemLoader("")
	if err != nil {
		return nil, fmt.Errorf("django: create loader: %w", err)
	}
	d := &Django{
		set:       pongo2.NewSet("tplengine", loader),
		templates: make(map[string]*pongo2.Template),
	}
	registerDefaultFilters()
	for name, fn := range cfg.filters {
		if err := registerFilter(name, fn); err != nil {
			return nil, fmt.Errorf("django: register filter %q: %w", name, err)
		}
	}
	if len(cfg.globals) > 0 {
		globals, err := toContext(cfg.globals)
		if err != nil {
			return nil, fmt.Errorf("django: globals: %w", err)
		}
		d.set.Globals.Update(globals)
	}
	return d, nil
}

// Eval renders expression against env.
func (d *Django) Eval(expression string, env map[string]any) (any, error) {
	tmpl, err := d.compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	ctx, err := toContext(env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expression, err)
	}
	out, err := tmpl.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expression, err)
	}
	return out, nil
}

// Len returns the number of cached templates.
func (d *Django) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.templates)
}

func (d *Django) compile(expression string) (*pongo2.Template, error) {
	d.mu.RLock()
	if tmpl, ok := d.templates[expression]; ok {
		d.mu.RUnlock()
		return tmpl, nil
	}
	d.mu.RUnlock()

	// Only a single output expression is allowed, no tags.
	for _, marker := range []string{"{{", "}}", "{%", "%}", "{#", "#}"} {
		if strings.Contains(expression, marker) {
			return nil, fmt.Errorf("unexpected %q in expression", marker)
		}
	}
	tmpl, err := d.set.FromString("{% autoescape off %}{{ " + expression + " }}{% endautoescape %}")
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.templates[expression]; ok {
		return existing, nil
	}
	d.templates[expression] = tmpl
	return tmpl, nil
}

func registerFilter(name string, fn FilterFunc) error {
	if pongo2.FilterExists(name) {
		return nil
	}
	return pongo2.RegisterFilter(name, func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

var defaultFiltersOnce sync.Once

func registerDefaultFilters() {
	defaultFiltersOnce.Do(func() {
		if !pongo2.FilterExists("trim") {
			_ = pongo2.RegisterFilter("trim", filterTrim)
		}
		if !pongo2.FilterExists("lowerfirst") {
			_ = pongo2.RegisterFilter("lowerfirst", filterLowerFirst)
		}
	})
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterLowerFirst(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	text := in.String()
	trimmed := strings.TrimLeft(text, " \t\r\n")
	if trimmed == "" {
		return pongo2.AsValue(text), nil
	}
	r, size := utf8.DecodeRuneInString(trimmed)
	prefix := text[:len(text)-len(trimmed)]
	return pongo2.AsValue(prefix + strings.ToLower(string(r)) + trimmed[size:]), nil
}

// toContext copies env into a pongo2 context. Structs are flattened to maps
// through their JSON form so templates see the same field names as JSON
// clients do; other values are passed through.
func toContext(env map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(env))
	for key, value := range env {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		converted, err := convertValue(value)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", key, err)
		}
		out[key] = converted
	}
	return out, nil
}

func convertValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			converted, err := convertValue(item)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			converted, err := convertValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return value, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	if decoded == nil {
		return nil, errors.New("struct encoded to null")
	}
	return decoded, nil
}
