package engine_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tplengine/internal/expression"
	internalParser "github.com/goliatone/go-tplengine/internal/parser"
	"github.com/goliatone/go-tplengine/pkg/cache"
	"github.com/goliatone/go-tplengine/pkg/engine"
	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/parser"
	"github.com/goliatone/go-tplengine/pkg/pipeline"
	"github.com/goliatone/go-tplengine/pkg/resolver"
	"github.com/goliatone/go-tplengine/pkg/template"
	"github.com/goliatone/go-tplengine/pkg/testsupport"
)

func newEngine(t *testing.T, options ...engine.Option) *engine.Engine {
	t.Helper()

	eng, err := engine.New(options...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return eng
}

func ref(name string, selectors ...string) template.Reference {
	return template.Reference{Name: name, Selectors: selectors}
}

// countingParser counts ParseStandalone calls before delegating.
type countingParser struct {
	inner parser.Parser
	calls atomic.Int64
}

func (p *countingParser) ParseStandalone(ctx context.Context, req parser.StandaloneRequest, sink parser.Sink) error {
	p.calls.Add(1)
	return p.inner.ParseStandalone(ctx, req, sink)
}

func (p *countingParser) ParseString(req parser.StringRequest, sink parser.Sink) error {
	return p.inner.ParseString(req, sink)
}

func TestParseStandaloneReturnsCachedModel(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"page": "<p>[[name]]</p>"})
	store := cache.NewMemory(cache.MemoryConfig{})
	eng := newEngine(t, engine.WithResolvers(res), engine.WithCache(store))
	ctx := context.Background()

	first, err := eng.ParseStandalone(ctx, engine.Context{}, ref("page"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}
	second, err := eng.ParseStandalone(ctx, engine.Context{}, ref("page"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}

	if first != second {
		t.Fatalf("expected the cached model instance on the second call")
	}
	if res.Calls("page") != 1 {
		t.Fatalf("expected a single resolution, got %d", res.Calls("page"))
	}
	if store.Len() != 1 {
		t.Fatalf("expected one cache entry, got %d", store.Len())
	}
	if first.Origin() != eng.Origin() {
		t.Fatalf("model must carry the engine origin")
	}
}

func TestParseStandaloneSelectorOrderSharesEntry(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{
		"page": `<div id="a">A</div><div id="b">B</div><div id="c">C</div>`,
	})
	store := cache.NewMemory(cache.MemoryConfig{})
	eng := newEngine(t, engine.WithResolvers(res), engine.WithCache(store))
	ctx := context.Background()

	first, err := eng.ParseStandalone(ctx, engine.Context{}, ref("page", "#a", "#b"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}
	second, err := eng.ParseStandalone(ctx, engine.Context{}, ref("page", "#b", "#a", "#a"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}
	if first != second || res.Calls("page") != 1 {
		t.Fatalf("selector order must not change the cache entry (calls=%d)", res.Calls("page"))
	}

	whole, err := eng.ParseStandalone(ctx, engine.Context{}, ref("page"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}
	if whole == first {
		t.Fatalf("selected and unselected templates must not share an entry")
	}
	if diff := cmp.Diff([]string{"#a", "#b"}, first.Descriptor().Selectors); diff != "" {
		t.Fatalf("selectors mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(strings.Join(testsupport.Summarize(first.Events()), "\n"), `"C"`) {
		t.Fatalf("unselected fragment leaked into the model")
	}

	if _, err := eng.ParseStandalone(ctx, engine.Context{}, ref("page", " "), true); !errors.Is(err, template.ErrEmptySelector) {
		t.Fatalf("expected ErrEmptySelector, got %v", err)
	}
}

func TestParseStandaloneNeverCacheableReparses(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"page": "<p>x</p>"})
	res.Validity = template.NeverCacheable
	store := cache.NewMemory(cache.MemoryConfig{})
	eng := newEngine(t, engine.WithResolvers(res), engine.WithCache(store))
	ctx := context.Background()

	first, err := eng.ParseStandalone(ctx, engine.Context{}, ref("page"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}
	second, err := eng.ParseStandalone(ctx, engine.Context{}, ref("page"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct model instances")
	}
	if res.Calls("page") != 2 || store.Len() != 0 {
		t.Fatalf("expected two resolutions and an empty cache, got %d calls and %d entries", res.Calls("page"), store.Len())
	}
}

func TestParseStandaloneWithoutCacheFlag(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"page": "<p>x</p>"})
	store := cache.NewMemory(cache.MemoryConfig{})
	eng := newEngine(t, engine.WithResolvers(res), engine.WithCache(store))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		m, err := eng.ParseStandalone(ctx, engine.Context{}, ref("page"), false)
		if err != nil {
			t.Fatalf("ParseStandalone: %v", err)
		}
		if m.Descriptor().Cacheable() {
			t.Fatalf("descriptor must be forced to never cacheable")
		}
	}
	if res.Calls("page") != 2 || store.Len() != 0 {
		t.Fatalf("cache must be bypassed, got %d calls and %d entries", res.Calls("page"), store.Len())
	}
}

func TestParseStandaloneForcedMode(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"notes": "<b>[[x]]</b>"})
	eng := newEngine(t, engine.WithResolvers(res))

	m, err := eng.ParseStandalone(context.Background(), engine.Context{},
		template.Reference{Name: "notes", Mode: template.ModeRaw}, true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}
	if m.Descriptor().Mode != template.ModeRaw {
		t.Fatalf("expected forced RAW mode, got %s", m.Descriptor().Mode)
	}
	if m.Len() != 3 {
		t.Fatalf("expected a single text event between start and end, got %d events", m.Len())
	}
}

func TestParseStringFragmentOffsets(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"A": "<p>a</p>"})
	store := cache.NewMemory(cache.MemoryConfig{})
	eng := newEngine(t, engine.WithResolvers(res), engine.WithCache(store))

	owner, err := eng.ParseStandalone(context.Background(), engine.Context{}, ref("A"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}

	at10, err := eng.ParseString(owner.Descriptor(), "<i>x</i>", 10, 0, "", true)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	at20, err := eng.ParseString(owner.Descriptor(), "<i>x</i>", 20, 0, "", true)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if at10 == at20 {
		t.Fatalf("fragments at different offsets must be distinct")
	}
	if store.Len() != 3 {
		t.Fatalf("expected owner plus two fragment entries, got %d", store.Len())
	}
	if at10.At(1).Line != 11 || at20.At(1).Line != 21 {
		t.Fatalf("expected owner-relative lines 11 and 21, got %d and %d", at10.At(1).Line, at20.At(1).Line)
	}

	again, err := eng.ParseString(owner.Descriptor(), "<i>x</i>", 10, 0, "", true)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if again != at10 {
		t.Fatalf("expected cached fragment on repeated call")
	}
	if at10.Descriptor().Name != "A" || at10.Descriptor().Resource != owner.Descriptor().Resource {
		t.Fatalf("fragment must report the owner template")
	}
}

func TestParseStringModeAndValidity(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"A": "<p>a</p>"})
	store := cache.NewMemory(cache.MemoryConfig{})
	eng := newEngine(t, engine.WithResolvers(res), engine.WithCache(store))

	owner, err := eng.ParseStandalone(context.Background(), engine.Context{}, ref("A"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}

	script, err := eng.ParseString(owner.Descriptor(), "var a = [[x]];", 3, 8, template.ModeJavaScript, true)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if got := script.Descriptor(); got.Mode != template.ModeJavaScript || got.Name != "A" || !got.Cacheable() {
		t.Fatalf("unexpected fragment descriptor %s/%s cacheable=%v", got.Name, got.Mode, got.Cacheable())
	}

	uncached, err := eng.ParseString(owner.Descriptor(), "<b>y</b>", 1, 1, "", false)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if got := uncached.Descriptor(); got.Mode != template.ModeHTML || !got.Cacheable() {
		t.Fatalf("same-mode fragment should keep the owner descriptor, got %s cacheable=%v", got.Mode, got.Cacheable())
	}

	uncachedScript, err := eng.ParseString(owner.Descriptor(), "var b;", 2, 1, template.ModeJavaScript, false)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if uncachedScript.Descriptor().Cacheable() {
		t.Fatalf("mode-changed fragment parsed without cache must not be cacheable")
	}
	if store.Len() != 2 {
		t.Fatalf("expected owner and script fragment entries, got %d", store.Len())
	}

	if _, err := eng.ParseString(owner.Descriptor(), "x", 0, 0, template.Mode("PDF"), true); !errors.Is(err, parser.ErrUnsupportedMode) {
		t.Fatalf("expected ErrUnsupportedMode, got %v", err)
	}
}

func TestParseStringNeverCacheableOwner(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"A": "<p>a</p>"})
	res.Validity = template.NeverCacheable
	store := cache.NewMemory(cache.MemoryConfig{})
	eng := newEngine(t, engine.WithResolvers(res), engine.WithCache(store))

	owner, err := eng.ParseStandalone(context.Background(), engine.Context{}, ref("A"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}
	first, _ := eng.ParseString(owner.Descriptor(), "<i>x</i>", 1, 0, "", true)
	second, _ := eng.ParseString(owner.Descriptor(), "<i>x</i>", 1, 0, "", true)
	if first == nil || first == second || store.Len() != 0 {
		t.Fatalf("fragments of non-cacheable owners must never be cached")
	}
}

func TestClearCachesForScope(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"A": "<p>a</p>", "B": "<p>b</p>"})
	store := cache.NewMemory(cache.MemoryConfig{})
	eng := newEngine(t, engine.WithResolvers(res), engine.WithCache(store))
	ctx := context.Background()

	for _, name := range []string{"A", "B"} {
		m, err := eng.ParseStandalone(ctx, engine.Context{}, ref(name), true)
		if err != nil {
			t.Fatalf("ParseStandalone(%s): %v", name, err)
		}
		if _, err := eng.ParseString(m.Descriptor(), "<i>f</i>", 2, 0, "", true); err != nil {
			t.Fatalf("ParseString(%s): %v", name, err)
		}
		if _, err := eng.ParseStandalone(ctx, engine.Context{}, ref(name, "p"), true); err != nil {
			t.Fatalf("ParseStandalone(%s, p): %v", name, err)
		}
	}
	if store.Len() != 6 {
		t.Fatalf("expected six entries, got %d", store.Len())
	}

	eng.ClearCachesFor("A")

	if store.Len() != 3 {
		t.Fatalf("expected three entries left, got %d", store.Len())
	}
	for _, key := range store.Keys() {
		if key.Owner == "A" || key.Template == "A" {
			t.Fatalf("entry %s should have been cleared", key)
		}
	}

	eng.ClearCaches()
	if store.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", store.Len())
	}
}

func TestProcessRunsStagesInOrder(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"t": "x"})
	res.Mode = template.ModeText
	rec := &testsupport.Recorder{}
	eng := newEngine(t,
		engine.WithResolvers(res),
		engine.WithPreProcessor(testsupport.RecordingFactory("P1", rec)),
		engine.WithPreProcessor(testsupport.RecordingFactory("P2", rec), template.ModeText),
		engine.WithPreProcessor(testsupport.RecordingFactory("html-only", rec), template.ModeHTML),
		engine.WithCore(testsupport.RecordingFactory("core", rec)),
		engine.WithPostProcessor(testsupport.RecordingFactory("Q1", rec)),
		engine.WithOutput(testsupport.RecordingOutputFactory("output", rec)),
	)

	if diff := cmp.Diff([]string{"P1", "P2", "core", "Q1", "output"}, eng.Stages(template.ModeText)); diff != "" {
		t.Fatalf("stages mismatch (-want +got):\n%s", diff)
	}

	m, err := eng.ParseStandalone(context.Background(), engine.Context{}, ref("t"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}
	var buf bytes.Buffer
	if err := eng.Process(context.Background(), m, engine.Context{}, &buf); err != nil {
		t.Fatalf("Process: %v", err)
	}

	order := []string{"P1", "P2", "core", "Q1", "output"}
	var want []string
	for i := 0; i < m.Len(); i++ {
		want = append(want, order...)
	}
	if diff := cmp.Diff(want, rec.Entries()); diff != "" {
		t.Fatalf("invocation order mismatch (-want +got):\n%s", diff)
	}
	if buf.String() != "x" {
		t.Fatalf("expected output %q, got %q", "x", buf.String())
	}
}

func TestProcessDisposesContextOnCoreFailure(t *testing.T) {
	boom := errors.New("boom")
	res := testsupport.NewCountingResolver(map[string]string{"page": "<p>x</p>"})
	var disposed atomic.Int64
	eng := newEngine(t,
		engine.WithResolvers(res),
		engine.WithCore(testsupport.FailOnEvent("core", model.EventText, boom)),
		engine.WithDisposeHook(func(ec *pipeline.EngineContext) { disposed.Add(1) }),
	)

	var buf bytes.Buffer
	err := eng.ParseAndProcess(context.Background(), engine.TemplateSpec{Name: "page"}, engine.Context{}, &buf)
	if !errors.Is(err, boom) {
		t.Fatalf("expected core failure, got %v", err)
	}
	if disposed.Load() != 1 {
		t.Fatalf("expected dispose exactly once, got %d", disposed.Load())
	}
	if buf.Len() != 0 {
		t.Fatalf("failed call must not flush output, got %q", buf.String())
	}
}

func TestProcessDisposesContextOnPanic(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"page": "<p>x</p>"})
	var disposed atomic.Int64
	eng := newEngine(t,
		engine.WithResolvers(res),
		engine.WithCore(testsupport.PanicOnEvent("core", model.EventText)),
		engine.WithDisposeHook(func(*pipeline.EngineContext) { disposed.Add(1) }),
	)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = eng.ParseAndProcess(context.Background(), engine.TemplateSpec{Name: "page"}, engine.Context{}, &bytes.Buffer{})
	}()

	if disposed.Load() != 1 {
		t.Fatalf("expected dispose exactly once, got %d", disposed.Load())
	}
}

func TestProcessRejectsForeignModel(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"page": "<p>x</p>"})
	first := newEngine(t, engine.WithResolvers(res))
	prepared := 0
	second := newEngine(t,
		engine.WithResolvers(res),
		engine.WithPrepareHook(func(*pipeline.EngineContext) { prepared++ }),
	)

	m, err := first.ParseStandalone(context.Background(), engine.Context{}, ref("page"), true)
	if err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}

	var buf bytes.Buffer
	err = second.Process(context.Background(), m, engine.Context{}, &buf)
	if !errors.Is(err, engine.ErrForeignModel) {
		t.Fatalf("expected ErrForeignModel, got %v", err)
	}
	var foreign *engine.ForeignModelError
	if !errors.As(err, &foreign) || foreign.Template != "page" {
		t.Fatalf("expected ForeignModelError naming page, got %#v", err)
	}
	if prepared != 0 || buf.Len() != 0 {
		t.Fatalf("foreign models must be rejected before processing")
	}
}

func TestSharedCacheIgnoresOtherEngineModels(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{})
	firstRes := testsupport.NewCountingResolver(map[string]string{"page": "<p>1</p>"})
	secondRes := testsupport.NewCountingResolver(map[string]string{"page": "<p>2</p>"})
	first := newEngine(t, engine.WithResolvers(firstRes), engine.WithCache(store))
	second := newEngine(t, engine.WithResolvers(secondRes), engine.WithCache(store))

	if _, err := first.ParseStandalone(context.Background(), engine.Context{}, ref("page"), true); err != nil {
		t.Fatalf("ParseStandalone: %v", err)
	}

	var buf bytes.Buffer
	if err := second.ParseAndProcess(context.Background(), engine.TemplateSpec{Name: "page"}, engine.Context{}, &buf); err != nil {
		t.Fatalf("ParseAndProcess: %v", err)
	}
	if buf.String() != "<p>2</p>" || secondRes.Calls("page") != 1 {
		t.Fatalf("expected the second engine to parse its own model, got %q", buf.String())
	}
}

func TestParseAndProcessParsesMissOnce(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"page": "<p>Hello [[name]]</p>"})
	counter := &countingParser{inner: internalParser.HTML{}}
	store := cache.NewMemory(cache.MemoryConfig{})
	eng := newEngine(t,
		engine.WithResolvers(res),
		engine.WithCache(store),
		engine.WithParser(template.ModeHTML, counter),
	)

	for i := 0; i < 3; i++ {
		var buf bytes.Buffer
		err := eng.ParseAndProcess(context.Background(), engine.TemplateSpec{Name: "page"},
			engine.Context{Variables: map[string]any{"name": "<Ada>"}}, &buf)
		if err != nil {
			t.Fatalf("ParseAndProcess: %v", err)
		}
		if want := "<p>Hello &lt;Ada&gt;</p>"; buf.String() != want {
			t.Fatalf("output mismatch: want %q, got %q", want, buf.String())
		}
	}
	if counter.calls.Load() != 1 || res.Calls("page") != 1 {
		t.Fatalf("expected one parse and one resolution, got %d and %d", counter.calls.Load(), res.Calls("page"))
	}
}

func TestParseAndProcessWithoutCache(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"page": "<p>x</p>"})
	counter := &countingParser{inner: internalParser.HTML{}}
	eng := newEngine(t, engine.WithResolvers(res), engine.WithParser(template.ModeHTML, counter))

	for i := 0; i < 2; i++ {
		if err := eng.ParseAndProcess(context.Background(), engine.TemplateSpec{Name: "page"}, engine.Context{}, &bytes.Buffer{}); err != nil {
			t.Fatalf("ParseAndProcess: %v", err)
		}
	}
	if counter.calls.Load() != 2 {
		t.Fatalf("expected one parse per call, got %d", counter.calls.Load())
	}
	if eng.Cache() != nil {
		t.Fatalf("expected caching to be disabled")
	}
}

func TestParseAndProcessPassesAttributes(t *testing.T) {
	var seen []any
	attrs := map[string]any{"tenant": "acme"}
	res := resolver.Func{
		Label: "attrs",
		Fn: func(_ context.Context, req resolver.Request) (*template.Resolution, error) {
			seen = append(seen, req.Attributes["tenant"])
			return &template.Resolution{
				Resource: template.NewStringResource(req.Name, "<p>x</p>"),
				Mode:     template.ModeHTML,
				Validity: template.AlwaysValid,
			}, nil
		},
	}
	var fromContext any
	eng := newEngine(t,
		engine.WithResolvers(res),
		engine.WithPrepareHook(func(ec *pipeline.EngineContext) { fromContext, _ = ec.Attribute("tenant") }),
	)

	err := eng.ParseAndProcess(context.Background(), engine.TemplateSpec{Name: "page", Attributes: attrs}, engine.Context{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseAndProcess: %v", err)
	}
	if diff := cmp.Diff([]any{"acme"}, seen); diff != "" {
		t.Fatalf("resolver attributes mismatch (-want +got):\n%s", diff)
	}
	if fromContext != "acme" {
		t.Fatalf("expected attributes on the engine context, got %v", fromContext)
	}
}

func TestEngineErrors(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"feed": "<a><b></a>"})
	ctx := context.Background()

	t.Run("not resolvable", func(t *testing.T) {
		eng := newEngine(t, engine.WithResolvers(res))
		_, err := eng.ParseStandalone(ctx, engine.Context{}, ref("missing"), true)
		if !errors.Is(err, resolver.ErrNotResolvable) {
			t.Fatalf("expected ErrNotResolvable, got %v", err)
		}
		if !strings.Contains(err.Error(), "counting") {
			t.Fatalf("expected tried resolvers in message, got %q", err.Error())
		}
	})

	t.Run("no resolvers", func(t *testing.T) {
		eng := newEngine(t)
		_, err := eng.ParseStandalone(ctx, engine.Context{}, ref("page"), true)
		if !errors.Is(err, resolver.ErrNotResolvable) {
			t.Fatalf("expected ErrNotResolvable, got %v", err)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		eng := newEngine(t, engine.WithResolvers(res))
		_, err := eng.ParseStandalone(ctx, engine.Context{}, template.Reference{Name: "feed", Mode: "PDF"}, true)
		if !errors.Is(err, parser.ErrUnsupportedMode) {
			t.Fatalf("expected ErrUnsupportedMode, got %v", err)
		}
	})

	t.Run("unregistered mode", func(t *testing.T) {
		eng := newEngine(t, engine.WithResolvers(res), engine.WithParserTable(parser.NewTable()))
		_, err := eng.ParseStandalone(ctx, engine.Context{}, ref("feed"), true)
		if !errors.Is(err, parser.ErrUnsupportedMode) {
			t.Fatalf("expected ErrUnsupportedMode, got %v", err)
		}
	})

	t.Run("parse error", func(t *testing.T) {
		eng := newEngine(t, engine.WithResolvers(res))
		_, err := eng.ParseStandalone(ctx, engine.Context{}, template.Reference{Name: "feed", Mode: template.ModeXML}, true)
		var parseErr *parser.ParseError
		if !errors.As(err, &parseErr) || parseErr.Template != "feed" {
			t.Fatalf("expected ParseError naming feed, got %v", err)
		}
	})

	t.Run("handler instantiation", func(t *testing.T) {
		disposed := 0
		eng := newEngine(t,
			engine.WithResolvers(testsupport.NewCountingResolver(map[string]string{"page": "<p>x</p>"})),
			engine.WithPostProcessor(testsupport.FailingFactory("broken", errors.New("nope"))),
			engine.WithDisposeHook(func(*pipeline.EngineContext) { disposed++ }),
		)
		var buf bytes.Buffer
		err := eng.ParseAndProcess(ctx, engine.TemplateSpec{Name: "page"}, engine.Context{}, &buf)
		if !errors.Is(err, pipeline.ErrHandlerInstantiation) {
			t.Fatalf("expected ErrHandlerInstantiation, got %v", err)
		}
		if buf.Len() != 0 || disposed != 1 {
			t.Fatalf("expected no output and one disposal, got %q and %d", buf.String(), disposed)
		}
	})

	t.Run("invalid registration", func(t *testing.T) {
		_, err := engine.New(engine.WithPreProcessor(testsupport.FailingFactory("x", nil), template.Mode("PDF")))
		if err == nil {
			t.Fatalf("expected registration error")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		eng := newEngine(t, engine.WithResolvers(res))
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := eng.ParseStandalone(canceled, engine.Context{}, ref("feed"), true); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		eng := newEngine(t)
		if _, err := eng.ParseStandalone(ctx, engine.Context{}, ref(""), true); err == nil {
			t.Fatalf("expected error for empty name")
		}
	})
}

func TestConcurrentMissesAreTolerated(t *testing.T) {
	res := testsupport.NewCountingResolver(map[string]string{"page": "<p>[[n]]</p>"})
	store := cache.NewMemory(cache.MemoryConfig{})
	eng := newEngine(t, engine.WithResolvers(res), engine.WithCache(store))

	const workers = 8
	var wg sync.WaitGroup
	outputs := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var buf bytes.Buffer
			errs[i] = eng.ParseAndProcess(context.Background(), engine.TemplateSpec{Name: "page"},
				engine.Context{Variables: map[string]any{"n": i}}, &buf)
			outputs[i] = buf.String()
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		want := "<p>" + string(rune('0'+i)) + "</p>"
		if outputs[i] != want {
			t.Fatalf("worker %d: want %q, got %q", i, want, outputs[i])
		}
	}
	calls := res.Calls("page")
	if calls < 1 || calls > workers {
		t.Fatalf("unexpected resolution count %d", calls)
	}
	if store.Len() != 1 {
		t.Fatalf("expected a single entry after racing writers, got %d", store.Len())
	}
}

func TestDjangoEvaluatorDialect(t *testing.T) {
	django, err := expression.NewDjango()
	if err != nil {
		t.Fatalf("NewDjango: %v", err)
	}
	res := testsupport.NewCountingResolver(map[string]string{"page": "<p>[[ name|upper ]] ([[ items|length ]])</p>"})
	eng := newEngine(t, engine.WithResolvers(res), engine.WithEvaluator(django))

	var buf bytes.Buffer
	err = eng.ParseAndProcess(context.Background(), engine.TemplateSpec{Name: "page"},
		engine.Context{Variables: map[string]any{"name": "<ada>", "items": []any{1, 2}}}, &buf)
	if err != nil {
		t.Fatalf("ParseAndProcess: %v", err)
	}
	if want := "<p>&lt;ADA&gt; (2)</p>"; buf.String() != want {
		t.Fatalf("output mismatch: want %q, got %q", want, buf.String())
	}
}
