package testsupport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/pipeline"
	"github.com/goliatone/go-tplengine/pkg/resolver"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// CountingResolver serves in-memory templates and counts resolutions per
// name.
type CountingResolver struct {
	Label     string
	Templates map[string]string
	Mode      template.Mode
	Validity  template.Validity

	mu    sync.Mutex
	calls map[string]int
	total atomic.Int64
}

var _ resolver.Resolver = (*CountingResolver)(nil)

// NewCountingResolver resolves templates as HTML with AlwaysValid validity.
func NewCountingResolver(templates map[string]string) *CountingResolver {
	return &CountingResolver{
		Label:     "counting",
		Templates: templates,
		Mode:      template.ModeHTML,
		Validity:  template.AlwaysValid,
	}
}

func (r *CountingResolver) Name() string {
	return r.Label
}

func (r *CountingResolver) Resolve(_ context.Context, req resolver.Request) (*template.Resolution, error) {
	r.total.Add(1)
	r.mu.Lock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[req.Name]++
	r.mu.Unlock()

	content, ok := r.Templates[req.Name]
	if !ok {
		return nil, nil
	}
	return &template.Resolution{
		Resource: template.NewStringResource(req.Name, content),
		Mode:     r.Mode,
		Validity: r.Validity,
	}, nil
}

// Calls returns how often name was resolved.
func (r *CountingResolver) Calls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

// Total returns the number of Resolve calls.
func (r *CountingResolver) Total() int {
	return int(r.total.Load())
}

// Recorder collects stage invocations in order. It is shared by the stages
// of a test.
type Recorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *Recorder) record(entry string) {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

// Reset drops recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// RecordingFactory creates pass-through stages that record their name for
// every event they handle.
func RecordingFactory(name string, rec *Recorder) pipeline.Factory {
	return pipeline.NewFactory(name, func() (pipeline.Handler, error) {
		return pipeline.HandlerFunc(func(ev model.Event, emit pipeline.Emit) error {
			rec.record(name)
			return emit(ev)
		}), nil
	})
}

// RecordingOutputFactory creates outputs that record their name per event and
// write text content to the destination.
func RecordingOutputFactory(name string, rec *Recorder) pipeline.OutputFactory {
	return pipeline.NewOutputFactory(name, func(w io.Writer) (pipeline.Output, error) {
		return &recordingOutput{name: name, rec: rec, w: w}, nil
	})
}

type recordingOutput struct {
	name string
	rec  *Recorder
	w    io.Writer
}

func (o *recordingOutput) Bind(*pipeline.EngineContext) error {
	return nil
}

func (o *recordingOutput) Write(ev model.Event) error {
	o.rec.record(o.name)
	if ev.Kind == model.EventText {
		_, err := io.WriteString(o.w, ev.Content)
		return err
	}
	return nil
}

func (o *recordingOutput) Flush() error {
	return nil
}

// FailingFactory always fails to instantiate its stage.
func FailingFactory(name string, err error) pipeline.Factory {
	return pipeline.NewFactory(name, func() (pipeline.Handler, error) {
		return nil, err
	})
}

// FailOnEvent creates stages that fail with err when they see an event of
// kind.
func FailOnEvent(name string, kind model.EventKind, err error) pipeline.Factory {
	return pipeline.NewFactory(name, func() (pipeline.Handler, error) {
		return pipeline.HandlerFunc(func(ev model.Event, emit pipeline.Emit) error {
			if ev.Kind == kind {
				return fmt.Errorf("%s: %w", name, err)
			}
			return emit(ev)
		}), nil
	})
}

// PanicOnEvent creates stages that panic when they see an event of kind.
func PanicOnEvent(name string, kind model.EventKind) pipeline.Factory {
	return pipeline.NewFactory(name, func() (pipeline.Handler, error) {
		return pipeline.HandlerFunc(func(ev model.Event, emit pipeline.Emit) error {
			if ev.Kind == kind {
				panic(name + ": " + kind.String())
			}
			return emit(ev)
		}), nil
	})
}
