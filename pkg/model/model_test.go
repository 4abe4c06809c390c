package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tplengine/pkg/template"
)

func sampleEvents() []Event {
	return []Event{
		{Kind: EventTemplateStart, Name: "page"},
		{Kind: EventOpenElement, Name: "p", Attributes: []Attribute{{Name: "class", Value: "lead"}}, Line: 1, Col: 1},
		{Kind: EventText, Content: "hello", Line: 1, Col: 17},
		{Kind: EventCloseElement, Name: "p", Line: 1, Col: 22},
		{Kind: EventTemplateEnd, Name: "page"},
	}
}

func TestBuilder_FreezesOnBuild(t *testing.T) {
	origin := NewOrigin()
	b := NewBuilder(origin, template.Descriptor{Name: "page", Mode: template.ModeHTML})
	for _, ev := range sampleEvents() {
		if err := b.Emit(ev); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
	m := b.Build()

	if err := b.Emit(Event{Kind: EventText, Content: "late"}); !errors.Is(err, ErrModelFrozen) {
		t.Fatalf("expected ErrModelFrozen, got %v", err)
	}
	if m.Len() != 5 {
		t.Fatalf("expected 5 events, got %d", m.Len())
	}
	if m.Origin() != origin {
		t.Fatalf("model should carry the builder origin")
	}
	if diff := cmp.Diff(sampleEvents(), m.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestModel_EventsAreCopies(t *testing.T) {
	m := New(NewOrigin(), template.Descriptor{Name: "page"}, sampleEvents())

	events := m.Events()
	events[1].Attributes[0].Value = "mutated"
	events[2].Content = "mutated"

	if got := m.At(1).Attributes[0].Value; got != "lead" {
		t.Fatalf("model attribute changed through Events: %q", got)
	}
	if got := m.At(2).Content; got != "hello" {
		t.Fatalf("model content changed through Events: %q", got)
	}
}

func TestModel_DescriptorIsACopy(t *testing.T) {
	m := New(NewOrigin(), template.Descriptor{Name: "page", Selectors: []string{"#a", "#b"}}, sampleEvents())

	descriptor := m.Descriptor()
	descriptor.Selectors[0] = "#mutated"

	if diff := cmp.Diff([]string{"#a", "#b"}, m.Descriptor().Selectors); diff != "" {
		t.Fatalf("selectors changed through Descriptor (-want +got):\n%s", diff)
	}
}

func TestModel_EachStopsOnError(t *testing.T) {
	m := New(NewOrigin(), template.Descriptor{Name: "page"}, sampleEvents())
	boom := errors.New("boom")

	seen := 0
	err := m.Each(func(ev Event) error {
		seen++
		if ev.Kind == EventText {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if seen != 3 {
		t.Fatalf("expected iteration to stop at the third event, saw %d", seen)
	}
}

func TestModel_Rebind(t *testing.T) {
	unbound := New(Origin{}, template.Descriptor{Name: "remote"}, sampleEvents())
	origin := NewOrigin()

	bound := unbound.Rebind(origin)
	if bound.Origin() != origin {
		t.Fatalf("expected rebound model to carry the new origin")
	}
	if !unbound.Origin().IsZero() {
		t.Fatalf("rebinding must not modify the original model")
	}
	if again := bound.Rebind(NewOrigin()); again != bound {
		t.Fatalf("bound models must not be rebound")
	}
}

func TestOrigin_Unique(t *testing.T) {
	a, b := NewOrigin(), NewOrigin()
	if a == b || a.IsZero() || b.IsZero() {
		t.Fatalf("origins should be unique and non-zero: %v %v", a, b)
	}
}

func TestEventKind_RoundTrip(t *testing.T) {
	for kind := EventTemplateStart; kind <= EventStandaloneElement; kind++ {
		parsed, ok := ParseEventKind(kind.String())
		if !ok || parsed != kind {
			t.Fatalf("round trip failed for %s", kind)
		}
	}
	if _, ok := ParseEventKind("bogus"); ok {
		t.Fatalf("unexpected kind for bogus name")
	}
}

func TestEvent_Attr(t *testing.T) {
	ev := Event{Kind: EventStandaloneElement, Name: "input", Attributes: []Attribute{
		{Name: "type", Value: "checkbox"},
		{Name: "checked", NoValue: true},
	}}
	if v, ok := ev.Attr("type"); !ok || v != "checkbox" {
		t.Fatalf("unexpected type attribute %q %v", v, ok)
	}
	if _, ok := ev.Attr("name"); ok {
		t.Fatalf("unexpected name attribute")
	}
	if !ev.IsElement() {
		t.Fatalf("standalone element should be an element")
	}
}
