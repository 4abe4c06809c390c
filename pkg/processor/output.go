package processor

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/pipeline"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// OutputName is the stage name of the default output.
const OutputName = "writer"

// Writer serializes events back to text in the syntax of the template mode.
// It is the only stage that touches the destination.
type Writer struct {
	w    *bufio.Writer
	mode template.Mode
}

// NewOutputFactory returns the default output factory.
func NewOutputFactory() pipeline.OutputFactory {
	return pipeline.NewOutputFactory(OutputName, func(w io.Writer) (pipeline.Output, error) {
		return &Writer{w: bufio.NewWriter(w)}, nil
	})
}

// Bind captures the template mode.
func (o *Writer) Bind(ec *pipeline.EngineContext) error {
	o.mode = ec.Mode()
	return nil
}

// Write serializes one event.
func (o *Writer) Write(ev model.Event) error {
	var err error
	switch {
	case ev.Kind == model.EventTemplateStart, ev.Kind == model.EventTemplateEnd:
		return nil
	case ev.Kind == model.EventText:
		_, err = o.w.WriteString(ev.Content)
	case o.mode.IsMarkup():
		err = o.writeMarkup(ev)
	case o.mode.IsTextual():
		err = o.writeTextual(ev)
	default:
		return fmt.Errorf("processor: %s event not supported in %s mode", ev.Kind, o.mode)
	}
	return err
}

// Flush pushes buffered output to the destination.
func (o *Writer) Flush() error {
	return o.w.Flush()
}

func (o *Writer) writeMarkup(ev model.Event) error {
	var b strings.Builder
	switch ev.Kind {
	case model.EventComment:
		b.WriteString("<!--" + ev.Content + "-->")
	case model.EventCDATA:
		b.WriteString("<![CDATA[" + ev.Content + "]]>")
	case model.EventDocType:
		b.WriteString("<!DOCTYPE " + ev.Content + ">")
	case model.EventXMLDeclaration:
		b.WriteString("<?xml")
		if ev.Content != "" {
			b.WriteString(" " + ev.Content)
		}
		b.WriteString("?>")
	case model.EventProcessingInstruction:
		b.WriteString("<?" + ev.Name)
		if ev.Content != "" {
			b.WriteString(" " + ev.Content)
		}
		b.WriteString("?>")
	case model.EventOpenElement:
		b.WriteString("<" + ev.Name)
		writeMarkupAttrs(&b, ev.Attributes)
		b.WriteString(">")
	case model.EventStandaloneElement:
		b.WriteString("<" + ev.Name)
		writeMarkupAttrs(&b, ev.Attributes)
		if ev.Minimized || o.mode == template.ModeXML {
			b.WriteString("/>")
		} else {
			b.WriteString(">")
		}
	case model.EventCloseElement:
		b.WriteString("</" + ev.Name + ">")
	default:
		return fmt.Errorf("processor: unknown event %s", ev.Kind)
	}
	_, err := o.w.WriteString(b.String())
	return err
}

func writeMarkupAttrs(b *strings.Builder, attrs []model.Attribute) {
	for _, attr := range attrs {
		b.WriteString(" " + attr.Name)
		if attr.NoValue {
			continue
		}
		b.WriteString(`="` + html.EscapeString(attr.Value) + `"`)
	}
}

func (o *Writer) writeTextual(ev model.Event) error {
	var b strings.Builder
	switch ev.Kind {
	case model.EventOpenElement:
		b.WriteString("[#" + ev.Name)
		writeTextualAttrs(&b, ev.Attributes)
		b.WriteString("]")
	case model.EventStandaloneElement:
		b.WriteString("[#" + ev.Name)
		writeTextualAttrs(&b, ev.Attributes)
		b.WriteString("/]")
	case model.EventCloseElement:
		b.WriteString("[/" + ev.Name + "]")
	default:
		return fmt.Errorf("processor: %s event not supported in %s mode", ev.Kind, o.mode)
	}
	tag := b.String()
	if o.mode == template.ModeJavaScript || o.mode == template.ModeCSS {
		// Keep scripts and stylesheets valid.
		tag = "/*" + tag + "*/"
	}
	_, err := o.w.WriteString(tag)
	return err
}

func writeTextualAttrs(b *strings.Builder, attrs []model.Attribute) {
	for _, attr := range attrs {
		b.WriteString(" " + attr.Name)
		if attr.NoValue {
			continue
		}
		b.WriteString(`="` + strings.ReplaceAll(attr.Value, `"`, `\"`) + `"`)
	}
}
