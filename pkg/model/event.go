package model

import "strconv"

// EventKind enumerates the structural events produced by parsers.
type EventKind uint8

const (
	EventTemplateStart EventKind = iota + 1
	EventTemplateEnd
	EventText
	EventComment
	EventCDATA
	EventDocType
	EventXMLDeclaration
	EventProcessingInstruction
	EventOpenElement
	EventCloseElement
	EventStandaloneElement
)

var eventKindNames = map[EventKind]string{
	EventTemplateStart:         "template-start",
	EventTemplateEnd:           "template-end",
	EventText:                  "text",
	EventComment:               "comment",
	EventCDATA:                 "cdata",
	EventDocType:               "doctype",
	EventXMLDeclaration:        "xml-declaration",
	EventProcessingInstruction: "processing-instruction",
	EventOpenElement:           "open-element",
	EventCloseElement:          "close-element",
	EventStandaloneElement:     "standalone-element",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "event(" + strconv.Itoa(int(k)) + ")"
}

// ParseEventKind is the inverse of EventKind.String.
func ParseEventKind(name string) (EventKind, bool) {
	for kind, candidate := range eventKindNames {
		if candidate == name {
			return kind, true
		}
	}
	return 0, false
}

// Attribute is a single element attribute. Attributes keep source order.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`

	// NoValue marks boolean attributes written without "=".
	NoValue bool `json:"noValue,omitempty"`
}

// Event is one structural unit emitted by a parser. Text and comment content
// is kept as it appeared in the source so output can reproduce it verbatim.
type Event struct {
	Kind       EventKind   `json:"kind"`
	Name       string      `json:"name,omitempty"`
	Content    string      `json:"content,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Line       int         `json:"line,omitempty"`
	Col        int         `json:"col,omitempty"`

	// Minimized marks elements written in "<name/>" form.
	Minimized bool `json:"minimized,omitempty"`
}

// Attr returns the value of the named attribute.
func (e Event) Attr(name string) (string, bool) {
	for _, attr := range e.Attributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// IsElement reports whether the event opens, closes or is a standalone element.
func (e Event) IsElement() bool {
	return e.Kind == EventOpenElement || e.Kind == EventCloseElement || e.Kind == EventStandaloneElement
}

// Clone returns a copy that does not share the attribute slice.
func (e Event) Clone() Event {
	if len(e.Attributes) > 0 {
		e.Attributes = append([]Attribute(nil), e.Attributes...)
	}
	return e
}
