package parser

import (
	"testing"
)

func TestXMLEvents(t *testing.T) {
	events := mustParse(t, XML{}, "feed",
		`<?xml version="1.0"?><!DOCTYPE feed><feed xmlns:m="urn:m"><title><![CDATA[a<b]]></title>`+
			`<link href="/feed"/><m:item m:id="1">x</m:item><?render fast?><!--c--></feed>`)

	assertSummary(t, []string{
		`template-start feed`,
		`xml-declaration "version=\"1.0\""`,
		`doctype "feed"`,
		`open-element feed xmlns:m="urn:m"`,
		`open-element title`,
		`cdata "a<b"`,
		`close-element title`,
		`standalone-element link href="/feed"`,
		`open-element m:item m:id="1"`,
		`text "x"`,
		`close-element m:item`,
		`processing-instruction render "fast"`,
		`comment "c"`,
		`close-element feed`,
		`template-end feed`,
	}, events)

	if !events[7].Minimized {
		t.Fatalf("expected <link/> to be minimized")
	}
}

func TestXMLPositions(t *testing.T) {
	events := mustParse(t, XML{}, "doc", "<a>\n  <b/>\n</a>")
	b := events[3]
	if b.Name != "b" || b.Line != 2 || b.Col != 3 {
		t.Fatalf("expected <b/> at 2:3, got %s %d:%d", b.Name, b.Line, b.Col)
	}
}

func TestXMLMismatchedElements(t *testing.T) {
	_, err := parseStandalone(t, XML{}, "doc", "<a>\n<b>\n</a>")
	parseErr := assertParseError(t, err, 3)
	if parseErr.Template != "doc" {
		t.Fatalf("expected template name in error, got %q", parseErr.Template)
	}
}

func TestXMLUnclosedElement(t *testing.T) {
	_, err := parseStandalone(t, XML{}, "doc", "<a><b></b>")
	assertParseError(t, err, 0)
}

func TestXMLSyntaxError(t *testing.T) {
	_, err := parseStandalone(t, XML{}, "doc", "<a>\n<b x=></b></a>")
	assertParseError(t, err, 2)
}

func TestXMLSelectors(t *testing.T) {
	events := mustParse(t, XML{}, "doc", `<root><entry id="one">1</entry><entry id="two"><sub/></entry></root>`, "#two")
	assertSummary(t, []string{
		`template-start doc`,
		`open-element entry id="two"`,
		`standalone-element sub`,
		`close-element entry`,
		`template-end doc`,
	}, events)
}
