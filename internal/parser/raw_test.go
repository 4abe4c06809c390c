package parser

import (
	"testing"
)

func TestRawEmitsSingleText(t *testing.T) {
	events := mustParse(t, Raw{}, "license", "<b>[[x]]</b>\n[#a]", "#ignored")
	assertSummary(t, []string{
		`template-start license`,
		`text "<b>[[x]]</b>\n[#a]"`,
		`template-end license`,
	}, events)
}

func TestRawEmptyContent(t *testing.T) {
	events := mustParse(t, Raw{}, "empty", "")
	assertSummary(t, []string{
		`template-start empty`,
		`template-end empty`,
	}, events)
}

func TestRawFragmentOffset(t *testing.T) {
	events := parseString(t, Raw{}, "abc", 7, 3)
	if events[1].Line != 8 || events[1].Col != 4 {
		t.Fatalf("expected text at 8:4, got %d:%d", events[1].Line, events[1].Col)
	}
}
