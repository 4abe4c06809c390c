package parser

import (
	"testing"

	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/template"
)

func TestTextualElements(t *testing.T) {
	p := Textual{Mode: template.ModeText}
	events := mustParse(t, p, "mail",
		`Hello [(name)]! [#block id="body" open]Order [[order]][/block] done[#br/][#each items='a b'][/]`)

	assertSummary(t, []string{
		`template-start mail`,
		`text "Hello [(name)]! "`,
		`open-element block id="body" open`,
		`text "Order [[order]]"`,
		`close-element block`,
		`text " done"`,
		`standalone-element br`,
		`open-element each items="a b"`,
		`close-element each`,
		`template-end mail`,
	}, events)
}

func TestTextualCommentWrappedElements(t *testing.T) {
	const src = "var x = [[name]];\n/*[#debug]*/console.log(x);/*[/debug]*/"

	js := mustParse(t, Textual{Mode: template.ModeJavaScript}, "app.js", src)
	assertSummary(t, []string{
		`template-start app.js`,
		`text "var x = [[name]];\n"`,
		`open-element debug`,
		`text "console.log(x);"`,
		`close-element debug`,
		`template-end app.js`,
	}, js)
	if js[2].Line != 2 || js[2].Col != 1 {
		t.Fatalf("expected [#debug] at 2:1, got %d:%d", js[2].Line, js[2].Col)
	}

	// Plain text templates keep the comment markers as text.
	text := mustParse(t, Textual{Mode: template.ModeText}, "app.txt", src)
	assertSummary(t, []string{
		`template-start app.txt`,
		`text "var x = [[name]];\n/*"`,
		`open-element debug`,
		`text "*/console.log(x);/*"`,
		`close-element debug`,
		`text "*/"`,
		`template-end app.txt`,
	}, text)
}

func TestTextualInlineExpressionsAreNotTags(t *testing.T) {
	events := mustParse(t, Textual{Mode: template.ModeText}, "t", `[[items[0]]] and [(map[#x])]`)
	assertSummary(t, []string{
		`template-start t`,
		`text "[[items[0]]] and [(map[#x])]"`,
		`template-end t`,
	}, events)
}

func TestTextualErrors(t *testing.T) {
	cases := map[string]struct {
		src  string
		line int
	}{
		"unterminated tag":  {src: "a\n[#block", line: 2},
		"never closed":      {src: "[#block]text", line: 1},
		"mismatched close":  {src: "[#a]\n[/b]", line: 2},
		"unexpected close":  {src: "text [/a]", line: 1},
		"missing name":      {src: "[# ]", line: 1},
		"unterminated attr": {src: `[#a title="x]`, line: 1},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseStandalone(t, Textual{Mode: template.ModeText}, "t", tc.src)
			assertParseError(t, err, tc.line)
		})
	}
}

func TestTextualSelectors(t *testing.T) {
	events := mustParse(t, Textual{Mode: template.ModeText}, "mail",
		`intro [#block id="head"]H[/block][#block id="body"]B [#em]x[/em][/block] outro`, "#body")

	assertSummary(t, []string{
		`template-start mail`,
		`open-element block id="body"`,
		`text "B "`,
		`open-element em`,
		`text "x"`,
		`close-element em`,
		`close-element block`,
		`template-end mail`,
	}, events)
}

func TestTextualFragmentOffsets(t *testing.T) {
	events := parseString(t, Textual{Mode: template.ModeText}, "ab[#x/]", 4, 10)
	if events[2].Kind != model.EventStandaloneElement || events[2].Line != 5 || events[2].Col != 13 {
		t.Fatalf("expected [#x/] at 5:13, got %v %d:%d", events[2].Kind, events[2].Line, events[2].Col)
	}
}

func TestTextualColumnsCountRunes(t *testing.T) {
	events := parseString(t, Textual{Mode: template.ModeText}, "ünï[#x/]", 0, 0)
	if events[2].Kind != model.EventStandaloneElement || events[2].Col != 4 {
		t.Fatalf("expected [#x/] at column 4, got %v %d:%d", events[2].Kind, events[2].Line, events[2].Col)
	}
}
