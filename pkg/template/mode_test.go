package template

import "testing"

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"html":       ModeHTML,
		" Xml ":      ModeXML,
		"text":       ModeText,
		"js":         ModeJavaScript,
		"JavaScript": ModeJavaScript,
		"css":        ModeCSS,
		"raw":        ModeRaw,
		"xhtml":      ModeHTML,
		"":           "",
	}
	for input, want := range cases {
		got, err := ParseMode(input)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseMode(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParseMode("markdown"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestModeFromExtension(t *testing.T) {
	cases := map[string]Mode{
		"views/home.html":  ModeHTML,
		"feed.XML":         ModeXML,
		"icons/logo.svg":   ModeXML,
		"mail/welcome.txt": ModeText,
		"app.mjs":          ModeJavaScript,
		"theme.css":        ModeCSS,
		"notes":            ModeRaw,
	}
	for name, want := range cases {
		if got := ModeFromExtension(name, ModeRaw); got != want {
			t.Fatalf("ModeFromExtension(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestModeFamilies(t *testing.T) {
	for _, mode := range Modes() {
		if !mode.Valid() {
			t.Fatalf("%s should be valid", mode)
		}
		if mode.IsMarkup() && mode.IsTextual() {
			t.Fatalf("%s cannot be both markup and textual", mode)
		}
	}
	if ModeRaw.IsMarkup() || ModeRaw.IsTextual() {
		t.Fatalf("raw mode belongs to no grammar family")
	}
	if Mode("").Valid() || !Mode("").IsZero() {
		t.Fatalf("zero mode should be unset and invalid")
	}
}
