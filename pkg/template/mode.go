package template

import (
	"fmt"
	"path"
	"strings"
)

// Mode identifies the grammar used to parse a template.
type Mode string

const (
	ModeHTML       Mode = "HTML"
	ModeXML        Mode = "XML"
	ModeText       Mode = "TEXT"
	ModeJavaScript Mode = "JAVASCRIPT"
	ModeCSS        Mode = "CSS"
	ModeRaw        Mode = "RAW"
)

// Modes lists every supported mode in a stable order.
func Modes() []Mode {
	return []Mode{ModeHTML, ModeXML, ModeText, ModeJavaScript, ModeCSS, ModeRaw}
}

// IsZero reports whether the mode is unset, meaning "use the resolver's".
func (m Mode) IsZero() bool {
	return m == ""
}

// IsMarkup reports whether the mode uses a markup grammar.
func (m Mode) IsMarkup() bool {
	return m == ModeHTML || m == ModeXML
}

// IsTextual reports whether the mode uses the textual grammar.
func (m Mode) IsTextual() bool {
	return m == ModeText || m == ModeJavaScript || m == ModeCSS
}

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	for _, candidate := range Modes() {
		if m == candidate {
			return true
		}
	}
	return false
}

func (m Mode) String() string {
	return string(m)
}

// ParseMode converts a case-insensitive name into a Mode. An empty string maps
// to the zero Mode.
func ParseMode(raw string) (Mode, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	switch trimmed {
	case "":
		return "", nil
	case "JS":
		return ModeJavaScript, nil
	case "XHTML", "HTML5":
		return ModeHTML, nil
	}
	mode := Mode(trimmed)
	if !mode.Valid() {
		return "", fmt.Errorf("template: unknown mode %q", raw)
	}
	return mode, nil
}

// ModeFromExtension derives a mode from the file extension of name, returning
// fallback when the extension is unknown.
func ModeFromExtension(name string, fallback Mode) Mode {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return ModeHTML
	case ".xml", ".svg", ".rss", ".atom":
		return ModeXML
	case ".txt", ".text":
		return ModeText
	case ".js", ".mjs", ".json":
		return ModeJavaScript
	case ".css":
		return ModeCSS
	default:
		return fallback
	}
}
