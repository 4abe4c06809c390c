package parser

import (
	pkgparser "github.com/goliatone/go-tplengine/pkg/parser"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// NewDefaultTable returns a dispatch table with a parser for every mode.
func NewDefaultTable() *pkgparser.Table {
	table := pkgparser.NewTable()
	table.MustRegister(template.ModeHTML, HTML{})
	table.MustRegister(template.ModeXML, XML{})
	table.MustRegister(template.ModeText, Textual{Mode: template.ModeText})
	table.MustRegister(template.ModeJavaScript, Textual{Mode: template.ModeJavaScript})
	table.MustRegister(template.ModeCSS, Textual{Mode: template.ModeCSS})
	table.MustRegister(template.ModeRaw, Raw{})
	return table
}
