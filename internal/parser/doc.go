// Package parser holds the default grammars: HTML (golang.org/x/net/html),
// XML (encoding/xml), the textual grammar shared by TEXT, JAVASCRIPT and CSS,
// and the RAW passthrough. Every grammar reports positions relative to the
// owner template when parsing inline fragments and applies selectors through
// a common filtering sink.
package parser
