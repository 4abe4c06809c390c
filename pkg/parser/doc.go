// Package parser defines the grammar contract and the fixed dispatch table
// mapping each template mode to the parser responsible for it. Parsers emit
// structural events into a Sink, normally a model.Builder.
package parser
