package parser

import "unicode/utf8"

// tracker converts byte runs into line/column positions, shifted by the
// fragment offsets of inline templates.
type tracker struct {
	line    int
	col     int
	lineOff int
	colOff  int
}

func newTracker(lineOff, colOff int) *tracker {
	return &tracker{line: 1, col: 1, lineOff: lineOff, colOff: colOff}
}

// position returns the current position in owner-template coordinates.
func (t *tracker) position() (int, int) {
	line := t.line + t.lineOff
	col := t.col
	if t.line == 1 {
		col += t.colOff
	}
	return line, col
}

// advance moves past raw, one column per rune.
func (t *tracker) advance(raw []byte) {
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		t.step(r)
		raw = raw[size:]
	}
}

func (t *tracker) advanceString(raw string) {
	for _, r := range raw {
		t.step(r)
	}
}

func (t *tracker) step(r rune) {
	if r == '\n' {
		t.line++
		t.col = 1
		return
	}
	t.col++
}
