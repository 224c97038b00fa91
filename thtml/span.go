package thtml

import "fmt"

// Span represents a source location in the parsed document.
type Span struct {
	Offset int // Rune offset from the start of input
	Line   int // 1-based line number
	Column int // 1-based column number (in runes, not bytes)
	Length int // Length in runes
}

// End returns the end offset of the span
func (s Span) End() int {
	return s.Offset + s.Length
}

func (s Span) String() string {
	return fmt.Sprintf("line %d column %d", s.Line, s.Column)
}

// Source represents a source location with optional file information
type Source struct {
	File string // File path (can be empty)
	Span Span   // Location within the file
}

func (s Source) String() string {
	if s.File == "" {
		return s.Span.String()
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Span.Line, s.Span.Column)
}
