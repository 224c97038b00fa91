package tidy

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/dpotapov/go-tidy/thtml"
)

// SourceLine is one line of a source excerpt.
type SourceLine struct {
	Number int
	Text   string
}

// SourceContext is the part of the input around a diagnostic.
type SourceContext struct {
	Lines       []SourceLine
	ErrorLine   int
	ErrorColumn int
	ErrorLength int
}

// NewSourceContext cuts the lines around span out of src, with up to around
// lines before and after it. It returns nil if span lies outside src.
func NewSourceContext(src string, span thtml.Span, around int) *SourceContext {
	if span.Line <= 0 {
		return nil
	}
	lines := strings.Split(src, "\n")
	if span.Line > len(lines) {
		return nil
	}
	around = max(around, 0)
	first := max(1, span.Line-around)
	last := min(len(lines), span.Line+around)

	ctx := &SourceContext{
		ErrorLine:   span.Line,
		ErrorColumn: span.Column,
		ErrorLength: span.Length,
	}
	for i := first; i <= last; i++ {
		ctx.Lines = append(ctx.Lines, SourceLine{Number: i, Text: lines[i-1]})
	}
	return ctx
}

// Report formats diagnostics for a terminal.
type Report struct {
	// File is the name shown in front of each diagnostic.
	File string

	// Source is the decoded input. Without it no excerpts are printed.
	Source string

	// Context is the number of lines shown around the offending one. A negative
	// value disables excerpts.
	Context int

	// Markup adds the repaired markup around the node involved.
	Markup bool

	// Color highlights excerpts with the chroma Style (default "monokai").
	Color bool
	Style string
}

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// Write prints diags to w.
func (r *Report) Write(w io.Writer, diags []thtml.Diagnostic) error {
	for _, d := range diags {
		if err := r.write(w, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) write(w io.Writer, d thtml.Diagnostic) error {
	loc := thtml.Source{File: r.File, Span: d.Span}
	sev := strings.ToLower(d.Severity.String())
	if r.Color {
		sev = severityColor(d.Severity) + ansiBold + sev + ansiReset
	}
	if _, err := fmt.Fprintf(w, "%s: %s: %s [%s]\n", loc, sev, d.Message, d.Code); err != nil {
		return err
	}

	if r.Context >= 0 && r.Source != "" {
		if ctx := NewSourceContext(r.Source, d.Span, r.Context); ctx != nil {
			if err := r.writeExcerpt(w, ctx); err != nil {
				return err
			}
		}
	}
	if r.Markup {
		if m := d.HTMLContext(); m != "" {
			if _, err := fmt.Fprintf(w, "    %s\n", m); err != nil {
				return err
			}
		}
	}
	return nil
}

func severityColor(s thtml.Severity) string {
	switch s {
	case thtml.Error:
		return ansiRed
	case thtml.Warning:
		return ansiYellow
	}
	return ansiCyan
}

func (r *Report) writeExcerpt(w io.Writer, ctx *SourceContext) error {
	width := len(strconv.Itoa(ctx.Lines[len(ctx.Lines)-1].Number))
	for _, l := range ctx.Lines {
		if _, err := fmt.Fprintf(w, "%*d | %s\n", width, l.Number, r.highlight(l.Text)); err != nil {
			return err
		}
		if l.Number != ctx.ErrorLine {
			continue
		}
		marker := caret(l.Text, ctx.ErrorColumn, ctx.ErrorLength)
		if r.Color {
			marker = ansiRed + marker + ansiReset
		}
		if _, err := fmt.Fprintf(w, "%*s | %s\n", width, "", marker); err != nil {
			return err
		}
	}
	return nil
}

// caret underlines length runes of line from the 1-based column. Tabs in front
// of the column are kept so that the marker lines up.
func caret(line string, column, length int) string {
	var sb strings.Builder
	col := 1
	for _, c := range line {
		if col >= column {
			break
		}
		if c == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
		col++
	}
	rest := utf8.RuneCountInString(line) - (col - 1)
	length = min(length, rest)
	sb.WriteString(strings.Repeat("^", max(length, 1)))
	return sb.String()
}

func (r *Report) highlight(line string) string {
	if !r.Color || line == "" {
		return line
	}
	lexer := lexers.Get("html")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	name := r.Style
	if name == "" {
		name = "monokai"
	}
	style := styles.Get(name)
	formatter := formatters.Get("terminal256")

	it, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var sb strings.Builder
	if err := formatter.Format(&sb, style, it); err != nil {
		return line
	}
	return sb.String()
}
