package thtml

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/atom"
)

func removeIndent(s string) string {
	s = strings.TrimLeft(s, "\n") // ignore leading newline

	// find first non-whitespace character
	i := strings.IndexFunc(s, func(r rune) bool {
		return r != ' ' && r != '\t'
	})
	if i == -1 {
		return s
	}

	// remove that amount of leading whitespace from all lines
	lines := strings.Split(s, "\n")
	for j, line := range lines {
		if len(line) >= i {
			lines[j] = line[i:]
		}
	}
	return strings.Join(lines, "\n")
}

func mustParse(t testing.TB, text string, opts *Options) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(text), opts)
	require.NoError(t, err)
	require.NoError(t, CheckLinks(doc.Root))
	return doc
}

func findElement(n *Node, a atom.Atom) *Node {
	var found *Node
	Walk(n, func(c *Node) bool {
		if found == nil && c.Is(a) {
			found = c
		}
		return found == nil
	})
	return found
}

// dumpChildren dumps the children of n.
func dumpChildren(t testing.TB, n *Node) string {
	t.Helper()
	require.NotNil(t, n)
	var b bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		require.NoError(t, Dump(&b, c, false))
	}
	return b.String()
}

func TestParseBody(t *testing.T) {
	tests := []struct {
		name, text, want string
		codes            []Code
	}{
		{
			name:  "unclosed paragraph",
			text:  "<p>hello",
			codes: []Code{MissingEndTag, MissingTitle},
			want: `
			| <p>
			|   "hello"
			`,
		},
		{
			name:  "inline around block",
			text:  "<b><p>x</p></b>",
			codes: []Code{MissingEndTagBefore, TrimEmptyElement, MissingTitle},
			want: `
			| <p>
			|   <b>
			|     "x"
			`,
		},
		{
			name:  "inline reopened in next block",
			text:  "<b>a<div>b</div></b>",
			codes: []Code{MissingEndTagBefore, MissingTitle},
			want: `
			| <b>
			|   "a"
			| <div>
			|   <b>
			|     "b"
			`,
		},
		{
			name:  "list items without list",
			text:  "<li>one<li>two",
			codes: []Code{InsertingTag, MissingEndTag, MissingTitle},
			want: `
			| <ul>
			|   <li>
			|     "one"
			|   <li>
			|     "two"
			`,
		},
		{
			name:  "text in list",
			text:  "<ul>text</ul>",
			codes: []Code{InsertingTag, MissingTitle},
			want: `
			| <ul>
			|   <li>
			|     "text"
			`,
		},
		{
			name:  "definition list",
			text:  "<dt>a<dd>b</dd>",
			codes: []Code{InsertingTag, MissingTitle},
			want: `
			| <dl>
			|   <dt>
			|     "a"
			|   <dd>
			|     "b"
			`,
		},
		{
			name:  "cell without table",
			text:  "<td>x</td>",
			codes: []Code{InsertingTag, InsertingTag, MissingTitle},
			want: `
			| <table>
			|   <tr>
			|     <td>
			|       "x"
			`,
		},
		{
			name:  "inline in row",
			text:  "<table><tr><b>x</b></tr></table>",
			codes: []Code{ContentExiled, InsertingTag, MissingTitle},
			want: `
			| <b>
			|   "x"
			| <table>
			|   <tr>
			|     <td>
			`,
		},
		{
			name:  "text in table",
			text:  "<table>oops<tr><td>x</td></tr></table>",
			codes: []Code{ContentExiled, MissingTitle},
			want: `
			| "oops"
			| <table>
			|   <tr>
			|     <td>
			|       "x"
			`,
		},
		{
			name:  "emphasis start tag used as end tag",
			text:  "<b>x<b>y",
			codes: []Code{CoerceToEndTag, MissingTitle},
			want: `
			| <b>
			|   "x"
			| "y"
			`,
		},
		{
			name:  "nested emphasis",
			text:  "<b>x <b>y</b></b>",
			codes: []Code{NestedEmphasis, MissingTitle},
			want: `
			| <b>
			|   "x "
			|   <b>
			|     "y"
			`,
		},
		{
			name:  "anchor inside anchor",
			text:  `<a href="1">one<a href="2">two</a>`,
			codes: []Code{MissingEndTagBefore, MissingTitle},
			want: `
			| <a>
			|   href="1"
			|   "one"
			| <a>
			|   href="2"
			|   "two"
			`,
		},
		{
			name:  "bare anchor inside anchor",
			text:  "<a>x<a>y",
			codes: []Code{CoerceToEndTag, MissingTitle},
			want: `
			| <a>
			|   "x"
			| "y"
			`,
		},
		{
			name:  "heading split by rule",
			text:  "<h1>a<hr>b</h1>",
			codes: []Code{SplitElement, MissingTitle},
			want: `
			| <h1>
			|   "a"
			| <hr>
			| <h1>
			|   "b"
			`,
		},
		{
			name:  "preformatted text",
			text:  "<pre>\n  x\n</pre>",
			codes: []Code{MissingTitle},
			want: `
			| <pre>
			|   "  x\n"
			`,
		},
		{
			name:  "paragraph in pre",
			text:  "<pre>a<p>b</pre>",
			codes: []Code{CoercedElement, MissingTitle},
			want: `
			| <pre>
			|   "a"
			|   <br>
			|   "b"
			`,
		},
		{
			name:  "stray paragraph end tag",
			text:  "x</p>y",
			codes: []Code{CoercedElement, MissingTitle},
			want: `
			| "x"
			| <br>
			| "y"
			`,
		},
		{
			name:  "select",
			text:  "<select>junk<option>a<option>b</select>",
			codes: []Code{DiscardingUnexpected, MissingTitle},
			want: `
			| <select>
			|   <option>
			|     "a"
			|   <option>
			|     "b"
			`,
		},
		{
			name:  "unknown element",
			text:  "<foo>x</foo>",
			codes: []Code{UnknownElement, MissingTitle},
			want: `
			| <foo>
			|   "x"
			`,
		},
		{
			name:  "content after body",
			text:  "<body><p>a</p></body><p>b</p>",
			codes: []Code{ContentAfterBody, MissingTitle},
			want: `
			| <p>
			|   "a"
			| <p>
			|   "b"
			`,
		},
		{
			name:  "heading split by center",
			text:  "<h1>a<center>b</center>c</h1>",
			codes: []Code{SplitElement, MissingTitle},
			want: `
			| <h1>
			|   "a"
			| <center>
			|   "b"
			| <h1>
			|   "c"
			`,
		},
		{
			name:  "heading closed inside center",
			text:  "<h1>a<center>b</h1>c",
			codes: []Code{SplitElement, MissingEndTagBefore, MissingTitle},
			want: `
			| <h1>
			|   "a"
			| <center>
			|   "b"
			| "c"
			`,
		},
		{
			name:  "pre split by heading",
			text:  "<pre>a<h2>x</h2>b</pre>",
			codes: []Code{SplitElement, MissingTitle},
			want: `
			| <pre>
			|   "a"
			| <h2>
			|   "x"
			| <pre>
			|   "b"
			`,
		},
		{
			name:  "pre closed inside heading",
			text:  "<pre>a<h2>x</pre>b",
			codes: []Code{SplitElement, MissingEndTagBefore, MissingTitle},
			want: `
			| <pre>
			|   "a"
			| <h2>
			|   "x"
			| "b"
			`,
		},
		{
			name:  "form inside form",
			text:  "<form><form>x</form></form>",
			codes: []Code{IllegalNesting, MissingTitle},
			want: `
			| <form>
			|   <form>
			|     "x"
			`,
		},
		{
			name:  "emphasis inside reopened emphasis",
			text:  "<b>a<p>b<b>c</b></p>",
			codes: []Code{MissingEndTagBefore, NestedEmphasis, MissingTitle},
			want: `
			| <b>
			|   "a"
			| <p>
			|   <b>
			|     "b"
			|     <b>
			|       "c"
			`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.text, nil)
			got := dumpChildren(t, findElement(doc.Root, atom.Body))
			if diff := cmp.Diff(removeIndent(tt.want), got); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.codes, doc.Codes(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name, text, want string
		codes            []Code
	}{
		{
			name:  "empty",
			text:  "",
			codes: []Code{MissingTitle},
			want: `
			| <html>
			|   <head>
			|   <body>
			`,
		},
		{
			name: "complete document",
			text: `<!DOCTYPE html><html><head><title>T</title></head><body><p>x</p></body></html>`,
			want: `
			| <!DOCTYPE html>
			| <html>
			|   <head>
			|     <title>
			|       "T"
			|   <body>
			|     <p>
			|       "x"
			`,
		},
		{
			name:  "title after body content",
			text:  "<p>x</p><title>T</title>",
			codes: []Code{MovedToHead},
			want: `
			| <html>
			|   <head>
			|     <title>
			|       "T"
			|   <body>
			|     <p>
			|       "x"
			`,
		},
		{
			name:  "second title",
			text:  "<title>a</title><title>b</title>",
			codes: []Code{TooManyElements},
			want: `
			| <html>
			|   <head>
			|     <title>
			|       "a"
			|   <body>
			`,
		},
		{
			name: "script keeps markup",
			text: `<script>var s = "</p>";</script>`,
			want: `
			| <html>
			|   <head>
			|     <script>
			|       "var s = "</p>";"
			|   <body>
			`,
			codes: []Code{MissingTitle},
		},
		{
			name:  "frameset",
			text:  `<frameset><frame src="a"></frameset>`,
			codes: []Code{MissingTitle},
			want: `
			| <html>
			|   <head>
			|   <frameset>
			|     <frame>
			|       src="a"
			`,
		},
		{
			name:  "content after frameset",
			text:  "<frameset><frame></frameset><p>x",
			codes: []Code{ContentAfterFrameset, InsertingTag, MissingEndTag, MissingTitle},
			want: `
			| <html>
			|   <head>
			|   <frameset>
			|     <frame>
			|     <noframes>
			|       <body>
			|         <p>
			|           "x"
			`,
		},
		{
			name: "noframes after frameset",
			text: `<html><head><title>t</title></head><frameset><frame></frameset><noframes lang="en"><p>x</p></noframes></html>`,
			want: `
			| <html>
			|   <head>
			|     <title>
			|       "t"
			|   <frameset>
			|     <frame>
			|     <noframes>
			|       lang="en"
			|       <body>
			|         <p>
			|           "x"
			`,
		},
		{
			name:  "comment before html",
			text:  "<!-- c --><p>x</p>",
			codes: []Code{MissingTitle},
			want: `
			| <!--  c  -->
			| <html>
			|   <head>
			|   <body>
			|     <p>
			|       "x"
			`,
		},
		{
			name:  "malformed doctype",
			text:  "<!DOCTYPE><p>x</p>",
			codes: []Code{MalformedDoctype, MissingTitle},
			want: `
			| <html>
			|   <head>
			|   <body>
			|     <p>
			|       "x"
			`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.text, nil)
			got := dumpChildren(t, doc.Root)
			if diff := cmp.Diff(removeIndent(tt.want), got); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.codes, doc.Codes(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseImplicitFlags(t *testing.T) {
	doc := mustParse(t, "<p>hello", nil)
	html := findElement(doc.Root, atom.Html)
	require.NotNil(t, html)
	assert.True(t, html.Implicit())
	assert.True(t, findElement(doc.Root, atom.Head).Implicit())
	assert.True(t, findElement(doc.Root, atom.Body).Implicit())

	p := findElement(doc.Root, atom.P)
	assert.False(t, p.Implicit())
	assert.False(t, p.Closed())
	assert.Equal(t, Span{Offset: 0, Line: 1, Column: 1, Length: 3}, p.Span)

	require.NotEmpty(t, doc.Diagnostics)
	d := doc.Diagnostics[0]
	assert.Equal(t, MissingEndTag, d.Code)
	assert.Equal(t, Info, d.Severity)
	assert.Equal(t, "p", d.Element)
	assert.Same(t, p, d.Node)
}

func TestParseReconstructedClone(t *testing.T) {
	doc := mustParse(t, `<b class="x"><p>y</p></b>`, nil)
	b := findElement(doc.Root, atom.B)
	require.NotNil(t, b)
	assert.True(t, b.Implicit())
	v, ok := b.AttrVal("class")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, "p", b.Parent.Data)
}

func TestParseCoercedBreak(t *testing.T) {
	doc := mustParse(t, "a</br>b", nil)
	br := findElement(doc.Root, atom.Br)
	require.NotNil(t, br)
	require.NotNil(t, br.CoercedFrom)
	assert.Equal(t, "br", br.CoercedFrom.Name)
	assert.False(t, br.Implicit())

	doc = mustParse(t, "x</p>y", nil)
	br = findElement(doc.Root, atom.Br)
	require.NotNil(t, br)
	assert.Equal(t, "br", br.Data)
	assert.Equal(t, atom.Br, br.DataAtom)
	require.NotNil(t, br.CoercedFrom)
	assert.Equal(t, "p", br.CoercedFrom.Name)
}

func TestParseExiledTextSpan(t *testing.T) {
	doc := mustParse(t, "<table>a<!--c-->b</table>", nil)
	text := findElement(doc.Root, atom.Body).FirstChild
	require.NotNil(t, text)
	assert.Equal(t, TextNode, text.Type)
	assert.Equal(t, "ab", text.Data)
	assert.Equal(t, Span{Offset: 7, Line: 1, Column: 8, Length: 10}, text.Span)
	assert.Equal(t, []Code{ContentExiled, ContentExiled, MissingTitle}, doc.Codes())
}

func TestParseDoctypeVersion(t *testing.T) {
	doc := mustParse(t, `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd"><title>t</title>`, nil)
	require.NotNil(t, doc.Doctype)
	assert.Equal(t, "html", doc.Doctype.Data)
	public, _ := doc.Doctype.AttrVal("public")
	assert.Equal(t, "-//W3C//DTD HTML 4.01//EN", public)
	assert.Equal(t, HTML40Strict, doc.Declared)
	assert.NotZero(t, doc.Versions&HTML40Strict)
	assert.Empty(t, doc.Diagnostics)
}

func TestParseProprietaryVersion(t *testing.T) {
	doc := mustParse(t, "<title>t</title><blink>x</blink>", nil)
	assert.NotZero(t, doc.Versions&Proprietary)
	assert.Equal(t, []Code{ProprietaryElement}, doc.Codes())
}

func TestParseDeclaredTags(t *testing.T) {
	cat := NewCatalog()
	require.NoError(t, cat.Declare("foo", UserInline))
	require.NoError(t, cat.Declare("bar", UserBlock))

	doc := mustParse(t, "<title>t</title><bar><foo>x</foo></bar>", &Options{Catalog: cat})
	assert.True(t, cat.Frozen())
	assert.Empty(t, doc.Diagnostics)
	got := dumpChildren(t, findElement(doc.Root, atom.Body))
	want := removeIndent(`
	| <bar>
	|   <foo>
	|     "x"
	`)
	assert.Equal(t, want, got)

	err := cat.Declare("baz", UserEmpty)
	assert.ErrorIs(t, err, ErrCatalogFrozen)
}

func TestParseXMLTags(t *testing.T) {
	doc := mustParse(t, "<foo/><p>x</p>", &Options{XMLTags: true})
	assert.Equal(t, []Code{UnexpectedXMLElement}, doc.Codes())
	assert.Error(t, doc.Err())
	assert.Nil(t, findElement(doc.Root, atom.Title))
}

func TestParseMaxDepth(t *testing.T) {
	text := strings.Repeat("<div>", 20) + "x" + strings.Repeat("</div>", 20)
	doc := mustParse(t, text, &Options{MaxDepth: 1})

	divs := 0
	Walk(doc.Root, func(n *Node) bool {
		if n.Is(atom.Div) {
			divs++
		}
		return true
	})
	// html and body take two of the minimum eight levels
	assert.Equal(t, 6, divs)
	assert.Contains(t, doc.Codes(), DepthExceeded)
	assert.Error(t, doc.Err())
	assert.Equal(t, "x", findElement(doc.Root, atom.Body).Text())
}

func TestParseSink(t *testing.T) {
	var got []Code
	sink := SinkFunc(func(d Diagnostic) { got = append(got, d.Code) })
	doc := mustParse(t, "<b><p>x</p></b>", &Options{Sink: sink})
	assert.Equal(t, doc.Codes(), got)
	assert.Equal(t, 2, doc.Warnings())
	assert.Zero(t, doc.Errors())
	assert.NoError(t, doc.Err())
}

func TestParseReadError(t *testing.T) {
	r := io.MultiReader(strings.NewReader("<p>x"), iotest.ErrReader(io.ErrUnexpectedEOF))
	_, err := Parse(r, nil)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// Rendering a repaired tree and parsing the result again must not change it.
func TestParseIdempotent(t *testing.T) {
	inputs := []string{
		"<p>hello",
		"<b><p>x</p></b>",
		"<b>a<div>b</div></b>",
		"<li>one<li>two",
		"<table><tr><b>x</b></tr></table>",
		"<dt>a<dd>b",
		"<h1>a<hr>b</h1>",
		"<h1>a<center>b</center>c</h1>",
		"<pre>a<h2>x</h2>b</pre>",
		"<select>junk<option>a<option>b</select>",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			var first, second strings.Builder
			require.NoError(t, Render(&first, mustParse(t, in, nil).Root))
			require.NoError(t, Render(&second, mustParse(t, first.String(), nil).Root))
			assert.Equal(t, first.String(), second.String())
		})
	}
}

func FuzzParse(f *testing.F) {
	seeds := []string{
		"",
		"<p>hello",
		"<b><i>x</b>y</i>",
		"<table><tr><td><table><tr><td>x</table>y",
		"<ul><li><ul><li>a</ul>b",
		"<a href=x><a href=y>z",
		"<pre>\n<h1>x</h1>y</pre>",
		"<frameset><frame>text<p>x",
		"<select><option>a<div>b</select>",
		"<script>if (a < b) { x = '</div>'; }</script>",
		"<!DOCTYPE><html><html><head><body><body>",
		"<h2><center>x</center>y</h2>",
		"&#150;&amp&unknown;<x y='<<<<<<<<<<<<'>",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		if !utf8.ValidString(s) {
			t.Skip("Invalid UTF-8")
		}
		doc, err := Parse(strings.NewReader(s), &Options{MaxDepth: 64})
		require.NoError(t, err)
		require.NoError(t, CheckLinks(doc.Root))
		require.NotNil(t, findElement(doc.Root, atom.Html))
	})
}
