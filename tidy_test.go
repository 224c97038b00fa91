package tidy

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/atom"

	"github.com/dpotapov/go-tidy/thtml"
)

func findElement(n *thtml.Node, a atom.Atom) *thtml.Node {
	var found *thtml.Node
	thtml.Walk(n, func(c *thtml.Node) bool {
		if found == nil && c.Is(a) {
			found = c
		}
		return found == nil
	})
	return found
}

func TestParserCharset(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		encoding    string
		text        string
	}{
		{
			name:     "meta declaration",
			data:     []byte("<meta charset=\"iso-8859-1\"><title>t</title><p>caf\xe9</p>"),
			encoding: "windows-1252",
			text:     "café",
		},
		{
			name:        "content type",
			data:        []byte("<title>t</title><p>caf\xc3\xa9</p>"),
			contentType: "text/html; charset=utf-8",
			encoding:    "utf-8",
			text:        "café",
		},
		{
			name:     "byte order mark",
			data:     []byte("\xef\xbb\xbf<title>t</title><p>\xe2\x82\xac</p>"),
			encoding: "utf-8",
			text:     "€",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Parser{}
			res, err := p.Parse(bytes.NewReader(tt.data), tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.encoding, res.Encoding)
			para := findElement(res.Root, atom.P)
			require.NotNil(t, para)
			assert.Equal(t, tt.text, para.Text())
		})
	}
}

func TestParserLineEndings(t *testing.T) {
	res, err := (&Parser{}).Parse(strings.NewReader("<title>t</title>\r\n<pre>a\r\nb\rc</pre>"), "")
	require.NoError(t, err)
	assert.NotContains(t, res.Source, "\r")
	assert.Equal(t, "a\nb\nc", findElement(res.Root, atom.Pre).Text())
}

func TestParserStats(t *testing.T) {
	res, err := (&Parser{}).Parse(strings.NewReader("<p>x"), "")
	require.NoError(t, err)
	assert.Equal(t, Stats{Warnings: 1, Infos: 1, Nodes: 5, Elements: 4, Implicit: 3}, res.Stats)
	assert.NoError(t, res.Err())
}

func TestParserConfig(t *testing.T) {
	p := &Parser{Config: &Config{
		NewInlineTags: TagList{"foo"},
		Filter:        "severity >= Warning",
	}}
	res, err := p.Parse(strings.NewReader(`<title>t</title><p><foo>x</foo><blink>y</blink>`), "")
	require.NoError(t, err)

	assert.Contains(t, res.Document.Codes(), thtml.ProprietaryElement)
	assert.NotContains(t, res.Document.Codes(), thtml.UnknownElement)
	for _, d := range res.Diagnostics {
		assert.GreaterOrEqual(t, d.Severity, thtml.Warning, d.Code)
	}
	foo := findElement(res.Root, atom.P).FirstChild
	require.NotNil(t, foo)
	assert.Equal(t, "foo", foo.Data)
	assert.True(t, foo.Tag.Declared())
}

func TestParserDepthError(t *testing.T) {
	p := &Parser{Config: &Config{MaxDepth: 8}}
	res, err := p.Parse(strings.NewReader(strings.Repeat("<div>", 10)), "")
	require.NoError(t, err)

	err = res.Err()
	require.Error(t, err)
	var d thtml.Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, thtml.DepthExceeded, d.Code)
	assert.GreaterOrEqual(t, res.Stats.Errors, 1)
}

func TestParserInvalidConfig(t *testing.T) {
	p := &Parser{Config: &Config{Filter: "severity +"}}
	_, err := p.Parse(strings.NewReader("<p>"), "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "configure parser")

	_, err2 := p.Parse(strings.NewReader("<p>"), "")
	assert.Equal(t, err, err2)

	p = &Parser{Config: &Config{NewBlockTags: TagList{"table"}}}
	_, err = p.Parse(strings.NewReader("<p>"), "")
	assert.ErrorIs(t, err, thtml.ErrTagDeclared)
}

func TestParserConcurrent(t *testing.T) {
	p := &Parser{Config: &Config{NewBlockTags: TagList{"card"}}}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Parse(strings.NewReader("<card><b>x</card>y"), "")
			if assert.NoError(t, err) {
				assert.NotNil(t, findElement(res.Root, atom.B))
			}
		}()
	}
	wg.Wait()
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("<title>t</title><p>hello"), 0o644))

	p := &Parser{}
	res, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", findElement(res.Root, atom.P).Text())

	_, err = p.ParseFile(filepath.Join(t.TempDir(), "missing.html"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReportMarkup(t *testing.T) {
	src := "<title>t</title>\n<p>a<b>b</b>c"
	res, err := (&Parser{}).Parse(strings.NewReader(src), "")
	require.NoError(t, err)

	var d thtml.Diagnostic
	for _, x := range res.Diagnostics {
		if x.Code == thtml.MissingEndTag {
			d = x
		}
	}
	require.Equal(t, thtml.MissingEndTag, d.Code)

	r := &Report{File: "x.html", Source: res.Source, Context: -1, Markup: true}
	var sb strings.Builder
	require.NoError(t, r.Write(&sb, []thtml.Diagnostic{d}))
	assert.Equal(t, "x.html:2:1: info: missing </p> [missing-end-tag]\n"+
		"    <body><p>...</p></body>\n", sb.String())
}
