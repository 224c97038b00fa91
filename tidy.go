// Package tidy parses real-world HTML into a repaired document tree and
// reports every repair it makes.
//
// The heavy lifting happens in package thtml; this package adds input
// decoding, YAML configuration, diagnostic filtering and report formatting.
package tidy

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/net/html/charset"

	"github.com/dpotapov/go-tidy/thtml"
)

// Parser parses documents with one configuration. A Parser is safe for
// concurrent use; its fields must not be changed after the first Parse.
type Parser struct {
	// Config holds the parser settings. Nil means the defaults.
	Config *Config

	// Logger configures logging for internal events.
	Logger *slog.Logger

	// init is used to initialize the parser only once.
	init sync.Once

	// logger is a private logger instance that is used to log internal events.
	logger *slog.Logger

	config  Config
	catalog *thtml.Catalog
	filter  *Filter
	initErr error
}

// Stats summarizes a parse.
type Stats struct {
	// Errors, Warnings and Infos count the diagnostics that passed the filter.
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`

	// Nodes counts all nodes of the tree, Elements only element nodes and
	// Implicit the elements the parser inferred.
	Nodes    int `json:"nodes"`
	Elements int `json:"elements"`
	Implicit int `json:"implicit"`
}

// Result is a parsed document.
type Result struct {
	*thtml.Document

	// Source is the decoded input with line endings normalized to "\n". Spans
	// of nodes and diagnostics refer to it.
	Source string

	// Encoding is the name of the character encoding the input was decoded from.
	Encoding string

	// Diagnostics holds the diagnostics that passed the filter. The unfiltered
	// list is in Document.Diagnostics.
	Diagnostics []thtml.Diagnostic

	Stats Stats
}

// Err joins the error diagnostics of the result, or returns nil if there are none.
func (r *Result) Err() error {
	var errs []error
	for _, d := range r.Diagnostics {
		if d.Severity == thtml.Error {
			errs = append(errs, d)
		}
	}
	return errors.Join(errs...)
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func (p *Parser) setup() error {
	p.init.Do(func() {
		// TODO: replace with DiscardHandler when the minimum Go version is 1.24
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		if p.Logger != nil {
			p.logger = p.Logger
		}
		if p.Config != nil {
			p.config = *p.Config
		}
		cat, err := p.config.Catalog()
		if err != nil {
			p.initErr = fmt.Errorf("configure parser: %w", err)
			return
		}
		p.catalog = cat
		f, err := CompileFilter(p.config.Filter)
		if err != nil {
			p.initErr = fmt.Errorf("configure parser: %w", err)
			return
		}
		p.filter = f
	})
	return p.initErr
}

// Parse decodes r and parses it. The character encoding is taken from a byte
// order mark, contentType (a Content-Type header value, may be empty) or a
// <meta> declaration, in that order of precedence, and otherwise guessed.
// Markup errors never fail the parse; the returned error is set when reading
// r fails or the configuration is invalid.
func (p *Parser) Parse(r io.Reader, contentType string) (*Result, error) {
	if err := p.setup(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	enc, name, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s input: %w", name, err)
	}
	src := newlines.Replace(strings.TrimPrefix(string(decoded), "\uFEFF"))

	doc, err := thtml.Parse(strings.NewReader(src), &thtml.Options{
		XMLTags:  p.config.InputXML,
		MaxDepth: p.config.MaxDepth,
		Catalog:  p.catalog,
		Logger:   p.logger,
	})
	if err != nil {
		return nil, err
	}
	diags, err := p.filter.Apply(doc.Diagnostics)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Document:    doc,
		Source:      src,
		Encoding:    name,
		Diagnostics: diags,
		Stats:       collectStats(doc.Root, diags),
	}
	p.logger.Debug("Parse document", "encoding", name, "nodes", res.Stats.Nodes,
		"errors", res.Stats.Errors, "warnings", res.Stats.Warnings)
	return res, nil
}

// ParseFile parses the file at path.
func (p *Parser) ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	res, err := p.Parse(f, "")
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return res, nil
}

func collectStats(root *thtml.Node, diags []thtml.Diagnostic) Stats {
	var s Stats
	for _, d := range diags {
		switch d.Severity {
		case thtml.Error:
			s.Errors++
		case thtml.Warning:
			s.Warnings++
		default:
			s.Infos++
		}
	}
	thtml.Walk(root, func(n *thtml.Node) bool {
		if n.Type == thtml.RootNode {
			return true
		}
		s.Nodes++
		if n.Type == thtml.ElementNode {
			s.Elements++
			if n.Implicit() {
				s.Implicit++
			}
		}
		return true
	})
	return s
}
