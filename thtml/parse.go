package thtml

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html/atom"
)

// DefaultMaxDepth is the element nesting limit used when Options.MaxDepth is zero.
const DefaultMaxDepth = 512

// minDepth leaves room for html, body and a few levels of content.
const minDepth = 8

// Options configure Parse. The zero value is ready to use.
type Options struct {
	// XMLTags keeps the case of tag and attribute names and discards elements
	// the catalog does not know.
	XMLTags bool

	// MaxDepth limits element nesting. Elements below the limit are dropped
	// and their content is kept in the deepest allowed element.
	MaxDepth int

	// Catalog holds user-declared tags. Parse freezes it.
	Catalog *Catalog

	// Sink, if set, receives every diagnostic as it is found.
	Sink Sink

	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

// Document is the result of Parse.
type Document struct {
	// Root is a RootNode holding the doctype, the html element and any
	// comments or processing instructions around them.
	Root *Node

	// Doctype is the parsed document type declaration, if any.
	Doctype *Node

	// Versions is the union of the HTML versions of the explicit tags in the
	// document. Declared is the version named by the doctype.
	Versions Version
	Declared Version

	// Collector holds the diagnostics in the order they were reported.
	Collector
}

// A parser builds the repaired tree for one document.
type parser struct {
	z    *Tokenizer
	cat  *Catalog
	sink Sink

	// doc is the document root.
	doc                      *Node
	doctype                  *Node
	html, head, body, frames *Node

	// open holds the elements whose construction routines are running, the
	// innermost last.
	open   nodeStack
	istack inlineStack

	// lookahead is the token pushed back by unget. A deferred lookahead is
	// delivered after the pending synthesized inline tokens.
	lookahead *Token
	deferred  bool

	// last and repeats detect a token bouncing between routines.
	last    any
	repeats int

	xml      bool
	maxDepth int
	versions Version

	afterBody, afterBodyReported bool
	afterFramesetReported        bool
}

// Parse reads an HTML document from r and returns the repaired tree. Markup
// problems never fail the parse; they are corrected and reported as
// diagnostics. The returned error is only set when reading r fails.
func Parse(r io.Reader, opts *Options) (*Document, error) {
	if opts == nil {
		opts = &Options{}
	}
	d := &Document{Root: &Node{Type: RootNode}}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Catalog != nil && !opts.Catalog.Frozen() {
		opts.Catalog.Freeze()
	}
	sink := SinkFunc(func(diag Diagnostic) {
		d.Collector.Report(diag)
		logger.Debug(diag.Message, "line", diag.Span.Line, "column", diag.Span.Column, "code", diag.Code, "severity", diag.Severity)
		if opts.Sink != nil {
			opts.Sink.Report(diag)
		}
	})

	p := &parser{
		z:        NewTokenizer(r, sink),
		cat:      opts.Catalog,
		sink:     sink,
		doc:      d.Root,
		istack:   newInlineStack(),
		xml:      opts.XMLTags,
		maxDepth: opts.MaxDepth,
	}
	if p.maxDepth <= 0 {
		p.maxDepth = DefaultMaxDepth
	}
	p.maxDepth = max(p.maxDepth, minDepth)
	p.z.SetXML(opts.XMLTags)

	p.parseDocument()
	if err := p.z.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	d.Doctype = p.doctype
	d.Versions = p.versions
	if p.doctype != nil {
		d.Declared = doctypeVersion(p.doctype)
	}
	nodes := 0
	Walk(d.Root, func(*Node) bool { nodes++; return true })
	logger.Debug("parsed document", "nodes", nodes, "errors", d.Errors(), "warnings", d.Warnings())
	return d, nil
}

// next returns the next token for a routine scanning text in mode, or nil at
// the end of input.
func (p *parser) next(mode Mode) *Token {
	for {
		tok := p.deliver(mode)
		if tok == nil {
			return nil
		}
		var key any = tok
		if tok.entry != nil {
			key = tok.entry
		}
		if key != p.last {
			p.last, p.repeats = key, 0
			return tok
		}
		// A token handed back and forth more often than there are open
		// elements is not going to be placed.
		if p.repeats++; p.repeats <= p.maxDepth+minDepth {
			return tok
		}
		p.last, p.repeats = nil, 0
		p.reportTok(DiscardingUnexpected, tok, "discarding unexpected %s", tokDesc(tok))
	}
}

func (p *parser) deliver(mode Mode) *Token {
	if t := p.lookahead; t != nil && !p.deferred && (t.Type != TextToken || !p.istack.pending()) {
		p.lookahead = nil
		return t
	}
	if p.istack.pending() {
		return p.istack.next()
	}
	if t := p.lookahead; t != nil {
		p.lookahead, p.deferred = nil, false
		return t
	}
	for {
		t := p.z.Next(mode)
		if t == nil || !p.xml || !(t.isStart() || t.Type == EndTagToken) || p.cat.Lookup(t.Data) != nil {
			return t
		}
		if t.Type != EndTagToken {
			p.reportTok(UnexpectedXMLElement, t, "discarding unknown element %s", describe(t.Data, false))
		}
	}
}

// unget pushes tok back so that the next call to next returns it again.
func (p *parser) unget(tok *Token) {
	if tok.entry != nil && p.istack.rewind(tok.entry) {
		return
	}
	if p.lookahead != nil {
		// Only a synthesized token can be handed back while a deferred one
		// waits, and it is synthesized again when its entry is reached.
		return
	}
	p.lookahead, p.deferred = tok, false
}

// drop forgets tok if it is the pushed back token.
func (p *parser) drop(tok *Token) {
	if p.lookahead == tok {
		p.lookahead, p.deferred = nil, false
	}
}

// reconstruct schedules the recorded inline elements to be reopened before
// tok. It returns the number of elements scheduled; tok is pushed back only
// when that is positive.
func (p *parser) reconstruct(tok *Token) int {
	if p.istack.pending() || p.lookahead != nil {
		return 0
	}
	n := p.istack.reconstruct()
	if n > 0 {
		p.lookahead, p.deferred = tok, true
	}
	return n
}

// descend runs the construction routine of el, which has already been placed.
// It returns false if el was dropped because it would nest too deep.
func (p *parser) descend(el *Node, mode Mode) bool {
	if el.Flags&SelfClosed != 0 || el.HasModel(CMEmpty) || el.Tag != nil && el.Tag.Category == CatEmpty {
		return true
	}
	if len(p.open) >= p.maxDepth {
		p.report(DepthExceeded, el, el.Span, "discarding %s nested deeper than %d elements", describe(el.Data, false), p.maxDepth)
		p.istack.release(el)
		el.Detach()
		return false
	}
	n := len(p.open)
	p.open = append(p.open, el)
	p.parseElement(el, mode)
	p.open = p.open[:n]
	return true
}

// parseElement dispatches on the category of el.
func (p *parser) parseElement(el *Node, mode Mode) {
	if el.Tag == nil {
		p.parseGeneric(el, mode)
		return
	}
	switch el.Tag.Category {
	case CatHTML:
		p.parseHTML(el)
	case CatHead:
		p.parseHead(el)
	case CatTitle:
		p.parseTitle(el)
	case CatScript:
		p.parseScript(el)
	case CatBody:
		p.parseBody(el)
	case CatFrameset:
		p.parseFrameset(el)
	case CatNoFrames:
		p.parseNoFrames(el, mode)
	case CatBlock:
		p.parseBlock(el)
	case CatInline:
		p.parseInline(el, mode)
	case CatList:
		p.parseList(el)
	case CatDefList:
		p.parseDefList(el)
	case CatTable:
		p.parseTable(el)
	case CatColGroup:
		p.parseColGroup(el)
	case CatRowGroup:
		p.parseRowGroup(el)
	case CatRow:
		p.parseRow(el)
	case CatPre:
		p.parsePre(el)
	case CatSelect:
		p.parseSelect(el)
	case CatOptGroup:
		p.parseOptGroup(el)
	case CatText:
		p.parseText(el)
	}
}

// newElement creates the element for a start tag.
func (p *parser) newElement(tok *Token) *Node {
	tag := p.cat.Lookup(tok.Data)
	n := &Node{Type: ElementNode, Tag: tag, Data: tok.Data, Attr: tok.Attr, Span: tok.Span}
	if tag != nil {
		n.DataAtom = tag.Atom
	} else {
		n.DataAtom = atom.Lookup([]byte(tok.Data))
	}
	if tok.Type == SelfClosingTagToken {
		n.Flags |= SelfClosed
	}
	if tok.Implicit {
		n.Flags |= Implicit
	}
	if tok.entry != nil {
		p.istack.adopt(tok.entry, n)
		return n
	}
	switch {
	case tok.Implicit:
	case tag == nil:
		p.report(UnknownElement, n, tok.Span, "%s is not recognized", describe(tok.Data, false))
	case tag.Versions == Proprietary && !tag.Declared():
		p.versions |= tag.Versions
		p.report(ProprietaryElement, n, tok.Span, "%s is not approved by W3C", describe(tok.Data, false))
	default:
		p.versions |= tag.Versions
	}
	return n
}

// infer creates an implicit element for a tag of the static table.
func (p *parser) infer(name string, at Span) *Node {
	tag := lookupStatic(name)
	return &Node{Type: ElementNode, Tag: tag, DataAtom: tag.Atom, Data: tag.Name, Flags: Implicit, Span: at}
}

// insert appends the element for tok to parent and parses its content.
func (p *parser) insert(parent *Node, tok *Token, mode Mode) *Node {
	el := p.newElement(tok)
	parent.AppendChild(el)
	p.descend(el, mode)
	return el
}

// wrap appends an implicit name element to parent and parses it starting
// with tok.
func (p *parser) wrap(parent *Node, name string, tok *Token, mode Mode) {
	el := p.infer(name, tok.Span)
	p.report(InsertingTag, el, tok.Span, "inserting implicit %s before %s", describe(name, false), tokDesc(tok))
	parent.AppendChild(el)
	p.unget(tok)
	if !p.descend(el, mode) {
		p.drop(tok)
	}
}

// addText appends the text of tok to parent, merging it with a text node
// that is already last.
func (p *parser) addText(parent *Node, tok *Token) {
	if last := parent.LastChild; last != nil && last.Type == TextNode {
		last.Data += tok.Data
		last.Span.Length = tok.Span.End() - last.Span.Offset
		return
	}
	parent.AppendChild(&Node{Type: TextNode, Data: tok.Data, Span: tok.Span})
}

var miscNodeTypes = map[TokenType]NodeType{
	CommentToken:    CommentNode,
	ProcInstToken:   ProcInstNode,
	CDataToken:      CDataNode,
	SectionToken:    SectionNode,
	ServerCodeToken: ServerCodeNode,
	XMLDeclToken:    XMLDeclNode,
}

// isMisc reports whether tok is markup that is kept wherever it appears.
func isMisc(tok *Token) bool {
	_, ok := miscNodeTypes[tok.Type]
	return ok
}

func (p *parser) addMisc(parent *Node, tok *Token) {
	parent.AppendChild(&Node{Type: miscNodeTypes[tok.Type], Data: tok.Data, Server: tok.Server, Span: tok.Span})
}

// addBreak inserts a <br> standing for the misplaced tag tok.
func (p *parser) addBreak(parent *Node, tok *Token) {
	br := p.newElement(&Token{Type: StartTagToken, Data: tok.Data, Span: tok.Span, Implicit: true})
	br.Flags &^= Implicit
	br.Coerce(lookupStatic("br"))
	p.report(CoercedElement, br, tok.Span, "replacing %s with <br>", tokDesc(tok))
	parent.AppendChild(br)
}

// lookupTok resolves the tag of a start or end tag token.
func (p *parser) lookupTok(tok *Token) *TagEntry {
	if tok.isStart() || tok.Type == EndTagToken {
		return p.cat.Lookup(tok.Data)
	}
	return nil
}

// closesAncestor reports whether tok is the end tag of an element enclosing
// the current one. The search does not cross an explicit table.
func (p *parser) closesAncestor(tok *Token) bool {
	if tok.Type != EndTagToken {
		return false
	}
	for i := len(p.open) - 2; i >= 0; i-- {
		n := p.open[i]
		if n.Data == tok.Data {
			return true
		}
		if n.Is(atom.Table) && !n.Implicit() {
			return false
		}
	}
	return false
}

// inTable reports whether a table encloses the current element.
func (p *parser) inTable() bool {
	for i := len(p.open) - 1; i >= 0; i-- {
		if p.open[i].Is(atom.Table) {
			return true
		}
	}
	return false
}

// strayEnd handles an end tag that closes neither el nor an enclosing element.
func (p *parser) strayEnd(el *Node, tok *Token) {
	switch {
	case !p.xml && (tok.Data == "br" || tok.Data == "p"):
		p.addBreak(el, tok)
	case p.istack.popEnd(p.lookupTok(tok)):
		// the element was closed earlier by block content
	default:
		p.discard(tok)
	}
}

// discard drops tok with a diagnostic.
func (p *parser) discard(tok *Token) {
	p.reportTok(DiscardingUnexpected, tok, "discarding unexpected %s", tokDesc(tok))
}

// missingBefore reports that el ends without its end tag because of tok.
func (p *parser) missingBefore(el *Node, tok *Token) {
	if el.Implicit() || el.HasModel(CMOpt) {
		return
	}
	p.report(MissingEndTagBefore, el, tok.Span, "missing %s before %s", describe(el.Data, true), tokDesc(tok))
}

// endOfInput reports an explicit element left open at the end of input.
func (p *parser) endOfInput(el *Node) {
	if el.Implicit() || el.Closed() {
		return
	}
	sev := Warning
	if el.HasModel(CMOpt) {
		sev = Info
	}
	p.reportSev(sev, MissingEndTag, el, el.Span, "missing %s", describe(el.Data, true))
}

func (p *parser) report(code Code, n *Node, at Span, format string, args ...any) {
	p.reportSev(code.Severity(), code, n, at, format, args...)
}

func (p *parser) reportSev(sev Severity, code Code, n *Node, at Span, format string, args ...any) {
	d := Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     at,
		Node:     n,
	}
	if n != nil && n.Type == ElementNode {
		d.Element = n.Data
	}
	p.sink.Report(d)
}

func (p *parser) reportTok(code Code, tok *Token, format string, args ...any) {
	d := Diagnostic{
		Severity: code.Severity(),
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     tok.Span,
	}
	if tok.isStart() || tok.Type == EndTagToken {
		d.Element = tok.Data
	}
	p.sink.Report(d)
}

// tokDesc names a token in diagnostics.
func tokDesc(tok *Token) string {
	switch tok.Type {
	case StartTagToken, SelfClosingTagToken:
		return describe(tok.Data, false)
	case EndTagToken:
		return describe(tok.Data, true)
	case TextToken:
		return "plain text"
	case DoctypeToken:
		return "<!DOCTYPE>"
	}
	return strings.ToLower(tok.Type.String())
}

// isHeadOnly reports whether tag may only appear in the head.
func isHeadOnly(tag *TagEntry) bool {
	return tag != nil && tag.Model&CMHead != 0 && tag.Model&(CMBlock|CMInline|CMObject) == 0
}

// isBlockTag reports whether tag cannot appear inside inline content.
func isBlockTag(tag *TagEntry) bool {
	return tag.Model&CMInline == 0 &&
		tag.Model&(CMBlock|CMList|CMDefList|CMTable|CMRowGroup|CMRow) != 0
}

// isTableModel reports whether tag belongs inside table structure.
func isTableModel(tag *TagEntry) bool {
	return tag != nil && tag.Model&(CMTable|CMRowGroup|CMRow) != 0
}

// isStray reports whether tag is only allowed inside a select or a frameset.
func isStray(tag *TagEntry) bool {
	return tag.Model&(CMField|CMFrames) != 0 && tag.Model&(CMInline|CMBlock) == 0
}

// trimTrailingSpace drops whitespace at the end of the last text child of el.
func trimTrailingSpace(el *Node) {
	last := el.LastChild
	if last == nil || last.Type != TextNode {
		return
	}
	last.Data = strings.TrimRight(last.Data, whitespace)
	if last.Data == "" {
		el.RemoveChild(last)
	}
}

// findChild returns the first child of n with the given atom.
func findChild(n *Node, a atom.Atom) *Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Is(a) {
			return c
		}
	}
	return nil
}
