package thtml

import (
	"fmt"
	"io"
	"strings"
)

// Mode selects how the Tokenizer treats the text it scans.
type Mode uint8

const (
	// ContentMode collapses whitespace runs to a single space.
	ContentMode Mode = iota
	// IgnoreLeadingWhitespace is ContentMode but drops whitespace at the start
	// of a text run. Text made only of whitespace produces no token.
	IgnoreLeadingWhitespace
	// Preformatted keeps whitespace as written.
	Preformatted
	// IgnoreMarkup treats everything up to the end of input as text.
	IgnoreMarkup
	// CDataContent scans raw text up to the end tag of the current container.
	CDataContent
)

func (m Mode) String() string {
	switch m {
	case ContentMode:
		return "content"
	case IgnoreLeadingWhitespace:
		return "ignore-leading-whitespace"
	case Preformatted:
		return "preformatted"
	case IgnoreMarkup:
		return "ignore-markup"
	case CDataContent:
		return "cdata-content"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// A Tokenizer returns a stream of HTML Tokens. It never fails: anomalies are
// reported to the sink and corrected in place.
type Tokenizer struct {
	in   *input
	sink Sink

	// xml keeps the case of tag and attribute names.
	xml bool

	// container is the element whose raw content CDataContent mode scans.
	container string

	buf []rune
}

// NewTokenizer returns a Tokenizer reading r. Diagnostics go to sink, which may be nil.
func NewTokenizer(r io.Reader, sink Sink) *Tokenizer {
	return &Tokenizer{in: newInput(r), sink: sink}
}

// SetXML switches case-preserving tag names on or off.
func (z *Tokenizer) SetXML(xml bool) { z.xml = xml }

// SetContainer names the element whose content CDataContent mode reads.
func (z *Tokenizer) SetContainer(name string) { z.container = name }

// Err returns the first read error other than io.EOF.
func (z *Tokenizer) Err() error { return z.in.err }

func (z *Tokenizer) diag(code Code, at Span, element, attr, format string, args ...any) {
	if z.sink == nil {
		return
	}
	z.sink.Report(Diagnostic{
		Severity: code.Severity(),
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     at,
		Element:  element,
		Attr:     attr,
	})
}

// Next scans the next token. It returns nil at the end of input.
func (z *Tokenizer) Next(mode Mode) *Token {
	if mode == CDataContent {
		return z.readCDATA()
	}
	z.buf = z.buf[:0]
	var start Span
	lastSpace := false
	add := func(pr posRune, r rune) {
		if len(z.buf) == 0 {
			start = pr.at
		}
		z.buf = append(z.buf, r)
	}
	for {
		pr := z.in.read()
		c := pr.r
		if c == eof {
			break
		}
		if mode == IgnoreMarkup {
			add(pr, c)
			continue
		}
		switch {
		case c == '<':
			nx := z.in.read()
			if !startsMarkup(nx.r) {
				z.in.unread(nx)
				add(pr, c)
				lastSpace = false
				continue
			}
			if len(z.buf) > 0 {
				z.in.unread(nx)
				z.in.unread(pr)
				return z.textToken(start)
			}
			if tok := z.readMarkup(pr, nx); tok != nil {
				return tok
			}
			add(pr, c)
			lastSpace = false
		case c == '&':
			s := z.readEntity(pr, false)
			for _, r := range s {
				add(pr, r)
			}
			lastSpace = false
		case isSpace(c) && mode != Preformatted:
			if len(z.buf) == 0 && mode == IgnoreLeadingWhitespace {
				continue
			}
			if lastSpace {
				continue
			}
			add(pr, ' ')
			lastSpace = true
		default:
			add(pr, c)
			lastSpace = false
		}
	}
	if len(z.buf) > 0 {
		return z.textToken(start)
	}
	return nil
}

func (z *Tokenizer) textToken(start Span) *Token {
	return z.token(TextToken, string(z.buf), start)
}

func (z *Tokenizer) token(tt TokenType, data string, start Span) *Token {
	start.Length = z.in.here().Offset - start.Offset
	return &Token{Type: tt, Data: data, Span: start}
}

// startsMarkup reports whether '<' followed by r may begin markup.
func startsMarkup(r rune) bool {
	return isLetter(r) || r == '/' || r == '!' || r == '?' || r == '%' || r == '#'
}

// readMarkup scans the markup that starts with lt and nx. It returns nil if the
// characters turn out to be text; they are then pushed back except for lt.
func (z *Tokenizer) readMarkup(lt, nx posRune) *Token {
	switch {
	case isLetter(nx.r):
		z.in.unread(nx)
		return z.readTag(lt.at, false)
	case nx.r == '/':
		n2 := z.in.read()
		if isLetter(n2.r) {
			z.in.unread(n2)
			return z.readTag(lt.at, true)
		}
		z.in.unread(n2)
		z.in.unread(nx)
		return nil
	case nx.r == '!':
		return z.readDeclaration(lt.at)
	case nx.r == '?':
		return z.readProcInst(lt.at)
	case nx.r == '%':
		return z.readServer(lt.at, ASP, "%>")
	case nx.r == '#':
		return z.readServer(lt.at, JSTE, "#>")
	}
	z.in.unread(nx)
	return nil
}

// readName reads a tag name starting at the next character.
func (z *Tokenizer) readName() string {
	var name []rune
	for {
		pr := z.in.read()
		if !isNameChar(pr.r) || (len(name) == 0 && !isLetter(pr.r)) {
			z.in.unread(pr)
			break
		}
		name = append(name, pr.r)
	}
	if z.xml {
		return string(name)
	}
	return strings.ToLower(string(name))
}

func (z *Tokenizer) readTag(start Span, end bool) *Token {
	name := z.readName()
	if end {
		attrs, _ := z.readAttrs(name, start)
		if len(attrs) > 0 {
			z.diag(AttributesOnEndTag, start, name, "", "discarding attributes on end tag </%s>", name)
		}
		return z.token(EndTagToken, name, start)
	}
	attrs, selfClosing := z.readAttrs(name, start)
	tt := StartTagToken
	if selfClosing {
		tt = SelfClosingTagToken
	}
	tok := z.token(tt, name, start)
	tok.Attr = attrs
	return tok
}

// readDeclaration scans markup starting with "<!".
func (z *Tokenizer) readDeclaration(start Span) *Token {
	pr := z.in.read()
	switch {
	case pr.r == '-':
		n := z.in.read()
		if n.r == '-' {
			return z.readComment(start)
		}
		z.in.unread(n)
		z.in.unread(pr)
	case pr.r == '[':
		if z.consume("CDATA[", false) {
			data, ok := z.scanUntil("]]>")
			if !ok {
				z.diag(UnterminatedMarkup, start, "", "", "unterminated CDATA section")
			}
			return z.token(CDataToken, data, start)
		}
		data, ok := z.scanUntil("]>")
		if !ok {
			z.diag(UnterminatedMarkup, start, "", "", "unterminated conditional section")
		}
		return z.token(SectionToken, data, start)
	case pr.r == 'd' || pr.r == 'D':
		z.in.unread(pr)
		if z.consume("doctype", true) {
			return z.readDoctype(start)
		}
	default:
		z.in.unread(pr)
	}
	// Anything else is a bogus declaration, kept as a comment.
	data, ok := z.scanUntil(">")
	if !ok {
		z.diag(UnterminatedMarkup, start, "", "", "unterminated declaration")
	}
	z.diag(MalformedComment, start, "", "", "malformed declaration <!%s> kept as a comment", data)
	return z.token(CommentToken, data, start)
}

// readComment scans a comment body; "<!--" has been consumed.
func (z *Tokenizer) readComment(start Span) *Token {
	var buf []rune
	reported := false
	for {
		pr := z.in.read()
		if pr.r == eof {
			z.diag(UnterminatedMarkup, start, "", "", "unterminated comment")
			break
		}
		if pr.r == '-' {
			n := z.in.read()
			if n.r == '-' {
				m := z.in.read()
				if m.r == '>' {
					break
				}
				if m.r == '!' {
					if m2 := z.in.read(); m2.r == '>' {
						break
					} else {
						z.in.unread(m2)
					}
				}
				if !reported {
					z.diag(MalformedComment, pr.at, "", "", "adjacent hyphens within comment")
					reported = true
				}
				buf = append(buf, '-', '-')
				z.in.unread(m)
				continue
			}
			z.in.unread(n)
		}
		buf = append(buf, pr.r)
	}
	return z.token(CommentToken, string(buf), start)
}

// readDoctype scans a doctype body; "<!doctype" has been consumed. A '>' inside
// an internal subset does not end the declaration.
func (z *Tokenizer) readDoctype(start Span) *Token {
	var buf []rune
	depth := 0
	for {
		pr := z.in.read()
		if pr.r == eof {
			z.diag(UnterminatedMarkup, start, "", "", "unterminated DOCTYPE declaration")
			break
		}
		if pr.r == '[' {
			depth++
		} else if pr.r == ']' && depth > 0 {
			depth--
		} else if pr.r == '>' && depth == 0 {
			break
		}
		buf = append(buf, pr.r)
	}
	return z.token(DoctypeToken, strings.TrimSpace(string(buf)), start)
}

// readProcInst scans markup starting with "<?".
func (z *Tokenizer) readProcInst(start Span) *Token {
	if z.consume("php", true) {
		return z.readServer(start, PHP, "?>")
	}
	if z.consume("xml", false) {
		pr := z.in.read()
		if isSpace(pr.r) || pr.r == '?' {
			z.in.unread(pr)
			data, ok := z.scanUntil("?>")
			if !ok {
				z.diag(UnterminatedMarkup, start, "", "", "unterminated XML declaration")
			}
			return z.token(XMLDeclToken, "xml"+data, start)
		}
		z.in.unread(pr)
		data, ok := z.scanProcInst()
		if !ok {
			z.diag(UnterminatedMarkup, start, "", "", "unterminated processing instruction")
		}
		return z.token(ProcInstToken, "xml"+data, start)
	}
	data, ok := z.scanProcInst()
	if !ok {
		z.diag(UnterminatedMarkup, start, "", "", "unterminated processing instruction")
	}
	return z.token(ProcInstToken, data, start)
}

// scanProcInst reads a processing instruction body. In XML mode it ends at "?>",
// otherwise at the first '>' and a trailing '?' is dropped.
func (z *Tokenizer) scanProcInst() (string, bool) {
	if z.xml {
		return z.scanUntil("?>")
	}
	data, ok := z.scanUntil(">")
	return strings.TrimSuffix(data, "?"), ok
}

func (z *Tokenizer) readServer(start Span, lang ServerLang, term string) *Token {
	data, ok := z.scanUntil(term)
	if !ok {
		z.diag(UnterminatedMarkup, start, "", "", "unterminated %s code block", lang)
	}
	tok := z.token(ServerCodeToken, data, start)
	tok.Server = lang
	return tok
}

// scanUntil reads up to and including term and returns the text before it.
// At the end of input it returns everything read and false.
func (z *Tokenizer) scanUntil(term string) (string, bool) {
	t := []rune(term)
	var buf []rune
	for {
		pr := z.in.read()
		if pr.r == eof {
			return string(buf), false
		}
		buf = append(buf, pr.r)
		if len(buf) >= len(t) && string(buf[len(buf)-len(t):]) == term {
			return string(buf[:len(buf)-len(t)]), true
		}
	}
}

// consume reads s from the input if it is next, and leaves the input
// untouched otherwise.
func (z *Tokenizer) consume(s string, fold bool) bool {
	var read []posRune
	for _, want := range s {
		pr := z.in.read()
		read = append(read, pr)
		got := pr.r
		if fold && got >= 'A' && got <= 'Z' {
			got += 'a' - 'A'
		}
		if got != want {
			z.in.unreadAll(read)
			return false
		}
	}
	return true
}

// readCDATA scans the raw content of z.container up to its end tag. A start tag
// of the same name outside a string literal opens a nested level that its own
// end tag closes. The "<\/name>" idiom used inside script literals never matches.
func (z *Tokenizer) readCDATA() *Token {
	name := z.container
	var buf []rune
	var start Span
	add := func(prs ...posRune) {
		for _, pr := range prs {
			if len(buf) == 0 {
				start = pr.at
			}
			buf = append(buf, pr.r)
		}
	}
	nesting := 0
	var quote rune
	for {
		pr := z.in.read()
		if pr.r == eof {
			at := start
			if len(buf) == 0 {
				at = pr.at
			}
			z.diag(MissingEndTag, at, name, "", "missing %s", describe(name, true))
			break
		}
		switch {
		case quote != 0:
			if pr.r == '\\' {
				add(pr)
				if n := z.in.read(); n.r != eof {
					add(n)
				}
				continue
			}
			if pr.r == quote || pr.r == '\n' {
				quote = 0
			}
		case pr.r == '"' || pr.r == '\'':
			quote = pr.r
		}
		if pr.r != '<' {
			add(pr)
			continue
		}
		n := z.in.read()
		switch {
		case n.r == '/':
			ok, read := z.matchName(name)
			if ok && nesting > 0 {
				nesting--
				add(pr, n)
				add(read...)
				continue
			}
			if ok {
				z.in.unreadAll(read)
				z.in.unread(n)
				z.in.unread(pr)
				if len(buf) == 0 {
					return z.Next(ContentMode)
				}
				return z.token(TextToken, string(buf), start)
			}
			add(pr, n)
			add(read...)
		case isLetter(n.r) && quote == 0:
			z.in.unread(n)
			ok, read := z.matchName(name)
			if ok {
				nesting++
			}
			add(pr)
			add(read...)
		default:
			z.in.unread(n)
			add(pr)
		}
	}
	if len(buf) == 0 {
		return nil
	}
	tok := z.token(TextToken, string(buf), start)
	return tok
}

// matchName reads a run of name characters and reports whether it equals name
// and is followed by a tag terminator. The characters read are returned.
func (z *Tokenizer) matchName(name string) (bool, []posRune) {
	var read []posRune
	for {
		pr := z.in.read()
		if !isNameChar(pr.r) {
			z.in.unread(pr)
			break
		}
		read = append(read, pr)
	}
	got := make([]rune, len(read))
	for i, pr := range read {
		got[i] = pr.r
	}
	if !strings.EqualFold(string(got), name) {
		return false, read
	}
	next := z.in.read()
	z.in.unread(next)
	return next.r == eof || next.r == '>' || next.r == '/' || isSpace(next.r), read
}
