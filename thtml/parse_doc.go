package thtml

import (
	"strings"

	"golang.org/x/net/html/atom"
)

// parseDocument builds the document root: an optional doctype, misc markup
// and the html element, inferred when the source omits it.
func (p *parser) parseDocument() {
	for {
		tok := p.next(IgnoreLeadingWhitespace)
		if tok == nil {
			break
		}
		switch {
		case isMisc(tok):
			p.addMisc(p.doc, tok)
			continue
		case tok.Type == DoctypeToken:
			p.addDoctype(tok)
			continue
		case tok.Type == EndTagToken && tok.Data != "br" && tok.Data != "p":
			p.discard(tok)
			continue
		case tok.isStart() && tok.Data == "html" && p.html == nil:
			p.html = p.newElement(tok)
		case p.html == nil:
			p.html = p.infer("html", tok.Span)
			p.unget(tok)
		default:
			// html only returns at the end of input
			p.discard(tok)
			continue
		}
		p.doc.AppendChild(p.html)
		p.descend(p.html, IgnoreLeadingWhitespace)
	}
	if p.html == nil {
		p.html = p.infer("html", p.z.in.here())
		p.doc.AppendChild(p.html)
		p.descend(p.html, IgnoreLeadingWhitespace)
	}
	if p.head != nil && !p.xml && findChild(p.head, atom.Title) == nil {
		p.report(MissingTitle, p.head, p.head.Span, "missing %s element", describe("title", false))
	}
}

func (p *parser) addDoctype(tok *Token) {
	if p.doctype != nil || p.html != nil {
		p.discard(tok)
		return
	}
	n, ok := parseDoctype(tok.Data)
	if !ok {
		p.reportTok(MalformedDoctype, tok, "discarding malformed <!DOCTYPE %s>", tok.Data)
		return
	}
	n.Span = tok.Span
	p.doc.AppendChild(n)
	p.doctype = n
}

// parseHTML places head, body or frameset and the content between them.
func (p *parser) parseHTML(html *Node) {
	for {
		tok := p.next(IgnoreLeadingWhitespace)
		if tok == nil {
			break
		}
		switch {
		case isMisc(tok):
			p.addMisc(html, tok)
			continue
		case tok.Type == DoctypeToken:
			p.discard(tok)
			continue
		case tok.Type == EndTagToken && tok.Data == html.Data:
			html.Flags |= Closed
			continue
		case tok.Type == EndTagToken && tok.Data != "br" && tok.Data != "p":
			p.discard(tok)
			continue
		case tok.isStart() && tok.Data == "html":
			p.discard(tok)
			continue
		}

		if p.head == nil {
			if tok.isStart() && tok.Data == "head" {
				p.head = p.newElement(tok)
			} else {
				p.head = p.infer("head", tok.Span)
				p.unget(tok)
			}
			html.AppendChild(p.head)
			p.descend(p.head, IgnoreLeadingWhitespace)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tok.isStart() && tok.Data == "head":
			p.discard(tok)
		case isHeadOnly(tag) && p.body == nil && p.frames == nil:
			p.moveToHead(tok)
		case tok.isStart() && tag != nil && tag.Atom == atom.Frameset && p.body == nil && p.frames == nil:
			p.frames = p.newElement(tok)
			html.AppendChild(p.frames)
			p.descend(p.frames, IgnoreLeadingWhitespace)
		case p.frames != nil && tok.Type == StartTagToken && tag != nil && tag.Atom == atom.Noframes:
			nf := p.newElement(tok)
			p.frames.AppendChild(nf)
			p.descend(nf, IgnoreLeadingWhitespace)
		case p.frames != nil:
			if !p.afterFramesetReported {
				p.afterFramesetReported = true
				p.reportTok(ContentAfterFrameset, tok, "content occurs after end of frameset")
			}
			nf := p.noframesIn(p.frames, tok.Span)
			p.unget(tok)
			if !p.descend(nf, IgnoreLeadingWhitespace) {
				p.drop(tok)
			}
		default:
			switch {
			case p.body != nil:
				p.unget(tok)
			case tok.isStart() && tok.Data == "body":
				p.body = p.newElement(tok)
			default:
				p.body = p.infer("body", tok.Span)
				p.unget(tok)
			}
			if p.body.Parent == nil {
				html.AppendChild(p.body)
			}
			if !p.descend(p.body, IgnoreLeadingWhitespace) {
				p.drop(tok)
			}
		}
	}

	at := p.z.in.here()
	if p.head == nil {
		p.head = p.infer("head", at)
		html.AppendChild(p.head)
	}
	if p.body == nil && p.frames == nil {
		p.body = p.infer("body", at)
		html.AppendChild(p.body)
	}
	p.endOfInput(html)
}

// parseHead collects head content. Anything that belongs in the body ends it.
func (p *parser) parseHead(head *Node) {
	for {
		tok := p.next(IgnoreLeadingWhitespace)
		if tok == nil {
			p.endOfInput(head)
			return
		}
		switch {
		case isMisc(tok):
			p.addMisc(head, tok)
			continue
		case tok.Type == DoctypeToken:
			p.discard(tok)
			continue
		case tok.Type == EndTagToken:
			switch {
			case tok.Data == head.Data:
				head.Flags |= Closed
				return
			case p.closesAncestor(tok), tok.Data == "br", tok.Data == "p":
				p.unget(tok)
				return
			}
			p.discard(tok)
			continue
		case tok.isStart():
			tag := p.lookupTok(tok)
			if isHeadOnly(tag) || tag != nil && tag.Category == CatScript {
				p.addToHead(tok)
				continue
			}
		}
		p.unget(tok)
		return
	}
}

// addToHead places the element for tok in the head. A second title or base is
// parsed and dropped.
func (p *parser) addToHead(tok *Token) {
	el := p.newElement(tok)
	head := p.ensureHead(tok.Span)
	if el.Is(atom.Title) || el.Is(atom.Base) {
		if findChild(head, el.DataAtom) != nil {
			p.report(TooManyElements, el, tok.Span, "too many %s elements", describe(el.Data, false))
			p.descend(el, IgnoreLeadingWhitespace)
			return
		}
	}
	head.AppendChild(el)
	p.descend(el, IgnoreLeadingWhitespace)
}

// moveToHead places an element found after the head in the head.
func (p *parser) moveToHead(tok *Token) {
	p.reportTok(MovedToHead, tok, "moving %s to head", describe(tok.Data, false))
	p.addToHead(tok)
}

func (p *parser) ensureHead(at Span) *Node {
	if p.head == nil {
		p.head = p.infer("head", at)
		p.html.InsertBefore(p.head, p.html.FirstChild)
	}
	return p.head
}

// parseTitle accepts text only.
func (p *parser) parseTitle(el *Node) {
	mode := IgnoreLeadingWhitespace
loop:
	for {
		tok := p.next(mode)
		if tok == nil {
			p.endOfInput(el)
			break
		}
		switch {
		case tok.Type == TextToken:
			p.addText(el, tok)
			mode = ContentMode
		case isMisc(tok):
			p.addMisc(el, tok)
		case tok.Type == EndTagToken && tok.Data == el.Data:
			el.Flags |= Closed
			break loop
		case tok.Type == EndTagToken && !p.closesAncestor(tok):
			p.discard(tok)
		case tok.Type == DoctypeToken:
			p.discard(tok)
		default:
			p.missingBefore(el, tok)
			p.unget(tok)
			break loop
		}
	}
	trimTrailingSpace(el)
}

// parseScript reads the raw content of script and style elements. The
// tokenizer reports a missing end tag.
func (p *parser) parseScript(el *Node) {
	p.z.SetContainer(el.Data)
	tok := p.z.Next(CDataContent)
	if tok != nil && tok.Type == TextToken {
		el.AppendChild(&Node{Type: TextNode, Data: tok.Data, Span: tok.Span})
		tok = p.z.Next(ContentMode)
	}
	if tok == nil {
		return
	}
	if tok.Type == EndTagToken && strings.EqualFold(tok.Data, el.Data) {
		el.Flags |= Closed
		return
	}
	p.unget(tok)
}

// parseBody collects the document content. The end tags of body and html are
// noted but do not end it: content after them is kept in the body.
func (p *parser) parseBody(body *Node) {
	mode := IgnoreLeadingWhitespace
	checkstack := true
loop:
	for {
		tok := p.next(mode)
		if tok == nil {
			p.endOfInput(body)
			break
		}
		switch tok.Type {
		case DoctypeToken:
			p.discard(tok)
			continue
		case EndTagToken:
			switch {
			case tok.Data == body.Data:
				body.Flags |= Closed
				p.afterBody = true
			case tok.Data == "html" && p.html != nil:
				p.html.Flags |= Closed
				p.afterBody = true
			case p.closesAncestor(tok):
				p.unget(tok)
				break loop
			default:
				p.strayEnd(body, tok)
			}
			continue
		case TextToken, StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(body, tok)
			continue
		}

		if p.afterBody && !p.afterBodyReported {
			p.afterBodyReported = true
			p.reportTok(ContentAfterBody, tok, "content occurs after end of body")
		}
		if tok.Type == TextToken {
			if checkstack {
				checkstack = false
				if p.reconstruct(tok) > 0 {
					continue
				}
			}
			p.addText(body, tok)
			mode = ContentMode
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag == nil:
			p.insert(body, tok, ContentMode)
			mode = ContentMode
		case tag.Model&CMHTML != 0:
			p.discard(tok)
		case isHeadOnly(tag):
			p.moveToHead(tok)
		case tag.Model&CMList != 0:
			p.wrap(body, "ul", tok, IgnoreLeadingWhitespace)
			checkstack, mode = true, IgnoreLeadingWhitespace
		case tag.Model&CMDefList != 0:
			p.wrap(body, "dl", tok, IgnoreLeadingWhitespace)
			checkstack, mode = true, IgnoreLeadingWhitespace
		case isTableModel(tag):
			p.wrap(body, "table", tok, IgnoreLeadingWhitespace)
			checkstack, mode = true, IgnoreLeadingWhitespace
		case isStray(tag):
			p.discard(tok)
		case tag.Model&CMInline != 0:
			if checkstack && !tok.Implicit {
				checkstack = false
				if p.reconstruct(tok) > 0 {
					continue
				}
			}
			p.insert(body, tok, ContentMode)
			mode = ContentMode
		default:
			trimTrailingSpace(body)
			p.insert(body, tok, IgnoreLeadingWhitespace)
			checkstack, mode = true, IgnoreLeadingWhitespace
		}
	}
	trimTrailingSpace(body)
}

// parseFrameset accepts frames, nested framesets and noframes. Body content
// found inside goes to a noframes element.
func (p *parser) parseFrameset(el *Node) {
loop:
	for {
		tok := p.next(IgnoreLeadingWhitespace)
		if tok == nil {
			p.endOfInput(el)
			break
		}
		tag := p.lookupTok(tok)
		switch {
		case isMisc(tok):
			p.addMisc(el, tok)
		case tok.Type == DoctypeToken:
			p.discard(tok)
		case tok.Type == EndTagToken:
			if tok.Data == el.Data {
				el.Flags |= Closed
				break loop
			}
			if p.closesAncestor(tok) {
				p.missingBefore(el, tok)
				p.unget(tok)
				break loop
			}
			p.discard(tok)
		case isHeadOnly(tag):
			p.moveToHead(tok)
		case tag != nil && tag.Model&CMFrames != 0:
			p.insert(el, tok, IgnoreLeadingWhitespace)
		case tag != nil && tag.Atom != atom.Body && tag.Model&CMHTML != 0:
			p.discard(tok)
		default:
			nf := p.noframesIn(el, tok.Span)
			p.unget(tok)
			if !p.descend(nf, IgnoreLeadingWhitespace) {
				p.drop(tok)
			}
		}
	}
}

// noframesIn returns the noframes element ending fs, inferring one if needed.
func (p *parser) noframesIn(fs *Node, at Span) *Node {
	if c := fs.LastChild; c != nil && c.Is(atom.Noframes) {
		return c
	}
	nf := p.infer("noframes", at)
	p.report(InsertingTag, nf, at, "inserting implicit %s", describe(nf.Data, false))
	fs.AppendChild(nf)
	return nf
}

// parseNoFrames keeps the alternative content of a frameset document in a
// body of its own. Inside a body, noframes is an ordinary block.
func (p *parser) parseNoFrames(el *Node, mode Mode) {
	if el.hasAncestor("body") {
		p.parseBlock(el)
		return
	}
loop:
	for {
		tok := p.next(IgnoreLeadingWhitespace)
		if tok == nil {
			p.endOfInput(el)
			break
		}
		tag := p.lookupTok(tok)
		switch {
		case isMisc(tok):
			p.addMisc(el, tok)
			continue
		case tok.Type == DoctypeToken:
			p.discard(tok)
			continue
		case tok.Type == EndTagToken:
			if tok.Data == el.Data {
				el.Flags |= Closed
				break loop
			}
			if p.closesAncestor(tok) {
				p.missingBefore(el, tok)
				p.unget(tok)
				break loop
			}
			p.discard(tok)
			continue
		case isHeadOnly(tag):
			p.moveToHead(tok)
			continue
		case tag != nil && tag.Atom != atom.Body && tag.Model&(CMHTML|CMFrames) != 0:
			p.discard(tok)
			continue
		}

		var body *Node
		switch c := el.LastChild; {
		case c != nil && c.Is(atom.Body):
			body = c
			p.unget(tok)
		case tok.isStart() && tag != nil && tag.Atom == atom.Body:
			body = p.newElement(tok)
			el.AppendChild(body)
		default:
			body = p.infer("body", tok.Span)
			el.AppendChild(body)
			p.unget(tok)
		}
		if p.body == nil {
			p.body = body
		}
		if !p.descend(body, mode) {
			p.drop(tok)
		}
	}
}
