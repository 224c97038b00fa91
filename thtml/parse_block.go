package thtml

import "golang.org/x/net/html/atom"

// parseBlock collects the content of block containers such as div, li, dd and
// table cells. Inline content is wrapped in reconstructed formatting elements
// that block content cut off.
func (p *parser) parseBlock(el *Node) {
	if el.HasModel(CMObject) {
		saved := p.istack.beginExiledScope()
		defer p.istack.endExiledScope(saved)
	}
	if el.Is(atom.Form) && el.hasAncestor("form") {
		p.report(IllegalNesting, el, el.Span, "%s may not be nested", describe(el.Data, false))
	}

	mode := IgnoreLeadingWhitespace
	checkstack := !el.HasModel(CMMixed)
loop:
	for {
		tok := p.next(mode)
		if tok == nil {
			p.endOfInput(el)
			break
		}
		switch tok.Type {
		case DoctypeToken:
			p.discard(tok)
			continue
		case EndTagToken:
			switch {
			case tok.Data == el.Data:
				el.Flags |= Closed
				break loop
			case p.closesAncestor(tok):
				p.missingBefore(el, tok)
				p.unget(tok)
				break loop
			}
			p.strayEnd(el, tok)
			continue
		case TextToken:
			if checkstack {
				checkstack = false
				if p.reconstruct(tok) > 0 {
					continue
				}
			}
			p.addText(el, tok)
			mode = ContentMode
			continue
		case StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag == nil:
			p.insert(el, tok, ContentMode)
			mode = ContentMode
		case tag == el.Tag && tag.Model&CMOpt != 0:
			p.unget(tok)
			break loop
		case tag.Model&CMHTML != 0:
			p.discard(tok)
		case isHeadOnly(tag):
			p.moveToHead(tok)
		case tag.Model&CMList != 0:
			if el.HasModel(CMList) {
				p.unget(tok)
				break loop
			}
			p.wrap(el, "ul", tok, IgnoreLeadingWhitespace)
			checkstack, mode = true, IgnoreLeadingWhitespace
		case tag.Model&CMDefList != 0:
			if el.HasModel(CMDefList) {
				p.unget(tok)
				break loop
			}
			p.wrap(el, "dl", tok, IgnoreLeadingWhitespace)
			checkstack, mode = true, IgnoreLeadingWhitespace
		case isTableModel(tag):
			if p.inTable() {
				p.missingBefore(el, tok)
				p.unget(tok)
				break loop
			}
			p.wrap(el, "table", tok, IgnoreLeadingWhitespace)
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
			p.insert(el, tok, ContentMode)
			mode = ContentMode
		default:
			trimTrailingSpace(el)
			p.insert(el, tok, IgnoreLeadingWhitespace)
			checkstack, mode = true, IgnoreLeadingWhitespace
		}
	}
	trimTrailingSpace(el)
}

// parseList collects list items. Other content is wrapped in an implicit li,
// except in an implicit list, which ends instead.
func (p *parser) parseList(el *Node) {
loop:
	for {
		tok := p.next(IgnoreLeadingWhitespace)
		if tok == nil {
			p.endOfInput(el)
			break
		}
		switch tok.Type {
		case DoctypeToken:
			p.discard(tok)
			continue
		case EndTagToken:
			switch {
			case tok.Data == el.Data:
				el.Flags |= Closed
				break loop
			case p.closesAncestor(tok):
				p.missingBefore(el, tok)
				p.unget(tok)
				break loop
			case p.istack.popEnd(p.lookupTok(tok)):
			default:
				p.discard(tok)
			}
			continue
		case TextToken, StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag != nil && tag.Atom == atom.Li:
			p.insert(el, tok, IgnoreLeadingWhitespace)
		case el.Implicit():
			p.unget(tok)
			break loop
		case tag != nil && tag.Model&CMHTML != 0:
			p.discard(tok)
		case isHeadOnly(tag):
			p.moveToHead(tok)
		case isTableModel(tag) && p.inTable():
			p.missingBefore(el, tok)
			p.unget(tok)
			break loop
		default:
			p.wrap(el, "li", tok, IgnoreLeadingWhitespace)
		}
	}
}

// parseDefList collects dt and dd elements. Other content is wrapped in an
// implicit dd, except in an implicit list, which ends instead.
func (p *parser) parseDefList(el *Node) {
loop:
	for {
		tok := p.next(IgnoreLeadingWhitespace)
		if tok == nil {
			p.endOfInput(el)
			break
		}
		switch tok.Type {
		case DoctypeToken:
			p.discard(tok)
			continue
		case EndTagToken:
			switch {
			case tok.Data == el.Data:
				el.Flags |= Closed
				break loop
			case p.closesAncestor(tok):
				p.missingBefore(el, tok)
				p.unget(tok)
				break loop
			case p.istack.popEnd(p.lookupTok(tok)):
			default:
				p.discard(tok)
			}
			continue
		case TextToken, StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag != nil && tag.Model&CMDefList != 0:
			p.insert(el, tok, IgnoreLeadingWhitespace)
		case el.Implicit():
			p.unget(tok)
			break loop
		case tag != nil && tag.Model&CMHTML != 0:
			p.discard(tok)
		case isHeadOnly(tag):
			p.moveToHead(tok)
		case isTableModel(tag) && p.inTable():
			p.missingBefore(el, tok)
			p.unget(tok)
			break loop
		default:
			p.wrap(el, "dd", tok, IgnoreLeadingWhitespace)
		}
	}
}

// parseGeneric accepts any content. It serves elements the catalog does not know.
func (p *parser) parseGeneric(el *Node, mode Mode) {
	if mode != Preformatted {
		mode = ContentMode
	}
loop:
	for {
		tok := p.next(mode)
		if tok == nil {
			p.endOfInput(el)
			break
		}
		switch tok.Type {
		case DoctypeToken:
			p.discard(tok)
			continue
		case EndTagToken:
			switch {
			case tok.Data == el.Data:
				el.Flags |= Closed
				break loop
			case p.closesAncestor(tok):
				p.missingBefore(el, tok)
				p.unget(tok)
				break loop
			}
			p.strayEnd(el, tok)
			continue
		case TextToken:
			p.addText(el, tok)
			continue
		case StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag == nil:
			p.insert(el, tok, mode)
		case tag.Model&CMHTML != 0:
			p.discard(tok)
		case isHeadOnly(tag):
			p.moveToHead(tok)
		case isTableModel(tag) && p.inTable():
			p.missingBefore(el, tok)
			p.unget(tok)
			break loop
		default:
			p.insert(el, tok, mode)
		}
	}
}
