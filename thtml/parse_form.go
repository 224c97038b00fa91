package thtml

import "golang.org/x/net/html/atom"

// parseSelect collects the options of a select. Text outside options is dropped.
func (p *parser) parseSelect(el *Node) {
loop:
	for {
		tok := p.next(IgnoreLeadingWhitespace)
		if tok == nil {
			p.endOfInput(el)
			break
		}
		switch tok.Type {
		case DoctypeToken, TextToken:
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
			p.discard(tok)
			continue
		case StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag == nil:
			p.discard(tok)
		case tag.Atom == atom.Option, tag.Atom == atom.Optgroup, tag.Atom == atom.Script:
			p.insert(el, tok, IgnoreLeadingWhitespace)
		case isBlockTag(tag):
			p.missingBefore(el, tok)
			p.unget(tok)
			break loop
		default:
			p.discard(tok)
		}
	}
}

// parseOptGroup collects options.
func (p *parser) parseOptGroup(el *Node) {
loop:
	for {
		tok := p.next(IgnoreLeadingWhitespace)
		if tok == nil {
			p.endOfInput(el)
			break
		}
		switch tok.Type {
		case DoctypeToken, TextToken:
			p.discard(tok)
			continue
		case EndTagToken:
			switch {
			case tok.Data == el.Data:
				el.Flags |= Closed
				break loop
			case p.closesAncestor(tok):
				p.unget(tok)
				break loop
			}
			p.discard(tok)
			continue
		case StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag == nil:
			p.discard(tok)
		case tag.Atom == atom.Option:
			p.insert(el, tok, IgnoreLeadingWhitespace)
		case tag.Atom == atom.Optgroup || isBlockTag(tag):
			p.unget(tok)
			break loop
		default:
			p.discard(tok)
		}
	}
}

// parseText collects the text of option and textarea. Inline formatting is
// dropped; any other tag ends the element.
func (p *parser) parseText(el *Node) {
	pre := el.Is(atom.Textarea)
	mode := IgnoreLeadingWhitespace
	if pre {
		mode = Preformatted
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
			p.discard(tok)
			continue
		case TextToken:
			p.addText(el, tok)
			if !pre {
				mode = ContentMode
			}
			continue
		case StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		if tag != nil && tag.Category == CatInline && tag.Model&CMInline != 0 && tag.Model&CMField == 0 {
			p.discard(tok)
			continue
		}
		p.missingBefore(el, tok)
		p.unget(tok)
		break
	}
	if !pre {
		trimTrailingSpace(el)
	}
}
