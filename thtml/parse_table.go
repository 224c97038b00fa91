package thtml

import "golang.org/x/net/html/atom"

// parseTable collects captions, column groups, row groups and rows. Content
// that has no place in table structure is moved in front of the table.
func (p *parser) parseTable(el *Node) {
	saved := p.istack.beginExiledScope()
	defer p.istack.endExiledScope(saved)
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
			}
			p.discard(tok)
			continue
		case TextToken:
			p.exile(el, tok)
			continue
		case StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag == nil:
			p.exile(el, tok)
		case tag.Atom == atom.Table:
			p.missingBefore(el, tok)
			p.unget(tok)
			break loop
		case tag.Model&CMHTML != 0:
			p.discard(tok)
		case isHeadOnly(tag):
			p.moveToHead(tok)
		case tag.Model&CMRow != 0:
			p.wrap(el, "tr", tok, IgnoreLeadingWhitespace)
		case tag.Model&CMTable != 0:
			p.insert(el, tok, IgnoreLeadingWhitespace)
		default:
			p.exile(el, tok)
		}
	}
}

// exile moves tok out of the table enclosing el and places it just before the table.
func (p *parser) exile(el *Node, tok *Token) {
	table := el
	for table != nil && !table.Is(atom.Table) {
		table = table.Parent
	}
	if table == nil || table.Parent == nil {
		p.discard(tok)
		return
	}
	p.reportTok(ContentExiled, tok, "moving %s before %s", tokDesc(tok), describe("table", false))
	parent := table.Parent
	if tok.Type == TextToken {
		if prev := table.PrevSibling; prev != nil && prev.Type == TextNode {
			prev.Data += tok.Data
			prev.Span.Length = tok.Span.End() - prev.Span.Offset
			return
		}
		parent.InsertBefore(&Node{Type: TextNode, Data: tok.Data, Span: tok.Span}, table)
		return
	}
	n := p.newElement(tok)
	parent.InsertBefore(n, table)
	p.descend(n, ContentMode)
}

// parseRowGroup collects the rows of thead, tbody and tfoot.
func (p *parser) parseRowGroup(el *Node) {
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
			}
			p.discard(tok)
			continue
		case TextToken:
			p.exile(el, tok)
			continue
		case StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag == nil:
			p.exile(el, tok)
		case tag.Atom == atom.Tr:
			p.insert(el, tok, IgnoreLeadingWhitespace)
		case tag.Model&CMRow != 0:
			p.wrap(el, "tr", tok, IgnoreLeadingWhitespace)
		case tag.Atom == atom.Table || isTableModel(tag):
			p.unget(tok)
			break loop
		case tag.Model&CMHTML != 0:
			p.discard(tok)
		case isHeadOnly(tag):
			p.moveToHead(tok)
		default:
			p.exile(el, tok)
		}
	}
}

// parseRow collects the cells of a row. A row without cells gets an empty one.
func (p *parser) parseRow(el *Node) {
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
			}
			p.discard(tok)
			continue
		case TextToken:
			p.exile(el, tok)
			continue
		case StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag == nil:
			p.exile(el, tok)
		case tag.Model&CMRow != 0:
			p.insert(el, tok, IgnoreLeadingWhitespace)
		case tag.Atom == atom.Table || tag.Model&CMTable != 0:
			p.unget(tok)
			break loop
		case tag.Model&CMHTML != 0:
			p.discard(tok)
		case isHeadOnly(tag):
			p.moveToHead(tok)
		default:
			p.exile(el, tok)
		}
	}

	if !hasCell(el) {
		td := p.infer("td", el.Span)
		p.report(InsertingTag, td, el.Span, "inserting implicit %s in empty %s", describe("td", false), describe(el.Data, false))
		el.AppendChild(td)
	}
}

func hasCell(row *Node) bool {
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.HasModel(CMRow) {
			return true
		}
	}
	return false
}

// parseColGroup collects col elements.
func (p *parser) parseColGroup(el *Node) {
	for {
		tok := p.next(IgnoreLeadingWhitespace)
		if tok == nil {
			p.endOfInput(el)
			return
		}
		switch {
		case isMisc(tok):
			p.addMisc(el, tok)
		case tok.Type == EndTagToken && tok.Data == el.Data:
			el.Flags |= Closed
			return
		case tok.Type == EndTagToken && p.closesAncestor(tok):
			p.unget(tok)
			return
		case tok.Type == EndTagToken:
			p.discard(tok)
		case tok.isStart() && p.lookupTok(tok) != nil && p.lookupTok(tok).Atom == atom.Col:
			p.insert(el, tok, IgnoreLeadingWhitespace)
		default:
			p.unget(tok)
			return
		}
	}
}
