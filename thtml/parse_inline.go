package thtml

import "golang.org/x/net/html/atom"

// nestable lists the inline elements that may legitimately contain themselves.
var nestable = map[string]bool{
	"a":     true,
	"font":  true,
	"big":   true,
	"small": true,
	"sub":   true,
	"sup":   true,
	"q":     true,
	"span":  true,
}

// parseInline collects the content of inline elements and of block elements
// that only take inline content (p, headings, dt, caption). Block content ends
// the element; inline formatting cut off this way is reopened later from the
// inline stack.
func (p *parser) parseInline(el *Node, mode Mode) {
	blockish := !el.HasModel(CMInline)
	if !blockish {
		p.istack.push(el)
	}
	pre := mode == Preformatted
	child := ContentMode
	switch {
	case pre:
		child = Preformatted
	case blockish:
		mode = IgnoreLeadingWhitespace
	default:
		mode = ContentMode
	}

	checkstack := blockish
	cutoff, split := false, false
loop:
	for {
		tok := p.next(mode)
		if tok == nil {
			p.endOfInput(el)
			cutoff = true
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
				if !blockish {
					p.istack.popEnd(el.Tag)
				}
				break loop
			case p.closesAncestor(tok):
				p.missingBefore(el, tok)
				p.unget(tok)
				cutoff = true
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
		switch {
		case tag == nil:
			p.insert(el, tok, child)
			if !pre {
				mode = ContentMode
			}

		case tag.Atom == atom.A && !tok.Implicit && (el.Is(atom.A) || el.hasAncestor("a")):
			if len(tok.Attr) == 0 {
				// <a> inside an anchor is taken for its end tag
				p.reportTok(CoerceToEndTag, tok, "replacing %s with %s", tokDesc(tok), describe("a", true))
				p.unget(&Token{Type: EndTagToken, Data: tok.Data, Span: tok.Span})
				continue
			}
			p.missingBefore(el, tok)
			if el.Is(atom.A) {
				p.istack.popThroughAnchor()
			}
			p.unget(tok)
			cutoff = true
			break loop

		case tag == el.Tag && !blockish && !tok.Implicit && !nestable[el.Data]:
			if !el.Implicit() && el.FirstChild != nil && len(tok.Attr) == 0 && endsWithoutSpace(el) {
				p.reportTok(CoerceToEndTag, tok, "replacing %s with %s", tokDesc(tok), describe(el.Data, true))
				p.istack.popEnd(el.Tag)
				break loop
			}
			if len(tok.Attr) == 0 || len(el.Attr) == 0 {
				p.reportTok(NestedEmphasis, tok, "nested emphasis %s", tokDesc(tok))
			}
			p.insert(el, tok, child)

		case el.HasModel(CMHeading) && (tag.Atom == atom.Hr || tag.Atom == atom.Center) && el.Parent != nil:
			el = p.splitHeading(el, tok)
			split = true

		case isHeadOnly(tag):
			p.moveToHead(tok)
		case tag.Model&CMHTML != 0:
			p.discard(tok)
		case isStray(tag):
			p.discard(tok)
		case isBlockTag(tag):
			p.missingBefore(el, tok)
			p.unget(tok)
			cutoff = true
			break loop

		default:
			if checkstack && !tok.Implicit {
				checkstack = false
				if p.reconstruct(tok) > 0 {
					continue
				}
			}
			p.insert(el, tok, child)
			if !pre {
				mode = ContentMode
			}
		}
	}

	if blockish && !pre {
		trimTrailingSpace(el)
	}
	p.istack.release(el)
	if (cutoff || split && el.Implicit()) && el.FirstChild == nil && prunable(el) {
		if !el.Implicit() {
			p.report(TrimEmptyElement, el, el.Span, "trimming empty %s", describe(el.Data, false))
		}
		el.Detach()
	}
}

// splitHeading ends heading el at the block tok, places the block after it
// and continues the heading in an implicit copy following the block. The copy
// is returned. It replaces el on the open stack while the block is parsed, so
// the heading's end tag still closes the block.
func (p *parser) splitHeading(el *Node, tok *Token) *Node {
	p.report(SplitElement, el, tok.Span, "splitting %s at %s", describe(el.Data, false), tokDesc(tok))
	parent := el.Parent
	rest := el.Clone()
	rest.Flags |= Implicit
	rest.Span = tok.Span
	parent.InsertBefore(rest, el.NextSibling)

	block := p.newElement(tok)
	parent.InsertBefore(block, rest)
	p.open[len(p.open)-1] = rest
	p.descend(block, IgnoreLeadingWhitespace)

	trimTrailingSpace(el)
	if el.FirstChild == nil {
		el.Detach()
	}
	return rest
}

// endsWithoutSpace reports whether the last child of n is text ending in a
// non-space character.
func endsWithoutSpace(n *Node) bool {
	last := n.LastChild
	if last == nil || last.Type != TextNode || last.Data == "" {
		return false
	}
	return !isSpace(rune(last.Data[len(last.Data)-1]))
}

// prunable reports whether an empty element may be removed. Empty elements,
// elements written with "/>" and link targets are kept.
func prunable(n *Node) bool {
	if n.HasModel(CMEmpty) || n.Flags&SelfClosed != 0 {
		return false
	}
	if _, ok := n.AttrVal("id"); ok {
		return false
	}
	if _, ok := n.AttrVal("name"); ok {
		return false
	}
	return !n.Is(atom.A) || len(n.Attr) == 0
}
