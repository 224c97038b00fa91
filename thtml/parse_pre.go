package thtml

import (
	"strings"

	"golang.org/x/net/html/atom"
)

// parsePre collects preformatted content. Whitespace is kept as written and a
// newline directly after the start tag is dropped. A block element ends the
// pre; the text after the block continues in an implicit pre.
func (p *parser) parsePre(el *Node) {
	if el.Is(atom.Plaintext) {
		// everything up to the end of input is text
		for tok := p.next(IgnoreMarkup); tok != nil; tok = p.next(IgnoreMarkup) {
			if tok.Type != TextToken {
				tok = &Token{Type: TextToken, Data: tok.String(), Span: tok.Span}
			}
			p.addText(el, tok)
		}
		return
	}

	first := true
	checkstack := true
loop:
	for {
		tok := p.next(Preformatted)
		if tok == nil {
			p.endOfInput(el)
			break
		}
		leading := first
		first = false
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
			if leading && strings.HasPrefix(tok.Data, "\n") {
				tok.Data = tok.Data[1:]
				if tok.Data == "" {
					continue
				}
			}
			if checkstack {
				checkstack = false
				if p.reconstruct(tok) > 0 {
					continue
				}
			}
			p.addText(el, tok)
			continue
		case StartTagToken, SelfClosingTagToken:
		default:
			p.addMisc(el, tok)
			continue
		}

		tag := p.lookupTok(tok)
		switch {
		case tag == nil || tag.Declared():
			p.insert(el, tok, Preformatted)
		case tag.Atom == atom.P:
			p.addBreak(el, tok)
		case tag.Model&(CMList|CMDefList) != 0 || isTableModel(tag):
			p.missingBefore(el, tok)
			p.unget(tok)
			break loop
		case tag.Model&CMHTML != 0:
			p.discard(tok)
		case isHeadOnly(tag):
			p.moveToHead(tok)
		case tag.Model&CMInline != 0:
			if checkstack && !tok.Implicit {
				checkstack = false
				if p.reconstruct(tok) > 0 {
					continue
				}
			}
			p.insert(el, tok, Preformatted)
		case tag.Model&CMBlock != 0 && el.Parent != nil:
			el = p.splitPre(el, tok)
		default:
			p.discard(tok)
		}
	}

	if el.Implicit() && el.FirstChild == nil {
		el.Detach()
	}
}

// splitPre places the block tok after el and returns the implicit pre that
// follows the block and takes the rest of the content. The implicit pre stands
// in for el on the open stack while the block is parsed.
func (p *parser) splitPre(el *Node, tok *Token) *Node {
	p.report(SplitElement, el, tok.Span, "splitting %s at %s", describe(el.Data, false), tokDesc(tok))
	parent := el.Parent
	rest := &Node{Type: ElementNode, Tag: el.Tag, DataAtom: el.DataAtom, Data: el.Data, Flags: Implicit, Span: tok.Span}
	parent.InsertBefore(rest, el.NextSibling)

	block := p.newElement(tok)
	parent.InsertBefore(block, rest)
	p.open[len(p.open)-1] = rest
	p.descend(block, IgnoreLeadingWhitespace)

	if el.Implicit() && el.FirstChild == nil {
		el.Detach()
	}
	return rest
}
