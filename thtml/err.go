package thtml

import (
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

// errorContextBuilder is a type to organize helper functions for building error context trees.
type errorContextBuilder struct{}

func (b errorContextBuilder) addPrevSiblings(doc *etree.Element, n *Node) {
	var prev []*Node
	elided := false
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		// skip whitespace text nodes
		if s.IsWhitespace() {
			continue
		}
		if len(prev) == 2 {
			elided = true
			break
		}
		prev = append(prev, s)
	}
	if elided {
		doc.AddChild(etree.NewText("..."))
	}
	for i := len(prev) - 1; i >= 0; i-- {
		b.addNode(doc, prev[i])
	}
}

func (b errorContextBuilder) addNextSiblings(doc *etree.Element, n *Node) {
	c := 0
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		// skip whitespace text nodes
		if s.IsWhitespace() {
			continue
		}
		if c == 2 {
			doc.AddChild(etree.NewText("..."))
			break
		}
		b.addNode(doc, s)
		c++
	}
}

func (b errorContextBuilder) addNode(doc *etree.Element, n *Node) {
	switch n.Type {
	case ElementNode:
		clone := etree.NewElement(n.Data)
		for _, a := range n.Attr {
			if a.Server != NoServer {
				continue
			}
			clone.CreateAttr(a.Key, a.Val)
		}
		if hasElementChild(n) {
			clone.AddChild(etree.NewText("..."))
		} else if t := n.Text(); t != "" {
			clone.SetText(t)
		}
		doc.AddChild(clone)
	case TextNode:
		if !n.IsWhitespace() {
			doc.AddChild(etree.NewText(n.Data))
		}
	case CommentNode:
		doc.AddChild(etree.NewComment(n.Data))
	}
}

func (b errorContextBuilder) wrapParent(doc *etree.Element, n *Node) *etree.Element {
	parent := n.Parent
	if parent == nil || parent.Type != ElementNode {
		return doc // do not wrap the root node
	}

	doc.Tag = parent.Data
	for _, a := range parent.Attr {
		if a.Server == NoServer {
			doc.CreateAttr(a.Key, a.Val)
		}
	}

	wrapper := &etree.Element{}
	wrapper.AddChild(doc)

	return wrapper
}

func hasElementChild(n *Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			return true
		}
	}
	return false
}

// buildErrorContext creates an XML tree around the node n to provide context for a diagnostic.
func buildErrorContext(n *Node) *etree.Element {
	doc := &etree.Element{}
	b := errorContextBuilder{}
	b.addPrevSiblings(doc, n)
	b.addNode(doc, n)
	b.addNextSiblings(doc, n)
	doc = b.wrapParent(doc, n)
	return doc
}

func renderErrorContext(doc *etree.Element) string {
	dst := &html.Node{Type: html.DocumentNode}

	// traverse the etree.Element and build the html.Node
	var render func(*html.Node, *etree.Element)
	render = func(dst *html.Node, src *etree.Element) {
		for _, c := range src.Child {
			switch t := c.(type) {
			case *etree.Element:
				n := &html.Node{Type: html.ElementNode, Data: t.FullTag()}
				for _, a := range t.Attr {
					n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Value})
				}
				dst.AppendChild(n)
				render(n, t)
			case *etree.CharData:
				dst.AppendChild(&html.Node{Type: html.TextNode, Data: t.Data})
			case *etree.Comment:
				dst.AppendChild(&html.Node{Type: html.CommentNode, Data: t.Data})
			}
		}
	}

	render(dst, doc)

	var buf strings.Builder
	_ = html.Render(&buf, dst)

	return buf.String()
}
