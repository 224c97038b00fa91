package thtml

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ToHTML converts the subtree rooted at n to an x/net/html tree. Markup that
// x/net/html has no node type for (processing instructions, CDATA and marked
// sections, server code, XML declarations) becomes comments.
func ToHTML(n *Node) *html.Node {
	var dst *html.Node
	switch n.Type {
	case RootNode:
		dst = &html.Node{Type: html.DocumentNode}
	case ElementNode:
		dst = &html.Node{Type: html.ElementNode, DataAtom: n.DataAtom, Data: n.Data}
		for _, a := range n.Attr {
			if a.Server != NoServer {
				continue
			}
			dst.Attr = append(dst.Attr, html.Attribute{Key: a.Key, Val: a.Val})
		}
	case TextNode:
		dst = &html.Node{Type: html.TextNode, Data: n.Data}
	case CommentNode:
		dst = &html.Node{Type: html.CommentNode, Data: n.Data}
	case DoctypeNode:
		dst = &html.Node{Type: html.DoctypeNode, Data: n.Data}
		for _, a := range n.Attr {
			dst.Attr = append(dst.Attr, html.Attribute{Key: a.Key, Val: a.Val})
		}
	default:
		dst = &html.Node{Type: html.CommentNode, Data: markupText(n)}
	}
	if dst.Type == html.ElementNode && rawText[n.Data] && hasElementChild(n) {
		// html.Render only accepts text inside these elements; the markup is
		// kept as their literal content
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			_ = html.Render(&sb, ToHTML(c))
		}
		dst.AppendChild(&html.Node{Type: html.TextNode, Data: sb.String()})
		return dst
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dst.AppendChild(ToHTML(c))
	}
	return dst
}

// rawText lists the elements whose content html.Render writes unescaped.
var rawText = map[string]bool{
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"noscript":  true,
	"plaintext": true,
	"script":    true,
	"style":     true,
	"xmp":       true,
}

func markupText(n *Node) string {
	switch n.Type {
	case ProcInstNode, XMLDeclNode:
		return "?" + n.Data
	case CDataNode:
		return "[CDATA[" + n.Data + "]]"
	case SectionNode:
		return "[" + n.Data + "]"
	case ServerCodeNode:
		return n.Server.String() + " " + n.Data
	}
	return n.Data
}

// Render writes the subtree rooted at n as HTML.
func Render(w io.Writer, n *Node) error {
	return html.Render(w, ToHTML(n))
}
