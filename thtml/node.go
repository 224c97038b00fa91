// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thtml

import (
	"fmt"
	"strings"

	"golang.org/x/net/html/atom"
)

// A NodeType is the type of a Node.
type NodeType uint32

const (
	RootNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
	ProcInstNode
	CDataNode
	SectionNode
	ServerCodeNode
	XMLDeclNode
)

var nodeTypeNames = [...]string{
	RootNode:       "Root",
	ElementNode:    "Element",
	TextNode:       "Text",
	CommentNode:    "Comment",
	DoctypeNode:    "Doctype",
	ProcInstNode:   "ProcInst",
	CDataNode:      "CData",
	SectionNode:    "Section",
	ServerCodeNode: "ServerCode",
	XMLDeclNode:    "XMLDecl",
}

func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", uint32(t))
}

// ServerLang identifies the flavour of an embedded server code block.
type ServerLang uint8

const (
	NoServer ServerLang = iota
	ASP                 // <% ... %>
	JSTE                // <# ... #>
	PHP                 // <?php ... ?>
)

func (l ServerLang) String() string {
	switch l {
	case ASP:
		return "asp"
	case JSTE:
		return "jste"
	case PHP:
		return "php"
	}
	return ""
}

// NodeFlags records how an element was written in the source and how the
// tree builder repaired it.
type NodeFlags uint8

const (
	// Implicit marks nodes synthesized by the tree builder.
	Implicit NodeFlags = 1 << iota
	// Closed marks elements that had an explicit matching end tag.
	Closed
	// SelfClosed marks elements written as <name ... />.
	SelfClosed
)

// A Node is a node of the repaired document tree.
type Node struct {
	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node

	Type NodeType

	// Tag is the resolved catalog entry of an element. It is nil for elements with
	// names the catalog does not know and for all non-element nodes.
	Tag *TagEntry

	// DataAtom is the atom for Data, or zero if Data is not a known tag name.
	DataAtom atom.Atom

	// Data is the element name for element nodes, the doctype name for doctype
	// nodes, and the literal content for all other node types.
	Data string

	// Attr is the ordered list of attributes for the node.
	Attr []Attribute

	Flags NodeFlags

	// CoercedFrom holds the original tag of an element retyped by a repair rule.
	CoercedFrom *TagEntry

	// Server is set for ServerCodeNode.
	Server ServerLang

	// Span is the source location of the token that produced the node. Implicit
	// nodes carry the location of the token that caused them to be inferred.
	Span Span
}

// Attribute is an attribute of an element as written in the source.
type Attribute struct {
	Key string
	Val string

	// Quote is the delimiter used for the value: '"', '\'' or 0 when unquoted.
	Quote rune

	// NoValue is set for attributes written without "=value".
	NoValue bool

	// Server is set when the attribute slot holds an embedded server code block
	// instead of a name/value pair. Val then carries the code.
	Server ServerLang

	// Def is the resolved known-attribute entry, nil for unknown attributes.
	Def *AttrDef
}

// Implicit reports whether the node was synthesized by a repair rule.
func (n *Node) Implicit() bool { return n.Flags&Implicit != 0 }

// Closed reports whether the element had an explicit end tag.
func (n *Node) Closed() bool { return n.Flags&Closed != 0 }

// Is reports whether n is an element with the given atom.
func (n *Node) Is(a atom.Atom) bool {
	return n != nil && n.Type == ElementNode && n.DataAtom == a && a != 0
}

// Model returns the content model of the element, or zero for unknown elements.
func (n *Node) Model() ContentModel {
	if n == nil || n.Tag == nil {
		return 0
	}
	return n.Tag.Model
}

// HasModel reports whether the element's content model intersects m.
func (n *Node) HasModel(m ContentModel) bool {
	return n.Model()&m != 0
}

// AttrVal returns the value of the first attribute named key.
func (n *Node) AttrVal(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key && a.Server == NoServer {
			return a.Val, true
		}
	}
	return "", false
}

// Text returns the concatenated text content of the subtree rooted at n.
func (n *Node) Text() string {
	var sb strings.Builder
	var walk func(*Node)
	walk = func(n *Node) {
		switch n.Type {
		case TextNode, CDataNode:
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func (n *Node) IsWhitespace() bool {
	return n.Type == TextNode && strings.TrimLeft(n.Data, whitespace) == ""
}

// Coerce retypes an element to tag. The catalog entry, name and atom are replaced
// together; the first original tag is remembered in CoercedFrom.
func (n *Node) Coerce(tag *TagEntry) {
	if n.Type != ElementNode {
		panic("thtml: Coerce called for a non-element Node")
	}
	if n.CoercedFrom == nil {
		n.CoercedFrom = n.Tag
	}
	n.Tag = tag
	n.Data = tag.Name
	n.DataAtom = tag.Atom
}

// Clone returns a detached shallow copy of n. Attributes are copied, children are not.
func (n *Node) Clone() *Node {
	m := &Node{
		Type:        n.Type,
		Tag:         n.Tag,
		DataAtom:    n.DataAtom,
		Data:        n.Data,
		Flags:       n.Flags &^ Closed,
		CoercedFrom: n.CoercedFrom,
		Server:      n.Server,
		Span:        n.Span,
	}
	if n.Attr != nil {
		m.Attr = make([]Attribute, len(n.Attr))
		copy(m.Attr, n.Attr)
	}
	return m
}

// InsertBefore inserts newChild as a child of n, immediately before oldChild
// in the sequence of n's children. oldChild may be nil, in which case newChild
// is appended to the end of n's children.
//
// It will panic if newChild already has a parent or siblings.
func (n *Node) InsertBefore(newChild, oldChild *Node) {
	if newChild.Parent != nil || newChild.PrevSibling != nil || newChild.NextSibling != nil {
		panic("thtml: InsertBefore called for an attached child Node")
	}
	var prev, next *Node
	if oldChild != nil {
		prev, next = oldChild.PrevSibling, oldChild
	} else {
		prev = n.LastChild
	}
	if prev != nil {
		prev.NextSibling = newChild
	} else {
		n.FirstChild = newChild
	}
	if next != nil {
		next.PrevSibling = newChild
	} else {
		n.LastChild = newChild
	}
	newChild.Parent = n
	newChild.PrevSibling = prev
	newChild.NextSibling = next
}

// AppendChild adds a node c as a child of n.
//
// It will panic if c already has a parent or siblings.
func (n *Node) AppendChild(c *Node) {
	if c.Parent != nil || c.PrevSibling != nil || c.NextSibling != nil {
		panic("thtml: AppendChild called for an attached child Node")
	}
	last := n.LastChild
	if last != nil {
		last.NextSibling = c
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
	c.Parent = n
	c.PrevSibling = last
}

// RemoveChild removes a node c that is a child of n. Afterwards, c will have
// no parent and no siblings.
//
// It will panic if c's parent is not n.
func (n *Node) RemoveChild(c *Node) {
	if c.Parent != n {
		panic("thtml: RemoveChild called for a non-child Node")
	}
	if n.FirstChild == c {
		n.FirstChild = c.NextSibling
	}
	if c.NextSibling != nil {
		c.NextSibling.PrevSibling = c.PrevSibling
	}
	if n.LastChild == c {
		n.LastChild = c.PrevSibling
	}
	if c.PrevSibling != nil {
		c.PrevSibling.NextSibling = c.NextSibling
	}
	c.Parent = nil
	c.PrevSibling = nil
	c.NextSibling = nil
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// hasAncestor reports whether an element with the given name encloses n.
func (n *Node) hasAncestor(name string) bool {
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Type == ElementNode && a.Data == name {
			return true
		}
	}
	return false
}

// Walk calls fn for n and every node below it in document order. Returning
// false from fn skips the children of that node.
func Walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// CheckLinks verifies the parent, child and sibling links of the subtree rooted
// at n and returns a description of the first inconsistency found.
func CheckLinks(n *Node) error {
	seen := make(map[*Node]bool)
	var check func(*Node) error
	check = func(n *Node) error {
		if seen[n] {
			return fmt.Errorf("node %s %q reachable twice", n.Type, n.Data)
		}
		seen[n] = true
		var prev *Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Parent != n {
				return fmt.Errorf("child %s %q of %q has wrong parent", c.Type, c.Data, n.Data)
			}
			if c.PrevSibling != prev {
				return fmt.Errorf("child %s %q of %q has wrong previous sibling", c.Type, c.Data, n.Data)
			}
			if err := check(c); err != nil {
				return err
			}
			prev = c
		}
		if n.LastChild != prev {
			return fmt.Errorf("last child of %q is inconsistent", n.Data)
		}
		return nil
	}
	return check(n)
}

// nodeStack is a stack of nodes.
type nodeStack []*Node
