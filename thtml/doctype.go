// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thtml

import (
	"strings"
)

// parseDoctype parses the data from a DoctypeToken into a name, public
// identifier, and system identifier. It returns a Node whose Type is
// DoctypeNode, whose Data is the name, and which has attributes named "public"
// and "system" for the two identifiers if they were present. The second result
// is false when the declaration does not name a root element.
func parseDoctype(s string) (n *Node, ok bool) {
	n = &Node{Type: DoctypeNode}

	// Find the name.
	space := strings.IndexAny(s, whitespace)
	if space == -1 {
		space = len(s)
	}
	name := s[:space]
	if name == "" || !isLetter(rune(name[0])) {
		return n, false
	}
	n.Data = strings.ToLower(name)
	s = strings.TrimLeft(s[space:], whitespace)

	if len(s) < 6 {
		// It can't start with "PUBLIC" or "SYSTEM".
		// Ignore the rest of the string.
		return n, true
	}

	key := strings.ToLower(s[:6])
	s = s[6:]
	for key == "public" || key == "system" {
		s = strings.TrimLeft(s, whitespace)
		if s == "" {
			break
		}
		quote := s[0]
		if quote != '"' && quote != '\'' {
			break
		}
		s = s[1:]
		q := strings.IndexRune(s, rune(quote))
		var id string
		if q == -1 {
			id = s
			s = ""
		} else {
			id = s[:q]
			s = s[q+1:]
		}
		n.Attr = append(n.Attr, Attribute{Key: key, Val: id, Quote: rune(quote)})
		if key == "public" {
			key = "system"
		} else {
			key = ""
		}
	}

	return n, true
}

// doctypeVersion guesses the HTML version a doctype declares.
func doctypeVersion(n *Node) Version {
	public, _ := n.AttrVal("public")
	public = strings.ToUpper(public)
	switch {
	case n.Data != "html":
		return 0
	case public == "":
		return HTML5
	case strings.Contains(public, "XHTML 1.1"):
		return XHTML11
	case strings.Contains(public, "FRAMESET"):
		return HTML40Frameset
	case strings.Contains(public, "TRANSITIONAL"), strings.Contains(public, "LOOSE"):
		return HTML40Loose
	case strings.Contains(public, "HTML 4"), strings.Contains(public, "XHTML 1.0 STRICT"):
		return HTML40Strict
	case strings.Contains(public, "HTML 3.2"):
		return HTML32
	case strings.Contains(public, "HTML 2.0"):
		return HTML20
	}
	return 0
}
