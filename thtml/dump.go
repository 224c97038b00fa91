// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thtml

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go4.org/bytereplacer"
)

var dumpEscaper = bytereplacer.New(
	"\n", `\n`,
	"\t", `\t`,
	"\f", `\f`,
	"\x00", `\0`,
)

func escapeDump(s string) string {
	return string(dumpEscaper.Replace([]byte(s)))
}

func dumpIndent(w io.Writer, level int) {
	_, _ = io.WriteString(w, "| ")
	for i := 0; i < level; i++ {
		_, _ = io.WriteString(w, "  ")
	}
}

func dumpLevel(w io.Writer, n *Node, level int, flags bool) error {
	dumpIndent(w, level)
	level++
	switch n.Type {
	case RootNode:
		return fmt.Errorf("unexpected %s node", n.Type)
	case ElementNode:
		_, _ = fmt.Fprintf(w, "<%s>", n.Data)
		if flags {
			var fl []string
			if n.Implicit() {
				fl = append(fl, "implicit")
			}
			if n.Flags&SelfClosed != 0 {
				fl = append(fl, "self-closed")
			}
			if n.CoercedFrom != nil {
				fl = append(fl, "from "+n.CoercedFrom.Name)
			}
			if len(fl) > 0 {
				_, _ = fmt.Fprintf(w, " (%s)", strings.Join(fl, ", "))
			}
		}
		attr := make([]Attribute, len(n.Attr))
		copy(attr, n.Attr)
		sort.SliceStable(attr, func(i, j int) bool { return attr[i].Key < attr[j].Key })
		for _, a := range attr {
			_, _ = io.WriteString(w, "\n")
			dumpIndent(w, level)
			switch {
			case a.Server != NoServer:
				_, _ = fmt.Fprintf(w, "%s %q", a.Server, a.Val)
			case a.NoValue:
				_, _ = io.WriteString(w, a.Key)
			default:
				_, _ = fmt.Fprintf(w, `%s="%s"`, a.Key, escapeDump(a.Val))
			}
		}
	case TextNode:
		_, _ = fmt.Fprintf(w, `"%s"`, escapeDump(n.Data))
	case CommentNode:
		_, _ = fmt.Fprintf(w, "<!-- %s -->", escapeDump(n.Data))
	case DoctypeNode:
		_, _ = fmt.Fprintf(w, "<!DOCTYPE %s", n.Data)
		if n.Attr != nil {
			p, _ := n.AttrVal("public")
			s, _ := n.AttrVal("system")
			if p != "" || s != "" {
				_, _ = fmt.Fprintf(w, ` "%s"`, p)
				_, _ = fmt.Fprintf(w, ` "%s"`, s)
			}
		}
		_, _ = io.WriteString(w, ">")
	case ProcInstNode, XMLDeclNode:
		_, _ = fmt.Fprintf(w, "<?%s>", escapeDump(n.Data))
	case CDataNode:
		_, _ = fmt.Fprintf(w, "<![CDATA[%s]]>", escapeDump(n.Data))
	case SectionNode:
		_, _ = fmt.Fprintf(w, "<![%s]>", escapeDump(n.Data))
	case ServerCodeNode:
		_, _ = fmt.Fprintf(w, "<%s %s>", n.Server, escapeDump(n.Data))
	default:
		return fmt.Errorf("unknown node type %s", n.Type)
	}
	_, _ = io.WriteString(w, "\n")
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := dumpLevel(w, c, level, flags); err != nil {
			return err
		}
	}
	return nil
}

// Dump writes the subtree below n, one node per line in the "| " indented
// format. A root node itself is not printed. With flags set, elements are
// annotated with how they were repaired.
func Dump(w io.Writer, n *Node, flags bool) error {
	if n == nil {
		return nil
	}
	if n.Type != RootNode {
		return dumpLevel(w, n, 0, flags)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := dumpLevel(w, c, 0, flags); err != nil {
			return err
		}
	}
	return nil
}
