package thtml

import (
	"fmt"
	"strconv"
	"strings"
)

// A TokenType is the type of a Token.
type TokenType uint8

const (
	TextToken TokenType = iota + 1
	StartTagToken
	EndTagToken
	SelfClosingTagToken
	CommentToken
	DoctypeToken
	ProcInstToken
	CDataToken
	ServerCodeToken
	XMLDeclToken
	SectionToken
)

var tokenTypeNames = [...]string{
	TextToken:           "Text",
	StartTagToken:       "StartTag",
	EndTagToken:         "EndTag",
	SelfClosingTagToken: "SelfClosingTag",
	CommentToken:        "Comment",
	DoctypeToken:        "Doctype",
	ProcInstToken:       "ProcInst",
	CDataToken:          "CData",
	ServerCodeToken:     "ServerCode",
	XMLDeclToken:        "XMLDecl",
	SectionToken:        "Section",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) && tokenTypeNames[t] != "" {
		return tokenTypeNames[t]
	}
	return "Invalid(" + strconv.Itoa(int(t)) + ")"
}

// A Token consists of a TokenType and some Data (tag name for start and end tags,
// content for everything else).
type Token struct {
	Type   TokenType
	Data   string
	Attr   []Attribute
	Server ServerLang
	Span   Span

	// Implicit is set on start tags synthesized from the inline reconstruction stack.
	Implicit bool

	// entry links a synthesized token to the stack entry it was cloned from.
	entry *inlineEntry
}

// isStart reports whether t opens an element.
func (t *Token) isStart() bool {
	return t.Type == StartTagToken || t.Type == SelfClosingTagToken
}

// String returns a string representation of the Token.
func (t *Token) String() string {
	switch t.Type {
	case StartTagToken, SelfClosingTagToken:
		var sb strings.Builder
		sb.WriteByte('<')
		sb.WriteString(t.Data)
		for _, a := range t.Attr {
			sb.WriteByte(' ')
			if a.Server != NoServer {
				fmt.Fprintf(&sb, "<%s%s>", a.Server, a.Val)
				continue
			}
			sb.WriteString(a.Key)
			if !a.NoValue {
				sb.WriteString("=")
				sb.WriteString(strconv.Quote(a.Val))
			}
		}
		if t.Type == SelfClosingTagToken {
			sb.WriteString("/")
		}
		sb.WriteByte('>')
		return sb.String()
	case EndTagToken:
		return "</" + t.Data + ">"
	case CommentToken:
		return "<!--" + t.Data + "-->"
	case DoctypeToken:
		return "<!DOCTYPE " + t.Data + ">"
	case CDataToken:
		return "<![CDATA[" + t.Data + "]]>"
	case SectionToken:
		return "<![" + t.Data + "]>"
	case ProcInstToken, XMLDeclToken:
		return "<?" + t.Data + ">"
	case ServerCodeToken:
		return fmt.Sprintf("<%s %s>", t.Server, t.Data)
	}
	return t.Data
}
