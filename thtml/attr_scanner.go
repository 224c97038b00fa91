package thtml

import "strings"

// maxMarkupInValue is the number of '<', '>' and newline characters a quoted
// value may hold before a missing closing quote is suspected.
const maxMarkupInValue = 10

// readAttrs parses the attributes of tag up to and including the closing '>'.
// It returns the attributes in source order and whether the tag was closed
// with "/>".
func (z *Tokenizer) readAttrs(tag string, start Span) ([]Attribute, bool) {
	var attrs []Attribute
	for {
		c := z.skipSpace()
		switch c.r {
		case eof:
			z.diag(UnexpectedEndOfInput, start, tag, "", "end of file while parsing attributes of %s", describe(tag, false))
			return attrs, false
		case '>':
			return attrs, false
		case '/':
			n := z.in.read()
			if n.r == '>' {
				return attrs, true
			}
			z.in.unread(n)
			continue
		case '<':
			n := z.in.read()
			if lang, term := serverStart(n.r); lang != NoServer {
				code, _ := z.scanUntil(term)
				z.diag(ServerCodeInTag, c.at, tag, "", "%s code block in %s", lang, describe(tag, false))
				attrs = append(attrs, Attribute{Val: code, Server: lang})
				continue
			}
			z.in.unread(n)
			z.in.unread(c)
			z.diag(UnexpectedCharInTag, c.at, tag, "", "%s missing '>' for end of tag", describe(tag, false))
			return attrs, false
		case '=', '"', '\'':
			z.diag(UnexpectedCharInTag, c.at, tag, "", "unexpected %q in %s", c.r, describe(tag, false))
			continue
		}
		z.in.unread(c)
		key := z.readAttrName()
		def := LookupAttr(key)
		a := Attribute{Key: key, Def: def}
		if eq := z.skipSpace(); eq.r != '=' {
			z.in.unread(eq)
			a.NoValue = true
		} else {
			a.Val, a.Quote, a.Server = z.readAttrValue(tag, key, def)
		}
		attrs = z.addAttr(attrs, a, tag, c.at)
	}
}

// addAttr appends a unless an attribute with the same name is already present.
func (z *Tokenizer) addAttr(attrs []Attribute, a Attribute, tag string, at Span) []Attribute {
	for _, b := range attrs {
		if b.Server == NoServer && b.Key == a.Key {
			z.diag(RepeatedAttribute, at, tag, a.Key, "%s dropping value %q for repeated attribute %q", describe(tag, false), a.Val, a.Key)
			return attrs
		}
	}
	return append(attrs, a)
}

func (z *Tokenizer) skipSpace() posRune {
	for {
		pr := z.in.read()
		if !isSpace(pr.r) {
			return pr
		}
	}
}

// readAttrName reads a name up to '=', whitespace, '>', '<', a quote or a "/>".
func (z *Tokenizer) readAttrName() string {
	var name []rune
	for {
		pr := z.in.read()
		if pr.r == eof || pr.r == '=' || pr.r == '>' || pr.r == '<' || pr.r == '"' || pr.r == '\'' || isSpace(pr.r) {
			z.in.unread(pr)
			break
		}
		if pr.r == '/' {
			n := z.in.read()
			z.in.unread(n)
			if n.r == '>' {
				z.in.unread(pr)
				break
			}
		}
		name = append(name, pr.r)
	}
	if z.xml {
		return string(name)
	}
	return strings.ToLower(string(name))
}

// readAttrValue parses a value after '='. A '<' introducing a server code block
// yields the code and its language instead of a value.
func (z *Tokenizer) readAttrValue(tag, key string, def *AttrDef) (string, rune, ServerLang) {
	c := z.skipSpace()
	switch c.r {
	case eof:
		return "", 0, NoServer
	case '>':
		z.in.unread(c)
		return "", 0, NoServer
	case '<':
		n := z.in.read()
		if lang, term := serverStart(n.r); lang != NoServer {
			code, _ := z.scanUntil(term)
			z.diag(ServerCodeInTag, c.at, tag, key, "%s code block in value of %q", lang, key)
			return code, 0, lang
		}
		z.in.unread(n)
	case '"', '\'':
		return z.readQuotedValue(tag, key, def, c), c.r, NoServer
	}

	var val []rune
	for pr := c; ; pr = z.in.read() {
		if pr.r == eof || isSpace(pr.r) {
			break
		}
		if pr.r == '>' {
			z.in.unread(pr)
			break
		}
		if pr.r == '/' {
			n := z.in.read()
			z.in.unread(n)
			if n.r == '>' && !isURLAttr(def) {
				z.in.unread(pr)
				break
			}
		}
		if pr.r == '&' {
			val = append(val, []rune(z.readEntity(pr, true))...)
			continue
		}
		val = append(val, pr.r)
	}
	return string(val), 0, NoServer
}

func (z *Tokenizer) readQuotedValue(tag, key string, def *AttrDef, open posRune) string {
	var val []rune
	markup := 0
	for {
		pr := z.in.read()
		if pr.r == eof {
			z.diag(UnexpectedEndOfInput, open.at, tag, key, "end of file while parsing value of attribute %q", key)
			break
		}
		if pr.r == open.r {
			break
		}
		switch pr.r {
		case '<', '>', '\n':
			markup++
		case '&':
			val = append(val, []rune(z.readEntity(pr, true))...)
			continue
		}
		val = append(val, pr.r)
	}
	if markup > maxMarkupInValue && !isScriptAttr(key, def) && !isURLAttr(def) {
		z.diag(SuspectedMissingQuote, open.at, tag, key, "value of attribute %q in %s lacks closing quote mark", key, describe(tag, false))
	}
	return string(val)
}

func serverStart(r rune) (ServerLang, string) {
	switch r {
	case '%':
		return ASP, "%>"
	case '#':
		return JSTE, "#>"
	case '?':
		return PHP, "?>"
	}
	return NoServer, ""
}
