package thtml

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// maxEntityLength bounds the name of a named character reference.
const maxEntityLength = 32

// lookupEntity resolves a named character reference against the HTML entity table.
func lookupEntity(name string) (string, bool) {
	ref := "&" + name + ";"
	s := html.UnescapeString(ref)
	if s == ref {
		return "", false
	}
	// UnescapeString falls back to the longest legacy prefix ("&notit;" becomes
	// "¬it;"). Only a full match counts.
	if strings.HasSuffix(s, ";") && name != "semi" {
		return "", false
	}
	return s, true
}

// readEntity decodes a character reference. The leading '&' has been consumed.
// Inside attribute values a named reference without ';' is left as written.
func (z *Tokenizer) readEntity(amp posRune, inAttr bool) string {
	pr := z.in.read()
	switch {
	case pr.r == '#':
		return z.readNumericRef(amp)
	case isLetter(pr.r):
		name := []rune{pr.r}
		for {
			c := z.in.read()
			if !isLetter(c.r) && !isDigit(c.r) || len(name) >= maxEntityLength {
				z.in.unread(c)
				break
			}
			name = append(name, c.r)
		}
		semi := z.in.read()
		hasSemi := semi.r == ';'
		if !hasSemi {
			z.in.unread(semi)
		}
		if s, ok := lookupEntity(string(name)); ok {
			if !hasSemi {
				if inAttr {
					z.diag(UnescapedAmpersand, amp.at, "", "", "unescaped & or unknown entity \"&%s\"", string(name))
					return "&" + string(name)
				}
				z.diag(MissingSemicolon, amp.at, "", "", "entity \"&%s\" doesn't end in ';'", string(name))
			}
			return s
		}
		if hasSemi {
			z.diag(UnknownEntity, amp.at, "", "", "unknown entity \"&%s;\"", string(name))
			return "&" + string(name) + ";"
		}
		z.diag(UnescapedAmpersand, amp.at, "", "", "unescaped & or unknown entity \"&%s\"", string(name))
		return "&" + string(name)
	}
	z.in.unread(pr)
	z.diag(UnescapedAmpersand, amp.at, "", "", "unescaped & which should be written as &amp;")
	return "&"
}

// readNumericRef decodes &#NNN; and &#xHHH;. The "&#" has been consumed.
func (z *Tokenizer) readNumericRef(amp posRune) string {
	literal := "&#"
	hex := false
	x := z.in.read()
	if x.r == 'x' || x.r == 'X' {
		hex = true
		literal += string(x.r)
	} else {
		z.in.unread(x)
	}
	n, digits := 0, 0
	for {
		c := z.in.read()
		var d int
		switch {
		case isDigit(c.r):
			d = int(c.r - '0')
		case hex && c.r >= 'a' && c.r <= 'f':
			d = int(c.r-'a') + 10
		case hex && c.r >= 'A' && c.r <= 'F':
			d = int(c.r-'A') + 10
		default:
			d = -1
		}
		if d < 0 {
			z.in.unread(c)
			break
		}
		digits++
		if n <= unicode.MaxRune {
			if hex {
				n = n*16 + d
			} else {
				n = n*10 + d
			}
		}
	}
	if digits == 0 {
		z.diag(UnescapedAmpersand, amp.at, "", "", "unescaped & which should be written as &amp;")
		return literal
	}
	if semi := z.in.read(); semi.r != ';' {
		z.in.unread(semi)
		z.diag(MissingSemicolon, amp.at, "", "", "numeric character reference doesn't end in ';'")
	}
	return z.numericChar(n, amp.at)
}

// numericChar maps a code point from a numeric reference to text. Code points
// 128-159 are Windows-1252 aliases in legacy documents: known ones are replaced,
// unassigned ones are discarded.
func (z *Tokenizer) numericChar(n int, at Span) string {
	switch {
	case n == 0 || n > unicode.MaxRune || (n >= 0xD800 && n <= 0xDFFF):
		z.diag(InvalidNCR, at, "", "", "replacing invalid numeric character reference %d", n)
		return string(utf8.RuneError)
	case n >= 128 && n <= 159:
		r := charmap.Windows1252.DecodeByte(byte(n))
		if r == rune(n) || r == utf8.RuneError {
			z.diag(InvalidNCR, at, "", "", "discarding invalid character code %d", n)
			return ""
		}
		z.diag(ReplacedNCR, at, "", "", "replacing invalid character code %d", n)
		return string(r)
	}
	return string(rune(n))
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

// isNameChar reports whether r may appear in a tag name after the first letter.
func isNameChar(r rune) bool {
	return isLetter(r) || isDigit(r) || r == '-' || r == '_' || r == ':' || r == '.' || r > 0x7f && unicode.IsLetter(r)
}

const whitespace = " \t\r\n\f"
