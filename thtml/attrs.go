package thtml

import (
	"strings"

	"golang.org/x/net/html/atom"
)

// AttrDef describes an attribute name known to the catalog.
type AttrDef struct {
	Name string
	Atom atom.Atom

	// URL is set for attributes whose value is a URL. Slashes and markup
	// characters are expected in such values.
	URL bool

	// Script is set for attributes whose value is script code.
	Script bool
}

const (
	attrPlain = iota
	attrURL
	attrScript
)

var attrDefs = func() map[string]*AttrDef {
	kinds := map[string]int{
		"abbr": attrPlain, "accept": attrPlain, "accept-charset": attrPlain,
		"accesskey": attrPlain, "action": attrURL, "align": attrPlain,
		"alink": attrPlain, "alt": attrPlain, "archive": attrURL,
		"axis": attrPlain, "background": attrURL, "bgcolor": attrPlain,
		"border": attrPlain, "cellpadding": attrPlain, "cellspacing": attrPlain,
		"char": attrPlain, "charoff": attrPlain, "charset": attrPlain,
		"checked": attrPlain, "cite": attrURL, "class": attrPlain,
		"classid": attrURL, "clear": attrPlain, "code": attrPlain,
		"codebase": attrURL, "codetype": attrPlain, "color": attrPlain,
		"cols": attrPlain, "colspan": attrPlain, "compact": attrPlain,
		"content": attrPlain, "coords": attrPlain, "data": attrURL,
		"datetime": attrPlain, "declare": attrPlain, "defer": attrPlain,
		"dir": attrPlain, "disabled": attrPlain, "dynsrc": attrURL,
		"enctype": attrPlain, "face": attrPlain, "for": attrPlain,
		"frame": attrPlain, "frameborder": attrPlain, "headers": attrPlain,
		"height": attrPlain, "href": attrURL, "hreflang": attrPlain,
		"hspace": attrPlain, "http-equiv": attrPlain, "id": attrPlain,
		"ismap": attrPlain, "label": attrPlain, "lang": attrPlain,
		"language": attrPlain, "link": attrPlain, "longdesc": attrURL,
		"lowsrc": attrURL, "marginheight": attrPlain, "marginwidth": attrPlain,
		"maxlength": attrPlain, "media": attrPlain, "method": attrPlain,
		"multiple": attrPlain, "name": attrPlain, "nohref": attrPlain,
		"noresize": attrPlain, "noshade": attrPlain, "nowrap": attrPlain,
		"object": attrPlain, "profile": attrURL, "prompt": attrPlain,
		"readonly": attrPlain, "rel": attrPlain, "rev": attrPlain,
		"rows": attrPlain, "rowspan": attrPlain, "rules": attrPlain,
		"scheme": attrPlain, "scope": attrPlain, "scrolling": attrPlain,
		"selected": attrPlain, "shape": attrPlain, "size": attrPlain,
		"span": attrPlain, "src": attrURL, "standby": attrPlain,
		"start": attrPlain, "style": attrPlain, "summary": attrPlain,
		"tabindex": attrPlain, "target": attrPlain, "text": attrPlain,
		"title": attrPlain, "type": attrPlain, "usemap": attrURL,
		"valign": attrPlain, "value": attrPlain, "valuetype": attrPlain,
		"version": attrPlain, "vlink": attrPlain, "vspace": attrPlain,
		"width": attrPlain, "wrap": attrPlain, "xml:lang": attrPlain,
		"xml:space": attrPlain, "xmlns": attrURL, "rbspan": attrPlain,
		"onabort": attrScript, "onblur": attrScript, "onchange": attrScript,
		"onclick": attrScript, "ondblclick": attrScript, "onerror": attrScript,
		"onfocus": attrScript, "onkeydown": attrScript, "onkeypress": attrScript,
		"onkeyup": attrScript, "onload": attrScript, "onmousedown": attrScript,
		"onmousemove": attrScript, "onmouseout": attrScript, "onmouseover": attrScript,
		"onmouseup": attrScript, "onreset": attrScript, "onresize": attrScript,
		"onscroll": attrScript, "onselect": attrScript, "onsubmit": attrScript,
		"onunload": attrScript,
	}
	m := make(map[string]*AttrDef, len(kinds))
	for name, k := range kinds {
		m[name] = &AttrDef{
			Name:   name,
			Atom:   atom.Lookup([]byte(name)),
			URL:    k == attrURL,
			Script: k == attrScript,
		}
	}
	return m
}()

// LookupAttr resolves an attribute name against the known-attribute table.
// Unknown names starting with "on" are treated as event handler scripts.
func LookupAttr(name string) *AttrDef {
	if d, ok := attrDefs[name]; ok {
		return d
	}
	lower := strings.ToLower(name)
	if d, ok := attrDefs[lower]; ok {
		return d
	}
	return nil
}

// isScriptAttr reports whether values of the named attribute hold script code.
func isScriptAttr(name string, def *AttrDef) bool {
	if def != nil {
		return def.Script
	}
	return len(name) > 2 && strings.EqualFold(name[:2], "on")
}

// isURLAttr reports whether values of the named attribute hold a URL.
func isURLAttr(def *AttrDef) bool {
	return def != nil && def.URL
}
