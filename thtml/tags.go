package thtml

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html/atom"
)

// ContentModel is a bit set classifying where a tag may appear and what it may contain.
type ContentModel uint32

const (
	CMEmpty    ContentModel = 1 << iota // no content, no end tag
	CMHTML                              // html, head, body, frameset
	CMHead                              // allowed in head
	CMBlock                             // block level
	CMInline                            // inline level
	CMList                              // li
	CMDefList                           // dt, dd
	CMTable                             // table substructure
	CMRowGroup                          // thead, tbody, tfoot
	CMRow                               // td, th
	CMField                             // form fields
	CMObject                            // object, applet
	CMParam                             // accepts param children
	CMFrames                            // frameset content
	CMHeading                           // h1-h6
	CMOpt                               // end tag is optional
	CMImg                               // replaced inline content
	CMMixed                             // inline and block content
	CMNoIndent                          // content is not indented by pretty printers
	CMObsolete                          // deprecated element
	CMNew                               // declared by the user
	CMOmitStart                         // start tag may be omitted
)

// Version is a bit set of HTML versions a tag belongs to.
type Version uint16

const (
	HTML20 Version = 1 << iota
	HTML32
	HTML40Strict
	HTML40Loose
	HTML40Frameset
	XHTML11
	HTML5
	Proprietary
)

const (
	html40All  = HTML40Strict | HTML40Loose | HTML40Frameset
	htmlLegacy = HTML20 | HTML32 | html40All
	htmlAll    = htmlLegacy | XHTML11 | HTML5
	looseOnly  = HTML32 | HTML40Loose | HTML40Frameset
)

// Category selects the tree construction routine for a tag.
type Category uint8

const (
	CatEmpty Category = iota
	CatHTML
	CatHead
	CatTitle
	CatScript
	CatBody
	CatFrameset
	CatNoFrames
	CatBlock
	CatInline
	CatList
	CatDefList
	CatTable
	CatColGroup
	CatRowGroup
	CatRow
	CatPre
	CatSelect
	CatOptGroup
	CatText
)

var categoryNames = [...]string{
	CatEmpty:    "empty",
	CatHTML:     "html",
	CatHead:     "head",
	CatTitle:    "title",
	CatScript:   "script",
	CatBody:     "body",
	CatFrameset: "frameset",
	CatNoFrames: "noframes",
	CatBlock:    "block",
	CatInline:   "inline",
	CatList:     "list",
	CatDefList:  "deflist",
	CatTable:    "table",
	CatColGroup: "colgroup",
	CatRowGroup: "rowgroup",
	CatRow:      "row",
	CatPre:      "pre",
	CatSelect:   "select",
	CatOptGroup: "optgroup",
	CatText:     "text",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// TagEntry describes one tag known to the catalog.
type TagEntry struct {
	Name     string
	Atom     atom.Atom
	Versions Version
	Model    ContentModel
	Category Category
}

// Declared reports whether the entry comes from a user declaration.
func (t *TagEntry) Declared() bool { return t.Model&CMNew != 0 }

func newTag(name string, v Version, m ContentModel, c Category) *TagEntry {
	return &TagEntry{Name: name, Atom: atom.Lookup([]byte(name)), Versions: v, Model: m, Category: c}
}

var staticTags = func() map[string]*TagEntry {
	tags := []*TagEntry{
		newTag("html", htmlAll, CMHTML|CMOpt|CMOmitStart, CatHTML),
		newTag("head", htmlAll, CMHTML|CMOpt|CMOmitStart, CatHead),
		newTag("title", htmlAll, CMHead, CatTitle),
		newTag("base", htmlAll, CMHead|CMEmpty, CatEmpty),
		newTag("link", htmlAll, CMHead|CMEmpty, CatEmpty),
		newTag("meta", htmlAll, CMHead|CMEmpty, CatEmpty),
		newTag("style", htmlAll&^HTML20, CMHead, CatScript),
		newTag("script", htmlAll&^HTML20, CMHead|CMMixed|CMBlock|CMInline, CatScript),
		newTag("server", Proprietary, CMHead|CMMixed|CMBlock|CMInline, CatScript),
		newTag("servlet", Proprietary, CMObject|CMImg|CMInline|CMParam, CatBlock),
		newTag("noscript", html40All|XHTML11|HTML5, CMBlock|CMInline|CMMixed, CatBlock),
		newTag("body", htmlAll, CMHTML|CMOpt|CMOmitStart, CatBody),
		newTag("frameset", HTML40Frameset, CMHTML|CMFrames, CatFrameset),
		newTag("frame", HTML40Frameset, CMFrames|CMEmpty, CatEmpty),
		newTag("noframes", HTML40Loose|HTML40Frameset, CMBlock|CMFrames, CatNoFrames),
		newTag("iframe", HTML40Loose|HTML40Frameset|HTML5, CMInline, CatBlock),

		newTag("p", htmlAll, CMBlock|CMOpt, CatInline),
		newTag("h1", htmlAll, CMBlock|CMHeading, CatInline),
		newTag("h2", htmlAll, CMBlock|CMHeading, CatInline),
		newTag("h3", htmlAll, CMBlock|CMHeading, CatInline),
		newTag("h4", htmlAll, CMBlock|CMHeading, CatInline),
		newTag("h5", htmlAll, CMBlock|CMHeading, CatInline),
		newTag("h6", htmlAll, CMBlock|CMHeading, CatInline),
		newTag("ul", htmlAll, CMBlock, CatList),
		newTag("ol", htmlAll, CMBlock, CatList),
		newTag("dir", looseOnly|HTML20, CMBlock|CMObsolete, CatList),
		newTag("menu", looseOnly|HTML20|HTML5, CMBlock|CMObsolete, CatList),
		newTag("li", htmlAll, CMList|CMOpt|CMNoIndent, CatBlock),
		newTag("dl", htmlAll, CMBlock, CatDefList),
		newTag("dt", htmlAll, CMDefList|CMOpt|CMNoIndent, CatInline),
		newTag("dd", htmlAll, CMDefList|CMOpt|CMNoIndent, CatBlock),
		newTag("pre", htmlAll, CMBlock, CatPre),
		newTag("listing", HTML20|HTML32|HTML40Loose|HTML40Frameset, CMBlock|CMObsolete, CatPre),
		newTag("xmp", HTML20|HTML32|HTML40Loose|HTML40Frameset, CMBlock|CMObsolete, CatPre),
		newTag("plaintext", HTML20|HTML32|HTML40Loose|HTML40Frameset, CMBlock|CMObsolete, CatPre),
		newTag("address", htmlAll, CMBlock, CatBlock),
		newTag("blockquote", htmlAll, CMBlock, CatBlock),
		newTag("div", htmlAll&^HTML20, CMBlock, CatBlock),
		newTag("center", looseOnly, CMBlock, CatBlock),
		newTag("hr", htmlAll, CMBlock|CMEmpty, CatEmpty),
		newTag("form", htmlAll, CMBlock, CatBlock),
		newTag("fieldset", html40All|XHTML11|HTML5, CMBlock, CatBlock),
		newTag("legend", html40All|XHTML11|HTML5, CMInline, CatInline),
		newTag("isindex", looseOnly|HTML20, CMBlock|CMEmpty, CatEmpty),
		newTag("layer", Proprietary, CMBlock, CatBlock),
		newTag("ilayer", Proprietary, CMInline, CatInline),
		newTag("nolayer", Proprietary, CMBlock|CMInline|CMMixed, CatBlock),
		newTag("multicol", Proprietary, CMBlock, CatBlock),
		newTag("article", HTML5, CMBlock, CatBlock),
		newTag("aside", HTML5, CMBlock, CatBlock),
		newTag("footer", HTML5, CMBlock, CatBlock),
		newTag("header", HTML5, CMBlock, CatBlock),
		newTag("main", HTML5, CMBlock, CatBlock),
		newTag("nav", HTML5, CMBlock, CatBlock),
		newTag("section", HTML5, CMBlock, CatBlock),
		newTag("figure", HTML5, CMBlock, CatBlock),
		newTag("figcaption", HTML5, CMBlock, CatBlock),

		newTag("table", htmlAll&^HTML20, CMBlock, CatTable),
		newTag("caption", htmlAll&^HTML20, CMTable, CatInline),
		newTag("colgroup", html40All|XHTML11|HTML5, CMTable|CMOpt, CatColGroup),
		newTag("col", html40All|XHTML11|HTML5, CMTable|CMEmpty, CatEmpty),
		newTag("thead", html40All|XHTML11|HTML5, CMTable|CMRowGroup|CMOpt, CatRowGroup),
		newTag("tbody", html40All|XHTML11|HTML5, CMTable|CMRowGroup|CMOpt, CatRowGroup),
		newTag("tfoot", html40All|XHTML11|HTML5, CMTable|CMRowGroup|CMOpt, CatRowGroup),
		newTag("tr", htmlAll&^HTML20, CMTable|CMOpt, CatRow),
		newTag("td", htmlAll&^HTML20, CMRow|CMOpt|CMNoIndent, CatBlock),
		newTag("th", htmlAll&^HTML20, CMRow|CMOpt|CMNoIndent, CatBlock),

		newTag("a", htmlAll, CMInline, CatInline),
		newTag("abbr", html40All|XHTML11|HTML5, CMInline, CatInline),
		newTag("acronym", html40All|XHTML11, CMInline, CatInline),
		newTag("b", htmlAll, CMInline, CatInline),
		newTag("bdo", html40All|XHTML11|HTML5, CMInline, CatInline),
		newTag("big", htmlAll&^HTML20, CMInline, CatInline),
		newTag("blink", Proprietary, CMInline, CatInline),
		newTag("cite", htmlAll, CMInline, CatInline),
		newTag("code", htmlAll, CMInline, CatInline),
		newTag("del", html40All|XHTML11|HTML5, CMInline|CMBlock|CMMixed, CatInline),
		newTag("dfn", htmlAll&^HTML20, CMInline, CatInline),
		newTag("em", htmlAll, CMInline, CatInline),
		newTag("font", looseOnly, CMInline, CatInline),
		newTag("i", htmlAll, CMInline, CatInline),
		newTag("ins", html40All|XHTML11|HTML5, CMInline|CMBlock|CMMixed, CatInline),
		newTag("kbd", htmlAll, CMInline, CatInline),
		newTag("label", html40All|XHTML11|HTML5, CMInline, CatInline),
		newTag("marquee", Proprietary, CMInline|CMOpt, CatInline),
		newTag("nobr", Proprietary, CMInline, CatInline),
		newTag("noembed", Proprietary, CMInline, CatInline),
		newTag("q", html40All|XHTML11|HTML5, CMInline, CatInline),
		newTag("s", looseOnly, CMInline, CatInline),
		newTag("samp", htmlAll, CMInline, CatInline),
		newTag("small", htmlAll&^HTML20, CMInline, CatInline),
		newTag("span", html40All|XHTML11|HTML5, CMInline, CatInline),
		newTag("strike", looseOnly, CMInline, CatInline),
		newTag("strong", htmlAll, CMInline, CatInline),
		newTag("sub", htmlAll&^HTML20, CMInline, CatInline),
		newTag("sup", htmlAll&^HTML20, CMInline, CatInline),
		newTag("tt", htmlAll, CMInline, CatInline),
		newTag("u", looseOnly, CMInline, CatInline),
		newTag("var", htmlAll, CMInline, CatInline),
		newTag("button", html40All|XHTML11|HTML5, CMInline, CatInline),
		newTag("ruby", XHTML11, CMInline, CatInline),
		newTag("rb", XHTML11, CMInline, CatInline),
		newTag("rp", XHTML11, CMInline, CatInline),
		newTag("rt", XHTML11, CMInline, CatInline),
		newTag("rtc", XHTML11, CMInline, CatInline),

		newTag("basefont", looseOnly, CMInline|CMEmpty, CatEmpty),
		newTag("br", htmlAll, CMInline|CMEmpty, CatEmpty),
		newTag("img", htmlAll, CMInline|CMImg|CMEmpty, CatEmpty),
		newTag("input", htmlAll, CMInline|CMImg|CMEmpty, CatEmpty),
		newTag("wbr", Proprietary|HTML5, CMInline|CMEmpty, CatEmpty),
		newTag("spacer", Proprietary, CMInline|CMEmpty, CatEmpty),
		newTag("embed", Proprietary|HTML5, CMInline|CMImg|CMEmpty, CatEmpty),
		newTag("keygen", Proprietary, CMInline|CMEmpty, CatEmpty),
		newTag("bgsound", Proprietary, CMHead|CMEmpty, CatEmpty),
		newTag("param", html40All|XHTML11|HTML5, CMInline|CMEmpty, CatEmpty),
		newTag("area", htmlAll&^HTML20, CMBlock|CMEmpty, CatEmpty),
		newTag("map", htmlAll&^HTML20, CMInline, CatBlock),
		newTag("object", html40All|XHTML11|HTML5, CMObject|CMHead|CMImg|CMInline|CMParam, CatBlock),
		newTag("applet", looseOnly, CMObject|CMImg|CMInline|CMParam, CatBlock),

		newTag("select", htmlAll, CMInline|CMField, CatSelect),
		newTag("optgroup", html40All|XHTML11|HTML5, CMField|CMOpt, CatOptGroup),
		newTag("option", htmlAll, CMField|CMOpt, CatText),
		newTag("textarea", htmlAll, CMInline|CMField, CatText),
	}
	m := make(map[string]*TagEntry, len(tags))
	for _, t := range tags {
		m[t.Name] = t
	}
	return m
}()

// UserCategory is the category a user-declared tag is given.
type UserCategory uint8

const (
	UserEmpty UserCategory = iota
	UserInline
	UserBlock
	UserPre
)

var userCategoryNames = map[string]UserCategory{
	"empty":  UserEmpty,
	"inline": UserInline,
	"block":  UserBlock,
	"pre":    UserPre,
}

// ParseUserCategory converts a category name (empty, inline, block, pre).
func ParseUserCategory(s string) (UserCategory, error) {
	c, ok := userCategoryNames[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown tag category %q", s)
	}
	return c, nil
}

var (
	// ErrCatalogFrozen is returned when declaring a tag after parsing started.
	ErrCatalogFrozen = errors.New("tag catalog is frozen")
	// ErrTagDeclared is returned when a name is already known to the catalog.
	ErrTagDeclared = errors.New("tag already declared")
)

// A Catalog resolves tag names. It consults the static table first and then an
// overlay of user-declared tags. The overlay may only be changed until Freeze is
// called; Parse freezes the catalog it is given.
type Catalog struct {
	overlay map[string]*TagEntry
	frozen  bool
}

// NewCatalog returns a catalog with an empty overlay.
func NewCatalog() *Catalog {
	return &Catalog{overlay: make(map[string]*TagEntry)}
}

// Declare adds a user tag to the overlay.
func (c *Catalog) Declare(name string, uc UserCategory) error {
	if c.frozen {
		return fmt.Errorf("declare %q: %w", name, ErrCatalogFrozen)
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return errors.New("declare: empty tag name")
	}
	if _, ok := staticTags[name]; ok {
		return fmt.Errorf("declare %q: %w", name, ErrTagDeclared)
	}
	if _, ok := c.overlay[name]; ok {
		return fmt.Errorf("declare %q: %w", name, ErrTagDeclared)
	}
	var t *TagEntry
	switch uc {
	case UserEmpty:
		t = newTag(name, Proprietary, CMEmpty|CMNoIndent|CMNew, CatEmpty)
	case UserInline:
		t = newTag(name, Proprietary, CMInline|CMNoIndent|CMNew, CatInline)
	case UserBlock:
		t = newTag(name, Proprietary, CMBlock|CMNoIndent|CMNew, CatBlock)
	case UserPre:
		t = newTag(name, Proprietary, CMBlock|CMNoIndent|CMNew, CatPre)
	default:
		return fmt.Errorf("declare %q: invalid category %d", name, uc)
	}
	if c.overlay == nil {
		c.overlay = make(map[string]*TagEntry)
	}
	c.overlay[name] = t
	return nil
}

// Freeze makes the overlay read-only.
func (c *Catalog) Freeze() { c.frozen = true }

// Frozen reports whether Freeze was called. A nil catalog has no overlay to change.
func (c *Catalog) Frozen() bool { return c == nil || c.frozen }

// Lookup resolves a tag name. Names are matched case-insensitively.
func (c *Catalog) Lookup(name string) *TagEntry {
	if t, ok := staticTags[name]; ok {
		return t
	}
	lower := strings.ToLower(name)
	if t, ok := staticTags[lower]; ok {
		return t
	}
	if c != nil {
		if t, ok := c.overlay[lower]; ok {
			return t
		}
	}
	return nil
}

// Declared returns the names in the overlay.
func (c *Catalog) Declared() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.overlay))
	for n := range c.overlay {
		names = append(names, n)
	}
	return names
}

// lookupStatic resolves a name that is known to be in the static table.
func lookupStatic(name string) *TagEntry {
	t, ok := staticTags[name]
	if !ok {
		panic("thtml: unknown static tag " + name)
	}
	return t
}
