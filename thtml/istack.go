package thtml

import "golang.org/x/net/html/atom"

// inlineEntry is a saved copy of an inline formatting element.
type inlineEntry struct {
	tag  *TagEntry
	name string
	attr []Attribute

	// node is the element currently standing for the entry: the original one
	// or the latest reconstructed clone. open is set while its construction
	// routine runs.
	node *Node
	open bool
}

// inlineStack records open inline formatting elements so that they can be
// reopened inside the next block that would otherwise cut them off.
type inlineStack struct {
	entries []*inlineEntry

	// base is the lowest index reconstruction may reach; entries below it
	// belong to an enclosing isolated context such as a table.
	base int

	// insert is the index of the next entry to synthesize, or -1.
	insert int
}

func newInlineStack() inlineStack {
	return inlineStack{insert: -1}
}

// push records n. Implicit nodes, object-like nodes and (except for font) tags
// that are already recorded are ignored.
func (s *inlineStack) push(n *Node) {
	if n.Implicit() || n.Tag == nil {
		return
	}
	if !n.HasModel(CMInline) || n.HasModel(CMObject) {
		return
	}
	if n.DataAtom != atom.Font && s.isPushed(n.Tag) {
		return
	}
	attr := make([]Attribute, len(n.Attr))
	copy(attr, n.Attr)
	s.entries = append(s.entries, &inlineEntry{tag: n.Tag, name: n.Data, attr: attr, node: n, open: true})
}

// isPushed reports whether an entry for tag is above the base.
func (s *inlineStack) isPushed(tag *TagEntry) bool {
	return s.find(tag) >= 0
}

// find returns the index of the topmost entry for tag above the base, or -1.
func (s *inlineStack) find(tag *TagEntry) int {
	for i := len(s.entries) - 1; i >= s.base; i-- {
		if s.entries[i].tag == tag {
			return i
		}
	}
	return -1
}

// pop removes the most recent entry.
func (s *inlineStack) pop() {
	if len(s.entries) <= s.base {
		return
	}
	s.remove(len(s.entries) - 1)
}

// popTag removes the topmost entry for tag. It reports whether one was found.
func (s *inlineStack) popTag(tag *TagEntry) bool {
	i := s.find(tag)
	if i < 0 {
		return false
	}
	if i == len(s.entries)-1 {
		s.pop()
	} else {
		s.remove(i)
	}
	return true
}

// popThroughAnchor pops entries until an anchor has been removed. Anchors are
// not allowed to nest, so everything opened inside the anchor goes with it.
func (s *inlineStack) popThroughAnchor() bool {
	if s.find(lookupStatic("a")) < 0 {
		return false
	}
	for len(s.entries) > s.base {
		e := s.entries[len(s.entries)-1]
		s.pop()
		if e.tag.Atom == atom.A {
			break
		}
	}
	return true
}

// popEnd handles the end tag of tag: anchors pop everything opened inside them,
// other tags remove their topmost entry. It reports whether an entry was removed.
func (s *inlineStack) popEnd(tag *TagEntry) bool {
	if tag == nil {
		return false
	}
	if tag.Atom == atom.A {
		return s.popThroughAnchor()
	}
	return s.popTag(tag)
}

func (s *inlineStack) remove(i int) {
	copy(s.entries[i:], s.entries[i+1:])
	s.entries[len(s.entries)-1] = nil
	s.entries = s.entries[:len(s.entries)-1]
	if s.insert >= len(s.entries) {
		s.insert = -1
	}
}

// beginExiledScope starts an isolated context. It returns the state endExiledScope
// restores.
func (s *inlineStack) beginExiledScope() [2]int {
	saved := [2]int{s.base, len(s.entries)}
	s.base = len(s.entries)
	s.insert = -1
	return saved
}

// endExiledScope drops the entries recorded inside the context and restores the base.
func (s *inlineStack) endExiledScope(saved [2]int) {
	for i := saved[1]; i < len(s.entries); i++ {
		s.entries[i] = nil
	}
	if saved[1] < len(s.entries) {
		s.entries = s.entries[:saved[1]]
	}
	s.base = saved[0]
	s.insert = -1
}

// reconstruct arranges for clones of the recorded entries to be delivered as
// the next tokens. Entries whose element is still open are skipped together
// with everything below them. It returns the number of entries scheduled.
func (s *inlineStack) reconstruct() int {
	from := s.base
	for i := len(s.entries) - 1; i >= s.base; i-- {
		if s.entries[i].open {
			from = i + 1
			break
		}
	}
	n := len(s.entries) - from
	if n > 0 {
		s.insert = from
	}
	return n
}

// pending reports whether synthesized tokens are waiting.
func (s *inlineStack) pending() bool {
	return s.insert >= 0
}

// next returns the next synthesized start tag.
func (s *inlineStack) next() *Token {
	e := s.entries[s.insert]
	s.insert++
	if s.insert >= len(s.entries) {
		s.insert = -1
	}
	attr := make([]Attribute, len(e.attr))
	copy(attr, e.attr)
	return &Token{Type: StartTagToken, Data: e.name, Attr: attr, Implicit: true, entry: e}
}

// rewind schedules e to be synthesized again, together with the entries above
// it that were pending. It reports false if e is no longer recorded.
func (s *inlineStack) rewind(e *inlineEntry) bool {
	for i := len(s.entries) - 1; i >= s.base; i-- {
		if s.entries[i] == e {
			if s.insert < 0 || s.insert > i {
				s.insert = i
			}
			return true
		}
	}
	return false
}

// adopt makes n, a clone synthesized from e, the element standing for e.
func (s *inlineStack) adopt(e *inlineEntry, n *Node) {
	e.node = n
	e.open = true
}

// release marks the entry whose element is n as no longer open.
func (s *inlineStack) release(n *Node) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].node == n {
			s.entries[i].open = false
			return
		}
	}
}
