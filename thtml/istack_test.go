package thtml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inlineNode(name string) *Node {
	tag := lookupStatic(name)
	return &Node{Type: ElementNode, Tag: tag, DataAtom: tag.Atom, Data: name}
}

// depth returns the number of entries above the base of s.
func depth(s *inlineStack) int {
	return len(s.entries) - s.base
}

func TestInlineStackPush(t *testing.T) {
	s := newInlineStack()
	s.push(inlineNode("b"))
	s.push(inlineNode("b"))
	s.push(inlineNode("p"))
	s.push(inlineNode("object"))
	s.push(inlineNode("font"))
	s.push(inlineNode("font"))

	implicit := inlineNode("i")
	implicit.Flags |= Implicit
	s.push(implicit)

	assert.Equal(t, 3, depth(&s))
	assert.True(t, s.isPushed(lookupStatic("font")))
	assert.False(t, s.isPushed(lookupStatic("i")))
}

func TestInlineStackReconstruct(t *testing.T) {
	s := newInlineStack()
	b, i := inlineNode("b"), inlineNode("i")
	b.Attr = []Attribute{{Key: "class", Val: "x"}}
	s.push(b)
	s.push(i)

	assert.Equal(t, 0, s.reconstruct(), "open elements need no clones")

	s.release(i)
	require.Equal(t, 1, s.reconstruct())
	require.True(t, s.pending())
	tok := s.next()
	assert.Equal(t, "i", tok.Data)
	assert.True(t, tok.Implicit)
	assert.False(t, s.pending())

	s.release(b)
	require.Equal(t, 2, s.reconstruct())
	tok = s.next()
	assert.Equal(t, "b", tok.Data)
	assert.Equal(t, []Attribute{{Key: "class", Val: "x"}}, tok.Attr)
	tok.Attr[0].Val = "changed"
	assert.Equal(t, "x", s.entries[0].attr[0].Val)

	// adopting the clone marks the entry open again
	clone := inlineNode("b")
	s.adopt(tok.entry, clone)
	assert.Equal(t, "i", s.next().Data)
	assert.False(t, s.pending())
	assert.Equal(t, 1, s.reconstruct())
}

func TestInlineStackPopEnd(t *testing.T) {
	s := newInlineStack()
	s.push(inlineNode("b"))
	s.push(inlineNode("i"))
	assert.True(t, s.popEnd(lookupStatic("b")))
	require.Equal(t, 1, depth(&s))
	assert.Equal(t, "i", s.entries[0].name)
	assert.False(t, s.popEnd(lookupStatic("b")))
	assert.False(t, s.popEnd(nil))

	s = newInlineStack()
	s.push(inlineNode("em"))
	s.push(inlineNode("a"))
	s.push(inlineNode("b"))
	s.push(inlineNode("i"))
	assert.True(t, s.popEnd(lookupStatic("a")))
	require.Equal(t, 1, depth(&s))
	assert.Equal(t, "em", s.entries[0].name)
	assert.False(t, s.popThroughAnchor())
}

func TestInlineStackExiledScope(t *testing.T) {
	s := newInlineStack()
	outer := inlineNode("b")
	s.push(outer)
	s.release(outer)

	saved := s.beginExiledScope()
	assert.Equal(t, 0, depth(&s))
	assert.Equal(t, 0, s.reconstruct(), "entries outside the scope are not reopened")

	inner := inlineNode("b")
	s.push(inner)
	s.release(inner)
	require.Equal(t, 1, s.reconstruct())
	tok := s.next()
	assert.Same(t, s.entries[1], tok.entry)

	s.endExiledScope(saved)
	assert.Equal(t, 1, depth(&s))
	assert.False(t, s.pending())
	assert.Equal(t, 1, s.reconstruct())
}

func TestInlineStackRewind(t *testing.T) {
	s := newInlineStack()
	b, i := inlineNode("b"), inlineNode("i")
	s.push(b)
	s.push(i)
	s.release(b)
	s.release(i)

	require.Equal(t, 2, s.reconstruct())
	tok := s.next()
	require.Equal(t, "b", tok.Data)
	assert.True(t, s.rewind(tok.entry))
	assert.Equal(t, "b", s.next().Data)
	assert.Equal(t, "i", s.next().Data)

	require.True(t, s.popTag(lookupStatic("b")))
	assert.False(t, s.rewind(tok.entry))
}
