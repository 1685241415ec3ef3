package parser

import (
	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/sitteradapter"
)

// Tree is a parsed stylesheet together with its source text.
type Tree struct {
	Root  *Node
	Text  string
	Lines *sitteradapter.LineIndex
}

func newTree(text string, root *Node) *Tree {
	return &Tree{Root: root, Text: text, Lines: sitteradapter.NewLineIndex(text)}
}

// NodeAt returns the innermost node whose range contains offset. The end of
// a node is inclusive so that a cursor placed right after a name still
// lands on it.
func (t *Tree) NodeAt(offset int) *Node {
	if t == nil || t.Root == nil || offset < 0 || offset > len(t.Text) {
		return nil
	}
	n := t.Root
	for {
		var next *Node
		for _, c := range n.Children {
			if offset >= c.Offset && offset <= c.End {
				next = c
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

// TextOf returns the source text covered by n.
func (t *Tree) TextOf(n *Node) string {
	if n == nil || n.Offset < 0 || n.End > len(t.Text) || n.Offset > n.End {
		return ""
	}
	return t.Text[n.Offset:n.End]
}

// Range returns the LSP range of n.
func (t *Tree) Range(n *Node) lsp.Range {
	return t.Lines.Range(n.Offset, n.End)
}

// Position returns the LSP position of a byte offset.
func (t *Tree) Position(offset int) lsp.Position {
	return t.Lines.Position(offset)
}

// Offset returns the byte offset of an LSP position.
func (t *Tree) Offset(pos lsp.Position) int {
	return t.Lines.Offset(pos)
}

// Nodes returns every node of the given types in document order.
func (t *Tree) Nodes(types ...NodeType) []*Node {
	var out []*Node
	Walk(t.Root, func(n *Node) bool {
		for _, typ := range types {
			if n.Type == typ {
				out = append(out, n)
				break
			}
		}
		return true
	})
	return out
}
