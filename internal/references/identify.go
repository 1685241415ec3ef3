package references

import (
	"strings"

	"github.com/wkillerud/some-sass-sub003/internal/parser"
	"github.com/wkillerud/some-sass-sub003/internal/resolver"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

// Occurrence is a symbol name found in a document.
type Occurrence struct {
	resolver.Reference
	// Node is the name node. Its range never includes the namespace.
	Node *parser.Node
	// Declaration marks declaration names, parameters and loop bindings.
	Declaration bool
}

// Identify returns the symbol occurrence at offset, or false when the
// offset is not on a variable, mixin, function or placeholder name.
func Identify(doc *symbols.Document, offset int) (*Occurrence, bool) {
	if doc == nil || doc.Tree == nil {
		return nil, false
	}
	n := doc.Tree.NodeAt(offset)
	if n == nil {
		return nil, false
	}
	return occurrence(doc, n)
}

func occurrence(doc *symbols.Document, n *parser.Node) (*Occurrence, bool) {
	occ := &Occurrence{Node: n}
	occ.Name = doc.Tree.TextOf(n)
	occ.Namespace = n.Namespace
	occ.Offset = n.Offset
	if occ.Name == "" || n.Parent == nil {
		return nil, false
	}
	switch n.Type {
	case parser.VariableName:
		occ.Kind = symbols.Variable
		switch n.Parent.Type {
		case parser.VariableDeclaration, parser.FunctionParameter, parser.LoopBinding:
			occ.Declaration = true
		}
	case parser.Identifier:
		switch n.Parent.Type {
		case parser.MixinReference:
			occ.Kind = symbols.Mixin
		case parser.MixinDeclaration:
			occ.Kind = symbols.Mixin
			occ.Declaration = true
		case parser.Function:
			occ.Kind = symbols.Function
		case parser.FunctionDeclaration:
			occ.Kind = symbols.Function
			occ.Declaration = true
		default:
			return nil, false
		}
	case parser.Placeholder:
		occ.Kind = symbols.Placeholder
		occ.Declaration = n.Parent.Type == parser.Selector
	default:
		return nil, false
	}
	return occ, true
}

// candidates returns the name nodes of doc that may refer to a symbol of
// kind whose bare name ends in bare.
func candidates(doc *symbols.Document, kind symbols.Kind, bare string) []*Occurrence {
	var types []parser.NodeType
	switch kind {
	case symbols.Variable:
		types = []parser.NodeType{parser.VariableName}
	case symbols.Mixin, symbols.Function:
		types = []parser.NodeType{parser.Identifier}
	case symbols.Placeholder:
		types = []parser.NodeType{parser.Placeholder}
	}
	var out []*Occurrence
	for _, n := range doc.Tree.Nodes(types...) {
		occ, ok := occurrence(doc, n)
		if !ok || occ.Kind != kind {
			continue
		}
		if !strings.HasSuffix(symbols.Normalize(symbols.StripSigil(occ.Name)), bare) {
			continue
		}
		out = append(out, occ)
	}
	return out
}

// Occurrences lists every symbol name of doc in source order.
func Occurrences(doc *symbols.Document) []*Occurrence {
	if doc == nil || doc.Tree == nil {
		return nil
	}
	var out []*Occurrence
	for _, n := range doc.Tree.Nodes(parser.VariableName, parser.Identifier, parser.Placeholder) {
		if occ, ok := occurrence(doc, n); ok {
			out = append(out, occ)
		}
	}
	return out
}
