package resolver

import (
	"github.com/wkillerud/some-sass-sub003/internal/parser"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

// localLookup resolves a variable against the scopes enclosing ref.Offset:
// block declarations, mixin and function parameters, @include using
// parameters and @each/@for bindings. The innermost scope wins.
func localLookup(doc *symbols.Document, ref Reference) *Result {
	if ref.Kind != symbols.Variable || ref.Offset < 0 || doc.Tree == nil {
		return nil
	}
	at := doc.Tree.NodeAt(ref.Offset)
	if at == nil {
		return nil
	}
	want := symbols.Normalize(ref.Name)
	for n := at; n != nil && n.Type != parser.Stylesheet; n = n.Parent {
		var found *parser.Node
		switch n.Type {
		case parser.Block:
			found = blockDeclaration(doc, n, want, ref.Offset)
		case parser.MixinDeclaration, parser.FunctionDeclaration, parser.MixinReference:
			found = parameter(doc, n, want, ref.Offset)
		case parser.AtRule:
			if b := n.Child(parser.LoopBinding); b != nil {
				found = binding(doc, b, want, ref.Offset)
			}
		}
		if found != nil {
			return localResult(doc, found)
		}
	}
	return nil
}

// blockDeclaration finds the last non-global declaration of name in block
// that precedes offset. A declaration does not see itself in its own value.
func blockDeclaration(doc *symbols.Document, block *parser.Node, want string, offset int) *parser.Node {
	var found *parser.Node
	for _, c := range block.ChildrenOf(parser.VariableDeclaration) {
		if c.Global {
			continue
		}
		name := c.Child(parser.VariableName)
		if name == nil || symbols.Normalize(doc.Tree.TextOf(name)) != want {
			continue
		}
		if name.Offset == offset || (c.End <= offset && name.Offset < offset) {
			found = name
		}
	}
	return found
}

// parameter finds a parameter of owner declared before offset, so that a
// default value can use earlier parameters but not later ones.
func parameter(doc *symbols.Document, owner *parser.Node, want string, offset int) *parser.Node {
	for _, p := range owner.ChildrenOf(parser.FunctionParameter) {
		name := p.Child(parser.VariableName)
		if name == nil || name.Offset > offset {
			continue
		}
		if symbols.Normalize(doc.Tree.TextOf(name)) == want {
			return name
		}
	}
	return nil
}

func binding(doc *symbols.Document, b *parser.Node, want string, offset int) *parser.Node {
	for _, name := range b.ChildrenOf(parser.VariableName) {
		if name.Offset <= offset && symbols.Normalize(doc.Tree.TextOf(name)) == want {
			return name
		}
	}
	return nil
}

func localResult(doc *symbols.Document, name *parser.Node) *Result {
	detail := symbols.VariableDetail{}
	if decl := name.Parent; decl != nil {
		if expr := decl.Child(parser.Expression); expr != nil && decl.Type != parser.LoopBinding {
			v := doc.Tree.TextOf(expr)
			detail.Value = &v
		}
	}
	return &Result{
		Symbol: &symbols.Symbol{
			Name:     doc.Tree.TextOf(name),
			Offset:   name.Offset,
			Position: doc.Tree.Position(name.Offset),
			Range:    doc.Tree.Range(name),
			Detail:   detail,
		},
		Document: doc,
		Local:    true,
	}
}

// Locals lists the variables of the scopes enclosing offset, innermost
// first. A name shadowed by an inner scope is listed once.
func Locals(doc *symbols.Document, offset int) []*symbols.Symbol {
	if doc == nil || doc.Tree == nil {
		return nil
	}
	at := doc.Tree.NodeAt(offset)
	seen := map[string]bool{}
	var out []*symbols.Symbol
	add := func(name *parser.Node) {
		key := symbols.Normalize(doc.Tree.TextOf(name))
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, localResult(doc, name).Symbol)
	}
	for n := at; n != nil && n.Type != parser.Stylesheet; n = n.Parent {
		switch n.Type {
		case parser.Block:
			decls := n.ChildrenOf(parser.VariableDeclaration)
			for i := len(decls) - 1; i >= 0; i-- {
				if c := decls[i]; !c.Global && c.End <= offset {
					if name := c.Child(parser.VariableName); name != nil {
						add(name)
					}
				}
			}
		case parser.MixinDeclaration, parser.FunctionDeclaration, parser.MixinReference:
			for _, p := range n.ChildrenOf(parser.FunctionParameter) {
				if name := p.Child(parser.VariableName); name != nil && name.Offset <= offset {
					add(name)
				}
			}
		case parser.AtRule:
			if b := n.Child(parser.LoopBinding); b != nil {
				for _, name := range b.ChildrenOf(parser.VariableName) {
					add(name)
				}
			}
		}
	}
	return out
}
