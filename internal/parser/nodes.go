package parser

// NodeType discriminates syntax tree nodes.
type NodeType int

const (
	Stylesheet NodeType = iota
	Ruleset
	Selector
	Block
	Declaration
	Property
	VariableDeclaration
	VariableName
	Expression
	Identifier
	MixinDeclaration
	MixinReference
	FunctionDeclaration
	Function
	FunctionParameter
	FunctionArgument
	Placeholder
	ExtendsReference
	Use
	Forward
	Import
	StringLiteral
	AtRule
	Interpolation
	LoopBinding
)

var nodeTypeNames = [...]string{
	Stylesheet:          "Stylesheet",
	Ruleset:             "Ruleset",
	Selector:            "Selector",
	Block:               "Block",
	Declaration:         "Declaration",
	Property:            "Property",
	VariableDeclaration: "VariableDeclaration",
	VariableName:        "VariableName",
	Expression:          "Expression",
	Identifier:          "Identifier",
	MixinDeclaration:    "MixinDeclaration",
	MixinReference:      "MixinReference",
	FunctionDeclaration: "FunctionDeclaration",
	Function:            "Function",
	FunctionParameter:   "FunctionParameter",
	FunctionArgument:    "FunctionArgument",
	Placeholder:         "Placeholder",
	ExtendsReference:    "ExtendsReference",
	Use:                 "Use",
	Forward:             "Forward",
	Import:              "Import",
	StringLiteral:       "StringLiteral",
	AtRule:              "AtRule",
	Interpolation:       "Interpolation",
	LoopBinding:         "LoopBinding",
}

func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "Unknown"
}

// Node is one element of an SCSS syntax tree. Offsets are byte offsets into
// the parsed text, End is exclusive.
type Node struct {
	Type     NodeType
	Offset   int
	End      int
	Parent   *Node
	Children []*Node

	// Namespace is the module qualifier of a VariableName or Identifier
	// written as ns.$name or ns.name. The qualifier is not part of the node
	// range; NamespaceOffset locates it.
	Namespace       string
	NamespaceOffset int

	// Keyword is the at-rule name without '@' for AtRule nodes.
	Keyword string

	// Flags of a VariableDeclaration.
	Default bool
	Global  bool
}

// Len returns the length of the node in bytes.
func (n *Node) Len() int {
	return n.End - n.Offset
}

// Child returns the first direct child of type t.
func (n *Node) Child(t NodeType) *Node {
	for _, c := range n.Children {
		if c.Type == t {
			return c
		}
	}
	return nil
}

// ChildrenOf returns all direct children of type t.
func (n *Node) ChildrenOf(t NodeType) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// FindParent returns the closest ancestor whose type is one of types.
func (n *Node) FindParent(types ...NodeType) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		for _, t := range types {
			if p.Type == t {
				return p
			}
		}
	}
	return nil
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the current node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

func (n *Node) add(c *Node) *Node {
	if c == nil {
		return nil
	}
	c.Parent = n
	n.Children = append(n.Children, c)
	if c.End > n.End {
		n.End = c.End
	}
	return c
}
