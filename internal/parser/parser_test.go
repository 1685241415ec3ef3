package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wkillerud/some-sass-sub003/internal/parser"
)

func nodeTexts(tree *parser.Tree, typ parser.NodeType) []string {
	var out []string
	for _, n := range tree.Nodes(typ) {
		out = append(out, tree.TextOf(n))
	}
	return out
}

func TestParseDeclarations(t *testing.T) {
	src := `
$primary: #333 !default;
$map: (a: 1, b: fn($x));

@mixin button($size, $color: red, $args...) {
	$local: 1;
	padding: $size;
}

@function double($n) {
	@return $n * 2;
}

%message-shared {
	border: 1px solid #ccc;
}
`
	tree := parser.Parse(src)

	t.Run("Variables", func(t *testing.T) {
		decls := tree.Nodes(parser.VariableDeclaration)
		require.Len(t, decls, 3)
		assert.Equal(t, "$primary", tree.TextOf(decls[0].Child(parser.VariableName)))
		assert.Equal(t, "#333", tree.TextOf(decls[0].Child(parser.Expression)))
		assert.True(t, decls[0].Default)
		assert.Equal(t, "(a: 1, b: fn($x))", tree.TextOf(decls[1].Child(parser.Expression)))
		assert.Equal(t, parser.Block, decls[2].Parent.Type)
	})

	t.Run("Mixin", func(t *testing.T) {
		mixins := tree.Nodes(parser.MixinDeclaration)
		require.Len(t, mixins, 1)
		assert.Equal(t, "button", tree.TextOf(mixins[0].Child(parser.Identifier)))
		params := mixins[0].ChildrenOf(parser.FunctionParameter)
		require.Len(t, params, 3)
		assert.Equal(t, "$size", tree.TextOf(params[0].Child(parser.VariableName)))
		assert.Nil(t, params[0].Child(parser.Expression))
		assert.Equal(t, "red", tree.TextOf(params[1].Child(parser.Expression)))
		assert.Equal(t, "$args...", tree.TextOf(params[2]))
	})

	t.Run("Function", func(t *testing.T) {
		fns := tree.Nodes(parser.FunctionDeclaration)
		require.Len(t, fns, 1)
		assert.Equal(t, "double", tree.TextOf(fns[0].Child(parser.Identifier)))
	})

	t.Run("Placeholder", func(t *testing.T) {
		assert.Equal(t, []string{"%message-shared"}, nodeTexts(tree, parser.Placeholder))
		assert.Equal(t, parser.Selector, tree.Nodes(parser.Placeholder)[0].Parent.Type)
	})
}

func TestParseReferences(t *testing.T) {
	src := `@use "sass:math";
@use "src/corners" as c;
.a {
	width: math.div($w, 2);
	margin: c.$radius;
	@include c.rounded($size: 2px);
	@extend %shared;
	content: "#{$label}";
}`
	tree := parser.Parse(src)

	t.Run("Namespaced variable", func(t *testing.T) {
		var found *parser.Node
		for _, n := range tree.Nodes(parser.VariableName) {
			if n.Namespace == "c" {
				found = n
			}
		}
		require.NotNil(t, found)
		assert.Equal(t, "$radius", tree.TextOf(found))
		assert.Equal(t, "c", src[found.NamespaceOffset:found.NamespaceOffset+1])
	})

	t.Run("Namespaced function", func(t *testing.T) {
		calls := tree.Nodes(parser.Function)
		require.NotEmpty(t, calls)
		id := calls[0].Child(parser.Identifier)
		assert.Equal(t, "div", tree.TextOf(id))
		assert.Equal(t, "math", id.Namespace)
	})

	t.Run("Include", func(t *testing.T) {
		incs := tree.Nodes(parser.MixinReference)
		require.Len(t, incs, 1)
		id := incs[0].Child(parser.Identifier)
		assert.Equal(t, "rounded", tree.TextOf(id))
		assert.Equal(t, "c", id.Namespace)
		// Keyword argument names are not variable references.
		for _, v := range tree.Nodes(parser.VariableName) {
			assert.NotEqual(t, "$size", tree.TextOf(v))
		}
	})

	t.Run("Extend", func(t *testing.T) {
		ext := tree.Nodes(parser.ExtendsReference)
		require.Len(t, ext, 1)
		assert.Equal(t, "%shared", tree.TextOf(ext[0].Child(parser.Placeholder)))
	})

	t.Run("String interpolation", func(t *testing.T) {
		assert.Contains(t, nodeTexts(tree, parser.VariableName), "$label")
	})

	t.Run("Module rules", func(t *testing.T) {
		uses := tree.Nodes(parser.Use)
		require.Len(t, uses, 2)
		assert.Equal(t, `"src/corners"`, tree.TextOf(uses[1].Child(parser.StringLiteral)))
		assert.Equal(t, `@use "src/corners" as c`, tree.TextOf(uses[1]))
	})
}

func TestParseNestedStructures(t *testing.T) {
	src := `.a {
	&:hover { color: red; }
	font: {
		family: $f;
	}
	#{$prop}-top: 1px;
	@each $key, $value in $map {
		.#{$key} { color: $value; }
	}
}`
	tree := parser.Parse(src)

	rulesets := tree.Nodes(parser.Ruleset)
	require.Len(t, rulesets, 3)
	assert.Equal(t, "&:hover", tree.TextOf(rulesets[1].Child(parser.Selector)))

	decls := tree.Nodes(parser.Declaration)
	var props []string
	for _, d := range decls {
		props = append(props, tree.TextOf(d.Child(parser.Property)))
	}
	assert.Contains(t, props, "font")
	assert.Contains(t, props, "family")
	assert.Contains(t, props, "#{$prop}-top")

	bindings := tree.Nodes(parser.LoopBinding)
	require.Len(t, bindings, 1)
	assert.Len(t, bindings[0].ChildrenOf(parser.VariableName), 2)
	assert.Equal(t, "each", bindings[0].Parent.Keyword)
}

func TestNodeAt(t *testing.T) {
	src := `.x { content: a.$day; }`
	tree := parser.Parse(src)

	t.Run("Inside variable", func(t *testing.T) {
		n := tree.NodeAt(strings.Index(src, "day"))
		require.NotNil(t, n)
		assert.Equal(t, parser.VariableName, n.Type)
		assert.Equal(t, "a", n.Namespace)
	})

	t.Run("End of variable", func(t *testing.T) {
		n := tree.NodeAt(strings.Index(src, ";"))
		require.NotNil(t, n)
		assert.Equal(t, parser.VariableName, n.Type)
	})

	t.Run("Out of range", func(t *testing.T) {
		assert.Nil(t, tree.NodeAt(len(src)+1))
	})
}

func TestParseIncompleteInput(t *testing.T) {
	inputs := []string{
		`.foo { &: }`,
		`.foo { color: `,
		`@mixin`,
		`@include foo(`,
		`$a: (1, 2`,
		`"unterminated`,
		`#{`,
		`}}}`,
		`@use "x" as`,
		`a { b { c {`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			tree := parser.Parse(in)
			require.NotNil(t, tree.Root)
			for i := 0; i <= len(in); i++ {
				assert.NotNil(t, tree.NodeAt(i))
			}
		})
	}
}

func TestRangeUTF16(t *testing.T) {
	src := "/* 😀 */ $a: 1;"
	tree := parser.Parse(src)
	decl := tree.Nodes(parser.VariableName)[0]
	r := tree.Range(decl)
	assert.Equal(t, uint32(0), r.Start.Line)
	// The emoji counts as two UTF-16 code units.
	assert.Equal(t, uint32(9), r.Start.Character)
	assert.Equal(t, decl.Offset, tree.Offset(r.Start))
}
