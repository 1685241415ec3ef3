package symbols_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

func extractor(files map[string]string) *symbols.Extractor {
	return symbols.NewExtractor(&symbols.Targets{
		FS:        fsys.NewMapFS(files),
		Root:      "file:///ws",
		LoadPaths: []string{"file:///ws/lib"},
	})
}

func TestClassifyModuleStatement(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want symbols.Statement
	}{
		{
			name: "Use",
			in:   `@use "src/corners";`,
			want: symbols.Statement{Kind: symbols.Use, URLs: []symbols.ModuleURL{{URL: "src/corners"}}},
		},
		{
			name: "Use with alias",
			in:   `@use 'src/corners' as c`,
			want: symbols.Statement{Kind: symbols.Use, URLs: []symbols.ModuleURL{{URL: "src/corners"}}, Namespace: "c", IsAliased: true},
		},
		{
			name: "Use wildcard with configuration",
			in:   `@use "library" as * with ($black: #222)`,
			want: symbols.Statement{Kind: symbols.Use, URLs: []symbols.ModuleURL{{URL: "library"}}, Namespace: "*", IsAliased: true},
		},
		{
			name: "Forward with prefix and hide",
			in:   "@forward \"src/list\" as list-*\n  hide list-reset, $horizontal-list-gap;",
			want: symbols.Statement{
				Kind:   symbols.Forward,
				URLs:   []symbols.ModuleURL{{URL: "src/list"}},
				Prefix: "list-",
				Hide:   []string{"list-reset", "$horizontal-list-gap"},
			},
		},
		{
			name: "Forward show with configuration",
			in:   `@forward "x" show a, b with ($c: 1)`,
			want: symbols.Statement{Kind: symbols.Forward, URLs: []symbols.ModuleURL{{URL: "x"}}, Show: []string{"a", "b"}},
		},
		{
			name: "Import list",
			in:   `@import "a", "b.css", url(theme.css), "c" screen, "#{$x}"`,
			want: symbols.Statement{Kind: symbols.Import, URLs: []symbols.ModuleURL{
				{URL: "a"},
				{URL: "b.css", CSS: true},
				{URL: "theme.css", CSS: true},
				{URL: "c", CSS: true},
				{URL: "#{$x}", Dynamic: true},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := symbols.ClassifyModuleStatement(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := symbols.ClassifyModuleStatement("@media screen")
	assert.False(t, ok)
}

func TestDefaultNamespace(t *testing.T) {
	assert.Equal(t, "corners", symbols.DefaultNamespace("src/corners"))
	assert.Equal(t, "a", symbols.DefaultNamespace("file:///ws/_a.scss"))
	assert.Equal(t, "corners", symbols.DefaultNamespace("file:///ws/corners/_index.scss"))
	assert.Equal(t, "math", symbols.DefaultNamespace("sass:math"))
	assert.Equal(t, "bootstrap", symbols.DefaultNamespace("~bootstrap"))
	assert.Equal(t, "theme", symbols.DefaultNamespace("pkg:theme"))
}

func TestTargets(t *testing.T) {
	targets := &symbols.Targets{
		FS: fsys.NewMapFS(map[string]string{
			"/ws/_a.scss":                     "",
			"/ws/b.scss":                      "",
			"/ws/dir/_index.scss":             "",
			"/ws/plain.css":                   "",
			"/ws/lib/_tokens.scss":            "",
			"/ws/node_modules/pkg/_main.scss": "",
		}),
		Root:      "file:///ws",
		LoadPaths: []string{"file:///ws/lib"},
	}
	from := "file:///ws/src/../main.scss"
	cases := map[string]string{
		"a":            "file:///ws/_a.scss",
		"./b":          "file:///ws/b.scss",
		"a.scss":       "file:///ws/_a.scss",
		"dir":          "file:///ws/dir/_index.scss",
		"plain":        "file:///ws/plain.css",
		"tokens":       "file:///ws/lib/_tokens.scss",
		"~pkg/main":    "file:///ws/node_modules/pkg/_main.scss",
		"pkg:pkg/main": "file:///ws/node_modules/pkg/_main.scss",
		"missing":      "",
	}
	for url, want := range cases {
		t.Run(url, func(t *testing.T) {
			assert.Equal(t, want, targets.Resolve(from, url))
		})
	}
}

func TestExtractSymbols(t *testing.T) {
	src := `/// The primary color.
$primary: blue;
$primary: red !default;
$map: (key: value);

.rule {
	$local: 1;
	$promoted: 2 !global;
	%nested-placeholder { color: red; }
}

/// Button mixin.
/// @param {Length} $size - How big
@mixin button($size, $color: $primary) {
	@content;
}

@function double($n) {
	@return $n * 2;
}

%shared { margin: 0; }
`
	doc := extractor(nil).Extract("file:///ws/a.scss", 3, src)

	t.Run("Later declaration wins", func(t *testing.T) {
		v := doc.Lookup(symbols.Variable, "$primary")
		require.NotNil(t, v)
		assert.Equal(t, strings.Index(src, "$primary: red"), v.Offset)
		require.NotNil(t, v.Value())
		assert.Equal(t, "red", *v.Value())
		assert.True(t, v.Detail.(symbols.VariableDetail).Default)
		// The doc comment belongs to the first declaration only.
		assert.Nil(t, v.Doc)
	})

	t.Run("Scopes", func(t *testing.T) {
		assert.Nil(t, doc.Lookup(symbols.Variable, "$local"))
		assert.NotNil(t, doc.Lookup(symbols.Variable, "$promoted"))
		assert.Len(t, doc.Variables, 3)
	})

	t.Run("Mixin", func(t *testing.T) {
		m := doc.Lookup(symbols.Mixin, "button")
		require.NotNil(t, m)
		assert.Equal(t, symbols.Mixin, m.Kind())
		params := m.Parameters()
		require.Len(t, params, 2)
		assert.Equal(t, "$size", params[0].Name)
		assert.Nil(t, params[0].Value)
		assert.Equal(t, "How big", params[0].Doc)
		require.NotNil(t, params[1].Value)
		assert.Equal(t, "$primary", *params[1].Value)
		require.NotNil(t, m.Doc)
		assert.Equal(t, "Button mixin.", m.Doc.Description)
	})

	t.Run("Function", func(t *testing.T) {
		f := doc.Lookup(symbols.Function, "double")
		require.NotNil(t, f)
		assert.Equal(t, uint32(17), f.Position.Line)
	})

	t.Run("Placeholders", func(t *testing.T) {
		assert.NotNil(t, doc.Lookup(symbols.Placeholder, "%shared"))
		assert.NotNil(t, doc.Lookup(symbols.Placeholder, "%nested-placeholder"))
	})

	t.Run("Document metadata", func(t *testing.T) {
		assert.Equal(t, int32(3), doc.Version)
		assert.Equal(t, symbols.Hash(src), doc.Hash)
		assert.Len(t, doc.Symbols(), 7)
	})

	t.Run("Hyphen and underscore are equivalent", func(t *testing.T) {
		d := extractor(nil).Extract("file:///ws/b.scss", 0, "$my_var: 1;")
		assert.NotNil(t, d.Lookup(symbols.Variable, "$my-var"))

		d = extractor(nil).Extract("file:///ws/c.scss", 0, "$a_b: 1;\n$a-b: 2;\n@mixin m-x {}\n@mixin m_x {}")
		assert.Len(t, d.Variables, 1)
		assert.Len(t, d.Mixins, 1)
		v := d.Lookup(symbols.Variable, "$a_b")
		require.NotNil(t, v)
		assert.Equal(t, "2", *v.Value())
		assert.Equal(t, "m_x", d.Lookup(symbols.Mixin, "m-x").Name)
		assert.Len(t, d.Symbols(), 2)
	})
}

func TestExtractPlainCSSTargets(t *testing.T) {
	files := map[string]string{
		"/ws/plain.css": "",
		"/ws/_mod.scss": "",
	}
	doc := extractor(files).Extract("file:///ws/main.scss", 0, `@use "plain";
@import "plain", "mod", "#{$dyn}";
`)

	require.Len(t, doc.Uses, 1)
	assert.Equal(t, "file:///ws/plain.css", doc.Uses[0].Target)
	assert.True(t, doc.Uses[0].CSS)
	assert.False(t, doc.Uses[0].Traversable())

	require.Len(t, doc.Imports, 3)
	assert.Equal(t, "file:///ws/plain.css", doc.Imports[0].Target)
	assert.True(t, doc.Imports[0].CSS)
	assert.False(t, doc.Imports[0].Traversable())
	assert.False(t, doc.Imports[1].CSS)
	assert.True(t, doc.Imports[1].Traversable())
	assert.True(t, doc.Imports[2].Dynamic)
	assert.False(t, doc.Imports[2].Traversable())
}

func TestSymbolsOrder(t *testing.T) {
	doc := &symbols.Document{
		Variables:    map[string]*symbols.Symbol{"$b": {Name: "$b", Offset: 4, Detail: symbols.VariableDetail{}}},
		Mixins:       map[string]*symbols.Symbol{"a": {Name: "a", Offset: 4, Detail: symbols.MixinDetail{}}},
		Functions:    map[string]*symbols.Symbol{"f": {Name: "f", Offset: 0, Detail: symbols.FunctionDetail{}}},
		Placeholders: map[string]*symbols.Symbol{"%z": {Name: "%z", Offset: 4, Detail: symbols.PlaceholderDetail{}}, "%y": {Name: "%y", Offset: 4, Detail: symbols.PlaceholderDetail{}}},
	}
	var got []string
	for _, s := range doc.Symbols() {
		got = append(got, s.Name)
	}
	assert.Equal(t, []string{"f", "$b", "a", "%y", "%z"}, got)
}

func TestExtractLinks(t *testing.T) {
	files := map[string]string{
		"/ws/_a.scss":   "",
		"/ws/_b.scss":   "",
		"/ws/theme.css": "",
	}
	src := `@use "sass:math";
@use "a";
@use "a" as alpha;
@use "missing" as m;
@forward "b" as b-* hide $secret;
@forward "b" as b-*;
@import "theme.css", "b", "#{$dyn}";
`
	doc := extractor(files).Extract("file:///ws/main.scss", 0, src)

	require.Len(t, doc.Uses, 3)
	assert.Equal(t, "sass:math", doc.Uses[0].Target)
	assert.Equal(t, "math", doc.Uses[0].Namespace)
	assert.True(t, doc.Uses[0].Builtin())

	a := doc.Uses[1]
	assert.Equal(t, "file:///ws/_a.scss", a.Target)
	assert.Equal(t, "a", a.Namespace)
	assert.Equal(t, []string{"alpha"}, a.Aliases)
	assert.True(t, a.HasNamespace("alpha"))
	assert.Equal(t, `"a"`, src[a.Offset:a.End])
	assert.Equal(t, uint32(1), a.Range.Start.Line)

	missing := doc.Uses[2]
	assert.Empty(t, missing.Target)
	assert.False(t, missing.Traversable())
	assert.Equal(t, "m", missing.Namespace)

	require.Len(t, doc.Forwards, 1)
	assert.Equal(t, "b-", doc.Forwards[0].Prefix)
	assert.Equal(t, []string{"$secret"}, doc.Forwards[0].Hide)
	assert.True(t, doc.Forwards[0].Hidden("$secret"))
	assert.False(t, doc.Forwards[0].Hidden("$public"))

	require.Len(t, doc.Imports, 3)
	assert.True(t, doc.Imports[0].CSS)
	assert.Equal(t, "file:///ws/theme.css", doc.Imports[0].Target)
	assert.False(t, doc.Imports[0].Traversable())
	assert.Equal(t, "file:///ws/_b.scss", doc.Imports[1].Target)
	assert.True(t, doc.Imports[2].Dynamic)
	assert.Empty(t, doc.Imports[2].Target)

	assert.Len(t, doc.Links(false), 6)
	assert.Len(t, doc.Links(true), 7)
	assert.Same(t, a, doc.LinkAt(a.Offset+1))
}
