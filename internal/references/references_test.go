package references_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/cache"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/references"
	"github.com/wkillerud/some-sass-sub003/internal/resolver"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

type fixture struct {
	store  *cache.Store
	engine *references.Engine
}

func newFixture(t *testing.T, fs *fsys.MapFS, paths ...string) *fixture {
	t.Helper()
	e := symbols.NewExtractor(&symbols.Targets{FS: fs, Root: "file:///ws"})
	store := cache.NewStore()
	for _, p := range paths {
		text, err := fs.ReadFile(p)
		require.NoError(t, err)
		uri := fsys.PathToURI(p)
		require.NoError(t, store.Set(uri, e.Extract(uri, 1, text)))
	}
	return &fixture{store: store, engine: references.New(store, resolver.New(store), fs)}
}

func workspace(t *testing.T, files map[string]string) *fixture {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return newFixture(t, fsys.NewMapFS(files), paths...)
}

func uri(name string) string {
	return "file:///ws/" + name
}

// offset returns the offset of marker in the stored text of name, moved
// forward by skip bytes.
func (f *fixture) offset(t *testing.T, name, marker string, skip int) int {
	t.Helper()
	doc, ok := f.store.Get(uri(name))
	require.True(t, ok)
	i := strings.Index(doc.Text, marker)
	require.GreaterOrEqual(t, i, 0, marker)
	return i + skip
}

func (f *fixture) text(t *testing.T, docURI string, r lsp.Range) string {
	t.Helper()
	doc, ok := f.store.Get(docURI)
	require.True(t, ok)
	return doc.Text[doc.Tree.Offset(r.Start):doc.Tree.Offset(r.End)]
}

func TestIdentify(t *testing.T) {
	f := workspace(t, map[string]string{
		"/ws/main.scss": "@use \"sass:math\";\n$a: 1;\n@mixin m($p) { width: $p; }\n.x { @include m(math.div($a, 2)); @extend %ph; }\n%ph { color: red; }\n",
	})
	doc, _ := f.store.Get(uri("main.scss"))

	tests := []struct {
		name   string
		marker string
		skip   int
		kind   symbols.Kind
		ident  string
		ns     string
		decl   bool
	}{
		{"Variable declaration", "$a: 1", 0, symbols.Variable, "$a", "", true},
		{"Mixin declaration", "@mixin m", 7, symbols.Mixin, "m", "", true},
		{"Parameter", "($p)", 1, symbols.Variable, "$p", "", true},
		{"Variable reference", "width: $p", 7, symbols.Variable, "$p", "", false},
		{"Include", "@include m", 9, symbols.Mixin, "m", "", false},
		{"Namespaced function", "math.div", 5, symbols.Function, "div", "math", false},
		{"Argument", "$a, 2", 0, symbols.Variable, "$a", "", false},
		{"Extend", "@extend %ph", 8, symbols.Placeholder, "%ph", "", false},
		{"Placeholder selector", "%ph {", 0, symbols.Placeholder, "%ph", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ, ok := references.Identify(doc, f.offset(t, "main.scss", tt.marker, tt.skip))
			require.True(t, ok)
			assert.Equal(t, tt.kind, occ.Kind)
			assert.Equal(t, tt.ident, occ.Name)
			assert.Equal(t, tt.ns, occ.Namespace)
			assert.Equal(t, tt.decl, occ.Declaration)
		})
	}

	t.Run("Property is not a symbol", func(t *testing.T) {
		_, ok := references.Identify(doc, f.offset(t, "main.scss", "color: red", 1))
		assert.False(t, ok)
	})
}

func TestFindReferencesCompleteness(t *testing.T) {
	f := workspace(t, map[string]string{
		"/ws/_vars.scss":  "$color: red;\n$other: $color;",
		"/ws/main.scss":   "@use \"vars\";\n.a { color: vars.$color; }\n.b { border-color: vars.$color; }",
		"/ws/legacy.scss": "@import \"vars\";\n.c { color: $color; }",
		"/ws/unused.scss": "$colors: 1; .d { color: $colors; }",
		"/ws/shadow.scss": "@mixin m($color) { color: $color; }",
	})
	at := f.offset(t, "main.scss", "vars.$color", 5)

	all := f.engine.FindReferences(uri("main.scss"), at, true)
	require.Len(t, all, 5)
	assert.Equal(t, uri("_vars.scss"), all[0].URI)
	assert.Equal(t, uint32(0), all[0].Range.Start.Line)
	assert.Equal(t, uri("_vars.scss"), all[1].URI)
	assert.Equal(t, uint32(1), all[1].Range.Start.Line)
	assert.Equal(t, uri("legacy.scss"), all[2].URI)
	assert.Equal(t, uri("main.scss"), all[3].URI)
	assert.Equal(t, uri("main.scss"), all[4].URI)
	for _, l := range all {
		assert.Equal(t, "$color", f.text(t, l.URI, l.Range))
	}

	without := f.engine.FindReferences(uri("main.scss"), at, false)
	assert.Len(t, without, 4)
	assert.NotContains(t, without, all[0])

	fromDecl := f.engine.FindReferences(uri("_vars.scss"), 0, true)
	assert.Equal(t, all, fromDecl)
}

func TestFindReferencesForwardPrefix(t *testing.T) {
	f := workspace(t, map[string]string{
		"/ws/_fun.scss": "@function hello() { @return 1; }",
		"/ws/dev.scss":  `@forward "fun" as fun-*;`,
		"/ws/one.scss":  `@use "dev"; .a { line-height: dev.fun-hello(); }`,
	})
	at := f.offset(t, "one.scss", "fun-hello", 0)

	got := f.engine.Find(uri("one.scss"), at, true)
	require.Len(t, got, 2)
	assert.Equal(t, uri("_fun.scss"), got[0].URI)
	assert.True(t, got[0].Declaration)
	assert.Equal(t, uri("one.scss"), got[1].URI)
	assert.Equal(t, "fun-hello", f.text(t, got[1].URI, got[1].Range))
	assert.Equal(t, "hello", f.text(t, got[1].URI, got[1].Rename))

	assert.Nil(t, f.engine.FindReferences(uri("_fun.scss"), f.offset(t, "_fun.scss", "hello", 0), false),
		"declaration names only identify when the declaration is requested")
	assert.Len(t, f.engine.FindReferences(uri("_fun.scss"), f.offset(t, "_fun.scss", "hello", 0), true), 2)
}

func TestFindReferencesNotFound(t *testing.T) {
	f := workspace(t, map[string]string{
		"/ws/main.scss": ".foo { &: }\n.bar { color: $nowhere; }",
	})

	assert.Nil(t, f.engine.FindReferences(uri("main.scss"), f.offset(t, "main.scss", "&:", 2), true))
	assert.Nil(t, f.engine.FindReferences(uri("main.scss"), f.offset(t, "main.scss", "$nowhere", 0), true))
	assert.Nil(t, f.engine.FindReferences(uri("missing.scss"), 0, true))

	_, _, ok := f.engine.PrepareRename(uri("main.scss"), f.offset(t, "main.scss", "&:", 2))
	assert.False(t, ok)
}

func TestFindReferencesLocal(t *testing.T) {
	f := workspace(t, map[string]string{
		"/ws/main.scss":  "$gap: 1;\n@mixin m($gap) { margin: $gap; padding: $gap; }\n.a { gap: $gap; }",
		"/ws/other.scss": "@import \"main\";\n.b { gap: $gap; }",
	})

	local := f.engine.FindReferences(uri("main.scss"), f.offset(t, "main.scss", "margin: $gap", 8), true)
	assert.Len(t, local, 3)
	for _, l := range local {
		assert.Equal(t, uri("main.scss"), l.URI)
		assert.Equal(t, uint32(1), l.Range.Start.Line)
	}

	global := f.engine.FindReferences(uri("main.scss"), 0, true)
	assert.Len(t, global, 3)
}

func TestFindReferencesSymlink(t *testing.T) {
	fs := fsys.NewMapFS(map[string]string{
		"/ws/_vars.scss": "$c: 1;",
		"/ws/main.scss":  "@use \"vars\";\n.a { x: vars.$c; }",
		"/ws/other.scss": "@use \"linked/vars\";\n.b { x: vars.$c; }",
	})
	fs.Symlink("/ws/linked/_vars.scss", "/ws/_vars.scss")
	f := newFixture(t, fs, "/ws/_vars.scss", "/ws/linked/_vars.scss", "/ws/main.scss", "/ws/other.scss")

	got := f.engine.FindReferences(uri("main.scss"), f.offset(t, "main.scss", "vars.$c", 5), false)
	require.Len(t, got, 2)
	assert.Equal(t, uri("main.scss"), got[0].URI)
	assert.Equal(t, uri("other.scss"), got[1].URI)
}

func TestRename(t *testing.T) {
	f := workspace(t, map[string]string{
		"/ws/_vars.scss": "$old: 1;",
		"/ws/_ns.scss":   `@forward "vars";`,
		"/ws/main.scss":  "@use \"ns\";\n.a { width: ns.$old; height: ns.$old; }",
	})
	at := f.offset(t, "main.scss", "ns.$old", 3)

	r, placeholder, ok := f.engine.PrepareRename(uri("main.scss"), at)
	require.True(t, ok)
	assert.Equal(t, "old", placeholder)
	assert.Equal(t, "old", f.text(t, uri("main.scss"), r))

	edit, err := f.engine.Rename(uri("main.scss"), at, "$new")
	require.NoError(t, err)
	require.Len(t, edit.Changes, 2)

	main := edit.Changes[uri("main.scss")]
	require.Len(t, main, 2)
	for _, e := range main {
		assert.Equal(t, "new", e.NewText)
		assert.Equal(t, "old", f.text(t, uri("main.scss"), e.Range))
	}
	decl := edit.Changes[uri("_vars.scss")]
	require.Len(t, decl, 1)
	assert.Equal(t, lsp.Range{Start: lsp.Position{Line: 0, Character: 1}, End: lsp.Position{Line: 0, Character: 4}}, decl[0].Range)

	_, err = f.engine.Rename(uri("main.scss"), at, "two words")
	assert.ErrorIs(t, err, references.ErrInvalidName)
}

func TestRenameBuiltin(t *testing.T) {
	f := workspace(t, map[string]string{
		"/ws/main.scss": "@use \"sass:math\";\n.a { width: math.floor(1.5); }",
	})
	at := f.offset(t, "main.scss", "floor", 0)

	_, _, ok := f.engine.PrepareRename(uri("main.scss"), at)
	assert.False(t, ok)
	_, err := f.engine.Rename(uri("main.scss"), at, "ceil")
	assert.ErrorIs(t, err, references.ErrNotRenamable)

	// Built-in members still have references.
	assert.Len(t, f.engine.FindReferences(uri("main.scss"), at, true), 1)
}
