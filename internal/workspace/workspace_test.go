package workspace_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/cache"
	"github.com/wkillerud/some-sass-sub003/internal/config"
	"github.com/wkillerud/some-sass-sub003/internal/database"
	"github.com/wkillerud/some-sass-sub003/internal/embedded"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/watcher"
	"github.com/wkillerud/some-sass-sub003/internal/workspace"
)

const root = "file:///ws"

func uri(p string) string {
	return root + "/" + p
}

func newWorkspace(t *testing.T, cfg config.Config, files map[string]string) (*workspace.Workspace, *fsys.MapFS) {
	t.Helper()
	fs := fsys.NewMapFS(files)
	return workspace.New(fs, root, cache.NewStore(), nil, nil, cfg), fs
}

func never(string) bool { return false }

func TestScan(t *testing.T) {
	files := map[string]string{
		"/ws/main.scss":                     "@use \"a\";\n@use \"pkg:lib\";\n@use \"sass:math\";\n",
		"/ws/_a.scss":                       "$a: 1;\n",
		"/ws/notes.txt":                     "not a stylesheet",
		"/ws/node_modules/lib/_index.scss":  "@forward \"colors\";\n",
		"/ws/node_modules/lib/_colors.scss": "$red: #f00;\n",
		"/ws/node_modules/unused/_x.scss":   "$x: 1;\n",
	}

	t.Run("Follows links", func(t *testing.T) {
		w, _ := newWorkspace(t, config.Default(), files)
		require.NoError(t, w.Scan(context.Background()))
		assert.Equal(t, []string{
			uri("_a.scss"),
			uri("main.scss"),
			uri("node_modules/lib/_colors.scss"),
			uri("node_modules/lib/_index.scss"),
		}, w.Store().URIs())
	})

	t.Run("Discovery only", func(t *testing.T) {
		cfg := config.Default()
		cfg.ScanImportedFiles = false
		w, _ := newWorkspace(t, cfg, files)
		require.NoError(t, w.Scan(context.Background()))
		assert.Equal(t, []string{uri("_a.scss"), uri("main.scss")}, w.Store().URIs())
	})

	t.Run("Depth", func(t *testing.T) {
		cfg := config.Default()
		cfg.ScannerDepth = 1
		w, _ := newWorkspace(t, cfg, files)
		require.NoError(t, w.Scan(context.Background()))
		assert.NotContains(t, w.Store().URIs(), uri("node_modules/lib/_colors.scss"))
		assert.Contains(t, w.Store().URIs(), uri("node_modules/lib/_index.scss"))
	})

	t.Run("Canceled", func(t *testing.T) {
		w, _ := newWorkspace(t, config.Default(), files)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, w.Scan(ctx), context.Canceled)
	})
}

func TestScanSkipsPlainCSSTargets(t *testing.T) {
	cfg := config.Default()
	cfg.ScannerExclude = []string{"**/vendor/**"}
	w, _ := newWorkspace(t, cfg, map[string]string{
		"/ws/main.scss":         "@import \"vendor/reset\", \"vendor/base\";\n",
		"/ws/vendor/reset.css":  "html { margin: 0; }\n",
		"/ws/vendor/_base.scss": "$base: 1;\n",
	})
	require.NoError(t, w.Scan(context.Background()))
	assert.Equal(t, []string{uri("main.scss"), uri("vendor/_base.scss")}, w.Store().URIs())

	doc, ok := w.Store().Get(uri("main.scss"))
	require.True(t, ok)
	require.Len(t, doc.Imports, 2)
	assert.Equal(t, uri("vendor/reset.css"), doc.Imports[0].Target)
	assert.True(t, doc.Imports[0].CSS)
}

func TestScanCycles(t *testing.T) {
	w, _ := newWorkspace(t, config.Default(), map[string]string{
		"/ws/_self.scss": "@forward \"self\";\n$x: 1;\n",
		"/ws/_a.scss":    "@forward \"b\";\n",
		"/ws/_b.scss":    "@use \"a\";\n@forward \"a\";\n",
	})
	require.NoError(t, w.Scan(context.Background()))
	assert.Equal(t, 3, w.Store().Len())

	doc, ok := w.Store().Get(uri("_self.scss"))
	require.True(t, ok)
	require.Len(t, doc.Forwards, 1)
	assert.Equal(t, uri("_self.scss"), doc.Forwards[0].Target)
}

func TestScanKeepsStoredDocuments(t *testing.T) {
	w, _ := newWorkspace(t, config.Default(), map[string]string{
		"/ws/a.scss": "$disk: 1;\n",
	})
	_, err := w.Update(context.Background(), uri("a.scss"), "$editor: 1;\n", 4)
	require.NoError(t, err)
	require.NoError(t, w.Scan(context.Background()))

	doc, ok := w.Store().Get(uri("a.scss"))
	require.True(t, ok)
	assert.EqualValues(t, 4, doc.Version)
	assert.Contains(t, doc.Variables, "$editor")
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	w, fs := newWorkspace(t, config.Default(), map[string]string{
		"/ws/a.scss": "",
	})

	first, err := w.Update(ctx, uri("a.scss"), "$x: 1;\n", 1)
	require.NoError(t, err)
	second, err := w.Update(ctx, uri("a.scss"), "$x: 1;\n", 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.Version)
	assert.Same(t, first.Tree, second.Tree)
	assert.EqualValues(t, 1, first.Version)

	third, err := w.Update(ctx, uri("a.scss"), "$y: 1;\n", 3)
	require.NoError(t, err)
	assert.NotSame(t, first.Tree, third.Tree)
	assert.Contains(t, third.Variables, "$y")

	t.Run("Unresolved links are retried", func(t *testing.T) {
		doc, err := w.Update(ctx, uri("a.scss"), "@use \"b\";\n", 4)
		require.NoError(t, err)
		assert.Empty(t, doc.Uses[0].Target)

		fs.WriteFile("/ws/_b.scss", "")
		doc, err = w.Update(ctx, uri("a.scss"), "@use \"b\";\n", 5)
		require.NoError(t, err)
		assert.Equal(t, uri("_b.scss"), doc.Uses[0].Target)
	})
}

func TestLoadPaths(t *testing.T) {
	cfg := config.Default()
	cfg.LoadPaths = []string{"shared", "/abs/styles"}
	w, _ := newWorkspace(t, cfg, map[string]string{
		"/ws/shared/_tokens.scss": "",
		"/abs/styles/_grid.scss":  "",
	})
	doc, err := w.Update(context.Background(), uri("main.scss"), "@use \"tokens\";\n@use \"grid\";\n", 1)
	require.NoError(t, err)
	assert.Equal(t, uri("shared/_tokens.scss"), doc.Uses[0].Target)
	assert.Equal(t, "file:///abs/styles/_grid.scss", doc.Uses[1].Target)
}

func TestSymbolIndex(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	w := workspace.New(fsys.NewMapFS(nil), root, cache.NewStore(), db, nil, config.Default())

	_, err = w.Update(ctx, uri("a.scss"), "$primary: red;\n", 1)
	require.NoError(t, err)
	found, err := db.Search("primary", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, uri("a.scss"), found[0].URI)

	require.NoError(t, w.Remove(uri("a.scss")))
	found, err = db.Search("primary", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	assert.ErrorIs(t, w.Remove(uri("a.scss")), cache.ErrDocumentNotFound)
}

func TestEmbedded(t *testing.T) {
	ctx := context.Background()
	emb, err := embedded.NewExtractor(1)
	require.NoError(t, err)
	defer emb.Close()
	w := workspace.New(fsys.NewMapFS(nil), root, cache.NewStore(), nil, emb, config.Default())

	text := "<template><div/></template>\n<style lang=\"scss\">\n$gap: 4px;\n</style>\n"
	doc, err := w.Update(ctx, uri("Card.vue"), text, 1)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Contains(t, doc.Variables, "$gap")
	assert.Equal(t, lsp.Position{Line: 2}, doc.Variables["$gap"].Range.Start)

	doc, err = w.Update(ctx, uri("Card.vue"), "<template><div/></template>\n", 2)
	require.NoError(t, err)
	assert.Nil(t, doc)
	_, ok := w.Store().Get(uri("Card.vue"))
	assert.False(t, ok)

	plain := workspace.New(fsys.NewMapFS(nil), root, cache.NewStore(), nil, nil, config.Default())
	doc, err = plain.Update(ctx, uri("Card.vue"), text, 1)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestPrune(t *testing.T) {
	w, fs := newWorkspace(t, config.Default(), map[string]string{
		"/ws/a.scss": "",
		"/ws/b.scss": "",
		"/ws/c.scss": "",
	})
	require.NoError(t, w.Scan(context.Background()))
	fs.Remove("/ws/b.scss")
	fs.Remove("/ws/c.scss")

	open := func(u string) bool { return u == uri("c.scss") }
	assert.Equal(t, []string{uri("b.scss")}, w.Prune(open))
	assert.Equal(t, []string{uri("a.scss"), uri("c.scss")}, w.Store().URIs())
	assert.Empty(t, w.Prune(open))
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	w, fs := newWorkspace(t, config.Default(), map[string]string{
		"/ws/a.scss":    "$a: 1;\n",
		"/ws/open.scss": "$disk: 1;\n",
	})
	require.NoError(t, w.Scan(ctx))
	_, err := w.Update(ctx, uri("open.scss"), "$editor: 1;\n", 3)
	require.NoError(t, err)

	fs.WriteFile("/ws/a.scss", "@use \"b\";\n$a: 2;\n")
	fs.WriteFile("/ws/_b.scss", "$b: 1;\n")
	fs.WriteFile("/ws/open.scss", "$changed: 1;\n")
	open := func(u string) bool { return u == uri("open.scss") }

	touched := w.Apply(ctx, []watcher.Event{
		{URI: uri("a.scss"), Op: watcher.Changed},
		{URI: uri("open.scss"), Op: watcher.Changed},
		{URI: uri("gone.scss"), Op: watcher.Removed},
	}, open)
	assert.Equal(t, []string{uri("a.scss")}, touched)

	_, ok := w.Store().Get(uri("_b.scss"))
	assert.True(t, ok, "link target of a changed file is loaded")
	doc, _ := w.Store().Get(uri("open.scss"))
	assert.Contains(t, doc.Variables, "$editor")

	fs.Remove("/ws/a.scss")
	touched = w.Apply(ctx, []watcher.Event{{URI: uri("a.scss"), Op: watcher.Removed}}, never)
	assert.Equal(t, []string{uri("a.scss")}, touched)
	_, ok = w.Store().Get(uri("a.scss"))
	assert.False(t, ok)
}

type diagnoser struct {
	during func()
}

func (d diagnoser) Diagnostics(string) []lsp.Diagnostic {
	if d.during != nil {
		d.during()
	}
	return []lsp.Diagnostic{{Message: "found"}}
}

func TestDiagnose(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkspace(t, config.Default(), nil)
	_, err := w.Update(ctx, uri("a.scss"), "$a: 1;\n", 2)
	require.NoError(t, err)

	params, ok := w.Diagnose(uri("a.scss"), 2, diagnoser{})
	require.True(t, ok)
	require.NotNil(t, params.Version)
	assert.EqualValues(t, 2, *params.Version)
	assert.Equal(t, uri("a.scss"), params.URI)
	assert.Len(t, params.Diagnostics, 1)

	_, ok = w.Diagnose(uri("a.scss"), 1, diagnoser{})
	assert.False(t, ok, "older version")

	_, ok = w.Diagnose(uri("a.scss"), 2, diagnoser{during: func() {
		_, err := w.Update(ctx, uri("a.scss"), "$a: 2;\n", 3)
		require.NoError(t, err)
	}})
	assert.False(t, ok, "edited while computing")

	_, ok = w.Diagnose(uri("missing.scss"), 0, diagnoser{})
	assert.False(t, ok)
}
