package scanner_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/scanner"
)

func TestScan(t *testing.T) {
	fs := fsys.NewMapFS(map[string]string{
		"/ws/a.scss":                   "$a: 1;",
		"/ws/src/_b.scss":              "$b: 1;",
		"/ws/src/App.vue":              "<style lang=\"scss\"></style>",
		"/ws/readme.md":                "# hi",
		"/ws/node_modules/lib/_c.scss": "$c: 1;",
	})

	var mu sync.Mutex
	got := map[string]string{}
	err := scanner.Scan(context.Background(), fs, "file:///ws",
		[]string{"**/*.scss", "**/*.vue"},
		[]string{"**/node_modules/**"},
		func(uri, text string) {
			mu.Lock()
			defer mu.Unlock()
			got[uri] = text
		})
	require.NoError(t, err)

	uris := make([]string, 0, len(got))
	for uri := range got {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	assert.Equal(t, []string{"file:///ws/a.scss", "file:///ws/src/App.vue", "file:///ws/src/_b.scss"}, uris)
	assert.Equal(t, "$b: 1;", got["file:///ws/src/_b.scss"])
}

func TestScanCanceled(t *testing.T) {
	fs := fsys.NewMapFS(map[string]string{"/ws/a.scss": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := scanner.Scan(ctx, fs, "file:///ws", []string{"**/*.scss"}, nil, func(string, string) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanMissingRoot(t *testing.T) {
	fs := fsys.NewMapFS(nil)
	err := scanner.Scan(context.Background(), fs, "file:///nope", []string{"**/*.scss"}, nil, func(string, string) {})
	assert.Error(t, err)
}
