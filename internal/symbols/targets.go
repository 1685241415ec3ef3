package symbols

import (
	"path"
	"strings"

	"github.com/wkillerud/some-sass-sub003/internal/fsys"
)

// Targets resolves module URLs to document URIs the way Sass loads files:
// relative to the importing file, then from each load path, with partial
// and index file fallbacks. URLs starting with ~ or pkg: are looked up in
// node_modules below the workspace root.
type Targets struct {
	FS        fsys.FS
	Root      string
	LoadPaths []string
}

// Resolve returns the URI of the file url refers to from the document
// from, or an empty string when no file exists.
func (t *Targets) Resolve(from, url string) string {
	if t == nil || t.FS == nil || url == "" {
		return ""
	}
	for _, base := range t.bases(from, url) {
		for _, candidate := range candidates(base) {
			if t.FS.Exists(candidate) {
				return candidate
			}
		}
	}
	return ""
}

func (t *Targets) bases(from, url string) []string {
	switch {
	case strings.HasPrefix(url, "file://"):
		return []string{fsys.Normalize(url)}
	case strings.HasPrefix(url, "~"), strings.HasPrefix(url, "pkg:"):
		if t.Root == "" {
			return nil
		}
		rest := strings.TrimPrefix(strings.TrimPrefix(url, "~"), "pkg:")
		return []string{fsys.Join(t.Root, "node_modules", rest)}
	case strings.HasPrefix(url, "/"):
		return []string{fsys.PathToURI(path.Clean(url))}
	}
	out := []string{fsys.Join(fsys.Dir(from), url)}
	for _, lp := range t.LoadPaths {
		out = append(out, fsys.Join(lp, url))
	}
	return out
}

// candidates lists the files a module URL may refer to, most specific
// first.
func candidates(uri string) []string {
	dir, base := fsys.Dir(uri), fsys.Base(uri)
	switch path.Ext(base) {
	case ".scss", ".sass", ".css":
		out := []string{uri}
		if !strings.HasPrefix(base, "_") {
			out = append(out, fsys.Join(dir, "_"+base))
		}
		return out
	}
	out := make([]string, 0, 9)
	for _, ext := range []string{".scss", ".sass", ".css"} {
		out = append(out, fsys.Join(dir, base+ext))
		if !strings.HasPrefix(base, "_") && ext != ".css" {
			out = append(out, fsys.Join(dir, "_"+base+ext))
		}
	}
	for _, index := range []string{"index.scss", "_index.scss", "index.sass", "_index.sass"} {
		out = append(out, fsys.Join(uri, index))
	}
	return out
}
