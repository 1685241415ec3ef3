package symbols

import (
	"regexp"
	"strings"
)

// ModuleURL is one URL of a module statement.
type ModuleURL struct {
	URL string
	// CSS marks plain CSS imports: url(), remote URLs, .css files and
	// imports with a media query.
	CSS bool
	// Dynamic marks URLs with interpolation or glob characters.
	Dynamic bool
}

// Statement is the classification of one @use, @forward or @import rule.
type Statement struct {
	Kind      LinkKind
	URLs      []ModuleURL
	Namespace string
	IsAliased bool
	Prefix    string
	Hide      []string
	Show      []string
}

var (
	useRe       = regexp.MustCompile(`^@use\s+(?:"([^"]*)"|'([^']*)')(?:\s+as\s+(\*|[\w-]+))?`)
	forwardRe   = regexp.MustCompile(`^@forward\s+(?:"([^"]*)"|'([^']*)')(?:\s+as\s+([\w-]*)\*)?(?:\s+(hide|show)\s+(.+?))?(?:\s+with\s*\(.*)?$`)
	forwardURL  = regexp.MustCompile(`^@forward\s+(?:"([^"]*)"|'([^']*)')`)
	importRe    = regexp.MustCompile(`^@import\s+(.*)$`)
	importURLRe = regexp.MustCompile(`(url\(\s*(?:"[^"]*"|'[^']*'|[^)]*)\s*\)|"[^"]*"|'[^']*')([^,]*)`)
	remoteRe    = regexp.MustCompile(`^(?:https?:)?//`)
)

// ClassifyModuleStatement classifies the source text of a module rule. The
// text starts at the at-keyword; a trailing semicolon is allowed.
func ClassifyModuleStatement(text string) (Statement, bool) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	text = strings.Join(strings.Fields(text), " ")

	if m := useRe.FindStringSubmatch(text); m != nil {
		st := Statement{Kind: Use, URLs: []ModuleURL{moduleURL(m[1]+m[2], "")}}
		if m[3] != "" {
			st.Namespace = m[3]
			st.IsAliased = true
		}
		return st, true
	}
	if m := forwardRe.FindStringSubmatch(text); m != nil {
		st := Statement{Kind: Forward, URLs: []ModuleURL{moduleURL(m[1]+m[2], "")}, Prefix: m[3]}
		names := splitNames(m[5])
		if m[4] == "hide" {
			st.Hide = names
		} else if m[4] == "show" {
			st.Show = names
		}
		return st, true
	}
	if m := forwardURL.FindStringSubmatch(text); m != nil {
		return Statement{Kind: Forward, URLs: []ModuleURL{moduleURL(m[1]+m[2], "")}}, true
	}
	if m := importRe.FindStringSubmatch(text); m != nil {
		st := Statement{Kind: Import}
		for _, u := range importURLRe.FindAllStringSubmatch(m[1], -1) {
			st.URLs = append(st.URLs, moduleURL(u[1], strings.TrimSpace(u[2])))
		}
		return st, len(st.URLs) > 0
	}
	return Statement{}, false
}

func moduleURL(raw, media string) ModuleURL {
	u := ModuleURL{URL: unquote(raw)}
	if strings.HasPrefix(raw, "url(") {
		u.URL = unquote(strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(raw, "url("), ")")))
		u.CSS = true
	}
	if media != "" || remoteRe.MatchString(u.URL) || strings.HasSuffix(u.URL, ".css") {
		u.CSS = true
	}
	if strings.Contains(u.URL, "#{") || strings.ContainsAny(u.URL, "*?[") {
		u.Dynamic = true
	}
	return u
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func splitNames(list string) []string {
	if list == "" {
		return nil
	}
	var out []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// DefaultNamespace derives the namespace Sass gives a @use rule without an
// alias: the file name without extension and partial underscore, or the
// directory name for index files.
func DefaultNamespace(url string) string {
	url = strings.TrimPrefix(url, "sass:")
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	url = strings.TrimSuffix(url, "/")
	segments := strings.Split(url, "/")
	name := trimModuleName(segments[len(segments)-1])
	if name == "index" && len(segments) > 1 {
		name = trimModuleName(segments[len(segments)-2])
	}
	name = strings.TrimPrefix(name, "~")
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func trimModuleName(name string) string {
	for _, ext := range []string{".scss", ".sass", ".css"} {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.TrimPrefix(name, "_")
}
