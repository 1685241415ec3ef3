// Package embedded pulls SCSS out of the <style> blocks of Vue, Svelte and
// Astro components.
//
// The extracted text has the same length and line structure as the host
// file: everything outside SCSS style blocks is replaced by spaces. Byte
// offsets and line numbers found in the SCSS therefore hold for the host
// file as well.
package embedded

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/svelte"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("scssls.embedded")

var styleQuery = []byte(`
(style_element
  (start_tag) @tag
  (raw_text) @target)
`)

var langAttr = regexp.MustCompile(`\blang\s*=\s*["']?(scss|sass)\b`)

// Extensions lists the host file extensions whose style blocks are read.
var Extensions = []string{".vue", ".svelte", ".astro"}

// IsEmbedded reports whether uri names a component file.
func IsEmbedded(uri string) bool {
	ext := path.Ext(uri)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Extractor extracts SCSS from component files.
type Extractor struct {
	html   *ParserPool
	svelte *ParserPool
}

// NewExtractor creates an Extractor with n parsers per host language.
func NewExtractor(n int) (*Extractor, error) {
	h, err := NewParserPool(n, html.GetLanguage(), styleQuery)
	if err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}
	s, err := NewParserPool(n, svelte.GetLanguage(), styleQuery)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("svelte: %w", err)
	}
	return &Extractor{html: h, svelte: s}, nil
}

func (e *Extractor) pool(uri string) *ParserPool {
	if path.Ext(uri) == ".svelte" {
		return e.svelte
	}
	return e.html
}

// Extract returns the SCSS of the component at uri with host offsets
// preserved. ok is false when the file has no SCSS style block.
func (e *Extractor) Extract(ctx context.Context, uri, text string) (string, bool, error) {
	if !IsEmbedded(uri) {
		return "", false, nil
	}
	source := []byte(text)
	if path.Ext(uri) == ".astro" {
		source = blankFrontmatter(source)
	}
	matches, err := e.pool(uri).Parse(ctx, source)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", uri, err)
	}

	out := blank(text)
	found := false
	var tag string
	for _, m := range matches {
		switch m.Capture {
		case "tag":
			tag = m.Content
		case "target":
			if !langAttr.MatchString(tag) {
				continue
			}
			copy(out[m.StartByte:m.EndByte], text[m.StartByte:m.EndByte])
			found = true
		}
	}
	log.Debugf("%s: %d captures, scss found: %t", uri, len(matches), found)
	return string(out), found, nil
}

// Close releases the parsers.
func (e *Extractor) Close() error {
	e.html.Close()
	e.svelte.Close()
	return nil
}

// blank returns text with every byte except line breaks replaced by a
// space.
func blank(text string) []byte {
	out := []byte(text)
	for i, b := range out {
		if b != '\n' && b != '\r' {
			out[i] = ' '
		}
	}
	return out
}

// blankFrontmatter hides the --- fenced script block at the top of an Astro
// component from the HTML parser.
func blankFrontmatter(source []byte) []byte {
	s := string(source)
	if !strings.HasPrefix(strings.TrimLeft(s, " \t\r\n"), "---") {
		return source
	}
	start := strings.Index(s, "---")
	end := strings.Index(s[start+3:], "---")
	if end < 0 {
		return source
	}
	end += start + 6
	out := append([]byte(nil), source...)
	copy(out[start:end], blank(s[start:end]))
	return out
}
