package features

import (
	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/references"
)

// Definition locates the declaration of the symbol under pos. On the URL
// of a module rule it locates the start of the target document.
func (f *Features) Definition(uri string, pos lsp.Position) *lsp.Location {
	doc, offset, ok := f.at(uri, pos)
	if !ok {
		return nil
	}
	if link := doc.LinkAt(offset); link != nil {
		if link.Target == "" || link.Builtin() {
			return nil
		}
		return &lsp.Location{URI: link.Target}
	}

	occ, ok := references.Identify(doc, offset)
	if !ok {
		return nil
	}
	res, ok := f.resolver.Resolve(uri, occ.Reference)
	if !ok || res.Builtin != nil {
		return nil
	}
	return &lsp.Location{URI: res.Document.URI, Range: res.Symbol.Range}
}

// DocumentLinks returns a link for every module URL with a known target.
func (f *Features) DocumentLinks(uri string) []lsp.DocumentLink {
	doc, ok := f.store.Get(uri)
	if !ok {
		return nil
	}
	out := []lsp.DocumentLink{}
	for _, l := range doc.Links(true) {
		if l.Target == "" || l.Builtin() {
			continue
		}
		target := l.Target
		out = append(out, lsp.DocumentLink{Range: l.Range, Target: &target})
	}
	return out
}
