package references

import (
	"errors"
	"strings"

	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

var (
	ErrNotRenamable = errors.New("references: no renamable symbol at position")
	ErrInvalidName  = errors.New("references: invalid name")
)

// PrepareRename returns the range and current text a rename at offset would
// replace, or false when nothing there can be renamed. Built-in members
// cannot be renamed.
func (e *Engine) PrepareRename(uri string, offset int) (lsp.Range, string, bool) {
	doc, ok := e.store.Get(uri)
	if !ok {
		return lsp.Range{}, "", false
	}
	occ, ok := Identify(doc, offset)
	if !ok {
		return lsp.Range{}, "", false
	}
	res, ok := e.resolver.Resolve(uri, occ.Reference)
	if !ok || res.Builtin != nil {
		return lsp.Range{}, "", false
	}
	r := renameRange(doc, occ, res.Symbol.Name)
	start, end := doc.Tree.Offset(r.Start), doc.Tree.Offset(r.End)
	return r, doc.Text[start:end], true
}

// Rename computes the edits that rename the symbol at offset to name. A
// leading sigil on name is ignored.
func (e *Engine) Rename(uri string, offset int, name string) (*lsp.WorkspaceEdit, error) {
	name = symbols.StripSigil(strings.TrimSpace(name))
	if name == "" || strings.ContainsAny(name, " \t\n.$%#{}();:,") {
		return nil, ErrInvalidName
	}
	matches := e.Find(uri, offset, true)
	if len(matches) == 0 {
		return nil, ErrNotRenamable
	}
	doc, _ := e.store.Get(uri)
	if occ, ok := Identify(doc, offset); ok {
		if res, ok := e.resolver.Resolve(uri, occ.Reference); !ok || res.Builtin != nil {
			return nil, ErrNotRenamable
		}
	}
	changes := map[lsp.DocumentUri][]lsp.TextEdit{}
	for _, m := range matches {
		changes[m.URI] = append(changes[m.URI], lsp.TextEdit{Range: m.Rename, NewText: name})
	}
	return &lsp.WorkspaceEdit{Changes: changes}, nil
}
