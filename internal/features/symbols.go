package features

import (
	"sort"
	"strings"

	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

func symbolKind(k symbols.Kind) lsp.SymbolKind {
	switch k {
	case symbols.Mixin:
		return lsp.SymbolKindMethod
	case symbols.Function:
		return lsp.SymbolKindFunction
	case symbols.Placeholder:
		return lsp.SymbolKindClass
	}
	return lsp.SymbolKindVariable
}

// DocumentSymbols lists the declarations of uri in source order.
func (f *Features) DocumentSymbols(uri string) []lsp.DocumentSymbol {
	doc, ok := f.store.Get(uri)
	if !ok {
		return nil
	}
	out := []lsp.DocumentSymbol{}
	for _, s := range doc.Symbols() {
		ds := lsp.DocumentSymbol{
			Name:           s.Name,
			Kind:           symbolKind(s.Kind()),
			Range:          s.Range,
			SelectionRange: s.Range,
		}
		if detail := declaration(s, s.Name); detail != s.Name {
			ds.Detail = &detail
		}
		if s.Doc.IsDeprecated() {
			ds.Tags = []lsp.SymbolTag{lsp.SymbolTagDeprecated}
		}
		out = append(out, ds)
	}
	return out
}

// WorkspaceSymbols searches the declarations of every document for query.
func (f *Features) WorkspaceSymbols(query string) []lsp.SymbolInformation {
	limit := f.config().WorkspaceSymbolLimit
	out := []lsp.SymbolInformation{}

	if f.db != nil {
		entries, err := f.db.Search(query, limit)
		if err == nil {
			for _, e := range entries {
				si := lsp.SymbolInformation{
					Name:     e.Name,
					Kind:     symbolKind(e.Kind),
					Location: lsp.Location{URI: e.URI, Range: e.Range},
				}
				if e.Deprecated {
					si.Tags = []lsp.SymbolTag{lsp.SymbolTagDeprecated}
				}
				out = append(out, si)
			}
			return out
		}
		log.Errorf("workspace symbol search: %s", err)
	}

	q := strings.ToLower(symbols.StripSigil(query))
	for _, doc := range f.store.Values() {
		for _, s := range doc.Symbols() {
			if !strings.Contains(strings.ToLower(s.Name), q) {
				continue
			}
			out = append(out, lsp.SymbolInformation{
				Name:     s.Name,
				Kind:     symbolKind(s.Kind()),
				Location: lsp.Location{URI: doc.URI, Range: s.Range},
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
