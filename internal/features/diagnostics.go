package features

import (
	"fmt"

	"github.com/hbollon/go-edlib"
	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/references"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

// Diagnostics reports problems in the record of uri: unknown namespaces,
// use of deprecated members and module URLs that lead nowhere.
func (f *Features) Diagnostics(uri string) []lsp.Diagnostic {
	doc, ok := f.store.Get(uri)
	if !ok {
		return nil
	}
	cfg := f.config().Diagnostics
	out := []lsp.Diagnostic{}

	if cfg.UnresolvedModule {
		for _, l := range doc.Links(true) {
			if l.Target != "" || l.Dynamic || l.CSS {
				continue
			}
			out = append(out, lsp.Diagnostic{
				Range:    l.Range,
				Severity: ptr(lsp.DiagnosticSeverityWarning),
				Source:   ptr(Source),
				Message:  fmt.Sprintf("Could not resolve module %q", l.URL),
			})
		}
	}

	for _, occ := range references.Occurrences(doc) {
		if occ.Declaration {
			continue
		}
		if occ.Namespace != "" && !hasNamespace(doc, occ.Namespace) {
			if cfg.UnknownNamespace {
				out = append(out, unknownNamespace(doc, occ))
			}
			continue
		}
		if !cfg.Deprecation {
			continue
		}
		res, ok := f.resolver.Resolve(uri, occ.Reference)
		if !ok || res.Symbol == nil || !res.Symbol.Doc.IsDeprecated() {
			continue
		}
		msg := fmt.Sprintf("%s is deprecated", occ.Name)
		if reason := *res.Symbol.Doc.Deprecated; reason != "" {
			msg += ": " + reason
		}
		out = append(out, lsp.Diagnostic{
			Range:    doc.Tree.Range(occ.Node),
			Severity: ptr(lsp.DiagnosticSeverityWarning),
			Source:   ptr(Source),
			Message:  msg,
			Tags:     []lsp.DiagnosticTag{lsp.DiagnosticTagDeprecated},
		})
	}
	return out
}

func hasNamespace(doc *symbols.Document, ns string) bool {
	for _, l := range doc.Uses {
		if l.HasNamespace(ns) {
			return true
		}
	}
	return false
}

func unknownNamespace(doc *symbols.Document, occ *references.Occurrence) lsp.Diagnostic {
	n := occ.Node
	msg := fmt.Sprintf("Unknown namespace %q", occ.Namespace)
	if s := suggestNamespace(doc, occ.Namespace); s != "" {
		msg += fmt.Sprintf(", did you mean %q?", s)
	}
	return lsp.Diagnostic{
		Range: lsp.Range{
			Start: doc.Tree.Position(n.NamespaceOffset),
			End:   doc.Tree.Position(n.NamespaceOffset + len(occ.Namespace)),
		},
		Severity: ptr(lsp.DiagnosticSeverityError),
		Source:   ptr(Source),
		Message:  msg,
	}
}

// suggestNamespace returns the namespace of doc closest to ns, if any is
// within two edits.
func suggestNamespace(doc *symbols.Document, ns string) string {
	best, bestDistance := "", 3
	for _, l := range doc.Uses {
		for _, candidate := range l.Namespaces() {
			if candidate == "*" || candidate == "" {
				continue
			}
			if d := edlib.LevenshteinDistance(ns, candidate); d < bestDistance {
				best, bestDistance = candidate, d
			}
		}
	}
	return best
}
