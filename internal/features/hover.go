package features

import (
	"strings"

	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/references"
)

// Hover documents the symbol under pos, or the target of a module URL.
func (f *Features) Hover(uri string, pos lsp.Position) *lsp.Hover {
	doc, offset, ok := f.at(uri, pos)
	if !ok {
		return nil
	}

	if link := doc.LinkAt(offset); link != nil {
		if link.Target == "" || link.Builtin() {
			return nil
		}
		r := link.Range
		return &lsp.Hover{
			Contents: lsp.MarkupContent{Kind: lsp.MarkupKindMarkdown, Value: "`" + relative(uri, link.Target) + "`"},
			Range:    &r,
		}
	}

	occ, ok := references.Identify(doc, offset)
	if !ok {
		return nil
	}
	res, ok := f.resolver.Resolve(uri, occ.Reference)
	if !ok {
		return nil
	}

	var b strings.Builder
	b.WriteString("```scss\n")
	if res.Builtin != nil {
		b.WriteString(builtinDeclaration(res.Builtin))
		b.WriteString("\n```\n\n")
		b.WriteString(res.Builtin.Description)
		b.WriteString("\n\n[Sass documentation](" + res.Builtin.Reference() + ")")
	} else {
		b.WriteString(declaration(res.Symbol, occ.Name))
		b.WriteString("\n```\n\n")
		if md := res.Symbol.Doc.Markdown(); md != "" {
			b.WriteString(md)
			b.WriteString("\n\n")
		}
		if res.Document.URI != uri {
			b.WriteString("Declared in `" + relative(uri, res.Document.URI) + "`")
		}
	}

	r := doc.Tree.Range(occ.Node)
	return &lsp.Hover{
		Contents: lsp.MarkupContent{Kind: lsp.MarkupKindMarkdown, Value: strings.TrimSpace(b.String())},
		Range:    &r,
	}
}
