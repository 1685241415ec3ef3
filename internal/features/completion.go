package features

import (
	"regexp"
	"strconv"
	"strings"

	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/builtin"
	"github.com/wkillerud/some-sass-sub003/internal/resolver"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

var (
	moduleURLContext   = regexp.MustCompile(`@(?:use|forward)\s+["']([^"']*)$`)
	includeContext     = regexp.MustCompile(`@include\s+(?:([\w-]+)\.)?([\w-]*)$`)
	extendContext      = regexp.MustCompile(`@extend\s+(%[\w-]*)$`)
	memberContext      = regexp.MustCompile(`(?:^|[^\w$.%#-])([\w-]+)\.(\$?[\w-]*)$`)
	valueContext       = regexp.MustCompile(`(?:[:(,]|#\{|@return|@if|@else if|@each .* in|\s[-+*/])\s*(\$?[\w-]*)$`)
	declarationContext = regexp.MustCompile(`^\s*(\$[\w-]*)$`)
)

// completion describes what the text before the cursor asks for.
type completion struct {
	namespace string
	word      string
	kinds     map[symbols.Kind]bool
	modules   bool
}

func valueKinds(word string) map[symbols.Kind]bool {
	kinds := map[symbols.Kind]bool{symbols.Variable: true}
	if !strings.HasPrefix(word, "$") {
		kinds[symbols.Function] = true
	}
	return kinds
}

// classify reads the text of the line before the cursor.
func classify(prefix string) (completion, bool) {
	if m := moduleURLContext.FindStringSubmatch(prefix); m != nil {
		return completion{word: m[1], modules: true}, true
	}
	if m := includeContext.FindStringSubmatch(prefix); m != nil {
		return completion{namespace: m[1], word: m[2], kinds: map[symbols.Kind]bool{symbols.Mixin: true}}, true
	}
	if m := extendContext.FindStringSubmatch(prefix); m != nil {
		return completion{word: m[1], kinds: map[symbols.Kind]bool{symbols.Placeholder: true}}, true
	}
	if m := memberContext.FindStringSubmatch(prefix); m != nil {
		return completion{namespace: m[1], word: m[2], kinds: valueKinds(m[2])}, true
	}
	if m := valueContext.FindStringSubmatch(prefix); m != nil {
		return completion{word: m[1], kinds: valueKinds(m[1])}, true
	}
	if m := declarationContext.FindStringSubmatch(prefix); m != nil {
		return completion{word: m[1], kinds: map[symbols.Kind]bool{symbols.Variable: true}}, true
	}
	return completion{}, false
}

// Completion suggests the members visible at pos.
func (f *Features) Completion(uri string, pos lsp.Position) *lsp.CompletionList {
	list := &lsp.CompletionList{Items: []lsp.CompletionItem{}}
	doc, offset, ok := f.at(uri, pos)
	if !ok {
		return list
	}
	lineStart := strings.LastIndexByte(doc.Text[:offset], '\n') + 1
	c, ok := classify(doc.Text[lineStart:offset])
	if !ok {
		return list
	}
	replace := lsp.Range{Start: doc.Tree.Position(offset - len(c.word)), End: pos}

	if c.modules {
		for _, m := range builtin.Modules() {
			list.Items = append(list.Items, lsp.CompletionItem{
				Label:    m,
				Kind:     ptr(lsp.CompletionItemKindModule),
				TextEdit: lsp.TextEdit{Range: replace, NewText: m},
			})
		}
		return list
	}

	b := &builder{kinds: c.kinds, replace: replace, seen: map[string]bool{}}
	if c.namespace != "" {
		for _, l := range doc.Uses {
			if l.HasNamespace(c.namespace) {
				b.exports(f.resolver.Exports(uri, l))
				break
			}
		}
		list.Items = b.items
		return list
	}

	if c.kinds[symbols.Variable] {
		for _, s := range resolver.Locals(doc, offset) {
			b.symbol(s, s.Name, "")
		}
	}
	for _, s := range doc.Symbols() {
		b.symbol(s, s.Name, "")
	}
	for _, l := range doc.Uses {
		if l.Namespace == "*" {
			b.exports(f.resolver.Exports(uri, l))
		}
	}
	b.exports(f.resolver.Globals(uri))
	if c.kinds[symbols.Placeholder] || !f.config().SuggestFromUseOnly {
		for _, other := range f.store.Values() {
			if other.URI == uri {
				continue
			}
			for _, s := range other.Symbols() {
				if !symbols.IsPrivate(s.Name) {
					b.symbol(s, s.Name, relative(uri, other.URI))
				}
			}
		}
	}
	if c.kinds[symbols.Function] && !strings.HasPrefix(c.word, "$") {
		for _, l := range doc.Uses {
			for _, ns := range l.Namespaces() {
				if ns == "*" || ns == "" || b.seen["ns:"+ns] {
					continue
				}
				b.seen["ns:"+ns] = true
				b.items = append(b.items, lsp.CompletionItem{
					Label:    ns,
					Kind:     ptr(lsp.CompletionItemKindModule),
					Detail:   ptr(l.URL),
					TextEdit: lsp.TextEdit{Range: replace, NewText: ns},
				})
			}
		}
	}
	list.Items = b.items
	return list
}

type builder struct {
	kinds   map[symbols.Kind]bool
	replace lsp.Range
	seen    map[string]bool
	items   []lsp.CompletionItem
}

func (b *builder) add(kind symbols.Kind, name string, item lsp.CompletionItem) {
	key := kind.String() + ":" + symbols.Normalize(name)
	if !b.kinds[kind] || b.seen[key] {
		return
	}
	b.seen[key] = true
	b.items = append(b.items, item)
}

func (b *builder) symbol(s *symbols.Symbol, name, from string) {
	item := lsp.CompletionItem{
		Label:    name,
		Kind:     completionKind(s.Kind()),
		Detail:   ptr(declaration(s, name)),
		TextEdit: lsp.TextEdit{Range: b.replace, NewText: name},
	}
	md := s.Doc.Markdown()
	if from != "" {
		md = strings.TrimSpace(md + "\n\nDeclared in `" + from + "`")
	}
	if md != "" {
		item.Documentation = lsp.MarkupContent{Kind: lsp.MarkupKindMarkdown, Value: md}
	}
	if s.Doc.IsDeprecated() {
		item.Tags = []lsp.CompletionItemTag{lsp.CompletionItemTagDeprecated}
	}
	if ps := s.Parameters(); s.Kind() == symbols.Function || len(ps) > 0 {
		item.TextEdit = lsp.TextEdit{Range: b.replace, NewText: name + snippet(ps)}
		item.InsertTextFormat = ptr(lsp.InsertTextFormatSnippet)
	}
	b.add(s.Kind(), name, item)
}

func (b *builder) exports(exports []resolver.Export) {
	for _, e := range exports {
		if e.Builtin != nil {
			b.builtin(e.Kind, e.Name, e.Builtin)
			continue
		}
		b.symbol(e.Symbol, e.Name, "")
	}
}

func (b *builder) builtin(kind symbols.Kind, name string, m *builtin.Member) {
	item := lsp.CompletionItem{
		Label:         name,
		Kind:          completionKind(kind),
		Detail:        ptr(builtinDeclaration(m)),
		Documentation: lsp.MarkupContent{Kind: lsp.MarkupKindMarkdown, Value: m.Description},
		TextEdit:      lsp.TextEdit{Range: b.replace, NewText: name},
	}
	if m.Signature != "" {
		item.TextEdit = lsp.TextEdit{Range: b.replace, NewText: name + "($1)"}
		item.InsertTextFormat = ptr(lsp.InsertTextFormatSnippet)
	}
	b.add(kind, name, item)
}

func completionKind(k symbols.Kind) *lsp.CompletionItemKind {
	switch k {
	case symbols.Mixin:
		return ptr(lsp.CompletionItemKindMethod)
	case symbols.Function:
		return ptr(lsp.CompletionItemKindFunction)
	case symbols.Placeholder:
		return ptr(lsp.CompletionItemKindClass)
	}
	return ptr(lsp.CompletionItemKindVariable)
}

// snippet places a tab stop on every required parameter.
func snippet(ps []symbols.Parameter) string {
	var parts []string
	for _, p := range ps {
		if p.Value != nil {
			continue
		}
		parts = append(parts, "${"+strconv.Itoa(len(parts)+1)+":"+strings.ReplaceAll(p.Name, "$", `\$`)+"}")
	}
	if len(parts) == 0 {
		return "($1)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
