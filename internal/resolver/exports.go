package resolver

import (
	"sort"

	"github.com/wkillerud/some-sass-sub003/internal/builtin"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

// Export is a member visible to another document.
type Export struct {
	// Name as the using document writes it, forward prefixes included.
	Name     string
	Kind     symbols.Kind
	Symbol   *symbols.Symbol
	Document *symbols.Document
	Builtin  *builtin.Member
}

// Exports lists the members a @use or @forward link of uri makes visible,
// ordered by name. Private members and placeholders are left out.
func (r *Resolver) Exports(uri string, link *symbols.Link) []Export {
	if link.Builtin() {
		return builtinExports(link.Target, "", nil)
	}
	if !link.Traversable() {
		return nil
	}
	target, ok := r.store.Get(link.Target)
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []Export
	r.collect(target, newTraversal(uri), seen, &out)
	sortExports(out)
	return out
}

// collect appends the public members of doc and of everything it forwards.
// The first declaration of a visible name wins.
func (r *Resolver) collect(doc *symbols.Document, t *traversal, seen map[string]bool, out *[]Export) {
	if !t.enter(doc.URI) {
		return
	}
	add := func(e Export) {
		key := e.Kind.String() + ":" + symbols.Normalize(e.Name)
		if seen[key] {
			return
		}
		seen[key] = true
		*out = append(*out, e)
	}
	for _, s := range doc.Symbols() {
		if s.Kind() == symbols.Placeholder || symbols.IsPrivate(s.Name) {
			continue
		}
		add(Export{Name: symbols.WithPrefix(t.prefix, s.Name), Kind: s.Kind(), Symbol: s, Document: doc})
	}
	for _, f := range doc.Forwards {
		if f.Builtin() {
			for _, e := range builtinExports(f.Target, f.Prefix, f) {
				e.Name = symbols.WithPrefix(t.prefix, e.Name)
				add(e)
			}
			continue
		}
		if !f.Traversable() {
			continue
		}
		target, ok := r.store.Get(f.Target)
		if !ok {
			continue
		}
		var below []Export
		r.collect(target, t.descend(f), map[string]bool{}, &below)
		for _, e := range below {
			// Names below carry the full prefix; the filter of f sees them
			// with only the prefixes up to and including f.
			if f.Hidden(trimPrefix(e.Name, t.prefix)) {
				continue
			}
			add(e)
		}
	}
}

func trimPrefix(name, prefix string) string {
	if s, ok := StripPrefix(name, prefix); ok {
		return s
	}
	return name
}

func builtinExports(module, prefix string, filter *symbols.Link) []Export {
	var out []Export
	for _, m := range builtin.Members(module) {
		name := symbols.WithPrefix(prefix, m.Name)
		if filter != nil && filter.Hidden(name) {
			continue
		}
		out = append(out, Export{Name: name, Kind: builtinKind(m.Kind), Builtin: &m})
	}
	return out
}

func builtinKind(k builtin.Kind) symbols.Kind {
	switch k {
	case builtin.Variable:
		return symbols.Variable
	case builtin.Mixin:
		return symbols.Mixin
	}
	return symbols.Function
}

// Globals lists the public members uri can see through @import, following
// imports transitively. The importing document's own members are not
// included.
func (r *Resolver) Globals(uri string) []Export {
	doc, ok := r.store.Get(uri)
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []Export
	r.globals(doc, newTraversal(uri), seen, &out)
	sortExports(out)
	return out
}

func (r *Resolver) globals(doc *symbols.Document, t *traversal, seen map[string]bool, out *[]Export) {
	for _, link := range doc.Imports {
		if !link.Traversable() || !t.enter(link.Target) {
			continue
		}
		target, ok := r.store.Get(link.Target)
		if !ok {
			continue
		}
		for _, s := range target.Symbols() {
			if symbols.IsPrivate(s.Name) {
				continue
			}
			key := s.Kind().String() + ":" + symbols.Normalize(s.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			*out = append(*out, Export{Name: s.Name, Kind: s.Kind(), Symbol: s, Document: target})
		}
		r.globals(target, t, seen, out)
	}
}

func sortExports(out []Export) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
}

// GetSymbols returns the declarations of uri ordered by offset.
func (r *Resolver) GetSymbols(uri string) []*symbols.Symbol {
	doc, ok := r.store.Get(uri)
	if !ok {
		return nil
	}
	return doc.Symbols()
}

// GetLinks returns the module links of uri in source order. @forward links
// are included only when forwards is set.
func (r *Resolver) GetLinks(uri string, forwards bool) []*symbols.Link {
	doc, ok := r.store.Get(uri)
	if !ok {
		return nil
	}
	return doc.Links(forwards)
}
