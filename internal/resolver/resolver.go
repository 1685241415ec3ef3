// Package resolver finds the declaration a reference refers to by walking
// the @use and @forward graph held in the document store.
package resolver

import (
	"strings"

	"github.com/tliron/commonlog"

	"github.com/wkillerud/some-sass-sub003/internal/builtin"
	"github.com/wkillerud/some-sass-sub003/internal/cache"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

var log = commonlog.GetLogger("scssls.resolver")

// Reference identifies a symbol usage.
type Reference struct {
	Kind symbols.Kind
	// Name includes the sigil, as written after any namespace.
	Name      string
	Namespace string
	// Offset of the usage in the starting document. Local scopes are only
	// searched when it is not negative.
	Offset int
}

// Result is a resolved declaration. Exactly one of Symbol and Builtin is
// set.
type Result struct {
	Symbol   *symbols.Symbol
	Document *symbols.Document
	Builtin  *builtin.Member
	// Prefix is the forward prefix accumulated on the way to the symbol.
	Prefix string
	// Local marks parameters, loop variables and block scoped variables.
	Local bool
}

// URI returns the declaring document, or the sass:* module of a builtin.
func (r *Result) URI() string {
	if r.Builtin != nil {
		return "sass:" + r.Builtin.Module
	}
	return r.Document.URI
}

// Resolver resolves references against a store. It never mutates the store
// and is safe for concurrent use.
type Resolver struct {
	store *cache.Store
}

func New(store *cache.Store) *Resolver {
	return &Resolver{store: store}
}

// traversal is the state threaded through one search. visited is shared by
// every branch of the search so that no document is entered twice. prefix
// belongs to the current path. Hide and show filters are applied per
// @forward edge on the name as that edge exports it, which excludes the
// same names as carrying the union of hidden names down the path.
type traversal struct {
	visited map[string]struct{}
	prefix  string
}

func newTraversal(origin string) *traversal {
	return &traversal{visited: map[string]struct{}{origin: {}}}
}

func (t *traversal) enter(uri string) bool {
	if _, seen := t.visited[uri]; seen {
		return false
	}
	t.visited[uri] = struct{}{}
	return true
}

func (t *traversal) descend(link *symbols.Link) *traversal {
	return &traversal{visited: t.visited, prefix: t.prefix + link.Prefix}
}

// Resolve finds the declaration ref refers to from the document uri.
// Namespaced references are looked up only through the matching @use.
// Unqualified references try local scopes, the document itself, its @use
// links, its @import links and finally every other document in the store.
func (r *Resolver) Resolve(uri string, ref Reference) (*Result, bool) {
	doc, ok := r.store.Get(uri)
	if !ok {
		return nil, false
	}
	if ref.Namespace != "" {
		res := r.resolveNamespaced(doc, ref)
		return res, res != nil
	}

	if res := localLookup(doc, ref); res != nil {
		return res, true
	}
	if s := doc.Lookup(ref.Kind, ref.Name); s != nil {
		return &Result{Symbol: s, Document: doc}, true
	}
	for _, link := range doc.Uses {
		if link.Builtin() {
			if link.Namespace == "*" {
				if res := lookupBuiltin(link.Target, ref.Kind, ref.Name); res != nil {
					return res, true
				}
			}
			continue
		}
		if res := r.follow(link, ref, newTraversal(doc.URI)); res != nil {
			return res, true
		}
	}
	if res := r.searchImports(doc, ref, newTraversal(doc.URI)); res != nil {
		return res, true
	}
	if res := r.fallback(doc, ref); res != nil {
		log.Debugf("%s: %s resolved by store-wide lookup in %s", uri, ref.Name, res.Document.URI)
		return res, true
	}
	return nil, false
}

func (r *Resolver) resolveNamespaced(doc *symbols.Document, ref Reference) *Result {
	for _, link := range doc.Uses {
		if !link.HasNamespace(ref.Namespace) {
			continue
		}
		if link.Builtin() {
			if _, inStore := r.store.Get(link.Target); !inStore {
				return lookupBuiltin(link.Target, ref.Kind, ref.Name)
			}
		}
		return r.follow(link, ref, newTraversal(doc.URI))
	}
	return nil
}

// follow searches the document a @use link points at.
func (r *Resolver) follow(link *symbols.Link, ref Reference, t *traversal) *Result {
	if !link.Traversable() && !link.Builtin() {
		return nil
	}
	target, ok := r.store.Get(link.Target)
	if !ok {
		return nil
	}
	return r.search(target, ref.Kind, ref.Name, t)
}

// search looks for name in doc and in everything doc forwards. name is the
// member name as doc exports it, so forward prefixes are stripped and
// hide/show filters applied on the way down.
func (r *Resolver) search(doc *symbols.Document, kind symbols.Kind, name string, t *traversal) *Result {
	if !t.enter(doc.URI) {
		return nil
	}
	if s := doc.Lookup(kind, name); s != nil {
		return &Result{Symbol: s, Document: doc, Prefix: t.prefix}
	}
	for _, f := range doc.Forwards {
		if f.Hidden(name) {
			continue
		}
		inner, ok := StripPrefix(name, f.Prefix)
		if !ok {
			continue
		}
		if f.Builtin() {
			if res := lookupBuiltin(f.Target, kind, inner); res != nil {
				res.Prefix = t.prefix + f.Prefix
				return res
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
		if res := r.search(target, kind, inner, t.descend(f)); res != nil {
			return res
		}
	}
	return nil
}

// searchImports follows @import links transitively. Imported members are
// global, but private names stay private to their file.
func (r *Resolver) searchImports(doc *symbols.Document, ref Reference, t *traversal) *Result {
	for _, link := range doc.Imports {
		if !link.Traversable() || !t.enter(link.Target) {
			continue
		}
		target, ok := r.store.Get(link.Target)
		if !ok {
			continue
		}
		if s := target.Lookup(ref.Kind, ref.Name); s != nil && !symbols.IsPrivate(s.Name) {
			return &Result{Symbol: s, Document: target}
		}
		if res := r.searchImports(target, ref, t); res != nil {
			return res
		}
	}
	return nil
}

// fallback scans every other document in URI order. Private members never
// match.
func (r *Resolver) fallback(doc *symbols.Document, ref Reference) *Result {
	for _, other := range r.store.Values() {
		if other.URI == doc.URI {
			continue
		}
		if s := other.Lookup(ref.Kind, ref.Name); s != nil && !symbols.IsPrivate(s.Name) {
			return &Result{Symbol: s, Document: other}
		}
	}
	return nil
}

func lookupBuiltin(module string, kind symbols.Kind, name string) *Result {
	m, ok := builtin.Lookup(module, name)
	if !ok || !builtinKindMatches(m.Kind, kind) {
		return nil
	}
	return &Result{Builtin: &m}
}

func builtinKindMatches(b builtin.Kind, k symbols.Kind) bool {
	switch k {
	case symbols.Variable:
		return b == builtin.Variable
	case symbols.Function:
		return b == builtin.Function
	case symbols.Mixin:
		return b == builtin.Mixin
	}
	return false
}

// StripPrefix removes a forward prefix from a member name, keeping the
// sigil. ok is false when name does not carry the prefix.
func StripPrefix(name, prefix string) (string, bool) {
	if prefix == "" {
		return name, true
	}
	sigil, bare := "", name
	if strings.HasPrefix(name, "$") || strings.HasPrefix(name, "%") {
		sigil, bare = name[:1], name[1:]
	}
	if len(bare) <= len(prefix) || symbols.Normalize(bare[:len(prefix)]) != symbols.Normalize(prefix) {
		return "", false
	}
	return sigil + bare[len(prefix):], true
}
