// Package references finds every occurrence of a symbol across the
// workspace and computes rename edits for them.
package references

import (
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/cache"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/resolver"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

var log = commonlog.GetLogger("scssls.references")

// Engine answers reference and rename queries against a store.
type Engine struct {
	store    *cache.Store
	resolver *resolver.Resolver
	fs       fsys.FS
}

func New(store *cache.Store, r *resolver.Resolver, fs fsys.FS) *Engine {
	return &Engine{store: store, resolver: r, fs: fs}
}

// Match is one occurrence of the symbol being searched.
type Match struct {
	URI string
	// Range covers the name including its sigil, never the namespace.
	Range lsp.Range
	// Rename covers the part of the name a rename replaces: no sigil and
	// no forward prefix.
	Rename      lsp.Range
	Declaration bool
}

// definition is the canonical target every occurrence is compared against.
type definition struct {
	uri     string
	offset  int
	builtin string
	name    string
	local   bool
}

func definitionOf(res *resolver.Result) definition {
	if res.Builtin != nil {
		return definition{builtin: res.Builtin.Module + "." + res.Builtin.Name, name: res.Builtin.Name}
	}
	return definition{uri: res.Document.URI, offset: res.Symbol.Offset, name: res.Symbol.Name, local: res.Local}
}

// Find returns every occurrence of the symbol at offset in uri, ordered by
// document and position. It returns nil when offset is not on a resolvable
// symbol; an empty non-nil slice means the symbol resolved but has no
// matching occurrences.
func (e *Engine) Find(uri string, offset int, includeDeclaration bool) []Match {
	doc, ok := e.store.Get(uri)
	if !ok {
		return nil
	}
	occ, ok := Identify(doc, offset)
	if !ok {
		return nil
	}
	if occ.Declaration && !includeDeclaration && occ.Kind != symbols.Variable && occ.Kind != symbols.Placeholder {
		return nil
	}
	res, ok := e.resolver.Resolve(uri, occ.Reference)
	if !ok {
		return nil
	}
	def := definitionOf(res)
	bare := symbols.Normalize(symbols.StripSigil(def.name))

	docs := e.store.Values()
	if def.local {
		docs = []*symbols.Document{res.Document}
	}
	out := []Match{}
	for _, d := range docs {
		if !strings.Contains(symbols.Normalize(d.Text), bare) {
			continue
		}
		for _, c := range candidates(d, occ.Kind, bare) {
			got, ok := e.resolver.Resolve(d.URI, c.Reference)
			if !ok || !e.same(def, definitionOf(got)) {
				continue
			}
			isDecl := got.Builtin == nil && got.Document.URI == d.URI && got.Symbol.Offset == c.Node.Offset
			if isDecl && !includeDeclaration {
				continue
			}
			out = append(out, Match{
				URI:         d.URI,
				Range:       d.Tree.Range(c.Node),
				Rename:      renameRange(d, c, def.name),
				Declaration: isDecl,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].URI != out[j].URI {
			return out[i].URI < out[j].URI
		}
		return before(out[i].Range.Start, out[j].Range.Start)
	})
	log.Debugf("%s: %d occurrences of %s", uri, len(out), def.name)
	return out
}

// FindReferences returns the locations of Find.
func (e *Engine) FindReferences(uri string, offset int, includeDeclaration bool) []lsp.Location {
	matches := e.Find(uri, offset, includeDeclaration)
	if matches == nil {
		return nil
	}
	out := make([]lsp.Location, 0, len(matches))
	for _, m := range matches {
		out = append(out, lsp.Location{URI: m.URI, Range: m.Range})
	}
	return out
}

// same compares two definitions. A file reachable through a symlink can be
// stored under two URIs, so URIs that differ but share a file name are
// compared by real path.
func (e *Engine) same(a, b definition) bool {
	if a.builtin != "" || b.builtin != "" {
		return a.builtin == b.builtin
	}
	if a.offset != b.offset {
		return false
	}
	if a.uri == b.uri {
		return true
	}
	if e.fs == nil || fsys.Base(a.uri) != fsys.Base(b.uri) {
		return false
	}
	ra, err := e.fs.RealPath(a.uri)
	if err != nil {
		return false
	}
	rb, err := e.fs.RealPath(b.uri)
	if err != nil {
		return false
	}
	return ra == rb
}

// renameRange narrows the range of an occurrence to the replaceable part:
// the sigil is dropped, and so is any forward prefix the occurrence
// carries but the declaration does not.
func renameRange(doc *symbols.Document, occ *Occurrence, declared string) lsp.Range {
	start := occ.Node.Offset
	if strings.HasPrefix(occ.Name, "$") || strings.HasPrefix(occ.Name, "%") {
		start++
	}
	if diff := len(symbols.StripSigil(occ.Name)) - len(symbols.StripSigil(declared)); diff > 0 {
		start += diff
	}
	return doc.Tree.Lines.Range(start, occ.Node.End)
}

func before(a, b lsp.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}
