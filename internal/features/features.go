// Package features answers the language feature requests of an editor from
// the document store, the resolver and the reference engine.
package features

import (
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/builtin"
	"github.com/wkillerud/some-sass-sub003/internal/cache"
	"github.com/wkillerud/some-sass-sub003/internal/config"
	"github.com/wkillerud/some-sass-sub003/internal/database"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/references"
	"github.com/wkillerud/some-sass-sub003/internal/resolver"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

var log = commonlog.GetLogger("scssls.features")

// Source is reported on every diagnostic.
const Source = "scssls"

type Features struct {
	store    *cache.Store
	resolver *resolver.Resolver
	refs     *references.Engine
	db       *database.DB

	mu  sync.RWMutex
	cfg config.Config
}

// New creates the feature set. db may be nil, workspace symbols then scan
// the store.
func New(store *cache.Store, r *resolver.Resolver, refs *references.Engine, db *database.DB, cfg config.Config) *Features {
	return &Features{store: store, resolver: r, refs: refs, db: db, cfg: cfg}
}

func (f *Features) SetConfig(cfg config.Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
}

func (f *Features) config() config.Config {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cfg
}

// at returns the record of uri and the byte offset of pos in it.
func (f *Features) at(uri string, pos lsp.Position) (*symbols.Document, int, bool) {
	doc, ok := f.store.Get(uri)
	if !ok || doc.Tree == nil {
		return nil, 0, false
	}
	return doc, doc.Tree.Offset(pos), true
}

func ptr[T any](v T) *T {
	return &v
}

func parameters(ps []symbols.Parameter) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		if p.Value != nil {
			parts = append(parts, p.Name+": "+*p.Value)
		} else {
			parts = append(parts, p.Name)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// declaration renders s the way it is declared, under the name the
// reader sees.
func declaration(s *symbols.Symbol, name string) string {
	switch d := s.Detail.(type) {
	case symbols.VariableDetail:
		out := name
		if d.Value != nil {
			out += ": " + *d.Value
		}
		if d.Default {
			out += " !default"
		}
		if d.Global {
			out += " !global"
		}
		return out
	case symbols.MixinDetail:
		if len(d.Parameters) == 0 {
			return "@mixin " + name
		}
		return "@mixin " + name + parameters(d.Parameters)
	case symbols.FunctionDetail:
		return "@function " + name + parameters(d.Parameters)
	}
	return name
}

func builtinDeclaration(m *builtin.Member) string {
	switch m.Kind {
	case builtin.Mixin:
		return "@mixin " + m.Module + "." + m.Name + m.Signature
	case builtin.Variable:
		return m.Module + "." + m.Name
	}
	return "@function " + m.Module + "." + m.Name + m.Signature
}

// relative renders uri relative to the directory of from.
func relative(from, uri string) string {
	dir := fsys.URIToPath(fsys.Dir(from))
	p := fsys.URIToPath(uri)
	if rel, ok := strings.CutPrefix(p, dir+"/"); ok {
		return rel
	}
	return p
}
