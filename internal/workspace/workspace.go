// Package workspace owns the pipeline from stylesheet text to stored
// records: parsing, symbol extraction, the initial scan and the symbol
// index.
package workspace

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/tliron/commonlog"
	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/cache"
	"github.com/wkillerud/some-sass-sub003/internal/config"
	"github.com/wkillerud/some-sass-sub003/internal/database"
	"github.com/wkillerud/some-sass-sub003/internal/embedded"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/scanner"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

var log = commonlog.GetLogger("scssls.workspace")

type Workspace struct {
	fs        fsys.FS
	root      string
	store     *cache.Store
	db        *database.DB
	embedded  *embedded.Extractor
	extractor *symbols.Extractor

	mu  sync.RWMutex
	cfg config.Config

	// writes serializes store updates so a scan never replaces a record
	// the editor stored in the meantime.
	writes sync.Mutex
}

// New creates a workspace rooted at rootURI. db and emb may be nil; the
// symbol index is then not kept and component files are skipped.
func New(
	fs fsys.FS,
	rootURI string,
	store *cache.Store,
	db *database.DB,
	emb *embedded.Extractor,
	cfg config.Config,
) *Workspace {
	w := &Workspace{
		fs:       fs,
		root:     fsys.Normalize(rootURI),
		store:    store,
		db:       db,
		embedded: emb,
	}
	w.SetConfig(cfg)
	return w
}

func (w *Workspace) Root() string {
	return w.root
}

func (w *Workspace) Store() *cache.Store {
	return w.store
}

// SetConfig replaces the configuration. Load paths take effect for
// documents extracted afterwards.
func (w *Workspace) SetConfig(cfg config.Config) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg = cfg
	w.extractor = symbols.NewExtractor(&symbols.Targets{
		FS:        w.fs,
		Root:      w.root,
		LoadPaths: w.loadPaths(cfg.LoadPaths),
	})
}

func (w *Workspace) config() (config.Config, *symbols.Extractor) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg, w.extractor
}

// loadPaths turns configured load paths into directory URIs, relative
// entries taken from the workspace root.
func (w *Workspace) loadPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if path.IsAbs(p) {
			out = append(out, fsys.PathToURI(path.Clean(p)))
		} else {
			out = append(out, fsys.Join(w.root, p))
		}
	}
	return out
}

// Update extracts the record for uri from text and stores it. When the
// content is unchanged since the stored record, and all its links found a
// target, only the version moves.
// A component file without SCSS style blocks removes any stored record
// and yields nil.
func (w *Workspace) Update(ctx context.Context, uri, text string, version int32) (*symbols.Document, error) {
	w.writes.Lock()
	defer w.writes.Unlock()
	return w.update(ctx, fsys.Normalize(uri), text, version)
}

// add stores uri at version 0 unless the store already has it.
func (w *Workspace) add(ctx context.Context, uri, text string) (*symbols.Document, error) {
	w.writes.Lock()
	defer w.writes.Unlock()
	if _, ok := w.store.Get(uri); ok {
		return nil, nil
	}
	return w.update(ctx, uri, text, 0)
}

func (w *Workspace) update(ctx context.Context, uri, text string, version int32) (*symbols.Document, error) {
	if embedded.IsEmbedded(uri) {
		if w.embedded == nil {
			return nil, nil
		}
		scss, ok, err := w.embedded.Extract(ctx, uri, text)
		if err != nil {
			return nil, err
		}
		if !ok {
			w.forget(uri)
			return nil, nil
		}
		text = scss
	}

	if old, ok := w.store.Get(uri); ok && old.Hash == symbols.Hash(text) && !unresolved(old) {
		if old.Version == version {
			return old, nil
		}
		doc := *old
		doc.Version = version
		if err := w.store.Set(uri, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}

	_, e := w.config()
	doc := e.Extract(uri, version, text)
	if err := w.store.Set(uri, doc); err != nil {
		return nil, err
	}
	if w.db != nil {
		if err := w.db.Record(doc); err != nil {
			log.Errorf("index %s: %s", uri, err)
		}
	}
	return doc, nil
}

// unresolved reports whether a link of doc may find a target later.
func unresolved(doc *symbols.Document) bool {
	for _, l := range doc.Links(true) {
		if l.Target == "" && !l.Dynamic && !l.CSS {
			return true
		}
	}
	return false
}

// Remove drops the record for uri.
func (w *Workspace) Remove(uri string) error {
	w.writes.Lock()
	defer w.writes.Unlock()
	return w.remove(fsys.Normalize(uri))
}

func (w *Workspace) remove(uri string) error {
	if err := w.store.Delete(uri); err != nil {
		return err
	}
	if w.db != nil {
		if err := w.db.Remove(uri); err != nil {
			log.Errorf("unindex %s: %s", uri, err)
		}
	}
	return nil
}

func (w *Workspace) forget(uri string) {
	if _, ok := w.store.Get(uri); ok {
		if err := w.remove(uri); err != nil {
			log.Warningf("%s: %s", uri, err)
		}
	}
}

// Load reads uri from disk and stores it with version 0.
func (w *Workspace) Load(ctx context.Context, uri string) (*symbols.Document, error) {
	text, err := w.fs.ReadFile(uri)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	return w.Update(ctx, uri, text, 0)
}

// Scan indexes every stylesheet below the root, then follows their links.
// Files already in the store are left alone.
func (w *Workspace) Scan(ctx context.Context) error {
	cfg, _ := w.config()
	err := scanner.Scan(ctx, w.fs, w.root, config.Include, cfg.ScannerExclude, func(uri, text string) {
		if _, err := w.add(ctx, fsys.Normalize(uri), text); err != nil {
			log.Warningf("%s: %s", uri, err)
		}
	})
	if err != nil {
		return err
	}
	w.Follow(ctx, w.store.Values()...)
	log.Infof("indexed %d documents", w.store.Len())
	return ctx.Err()
}

// Follow loads the link targets of docs that are not in the store yet,
// breadth first, at most scannerDepth links away from docs. It does
// nothing unless scanImportedFiles is set.
func (w *Workspace) Follow(ctx context.Context, docs ...*symbols.Document) {
	cfg, _ := w.config()
	if !cfg.ScanImportedFiles {
		return
	}
	visited := map[string]bool{}
	for _, d := range docs {
		visited[d.URI] = true
	}
	level := docs
	for depth := 0; depth < cfg.ScannerDepth && len(level) > 0; depth++ {
		var next []*symbols.Document
		for _, d := range level {
			for _, l := range d.Links(true) {
				if ctx.Err() != nil {
					return
				}
				if !l.Traversable() || visited[l.Target] {
					continue
				}
				visited[l.Target] = true
				if _, ok := w.store.Get(l.Target); ok {
					continue
				}
				text, err := w.fs.ReadFile(l.Target)
				if err != nil {
					log.Warningf("follow %s: %s", l.Target, err)
					continue
				}
				doc, err := w.add(ctx, l.Target, text)
				if err != nil {
					log.Warningf("follow %s: %s", l.Target, err)
					continue
				}
				if doc != nil {
					next = append(next, doc)
				}
			}
		}
		level = next
	}
}

// Prune removes the records of files that no longer exist and are not
// open in the editor. It returns the removed URIs.
func (w *Workspace) Prune(open func(uri string) bool) []string {
	var removed []string
	for _, uri := range w.store.URIs() {
		if open(uri) || w.fs.Exists(uri) {
			continue
		}
		if err := w.Remove(uri); err != nil {
			continue
		}
		removed = append(removed, uri)
	}
	if len(removed) > 0 {
		log.Infof("pruned %d documents", len(removed))
	}
	return removed
}

// Diagnoser computes the diagnostics of a stored document.
type Diagnoser interface {
	Diagnostics(uri string) []lsp.Diagnostic
}

// Diagnose computes the diagnostics of uri for the given version. ok is
// false when the stored record is not at version before or after the
// computation; such results are stale and must not be published.
func (w *Workspace) Diagnose(uri string, version int32, d Diagnoser) (params lsp.PublishDiagnosticsParams, ok bool) {
	current := func() bool {
		doc, ok := w.store.Get(uri)
		return ok && doc.Version == version
	}
	if !current() {
		return params, false
	}
	diagnostics := d.Diagnostics(uri)
	if !current() {
		log.Debugf("dropping stale diagnostics for %s@%d", uri, version)
		return params, false
	}
	v := lsp.UInteger(version)
	return lsp.PublishDiagnosticsParams{URI: uri, Version: &v, Diagnostics: diagnostics}, true
}
