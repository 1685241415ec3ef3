package workspace

import (
	"context"

	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/watcher"
)

// Apply brings the store in line with changes made outside the editor.
// Documents open in the editor are owned by the editor and skipped. It
// returns the URIs whose records changed.
func (w *Workspace) Apply(ctx context.Context, events []watcher.Event, open func(uri string) bool) []string {
	var touched []string
	for _, ev := range events {
		uri := fsys.Normalize(ev.URI)
		if open(uri) {
			continue
		}
		switch ev.Op {
		case watcher.Removed:
			if _, ok := w.store.Get(uri); !ok {
				continue
			}
			if err := w.Remove(uri); err != nil {
				log.Warningf("%s: %s", uri, err)
				continue
			}
		case watcher.Changed:
			doc, err := w.Load(ctx, uri)
			if err != nil {
				log.Warningf("%s: %s", uri, err)
				continue
			}
			if doc != nil {
				w.Follow(ctx, doc)
			}
		}
		touched = append(touched, uri)
	}
	return touched
}
