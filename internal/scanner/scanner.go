// scanner is used to find and read the stylesheets of a workspace.
package scanner

import (
	"context"
	"fmt"
	"runtime"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/wkillerud/some-sass-sub003/internal/fsys"
)

var log = commonlog.GetLogger("scssls.scanner")

// Scan finds the files under rootURI that match include and none of
// exclude, reads them concurrently and invokes callback(uri, text) for
// each. callback must be safe for concurrent use. A file that cannot be
// read is logged and skipped. Scan only returns once all callbacks have
// completed.
func Scan(
	ctx context.Context,
	fs fsys.FS,
	rootURI string,
	include, exclude []string,
	callback func(uri, text string),
) error {
	uris, err := fs.FindFiles(rootURI, include, exclude)
	if err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	log.Infof("found %d files under %s", len(uris), rootURI)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0) * 2)
	for _, uri := range uris {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			text, err := fs.ReadFile(uri)
			if err != nil {
				log.Warningf("read error: %s", err)
				return nil
			}
			callback(uri, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
