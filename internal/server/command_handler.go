package server

import (
	"fmt"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/config"
	"github.com/wkillerud/some-sass-sub003/internal/graph"
	"github.com/wkillerud/some-sass-sub003/internal/watcher"
)

// ShowModuleGraph opens the live module graph in a browser.
const ShowModuleGraph = "scssls.showModuleGraph"

// GraphAddr is where the module graph listens.
var GraphAddr = "127.0.0.1:0"

// WatchDebounce groups file system events before they are applied.
var WatchDebounce = 200 * time.Millisecond

func (s *Server) workspaceExecuteCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	switch params.Command {
	case ShowModuleGraph:
		return s.graph(context)
	}
	return nil, fmt.Errorf("unknown command %q", params.Command)
}

// graph starts the viewer on first use and asks the client to open it.
func (s *Server) graph(ctx *glsp.Context) (string, error) {
	s.mu.Lock()
	if s.viewer == nil {
		v := graph.New(s.workspace.Root())
		if _, err := v.Start(GraphAddr); err != nil {
			s.mu.Unlock()
			return "", err
		}
		if err := v.Follow(s.ctx, s.store); err != nil {
			v.Close()
			s.mu.Unlock()
			return "", err
		}
		s.viewer = v
	}
	addr, _ := s.viewer.Start(GraphAddr)
	s.mu.Unlock()

	ctx.Notify(
		"window/showDocument",
		protocol.ShowDocumentParams{
			URI:      protocol.URI(addr),
			External: &protocol.True,
		},
	)
	return addr, nil
}

func (s *Server) startWatcher() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil || s.workspace.Root() == "" {
		return
	}
	w, err := watcher.New(s.workspace.Root(), config.Include, s.cfg.ScannerExclude, WatchDebounce, s.onFileEvents)
	if err != nil {
		log.Errorf("watcher: %s", err)
		return
	}
	if err := w.Start(); err != nil {
		log.Errorf("watcher: %s", err)
		return
	}
	s.watcher = w
}

func (s *Server) stopWatcher() {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		if err := w.Close(); err != nil {
			log.Warningf("watcher: %s", err)
		}
	}
}

func (s *Server) onFileEvents(events []watcher.Event) {
	var touched []string
	err := s.scheduler.Do("watch", func() error {
		touched = s.workspace.Apply(s.ctx, events, s.manager.IsOpen)
		return nil
	})
	if err != nil {
		return
	}
	for _, uri := range touched {
		s.diagnoseDependents(uri)
	}
}
