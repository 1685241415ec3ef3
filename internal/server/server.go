// Package server exposes the SCSS language features over LSP.
package server

import (
	"context"
	"errors"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/wkillerud/some-sass-sub003/internal/cache"
	"github.com/wkillerud/some-sass-sub003/internal/config"
	"github.com/wkillerud/some-sass-sub003/internal/database"
	"github.com/wkillerud/some-sass-sub003/internal/embedded"
	"github.com/wkillerud/some-sass-sub003/internal/features"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/graph"
	"github.com/wkillerud/some-sass-sub003/internal/manager"
	"github.com/wkillerud/some-sass-sub003/internal/references"
	"github.com/wkillerud/some-sass-sub003/internal/scheduler"
	"github.com/wkillerud/some-sass-sub003/internal/watcher"
	"github.com/wkillerud/some-sass-sub003/internal/workspace"
)

const Name = "scssls"

var log = commonlog.GetLogger("scssls.server")

var ErrNotInitialized = errors.New("server: not initialized")

type Server struct {
	handler *protocol.Handler
	version string
	fs      fsys.FS

	manager   *manager.DocumentManager
	scheduler *scheduler.Scheduler
	store     *cache.Store

	// Set by initialize.
	workspace *workspace.Workspace
	features  *features.Features
	refs      *references.Engine
	db        *database.DB
	embedded  *embedded.Extractor
	cfg       config.Config

	ctx    context.Context
	cancel context.CancelFunc
	notify glsp.NotifyFunc

	mu      sync.Mutex
	watcher *watcher.Watcher
	viewer  *graph.Viewer
}

// New creates a server reading files through fs.
func New(fs fsys.FS, version string) *Server {
	ls := &Server{
		version:   version,
		fs:        fs,
		manager:   manager.NewDocumentManager(),
		scheduler: scheduler.NewScheduler(256),
		store:     cache.NewStore(),
	}
	ls.ctx, ls.cancel = context.WithCancel(context.Background())
	ls.handler = &protocol.Handler{
		Initialize:                      ls.initialize,
		Initialized:                     ls.initialized,
		Shutdown:                        ls.shutdown,
		SetTrace:                        ls.setTrace,
		WorkspaceDidChangeConfiguration: ls.workspaceDidChangeConfiguration,
		WorkspaceExecuteCommand:         ls.workspaceExecuteCommand,
		WorkspaceSymbol:                 ls.workspaceSymbol,
		TextDocumentDidOpen:             ls.textDocumentDidOpen,
		TextDocumentDidChange:           ls.textDocumentDidChange,
		TextDocumentDidSave:             ls.textDocumentDidSave,
		TextDocumentDidClose:            ls.textDocumentDidClose,
		TextDocumentCompletion:          ls.textDocumentCompletion,
		TextDocumentHover:               ls.textDocumentHover,
		TextDocumentDefinition:          ls.textDocumentDefinition,
		TextDocumentReferences:          ls.textDocumentReferences,
		TextDocumentDocumentSymbol:      ls.textDocumentDocumentSymbol,
		TextDocumentDocumentLink:        ls.textDocumentDocumentLink,
		TextDocumentPrepareRename:       ls.textDocumentPrepareRename,
		TextDocumentRename:              ls.textDocumentRename,
	}
	ls.scheduler.RunScheduler()
	return ls
}

// Handler returns the LSP handler table.
func (s *Server) Handler() *protocol.Handler {
	return s.handler
}

// NewServer creates a glsp server over the real file system.
func NewServer(version string) (*server.Server, error) {
	ls := New(fsys.NewOS(), version)
	return server.NewServer(ls.handler, Name, false), nil
}

func (s *Server) ready() error {
	if s.workspace == nil {
		return ErrNotInitialized
	}
	return nil
}
