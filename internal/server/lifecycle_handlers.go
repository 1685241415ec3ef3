package server

import (
	"errors"
	"strings"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/config"
	"github.com/wkillerud/some-sass-sub003/internal/database"
	"github.com/wkillerud/some-sass-sub003/internal/embedded"
	"github.com/wkillerud/some-sass-sub003/internal/features"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/references"
	"github.com/wkillerud/some-sass-sub003/internal/resolver"
	"github.com/wkillerud/some-sass-sub003/internal/scheduler"
	"github.com/wkillerud/some-sass-sub003/internal/workspace"
)

// PruneInterval is how often records of vanished files are dropped.
var PruneInterval = time.Minute

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	s.notify = context.Notify

	root := rootURI(params)
	cfg := s.loadConfig(root, params.InitializationOptions)
	s.cfg = cfg
	log.Infof("root %q, config %+v", root, cfg)

	db, err := database.NewDB(databasePath(root, cfg.SymbolDatabase))
	if err != nil {
		log.Errorf("symbol database: %s", err)
		db = nil
	}
	s.db = db

	emb, err := embedded.NewExtractor(4)
	if err != nil {
		log.Errorf("embedded stylesheets: %s", err)
		emb = nil
	}
	s.embedded = emb

	r := resolver.New(s.store)
	s.refs = references.New(s.store, r, s.fs)
	s.features = features.New(s.store, r, s.refs, db, cfg)
	s.workspace = workspace.New(s.fs, root, s.store, db, emb, cfg)

	syncKind := protocol.TextDocumentSyncKindIncremental

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: &protocol.False},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"$", "@", ".", "%", "\"", "'", "/", ":"},
	}
	capabilities.RenameProvider = &protocol.RenameOptions{PrepareProvider: &protocol.True}
	capabilities.DocumentLinkProvider = &protocol.DocumentLinkOptions{}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{ShowModuleGraph},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Info("client initialized")
	s.scheduler.SchedulePeriodicTask(PruneInterval, scheduler.Task{
		Name: "prune",
		Execute: func() error {
			for _, uri := range s.workspace.Prune(s.manager.IsOpen) {
				s.publishDiagnostics(uri, nil)
			}
			return nil
		},
	})
	if s.cfg.UseFileWatcher {
		s.startWatcher()
	}
	go s.scan()
	return nil
}

// scan indexes the workspace and refreshes the diagnostics of documents
// opened in the meantime.
func (s *Server) scan() {
	if s.workspace.Root() == "" {
		return
	}
	start := time.Now()
	if err := s.workspace.Scan(s.ctx); err != nil {
		log.Errorf("scan: %s", err)
		return
	}
	log.Infof("scan finished in %s", time.Since(start))
	s.diagnoseOpen()
}

func (s *Server) shutdown(context *glsp.Context) error {
	s.cancel()
	s.stopWatcher()
	s.mu.Lock()
	if s.viewer != nil {
		if err := s.viewer.Close(); err != nil {
			log.Warningf("graph: %s", err)
		}
		s.viewer = nil
	}
	s.mu.Unlock()
	s.scheduler.StopScheduler()
	if s.embedded != nil {
		s.embedded.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	s.manager.CloseAll()
	s.store.Clear()
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	if err := s.ready(); err != nil {
		return err
	}
	settings := params.Settings
	if m, ok := settings.(map[string]any); ok {
		if nested, ok := m[Name]; ok {
			settings = nested
		}
	}
	cfg, err := config.Load(s.cfg, settings)
	if err != nil {
		log.Warningf("ignoring settings: %s", err)
		return nil
	}
	s.cfg = cfg
	s.workspace.SetConfig(cfg)
	s.features.SetConfig(cfg)
	if cfg.UseFileWatcher {
		s.startWatcher()
	} else {
		s.stopWatcher()
	}
	s.diagnoseOpen()
	return nil
}

// rootURI picks the workspace root the client announced, if any.
func rootURI(params *protocol.InitializeParams) string {
	switch {
	case params.RootURI != nil && *params.RootURI != "":
		return fsys.Normalize(*params.RootURI)
	case len(params.WorkspaceFolders) > 0:
		return fsys.Normalize(params.WorkspaceFolders[0].URI)
	case params.RootPath != nil && *params.RootPath != "":
		return fsys.PathToURI(*params.RootPath)
	}
	return ""
}

// loadConfig layers the project file and the initialization options over
// the defaults. A broken source is logged and skipped.
func (s *Server) loadConfig(root string, options any) config.Config {
	cfg := config.Default()
	if root != "" {
		text, err := s.fs.ReadFile(fsys.Join(root, config.FileName))
		switch {
		case err == nil:
			if fromFile, err := config.LoadFromTOML(cfg, strings.NewReader(text)); err != nil {
				log.Warningf("%s", err)
			} else {
				cfg = fromFile
			}
		case !errors.Is(err, fsys.ErrNotExist):
			log.Warningf("%s: %s", config.FileName, err)
		}
	}
	merged, err := config.Load(cfg, options)
	if err != nil {
		log.Warningf("initializationOptions: %s", err)
		return cfg
	}
	return merged
}
