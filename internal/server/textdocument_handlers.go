package server

import (
	"path"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/embedded"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/manager"
)

// supported reports whether the server reads uri. Indented .sass files
// are not parsed.
func supported(uri string) bool {
	switch path.Ext(uri) {
	case ".scss", ".css":
		return true
	}
	return embedded.IsEmbedded(uri)
}

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	if err := s.ready(); err != nil {
		return err
	}
	item := params.TextDocument
	item.URI = fsys.Normalize(item.URI)
	if !supported(item.URI) {
		return nil
	}
	doc := s.manager.Open(item)
	return s.update(doc)
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	if err := s.ready(); err != nil {
		return err
	}
	uri := fsys.Normalize(params.TextDocument.URI)
	if !s.manager.IsOpen(uri) {
		return nil
	}
	doc, err := s.manager.ApplyChanges(uri, params.TextDocument.Version, params.ContentChanges)
	if err != nil {
		return err
	}
	return s.update(doc)
}

func (s *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	if err := s.ready(); err != nil {
		return err
	}
	doc, ok := s.manager.GetDocument(fsys.Normalize(params.TextDocument.URI))
	if !ok {
		return nil
	}
	return s.update(doc)
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	if err := s.ready(); err != nil {
		return err
	}
	uri := fsys.Normalize(params.TextDocument.URI)
	if !s.manager.IsOpen(uri) {
		return nil
	}
	s.manager.Release(uri)
	// The file on disk is authoritative again.
	err := s.scheduler.Do("close "+uri, func() error {
		if !s.fs.Exists(uri) {
			if _, ok := s.store.Get(uri); ok {
				return s.workspace.Remove(uri)
			}
			return nil
		}
		_, err := s.workspace.Load(s.ctx, uri)
		return err
	})
	s.publishDiagnostics(uri, []protocol.Diagnostic{})
	s.diagnoseDependents(uri)
	return err
}

// update stores the editor state of doc and publishes diagnostics for it
// and for the open documents that depend on it.
func (s *Server) update(doc manager.Document) error {
	err := s.scheduler.Do("update "+doc.URI, func() error {
		record, err := s.workspace.Update(s.ctx, doc.URI, doc.Text, doc.Version)
		if err != nil || record == nil {
			return err
		}
		s.workspace.Follow(s.ctx, record)
		return nil
	})
	if err != nil {
		return err
	}
	s.diagnose(doc.URI)
	s.diagnoseDependents(doc.URI)
	return nil
}

// diagnose publishes the diagnostics of an open document unless it
// changed while they were computed.
func (s *Server) diagnose(uri string) {
	doc, ok := s.manager.GetDocument(uri)
	if !ok {
		return
	}
	params, ok := s.workspace.Diagnose(uri, doc.Version, s.features)
	if !ok {
		return
	}
	s.notifyClient("textDocument/publishDiagnostics", params)
}

func (s *Server) diagnoseDependents(uri string) {
	for _, dep := range s.store.Dependents(uri) {
		if dep != uri && s.manager.IsOpen(dep) {
			s.diagnose(dep)
		}
	}
}

func (s *Server) diagnoseOpen() {
	for _, uri := range s.manager.URIs() {
		s.diagnose(uri)
	}
}

func (s *Server) publishDiagnostics(uri string, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	s.notifyClient("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func (s *Server) notifyClient(method string, params any) {
	if s.notify != nil {
		s.notify(method, params)
	}
}
