package server

import (
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/references"
)

// offset converts pos into a byte offset in the stored record of uri.
func (s *Server) offset(uri string, pos protocol.Position) (int, bool) {
	doc, ok := s.store.Get(uri)
	if !ok || doc.Tree == nil {
		return 0, false
	}
	return doc.Tree.Offset(pos), true
}

func (s *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.features.Completion(fsys.Normalize(params.TextDocument.URI), params.Position), nil
}

func (s *Server) textDocumentHover(
	context *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.features.Hover(fsys.Normalize(params.TextDocument.URI), params.Position), nil
}

func (s *Server) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	loc := s.features.Definition(fsys.Normalize(params.TextDocument.URI), params.Position)
	if loc == nil {
		return nil, nil
	}
	return *loc, nil
}

func (s *Server) textDocumentReferences(
	context *glsp.Context,
	params *protocol.ReferenceParams,
) ([]protocol.Location, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	uri := fsys.Normalize(params.TextDocument.URI)
	offset, ok := s.offset(uri, params.Position)
	if !ok {
		return nil, nil
	}
	return s.refs.FindReferences(uri, offset, params.Context.IncludeDeclaration), nil
}

func (s *Server) textDocumentDocumentSymbol(
	context *glsp.Context,
	params *protocol.DocumentSymbolParams,
) (any, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.features.DocumentSymbols(fsys.Normalize(params.TextDocument.URI)), nil
}

func (s *Server) textDocumentDocumentLink(
	context *glsp.Context,
	params *protocol.DocumentLinkParams,
) ([]protocol.DocumentLink, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.features.DocumentLinks(fsys.Normalize(params.TextDocument.URI)), nil
}

func (s *Server) workspaceSymbol(
	context *glsp.Context,
	params *protocol.WorkspaceSymbolParams,
) ([]protocol.SymbolInformation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.features.WorkspaceSymbols(params.Query), nil
}

func (s *Server) textDocumentPrepareRename(
	context *glsp.Context,
	params *protocol.PrepareRenameParams,
) (any, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	uri := fsys.Normalize(params.TextDocument.URI)
	offset, ok := s.offset(uri, params.Position)
	if !ok {
		return nil, nil
	}
	r, placeholder, ok := s.refs.PrepareRename(uri, offset)
	if !ok {
		return nil, nil
	}
	return protocol.RangeWithPlaceholder{Range: r, Placeholder: placeholder}, nil
}

func (s *Server) textDocumentRename(
	context *glsp.Context,
	params *protocol.RenameParams,
) (*protocol.WorkspaceEdit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	uri := fsys.Normalize(params.TextDocument.URI)
	offset, ok := s.offset(uri, params.Position)
	if !ok {
		return nil, nil
	}
	edit, err := s.refs.Rename(uri, offset, params.NewName)
	if errors.Is(err, references.ErrNotRenamable) {
		return nil, nil
	}
	return edit, err
}
