package manager

import (
	"fmt"
	"sort"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/sitteradapter"
)

// Document is the editor state of an open file.
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Text       string
}

// DocumentManager holds the text and version of each open URI. The editor
// owns these documents; the file on disk is ignored while one is open.
type DocumentManager struct {
	mu   sync.Mutex
	docs map[string]*Document
}

// NewDocumentManager creates an initialized DocumentManager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		docs: make(map[string]*Document),
	}
}

// Open records a document opened in the editor.
func (dm *DocumentManager) Open(item protocol.TextDocumentItem) Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	doc := &Document{URI: item.URI, LanguageID: item.LanguageID, Version: item.Version, Text: item.Text}
	dm.docs[item.URI] = doc
	return *doc
}

// GetDocument returns the current state of an open document.
func (dm *DocumentManager) GetDocument(uri string) (Document, bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	doc, ok := dm.docs[uri]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// IsOpen reports whether the editor owns uri.
func (dm *DocumentManager) IsOpen(uri string) bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	_, ok := dm.docs[uri]
	return ok
}

// ApplyChanges applies the content changes of a didChange notification in
// order and sets the new version. Changes are either
// TextDocumentContentChangeEvent or TextDocumentContentChangeEventWhole.
func (dm *DocumentManager) ApplyChanges(uri string, version int32, changes []any) (Document, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return Document{}, fmt.Errorf("no document for %s", uri)
	}
	text := doc.Text
	for _, change := range changes {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			text = sitteradapter.ApplyTextEdit(c, text)
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		default:
			return Document{}, fmt.Errorf("unsupported change %T for %s", change, uri)
		}
	}
	doc.Text = text
	doc.Version = version
	return *doc, nil
}

// Release forgets a closed document.
func (dm *DocumentManager) Release(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.docs, uri)
}

// URIs lists the open documents.
func (dm *DocumentManager) URIs() []string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	out := make([]string, 0, len(dm.docs))
	for uri := range dm.docs {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// CloseAll forgets every document.
func (dm *DocumentManager) CloseAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs = make(map[string]*Document)
}
