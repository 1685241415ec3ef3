// Package cache provides the in-memory document store shared by every
// language feature, with backlinks and live update events.
package cache

import (
	"errors"
)

type EventType int

const (
	CreateDocument EventType = iota // A new document was added.
	UpdateDocument                  // An existing document was replaced.
	DeleteDocument                  // A document was removed entirely.
	CreateLink                      // A new module link was added.
	DeleteLink                      // A module link was removed.
)

func (t EventType) String() string {
	switch t {
	case CreateDocument:
		return "createDocument"
	case UpdateDocument:
		return "updateDocument"
	case DeleteDocument:
		return "deleteDocument"
	case CreateLink:
		return "createLink"
	case DeleteLink:
		return "deleteLink"
	}
	return "unknown"
}

type DocumentEvent struct {
	URI     string `json:"uri"`
	Version int32  `json:"version"`
}

// LinkEvent carries only topology for event subscribers. A link whose
// metadata changes but whose target stays the same emits nothing.
type LinkEvent struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Event describes a single change in the store.
type Event struct {
	Type     EventType
	Document *DocumentEvent // Populated for document events.
	Link     *LinkEvent     // Populated for link events.
}

var (
	ErrURIMismatch      = errors.New("cache: document uri does not match key")
	ErrDocumentNotFound = errors.New("cache: document not found")
)
