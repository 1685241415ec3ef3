package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

// Store maps document URIs to their extracted records. Records are never
// mutated after Set; an update swaps in a new record, so readers holding a
// record keep a consistent snapshot.
type Store struct {
	mu          sync.RWMutex
	docs        map[string]*symbols.Document
	backlinks   map[string]map[string]struct{}
	subscribers map[int]chan Event
	nextSubID   int
}

func NewStore() *Store {
	return &Store{
		docs:        make(map[string]*symbols.Document),
		backlinks:   make(map[string]map[string]struct{}),
		subscribers: make(map[int]chan Event),
	}
}

// Set inserts or replaces the record for uri.
func (s *Store) Set(uri string, doc *symbols.Document) error {
	if doc == nil || doc.URI != uri {
		return fmt.Errorf("%w: %s", ErrURIMismatch, uri)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.docs[uri]
	s.docs[uri] = doc
	if exists {
		s.emit(Event{Type: UpdateDocument, Document: &DocumentEvent{URI: uri, Version: doc.Version}})
	} else {
		s.emit(Event{Type: CreateDocument, Document: &DocumentEvent{URI: uri, Version: doc.Version}})
	}

	removed, added := diff(old, doc)
	for _, tgt := range removed {
		s.unlink(uri, tgt)
	}
	for _, tgt := range added {
		if s.backlinks[tgt] == nil {
			s.backlinks[tgt] = make(map[string]struct{})
		}
		s.backlinks[tgt][uri] = struct{}{}
		s.emit(Event{Type: CreateLink, Link: &LinkEvent{Source: uri, Target: tgt}})
	}
	return nil
}

func (s *Store) unlink(source, target string) {
	if bl := s.backlinks[target]; bl != nil {
		delete(bl, source)
		if len(bl) == 0 {
			delete(s.backlinks, target)
		}
	}
	s.emit(Event{Type: DeleteLink, Link: &LinkEvent{Source: source, Target: target}})
}

// Get returns the record for uri.
func (s *Store) Get(uri string) (*symbols.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

// Delete removes the record for uri.
func (s *Store) Delete(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		return ErrDocumentNotFound
	}
	for _, tgt := range targets(doc) {
		s.unlink(uri, tgt)
	}
	delete(s.docs, uri)
	s.emit(Event{Type: DeleteDocument, Document: &DocumentEvent{URI: uri, Version: doc.Version}})
	return nil
}

// Values returns a snapshot of all records ordered by URI.
func (s *Store) Values() []*symbols.Document {
	s.mu.RLock()
	out := make([]*symbols.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// URIs returns the keys of the store ordered.
func (s *Store) URIs() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		out = append(out, uri)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Clear removes every record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uri, doc := range s.docs {
		for _, tgt := range targets(doc) {
			s.emit(Event{Type: DeleteLink, Link: &LinkEvent{Source: uri, Target: tgt}})
		}
		s.emit(Event{Type: DeleteDocument, Document: &DocumentEvent{URI: uri, Version: doc.Version}})
	}
	s.docs = make(map[string]*symbols.Document)
	s.backlinks = make(map[string]map[string]struct{})
}

// Dependents returns the URIs of documents linking to uri.
func (s *Store) Dependents(uri string) []string {
	s.mu.RLock()
	bl := s.backlinks[uri]
	out := make([]string, 0, len(bl))
	for src := range bl {
		out = append(out, src)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Subscribe returns a channel of change events until ctx is canceled.
// Events are dropped for subscribers that do not keep up.
func (s *Store) Subscribe(ctx context.Context) (<-chan Event, error) {
	s.mu.Lock()
	ch := make(chan Event, 64)
	sid := s.nextSubID
	s.nextSubID++
	s.subscribers[sid] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, sid)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

// emit sends event to all subscribers non-blocking. Callers hold s.mu.
func (s *Store) emit(event Event) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
