// Package graph serves a live view of the module graph: documents as
// nodes, @use/@forward/@import edges as links. Clients connect over a
// WebSocket, receive the whole graph once and then incremental updates.
package graph

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tliron/commonlog"

	"github.com/wkillerud/some-sass-sub003/internal/cache"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

var log = commonlog.GetLogger("scssls.graph")

// GraphData holds the nodes and links of the graph.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node is a document. IDs are unique and stable for a URI.
type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	URI   string `json:"uri"`
	// Grayed marks link targets that have no record in the store.
	Grayed bool `json:"grayed"`
}

// Link is a directed edge between two nodes.
type Link struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// IncrementalMessage is sent over WebSocket to update clients.
type IncrementalMessage struct {
	Op    string     `json:"op"`              // "init", "add", "update", "deleteNode", "deleteLink"
	Graph *GraphData `json:"graph,omitempty"` // used for "init"
	Node  *Node      `json:"node,omitempty"`  // for add/update/deleteNode
	Link  *Link      `json:"link,omitempty"`  // for add/deleteLink
}

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type Viewer struct {
	root string

	graphMu sync.Mutex
	ids     map[string]int
	nodes   map[int]*Node
	docs    map[int]bool
	links   map[Link]struct{}
	nextID  int

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool

	server *http.Server
	url    string
}

// New creates a viewer labeling documents relative to rootURI.
func New(rootURI string) *Viewer {
	return &Viewer{
		root:    rootURI,
		ids:     make(map[string]int),
		nodes:   make(map[int]*Node),
		docs:    make(map[int]bool),
		links:   make(map[Link]struct{}),
		clients: make(map[*websocket.Conn]bool),
	}
}

// Handler serves the page under /static/ and the socket under /ws.
func (v *Viewer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFiles)))
	mux.HandleFunc("/ws", v.handleWS)
	return mux
}

// Start listens on addr (":0" picks a free port) and returns the URL of
// the page. Later calls return the same URL.
func (v *Viewer) Start(addr string) (string, error) {
	if v.url != "" {
		return v.url, nil
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	v.server = &http.Server{Handler: v.Handler()}
	go func() {
		if err := v.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("graph server: %s", err)
		}
	}()
	v.url = "http://" + l.Addr().String() + "/static/"
	log.Infof("module graph at %s", v.url)
	return v.url, nil
}

// Close stops the server and disconnects all clients.
func (v *Viewer) Close() error {
	v.clientsMu.Lock()
	for conn := range v.clients {
		conn.Close()
		delete(v.clients, conn)
	}
	v.clientsMu.Unlock()
	if v.server == nil {
		return nil
	}
	return v.server.Close()
}

// Follow subscribes to store, adds what it already holds and applies
// events until ctx is done.
func (v *Viewer) Follow(ctx context.Context, store *cache.Store) error {
	events, err := store.Subscribe(ctx)
	if err != nil {
		return err
	}
	v.Seed(store.Values())
	go func() {
		for ev := range events {
			v.Apply(ev)
		}
	}()
	return nil
}

// Seed adds docs and their links.
func (v *Viewer) Seed(docs []*symbols.Document) {
	for _, doc := range docs {
		v.Apply(cache.Event{Type: cache.CreateDocument, Document: &cache.DocumentEvent{URI: doc.URI}})
		for _, l := range doc.Links(true) {
			if l.Target == "" || l.Builtin() {
				continue
			}
			v.Apply(cache.Event{Type: cache.CreateLink, Link: &cache.LinkEvent{Source: doc.URI, Target: l.Target}})
		}
	}
}

// Apply updates the graph for one store event and broadcasts the change.
func (v *Viewer) Apply(ev cache.Event) {
	var msgs []IncrementalMessage
	v.graphMu.Lock()
	switch ev.Type {
	case cache.CreateDocument, cache.UpdateDocument:
		n, created := v.node(ev.Document.URI)
		v.docs[n.ID] = true
		if created {
			msgs = append(msgs, IncrementalMessage{Op: "add", Node: ptr(*n)})
		} else if n.Grayed {
			n.Grayed = false
			msgs = append(msgs, IncrementalMessage{Op: "update", Node: ptr(*n)})
		}
	case cache.DeleteDocument:
		id, ok := v.ids[ev.Document.URI]
		if !ok {
			break
		}
		delete(v.docs, id)
		msgs = append(msgs, v.release(id)...)
	case cache.CreateLink:
		src, srcCreated := v.node(ev.Link.Source)
		tgt, tgtCreated := v.node(ev.Link.Target)
		if srcCreated {
			msgs = append(msgs, IncrementalMessage{Op: "add", Node: ptr(*src)})
		}
		if tgtCreated {
			msgs = append(msgs, IncrementalMessage{Op: "add", Node: ptr(*tgt)})
		}
		link := Link{Source: src.ID, Target: tgt.ID}
		if _, ok := v.links[link]; !ok {
			v.links[link] = struct{}{}
			msgs = append(msgs, IncrementalMessage{Op: "add", Link: &link})
		}
	case cache.DeleteLink:
		src, ok1 := v.ids[ev.Link.Source]
		tgt, ok2 := v.ids[ev.Link.Target]
		link := Link{Source: src, Target: tgt}
		if _, ok := v.links[link]; !ok1 || !ok2 || !ok {
			break
		}
		delete(v.links, link)
		msgs = append(msgs, IncrementalMessage{Op: "deleteLink", Link: &link})
		msgs = append(msgs, v.release(tgt)...)
	}
	v.graphMu.Unlock()

	for _, msg := range msgs {
		if err := v.broadcastMessage(msg); err != nil {
			log.Errorf("broadcast %s: %s", msg.Op, err)
		}
	}
}

// node returns the node for uri, creating a grayed one. Callers hold
// graphMu.
func (v *Viewer) node(uri string) (*Node, bool) {
	if id, ok := v.ids[uri]; ok {
		return v.nodes[id], false
	}
	v.nextID++
	n := &Node{ID: v.nextID, Label: v.label(uri), URI: uri, Grayed: true}
	v.ids[uri] = n.ID
	v.nodes[n.ID] = n
	return n, true
}

// release grays a node without a document, and drops it once nothing
// links to it either. Callers hold graphMu.
func (v *Viewer) release(id int) []IncrementalMessage {
	n, ok := v.nodes[id]
	if !ok || v.docs[id] {
		return nil
	}
	for l := range v.links {
		if l.Target == id || l.Source == id {
			if n.Grayed {
				return nil
			}
			n.Grayed = true
			return []IncrementalMessage{{Op: "update", Node: ptr(*n)}}
		}
	}
	delete(v.nodes, id)
	delete(v.ids, n.URI)
	return []IncrementalMessage{{Op: "deleteNode", Node: &Node{ID: id}}}
}

func (v *Viewer) label(uri string) string {
	p := fsys.URIToPath(uri)
	if rel, ok := strings.CutPrefix(p, fsys.URIToPath(v.root)+"/"); ok {
		return rel
	}
	return p
}

// GetGraph returns a snapshot of the current graph ordered by ID.
func (v *Viewer) GetGraph() GraphData {
	v.graphMu.Lock()
	defer v.graphMu.Unlock()
	data := GraphData{Nodes: make([]Node, 0, len(v.nodes)), Links: make([]Link, 0, len(v.links))}
	for _, n := range v.nodes {
		data.Nodes = append(data.Nodes, *n)
	}
	for l := range v.links {
		data.Links = append(data.Links, l)
	}
	sort.Slice(data.Nodes, func(i, j int) bool { return data.Nodes[i].ID < data.Nodes[j].ID })
	sort.Slice(data.Links, func(i, j int) bool {
		if data.Links[i].Source != data.Links[j].Source {
			return data.Links[i].Source < data.Links[j].Source
		}
		return data.Links[i].Target < data.Links[j].Target
	})
	return data
}

// broadcastMessage marshals and sends a message to all clients.
func (v *Viewer) broadcastMessage(msg IncrementalMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	v.clientsMu.Lock()
	defer v.clientsMu.Unlock()
	for conn := range v.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warningf("broadcast: %s", err)
			conn.Close()
			delete(v.clients, conn)
		}
	}
	return nil
}

// handleWS upgrades HTTP connections and sends the initial graph state.
func (v *Viewer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warningf("upgrade: %s", err)
		return
	}
	defer func() {
		v.clientsMu.Lock()
		delete(v.clients, conn)
		v.clientsMu.Unlock()
		conn.Close()
	}()

	// Registered under the lock so no update slips between init and the
	// first broadcast.
	v.clientsMu.Lock()
	state := v.GetGraph()
	data, err := json.Marshal(IncrementalMessage{Op: "init", Graph: &state})
	if err == nil {
		err = conn.WriteMessage(websocket.TextMessage, data)
	}
	if err != nil {
		v.clientsMu.Unlock()
		log.Warningf("init: %s", err)
		return
	}
	v.clients[conn] = true
	v.clientsMu.Unlock()

	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
