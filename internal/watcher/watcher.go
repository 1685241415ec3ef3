// Package watcher reports changes to stylesheets made outside the editor.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"

	"github.com/wkillerud/some-sass-sub003/internal/fsys"
)

var log = commonlog.GetLogger("scssls.watcher")

type Op int

const (
	Changed Op = iota
	Removed
)

func (o Op) String() string {
	if o == Removed {
		return "removed"
	}
	return "changed"
}

type Event struct {
	URI string
	Op  Op
}

// Watcher batches file events below a root directory and hands them to a
// callback once no new event arrived for the debounce interval.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	include  []string
	exclude  []string
	debounce time.Duration
	onEvents func([]Event)

	pending map[string]Op
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func New(rootURI string, include, exclude []string, debounce time.Duration, onEvents func([]Event)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		root:     filepath.FromSlash(fsys.URIToPath(rootURI)),
		include:  include,
		exclude:  exclude,
		debounce: debounce,
		onEvents: onEvents,
		pending:  make(map[string]Op),
		done:     make(chan struct{}),
	}, nil
}

// Start adds a watch for every directory that is not excluded and starts
// delivering events.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == w.root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.excludedDir(p) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			log.Warningf("watch %s: %s", p, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.wg.Add(1)
	go w.loop()
	log.Infof("watching %s", w.root)
	return nil
}

func (w *Watcher) rel(p string) (string, bool) {
	rel, err := filepath.Rel(w.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) excludedDir(p string) bool {
	rel, ok := w.rel(p)
	if !ok {
		return true
	}
	return rel != "." && fsys.Excluded(rel+"/_", w.exclude)
}

func (w *Watcher) wanted(p string) bool {
	rel, ok := w.rel(p)
	if !ok || fsys.Excluded(rel, w.exclude) {
		return false
	}
	for _, pattern := range w.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.handle(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Errorf("watch error: %s", err)
		case <-timer.C:
			w.flush()
		}
	}
}

// handle records event and reports whether it is pending delivery.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if !w.excludedDir(event.Name) {
				if err := w.fsw.Add(event.Name); err != nil {
					log.Warningf("watch %s: %s", event.Name, err)
				}
			}
			return false
		}
	}
	if !w.wanted(event.Name) {
		return false
	}
	uri := fsys.PathToURI(event.Name)
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.pending[uri] = Removed
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.pending[uri] = Changed
	default:
		return false
	}
	return true
}

func (w *Watcher) flush() {
	if len(w.pending) == 0 {
		return
	}
	events := make([]Event, 0, len(w.pending))
	for uri, op := range w.pending {
		events = append(events, Event{URI: uri, Op: op})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].URI < events[j].URI })
	w.pending = make(map[string]Op)
	log.Debugf("delivering %d file events", len(events))
	w.onEvents(events)
}

// Close stops the watcher. Pending events are dropped.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}
