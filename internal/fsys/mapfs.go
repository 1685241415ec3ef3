package fsys

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"testing/fstest"
	"time"
)

// MapFS is an in-memory FS. Paths may be given as absolute paths or as
// file:// URIs.
type MapFS struct {
	mu    sync.RWMutex
	files fstest.MapFS
	links map[string]string
}

// NewMapFS creates a MapFS holding files, keyed by path or URI.
func NewMapFS(files map[string]string) *MapFS {
	m := &MapFS{files: fstest.MapFS{}, links: map[string]string{}}
	for p, content := range files {
		m.WriteFile(p, content)
	}
	return m
}

func key(p string) string {
	if strings.HasPrefix(p, "file:") {
		p = URIToPath(p)
	}
	return strings.TrimPrefix(path.Clean(p), "/")
}

func (m *MapFS) WriteFile(p, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key(p)] = &fstest.MapFile{Data: []byte(content), Mode: 0o644, ModTime: time.Now()}
}

func (m *MapFS) Remove(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key(p))
	delete(m.links, key(p))
}

// Symlink makes link an alias of the existing file target.
func (m *MapFS) Symlink(link, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[key(target)]; ok {
		m.files[key(link)] = f
	}
	m.links[key(link)] = key(target)
}

func (m *MapFS) Exists(uri string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := fs.Stat(m.files, key(uri))
	return err == nil
}

func (m *MapFS) ReadFile(uri string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, err := fs.ReadFile(m.files, key(uri))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", uri, err)
	}
	return string(data), nil
}

func (m *MapFS) ReadDirectory(uri string) ([]DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name := key(uri)
	if name == "" {
		name = "."
	}
	entries, err := fs.ReadDir(m.files, name)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", uri, err)
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		t := fileType(e.Type())
		if _, ok := m.links[path.Join(name, e.Name())]; ok {
			t = SymbolicLink
		}
		out = append(out, DirEntry{Name: e.Name(), Type: t})
	}
	return out, nil
}

func (m *MapFS) FindFiles(rootURI string, include, exclude []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	root := key(rootURI)
	if root == "" {
		root = "."
	}
	files, err := findFiles(m.files, root, include, exclude)
	if err != nil {
		return nil, fmt.Errorf("find files in %s: %w", rootURI, err)
	}
	return files, nil
}

func (m *MapFS) Stat(uri string) (FileStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, err := fs.Stat(m.files, key(uri))
	if err != nil {
		return FileStat{}, fmt.Errorf("stat %s: %w", uri, err)
	}
	t := fileType(info.Mode())
	if _, ok := m.links[key(uri)]; ok {
		t = SymbolicLink
	}
	return FileStat{Type: t, Size: info.Size(), Mtime: info.ModTime(), Ctime: info.ModTime()}, nil
}

func (m *MapFS) RealPath(uri string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k := key(uri)
	if target, ok := m.links[k]; ok {
		k = target
	}
	if _, err := fs.Stat(m.files, k); err != nil {
		return "", fmt.Errorf("real path %s: %w", uri, err)
	}
	return PathToURI("/" + k), nil
}
