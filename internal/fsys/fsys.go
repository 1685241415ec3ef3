// Package fsys is the file-system collaborator of the language server.
// Everything is addressed by file:// URI.
package fsys

import (
	"errors"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

var ErrNotExist = fs.ErrNotExist

type FileType int

const (
	Unknown FileType = iota
	File
	Directory
	SymbolicLink
)

type DirEntry struct {
	Name string
	Type FileType
}

type FileStat struct {
	Type  FileType
	Size  int64
	Mtime time.Time
	Ctime time.Time
}

// FS is what the scanner and the module resolution need from a file system.
type FS interface {
	Exists(uri string) bool
	ReadFile(uri string) (string, error)
	ReadDirectory(uri string) ([]DirEntry, error)
	// FindFiles lists files below rootURI matching any include glob and no
	// exclude glob. Globs are matched against the slash separated path
	// relative to the root.
	FindFiles(rootURI string, include, exclude []string) ([]string, error)
	Stat(uri string) (FileStat, error)
	RealPath(uri string) (string, error)
}

// URIToPath converts a file:// URI to a slash separated absolute path.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return strings.TrimPrefix(uri, "file://")
	}
	return u.Path
}

// PathToURI converts an absolute path to a file:// URI.
func PathToURI(p string) string {
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// Normalize re-encodes a URI so that differently escaped spellings of the
// same file compare equal.
func Normalize(uri string) string {
	if !strings.HasPrefix(uri, "file:") {
		return uri
	}
	return PathToURI(path.Clean(URIToPath(uri)))
}

// Join resolves rel against the directory URI base.
func Join(base string, rel ...string) string {
	return PathToURI(path.Join(append([]string{URIToPath(base)}, rel...)...))
}

// Dir returns the URI of the directory containing uri.
func Dir(uri string) string {
	return PathToURI(path.Dir(URIToPath(uri)))
}

// Base returns the last element of the path of uri.
func Base(uri string) string {
	return path.Base(URIToPath(uri))
}

// Excluded reports whether rel matches one of the globs.
func Excluded(rel string, exclude []string) bool {
	for _, pattern := range exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// excludedDir reports whether everything below the directory rel is excluded.
func excludedDir(rel string, exclude []string) bool {
	return rel != "." && Excluded(rel+"/_", exclude)
}

func included(rel string, include []string) bool {
	for _, pattern := range include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// findFiles walks fsys from the slash separated directory root.
func findFiles(fsys fs.FS, root string, include, exclude []string) ([]string, error) {
	var out []string
	err := fs.WalkDir(fsys, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			if name == root {
				return err
			}
			return nil
		}
		rel := name
		if root != "." {
			rel = strings.TrimPrefix(strings.TrimPrefix(name, root), "/")
		}
		if rel == "" {
			rel = "."
		}
		if d.IsDir() {
			if excludedDir(rel, exclude) {
				return fs.SkipDir
			}
			return nil
		}
		if included(rel, include) && !Excluded(rel, exclude) {
			out = append(out, PathToURI("/"+name))
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	sort.Strings(out)
	return out, err
}

func fileType(mode fs.FileMode) FileType {
	switch {
	case mode&fs.ModeSymlink != 0:
		return SymbolicLink
	case mode.IsDir():
		return Directory
	case mode.IsRegular():
		return File
	}
	return Unknown
}
