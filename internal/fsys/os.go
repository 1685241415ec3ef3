package fsys

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// OS is the FS backed by the real file system.
type OS struct {
	root fs.FS
}

func NewOS() *OS {
	return &OS{root: os.DirFS("/")}
}

func (o *OS) Exists(uri string) bool {
	_, err := os.Stat(filepath.FromSlash(URIToPath(uri)))
	return err == nil
}

func (o *OS) ReadFile(uri string) (string, error) {
	data, err := os.ReadFile(filepath.FromSlash(URIToPath(uri)))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", uri, err)
	}
	return string(data), nil
}

func (o *OS) ReadDirectory(uri string) ([]DirEntry, error) {
	entries, err := os.ReadDir(filepath.FromSlash(URIToPath(uri)))
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", uri, err)
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirEntry{Name: e.Name(), Type: fileType(e.Type())})
	}
	return out, nil
}

func (o *OS) FindFiles(rootURI string, include, exclude []string) ([]string, error) {
	root := strings.TrimPrefix(path.Clean(URIToPath(rootURI)), "/")
	if root == "" {
		root = "."
	}
	files, err := findFiles(o.root, root, include, exclude)
	if err != nil {
		return nil, fmt.Errorf("find files in %s: %w", rootURI, err)
	}
	return files, nil
}

func (o *OS) Stat(uri string) (FileStat, error) {
	info, err := os.Lstat(filepath.FromSlash(URIToPath(uri)))
	if err != nil {
		return FileStat{}, fmt.Errorf("stat %s: %w", uri, err)
	}
	// The portable FileInfo has no creation time.
	return FileStat{
		Type:  fileType(info.Mode()),
		Size:  info.Size(),
		Mtime: info.ModTime(),
		Ctime: info.ModTime(),
	}, nil
}

func (o *OS) RealPath(uri string) (string, error) {
	p, err := filepath.EvalSymlinks(filepath.FromSlash(URIToPath(uri)))
	if err != nil {
		return "", fmt.Errorf("real path %s: %w", uri, err)
	}
	return PathToURI(p), nil
}
