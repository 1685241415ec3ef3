package server

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/wkillerud/some-sass-sub003/internal/fsys"
)

func getXDGStateHome(appName string) (string, error) {
	xdgStateHome := os.Getenv("XDG_STATE_HOME")
	if xdgStateHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		xdgStateHome = filepath.Join(homeDir, ".local", "state")
	}

	appStateDir := filepath.Join(xdgStateHome, appName)
	if err := os.MkdirAll(appStateDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return appStateDir, nil
}

// databasePath places a bare database file name in a per-workspace
// directory below the XDG state home. In-memory, absolute and file: DSNs
// are used as given.
func databasePath(root, dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || filepath.IsAbs(dsn) {
		return dsn
	}
	base, err := getXDGStateHome(Name)
	if err != nil {
		log.Warningf("%s, keeping symbols in memory", err)
		return ":memory:"
	}
	dir := filepath.Join(base, url.PathEscape(fsys.URIToPath(root)))
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Warningf("failed to create state directory: %s, keeping symbols in memory", err)
		return ":memory:"
	}
	return filepath.Join(dir, dsn)
}
