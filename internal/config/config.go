package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the project configuration file looked up at the workspace
// root.
const FileName = ".scssls.toml"

var ErrInvalid = errors.New("config: invalid value")

type Diagnostics struct {
	Deprecation      bool `json:"deprecation"      toml:"deprecation"`
	UnknownNamespace bool `json:"unknownNamespace" toml:"unknown_namespace"`
	UnresolvedModule bool `json:"unresolvedModule" toml:"unresolved_module"`
}

type Config struct {
	ScanImportedFiles    bool        `json:"scanImportedFiles"    toml:"scan_imported_files"`
	ScannerDepth         int         `json:"scannerDepth"         toml:"scanner_depth"`
	ScannerExclude       []string    `json:"scannerExclude"       toml:"scanner_exclude"`
	LoadPaths            []string    `json:"loadPaths"            toml:"load_paths"`
	SuggestFromUseOnly   bool        `json:"suggestFromUseOnly"   toml:"suggest_from_use_only"`
	UseFileWatcher       bool        `json:"useFileWatcher"       toml:"use_file_watcher"`
	SymbolDatabase       string      `json:"symbolDatabase"       toml:"symbol_database"`
	WorkspaceSymbolLimit int         `json:"workspaceSymbolLimit" toml:"workspace_symbol_limit"`
	Diagnostics          Diagnostics `json:"diagnostics"          toml:"diagnostics"`
	Root                 string      `json:"root"                 toml:"-"` // only for dump!
}

// Include lists the globs of files the workspace scan picks up.
var Include = []string{"**/*.scss", "**/*.vue", "**/*.svelte", "**/*.astro", "**/*.css"}

var defaultConfig = Config{
	ScanImportedFiles:    true,
	ScannerDepth:         30,
	ScannerExclude:       []string{"**/.git/**", "**/node_modules/**", "**/bower_components/**"},
	SymbolDatabase:       ":memory:",
	WorkspaceSymbolLimit: 128,
	Diagnostics: Diagnostics{
		Deprecation:      true,
		UnknownNamespace: true,
		UnresolvedModule: true,
	},
	Root: ".",
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := defaultConfig
	cfg.ScannerExclude = append([]string(nil), defaultConfig.ScannerExclude...)
	return cfg
}

// Load overlays v, typically LSP initializationOptions or settings, on
// base. Only fields present in v overwrite.
func Load(base Config, v any) (Config, error) {
	cfg := base
	if v == nil {
		return cfg, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFromJSON reads JSON from r over the defaults.
func LoadFromJSON(r io.Reader) (Config, error) {
	cfg := Default()
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFromTOML reads a project configuration file from r over base.
func LoadFromTOML(base Config, r io.Reader) (Config, error) {
	cfg := base
	if err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", FileName, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports values the server cannot work with.
func (c Config) Validate() error {
	if c.ScannerDepth < 0 {
		return fmt.Errorf("%w: scannerDepth %d", ErrInvalid, c.ScannerDepth)
	}
	if c.WorkspaceSymbolLimit < 0 {
		return fmt.Errorf("%w: workspaceSymbolLimit %d", ErrInvalid, c.WorkspaceSymbolLimit)
	}
	if c.SymbolDatabase == "" {
		return fmt.Errorf("%w: empty symbolDatabase", ErrInvalid)
	}
	return nil
}
