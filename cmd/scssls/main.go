package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/urfave/cli/v2"

	"github.com/wkillerud/some-sass-sub003/internal/cache"
	"github.com/wkillerud/some-sass-sub003/internal/config"
	"github.com/wkillerud/some-sass-sub003/internal/embedded"
	"github.com/wkillerud/some-sass-sub003/internal/fsys"
	"github.com/wkillerud/some-sass-sub003/internal/server"
	"github.com/wkillerud/some-sass-sub003/internal/workspace"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    server.Name,
		Usage:   "SCSS language server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "logfile",
				Usage: "write logs to `FILE` instead of stderr",
			},
			&cli.IntFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Value:   1,
				Usage:   "log verbosity, 0 disables logging",
			},
		},
		Before: func(c *cli.Context) error {
			var path *string
			if f := c.String("logfile"); f != "" {
				path = &f
			}
			commonlog.Configure(c.Int("verbose"), path)
			return nil
		},
		// Editors start the server without arguments.
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "speak the language server protocol on stdio",
				Action: serve,
			},
			{
				Name:      "dump",
				Usage:     "index a directory and print the documents as JSON",
				ArgsUsage: "[DIR]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "TOML or JSON settings `FILE`, defaults to DIR/" + config.FileName,
					},
				},
				Action: func(c *cli.Context) error {
					return dump(c, c.Args().First(), c.String("config"), c.App.Writer)
				},
			},
		},
	}
}

func serve(c *cli.Context) error {
	runtime.GOMAXPROCS(4)
	s, err := server.NewServer(Version)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return s.RunStdio()
}

func dump(c *cli.Context, dir, configPath string, out io.Writer) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		// A JSON config names its own root.
		if dir == "" && filepath.Ext(configPath) == ".json" {
			dir = filepath.Join(filepath.Dir(configPath), cfg.Root)
		}
	}
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", dir, err)
	}
	if configPath == "" {
		if loaded, err := loadConfig(filepath.Join(abs, config.FileName)); err == nil {
			cfg = loaded
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	emb, err := embedded.NewExtractor(runtime.GOMAXPROCS(0))
	if err != nil {
		return err
	}
	defer emb.Close()

	store := cache.NewStore()
	ws := workspace.New(fsys.NewOS(), fsys.PathToURI(abs), store, nil, emb, cfg)
	if err := ws.Scan(c.Context); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(store.Values())
}

// loadConfig reads a TOML file, or a JSON one when path ends in .json.
func loadConfig(path string) (config.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return config.Config{}, err
	}
	defer f.Close()
	if filepath.Ext(path) == ".json" {
		return config.LoadFromJSON(f)
	}
	return config.LoadFromTOML(config.Default(), f)
}
