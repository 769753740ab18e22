// Package dbconfig resolves the base directory, catalog filename, and
// page size, optionally overridden by a TOML config file. This is the
// Go-native equivalent of the original's compiled-in config::config
// constants module: the same defaults, now user-overridable. The base
// directory and catalog filename are used by the rest of the engine; the
// page and table packages use the fixed page.Size, so a page_size
// override changes Config.PageSize only, not the on-disk page size.
package dbconfig

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/csbase/csbase/dberrors"
)

const (
	// DefaultBaseDir is "~/.csbase" before tilde expansion.
	DefaultBaseDir = "~/.csbase"
	// DefaultCatalogFile is the catalog's filename within the base directory.
	DefaultCatalogFile = "tables.def"
	// DefaultPageSize matches page.Size; duplicated here as a plain int
	// so this package has no import-time dependency on page.
	DefaultPageSize = 8192
)

// Config is the resolved, post-expansion configuration.
type Config struct {
	BaseDir     string `toml:"base_dir"`
	CatalogFile string `toml:"catalog_file"`
	PageSize    int    `toml:"page_size"`
}

// fileConfig is the TOML document shape; every field is optional.
type fileConfig struct {
	BaseDir     string `toml:"base_dir"`
	CatalogFile string `toml:"catalog_file"`
	PageSize    int    `toml:"page_size"`
}

// Default returns the spec's built-in defaults.
func Default() Config {
	return Config{
		BaseDir:     DefaultBaseDir,
		CatalogFile: DefaultCatalogFile,
		PageSize:    DefaultPageSize,
	}
}

// Load reads configPath (if non-empty and present) and overlays it onto
// Default(), then expands "~" in BaseDir against the user's home
// directory. Absence of configPath is not an error: it is treated as an
// empty override, matching the catalog's own "absence means empty"
// contract.
func Load(configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		var fc fileConfig
		_, err := toml.DecodeFile(configPath, &fc)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, dberrors.System("failed to read config file", err)
		}
		if err == nil {
			if fc.BaseDir != "" {
				cfg.BaseDir = fc.BaseDir
			}
			if fc.CatalogFile != "" {
				cfg.CatalogFile = fc.CatalogFile
			}
			if fc.PageSize != 0 {
				cfg.PageSize = fc.PageSize
			}
		}
	}

	expanded, err := expandHome(cfg.BaseDir)
	if err != nil {
		return Config{}, dberrors.System("failed to resolve base directory", err)
	}
	cfg.BaseDir = expanded
	return cfg, nil
}

// EnsureBaseDir creates the base directory (and parents) if it does not
// already exist. A SystemError here is fatal to process startup.
func (c Config) EnsureBaseDir() error {
	if err := os.MkdirAll(c.BaseDir, 0o755); err != nil {
		return dberrors.System("cannot create base directory", err)
	}
	return nil
}

// CatalogPath is the full path to the catalog file.
func (c Config) CatalogPath() string {
	return filepath.Join(c.BaseDir, c.CatalogFile)
}

// TableDataPath is the full path to table's data file.
func (c Config) TableDataPath(table string) string {
	return filepath.Join(c.BaseDir, table+"_data.csbase")
}

func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	if len(path) > 1 && path[1] == '/' {
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
