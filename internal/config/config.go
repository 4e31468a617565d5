// Package config loads the optional kalkulator.toml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFile is looked up in the working directory when no --config flag
// is given.
const DefaultFile = "kalkulator.toml"

// Config holds project defaults. Command-line flags override every field.
// Relative paths are resolved against the directory of the file.
type Config struct {
	// Definitions is the directory of workcell .cue files.
	Definitions string `toml:"definitions"`

	// Costs is the filled cost-table workbook.
	Costs string `toml:"costs"`

	// Catalog is the material catalog workbook.
	Catalog string `toml:"catalog"`

	// PlaceholderRows is the number of blank rows per table block in
	// generated templates. Zero keeps the encoder default.
	PlaceholderRows int `toml:"placeholder_rows"`
}

// Load reads the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parsing %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if cfg.PlaceholderRows < 0 {
		return nil, fmt.Errorf("parsing %s: placeholder_rows must not be negative", path)
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&cfg.Definitions, &cfg.Costs, &cfg.Catalog} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return &cfg, nil
}

// LoadOptional reads path when it is set, which makes a missing file an
// error. Otherwise it reads DefaultFile from dir if present and returns an
// empty Config if not.
func LoadOptional(path, dir string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := Load(filepath.Join(dir, DefaultFile))
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}
