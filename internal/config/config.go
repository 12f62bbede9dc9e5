// Package config loads the application configuration from YAML or TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/offline/internal/core/controller"
	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/offline"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Log        LogConfig        `yaml:"log" toml:"log"`
	Catalog    CatalogConfig    `yaml:"catalog" toml:"catalog"`
	Session    offline.Options  `yaml:"session" toml:"session"`
	Controller ControllerConfig `yaml:"controller" toml:"controller"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

type CatalogConfig struct {
	// Dir holds catalog.yaml and the bundles it references.
	Dir string `yaml:"dir" toml:"dir"`
	// CacheDir keeps downloaded bundles across runs. Empty caches in memory.
	CacheDir string `yaml:"cache_dir" toml:"cache_dir"`
}

type ControllerConfig struct {
	// Parts are rig part names, e.g. "base" or "left_hand".
	Parts []string `yaml:"parts" toml:"parts"`
}

func Default() Config {
	return Config{
		Log:        LogConfig{Level: "info"},
		Catalog:    CatalogConfig{Dir: "worlds"},
		Controller: ControllerConfig{Parts: []string{"base", "head"}},
	}
}

// Load reads path, applies defaults to the fields it leaves out and validates
// the result. Files ending in .toml are decoded as TOML, anything else as YAML.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = decodeYAML(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, out *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error", "silent", "off":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	if strings.TrimSpace(c.Catalog.Dir) == "" {
		return fmt.Errorf("%w: catalog.dir is required", ErrInvalid)
	}
	if _, err := c.ControllerKeys(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("%w: session: %w", ErrInvalid, err)
	}
	return nil
}

// LogLevel is the configured level as understood by the logger.
func (c Config) LogLevel() log.Level {
	return log.ParseLevel(strings.ToLower(strings.TrimSpace(c.Log.Level)))
}

// ControllerKeys resolves the configured rig part names.
func (c Config) ControllerKeys() ([]uint16, error) {
	keys := make([]uint16, 0, len(c.Controller.Parts))
	for _, name := range c.Controller.Parts {
		key, ok := controller.RigKey(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("%w: unknown controller part %q", ErrInvalid, name)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
