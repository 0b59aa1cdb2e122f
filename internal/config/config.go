// Package config loads quill settings from defaults, an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/me/quill/internal/store"
	"github.com/me/quill/pkg/model"
)

// Environment variables that override file settings.
const (
	EnvServer             = "QUILL_SERVER"
	EnvCredentialsBackend = "QUILL_CREDENTIALS_BACKEND"
	EnvCredentialsPath    = "QUILL_CREDENTIALS_PATH"
)

// FileName is the config file name inside the quill directory.
const FileName = "config.yaml"

// Config holds client and console settings.
type Config struct {
	Server  string        `yaml:"server"`
	Timeout time.Duration `yaml:"timeout"`

	Credentials CredentialsConfig `yaml:"credentials"`
	Log         LogConfig         `yaml:"log"`
	UI          UIConfig          `yaml:"ui"`

	// Routes replaces or adds entries of the default access policy.
	Routes map[string][]model.Role `yaml:"routes"`
}

// CredentialsConfig selects the credential store backend.
type CredentialsConfig struct {
	Backend string `yaml:"backend"` // file, sqlite or memory
	Path    string `yaml:"path"`    // directory holding the store
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// UIConfig configures the web console.
type UIConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server:  "http://localhost:8080/api",
		Timeout: 30 * time.Second,
		Credentials: CredentialsConfig{
			Backend: store.KindFile,
			Path:    defaultDir(),
		},
		Log: LogConfig{Level: "info", Format: "text"},
		UI:  UIConfig{Addr: "127.0.0.1:3000"},
	}
}

// DefaultPath returns ~/.quill/config.yaml.
func DefaultPath() string {
	return filepath.Join(defaultDir(), FileName)
}

// defaultDir falls back to a relative .quill when there is no home directory.
func defaultDir() string {
	dir, err := store.DefaultDir()
	if err != nil {
		return ".quill"
	}
	return dir
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvServer); ok && v != "" {
		c.Server = v
	}
	if v, ok := lookup(EnvCredentialsBackend); ok && v != "" {
		c.Credentials.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvCredentialsPath); ok && v != "" {
		c.Credentials.Path = v
	}
}

// Validate checks the settings that would otherwise fail late.
func (c Config) Validate() error {
	if c.Server == "" {
		return errors.New("config: server is required")
	}
	switch c.Credentials.Backend {
	case store.KindFile, store.KindSQLite:
		if c.Credentials.Path == "" {
			return errors.New("config: credentials path is required")
		}
	case store.KindMemory:
	default:
		return fmt.Errorf("config: unknown credentials backend %q", c.Credentials.Backend)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: negative timeout %s", c.Timeout)
	}
	for route := range c.Routes {
		if !strings.HasPrefix(route, "/") {
			return fmt.Errorf("config: route %q must start with /", route)
		}
	}
	return nil
}

// RoutePolicy returns the route overrides as role sets.
func (c Config) RoutePolicy() map[string]model.RoleSet {
	out := make(map[string]model.RoleSet, len(c.Routes))
	for route, roles := range c.Routes {
		out[route] = model.Roles(roles...)
	}
	return out
}
