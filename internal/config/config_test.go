package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/me/quill/internal/store"
	"github.com/me/quill/pkg/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server != "http://localhost:8080/api" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.Credentials.Backend != store.KindFile {
		t.Errorf("Backend = %q", cfg.Credentials.Backend)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.UI.Addr != "127.0.0.1:3000" {
		t.Errorf("UI.Addr = %q, want loopback", cfg.UI.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvCredentialsBackend, "")
	t.Setenv(EnvCredentialsPath, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != Default().Server {
		t.Errorf("Server = %q", cfg.Server)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvCredentialsBackend, "")
	t.Setenv(EnvCredentialsPath, "")

	path := writeConfig(t, `
server: https://blog.example.com/api
timeout: 5s
credentials:
  backend: sqlite
  path: /tmp/quill-creds
log:
  level: debug
  format: json
ui:
  addr: 127.0.0.1:4000
routes:
  /dashboard: [ADMIN]
  /reports: [author, ADMIN]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "https://blog.example.com/api" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.Credentials.Backend != store.KindSQLite || cfg.Credentials.Path != "/tmp/quill-creds" {
		t.Errorf("Credentials = %+v", cfg.Credentials)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.UI.Addr != "127.0.0.1:4000" {
		t.Errorf("UI.Addr = %q", cfg.UI.Addr)
	}

	routes := cfg.RoutePolicy()
	if got := routes["/dashboard"]; !got.Has(model.RoleAdmin) || got.Has(model.RoleAuthor) {
		t.Errorf("/dashboard = %v", got)
	}
	if got := routes["/reports"]; !got.Has(model.RoleAuthor) {
		t.Errorf("/reports = %v", got)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvCredentialsBackend, "")
	t.Setenv(EnvCredentialsPath, "")

	cfg, err := Load(writeConfig(t, "log:\n  level: warn\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" || cfg.Server != Default().Server {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvServer, "http://env.example.com/api")
	t.Setenv(EnvCredentialsBackend, "MEMORY")
	t.Setenv(EnvCredentialsPath, dir)

	cfg, err := Load(writeConfig(t, "server: http://file.example.com/api\ncredentials:\n  backend: sqlite\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "http://env.example.com/api" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.Credentials.Backend != store.KindMemory {
		t.Errorf("Backend = %q", cfg.Credentials.Backend)
	}
	if cfg.Credentials.Path != dir {
		t.Errorf("Path = %q", cfg.Credentials.Path)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvCredentialsBackend, "")
	t.Setenv(EnvCredentialsPath, "")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "server: [", "parse config"},
		{"unknown backend", "credentials:\n  backend: redis\n", "unknown credentials backend"},
		{"unknown role", "routes:\n  /x: [ROOT]\n", "parse config"},
		{"relative route", "routes:\n  admin: [ADMIN]\n", "must start with /"},
		{"negative timeout", "timeout: -1s\n", "negative timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want %q", err, tt.want)
			}
		})
	}
}
