package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/erazemk/compendium/internal/db"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Database.Driver != db.DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("expected info/text logging, got %+v", cfg.Log)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compendium.yaml")
	data := `
server:
  addr: ":9090"
  allowedOrigins: ["https://compendium-lab.be"]
database:
  driver: postgres
  dsn: postgres://localhost/compendium
admin:
  secret: from-the-file-123
notify:
  to: [ops@example.be]
export:
  endpoint: localhost:9000
  bucket: catalog
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" || len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("unexpected server section: %+v", cfg.Server)
	}
	if cfg.Database.Driver != db.DriverPostgres {
		t.Errorf("expected postgres, got %q", cfg.Database.Driver)
	}
	if cfg.Notify.Token != "BELGIQUE" {
		t.Errorf("expected default token to survive, got %q", cfg.Notify.Token)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log section: %+v", cfg.Log)
	}
	if !cfg.ExportEnabled() {
		t.Error("expected export to be enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("server: [unclosed"), 0o600)

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.Admin.Secret = "from-the-file-123"
	env := map[string]string{
		"COMPENDIUM_ADMIN_SECRET":   "from-the-environment",
		"COMPENDIUM_DATABASE_DSN":   "/var/lib/compendium.db",
		"COMPENDIUM_RESEND_API_KEY": "",
		"COMPENDIUM_LOG_FORMAT":     "json",
	}
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	if cfg.Admin.Secret != "from-the-environment" {
		t.Errorf("expected environment secret to win, got %q", cfg.Admin.Secret)
	}
	if cfg.Database.DSN != "/var/lib/compendium.db" {
		t.Errorf("expected environment dsn, got %q", cfg.Database.DSN)
	}
	if cfg.Notify.ResendAPIKey != "" {
		t.Errorf("expected empty variable to be ignored, got %q", cfg.Notify.ResendAPIKey)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected environment log format, got %q", cfg.Log.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"short secret", func(c *Config) { c.Admin.Secret = "a" }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"empty dsn", func(c *Config) { c.Database.DSN = " " }, true},
		{"email without recipient", func(c *Config) { c.Notify.ResendAPIKey = "re_123" }, true},
		{"export without bucket", func(c *Config) { c.Export.Endpoint = "localhost:9000" }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "logfmt" }, true},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Admin.Secret = "a-long-enough-secret"
		tt.mutate(cfg)
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
