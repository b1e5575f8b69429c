// Package config loads the service configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/compendium/internal/auth"
	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/export"
	"github.com/erazemk/compendium/internal/logging"
	"github.com/erazemk/compendium/internal/notify"
)

// Config is the full service configuration.
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Admin struct {
		Secret string `yaml:"secret"`
	} `yaml:"admin"`

	Notify struct {
		Token        string   `yaml:"token"`
		From         string   `yaml:"from"`
		To           []string `yaml:"to"`
		ResendAPIKey string   `yaml:"resendApiKey"`
	} `yaml:"notify"`

	Export struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		Prefix    string `yaml:"prefix"`
		AccessKey string `yaml:"accessKey"`
		SecretKey string `yaml:"secretKey"`
		UseSSL    bool   `yaml:"useSSL"`
	} `yaml:"export"`

	Log logging.Options `yaml:"log"`
}

// Default returns a configuration that runs locally on SQLite.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Database.Driver = db.DriverSQLite
	cfg.Database.DSN = "compendium.db"
	cfg.Notify.Token = notify.DefaultToken
	cfg.Notify.From = "Compendium <noreply@compendium-lab.be>"
	cfg.Log.Level = "info"
	cfg.Log.Format = logging.FormatText
	return cfg
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides secrets, the DSN and logging from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("COMPENDIUM_ADMIN_SECRET", &c.Admin.Secret)
	set("COMPENDIUM_DATABASE_DRIVER", &c.Database.Driver)
	set("COMPENDIUM_DATABASE_DSN", &c.Database.DSN)
	set("COMPENDIUM_RESEND_API_KEY", &c.Notify.ResendAPIKey)
	set("COMPENDIUM_EXPORT_ACCESS_KEY", &c.Export.AccessKey)
	set("COMPENDIUM_EXPORT_SECRET_KEY", &c.Export.SecretKey)
	set("COMPENDIUM_LOG_LEVEL", &c.Log.Level)
	set("COMPENDIUM_LOG_FORMAT", &c.Log.Format)
}

// Validate reports configuration errors that would prevent startup.
func (c *Config) Validate() error {
	var errs []error
	if err := auth.ValidateSecret(c.Admin.Secret); err != nil {
		errs = append(errs, err)
	}
	switch c.Database.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.Notify.ResendAPIKey != "" && (c.Notify.From == "" || len(c.Notify.To) == 0) {
		errs = append(errs, errors.New("notify.from and notify.to are required to send email"))
	}
	if (c.Export.Endpoint == "") != (c.Export.Bucket == "") {
		errs = append(errs, errors.New("export.endpoint and export.bucket must be set together"))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ExportEnabled reports whether catalog export is configured.
func (c *Config) ExportEnabled() bool {
	return c.Export.Endpoint != "" && c.Export.Bucket != ""
}

// ExportConfig returns the object storage settings.
func (c *Config) ExportConfig() export.Config {
	return export.Config{
		Endpoint:  c.Export.Endpoint,
		Region:    c.Export.Region,
		Bucket:    c.Export.Bucket,
		Prefix:    c.Export.Prefix,
		AccessKey: c.Export.AccessKey,
		SecretKey: c.Export.SecretKey,
		UseSSL:    c.Export.UseSSL,
	}
}
