// Package config loads boardroom.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrylevesque/boardroom/internal/utils"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "boardroom.yaml"

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	TLSCert         string        `yaml:"tls-cert"`
	TLSKey          string        `yaml:"tls-key"`
	ReadTimeout     time.Duration `yaml:"read-timeout"`
	WriteTimeout    time.Duration `yaml:"write-timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
	SeedDemo        bool          `yaml:"seed-demo"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// WorkspaceConfig configures the local workspace used by boardctl.
type WorkspaceConfig struct {
	Dir         string        `yaml:"dir"`
	Server      string        `yaml:"server"` // empty keeps the workspace offline
	Seal        bool          `yaml:"seal"`
	SyncTimeout time.Duration `yaml:"sync-timeout"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Logging   utils.LogConfig `yaml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	dataDir := utils.DefaultDataDir()
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			SeedDemo:        true,
		},
		Storage: StorageConfig{
			Driver: StorageSQLite,
			Path:   filepath.Join(dataDir, "boardroom.db"),
		},
		Workspace: WorkspaceConfig{
			Dir:         dataDir,
			SyncTimeout: 10 * time.Second,
		},
		Logging: utils.LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("BOARDROOM_ADDR", &c.Server.Addr)
	set("BOARDROOM_STORAGE", &c.Storage.Driver)
	set("BOARDROOM_DB_PATH", &c.Storage.Path)
	set("BOARDROOM_WORKSPACE", &c.Workspace.Dir)
	set("BOARDROOM_SERVER", &c.Workspace.Server)
	set("BOARDROOM_LOG_LEVEL", &c.Logging.Level)
	if v, ok := lookup("BOARDROOM_SYNC_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BOARDROOM_SYNC_TIMEOUT: %w", err)
		}
		c.Workspace.SyncTimeout = d
	}
	return nil
}

// Validate checks the configuration for values the server and CLI cannot
// run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return errors.New("server.tls-cert and server.tls-key must be set together")
	}
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("storage.driver %q: want %q or %q", c.Storage.Driver, StorageMemory, StorageSQLite)
	}
	if c.Workspace.Server != "" {
		u, err := url.Parse(c.Workspace.Server)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("workspace.server %q: want an http(s) URL", c.Workspace.Server)
		}
	}
	if c.Workspace.SyncTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}
