// Package config loads the editor configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "VISUALEDITOR_CONFIG"

// Config is the root configuration.
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	LogLevel string   `yaml:"log_level"`
	Storage  Storage  `yaml:"storage"`
	History  History  `yaml:"history"`
	Autosave Autosave `yaml:"autosave"`
	Imports  []Import `yaml:"imports"`
	MCP      MCP      `yaml:"mcp"`
}

// Storage selects the document database.
type Storage struct {
	// Driver is one of "sqlite", "postgres", "mysql" or "mongodb".
	Driver string `yaml:"driver"`
	// DSN is the connection string. For sqlite an empty DSN means
	// <data_dir>/visualeditor.db. A "{password}" placeholder is replaced with
	// the secret stored under PasswordKey.
	DSN         string `yaml:"dsn"`
	PasswordKey string `yaml:"password_key"`
	// KeychainService is the macOS keychain service holding PasswordKey.
	KeychainService string `yaml:"keychain_service"`
	// Database is the mongodb database name.
	Database string `yaml:"database"`
}

// History bounds the persisted snapshot journal.
type History struct {
	JournalLimit int `yaml:"journal_limit"`
}

// Autosave controls periodic saving of dirty documents.
type Autosave struct {
	// Schedule is a robfig/cron spec such as "@every 30s". Empty disables it.
	Schedule string `yaml:"schedule"`
}

// Import binds a JSON file on disk to a document. Writes to the file are
// imported into the open document.
type Import struct {
	Path       string `yaml:"path"`
	DocumentID string `yaml:"document_id"`
}

// MCP configures the agent tool server.
type MCP struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	// Addr is where the desktop app serves MCP over SSE, e.g.
	// "127.0.0.1:7425". Empty disables it; the standalone binary always
	// uses stdio.
	Addr string `yaml:"addr"`
	// ApprovalTimeout bounds how long a destructive agent call waits for
	// the user in the desktop app.
	ApprovalTimeout time.Duration `yaml:"approval_timeout"`
}

// Driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongodb"
)

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".local", "share", "visualeditor")
}

// Defaults returns a Config with the built-in defaults.
func Defaults() *Config {
	return &Config{
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		Storage:  Storage{Driver: DriverSQLite, Database: "visualeditor"},
		History:  History{JournalLimit: 40},
		Autosave: Autosave{Schedule: "@every 30s"},
		MCP:      MCP{Name: "visualeditor-mcp", Version: "1.0.0", ApprovalTimeout: 2 * time.Minute},
	}
}

// DefaultPath returns the config path from EnvPath or
// ~/.config/visualeditor/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "visualeditor", "config.yaml")
}

// Load reads a YAML config file over the defaults. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	for i := range cfg.Imports {
		cfg.Imports[i].Path = expandHome(cfg.Imports[i].Path)
	}
	if cfg.Storage.Driver == DriverSQLite && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = filepath.Join(cfg.DataDir, "visualeditor.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

func (v *ValidationError) add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg and reports every problem at once.
func (c *Config) Validate() error {
	ve := &ValidationError{}
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	case DriverMongo:
		if c.Storage.Database == "" {
			ve.add("storage.database is required for mongodb")
		}
	default:
		ve.add("storage.driver %q is not one of sqlite, postgres, mysql, mongodb", c.Storage.Driver)
	}
	if c.Storage.Driver != DriverSQLite && c.Storage.DSN == "" {
		ve.add("storage.dsn is required for %s", c.Storage.Driver)
	}
	if c.History.JournalLimit < 0 {
		ve.add("history.journal_limit must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		ve.add("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	seen := make(map[string]bool, len(c.Imports))
	for i, imp := range c.Imports {
		if imp.Path == "" || imp.DocumentID == "" {
			ve.add("imports[%d]: path and document_id are required", i)
			continue
		}
		if seen[imp.Path] {
			ve.add("imports[%d]: %s is listed twice", i, imp.Path)
		}
		seen[imp.Path] = true
	}
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
