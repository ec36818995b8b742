package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration for the mailbox search core.
type Config struct {
	Storage StorageConfig `koanf:"storage"`
	Search  SearchConfig  `koanf:"search"`
	Logging LoggingConfig `koanf:"logging"`
}

// StorageConfig holds the on-disk layout the core reads from.
type StorageConfig struct {
	MaildirPath  string `koanf:"maildir_path"`  // base directory containing one maildir per mailbox
	DatabasePath string `koanf:"database_path"` // sqlite-backed mailbox view / index record store
}

// SearchConfig holds defaults applied to sessions that don't override them.
type SearchConfig struct {
	DefaultCharset  string `koanf:"default_charset"`  // charset assumed absent an explicit CHARSET
	MaxHeaderArena  int    `koanf:"max_header_arena"` // validated to be at least 1; the search session does not read it and its matcher cache is not capped
	TmpSweepMaxAge  string `koanf:"tmp_sweep_max_age"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
	Output string `koanf:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			MaildirPath:  "/var/lib/searchcore/maildir",
			DatabasePath: "/var/lib/searchcore/index.db",
		},
		Search: SearchConfig{
			DefaultCharset: "US-ASCII",
			MaxHeaderArena: 64,
			TmpSweepMaxAge: "36h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults if the
// file does not exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}

	if c.Search.DefaultCharset == "" {
		return fmt.Errorf("search.default_charset is required")
	}
	if c.Search.MaxHeaderArena < 1 {
		return fmt.Errorf("search.max_header_arena must be at least 1")
	}

	if c.Logging.Level != "" {
		validLevels := map[string]bool{
			"debug": true, "info": true, "warn": true, "error": true,
		}
		if !validLevels[c.Logging.Level] {
			return fmt.Errorf("logging.level must be one of: debug, info, warn, error (got: %s)", c.Logging.Level)
		}
	}

	if c.Logging.Format != "" {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[c.Logging.Format] {
			return fmt.Errorf("logging.format must be one of: json, text (got: %s)", c.Logging.Format)
		}
	}

	return nil
}

// validateStorage ensures all storage paths are valid.
func (c *Config) validateStorage() error {
	if c.Storage.MaildirPath == "" {
		return fmt.Errorf("storage.maildir_path is required")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path is required")
	}

	if !filepath.IsAbs(c.Storage.MaildirPath) {
		return fmt.Errorf("storage.maildir_path must be an absolute path (got: %s)", c.Storage.MaildirPath)
	}
	if !filepath.IsAbs(c.Storage.DatabasePath) {
		return fmt.Errorf("storage.database_path must be an absolute path (got: %s)", c.Storage.DatabasePath)
	}

	return nil
}

// EnsureDirectories creates the directories the core needs on disk.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.MaildirPath,
		filepath.Dir(c.Storage.DatabasePath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
