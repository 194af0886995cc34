// Package config loads the command line tool configuration from a YAML file,
// a .env file and FORMDRAFT_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Environment variables read by ApplyEnv.
const (
	EnvStoreDriver = "FORMDRAFT_STORE_DRIVER"
	EnvStorePath   = "FORMDRAFT_STORE_PATH"
	EnvLogLevel    = "FORMDRAFT_LOG_LEVEL"
	EnvLocale      = "FORMDRAFT_LOCALE"
	EnvMaxBytes    = "FORMDRAFT_MAX_BYTES"
)

var configLogger = zerolog.Nop()

// SetLogger sets the logger used while loading configuration.
func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config is the complete configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Editor  EditorConfig  `yaml:"editor"`
	Logging LoggingConfig `yaml:"logging"`
}

type StoreConfig struct {
	Driver   string `yaml:"driver" default:"sqlite"`
	Path     string `yaml:"path" default:""`
	Compress bool   `yaml:"compress" default:"true"`
}

type EditorConfig struct {
	Locale     string `yaml:"locale" default:"en"`
	MaxBytes   int64  `yaml:"max_bytes" default:"1048576"`
	Dictionary string `yaml:"dictionary" default:""`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"warn"`
}

// Default returns a configuration holding only default values.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from FORMDRAFT_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvStoreDriver); ok && v != "" {
		c.Store.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvStorePath); ok && v != "" {
		c.Store.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvLocale); ok && v != "" {
		c.Editor.Locale = v
	}
	if v, ok := lookup(EnvMaxBytes); ok && v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvMaxBytes, err)
		}
		c.Editor.MaxBytes = n
	}
	return nil
}

// Validate checks the store driver and limits.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverFile, DriverMemory:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Editor.MaxBytes < 0 {
		return fmt.Errorf("config: max_bytes must not be negative")
	}
	return nil
}

// StorePath returns the configured store path, or a location under the
// user cache directory when none is set.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve cache dir: %w", err)
	}
	switch c.Store.Driver {
	case DriverFile:
		return filepath.Join(dir, "formdraft", "drafts"), nil
	default:
		return filepath.Join(dir, "formdraft", "drafts.db"), nil
	}
}

// ApplyDefaults sets every field carrying a `default` tag, recursing into
// nested structs.
func ApplyDefaults(config any) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !field.IsValid() || !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			ApplyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int, reflect.Int64:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
