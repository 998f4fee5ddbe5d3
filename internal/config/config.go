// Package config loads the contact book configuration from YAML with
// environment overrides.
package config

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	apperrors "contactbook/internal/errors"
	"contactbook/internal/logger"
)

// Environment variables that override file values.
const (
	EnvAddr      = "CONTACTBOOK_ADDR"
	EnvDB        = "CONTACTBOOK_DB"
	EnvLogLevel  = "CONTACTBOOK_LOG_LEVEL"
	EnvLogFormat = "CONTACTBOOK_LOG_FORMAT"
	EnvServerURL = "CONTACTBOOK_SERVER_URL"
)

// Config holds all contact book settings.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Client ClientConfig `yaml:"client"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// StoreConfig holds SQLite settings.
type StoreConfig struct {
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// LogConfig selects the logger level and output format (color, text or json).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ClientConfig holds settings used by the terminal client.
type ClientConfig struct {
	ServerURL string        `yaml:"server_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:5000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxBodyBytes:    8 << 20,
		},
		Store: StoreConfig{
			Path:        "contacts.db",
			BusyTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logger.FormatColor,
		},
		Client: ClientConfig{
			ServerURL: "http://127.0.0.1:5000",
			Timeout:   30 * time.Second,
		},
	}
}

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. A missing file or an empty path yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, errors.Wrapf(err, "failed to read config file: %s", path)
		default:
			if err := decode(data, &cfg); err != nil {
				return nil, errors.Wrapf(err, "failed to parse config file: %s", path)
			}
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// comment-only files decode to EOF
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config. Level,
// format and server URL values are checked here so the error names the
// variable that carried them.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDB)); v != "" {
		c.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		if _, err := logger.ParseLevel(v); err != nil {
			return invalidEnv(EnvLogLevel, v, err)
		}
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		if !validFormat(v) {
			return invalidEnv(EnvLogFormat, v, nil)
		}
		c.Log.Format = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
		if err := checkServerURL(v); err != nil {
			return invalidEnv(EnvServerURL, v, err)
		}
		c.Client.ServerURL = v
	}
	return nil
}

// LogLevel returns the parsed log level. Validate reports unknown values.
func (c *Config) LogLevel() logger.Level {
	level, _ := logger.ParseLevel(c.Log.Level)
	return level
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return invalid("server.addr cannot be empty", nil)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return invalid("server.shutdown_timeout must be positive", nil).
			WithField("shutdown_timeout", c.Server.ShutdownTimeout.String())
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		return invalid("server timeouts must not be negative", nil)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return invalid("server.max_body_bytes must be positive", nil).
			WithField("max_body_bytes", c.Server.MaxBodyBytes)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return invalid("store.path cannot be empty", nil)
	}
	if c.Store.BusyTimeout < 0 {
		return invalid("store.busy_timeout must not be negative", nil)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level is not recognised", err).WithField("level", c.Log.Level)
	}
	if !validFormat(c.Log.Format) {
		return invalid("log.format must be color, text or json", nil).WithField("format", c.Log.Format)
	}
	if err := checkServerURL(c.Client.ServerURL); err != nil {
		return invalid("client.server_url must be an absolute http(s) URL", err).
			WithField("server_url", c.Client.ServerURL)
	}
	if c.Client.Timeout <= 0 {
		return invalid("client.timeout must be positive", nil)
	}
	return nil
}

func validFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", logger.FormatColor, logger.FormatText, logger.FormatJSON:
		return true
	}
	return false
}

func checkServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}

func invalidEnv(name, value string, err error) *apperrors.AppError {
	return invalid(name+" has an unusable value", err).
		WithFields(apperrors.Metadata{"env": name, "value": value})
}

func invalid(message string, err error) *apperrors.AppError {
	return apperrors.ConfigError(apperrors.CodeConfigGeneric, message, err).WithModule("config")
}
