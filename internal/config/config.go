// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config handles gossip configuration loading, saving, and validation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/util"
)

// =============================================================================
// DURATION
// =============================================================================

// Duration is a time.Duration written as "5s" in TOML.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" || s == "0" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete gossip configuration.
type Config struct {
	Relay   RelayConfig   `toml:"relay" json:"relay"`
	Runtime RuntimeConfig `toml:"runtime" json:"runtime"`
	Client  ClientConfig  `toml:"client" json:"client"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// RelayConfig configures the HTTP relay.
type RelayConfig struct {
	Host         string `toml:"host" json:"host"`
	Port         int    `toml:"port" json:"port"`
	DefaultModel string `toml:"default_model" json:"default_model"`

	// CORSOrigins lists allowed origins; "*" allows all.
	CORSOrigins []string `toml:"cors_origins" json:"cors_origins"`

	// ShutdownTimeout bounds the graceful drain on SIGINT/SIGTERM.
	ShutdownTimeout Duration `toml:"shutdown_timeout" json:"shutdown_timeout"`
}

// RuntimeConfig selects the model runtime behind the relay.
type RuntimeConfig struct {
	// Kind is "ollama" or "openai".
	Kind   string `toml:"kind" json:"kind"`
	URL    string `toml:"url" json:"url"`
	APIKey string `toml:"api_key" json:"api_key"`

	// Timeout bounds each runtime call. Zero waits forever.
	Timeout Duration `toml:"timeout" json:"timeout"`
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	// Server is the relay address used when the stored session has none.
	Server   string `toml:"server" json:"server"`
	Database string `toml:"database" json:"database"`

	ModelsTimeout  Duration `toml:"models_timeout" json:"models_timeout"`
	HealthInterval Duration `toml:"health_interval" json:"health_interval"`
	RevealInterval Duration `toml:"reveal_interval" json:"reveal_interval"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
	File   string `toml:"file" json:"file"`
}

// Runtime kinds accepted in runtime.kind.
const (
	RuntimeOllama = "ollama"
	RuntimeOpenAI = "openai"
)

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		Relay: RelayConfig{
			Host:            "0.0.0.0",
			Port:            model.DefaultRelayPort,
			DefaultModel:    model.DefaultModelName,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Runtime: RuntimeConfig{
			Kind: RuntimeOllama,
			URL:  "http://127.0.0.1:11434",
		},
		Client: ClientConfig{
			Server:         model.DefaultServerAddress,
			ModelsTimeout:  Duration{5 * time.Second},
			HealthInterval: Duration{5 * time.Second},
			RevealInterval: Duration{15 * time.Millisecond},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the gossip configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("GOSSIP_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".gossip"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultDatabasePath returns where the client keeps its local store.
func DefaultDatabasePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gossip.db"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadEnv loads a .env file from the working directory if there is one.
// Variables already set in the environment win.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads the config at path (the default location when empty), then
// applies environment overrides, defaults, and validation. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path over cfg.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// SaveTOML writes cfg to path atomically with owner-only permissions, since
// the file may hold a runtime API key.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# gossip configuration file")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// ApplyEnvOverrides applies GOSSIP_* environment variables over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GOSSIP_HOST"); v != "" {
		c.Relay.Host = v
	}
	if v := os.Getenv("GOSSIP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Relay.Port = port
		}
	}
	if v := os.Getenv("GOSSIP_DEFAULT_MODEL"); v != "" {
		c.Relay.DefaultModel = v
	}
	if v := os.Getenv("GOSSIP_RUNTIME"); v != "" {
		c.Runtime.Kind = v
	}
	// OLLAMA_HOST is what the Ollama CLI itself reads; GOSSIP_RUNTIME_URL wins.
	if v := os.Getenv("OLLAMA_HOST"); v != "" && c.Runtime.Kind == RuntimeOllama {
		c.Runtime.URL = normalizeOllamaHost(v)
	}
	if v := os.Getenv("GOSSIP_RUNTIME_URL"); v != "" {
		c.Runtime.URL = v
	}
	if v := os.Getenv("GOSSIP_RUNTIME_API_KEY"); v != "" {
		c.Runtime.APIKey = v
	}
	if v := os.Getenv("GOSSIP_RUNTIME_TIMEOUT"); v != "" {
		var d Duration
		if err := d.UnmarshalText([]byte(v)); err == nil {
			c.Runtime.Timeout = d
		}
	}
	if v := os.Getenv("GOSSIP_SERVER"); v != "" {
		c.Client.Server = v
	}
	if v := os.Getenv("GOSSIP_DB"); v != "" {
		c.Client.Database = v
	}
	if v := os.Getenv("GOSSIP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GOSSIP_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func normalizeOllamaHost(v string) string {
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return v
	}
	if !strings.Contains(v, ":") {
		v += ":11434"
	}
	return "http://" + v
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Relay.Host == "" {
		c.Relay.Host = d.Relay.Host
	}
	if c.Relay.Port == 0 {
		c.Relay.Port = d.Relay.Port
	}
	if c.Relay.DefaultModel == "" {
		c.Relay.DefaultModel = d.Relay.DefaultModel
	}
	if len(c.Relay.CORSOrigins) == 0 {
		c.Relay.CORSOrigins = d.Relay.CORSOrigins
	}
	if c.Relay.ShutdownTimeout.Duration == 0 {
		c.Relay.ShutdownTimeout = d.Relay.ShutdownTimeout
	}
	if c.Runtime.Kind == "" {
		c.Runtime.Kind = d.Runtime.Kind
	}
	c.Runtime.Kind = strings.ToLower(c.Runtime.Kind)
	if c.Runtime.URL == "" && c.Runtime.Kind == RuntimeOllama {
		c.Runtime.URL = d.Runtime.URL
	}
	if c.Client.Server == "" {
		c.Client.Server = d.Client.Server
	}
	c.Client.Server = model.NormalizeServerAddress(c.Client.Server)
	if c.Client.Database == "" {
		if p, err := DefaultDatabasePath(); err == nil {
			c.Client.Database = p
		}
	}
	if c.Client.ModelsTimeout.Duration == 0 {
		c.Client.ModelsTimeout = d.Client.ModelsTimeout
	}
	if c.Client.HealthInterval.Duration == 0 {
		c.Client.HealthInterval = d.Client.HealthInterval
	}
	if c.Client.RevealInterval.Duration == 0 {
		c.Client.RevealInterval = d.Client.RevealInterval
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// RelayAddr returns the host:port the relay listens on.
func (c *Config) RelayAddr() string {
	return fmt.Sprintf("%s:%d", c.Relay.Host, c.Relay.Port)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Relay.Port < 1 || c.Relay.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "relay.port",
			Message: fmt.Sprintf("port %d out of range 1-65535", c.Relay.Port),
		})
	}
	if strings.TrimSpace(c.Relay.DefaultModel) == "" {
		errs = append(errs, ValidationError{Field: "relay.default_model", Message: "must not be empty"})
	}
	if c.Relay.ShutdownTimeout.Duration < 0 {
		errs = append(errs, ValidationError{Field: "relay.shutdown_timeout", Message: "must not be negative"})
	}

	switch c.Runtime.Kind {
	case RuntimeOllama, RuntimeOpenAI:
	default:
		errs = append(errs, ValidationError{
			Field:   "runtime.kind",
			Message: fmt.Sprintf("invalid runtime '%s', must be one of: ollama, openai", c.Runtime.Kind),
		})
	}
	if c.Runtime.URL != "" {
		if u, err := url.Parse(c.Runtime.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{Field: "runtime.url", Message: fmt.Sprintf("invalid URL '%s'", c.Runtime.URL)})
		}
	}
	if c.Runtime.Timeout.Duration < 0 {
		errs = append(errs, ValidationError{Field: "runtime.timeout", Message: "must not be negative"})
	}

	if c.Client.Server != "" {
		if u, err := url.Parse(c.Client.Server); err != nil || u.Host == "" {
			errs = append(errs, ValidationError{Field: "client.server", Message: fmt.Sprintf("invalid URL '%s'", c.Client.Server)})
		}
	}
	if c.Client.ModelsTimeout.Duration < 0 {
		errs = append(errs, ValidationError{Field: "client.models_timeout", Message: "must not be negative"})
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, ValidationError{Field: "logging.format", Message: "must be json or console"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its TOML key path (e.g. "relay.port").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value and stores it at the TOML key path.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	switch field.Interface().(type) {
	case Duration:
		var d Duration
		if err := d.UnmarshalText([]byte(value)); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		field.Set(reflect.ValueOf(d))
		return nil
	case []string:
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		field.SetInt(int64(n))
	default:
		return fmt.Errorf("%s: unsupported field type %s", key, field.Kind())
	}
	return nil
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return reflect.Value{}, fmt.Errorf("invalid key %q, expected section.name", key)
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return v, nil
}

func fieldByTag(v reflect.Value, tag string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if strings.EqualFold(name, tag) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Keys lists every settable key in section.name form.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		st := t.Field(i).Type
		for j := 0; j < st.NumField(); j++ {
			name, _, _ := strings.Cut(st.Field(j).Tag.Get("toml"), ",")
			keys = append(keys, section+"."+name)
		}
	}
	return keys
}
