package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by the loader.
const (
	EnvConfig         = "FASTM8_CONFIG"
	EnvDB             = "FASTM8_DB"
	EnvBackend        = "FASTM8_STORAGE_BACKEND"
	EnvProtocol       = "FASTM8_PROTOCOL"
	EnvLogLevel       = "FASTM8_LOG_LEVEL"
	EnvTelegramToken  = "FASTM8_TELEGRAM_TOKEN"
	EnvTelegramChatID = "FASTM8_TELEGRAM_CHAT_ID"
	EnvNoColor        = "NO_COLOR"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. .env files
	// 3. Configuration file
	// 4. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads a configuration file over the defaults.
	LoadFromFile(path string) (*Config, error)

	// Path returns the configuration file the loader reads, which may not
	// exist yet.
	Path() string
}

// Option configures a loader.
type Option func(*loader)

// WithEnvFiles replaces the .env files consulted by Load. Missing files
// are skipped.
func WithEnvFiles(paths ...string) Option {
	return func(l *loader) {
		l.envFiles = paths
	}
}

// WithLookupEnv replaces os.LookupEnv, mainly for tests.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(l *loader) {
		l.lookupEnv = fn
	}
}

// loader implements the Loader interface.
type loader struct {
	configPath string
	envFiles   []string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, $FASTM8_CONFIG is used, then
// ~/.fastm8/config.yaml.
func NewLoader(configPath string, opts ...Option) Loader {
	l := &loader{
		configPath: configPath,
		envFiles:   defaultEnvFiles(),
		lookupEnv:  os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path implements Loader.Path.
func (l *loader) Path() string {
	if l.configPath != "" {
		return l.configPath
	}
	if p, ok := l.lookupEnv(EnvConfig); ok && p != "" {
		return p
	}
	return DefaultPath()
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.Path()
	explicit := configPath != DefaultPath()

	fileCfg, err := l.LoadFromFile(configPath)
	switch {
	case err == nil:
		cfg = fileCfg
	case errors.Is(err, ErrConfigNotFound) && !explicit:
		// No config file yet; defaults apply.
	default:
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	dotenv, err := l.readEnvFiles()
	if err != nil {
		return nil, err
	}

	cfg, err = l.applyEnvVars(cfg, dotenv)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
//
// The file is decoded over Default(), so keys it omits keep their
// default values.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return cfg, nil
}

// readEnvFiles merges the existing .env files; earlier files win.
func (l *loader) readEnvFiles() (map[string]string, error) {
	merged := make(map[string]string)
	for _, path := range l.envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range vars {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// applyEnvVars applies environment variable overrides to the configuration.
// Process environment wins over .env values.
//
// Supported environment variables:
//   - FASTM8_DB: Path to database file
//   - FASTM8_STORAGE_BACKEND: Storage backend
//   - FASTM8_PROTOCOL: Default protocol
//   - FASTM8_LOG_LEVEL: Log level
//   - FASTM8_TELEGRAM_TOKEN, FASTM8_TELEGRAM_CHAT_ID: Telegram delivery
//   - NO_COLOR: Disables colored output when set
func (l *loader) applyEnvVars(cfg *Config, dotenv map[string]string) (*Config, error) {
	result := *cfg

	get := func(key string) (string, bool) {
		if v, ok := l.lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if v, ok := get(EnvDB); ok && v != "" {
		result.Storage.Path = v
	}

	if v, ok := get(EnvBackend); ok && v != "" {
		result.Storage.Backend = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := get(EnvProtocol); ok && v != "" {
		result.Protocol.Default = strings.TrimSpace(v)
	}

	if v, ok := get(EnvLogLevel); ok && v != "" {
		result.Logging.Level = strings.ToLower(v)
	}

	if v, ok := get(EnvTelegramToken); ok && v != "" {
		result.Notify.Telegram.Token = v
	}

	if v, ok := get(EnvTelegramChatID); ok && v != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvTelegramChatID, v)
		}
		result.Notify.Telegram.ChatID = id
	}

	if v, ok := get(EnvNoColor); ok && v != "" {
		result.Display.ColorEnabled = false
	}

	return &result, nil
}

// Load is a convenience function that creates a loader and loads configuration.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a file.
//
// Equivalent to:
//
//	loader := NewLoader(path)
//	return loader.Load()
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
