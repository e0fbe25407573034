// Package config provides configuration management for fastm8.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority, applied by the caller)
// 2. Environment variables
// 3. .env files
// 4. Configuration file
// 5. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Default protocol: %s\n", cfg.Protocol.Default)
package config

import (
	"fmt"
	"time"

	"github.com/0xmhha/fastm8/pkg/display"
	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/store"
	"github.com/0xmhha/fastm8/pkg/window"
)

// Config represents the complete application configuration.
type Config struct {
	// Protocol settings
	Protocol ProtocolConfig `yaml:"protocol"`

	// Preferred eating window, used to suggest when the next fast starts
	PreferredEatingWindow EatingWindowConfig `yaml:"preferred_eating_window"`

	// Display settings
	Display DisplayConfig `yaml:"display"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Notification settings
	Notify NotifyConfig `yaml:"notify"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// ProtocolConfig contains protocol settings.
type ProtocolConfig struct {
	// Default is the protocol used when start is given none.
	Default string `yaml:"default"`

	// Custom protocols registered next to the standard ones.
	Custom []protocol.Protocol `yaml:"custom,omitempty"`
}

// EatingWindowConfig is a daily clock range in "HH:MM" form.
type EatingWindowConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	// Output format (table, json, simple)
	Format string `yaml:"format"`

	// Show clock times as 15:04 instead of 03:04 PM
	Use24Hour bool `yaml:"use_24_hour"`

	// Enable colored output
	ColorEnabled bool `yaml:"color_enabled"`

	// Live view refresh rate
	RefreshRate time.Duration `yaml:"refresh_rate"`

	// Progress bar width; 0 picks a width from the terminal
	BarWidth int `yaml:"bar_width"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Backend (bolt, sqlite, file, memory)
	Backend string `yaml:"backend"`

	// Path to the database or document
	Path string `yaml:"path"`

	// How long to wait for another process holding the database
	Timeout time.Duration `yaml:"timeout"`
}

// NotifyConfig contains notification settings.
type NotifyConfig struct {
	// Enabled turns window-change notifications on in the live view.
	Enabled bool `yaml:"enabled"`

	// Bell rings the terminal bell with each notification.
	Bell bool `yaml:"bell"`

	// Telegram delivery; disabled while the token is empty.
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig holds Telegram bot credentials.
type TelegramConfig struct {
	Token  string `yaml:"token,omitempty"`
	ChatID int64  `yaml:"chat_id,omitempty"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	catalog, err := c.Catalog()
	if err != nil {
		return err
	}

	if c.Protocol.Default == "" {
		return ErrNoDefaultProtocol
	}
	if _, err := c.DefaultProtocol(catalog); err != nil {
		return err
	}

	if _, err := c.EatingWindow(); err != nil {
		return err
	}

	if !display.ValidFormat(display.Format(c.Display.Format)) {
		return ErrInvalidDisplayFormat
	}
	if c.Display.RefreshRate <= 0 {
		return ErrInvalidRefreshRate
	}
	if c.Display.BarWidth < 0 {
		return ErrInvalidBarWidth
	}

	validBackends := make(map[string]bool)
	for _, b := range store.Backends() {
		validBackends[b] = true
	}
	if !validBackends[c.Storage.Backend] {
		return ErrInvalidBackend
	}
	if c.Storage.Backend != store.BackendMemory && c.Storage.Path == "" {
		return ErrNoStoragePath
	}
	if c.Storage.Timeout < 0 {
		return ErrInvalidStorageTimeout
	}

	if c.Notify.Telegram.Token != "" && c.Notify.Telegram.ChatID == 0 {
		return ErrTelegramChatID
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Catalog returns the standard protocols plus the configured custom ones.
func (c *Config) Catalog() (*protocol.Catalog, error) {
	catalog := protocol.NewStandardCatalog()
	for _, p := range c.Protocol.Custom {
		if err := catalog.Register(p); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidCustomProtocol, p.ID, err)
		}
	}
	return catalog, nil
}

// DefaultProtocol resolves the default protocol against catalog, falling
// back to FASTING:EATING notation.
func (c *Config) DefaultProtocol(catalog *protocol.Catalog) (protocol.Protocol, error) {
	if p, err := catalog.Resolve(c.Protocol.Default); err == nil {
		return p, nil
	}
	p, err := protocol.Parse(c.Protocol.Default)
	if err != nil {
		return protocol.Protocol{}, fmt.Errorf("%w: %q", ErrUnknownDefaultProtocol, c.Protocol.Default)
	}
	return p, nil
}

// EatingWindow parses the preferred eating window.
func (c *Config) EatingWindow() (window.PreferredWindow, error) {
	w, err := window.ParsePreferredWindow(c.PreferredEatingWindow.Start, c.PreferredEatingWindow.End)
	if err != nil {
		return window.PreferredWindow{}, fmt.Errorf("%w: %v", ErrInvalidEatingWindow, err)
	}
	return w, nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Protocol: ProtocolConfig{
			Default: protocol.Default,
		},
		PreferredEatingWindow: EatingWindowConfig{
			Start: "10:00",
			End:   "18:00",
		},
		Display: DisplayConfig{
			Format:       string(display.FormatTable),
			ColorEnabled: true,
			RefreshRate:  1 * time.Second,
		},
		Storage: StorageConfig{
			Backend: store.BackendBolt,
			Path:    defaultDBPath(),
			Timeout: 1 * time.Second,
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Output: "stderr",
			Format: "text",
		},
	}
}
