package config

import (
	"os"
	"path/filepath"
)

// appDir is the directory holding fastm8's config, .env and data files.
func appDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(homeDir, ".fastm8")
}

// defaultDBPath returns the default database file path.
//
// Returns: ~/.fastm8/sessions.db.
func defaultDBPath() string {
	return filepath.Join(appDir(), "sessions.db")
}

// DefaultPath returns the default configuration file path.
//
// Returns: ~/.fastm8/config.yaml.
func DefaultPath() string {
	return filepath.Join(appDir(), "config.yaml")
}

// defaultEnvFiles returns the .env files consulted when none are given.
func defaultEnvFiles() []string {
	return []string{
		".env",
		filepath.Join(appDir(), ".env"),
	}
}
