package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrNoDefaultProtocol is returned when no default protocol is set.
	ErrNoDefaultProtocol = errors.New("no default protocol specified")

	// ErrUnknownDefaultProtocol is returned when the default protocol is
	// neither registered nor valid FASTING:EATING notation.
	ErrUnknownDefaultProtocol = errors.New("default protocol is not defined")

	// ErrInvalidCustomProtocol is returned when a custom protocol fails validation.
	ErrInvalidCustomProtocol = errors.New("invalid custom protocol")

	// ErrInvalidEatingWindow is returned when the preferred eating window
	// cannot be parsed.
	ErrInvalidEatingWindow = errors.New("invalid preferred eating window")

	// ErrInvalidDisplayFormat is returned when the display format is not recognized.
	ErrInvalidDisplayFormat = errors.New("invalid display format: must be table, json, or simple")

	// ErrInvalidRefreshRate is returned when refresh rate is <= 0.
	ErrInvalidRefreshRate = errors.New("invalid refresh rate: must be > 0")

	// ErrInvalidBarWidth is returned when the progress bar width is negative.
	ErrInvalidBarWidth = errors.New("invalid bar width: must be >= 0")

	// ErrInvalidBackend is returned when the storage backend is not recognized.
	ErrInvalidBackend = errors.New("invalid storage backend: must be bolt, sqlite, file, or memory")

	// ErrNoStoragePath is returned when a file-backed store has no path.
	ErrNoStoragePath = errors.New("storage path must be set")

	// ErrInvalidStorageTimeout is returned when the storage timeout is negative.
	ErrInvalidStorageTimeout = errors.New("invalid storage timeout: must be >= 0")

	// ErrTelegramChatID is returned when a Telegram token is set without a chat id.
	ErrTelegramChatID = errors.New("telegram chat id must be set when a token is configured")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")

	// ErrInvalidEnv is returned when an environment override cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")
)
