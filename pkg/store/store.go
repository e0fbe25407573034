package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xmhha/fastm8/pkg/logger"
)

// Open creates the store selected by cfg.Backend.
//
// Parent directories of file-backed stores are created as needed.
func Open(cfg Config, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.Noop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendBolt
	}

	if backend == BackendMemory {
		log.Debug("store opened", "backend", backend)
		return NewMemoryStore(), nil
	}

	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}
	path := ExpandHome(cfg.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	var (
		st  Store
		err error
	)
	switch backend {
	case BackendBolt:
		st, err = NewBoltStore(path, cfg.Timeout)
	case BackendSQLite:
		st, err = NewSQLiteStore(path)
	case BackendFile:
		st, err = NewFileStore(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("store opened", "backend", backend, "path", path)
	return st, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
