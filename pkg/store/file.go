package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/fastm8/pkg/session"
)

// document is the on-disk layout of a FileStore.
type document struct {
	Version  int               `yaml:"version"`
	Sessions []session.Session `yaml:"sessions"`
}

// FileStore keeps the session log in a YAML document that can be edited
// by hand. Writes go to a temporary file that is renamed over the target,
// so readers never see a partial document.
type FileStore struct {
	path string
}

// NewFileStore creates a file store at path. The file is created on the
// first Save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	return &FileStore{path: path}, nil
}

// Load implements session.Persister. A missing file is an empty log.
func (s *FileStore) Load(ctx context.Context) ([]session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 -- path comes from trusted config
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if doc.Version > SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchema, doc.Version)
	}

	return doc.Sessions, nil
}

// Save implements session.Persister.
func (s *FileStore) Save(ctx context.Context, sessions []session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(document{Version: SchemaVersion, Sessions: sessions})
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	return writeAtomic(s.path, data)
}

// Backend implements Store.
func (s *FileStore) Backend() string {
	return BackendFile
}

// Path implements Store.
func (s *FileStore) Path() string {
	return s.path
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

// writeAtomic writes data to a sibling temporary file and renames it over
// path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
