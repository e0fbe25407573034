package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/fastm8/pkg/session"
)

// Bucket names.
var (
	bucketSessions = []byte("sessions") // ID -> JSON session
	bucketMeta     = []byte("meta")     // key -> value

	keySchemaVersion = []byte("schema_version")
)

// BoltStore keeps the session log in a bbolt database.
//
// The database is opened for the duration of each call only, so several
// fastm8 processes (a live monitor and a one-shot command) can share it.
type BoltStore struct {
	path    string
	timeout time.Duration
}

// NewBoltStore creates a bolt store at path and initializes its buckets.
func NewBoltStore(path string, timeout time.Duration) (*BoltStore, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	s := &BoltStore{path: path, timeout: timeout}

	err := s.withDB(false, func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			return ensureBuckets(tx)
		})
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Load implements session.Persister.
func (s *BoltStore) Load(ctx context.Context) ([]session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var sessions []session.Session
	err := s.withDB(true, func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			if err := checkSchema(tx); err != nil {
				return err
			}
			b := tx.Bucket(bucketSessions)
			if b == nil {
				return nil
			}
			return b.ForEach(func(k, v []byte) error {
				var sess session.Session
				if err := json.Unmarshal(v, &sess); err != nil {
					return fmt.Errorf("failed to unmarshal session %s: %w", k, err)
				}
				sessions = append(sessions, sess)
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// Save implements session.Persister. The sessions bucket is rewritten in a
// single transaction.
func (s *BoltStore) Save(ctx context.Context, sessions []session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.withDB(false, func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			if err := tx.DeleteBucket(bucketSessions); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return fmt.Errorf("failed to clear sessions bucket: %w", err)
			}
			if err := ensureBuckets(tx); err != nil {
				return err
			}

			b := tx.Bucket(bucketSessions)
			for _, sess := range sessions {
				data, err := json.Marshal(sess)
				if err != nil {
					return fmt.Errorf("failed to marshal session %s: %w", sess.ID, err)
				}
				if err := b.Put([]byte(sess.ID), data); err != nil {
					return fmt.Errorf("failed to store session %s: %w", sess.ID, err)
				}
			}
			return nil
		})
	})
}

// Backend implements Store.
func (s *BoltStore) Backend() string {
	return BackendBolt
}

// Path implements Store.
func (s *BoltStore) Path() string {
	return s.path
}

// Close implements Store. The database is not held open between calls.
func (s *BoltStore) Close() error {
	return nil
}

// withDB opens the database, runs fn and closes it again.
func (s *BoltStore) withDB(readOnly bool, fn func(*bolt.DB) error) error {
	db, err := bolt.Open(s.path, 0600, &bolt.Options{
		Timeout:  s.timeout,
		ReadOnly: readOnly,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	fnErr := fn(db)
	if closeErr := db.Close(); closeErr != nil && fnErr == nil {
		return fmt.Errorf("failed to close database: %w", closeErr)
	}
	return fnErr
}

func ensureBuckets(tx *bolt.Tx) error {
	if _, err := tx.CreateBucketIfNotExists(bucketSessions); err != nil {
		return fmt.Errorf("failed to create sessions bucket: %w", err)
	}
	meta, err := tx.CreateBucketIfNotExists(bucketMeta)
	if err != nil {
		return fmt.Errorf("failed to create meta bucket: %w", err)
	}
	if meta.Get(keySchemaVersion) == nil {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, SchemaVersion)
		if err := meta.Put(keySchemaVersion, buf); err != nil {
			return fmt.Errorf("failed to store schema version: %w", err)
		}
	}
	return nil
}

func checkSchema(tx *bolt.Tx) error {
	meta := tx.Bucket(bucketMeta)
	if meta == nil {
		return nil
	}
	raw := meta.Get(keySchemaVersion)
	if len(raw) != 8 {
		return nil
	}
	if v := binary.BigEndian.Uint64(raw); v > SchemaVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedSchema, v)
	}
	return nil
}
