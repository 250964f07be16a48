package prefs

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/conorfennell/randpick/internal/domain"
	"go.etcd.io/bbolt"
)

const bucketSettings = "settings"

// Keys in the settings bucket.
const (
	KeyDefaultTableID = "default_table_id"
	KeyNoRepeat       = "no_repeat"
)

// DefaultNoRepeat applies until the user sets the flag explicitly.
const DefaultNoRepeat = true

// Store persists user preferences in a bbolt file.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the preferences file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSettings))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create settings bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the preferences file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(bucketSettings)).Get([]byte(key)); v != nil {
			// bbolt values are only valid inside the transaction.
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (s *Store) put(key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSettings)).Put([]byte(key), value)
	})
}

// DefaultTableID returns the default table, or nil when none is set.
func (s *Store) DefaultTableID() (*int64, error) {
	v, err := s.get(KeyDefaultTableID)
	if err != nil || v == nil {
		return nil, err
	}
	id, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt %s value %q: %w", KeyDefaultTableID, v, err)
	}
	return &id, nil
}

// SetDefaultTableID stores the default table.
func (s *Store) SetDefaultTableID(id int64) error {
	if id <= 0 {
		return errors.New("default table id must be positive")
	}
	return s.put(KeyDefaultTableID, []byte(strconv.FormatInt(id, 10)))
}

// ClearDefaultTableID removes the default table.
func (s *Store) ClearDefaultTableID() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSettings)).Delete([]byte(KeyDefaultTableID))
	})
}

// NoRepeat reports whether no-repeat mode is on. It defaults to true.
func (s *Store) NoRepeat() (bool, error) {
	v, err := s.get(KeyNoRepeat)
	if err != nil {
		return false, err
	}
	if v == nil {
		return DefaultNoRepeat, nil
	}
	b, err := strconv.ParseBool(string(v))
	if err != nil {
		return false, fmt.Errorf("corrupt %s value %q: %w", KeyNoRepeat, v, err)
	}
	return b, nil
}

// SetNoRepeat stores the no-repeat flag.
func (s *Store) SetNoRepeat(enabled bool) error {
	return s.put(KeyNoRepeat, []byte(strconv.FormatBool(enabled)))
}

// Snapshot reads both preferences.
func (s *Store) Snapshot() (domain.Preferences, error) {
	id, err := s.DefaultTableID()
	if err != nil {
		return domain.Preferences{}, err
	}
	noRepeat, err := s.NoRepeat()
	if err != nil {
		return domain.Preferences{}, err
	}
	return domain.Preferences{DefaultTableID: id, NoRepeat: noRepeat}, nil
}
