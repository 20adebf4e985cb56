package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// SQLiteSubstrate stores keys in the kv table created by the embedded migrations.
//
// Every write and removal takes the next value of kv_sequence as its version. Watchers in any process poll the
// version of their key (or its tombstone) and report a change when it moves.
type SQLiteSubstrate struct {
	db           *sql.DB
	pollInterval time.Duration
	logger       *log.Logger
}

// NewSQLiteSubstrate wraps a migrated database.
func NewSQLiteSubstrate(db *sql.DB, pollInterval time.Duration, logger *log.Logger) *SQLiteSubstrate {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SQLiteSubstrate{db: db, pollInterval: pollInterval, logger: logger}
}

// nextVersion increments and returns kv_sequence inside tx.
func nextVersion(tx *sql.Tx) (int64, error) {
	if _, err := tx.Exec("UPDATE kv_sequence SET value = value + 1 WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var version int64
	if err := tx.QueryRow("SELECT value FROM kv_sequence WHERE id = 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}
	return version, nil
}

func (s *SQLiteSubstrate) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

func (s *SQLiteSubstrate) Set(key string, value []byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := nextVersion(tx)
	if err != nil {
		return err
	}

	if value == nil {
		value = []byte{}
	}

	_, err = tx.Exec(`
		INSERT INTO kv (key, value, version, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = excluded.version, updated_at = excluded.updated_at
	`, key, value, version)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if _, err := tx.Exec("DELETE FROM kv_tombstones WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to clear tombstone for %s: %w", key, err)
	}

	return tx.Commit()
}

func (s *SQLiteSubstrate) Remove(key string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	version, err := nextVersion(tx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO kv_tombstones (key, version, removed_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET version = excluded.version, removed_at = excluded.removed_at
	`, key, version)
	if err != nil {
		return fmt.Errorf("failed to record removal of %s: %w", key, err)
	}

	return tx.Commit()
}

// version returns the current version of key, from kv or kv_tombstones, or 0 if neither has it.
func (s *SQLiteSubstrate) version(key string) (int64, error) {
	var version int64
	err := s.db.QueryRow(`
		SELECT COALESCE(
			(SELECT version FROM kv WHERE key = ?),
			(SELECT version FROM kv_tombstones WHERE key = ?),
			0
		)
	`, key, key).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get version of %s: %w", key, err)
	}
	return version, nil
}

func (s *SQLiteSubstrate) Watch(ctx context.Context, key string) (<-chan Change, error) {
	last, err := s.version(key)
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, watchBuffer)
	go func() {
		defer close(ch)

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				v, err := s.version(key)
				if err != nil {
					s.logger.Warn("failed to poll key", "key", key, "error", err)
					continue
				}
				if v == last {
					continue
				}
				last = v

				value, exists, err := s.Get(key)
				if err != nil {
					s.logger.Warn("failed to read changed key", "key", key, "error", err)
					continue
				}
				if !exists {
					value = nil
				}
				notify(ch, Change{Key: key, Value: value})
			}
		}
	}()

	return ch, nil
}

// Close closes the underlying database.
func (s *SQLiteSubstrate) Close() error {
	return s.db.Close()
}
