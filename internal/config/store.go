package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store is the console's local durable state, backed by SQLite. It keeps a
// small key-value settings table; the session store uses it for the
// identity and token slots.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) the state database under dataDir. Pass an
// empty string for an in-memory database.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "assetctl.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate state database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

type settingRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// GetSetting returns a single setting value.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	if err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting inserts or replaces a single setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.WriteSlots(ctx, map[string]string{key: value})
}

// ReadSlots returns the values stored under keys. Missing keys are absent
// from the result. All keys are read in one statement, so the result is a
// consistent snapshot.
func (s *Store) ReadSlots(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	q, args, err := sqlx.In("SELECT key, value FROM settings WHERE key IN (?)", keys)
	if err != nil {
		return nil, fmt.Errorf("build slot query: %w", err)
	}

	var rows []settingRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("read slots: %w", err)
	}
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// WriteSlots upserts every slot within a single transaction. On error no
// slot is changed.
func (s *Store) WriteSlots(ctx context.Context, slots map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const q = `INSERT INTO settings (key, value, updated_at) VALUES (:key, :value, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	for k, v := range slots {
		if _, err := tx.NamedExecContext(ctx, q, settingRow{Key: k, Value: v}); err != nil {
			return fmt.Errorf("write slot %q: %w", k, err)
		}
	}
	return tx.Commit()
}

// DeleteSlots removes every listed slot within a single transaction.
// Deleting a missing slot is not an error.
func (s *Store) DeleteSlots(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	q, args, err := sqlx.In("DELETE FROM settings WHERE key IN (?)", keys)
	if err != nil {
		return fmt.Errorf("build slot delete: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	return tx.Commit()
}
