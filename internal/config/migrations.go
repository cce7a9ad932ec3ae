package config

import "fmt"

// migrations are applied in order. PRAGMA user_version records how many have
// run, so each statement executes once per database.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	)`,

	// v2: Track when each setting was last written.
	`ALTER TABLE settings ADD COLUMN updated_at DATETIME`,
}

func (s *Store) migrate() error {
	var applied int
	if err := s.db.Get(&applied, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := applied; i < len(migrations); i++ {
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration v%d failed: %w\nSQL: %s", i+1, err, migrations[i])
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("record schema version v%d: %w", i+1, err)
		}
	}
	return nil
}
