package db

import "fmt"

// RunMigrations brings the schema up to SchemaVersion.
// Returns the number of migrations applied.
func (db *DB) RunMigrations() (int, error) {
	current, err := db.GetSchemaVersion()
	if err != nil {
		return 0, err
	}
	if current >= SchemaVersion {
		return 0, nil
	}

	applied := 0
	err = db.withWriteLock(func() error {
		for v := current + 1; v <= SchemaVersion; v++ {
			if err := db.applyMigration(v); err != nil {
				return fmt.Errorf("migration %d: %w", v, err)
			}
			if err := db.setSchemaVersion(v); err != nil {
				return err
			}
			applied++
		}
		return nil
	})
	return applied, err
}

func (db *DB) applyMigration(version int) error {
	switch version {
	case 1:
		// Base schema, created by Initialize
		_, err := db.conn.Exec(schema)
		return err
	case 2:
		// Rewrite legacy three-level priorities as matrix buckets
		for old, canonical := range map[string]string{
			"high":   "urgent_important",
			"medium": "not_urgent_important",
			"low":    "not_urgent_not_important",
		} {
			if _, err := db.conn.Exec(`UPDATE tasks SET priority = ? WHERE priority = ?`, canonical, old); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown schema version %d", version)
	}
}
