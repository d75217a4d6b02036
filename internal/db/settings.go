package db

import (
	"database/sql"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
)

// GetSyncSettings returns the stored remote account linkage.
// An unlinked database returns zero-value settings, not an error.
func (db *DB) GetSyncSettings() (models.SyncSettings, error) {
	var s models.SyncSettings
	err := db.conn.QueryRow(`SELECT email, user_id FROM sync_settings WHERE id = 1`).
		Scan(&s.Email, &s.UserID)
	if err == sql.ErrNoRows {
		return s, nil
	}
	return s, err
}

// SetSyncSettings stores the remote account linkage
func (db *DB) SetSyncSettings(s models.SyncSettings) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT OR REPLACE INTO sync_settings (id, email, user_id) VALUES (1, ?, ?)
		`, s.Email, s.UserID)
		return err
	})
}

// ClearSyncSettings removes the remote account linkage
func (db *DB) ClearSyncSettings() error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`DELETE FROM sync_settings WHERE id = 1`)
		return err
	})
}
