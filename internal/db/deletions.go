package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
	"github.com/DevJhojan/justice-driven-task-power/internal/sync"
)

// recordTombstone writes a pending tombstone inside an existing transaction.
// REPLACE keeps the latest deleted_at if the same id is deleted again after
// a re-download.
func recordTombstone(tx *sql.Tx, entity models.EntityType, id, deletedAt string) error {
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO deleted_items (item_type, item_id, deleted_at, synced_at)
		VALUES (?, ?, ?, NULL)
	`, entity, id, deletedAt)
	if err != nil {
		return fmt.Errorf("record tombstone %s/%s: %w", entity, id, err)
	}
	return nil
}

// PendingDeletions returns tombstones not yet pushed to the remote
func (db *DB) PendingDeletions(entity models.EntityType) ([]sync.Deletion, error) {
	rows, err := db.conn.Query(`
		SELECT item_id, deleted_at FROM deleted_items
		WHERE item_type = ? AND synced_at IS NULL
	`, entity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dels []sync.Deletion
	for rows.Next() {
		d := sync.Deletion{Entity: entity}
		if err := rows.Scan(&d.ID, &d.DeletedAt); err != nil {
			return nil, err
		}
		dels = append(dels, d)
	}
	return dels, rows.Err()
}

// Tombstones returns every tombstone for the entity, keyed by id
func (db *DB) Tombstones(entity models.EntityType) (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT item_id, deleted_at FROM deleted_items WHERE item_type = ?`, entity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, deletedAt string
		if err := rows.Scan(&id, &deletedAt); err != nil {
			return nil, err
		}
		out[id] = deletedAt
	}
	return out, rows.Err()
}

// MarkDeletionSynced records that a tombstone was pushed to the remote
func (db *DB) MarkDeletionSynced(entity models.EntityType, id string) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			UPDATE deleted_items SET synced_at = ? WHERE item_type = ? AND item_id = ?
		`, nowStamp(), entity, id)
		return err
	})
}

// ApplyRemoteDeletion removes a record deleted on another device. The
// tombstone is stored already synced so it is not pushed back out.
// Returns true if a live record was removed.
func (db *DB) ApplyRemoteDeletion(entity models.EntityType, id, deletedAt string) (bool, error) {
	table, err := entityTable(entity)
	if err != nil {
		return false, err
	}

	removed := false
	err = db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		res, err := tx.Exec(`DELETE FROM `+table+` WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		removed = n > 0

		_, err = tx.Exec(`
			INSERT OR REPLACE INTO deleted_items (item_type, item_id, deleted_at, synced_at)
			VALUES (?, ?, ?, ?)
		`, entity, id, deletedAt, nowStamp())
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	return removed, err
}

// PurgeSyncedTombstones deletes tombstones acknowledged by the remote
// longer ago than the given age. The cutoff compares synced_at, which is
// always written by nowStamp, never deleted_at, which keeps whatever
// format the deleting writer used. Pending tombstones are never purged.
// Returns the number removed.
func (db *DB) PurgeSyncedTombstones(olderThan time.Duration) (int, error) {
	cutoff := sync.FormatTimestamp(time.Now().Add(-olderThan))
	var purged int
	err := db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			DELETE FROM deleted_items WHERE synced_at IS NOT NULL AND synced_at < ?
		`, cutoff)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		purged = int(n)
		return nil
	})
	return purged, err
}

func entityTable(entity models.EntityType) (string, error) {
	switch entity {
	case models.EntityTasks:
		return "tasks", nil
	case models.EntitySubtasks:
		return "subtasks", nil
	case models.EntityHabits:
		return "habits", nil
	case models.EntityCompletions:
		return "habit_completions", nil
	}
	return "", fmt.Errorf("unknown entity type: %s", entity)
}
