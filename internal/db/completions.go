package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
)

// CompleteHabit records a check-in for the given date (YYYY-MM-DD).
// Returns false if the habit was already completed on that date.
func (db *DB) CompleteHabit(habitID, date string) (bool, error) {
	habitID = NormalizeHabitID(habitID)
	created := false
	err := db.withWriteLock(func() error {
		var exists int
		if err := db.conn.QueryRow(`SELECT COUNT(1) FROM habits WHERE id = ?`, habitID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("habit not found: %s", habitID)
		}

		stamp := nowStamp()
		const maxRetries = 3
		for attempt := 0; attempt < maxRetries; attempt++ {
			id, err := generateID(completionIDPrefix)
			if err != nil {
				return err
			}

			res, err := db.conn.Exec(`
				INSERT OR IGNORE INTO habit_completions (id, habit_id, completion_date, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?)
			`, id, habitID, date, stamp, stamp)
			if err != nil {
				// IGNORE swallows the (habit_id, date) conflict, so any
				// UNIQUE error here is an id collision worth retrying
				if strings.Contains(err.Error(), "UNIQUE constraint") {
					continue
				}
				return err
			}
			n, _ := res.RowsAffected()
			created = n > 0
			return nil
		}
		return fmt.Errorf("failed to generate unique completion ID after %d attempts", maxRetries)
	})
	return created, err
}

// UncompleteHabit removes the check-in for the given date, leaving a
// pending tombstone. Returns false if no check-in existed.
func (db *DB) UncompleteHabit(habitID, date string) (bool, error) {
	habitID = NormalizeHabitID(habitID)
	removed := false
	err := db.withWriteLock(func() error {
		var id string
		err := db.conn.QueryRow(`SELECT id FROM habit_completions WHERE habit_id = ? AND completion_date = ?`,
			habitID, date).Scan(&id)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM habit_completions WHERE id = ?`, id); err != nil {
			return err
		}
		if err := recordTombstone(tx, models.EntityCompletions, id, nowStamp()); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

// ListCompletions returns a habit's check-ins, most recent date first
func (db *DB) ListCompletions(habitID string) ([]models.HabitCompletion, error) {
	habitID = NormalizeHabitID(habitID)
	rows, err := db.conn.Query(`
		SELECT id, habit_id, completion_date, created_at, updated_at
		FROM habit_completions WHERE habit_id = ? ORDER BY completion_date DESC
	`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var completions []models.HabitCompletion
	for rows.Next() {
		var c models.HabitCompletion
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.HabitID, &c.CompletionDate, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseStamp(createdAt); err != nil {
			return nil, fmt.Errorf("completion %s created_at: %w", c.ID, err)
		}
		if c.UpdatedAt, err = parseStamp(updatedAt); err != nil {
			return nil, fmt.Errorf("completion %s updated_at: %w", c.ID, err)
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// IsCompletedOn reports whether a habit has a check-in for the given date
func (db *DB) IsCompletedOn(habitID, date string) (bool, error) {
	habitID = NormalizeHabitID(habitID)
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(1) FROM habit_completions WHERE habit_id = ? AND completion_date = ?`,
		habitID, date).Scan(&count)
	return count > 0, err
}

// CompletionCountSince counts a habit's check-ins on or after the given date
func (db *DB) CompletionCountSince(habitID, date string) (int, error) {
	habitID = NormalizeHabitID(habitID)
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(1) FROM habit_completions WHERE habit_id = ? AND completion_date >= ?`,
		habitID, date).Scan(&count)
	return count, err
}
