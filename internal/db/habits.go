package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
)

// CreateHabit creates a new habit with a generated ID
func (db *DB) CreateHabit(habit *models.Habit) error {
	return db.withWriteLock(func() error {
		if habit.Frequency == "" {
			habit.Frequency = models.FrequencyDaily
		}
		if !models.IsValidFrequency(habit.Frequency) {
			return fmt.Errorf("invalid frequency: %s", habit.Frequency)
		}
		if habit.TargetDays == 0 {
			habit.TargetDays = 7
		}
		if !models.IsValidTargetDays(habit.TargetDays) {
			return fmt.Errorf("target days must be between 1 and 7, got %d", habit.TargetDays)
		}
		habit.Active = true

		stamp := nowStamp()
		habit.CreatedAt, _ = parseStamp(stamp)
		habit.UpdatedAt = habit.CreatedAt

		const maxRetries = 3
		for attempt := 0; attempt < maxRetries; attempt++ {
			id, err := generateID(habitIDPrefix)
			if err != nil {
				return err
			}
			habit.ID = id

			_, err = db.conn.Exec(`
				INSERT INTO habits (id, title, description, frequency, target_days, active, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, habit.ID, habit.Title, habit.Description, habit.Frequency, habit.TargetDays, habit.Active, stamp, stamp)

			if err == nil {
				return nil
			}
			if !strings.Contains(err.Error(), "UNIQUE constraint") {
				return err
			}
		}
		return fmt.Errorf("failed to generate unique habit ID after %d attempts", maxRetries)
	})
}

// GetHabit retrieves a habit by ID
func (db *DB) GetHabit(id string) (*models.Habit, error) {
	id = NormalizeHabitID(id)
	row := db.conn.QueryRow(`
		SELECT id, title, description, frequency, target_days, active, created_at, updated_at
		FROM habits WHERE id = ?
	`, id)
	habit, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("habit not found: %s", id)
	}
	return habit, err
}

// ListHabits returns habits, optionally only active ones, oldest first
func (db *DB) ListHabits(activeOnly bool) ([]models.Habit, error) {
	query := `SELECT id, title, description, frequency, target_days, active, created_at, updated_at FROM habits`
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY created_at ASC"

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *habit)
	}
	return habits, rows.Err()
}

// UpdateHabit persists changed fields and stamps updated_at
func (db *DB) UpdateHabit(habit *models.Habit) error {
	return db.withWriteLock(func() error {
		if !models.IsValidFrequency(habit.Frequency) {
			return fmt.Errorf("invalid frequency: %s", habit.Frequency)
		}
		if !models.IsValidTargetDays(habit.TargetDays) {
			return fmt.Errorf("target days must be between 1 and 7, got %d", habit.TargetDays)
		}
		stamp := nowStamp()
		habit.UpdatedAt, _ = parseStamp(stamp)

		res, err := db.conn.Exec(`
			UPDATE habits SET title = ?, description = ?, frequency = ?, target_days = ?, active = ?, updated_at = ?
			WHERE id = ?
		`, habit.Title, habit.Description, habit.Frequency, habit.TargetDays, habit.Active, stamp, habit.ID)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("habit not found: %s", habit.ID)
		}
		return nil
	})
}

// SetHabitActive pauses or resumes a habit
func (db *DB) SetHabitActive(id string, active bool) error {
	id = NormalizeHabitID(id)
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`UPDATE habits SET active = ?, updated_at = ? WHERE id = ?`,
			active, nowStamp(), id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("habit not found: %s", id)
		}
		return nil
	})
}

// DeleteHabit removes a habit and its completions, leaving pending
// tombstones so the deletions propagate on the next sync
func (db *DB) DeleteHabit(id string) error {
	id = NormalizeHabitID(id)
	return db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stamp := nowStamp()

		rows, err := tx.Query(`SELECT id FROM habit_completions WHERE habit_id = ?`, id)
		if err != nil {
			return err
		}
		var compIDs []string
		for rows.Next() {
			var cid string
			if err := rows.Scan(&cid); err != nil {
				rows.Close()
				return err
			}
			compIDs = append(compIDs, cid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, cid := range compIDs {
			if _, err := tx.Exec(`DELETE FROM habit_completions WHERE id = ?`, cid); err != nil {
				return err
			}
			if err := recordTombstone(tx, models.EntityCompletions, cid, stamp); err != nil {
				return err
			}
		}

		res, err := tx.Exec(`DELETE FROM habits WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("habit not found: %s", id)
		}
		if err := recordTombstone(tx, models.EntityHabits, id, stamp); err != nil {
			return err
		}

		return tx.Commit()
	})
}

func scanHabit(row rowScanner) (*models.Habit, error) {
	var habit models.Habit
	var createdAt, updatedAt string
	err := row.Scan(&habit.ID, &habit.Title, &habit.Description, &habit.Frequency,
		&habit.TargetDays, &habit.Active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if habit.CreatedAt, err = parseStamp(createdAt); err != nil {
		return nil, fmt.Errorf("habit %s created_at: %w", habit.ID, err)
	}
	if habit.UpdatedAt, err = parseStamp(updatedAt); err != nil {
		return nil, fmt.Errorf("habit %s updated_at: %w", habit.ID, err)
	}
	return &habit, nil
}
