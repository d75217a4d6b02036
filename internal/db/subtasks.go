package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
)

// CreateSubtask creates a new subtask under an existing task
func (db *DB) CreateSubtask(subtask *models.Subtask) error {
	subtask.TaskID = NormalizeTaskID(subtask.TaskID)
	return db.withWriteLock(func() error {
		var exists int
		err := db.conn.QueryRow(`SELECT COUNT(1) FROM tasks WHERE id = ?`, subtask.TaskID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("task not found: %s", subtask.TaskID)
		}

		stamp := nowStamp()
		subtask.CreatedAt, _ = parseStamp(stamp)
		subtask.UpdatedAt = subtask.CreatedAt

		var deadline interface{}
		if subtask.Deadline != nil {
			deadline = subtask.Deadline.UTC().Format(time.RFC3339)
		}

		const maxRetries = 3
		for attempt := 0; attempt < maxRetries; attempt++ {
			id, err := generateID(subtaskIDPrefix)
			if err != nil {
				return err
			}
			subtask.ID = id

			_, err = db.conn.Exec(`
				INSERT INTO subtasks (id, task_id, title, description, deadline, completed, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, subtask.ID, subtask.TaskID, subtask.Title, subtask.Description, deadline, subtask.Completed, stamp, stamp)

			if err == nil {
				return nil
			}
			if !strings.Contains(err.Error(), "UNIQUE constraint") {
				return err
			}
		}
		return fmt.Errorf("failed to generate unique subtask ID after %d attempts", maxRetries)
	})
}

// GetSubtask retrieves a subtask by ID
func (db *DB) GetSubtask(id string) (*models.Subtask, error) {
	id = NormalizeSubtaskID(id)
	row := db.conn.QueryRow(`
		SELECT id, task_id, title, description, deadline, completed, created_at, updated_at
		FROM subtasks WHERE id = ?
	`, id)
	subtask, err := scanSubtask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subtask not found: %s", id)
	}
	return subtask, err
}

// ListSubtasks returns all subtasks of a task, oldest first
func (db *DB) ListSubtasks(taskID string) ([]models.Subtask, error) {
	taskID = NormalizeTaskID(taskID)
	rows, err := db.conn.Query(`
		SELECT id, task_id, title, description, deadline, completed, created_at, updated_at
		FROM subtasks WHERE task_id = ? ORDER BY created_at ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subtasks []models.Subtask
	for rows.Next() {
		subtask, err := scanSubtask(rows)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, *subtask)
	}
	return subtasks, rows.Err()
}

// UpdateSubtask persists changed fields and stamps updated_at
func (db *DB) UpdateSubtask(subtask *models.Subtask) error {
	return db.withWriteLock(func() error {
		stamp := nowStamp()
		subtask.UpdatedAt, _ = parseStamp(stamp)

		var deadline interface{}
		if subtask.Deadline != nil {
			deadline = subtask.Deadline.UTC().Format(time.RFC3339)
		}

		res, err := db.conn.Exec(`
			UPDATE subtasks SET title = ?, description = ?, deadline = ?, completed = ?, updated_at = ?
			WHERE id = ?
		`, subtask.Title, subtask.Description, deadline, subtask.Completed, stamp, subtask.ID)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("subtask not found: %s", subtask.ID)
		}
		return nil
	})
}

// SetSubtaskCompleted marks a subtask done or not done
func (db *DB) SetSubtaskCompleted(id string, completed bool) error {
	id = NormalizeSubtaskID(id)
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`UPDATE subtasks SET completed = ?, updated_at = ? WHERE id = ?`,
			completed, nowStamp(), id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("subtask not found: %s", id)
		}
		return nil
	})
}

// DeleteSubtask removes a subtask, leaving a pending tombstone
func (db *DB) DeleteSubtask(id string) error {
	id = NormalizeSubtaskID(id)
	return db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		res, err := tx.Exec(`DELETE FROM subtasks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("subtask not found: %s", id)
		}
		if err := recordTombstone(tx, models.EntitySubtasks, id, nowStamp()); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func scanSubtask(row rowScanner) (*models.Subtask, error) {
	var subtask models.Subtask
	var createdAt, updatedAt string
	var deadline sql.NullString
	err := row.Scan(&subtask.ID, &subtask.TaskID, &subtask.Title, &subtask.Description,
		&deadline, &subtask.Completed, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if deadline.Valid && deadline.String != "" {
		t, err := parseStamp(deadline.String)
		if err != nil {
			return nil, fmt.Errorf("subtask %s deadline: %w", subtask.ID, err)
		}
		subtask.Deadline = &t
	}
	if subtask.CreatedAt, err = parseStamp(createdAt); err != nil {
		return nil, fmt.Errorf("subtask %s created_at: %w", subtask.ID, err)
	}
	if subtask.UpdatedAt, err = parseStamp(updatedAt); err != nil {
		return nil, fmt.Errorf("subtask %s updated_at: %w", subtask.ID, err)
	}
	return &subtask, nil
}
