package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
)

// ListTasksOptions contains filter options for listing tasks
type ListTasksOptions struct {
	IncludeCompleted bool
	Priority         models.Priority
	Search           string
}

// CreateTask creates a new task with a generated ID
func (db *DB) CreateTask(task *models.Task) error {
	return db.withWriteLock(func() error {
		if task.Priority == "" {
			task.Priority = models.PriorityNotUrgentImportant
		}
		if !models.IsValidPriority(task.Priority) {
			return fmt.Errorf("invalid priority: %s", task.Priority)
		}

		stamp := nowStamp()
		task.CreatedAt, _ = parseStamp(stamp)
		task.UpdatedAt = task.CreatedAt

		// Retry loop for rare ID collisions
		const maxRetries = 3
		for attempt := 0; attempt < maxRetries; attempt++ {
			id, err := generateID(taskIDPrefix)
			if err != nil {
				return err
			}
			task.ID = id

			_, err = db.conn.Exec(`
				INSERT INTO tasks (id, title, description, completed, priority, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, task.ID, task.Title, task.Description, task.Completed, task.Priority, stamp, stamp)

			if err == nil {
				return nil
			}
			if !strings.Contains(err.Error(), "UNIQUE constraint") {
				return err
			}
		}
		return fmt.Errorf("failed to generate unique task ID after %d attempts", maxRetries)
	})
}

// GetTask retrieves a task by ID
// Accepts bare IDs without the tk- prefix
func (db *DB) GetTask(id string) (*models.Task, error) {
	id = NormalizeTaskID(id)
	row := db.conn.QueryRow(`
		SELECT id, title, description, completed, priority, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	return task, err
}

// ListTasks returns tasks matching the given filters, newest first
func (db *DB) ListTasks(opts ListTasksOptions) ([]models.Task, error) {
	query := `SELECT id, title, description, completed, priority, created_at, updated_at FROM tasks`
	var conds []string
	var args []interface{}

	if !opts.IncludeCompleted {
		conds = append(conds, "completed = 0")
	}
	if opts.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, opts.Priority)
	}
	if opts.Search != "" {
		conds = append(conds, "(title LIKE ? OR description LIKE ?)")
		pattern := "%" + opts.Search + "%"
		args = append(args, pattern, pattern)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// UpdateTask persists changed fields and stamps updated_at
func (db *DB) UpdateTask(task *models.Task) error {
	return db.withWriteLock(func() error {
		if !models.IsValidPriority(task.Priority) {
			return fmt.Errorf("invalid priority: %s", task.Priority)
		}
		stamp := nowStamp()
		task.UpdatedAt, _ = parseStamp(stamp)

		res, err := db.conn.Exec(`
			UPDATE tasks SET title = ?, description = ?, completed = ?, priority = ?, updated_at = ?
			WHERE id = ?
		`, task.Title, task.Description, task.Completed, task.Priority, stamp, task.ID)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("task not found: %s", task.ID)
		}
		return nil
	})
}

// SetTaskCompleted marks a task done or not done
func (db *DB) SetTaskCompleted(id string, completed bool) error {
	id = NormalizeTaskID(id)
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?`,
			completed, nowStamp(), id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("task not found: %s", id)
		}
		return nil
	})
}

// DeleteTask removes a task and its subtasks, leaving pending tombstones
// so the deletions propagate on the next sync
func (db *DB) DeleteTask(id string) error {
	id = NormalizeTaskID(id)
	return db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stamp := nowStamp()

		rows, err := tx.Query(`SELECT id FROM subtasks WHERE task_id = ?`, id)
		if err != nil {
			return err
		}
		var subIDs []string
		for rows.Next() {
			var sid string
			if err := rows.Scan(&sid); err != nil {
				rows.Close()
				return err
			}
			subIDs = append(subIDs, sid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, sid := range subIDs {
			if _, err := tx.Exec(`DELETE FROM subtasks WHERE id = ?`, sid); err != nil {
				return err
			}
			if err := recordTombstone(tx, models.EntitySubtasks, sid, stamp); err != nil {
				return err
			}
		}

		res, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("task not found: %s", id)
		}
		if err := recordTombstone(tx, models.EntityTasks, id, stamp); err != nil {
			return err
		}

		return tx.Commit()
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var createdAt, updatedAt string
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Completed,
		&task.Priority, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if task.CreatedAt, err = parseStamp(createdAt); err != nil {
		return nil, fmt.Errorf("task %s created_at: %w", task.ID, err)
	}
	if task.UpdatedAt, err = parseStamp(updatedAt); err != nil {
		return nil, fmt.Errorf("task %s updated_at: %w", task.ID, err)
	}
	return &task, nil
}
