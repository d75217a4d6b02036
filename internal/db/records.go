package db

import (
	"encoding/json"
	"fmt"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
	"github.com/DevJhojan/justice-driven-task-power/internal/sync"
)

// Wire structs keep timestamps as raw strings. Remote writers stamp with
// varying precision; storing the string verbatim keeps repeat comparisons
// stable across runs.
type taskWire struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
	Priority    string `json:"priority"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type subtaskWire struct {
	ID          string `json:"id"`
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type habitWire struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Frequency   string `json:"frequency"`
	TargetDays  int    `json:"target_days"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type completionWire struct {
	ID             string `json:"id"`
	HabitID        string `json:"habit_id"`
	CompletionDate string `json:"completion_date"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// GetAll returns every live record of the entity in wire form
func (db *DB) GetAll(entity models.EntityType) ([]sync.Record, error) {
	switch entity {
	case models.EntityTasks:
		return db.allTaskRecords()
	case models.EntitySubtasks:
		return db.allSubtaskRecords()
	case models.EntityHabits:
		return db.allHabitRecords()
	case models.EntityCompletions:
		return db.allCompletionRecords()
	}
	return nil, fmt.Errorf("unknown entity type: %s", entity)
}

// Upsert inserts or replaces a record under its existing id
func (db *DB) Upsert(rec sync.Record) error {
	return db.withWriteLock(func() error {
		switch rec.Entity {
		case models.EntityTasks:
			return db.upsertTask(rec)
		case models.EntitySubtasks:
			return db.upsertSubtask(rec)
		case models.EntityHabits:
			return db.upsertHabit(rec)
		case models.EntityCompletions:
			return db.upsertCompletion(rec)
		}
		return fmt.Errorf("unknown entity type: %s", rec.Entity)
	})
}

func (db *DB) allTaskRecords() ([]sync.Record, error) {
	rows, err := db.conn.Query(`SELECT id, title, description, completed, priority, created_at, updated_at FROM tasks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []sync.Record
	for rows.Next() {
		var w taskWire
		if err := rows.Scan(&w.ID, &w.Title, &w.Description, &w.Completed, &w.Priority, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		rec, err := wireRecord(models.EntityTasks, w.ID, w.UpdatedAt, w)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (db *DB) allSubtaskRecords() ([]sync.Record, error) {
	rows, err := db.conn.Query(`SELECT id, task_id, title, description, COALESCE(deadline, ''), completed, created_at, updated_at FROM subtasks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []sync.Record
	for rows.Next() {
		var w subtaskWire
		if err := rows.Scan(&w.ID, &w.TaskID, &w.Title, &w.Description, &w.Deadline, &w.Completed, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		rec, err := wireRecord(models.EntitySubtasks, w.ID, w.UpdatedAt, w)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (db *DB) allHabitRecords() ([]sync.Record, error) {
	rows, err := db.conn.Query(`SELECT id, title, description, frequency, target_days, active, created_at, updated_at FROM habits`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []sync.Record
	for rows.Next() {
		var w habitWire
		if err := rows.Scan(&w.ID, &w.Title, &w.Description, &w.Frequency, &w.TargetDays, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		rec, err := wireRecord(models.EntityHabits, w.ID, w.UpdatedAt, w)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (db *DB) allCompletionRecords() ([]sync.Record, error) {
	rows, err := db.conn.Query(`SELECT id, habit_id, completion_date, created_at, updated_at FROM habit_completions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []sync.Record
	for rows.Next() {
		var w completionWire
		if err := rows.Scan(&w.ID, &w.HabitID, &w.CompletionDate, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		rec, err := wireRecord(models.EntityCompletions, w.ID, w.UpdatedAt, w)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func wireRecord(entity models.EntityType, id, updatedAt string, payload interface{}) (sync.Record, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return sync.Record{}, fmt.Errorf("marshal %s %s: %w", entity, id, err)
	}
	return sync.Record{Entity: entity, ID: id, UpdatedAt: updatedAt, Payload: data}, nil
}

func (db *DB) upsertTask(rec sync.Record) error {
	var w taskWire
	if err := json.Unmarshal(rec.Payload, &w); err != nil {
		return fmt.Errorf("unmarshal task %s: %w", rec.ID, err)
	}
	priority := models.NormalizePriority(w.Priority)
	if !models.IsValidPriority(priority) {
		priority = models.PriorityNotUrgentImportant
	}
	if w.CreatedAt == "" {
		w.CreatedAt = rec.UpdatedAt
	}
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO tasks (id, title, description, completed, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, w.Title, w.Description, w.Completed, priority, w.CreatedAt, rec.UpdatedAt)
	return err
}

func (db *DB) upsertSubtask(rec sync.Record) error {
	var w subtaskWire
	if err := json.Unmarshal(rec.Payload, &w); err != nil {
		return fmt.Errorf("unmarshal subtask %s: %w", rec.ID, err)
	}
	var deadline interface{}
	if w.Deadline != "" {
		deadline = w.Deadline
	}
	if w.CreatedAt == "" {
		w.CreatedAt = rec.UpdatedAt
	}
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO subtasks (id, task_id, title, description, deadline, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, w.TaskID, w.Title, w.Description, deadline, w.Completed, w.CreatedAt, rec.UpdatedAt)
	return err
}

func (db *DB) upsertHabit(rec sync.Record) error {
	var w habitWire
	if err := json.Unmarshal(rec.Payload, &w); err != nil {
		return fmt.Errorf("unmarshal habit %s: %w", rec.ID, err)
	}
	if !models.IsValidFrequency(models.Frequency(w.Frequency)) {
		w.Frequency = string(models.FrequencyDaily)
	}
	if !models.IsValidTargetDays(w.TargetDays) {
		w.TargetDays = 7
	}
	if w.CreatedAt == "" {
		w.CreatedAt = rec.UpdatedAt
	}
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO habits (id, title, description, frequency, target_days, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, w.Title, w.Description, w.Frequency, w.TargetDays, w.Active, w.CreatedAt, rec.UpdatedAt)
	return err
}

func (db *DB) upsertCompletion(rec sync.Record) error {
	var w completionWire
	if err := json.Unmarshal(rec.Payload, &w); err != nil {
		return fmt.Errorf("unmarshal completion %s: %w", rec.ID, err)
	}
	if w.CreatedAt == "" {
		w.CreatedAt = rec.UpdatedAt
	}
	// The (habit_id, date) constraint can collide with a locally created
	// check-in under a different id. The remote copy wins so both devices
	// converge on one id for the day.
	if _, err := db.conn.Exec(`DELETE FROM habit_completions WHERE habit_id = ? AND completion_date = ? AND id != ?`,
		w.HabitID, w.CompletionDate, rec.ID); err != nil {
		return err
	}
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO habit_completions (id, habit_id, completion_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, w.HabitID, w.CompletionDate, w.CreatedAt, rec.UpdatedAt)
	return err
}
