package models

import (
	"time"
)

// EntityType identifies a syncable collection. Subtasks and habit
// completions are independent collections from their parents, so a single
// day's check-in syncs without dragging the whole habit along.
type EntityType string

const (
	EntityTasks       EntityType = "tasks"
	EntitySubtasks    EntityType = "subtasks"
	EntityHabits      EntityType = "habits"
	EntityCompletions EntityType = "habit_completions"
)

// SyncableEntities lists every collection the sync engine reconciles,
// in the order they are processed.
func SyncableEntities() []EntityType {
	return []EntityType{EntityTasks, EntitySubtasks, EntityHabits, EntityCompletions}
}

// Priority represents task priority as an Eisenhower matrix bucket
type Priority string

const (
	PriorityUrgentImportant       Priority = "urgent_important"
	PriorityNotUrgentImportant    Priority = "not_urgent_important" // default
	PriorityUrgentNotImportant    Priority = "urgent_not_important"
	PriorityNotUrgentNotImportant Priority = "not_urgent_not_important"
)

// Frequency represents how often a habit is expected
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// Task represents a task in the local store
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Subtask represents a step under a task, synced independently of it
type Subtask struct {
	ID          string     `json:"id"`
	TaskID      string     `json:"task_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Habit represents a recurring habit
type Habit struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Frequency   Frequency `json:"frequency"`
	TargetDays  int       `json:"target_days"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HabitCompletion records a single day's check-in for a habit.
// At most one completion exists per (habit, date).
type HabitCompletion struct {
	ID             string    `json:"id"`
	HabitID        string    `json:"habit_id"`
	CompletionDate string    `json:"completion_date"` // YYYY-MM-DD
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SyncSettings holds the remote account linkage stored in the local DB
type SyncSettings struct {
	Email  string `json:"email,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// Linked reports whether a remote account has been associated.
func (s SyncSettings) Linked() bool {
	return s.UserID != ""
}

// IsValidPriority checks if a priority is valid
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityUrgentImportant, PriorityNotUrgentImportant,
		PriorityUrgentNotImportant, PriorityNotUrgentNotImportant:
		return true
	}
	return false
}

// NormalizePriority converts legacy priority names to canonical form
// Accepts: "high", "medium", "low" as aliases from the pre-matrix schema
func NormalizePriority(p string) Priority {
	switch p {
	case "high":
		return PriorityUrgentImportant
	case "medium":
		return PriorityNotUrgentImportant
	case "low":
		return PriorityNotUrgentNotImportant
	default:
		return Priority(p)
	}
}

// IsValidFrequency checks if a habit frequency is valid
func IsValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	}
	return false
}

// IsValidTargetDays checks the weekly target is within 1..7
func IsValidTargetDays(n int) bool {
	return n >= 1 && n <= 7
}
