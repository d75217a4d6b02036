package db

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const (
	taskIDPrefix       = "tk-"
	subtaskIDPrefix    = "st-"
	habitIDPrefix      = "hb-"
	completionIDPrefix = "hc-"
)

// NormalizeTaskID ensures a task ID has the tk- prefix
// Accepts bare hex IDs like "a1b2c3" and returns "tk-a1b2c3"
func NormalizeTaskID(id string) string {
	return normalizeID(taskIDPrefix, id)
}

// NormalizeSubtaskID ensures a subtask ID has the st- prefix
func NormalizeSubtaskID(id string) string {
	return normalizeID(subtaskIDPrefix, id)
}

// NormalizeHabitID ensures a habit ID has the hb- prefix
func NormalizeHabitID(id string) string {
	return normalizeID(habitIDPrefix, id)
}

func normalizeID(prefix, id string) string {
	if id == "" {
		return id
	}
	if !strings.HasPrefix(id, prefix) {
		return prefix + id
	}
	return id
}

// generateID generates a prefixed random ID. 8 hex characters gives a
// 4.3B keyspace, plenty for a personal store; creates retry on collision.
func generateID(prefix string) (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(bytes), nil
}
