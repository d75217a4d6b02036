// Package output provides styled terminal output helpers (success, error,
// warning, task and habit formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
	"github.com/DevJhojan/justice-driven-task-power/internal/sync"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Styles
	titleStyle     = lipgloss.NewStyle().Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityUrgentImportant:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.PriorityNotUrgentImportant:    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.PriorityUrgentNotImportant:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.PriorityNotUrgentNotImportant: lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatPriority formats a priority with its matrix color
func FormatPriority(p models.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		return fmt.Sprintf("[%s]", p)
	}
	return style.Render(fmt.Sprintf("[%s]", PriorityLabel(p)))
}

// PriorityLabel returns a compact label for a matrix bucket
func PriorityLabel(p models.Priority) string {
	switch p {
	case models.PriorityUrgentImportant:
		return "do"
	case models.PriorityNotUrgentImportant:
		return "plan"
	case models.PriorityUrgentNotImportant:
		return "delegate"
	case models.PriorityNotUrgentNotImportant:
		return "drop"
	}
	return string(p)
}

// CompletionMark renders a checkbox for done state
func CompletionMark(done bool) string {
	if done {
		return successStyle.Render("[x]")
	}
	return subtleStyle.Render("[ ]")
}

// FormatTaskShort formats a task as a single list line
func FormatTaskShort(task *models.Task) string {
	parts := []string{
		CompletionMark(task.Completed),
		titleStyle.Render(task.ID),
		FormatPriority(task.Priority),
		task.Title,
	}
	return strings.Join(parts, "  ")
}

// FormatTaskLong formats a task with its subtasks
func FormatTaskLong(task *models.Task, subtasks []models.Subtask) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", task.ID, task.Title)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Priority: %s | Done: %v | Updated: %s\n",
		PriorityLabel(task.Priority), task.Completed, FormatTimeAgo(task.UpdatedAt)))

	if task.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(subtleStyle.Render("Description:"))
		sb.WriteString("\n")
		sb.WriteString(task.Description)
		sb.WriteString("\n")
	}

	if len(subtasks) > 0 {
		sb.WriteString("\nSUBTASKS:\n")
		for _, st := range subtasks {
			line := fmt.Sprintf("  %s %s %s", CompletionMark(st.Completed), titleStyle.Render(st.ID), st.Title)
			if st.Deadline != nil {
				line += subtleStyle.Render(fmt.Sprintf("  due %s", st.Deadline.Format("2006-01-02")))
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// FormatHabitShort formats a habit as a single list line.
// doneToday marks whether today's check-in exists.
func FormatHabitShort(habit *models.Habit, doneToday bool) string {
	parts := []string{
		CompletionMark(doneToday),
		titleStyle.Render(habit.ID),
		habit.Title,
		subtleStyle.Render(fmt.Sprintf("(%s, %d/wk)", habit.Frequency, habit.TargetDays)),
	}
	if !habit.Active {
		parts = append(parts, warningStyle.Render("[paused]"))
	}
	return strings.Join(parts, "  ")
}

// FormatSyncResult renders a sync run summary.
// A run that moved nothing reports exactly that.
func FormatSyncResult(result *sync.Result) string {
	var sb strings.Builder

	if result.NoChanges() {
		sb.WriteString("Already in sync, no changes\n")
	} else {
		for _, entity := range models.SyncableEntities() {
			c := result.Counts[entity]
			if c.Uploaded+c.Downloaded+c.DeletionsUploaded+c.DeletionsDownloaded == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %-18s up %d  down %d", entity, c.Uploaded, c.Downloaded))
			if c.DeletionsUploaded+c.DeletionsDownloaded > 0 {
				sb.WriteString(fmt.Sprintf("  deletions %d/%d", c.DeletionsUploaded, c.DeletionsDownloaded))
			}
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%d changes applied\n", result.TotalChanges()))
	}

	if len(result.Failures) > 0 {
		sb.WriteString(warningStyle.Render(fmt.Sprintf("%d records failed:", len(result.Failures))))
		sb.WriteString("\n")
		for _, f := range result.Failures {
			sb.WriteString(fmt.Sprintf("  %s %s/%s: %s\n", f.Op, f.Entity, f.ID, f.Reason))
		}
	}

	return sb.String()
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
