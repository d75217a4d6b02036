package cmd

import (
	"fmt"
	"time"

	"github.com/DevJhojan/justice-driven-task-power/internal/dateparse"
	"github.com/DevJhojan/justice-driven-task-power/internal/db"
	"github.com/DevJhojan/justice-driven-task-power/internal/models"
	"github.com/DevJhojan/justice-driven-task-power/internal/output"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	Short:   "Manage tasks",
	GroupID: "tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		priority, _ := cmd.Flags().GetString("priority")

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		task := &models.Task{
			Title:       args[0],
			Description: description,
			Priority:    models.NormalizePriority(priority),
		}
		if err := database.CreateTask(task); err != nil {
			output.Error("create task: %v", err)
			return err
		}
		output.Success("Created %s", task.ID)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		priority, _ := cmd.Flags().GetString("priority")
		search, _ := cmd.Flags().GetString("search")
		asJSON, _ := cmd.Flags().GetBool("json")

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		opts := db.ListTasksOptions{IncludeCompleted: all, Search: search}
		if priority != "" {
			opts.Priority = models.NormalizePriority(priority)
		}
		tasks, err := database.ListTasks(opts)
		if err != nil {
			output.Error("list tasks: %v", err)
			return err
		}

		if asJSON {
			return output.JSON(tasks)
		}
		if len(tasks) == 0 {
			output.Info("No tasks")
			return nil
		}
		for i := range tasks {
			output.Info("%s", output.FormatTaskShort(&tasks[i]))
		}
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task with its subtasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		task, err := database.GetTask(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		subtasks, err := database.ListSubtasks(task.ID)
		if err != nil {
			output.Error("list subtasks: %v", err)
			return err
		}

		if asJSON {
			return output.JSON(map[string]interface{}{"task": task, "subtasks": subtasks})
		}
		fmt.Print(output.FormatTaskLong(task, subtasks))
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setTaskDone(args[0], true) },
}

var taskUndoneCmd = &cobra.Command{
	Use:   "undone <id>",
	Short: "Mark a task not done",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setTaskDone(args[0], false) },
}

func setTaskDone(id string, done bool) error {
	database, err := db.Open(getBaseDir())
	if err != nil {
		output.Error("%v", err)
		return err
	}
	defer database.Close()

	if err := database.SetTaskCompleted(id, done); err != nil {
		output.Error("%v", err)
		return err
	}
	if done {
		output.Success("Done %s", db.NormalizeTaskID(id))
	} else {
		output.Success("Reopened %s", db.NormalizeTaskID(id))
	}
	return nil
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a task's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		task, err := database.GetTask(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if cmd.Flags().Changed("title") {
			task.Title, _ = cmd.Flags().GetString("title")
		}
		if cmd.Flags().Changed("description") {
			task.Description, _ = cmd.Flags().GetString("description")
		}
		if cmd.Flags().Changed("priority") {
			p, _ := cmd.Flags().GetString("priority")
			task.Priority = models.NormalizePriority(p)
		}

		if err := database.UpdateTask(task); err != nil {
			output.Error("update task: %v", err)
			return err
		}
		output.Success("Updated %s", task.ID)
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task and its subtasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		if err := database.DeleteTask(args[0]); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Deleted %s", db.NormalizeTaskID(args[0]))
		return nil
	},
}

// --- Subtasks ---

var subtaskCmd = &cobra.Command{
	Use:     "subtask",
	Aliases: []string{"st"},
	Short:   "Manage subtasks",
	GroupID: "tasks",
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add <task-id> <title>",
	Short: "Add a subtask to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		deadlineStr, _ := cmd.Flags().GetString("deadline")

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		subtask := &models.Subtask{
			TaskID:      args[0],
			Title:       args[1],
			Description: description,
		}
		if deadlineStr != "" {
			parsed, err := dateparse.ParseDate(deadlineStr)
			if err != nil {
				output.Error("deadline: %v", err)
				return err
			}
			deadline, err := time.Parse("2006-01-02", parsed)
			if err != nil {
				output.Error("deadline: %v", err)
				return err
			}
			subtask.Deadline = &deadline
		}

		if err := database.CreateSubtask(subtask); err != nil {
			output.Error("create subtask: %v", err)
			return err
		}
		output.Success("Created %s under %s", subtask.ID, subtask.TaskID)
		return nil
	},
}

var subtaskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a subtask done",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setSubtaskDone(args[0], true) },
}

var subtaskUndoneCmd = &cobra.Command{
	Use:   "undone <id>",
	Short: "Mark a subtask not done",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setSubtaskDone(args[0], false) },
}

func setSubtaskDone(id string, done bool) error {
	database, err := db.Open(getBaseDir())
	if err != nil {
		output.Error("%v", err)
		return err
	}
	defer database.Close()

	if err := database.SetSubtaskCompleted(id, done); err != nil {
		output.Error("%v", err)
		return err
	}
	if done {
		output.Success("Done %s", db.NormalizeSubtaskID(id))
	} else {
		output.Success("Reopened %s", db.NormalizeSubtaskID(id))
	}
	return nil
}

var subtaskRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a subtask",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		if err := database.DeleteSubtask(args[0]); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Deleted %s", db.NormalizeSubtaskID(args[0]))
		return nil
	},
}

func init() {
	taskAddCmd.Flags().StringP("description", "d", "", "Task description")
	taskAddCmd.Flags().StringP("priority", "p", "", "Priority bucket (urgent_important, not_urgent_important, urgent_not_important, not_urgent_not_important)")
	taskListCmd.Flags().BoolP("all", "a", false, "Include completed tasks")
	taskListCmd.Flags().StringP("priority", "p", "", "Filter by priority bucket")
	taskListCmd.Flags().StringP("search", "s", "", "Search titles and descriptions")
	taskListCmd.Flags().Bool("json", false, "Output as JSON")
	taskShowCmd.Flags().Bool("json", false, "Output as JSON")
	taskEditCmd.Flags().String("title", "", "New title")
	taskEditCmd.Flags().StringP("description", "d", "", "New description")
	taskEditCmd.Flags().StringP("priority", "p", "", "New priority bucket")

	subtaskAddCmd.Flags().StringP("description", "d", "", "Subtask description")
	subtaskAddCmd.Flags().String("deadline", "", "Deadline (YYYY-MM-DD, +7d, friday, next-week)")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskDoneCmd, taskUndoneCmd, taskEditCmd, taskRmCmd)
	subtaskCmd.AddCommand(subtaskAddCmd, subtaskDoneCmd, subtaskUndoneCmd, subtaskRmCmd)
	rootCmd.AddCommand(taskCmd, subtaskCmd)
}
