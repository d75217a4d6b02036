package cmd

import (
	"time"

	"github.com/DevJhojan/justice-driven-task-power/internal/dateparse"
	"github.com/DevJhojan/justice-driven-task-power/internal/db"
	"github.com/DevJhojan/justice-driven-task-power/internal/models"
	"github.com/DevJhojan/justice-driven-task-power/internal/output"
	"github.com/spf13/cobra"
)

var habitCmd = &cobra.Command{
	Use:     "habit",
	Aliases: []string{"h"},
	Short:   "Manage habits",
	GroupID: "habits",
}

var habitAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		frequency, _ := cmd.Flags().GetString("frequency")
		targetDays, _ := cmd.Flags().GetInt("target-days")

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		habit := &models.Habit{
			Title:       args[0],
			Description: description,
			Frequency:   models.Frequency(frequency),
			TargetDays:  targetDays,
		}
		if err := database.CreateHabit(habit); err != nil {
			output.Error("create habit: %v", err)
			return err
		}
		output.Success("Created %s", habit.ID)
		return nil
	},
}

var habitListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List habits with today's check-in state",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		asJSON, _ := cmd.Flags().GetBool("json")

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		habits, err := database.ListHabits(!all)
		if err != nil {
			output.Error("list habits: %v", err)
			return err
		}

		if asJSON {
			return output.JSON(habits)
		}
		if len(habits) == 0 {
			output.Info("No habits")
			return nil
		}
		today := time.Now().Format("2006-01-02")
		for i := range habits {
			done, err := database.IsCompletedOn(habits[i].ID, today)
			if err != nil {
				output.Error("check completion: %v", err)
				return err
			}
			output.Info("%s", output.FormatHabitShort(&habits[i], done))
		}
		return nil
	},
}

var habitDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Check in a habit for today (or --date)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := completionDate(cmd)
		if err != nil {
			return err
		}

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		created, err := database.CompleteHabit(args[0], date)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if !created {
			output.Info("Already checked in for %s", date)
			return nil
		}
		output.Success("Checked in %s for %s", db.NormalizeHabitID(args[0]), date)
		return nil
	},
}

var habitUndoneCmd = &cobra.Command{
	Use:   "undone <id>",
	Short: "Remove a habit check-in for today (or --date)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := completionDate(cmd)
		if err != nil {
			return err
		}

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		removed, err := database.UncompleteHabit(args[0], date)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if !removed {
			output.Info("No check-in on %s", date)
			return nil
		}
		output.Success("Removed check-in for %s", date)
		return nil
	},
}

var habitLogCmd = &cobra.Command{
	Use:   "log <id>",
	Short: "Show a habit's check-in history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		habit, err := database.GetHabit(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		completions, err := database.ListCompletions(habit.ID)
		if err != nil {
			output.Error("list completions: %v", err)
			return err
		}

		if asJSON {
			return output.JSON(completions)
		}
		weekAgo := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
		thisWeek, err := database.CompletionCountSince(habit.ID, weekAgo)
		if err != nil {
			output.Error("count completions: %v", err)
			return err
		}
		output.Info("%s: %d check-ins total, %d/%d this week", habit.Title, len(completions), thisWeek, habit.TargetDays)
		for _, c := range completions {
			output.Info("  %s", c.CompletionDate)
		}
		return nil
	},
}

var habitPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause a habit",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setHabitActive(args[0], false) },
}

var habitResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a paused habit",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setHabitActive(args[0], true) },
}

func setHabitActive(id string, active bool) error {
	database, err := db.Open(getBaseDir())
	if err != nil {
		output.Error("%v", err)
		return err
	}
	defer database.Close()

	if err := database.SetHabitActive(id, active); err != nil {
		output.Error("%v", err)
		return err
	}
	if active {
		output.Success("Resumed %s", db.NormalizeHabitID(id))
	} else {
		output.Success("Paused %s", db.NormalizeHabitID(id))
	}
	return nil
}

var habitRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a habit and its check-ins",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		if err := database.DeleteHabit(args[0]); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Deleted %s", db.NormalizeHabitID(args[0]))
		return nil
	},
}

// completionDate reads --date, defaulting to today
func completionDate(cmd *cobra.Command) (string, error) {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		return time.Now().Format("2006-01-02"), nil
	}
	parsed, err := dateparse.ParseDate(date)
	if err != nil {
		output.Error("date: %v", err)
		return "", err
	}
	return parsed, nil
}

func init() {
	habitAddCmd.Flags().StringP("description", "d", "", "Habit description")
	habitAddCmd.Flags().StringP("frequency", "f", "daily", "Frequency (daily, weekly, custom)")
	habitAddCmd.Flags().IntP("target-days", "t", 0, "Target days per week (1-7)")
	habitListCmd.Flags().BoolP("all", "a", false, "Include paused habits")
	habitListCmd.Flags().Bool("json", false, "Output as JSON")
	habitDoneCmd.Flags().String("date", "", "Check-in date (YYYY-MM-DD or yesterday), default today")
	habitUndoneCmd.Flags().String("date", "", "Check-in date (YYYY-MM-DD or yesterday), default today")
	habitLogCmd.Flags().Bool("json", false, "Output as JSON")

	habitCmd.AddCommand(habitAddCmd, habitListCmd, habitDoneCmd, habitUndoneCmd, habitLogCmd, habitPauseCmd, habitResumeCmd, habitRmCmd)
	rootCmd.AddCommand(habitCmd)
}
