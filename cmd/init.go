package cmd

import (
	"os"
	"path/filepath"

	"github.com/DevJhojan/justice-driven-task-power/internal/db"
	"github.com/DevJhojan/justice-driven-task-power/internal/output"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize the local database",
	Long:    `Creates the local .jtp directory and SQLite database.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		if _, err := os.Stat(filepath.Join(baseDir, ".jtp")); err == nil {
			output.Warning(".jtp/ already exists")
			return nil
		}

		database, err := db.Initialize(baseDir)
		if err != nil {
			output.Error("failed to initialize database: %v", err)
			return err
		}
		defer database.Close()

		output.Success("Initialized .jtp/")
		output.Info("Next: jtp task add \"something worth doing\"")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
