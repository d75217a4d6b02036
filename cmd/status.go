package cmd

import (
	"fmt"

	"github.com/DevJhojan/justice-driven-task-power/internal/db"
	"github.com/DevJhojan/justice-driven-task-power/internal/models"
	"github.com/DevJhojan/justice-driven-task-power/internal/output"
	"github.com/DevJhojan/justice-driven-task-power/internal/syncconfig"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show database and account status",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("open database: %v", err)
			return err
		}
		defer database.Close()

		schemaVersion, err := database.GetSchemaVersion()
		if err != nil {
			output.Error("schema version: %v", err)
			return err
		}

		counts := make(map[models.EntityType]int)
		pending := 0
		for _, entity := range models.SyncableEntities() {
			recs, err := database.GetAll(entity)
			if err != nil {
				output.Error("read %s: %v", entity, err)
				return err
			}
			counts[entity] = len(recs)
			dels, err := database.PendingDeletions(entity)
			if err != nil {
				output.Error("pending deletions %s: %v", entity, err)
				return err
			}
			pending += len(dels)
		}

		if asJSON {
			return output.JSON(map[string]interface{}{
				"database":          database.BaseDir(),
				"schema_version":    schemaVersion,
				"entities":          counts,
				"pending_deletions": pending,
				"authenticated":     syncconfig.IsAuthenticated(),
			})
		}

		output.Info("Database: %s (schema v%d)", database.BaseDir(), schemaVersion)
		for _, entity := range models.SyncableEntities() {
			output.Info("  %-18s %d", entity, counts[entity])
		}
		if pending > 0 {
			output.Warning("%d deletions waiting for the next sync", pending)
		}
		if syncconfig.IsAuthenticated() {
			output.Info("Account: %s", syncconfig.GetUserID())
		} else {
			fmt.Println("Not logged in")
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(statusCmd)
}
