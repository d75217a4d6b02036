package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/DevJhojan/justice-driven-task-power/internal/db"
	"github.com/DevJhojan/justice-driven-task-power/internal/models"
	"github.com/DevJhojan/justice-driven-task-power/internal/output"
	"github.com/DevJhojan/justice-driven-task-power/internal/remote"
	jtpsync "github.com/DevJhojan/justice-driven-task-power/internal/sync"
	"github.com/DevJhojan/justice-driven-task-power/internal/syncconfig"
	"github.com/spf13/cobra"
)

const syncTimeout = 5 * time.Minute

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Reconcile local data with the remote account",
	GroupID: "sync",
	Long: `Runs a two-phase reconciliation: local changes upload first, then
remote changes download. The newer copy of each record wins; deletions
propagate through tombstones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pushOnly, _ := cmd.Flags().GetBool("push")
		pullOnly, _ := cmd.Flags().GetBool("pull")
		statusOnly, _ := cmd.Flags().GetBool("status")
		asJSON, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")

		if pushOnly && pullOnly {
			output.Error("--push and --pull are mutually exclusive")
			return fmt.Errorf("conflicting flags")
		}

		if verbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("open database: %v", err)
			return err
		}
		defer database.Close()

		if statusOnly {
			return runSyncStatus(database, asJSON)
		}

		if !syncconfig.IsAuthenticated() {
			output.Error("not logged in (run: jtp auth login)")
			return fmt.Errorf("not authenticated")
		}
		serverURL := syncconfig.GetServerURL()
		if serverURL == "" {
			output.Error("no remote store URL configured (set JTP_SYNC_URL or sync.url in config.json)")
			return fmt.Errorf("no server url")
		}

		client := remote.New(serverURL, syncconfig.GetToken(), syncconfig.GetUserID())
		engine := jtpsync.NewEngine(database, client)
		switch {
		case pushOnly:
			engine.Mode = jtpsync.ModePushOnly
		case pullOnly:
			engine.Mode = jtpsync.ModePullOnly
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), syncTimeout)
		defer cancel()

		result, err := engine.Run(ctx)
		if err != nil {
			output.Error("sync: %v", err)
			return err
		}

		// Old synced tombstones have served their purpose
		if engine.Mode == jtpsync.ModeTwoWay {
			retention := time.Duration(syncconfig.GetPurgeAfterDays()) * 24 * time.Hour
			if purged, err := database.PurgeSyncedTombstones(retention); err != nil {
				output.Warning("purge tombstones: %v", err)
			} else if purged > 0 {
				slog.Debug("purged tombstones", "count", purged)
			}
		}

		if asJSON {
			return output.JSON(result)
		}
		fmt.Print(output.FormatSyncResult(result))
		if len(result.Failures) > 0 {
			return fmt.Errorf("%d records failed to sync", len(result.Failures))
		}
		return nil
	},
}

func runSyncStatus(database *db.DB, asJSON bool) error {
	type entityStatus struct {
		Records          int `json:"records"`
		PendingDeletions int `json:"pending_deletions"`
	}
	status := make(map[models.EntityType]entityStatus)
	totalPending := 0

	for _, entity := range models.SyncableEntities() {
		recs, err := database.GetAll(entity)
		if err != nil {
			output.Error("read %s: %v", entity, err)
			return err
		}
		dels, err := database.PendingDeletions(entity)
		if err != nil {
			output.Error("pending deletions %s: %v", entity, err)
			return err
		}
		status[entity] = entityStatus{Records: len(recs), PendingDeletions: len(dels)}
		totalPending += len(dels)
	}

	if asJSON {
		return output.JSON(map[string]interface{}{
			"authenticated": syncconfig.IsAuthenticated(),
			"server_url":    syncconfig.GetServerURL(),
			"entities":      status,
		})
	}

	if syncconfig.IsAuthenticated() {
		output.Info("Account: %s", syncconfig.GetUserID())
	} else {
		output.Warning("not logged in")
	}
	for _, entity := range models.SyncableEntities() {
		s := status[entity]
		line := fmt.Sprintf("  %-18s %d records", entity, s.Records)
		if s.PendingDeletions > 0 {
			line += fmt.Sprintf(", %d deletions pending", s.PendingDeletions)
		}
		output.Info("%s", line)
	}
	if totalPending == 0 {
		output.Info("Nothing pending")
	}
	return nil
}

func init() {
	syncCmd.Flags().Bool("push", false, "Upload only, skip the download phase")
	syncCmd.Flags().Bool("pull", false, "Download only, skip the upload phase")
	syncCmd.Flags().Bool("status", false, "Show local sync state without contacting the remote")
	syncCmd.Flags().Bool("json", false, "Output as JSON")
	syncCmd.Flags().BoolP("verbose", "v", false, "Debug logging during the run")
	rootCmd.AddCommand(syncCmd)
}
