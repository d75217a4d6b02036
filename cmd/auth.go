package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/DevJhojan/justice-driven-task-power/internal/db"
	"github.com/DevJhojan/justice-driven-task-power/internal/models"
	"github.com/DevJhojan/justice-driven-task-power/internal/output"
	"github.com/DevJhojan/justice-driven-task-power/internal/syncconfig"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage remote account credentials",
	GroupID: "sync",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials for the remote account",
	Long: `Stores the remote account's user id and auth token at
~/.config/jtp/auth.json and links the local database to the account.
The token is read from the terminal without echo; JTP_AUTH_TOKEN and
JTP_USER_ID environment variables override the stored values.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		fmt.Print("Email: ")
		email, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		email = strings.TrimSpace(email)

		fmt.Print("User ID: ")
		userID, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		userID = strings.TrimSpace(userID)
		if userID == "" {
			output.Error("user id is required")
			return fmt.Errorf("empty user id")
		}

		fmt.Print("Auth token: ")
		tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token := strings.TrimSpace(string(tokenBytes))
		if token == "" {
			output.Error("token is required")
			return fmt.Errorf("empty token")
		}

		creds, err := syncconfig.LoadAuth()
		if err != nil {
			return err
		}
		if creds == nil {
			creds = &syncconfig.AuthCredentials{}
		}
		creds.Email = email
		creds.UserID = userID
		creds.Token = token
		if err := syncconfig.SaveAuth(creds); err != nil {
			output.Error("save credentials: %v", err)
			return err
		}

		// Record the linkage in the local database too, if one exists
		if database, err := db.Open(getBaseDir()); err == nil {
			defer database.Close()
			if err := database.SetSyncSettings(models.SyncSettings{Email: email, UserID: userID}); err != nil {
				output.Warning("store account linkage: %v", err)
			}
		}

		output.Success("Logged in as %s", userID)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := syncconfig.ClearAuth(); err != nil {
			output.Error("clear credentials: %v", err)
			return err
		}
		if database, err := db.Open(getBaseDir()); err == nil {
			defer database.Close()
			if err := database.ClearSyncSettings(); err != nil {
				output.Warning("clear account linkage: %v", err)
			}
		}
		output.Success("Logged out")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication state",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !syncconfig.IsAuthenticated() {
			output.Info("Not logged in (run: jtp auth login)")
			return nil
		}
		output.Info("Logged in as %s", syncconfig.GetUserID())
		if url := syncconfig.GetServerURL(); url != "" {
			output.Info("Remote store: %s", url)
		} else {
			output.Warning("no remote store URL configured (set JTP_SYNC_URL or sync.url in config.json)")
		}
		return nil
	},
}

func init() {
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
