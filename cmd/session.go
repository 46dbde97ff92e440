package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// sessionCmd represents the session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage upstream sessions on the server",
}

var sessionPutCmd = &cobra.Command{
	Use:   "put <user>",
	Short: "Register an upstream session for a user",
	Long: `Registers (or replaces) a user's upstream session on the server. The
upstream access token is read from the TOKENBRIDGE_UPSTREAM_TOKEN environment
variable, never from a command-line argument, so it does not end up in shell
history or process listings.

This command requires admin privileges (set TOKENBRIDGE_TOKEN).`,
	Example: `  TOKENBRIDGE_UPSTREAM_TOKEN=... tokenbridge session put alice@example.com --provider okta`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		expiresIn, _ := cmd.Flags().GetDuration("expires-in")

		token := os.Getenv("TOKENBRIDGE_UPSTREAM_TOKEN")
		if token == "" {
			return fmt.Errorf("no upstream token provided (set TOKENBRIDGE_UPSTREAM_TOKEN)")
		}

		cli, err := getClient()
		if err != nil {
			return err
		}

		var expiresAt time.Time
		if expiresIn > 0 {
			expiresAt = time.Now().Add(expiresIn)
		}

		if err := cli.PutSession(cmd.Context(), args[0], provider, token, expiresAt); err != nil {
			return err
		}
		log.Info().
			Str("user_id", args[0]).
			Str("provider", provider).
			Msg("Upstream session registered")
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <user>",
	Short: "Remove a user's upstream sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}
		if err := cli.DeleteSession(cmd.Context(), args[0]); err != nil {
			return err
		}
		log.Info().Str("user_id", args[0]).Msg("Upstream session removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionPutCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)

	sessionPutCmd.Flags().String("provider", "okta", "upstream provider name")
	sessionPutCmd.Flags().Duration("expires-in", 0, "upstream session validity (0 = unknown)")
}
