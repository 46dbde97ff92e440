package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the server's downstream token cache",
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <user>",
	Short: "Drop the cached downstream token for one user",
	Long: `Removes the cached downstream token for the given user on the server.
The next resolution for that user performs a fresh exchange call.

This command requires admin privileges (set TOKENBRIDGE_TOKEN).`,
	Example: `  tokenbridge cache invalidate alice@example.com`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}
		if err := cli.InvalidateUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		log.Info().Str("user_id", args[0]).Msg("Cache entry invalidated")
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached downstream tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}
		removed, err := cli.ClearCache(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Msgf("Cache cleared, %s removed", pluralizeEntries(removed))
		return nil
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired entries from the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}
		removed, err := cli.SweepCache(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Msgf("Sweep done, %s removed", pluralizeEntries(removed))
		return nil
	},
}

func pluralizeEntries(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return fmt.Sprintf("%d entries", n)
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
}
