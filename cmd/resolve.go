package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfabric/tokenbridge/internal/audit"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <user>",
	Short: "Resolve a downstream token for a user",
	Long: `Asks the server for a valid downstream token for the given user.
By default only the token's fingerprint is printed; pass --raw to print the
token itself (e.g. for piping into another tool).`,
	Example: `  tokenbridge resolve alice@example.com
  tokenbridge resolve alice@example.com --raw | xargs -I{} curl -H "Authorization: Bearer {}" ...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")

		cli, err := getClient()
		if err != nil {
			return err
		}

		res, correlation, err := cli.ResolveToken(cmd.Context(), args[0])
		if err != nil {
			log.Debug().Str("correlation_id", correlation).Msg("resolution failed")
			return err
		}

		if raw {
			fmt.Println(res.AccessToken)
			return nil
		}

		log.Info().
			Bool("cached", res.Cached).
			Str("fingerprint", truncate(audit.Fingerprint(res.AccessToken), 16)).
			Msg("Token resolved")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().Bool("raw", false, "print the raw token to stdout")
}
