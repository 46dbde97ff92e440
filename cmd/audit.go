package cmd

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "List recent audit entries",
	Long: `Retrieves recent token-resolution audit entries from the server,
including whether each request hit the cache and the fingerprint of the token
that was handed out. Raw token material is never recorded.

This command requires admin privileges (set TOKENBRIDGE_TOKEN).`,
	Example: `  tokenbridge audit log --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetUint("limit")

		cli, err := getClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Fetching audit entries...")
		entries, err := cli.ListAudits(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			log.Info().Msg("No audit entries found")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Time", "Action", "User", "Cache", "Fingerprint", "Result",
		})

		bold := color.New(color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		for _, e := range entries {
			result := "ok"
			if !e.Success {
				result = red(truncate(e.Error, 48))
			}
			cacheStr := "miss"
			if e.CacheHit {
				cacheStr = "hit"
			}
			t.AppendRow(table.Row{
				e.Time.Format(time.RFC3339),
				e.Action,
				bold(truncate(e.UserID, 40)),
				cacheStr,
				faint(truncate(e.TokenFingerprint, 16)),
				result,
			})
		}

		s := table.StyleRounded
		s.Format.Header = text.FormatDefault
		t.SetStyle(s)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditLogCmd)

	auditLogCmd.Flags().Uint("limit", 50, "maximum number of entries")
}
