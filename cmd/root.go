package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openfabric/tokenbridge/internal/buildinfo"
	"github.com/openfabric/tokenbridge/internal/logging"
)

// global flags
var (
	cfgFile    string
	bridgeAddr string
)

const (
	BridgeAddrKey = "addr"
)

var rootCmd = &cobra.Command{
	Use:   "tokenbridge",
	Short: fmt.Sprintf("Tokenbridge (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `Tokenbridge exchanges a user's upstream identity-provider access token
	for a downstream access token and caches the result per user, so the
	hosting application never talks to the exchange endpoint directly.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(nil)
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("execution failed")
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "tokenbridge.yaml",
		"Path to the Tokenbridge configuration file")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(logging.LevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(logging.FormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(logging.NoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.PersistentFlags().StringVar(&bridgeAddr, "server", "", "Address of the remote Tokenbridge server")
	_ = viper.BindPFlag(BridgeAddrKey, rootCmd.PersistentFlags().Lookup("server"))

	viper.SetEnvPrefix("TOKENBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))

	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}
