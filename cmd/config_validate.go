package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfabric/tokenbridge/internal/config"
	"github.com/openfabric/tokenbridge/internal/exchange"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Configuration is invalid.")
			return err
		}
		// also make sure the exchanger config actually builds
		if _, err := exchange.NewFromConfig(cfg.Exchange); err != nil {
			log.Fatal().Err(err).Msg("Exchanger configuration is invalid.")
			return err
		}
		log.Info().Msg("Configuration is valid.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
