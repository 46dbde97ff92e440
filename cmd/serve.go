package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfabric/tokenbridge/internal/api"
	"github.com/openfabric/tokenbridge/internal/audit"
	"github.com/openfabric/tokenbridge/internal/cache"
	"github.com/openfabric/tokenbridge/internal/config"
	"github.com/openfabric/tokenbridge/internal/core"
	"github.com/openfabric/tokenbridge/internal/exchange"
	"github.com/openfabric/tokenbridge/internal/service"
	"github.com/openfabric/tokenbridge/internal/session"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Tokenbridge server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		singleFlight, _ := cmd.Flags().GetBool("single-flight")

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log.Info().Msg("Initializing exchanger...")
		exchanger, err := exchange.NewFromConfig(cfg.Exchange)
		if err != nil {
			return fmt.Errorf("building exchanger: %w", err)
		}

		auditor, err := buildAuditor(cfg.Audit)
		if err != nil {
			return fmt.Errorf("building auditor: %w", err)
		}
		defer func() {
			_ = auditor.Close()
		}()

		cacheOpts := []cache.Option{}
		if cfg.Cache.TTL > 0 {
			cacheOpts = append(cacheOpts, cache.WithTTL(cfg.Cache.TTL))
		}
		tokenCache := cache.New(cacheOpts...)

		sessions := session.NewMemoryStore(cfg.Sessions.ProviderAliases)

		coordOpts := []service.CoordinatorOption{}
		if singleFlight {
			coordOpts = append(coordOpts, service.WithSingleFlight())
		}
		coordinator := service.NewCoordinator(tokenCache, sessions, exchanger, auditor, coordOpts...)

		// background sweep is opt-in via config
		sweepCtx, stopSweep := context.WithCancel(cmd.Context())
		defer stopSweep()
		if cfg.Cache.SweepInterval > 0 {
			log.Info().Dur("interval", cfg.Cache.SweepInterval).Msg("Starting cache sweeper...")
			go tokenCache.Run(sweepCtx, cfg.Cache.SweepInterval)
		}

		// setup server
		srv := api.NewServer(coordinator, sessions, auditor)

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Routes([]byte(cfg.Server.SigningKey)),
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func buildAuditor(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return audit.NewNoopAuditor(), nil
	}
	switch cfg.Type {
	case "file":
		return audit.NewFileAuditor(cfg.Path)
	case "memory", "":
		return audit.NewInMemoryAuditor(), nil
	default:
		return nil, fmt.Errorf("unknown auditor type %q", cfg.Type)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")
	serveCmd.Flags().Bool("single-flight", false,
		"collapse concurrent cache misses for the same user into one exchange call")
}
