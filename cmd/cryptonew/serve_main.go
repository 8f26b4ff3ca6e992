package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dvirmail/cryptonew-sub003/internal/conviction"
	httpiface "github.com/dvirmail/cryptonew-sub003/internal/interfaces/http"
	"github.com/dvirmail/cryptonew-sub003/internal/metrics"
	"github.com/dvirmail/cryptonew-sub003/internal/persistence"
	"github.com/dvirmail/cryptonew-sub003/internal/persistence/postgres"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only conviction scoring server",
		Long: `Serves health, Prometheus metrics and conviction scoring over HTTP.
When a Postgres DSN is configured, stored strategies can be scored by ID
and listed by dominant regime; without one the server scores inline
strategies only.`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "Bind host (overrides config)")
	cmd.Flags().Int("port", 0, "Bind port (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	serverCfg := httpiface.DefaultServerConfig()
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		serverCfg.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		serverCfg.Port = port
	}

	var strategies persistence.StrategyRepo
	if cfg.Postgres.DSN != "" {
		db, err := postgres.Connect(cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		strategies = persistence.NewBreakerRepo(postgres.NewStrategyRepo(db, cfg.Postgres.Timeout))
		log.Info().Msg("strategy store connected")
	} else {
		log.Warn().Msg("no postgres DSN configured, scoring inline strategies only")
	}

	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
	scorer := conviction.NewScorer(cfg.Conviction)
	server := httpiface.NewServer(serverCfg, scorer, strategies, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
