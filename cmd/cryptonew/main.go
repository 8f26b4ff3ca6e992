package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "cryptonew"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Version: version,
		Short:   "Signal-combination backtesting and conviction scoring",
		Long: `cryptonew discovers statistically profitable signal combinations by
walking historical candle series, and scores candidate strategies against
current market conditions with a regime-aware conviction model.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newServeCmd())

	cobra.OnInitialize(func() {
		if levelStr, err := rootCmd.PersistentFlags().GetString("log-level"); err == nil {
			if level, err := zerolog.ParseLevel(levelStr); err == nil {
				zerolog.SetGlobalLevel(level)
			}
		}
	})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
