package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dvirmail/cryptonew-sub003/internal/conviction"
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Evaluate conviction for a candidate strategy",
		Long: `Reads a scoring input JSON (strategy, matched signals, indicator
snapshot, candles and current regime state) and prints the conviction score
with its per-factor breakdown.`,
		RunE: runScore,
	}

	cmd.Flags().String("input", "", "Path to scoring input JSON")
	cmd.Flags().Bool("pretty", true, "Pretty-print the result")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	inputPath, _ := cmd.Flags().GetString("input")
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read scoring input %s: %w", inputPath, err)
	}

	var input conviction.Input
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse scoring input: %w", err)
	}

	result := conviction.NewScorer(cfg.Conviction).Score(input)

	enc := json.NewEncoder(os.Stdout)
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
