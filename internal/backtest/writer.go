package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dvirmail/cryptonew-sub003/internal/regime"
)

// Writer handles writing backtest artifacts to disk
type Writer struct {
	outputDir string
}

// NewWriter creates a new artifact writer rooted at outputDir, nested by
// run date.
func NewWriter(outputDir string) *Writer {
	return &Writer{
		outputDir: filepath.Join(outputDir, time.Now().Format("2006-01-02")),
	}
}

// GetOutputDir returns the full output directory path
func (w *Writer) GetOutputDir() string {
	return w.outputDir
}

// WriteMatches writes the run's matches to JSONL, one match per line, with
// the run summary as the final line.
func (w *Writer) WriteMatches(results *RunResults) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("matches_%s_%s.jsonl", sanitize(results.Coin), sanitize(results.Timeframe))
	file, err := os.Create(filepath.Join(w.outputDir, name))
	if err != nil {
		return fmt.Errorf("failed to create matches file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for i := range results.Matches {
		if err := enc.Encode(&results.Matches[i]); err != nil {
			return fmt.Errorf("failed to write match: %w", err)
		}
	}
	if err := enc.Encode(results.Summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return nil
}

// WriteReport writes a markdown summary report for the run.
func (w *Writer) WriteReport(results *RunResults) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("report_%s_%s.md", sanitize(results.Coin), sanitize(results.Timeframe))
	file, err := os.Create(filepath.Join(w.outputDir, name))
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(w.generateMarkdownReport(results)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// generateMarkdownReport generates the complete markdown report
func (w *Writer) generateMarkdownReport(results *RunResults) string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("# Backtest Report: %s %s\n\n", results.Coin, results.Timeframe))
	report.WriteString(fmt.Sprintf("**Generated**: %s\n", time.Now().Format("2006-01-02 15:04:05 UTC")))
	report.WriteString(fmt.Sprintf("**Run Duration**: %v\n", results.EndedAt.Sub(results.StartedAt).Round(time.Millisecond)))
	report.WriteString(fmt.Sprintf("**Configuration**: required=%d, max=%d, min_strength=%.0f, warmup=%d\n\n",
		results.Config.RequiredSignals, results.Config.MaxSignals,
		results.Config.MinCombinedStrength, results.Config.WarmupBars))

	report.WriteString("## Summary\n\n")
	report.WriteString(fmt.Sprintf("- **Candles**: %d total, %d evaluated, %d skipped\n",
		results.TotalCandles, results.EvaluatedCandles, results.SkippedCandles))
	report.WriteString(fmt.Sprintf("- **Matches**: %d\n", results.Summary.TotalMatches))
	report.WriteString(fmt.Sprintf("- **Dominant Regime**: %s (%.1f%% of candles, %d transitions)\n",
		results.Summary.DominantRegime, results.Summary.DominantShare*100, results.Summary.RegimeTransitions))
	report.WriteString(fmt.Sprintf("- **Evaluation Errors**: %d\n", results.Summary.EvalErrors))
	report.WriteString(fmt.Sprintf("- **Overflow Candles**: %d\n\n", results.Summary.OverflowCandles))

	if len(results.Summary.SignatureCounts) > 0 {
		report.WriteString("## Top Signatures\n\n")
		report.WriteString("| Signature | Matches |\n")
		report.WriteString("|-----------|--------:|\n")
		for _, row := range topCounts(results.Summary.SignatureCounts, 20) {
			report.WriteString(fmt.Sprintf("| %s | %d |\n", row.key, row.count))
		}
		report.WriteString("\n")
	}

	if len(results.Summary.SignalCounts) > 0 {
		report.WriteString("## Signal Activity\n\n")
		report.WriteString("| Signal | Category | Candles |\n")
		report.WriteString("|--------|----------|--------:|\n")
		for _, row := range topCounts(results.Summary.SignalCounts, 0) {
			category := "-"
			if cat, ok := regime.CategoryOf(row.key); ok {
				category = string(cat)
			}
			report.WriteString(fmt.Sprintf("| %s | %s | %d |\n", row.key, category, row.count))
		}
		report.WriteString("\n")
	}

	if len(results.Summary.RegimeDistribution) > 0 {
		report.WriteString("## Regime Distribution\n\n")
		report.WriteString("| Regime | Share |\n")
		report.WriteString("|--------|------:|\n")
		regimes := make([]string, 0, len(results.Summary.RegimeDistribution))
		for r := range results.Summary.RegimeDistribution {
			regimes = append(regimes, r)
		}
		sort.Strings(regimes)
		for _, r := range regimes {
			report.WriteString(fmt.Sprintf("| %s | %.1f%% |\n", r, results.Summary.RegimeDistribution[r]*100))
		}
		report.WriteString("\n")
	}

	return report.String()
}

type countRow struct {
	key   string
	count int
}

// topCounts sorts a counter map descending by count, keeping the top n
// entries (n <= 0 keeps all).
func topCounts(counts map[string]int, n int) []countRow {
	rows := make([]countRow, 0, len(counts))
	for k, v := range counts {
		rows = append(rows, countRow{key: k, count: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// sanitize makes a symbol or timeframe safe for use in a filename.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, s)
}
