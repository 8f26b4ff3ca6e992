// Package data provides candle series loading and a Redis-backed series
// cache for repeated backtest runs.
package data

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// LoadCandlesCSV reads a candle series from a CSV file with the columns
// timestamp,open,high,low,close,volume. Timestamps are RFC3339 or unix
// seconds; a header row is detected and skipped. The series must already
// be time-ascending; order is validated, not repaired.
func LoadCandlesCSV(path string) ([]models.Candle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open candle file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 6

	var candles []models.Candle
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read candle row %d: %w", line, err)
		}
		line++

		if line == 1 && looksLikeHeader(record) {
			continue
		}

		candle, err := parseCandle(record)
		if err != nil {
			return nil, fmt.Errorf("invalid candle row %d: %w", line, err)
		}

		if len(candles) > 0 && !candle.Timestamp.After(candles[len(candles)-1].Timestamp) {
			return nil, fmt.Errorf("candle row %d is not time-ascending", line)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// LoadSnapshotJSON reads a precomputed indicator snapshot (indicator name
// to per-candle value series) from a JSON file.
func LoadSnapshotJSON(path string) (models.IndicatorSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file %s: %w", path, err)
	}

	var snapshot models.IndicatorSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}
	return snapshot, nil
}

func looksLikeHeader(record []string) bool {
	_, err := strconv.ParseFloat(record[1], 64)
	return err != nil
}

func parseCandle(record []string) (models.Candle, error) {
	ts, err := parseTimestamp(record[0])
	if err != nil {
		return models.Candle{}, err
	}

	fields := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("bad numeric field %q: %w", record[i+1], err)
		}
		fields[i] = v
	}

	return models.Candle{
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}
