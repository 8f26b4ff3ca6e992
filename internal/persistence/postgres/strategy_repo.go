package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
	"github.com/dvirmail/cryptonew-sub003/internal/persistence"
)

// strategyRepo implements StrategyRepo for PostgreSQL
type strategyRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewStrategyRepo creates a new PostgreSQL strategy repository.
func NewStrategyRepo(db *sqlx.DB, timeout time.Duration) persistence.StrategyRepo {
	return &strategyRepo{
		db:      db,
		timeout: timeout,
	}
}

// Connect opens a Postgres connection pool for the strategy store.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// strategyRow is the DB projection of models.Strategy; signal types travel
// as a JSON array column.
type strategyRow struct {
	ID             string    `db:"id"`
	Coin           string    `db:"coin"`
	Timeframe      string    `db:"timeframe"`
	Signature      string    `db:"signature"`
	SignalTypes    []byte    `db:"signal_types"`
	DominantRegime string    `db:"dominant_regime"`
	TradeCount     int       `db:"trade_count"`
	ProfitFactor   float64   `db:"profit_factor"`
	WinRate        float64   `db:"win_rate"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r strategyRow) toModel() (models.Strategy, error) {
	s := models.Strategy{
		ID:             r.ID,
		Coin:           r.Coin,
		Timeframe:      r.Timeframe,
		Signature:      r.Signature,
		DominantRegime: r.DominantRegime,
		TradeCount:     r.TradeCount,
		ProfitFactor:   r.ProfitFactor,
		WinRate:        r.WinRate,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if len(r.SignalTypes) > 0 {
		if err := json.Unmarshal(r.SignalTypes, &s.SignalTypes); err != nil {
			return s, fmt.Errorf("failed to decode signal types: %w", err)
		}
	}
	return s, nil
}

// Upsert inserts or updates a strategy keyed by (coin, timeframe, signature).
func (r *strategyRepo) Upsert(ctx context.Context, strategy models.Strategy) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := persistence.Validate(strategy); err != nil {
		return err
	}
	if strategy.ID == "" {
		strategy.ID = uuid.NewString()
	}
	if len(strategy.SignalTypes) == 0 {
		strategy.SignalTypes = models.TypesFromSignature(strategy.Signature)
	}
	persistence.Touch(&strategy, time.Now().UTC())

	typesJSON, err := json.Marshal(strategy.SignalTypes)
	if err != nil {
		return fmt.Errorf("failed to encode signal types: %w", err)
	}

	query := `
		INSERT INTO strategies
		(id, coin, timeframe, signature, signal_types, dominant_regime,
		 trade_count, profit_factor, win_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (coin, timeframe, signature) DO UPDATE SET
			signal_types = EXCLUDED.signal_types,
			dominant_regime = EXCLUDED.dominant_regime,
			trade_count = EXCLUDED.trade_count,
			profit_factor = EXCLUDED.profit_factor,
			win_rate = EXCLUDED.win_rate,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query,
		strategy.ID, strategy.Coin, strategy.Timeframe, strategy.Signature,
		typesJSON, strategy.DominantRegime, strategy.TradeCount,
		strategy.ProfitFactor, strategy.WinRate,
		strategy.CreatedAt, strategy.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert strategy: %w", err)
	}

	return nil
}

// GetByID retrieves one strategy.
func (r *strategyRepo) GetByID(ctx context.Context, id string) (*models.Strategy, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row strategyRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM strategies WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy %s: %w", id, err)
	}

	s, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns strategies for a coin/timeframe pair, newest first.
func (r *strategyRepo) List(ctx context.Context, coin, timeframe string, limit int) ([]models.Strategy, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []strategyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM strategies
		WHERE coin = $1 AND timeframe = $2
		ORDER BY updated_at DESC
		LIMIT $3`, coin, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}

	return rowsToModels(rows)
}

// ListByDominantRegime returns strategies matching a dominant regime label.
func (r *strategyRepo) ListByDominantRegime(ctx context.Context, regime string, limit int) ([]models.Strategy, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []strategyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM strategies
		WHERE dominant_regime = $1
		ORDER BY profit_factor DESC
		LIMIT $2`, regime, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies by regime: %w", err)
	}

	return rowsToModels(rows)
}

// UpdatePerformance applies refreshed live counters to a strategy.
func (r *strategyRepo) UpdatePerformance(ctx context.Context, id string, perf persistence.LivePerformance) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `
		UPDATE strategies
		SET trade_count = $2, profit_factor = $3, win_rate = $4, updated_at = $5
		WHERE id = $1`,
		id, perf.TradeCount, perf.ProfitFactor, perf.WinRate, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update strategy performance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("strategy %s not found", id)
	}
	return nil
}

// Delete removes a strategy.
func (r *strategyRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM strategies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete strategy: %w", err)
	}
	return nil
}

func rowsToModels(rows []strategyRow) ([]models.Strategy, error) {
	out := make([]models.Strategy, 0, len(rows))
	for _, row := range rows {
		s, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
