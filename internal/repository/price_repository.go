package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"
)

type PriceRepository struct {
	db *sql.DB
}

func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// SaveTicks inserts all ticks in one transaction. Either every tick is
// stored or none is.
func (r *PriceRepository) SaveTicks(ctx context.Context, ticks []model.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stock_price(symbol, price, timestamp)
		VALUES($1, $2, $3)
		RETURNING id
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range ticks {
		t := &ticks[i]
		if err := stmt.QueryRowContext(ctx, t.Symbol, t.Price, t.Timestamp.UTC()).Scan(&t.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// TickDates returns the set of calendar dates (UTC, YYYY-MM-DD) that already
// hold a tick for symbol inside [from, to].
func (r *PriceRepository) TickDates(ctx context.Context, symbol string, from, to time.Time) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT timestamp FROM stock_price
		WHERE symbol = $1 AND timestamp >= $2 AND timestamp < $3
	`, symbol, startOfDay(from), startOfDay(to).AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make(map[string]bool)
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		dates[model.DateKey(ts)] = true
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dates, nil
}

func (r *PriceRepository) LatestTicks(ctx context.Context, symbol string, limit int) ([]model.PriceTick, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, symbol, price, timestamp
		FROM stock_price
		WHERE symbol = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []model.PriceTick
	for rows.Next() {
		var t model.PriceTick
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Price, &t.Timestamp); err != nil {
			return nil, err
		}
		t.Timestamp = t.Timestamp.UTC()
		ticks = append(ticks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ticks, nil
}

func (r *PriceRepository) LatestTick(ctx context.Context, symbol string) (*model.PriceTick, error) {
	var t model.PriceTick
	err := r.db.QueryRowContext(ctx, `
		SELECT id, symbol, price, timestamp
		FROM stock_price
		WHERE symbol = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`, symbol).Scan(&t.ID, &t.Symbol, &t.Price, &t.Timestamp)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	t.Timestamp = t.Timestamp.UTC()
	return &t, nil
}

func (r *PriceRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
