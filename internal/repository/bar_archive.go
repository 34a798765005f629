package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
)

// BarArchiveSchema creates the daily-bar table. ReplacingMergeTree keyed on
// (symbol, ts) makes re-archiving the same history idempotent.
func BarArchiveSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol    LowCardinality(String),
			ts        DateTime,
			open      Float64,
			high      Float64,
			low       Float64,
			close     Float64,
			volume    Float64,
			adj_close Float64
		) ENGINE = ReplacingMergeTree()
		ORDER BY (symbol, ts)`, table),
	}
}

// ClickHouseBarArchive persists daily bars for the training collaborator and
// serves as the last-resort history source once every live provider is
// exhausted.
type ClickHouseBarArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseBarArchive creates the archive over an existing pool.
func NewClickHouseBarArchive(db *sql.DB, table string) repository.BarArchive {
	return &ClickHouseBarArchive{db: db, table: table}
}

// StoreBatch inserts bars in chunks of up to 2000 rows per statement.
func (a *ClickHouseBarArchive) StoreBatch(ctx context.Context, symbol string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	symbol = strings.ToUpper(symbol)

	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, b := range bars[start:end] {
			if b.Timestamp.IsZero() || b.Close <= 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				symbol,
				b.Timestamp,
				b.Open,
				b.High,
				b.Low,
				b.Close,
				b.Volume,
				b.AdjustedClose,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, ts, open, high, low, close, volume, adj_close) VALUES %s",
			a.table, strings.Join(values, ","))
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("archive insert: %w", err)
		}
	}
	return nil
}

// QueryRange returns archived bars for [from, to], ascending by timestamp.
func (a *ClickHouseBarArchive) QueryRange(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	q := fmt.Sprintf(`SELECT ts, open, high, low, close, volume, adj_close
		FROM %s FINAL
		WHERE symbol = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC`, a.table)

	rows, err := a.db.QueryContext(ctx, q, strings.ToUpper(symbol), from, to)
	if err != nil {
		return nil, fmt.Errorf("archive query: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.AdjustedClose); err != nil {
			return nil, fmt.Errorf("archive scan: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Health pings the pool.
func (a *ClickHouseBarArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.
func (a *ClickHouseBarArchive) Close() error {
	return nil
}
