package stooq

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	xhttp "StockCast/pkg/http"
	"StockCast/pkg/logger"
)

const defaultBaseURL = "https://stooq.com"

// Client pulls daily history and latest quotes from Stooq's CSV endpoints.
// Stooq serves daily bars only, so intraday ranges degrade to daily; it has
// no symbol search. Failures are absorbed into the empty/absent sentinel.
type Client struct {
	baseURL string
	client  *xhttp.Client
	log     *logger.Logger
}

// New creates a Stooq source client.
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:     log,
	}
}

func (c *Client) Name() string { return "stooq" }

// stooqSymbol maps a plain US ticker onto Stooq's vocabulary (lowercase with
// a market suffix). Symbols that already carry a suffix pass through.
func stooqSymbol(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if strings.Contains(s, ".") {
		return s
	}
	return s + ".us"
}

func (c *Client) fetchCSV(ctx context.Context, path string, params map[string][]string) [][]string {
	var body []byte
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: params,
	}, &body)
	if err != nil {
		c.log.Warn("stooq request failed", logger.String("path", path), logger.Error(err))
		return nil
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		c.log.Warn("stooq csv malformed", logger.String("path", path), logger.Error(err))
		return nil
	}
	if len(records) < 2 {
		return nil
	}
	return records[1:] // drop header
}

// GetQuote fetches the latest daily snapshot. Stooq has no true realtime
// quote, so change fields are derived against the day's open.
func (c *Client) GetQuote(ctx context.Context, symbol string) *models.Quote {
	rows := c.fetchCSV(ctx, "/q/l/", map[string][]string{
		"s": {stooqSymbol(symbol)},
		"f": {"sd2t2ohlcv"},
		"h": {""},
		"e": {"csv"},
	})
	if len(rows) == 0 || len(rows[0]) < 8 {
		return nil
	}
	row := rows[0]

	open := parseFloat(row[3])
	high := parseFloat(row[4])
	low := parseFloat(row[5])
	price := parseFloat(row[6])
	volume := parseFloat(row[7])
	if price <= 0 {
		// Stooq reports "N/D" for unknown symbols.
		return nil
	}

	ts := time.Now()
	if t, err := time.Parse("2006-01-02 15:04:05", row[1]+" "+row[2]); err == nil {
		ts = t
	}

	change := 0.0
	changePct := 0.0
	if open > 0 {
		change = price - open
		changePct = change / open * 100
	}

	return &models.Quote{
		Symbol:        strings.ToUpper(symbol),
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Open:          open,
		High:          high,
		Low:           low,
		Volume:        volume,
		Timestamp:     ts,
	}
}

// GetHistory fetches daily bars covering the range. The request window is
// bounded by the range's day count so wide native output stays small.
func (c *Client) GetHistory(ctx context.Context, symbol string, r domrepo.Range) []models.Bar {
	to := time.Now()
	from := to.AddDate(0, 0, -r.Days())

	rows := c.fetchCSV(ctx, "/q/d/l/", map[string][]string{
		"s":  {stooqSymbol(symbol)},
		"i":  {"d"},
		"d1": {from.Format("20060102")},
		"d2": {to.Format("20060102")},
	})
	if len(rows) == 0 {
		return nil
	}

	bars := make([]models.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		ts, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			continue
		}
		closePx := parseFloat(row[4])
		if closePx <= 0 {
			continue
		}
		bars = append(bars, models.Bar{
			Timestamp: ts,
			Open:      parseFloat(row[1]),
			High:      parseFloat(row[2]),
			Low:       parseFloat(row[3]),
			Close:     closePx,
			Volume:    parseFloat(row[5]),
		})
	}
	return bars
}

// Search is unsupported by Stooq.
func (c *Client) Search(_ context.Context, _ string, _ int) []models.SymbolMatch {
	return nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
