package yahoo

import (
	"context"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	xhttp "StockCast/pkg/http"
	"StockCast/pkg/logger"
)

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultSearchURL = "https://query1.finance.yahoo.com/v1/finance/search"

	// Yahoo rejects requests without a browser-looking agent.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// Client fetches quotes, history, and symbol search from the Yahoo chart API.
// Every failure is absorbed into the empty/absent sentinel; nothing raises
// past this boundary.
type Client struct {
	baseURL   string
	searchURL string
	client    *xhttp.Client
	log       *logger.Logger
}

// New creates a Yahoo source client. Empty URLs fall back to the public
// endpoints.
func New(baseURL, searchURL string, timeout time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if searchURL == "" {
		searchURL = defaultSearchURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		searchURL: searchURL,
		client:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:       log,
	}
}

func (c *Client) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  interface{}   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string  `json:"symbol"`
		LongName             string  `json:"longName"`
		RegularMarketPrice   float64 `json:"regularMarketPrice"`
		ChartPreviousClose   float64 `json:"chartPreviousClose"`
		PreviousClose        float64 `json:"previousClose"`
		RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
		RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
		RegularMarketVolume  float64 `json:"regularMarketVolume"`
		RegularMarketTime    int64   `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

func (c *Client) fetchChart(ctx context.Context, symbol string, r domrepo.Range) *chartResult {
	interval := "1d"
	switch r {
	case domrepo.Range1D:
		interval = "5m"
	case domrepo.Range5D:
		interval = "15m"
	}

	var resp chartResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.baseURL + "/" + symbol,
		Headers: map[string]string{"User-Agent": userAgent},
		QueryParams: map[string][]string{
			"range":    {string(r)},
			"interval": {interval},
		},
	}, &resp)
	if err != nil {
		c.log.Warn("yahoo chart request failed",
			logger.String("symbol", symbol),
			logger.String("range", string(r)),
			logger.Error(err))
		return nil
	}
	if len(resp.Chart.Result) == 0 {
		return nil
	}
	return &resp.Chart.Result[0]
}

// GetQuote derives the latest quote from the chart meta block. Returns nil on
// any failure.
func (c *Client) GetQuote(ctx context.Context, symbol string) *models.Quote {
	res := c.fetchChart(ctx, symbol, domrepo.Range1D)
	if res == nil || res.Meta.RegularMarketPrice <= 0 {
		return nil
	}
	m := res.Meta

	prev := m.ChartPreviousClose
	if m.PreviousClose > 0 {
		prev = m.PreviousClose
	}
	change := 0.0
	changePct := 0.0
	if prev > 0 {
		change = m.RegularMarketPrice - prev
		changePct = change / prev * 100
	}

	open := 0.0
	if len(res.Indicators.Quote) > 0 {
		for _, v := range res.Indicators.Quote[0].Open {
			if v != nil {
				open = *v
				break
			}
		}
	}

	ts := time.Now()
	if m.RegularMarketTime > 0 {
		ts = time.Unix(m.RegularMarketTime, 0)
	}

	return &models.Quote{
		Symbol:        strings.ToUpper(m.Symbol),
		Name:          m.LongName,
		Price:         m.RegularMarketPrice,
		Change:        change,
		ChangePercent: changePct,
		Open:          open,
		High:          m.RegularMarketDayHigh,
		Low:           m.RegularMarketDayLow,
		Volume:        m.RegularMarketVolume,
		Timestamp:     ts,
	}
}

// GetHistory fetches bars for the range. Intraday ranges use 5m/15m bars,
// everything else daily. Returns an empty slice on any failure.
func (c *Client) GetHistory(ctx context.Context, symbol string, r domrepo.Range) []models.Bar {
	res := c.fetchChart(ctx, symbol, r)
	if res == nil || len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]

	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]models.Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		// Yahoo pads arrays with nulls for halted intervals.
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		b := models.Bar{
			Timestamp: time.Unix(ts, 0),
			Close:     *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			b.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			b.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			b.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		if i < len(adj) && adj[i] != nil {
			b.AdjustedClose = *adj[i]
		}
		bars = append(bars, b)
	}
	return bars
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// Search resolves a free-text query to symbol matches. Returns an empty slice
// on any failure.
func (c *Client) Search(ctx context.Context, query string, limit int) []models.SymbolMatch {
	if limit <= 0 {
		limit = 10
	}
	var resp searchResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.searchURL,
		Headers: map[string]string{"User-Agent": userAgent},
		QueryParams: map[string][]string{
			"q":          {query},
			"quotesCount": {"20"},
		},
	}, &resp)
	if err != nil {
		c.log.Warn("yahoo search failed", logger.String("query", query), logger.Error(err))
		return nil
	}

	out := make([]models.SymbolMatch, 0, limit)
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		out = append(out, models.SymbolMatch{
			Symbol:   q.Symbol,
			Name:     name,
			Exchange: q.Exchange,
			Type:     q.QuoteType,
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}
