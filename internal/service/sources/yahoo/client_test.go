package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domrepo "StockCast/internal/domain/repository"
	"StockCast/pkg/logger"
)

const chartPayload = `{
  "chart": {
    "result": [{
      "meta": {
        "symbol": "aapl",
        "longName": "Apple Inc.",
        "regularMarketPrice": 187.5,
        "chartPreviousClose": 185.0,
        "regularMarketDayHigh": 188.2,
        "regularMarketDayLow": 184.9,
        "regularMarketVolume": 52000000,
        "regularMarketTime": 1714138200
      },
      "timestamp": [1714051800, 1714055400, 1714059000],
      "indicators": {
        "quote": [{
          "open":   [186.1, null, 187.0],
          "high":   [186.9, null, 187.8],
          "low":    [185.8, null, 186.5],
          "close":  [186.4, null, 187.5],
          "volume": [1200000, null, 1500000]
        }],
        "adjclose": [{"adjclose": [186.0, null, 187.1]}]
      }
    }],
    "error": null
  }
}`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(srv.URL+"/chart", srv.URL+"/search", 2*time.Second, log)
}

func TestGetQuote(t *testing.T) {
	var gotInterval string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprint(w, chartPayload)
	})

	q := c.GetQuote(context.Background(), "AAPL")
	if q == nil {
		t.Fatal("quote is nil")
	}
	if gotInterval != "5m" {
		t.Fatalf("interval = %q, want 5m for the 1d quote fetch", gotInterval)
	}
	if q.Symbol != "AAPL" {
		t.Fatalf("symbol = %q, want AAPL (uppercased)", q.Symbol)
	}
	if q.Price != 187.5 || q.Name != "Apple Inc." {
		t.Fatalf("quote = %+v", q)
	}
	if q.Change != 2.5 {
		t.Fatalf("change = %v, want 2.5 from chartPreviousClose", q.Change)
	}
	if q.Open != 186.1 {
		t.Fatalf("open = %v, want first non-null open", q.Open)
	}
}

func TestGetHistorySkipsNullBars(t *testing.T) {
	var gotRange, gotInterval string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Query().Get("range")
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprint(w, chartPayload)
	})

	bars := c.GetHistory(context.Background(), "AAPL", domrepo.Range1Y)
	if gotRange != "1y" || gotInterval != "1d" {
		t.Fatalf("request = range %q interval %q, want 1y/1d", gotRange, gotInterval)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2 (null interval dropped)", len(bars))
	}
	if bars[0].Close != 186.4 || bars[1].Close != 187.5 {
		t.Fatalf("closes = %v, %v", bars[0].Close, bars[1].Close)
	}
	if bars[1].AdjustedClose != 187.1 {
		t.Fatalf("adjusted close = %v, want 187.1", bars[1].AdjustedClose)
	}
	if !bars[0].Timestamp.Before(bars[1].Timestamp) {
		t.Fatal("bars must be ascending")
	}
}

func TestGetHistoryIntradayInterval(t *testing.T) {
	var gotInterval string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprint(w, chartPayload)
	})

	c.GetHistory(context.Background(), "AAPL", domrepo.Range5D)
	if gotInterval != "15m" {
		t.Fatalf("interval = %q, want 15m for 5d", gotInterval)
	}
}

func TestFailuresReturnSentinels(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if q := c.GetQuote(context.Background(), "AAPL"); q != nil {
		t.Fatalf("quote on 429 = %+v, want nil", q)
	}
	if bars := c.GetHistory(context.Background(), "AAPL", domrepo.Range1Y); len(bars) != 0 {
		t.Fatalf("history on 429 = %d bars, want 0", len(bars))
	}
	if m := c.Search(context.Background(), "apple", 5); len(m) != 0 {
		t.Fatalf("search on 429 = %d matches, want 0", len(m))
	}
}

func TestMalformedPayloadReturnsSentinels(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[]}}`)
	})
	if q := c.GetQuote(context.Background(), "ZZZZ"); q != nil {
		t.Fatalf("quote for empty result = %+v, want nil", q)
	}
}

func TestSearch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "apple" {
			t.Errorf("query = %q", r.URL.Query().Get("q"))
		}
		fmt.Fprint(w, `{"quotes":[
			{"symbol":"AAPL","shortname":"Apple","longname":"Apple Inc.","exchange":"NMS","quoteType":"EQUITY"},
			{"symbol":"","shortname":"ghost"},
			{"symbol":"APLE","shortname":"Apple Hospitality","exchange":"NYQ","quoteType":"EQUITY"}
		]}`)
	})

	matches := c.Search(context.Background(), "apple", 5)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2 (empty symbol dropped)", len(matches))
	}
	if matches[0].Symbol != "AAPL" || matches[0].Name != "Apple Inc." {
		t.Fatalf("first match = %+v", matches[0])
	}
	if matches[1].Name != "Apple Hospitality" {
		t.Fatalf("longname fallback to shortname failed: %+v", matches[1])
	}
}

func TestSearchHonorsLimit(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quotes":[
			{"symbol":"A1"},{"symbol":"A2"},{"symbol":"A3"}
		]}`)
	})
	if matches := c.Search(context.Background(), "a", 2); len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
}
