package stooq

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

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(srv.URL, 2*time.Second, log)
}

func TestStooqSymbolMapping(t *testing.T) {
	if got := stooqSymbol("AAPL"); got != "aapl.us" {
		t.Fatalf("stooqSymbol(AAPL) = %q, want aapl.us", got)
	}
	if got := stooqSymbol("cdr.pl"); got != "cdr.pl" {
		t.Fatalf("suffixed symbol should pass through, got %q", got)
	}
}

func TestGetHistory(t *testing.T) {
	var gotSymbol string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("s")
		fmt.Fprint(w, "Date,Open,High,Low,Close,Volume\n"+
			"2024-04-24,186.1,187.0,185.5,186.4,1200000\n"+
			"2024-04-25,186.5,188.0,186.0,187.5,1500000\n"+
			"2024-04-26,0,0,0,0,0\n")
	})

	bars := c.GetHistory(context.Background(), "AAPL", domrepo.Range1Mo)
	if gotSymbol != "aapl.us" {
		t.Fatalf("requested symbol = %q, want aapl.us", gotSymbol)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2 (zero-close row dropped)", len(bars))
	}
	if bars[1].Close != 187.5 || bars[1].Volume != 1500000 {
		t.Fatalf("last bar = %+v", bars[1])
	}
}

func TestGetQuote(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Symbol,Date,Time,Open,High,Low,Close,Volume\n"+
			"AAPL.US,2024-04-26,22:00:05,186.0,188.2,185.7,187.5,52000000\n")
	})

	q := c.GetQuote(context.Background(), "aapl")
	if q == nil {
		t.Fatal("quote is nil")
	}
	if q.Symbol != "AAPL" || q.Price != 187.5 {
		t.Fatalf("quote = %+v", q)
	}
	if q.Change != 1.5 {
		t.Fatalf("change vs open = %v, want 1.5", q.Change)
	}
	if q.Timestamp.Year() != 2024 || q.Timestamp.Hour() != 22 {
		t.Fatalf("timestamp = %v", q.Timestamp)
	}
}

func TestUnknownSymbolReturnsNil(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Symbol,Date,Time,Open,High,Low,Close,Volume\n"+
			"ZZZZ.US,N/D,N/D,N/D,N/D,N/D,N/D,N/D\n")
	})
	if q := c.GetQuote(context.Background(), "ZZZZ"); q != nil {
		t.Fatalf("quote for unknown symbol = %+v, want nil", q)
	}
}

func TestFailuresReturnSentinels(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	if bars := c.GetHistory(context.Background(), "AAPL", domrepo.Range1Y); len(bars) != 0 {
		t.Fatalf("history on 503 = %d bars, want 0", len(bars))
	}
	if q := c.GetQuote(context.Background(), "AAPL"); q != nil {
		t.Fatal("quote on 503 should be nil")
	}
	if m := c.Search(context.Background(), "apple", 5); m != nil {
		t.Fatal("stooq search should always be empty")
	}
}
