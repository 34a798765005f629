package models

import "time"

// Bar is one OHLCV observation for a fixed interval, ordered ascending by
// timestamp and unique per timestamp within a series.
type Bar struct {
	Timestamp     time.Time `json:"timestamp"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	Volume        float64   `json:"volume"`
	AdjustedClose float64   `json:"adjustedClose,omitempty"`
}

// EffectiveClose prefers the adjusted close for indicator math when present.
func (b Bar) EffectiveClose() float64 {
	if b.AdjustedClose > 0 {
		return b.AdjustedClose
	}
	return b.Close
}

// Quote is the latest known tick for a symbol. Immutable snapshot: refreshes
// replace the whole value, never mutate fields in place.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name,omitempty"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Volume        float64   `json:"volume"`
	MarketCap     float64   `json:"marketCap,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// SymbolMatch is one symbol-search hit normalized from a provider payload.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Tick is a single streamed trade used to keep cached quotes warm.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// Closes extracts the effective closing-price series from bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.EffectiveClose()
	}
	return out
}
