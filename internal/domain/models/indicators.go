package models

// MACDValue holds the MACD line, its signal line, and the histogram.
type MACDValue struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerValue holds the Bollinger band levels.
type BollingerValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSet is a derived, stateless snapshot recomputed on demand from a bar
// sequence. Zero-valued fields mean "insufficient history", not an error; the
// Sufficient flags let consumers tell a neutral reading from missing data.
type IndicatorSet struct {
	RSI       float64        `json:"rsi"`
	MACD      MACDValue      `json:"macd"`
	Bollinger BollingerValue `json:"bollinger"`
	SMA20     float64        `json:"sma20"`
	SMA50     float64        `json:"sma50"`
	SMA200    float64        `json:"sma200"`
	EMA12     float64        `json:"ema12"`
	EMA26     float64        `json:"ema26"`

	Sufficient IndicatorSufficiency `json:"sufficient"`
}

// IndicatorSufficiency reports, per indicator, whether enough history backed
// the numeric value above.
type IndicatorSufficiency struct {
	RSI       bool `json:"rsi"`
	MACD      bool `json:"macd"`
	Bollinger bool `json:"bollinger"`
	SMA20     bool `json:"sma20"`
	SMA50     bool `json:"sma50"`
	SMA200    bool `json:"sma200"`
	EMA12     bool `json:"ema12"`
	EMA26     bool `json:"ema26"`
}
