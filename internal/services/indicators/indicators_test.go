package indicators

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	c := []float64{1, 2, 3, 4, 5}
	if got := SMA(c, 5); !almostEqual(got, 3) {
		t.Fatalf("SMA(5) = %v, want 3", got)
	}
	if got := SMA(c, 2); !almostEqual(got, 4.5) {
		t.Fatalf("SMA(2) = %v, want 4.5", got)
	}
	if got := SMA(c, 6); got != 0 {
		t.Fatalf("SMA with insufficient data = %v, want 0", got)
	}
}

func TestEMASeedsWithSMA(t *testing.T) {
	c := []float64{2, 4, 6}
	// seed = SMA(2,4) = 3; k = 2/3; ema = (6-3)*2/3 + 3 = 5
	if got := EMA(c, 2); !almostEqual(got, 5) {
		t.Fatalf("EMA = %v, want 5", got)
	}
	if got := EMA(c, 4); got != 0 {
		t.Fatalf("EMA with insufficient data = %v, want 0", got)
	}
}

func TestEMASeriesPointInTime(t *testing.T) {
	c := []float64{1, 2, 3, 4, 5, 6}
	s := EMASeries(c, 3)
	if s[0] != 0 || s[1] != 0 {
		t.Fatalf("values before the seed index should be 0, got %v %v", s[0], s[1])
	}
	if !almostEqual(s[2], 2) {
		t.Fatalf("seed = %v, want SMA of first 3 = 2", s[2])
	}
	// k = 0.5: 3, 4, 5
	if !almostEqual(s[3], 3) || !almostEqual(s[4], 4) || !almostEqual(s[5], 5) {
		t.Fatalf("recurrence = %v, want [.. 3 4 5]", s[3:])
	}
}

func TestRSI(t *testing.T) {
	short := []float64{1, 2, 3}
	if got := RSI(short, RSIPeriod); got != 50 {
		t.Fatalf("RSI with insufficient data = %v, want neutral 50", got)
	}

	up := make([]float64, 20)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	if got := RSI(up, RSIPeriod); got != 100 {
		t.Fatalf("RSI of monotone rise = %v, want 100", got)
	}

	// Alternate +2/-1 over the window: avgGain/avgLoss = 2, RSI = 100-100/3.
	mixed := []float64{100}
	for i := 0; i < 14; i++ {
		if i%2 == 0 {
			mixed = append(mixed, mixed[len(mixed)-1]+2)
		} else {
			mixed = append(mixed, mixed[len(mixed)-1]-1)
		}
	}
	got := RSI(mixed, RSIPeriod)
	want := 100 - 100/(1+2.0)
	if !almostEqual(got, want) {
		t.Fatalf("RSI = %v, want %v", got, want)
	}
}

func TestMACDFlatSeries(t *testing.T) {
	c := make([]float64, 60)
	for i := range c {
		c[i] = 50
	}
	line, signal, hist := MACDSeries(c)
	last := len(c) - 1
	if line[last] != 0 || signal[last] != 0 || hist[last] != 0 {
		t.Fatalf("MACD of flat series = (%v, %v, %v), want zeros", line[last], signal[last], hist[last])
	}
}

func TestMACDTrendSign(t *testing.T) {
	c := make([]float64, 80)
	for i := range c {
		c[i] = 100 + float64(i)
	}
	line, signal, hist := MACDSeries(c)
	last := len(c) - 1
	if line[last] <= 0 {
		t.Fatalf("MACD line in uptrend = %v, want > 0 (fast EMA above slow)", line[last])
	}
	if signal[last] <= 0 {
		t.Fatalf("MACD signal in uptrend = %v, want > 0", signal[last])
	}
	if !almostEqual(hist[last], line[last]-signal[last]) {
		t.Fatalf("histogram = %v, want line-signal = %v", hist[last], line[last]-signal[last])
	}
}

func TestBollinger(t *testing.T) {
	c := make([]float64, BollingerPeriod)
	for i := range c {
		if i%2 == 0 {
			c[i] = 90
		} else {
			c[i] = 110
		}
	}
	b := Bollinger(c, BollingerPeriod, BollingerK)
	if !almostEqual(b.Middle, 100) {
		t.Fatalf("middle = %v, want 100", b.Middle)
	}
	// population stddev of {90,110} pairs is 10, bands at ±20
	if !almostEqual(b.Upper, 120) || !almostEqual(b.Lower, 80) {
		t.Fatalf("bands = (%v, %v), want (120, 80)", b.Upper, b.Lower)
	}

	if got := Bollinger(c[:5], BollingerPeriod, BollingerK); got != (Bollinger(nil, BollingerPeriod, BollingerK)) {
		t.Fatalf("insufficient data should yield the zero value, got %+v", got)
	}
}

func TestComputeMinimumBars(t *testing.T) {
	c := make([]float64, MinBars-1)
	for i := range c {
		c[i] = 100
	}
	if got := Compute(c); got != nil {
		t.Fatalf("Compute with %d bars = %+v, want nil", len(c), got)
	}
}

func TestComputeSufficiencyFlags(t *testing.T) {
	c := make([]float64, 30)
	for i := range c {
		c[i] = 100 + float64(i)
	}
	set := Compute(c)
	if set == nil {
		t.Fatal("Compute returned nil with 30 bars")
	}
	s := set.Sufficient
	if !s.RSI || !s.Bollinger || !s.SMA20 || !s.EMA12 || !s.EMA26 {
		t.Fatalf("short-period flags should be true: %+v", s)
	}
	if s.MACD {
		t.Fatalf("MACD signal needs 34 bars, flag should be false at 30")
	}
	if s.SMA50 || s.SMA200 {
		t.Fatalf("long SMA flags should be false at 30 bars: %+v", s)
	}
	if set.SMA50 != 0 || set.SMA200 != 0 {
		t.Fatalf("insufficient SMAs should be zero, got %v %v", set.SMA50, set.SMA200)
	}
}

func TestComputeFullHistory(t *testing.T) {
	c := make([]float64, 250)
	for i := range c {
		c[i] = 100 + 0.1*float64(i)
	}
	set := Compute(c)
	if set == nil {
		t.Fatal("Compute returned nil with 250 bars")
	}
	if !set.Sufficient.SMA200 || set.SMA200 == 0 {
		t.Fatalf("SMA200 should be available with 250 bars: %+v", set)
	}
	if set.SMA20 <= set.SMA50 {
		t.Fatalf("in an uptrend SMA20 (%v) should exceed SMA50 (%v)", set.SMA20, set.SMA50)
	}
}
