package repository

import "time"

// Range is the shared history-range vocabulary every source client maps its
// provider-specific period/interval parameters onto.
type Range string

const (
	Range1D  Range = "1d"
	Range5D  Range = "5d"
	Range1Mo Range = "1mo"
	Range3Mo Range = "3mo"
	Range6Mo Range = "6mo"
	Range1Y  Range = "1y"
	Range2Y  Range = "2y"
	Range5Y  Range = "5y"
)

// IsValidRange returns true if r is a supported range.
func IsValidRange(r Range) bool {
	switch r {
	case Range1D, Range5D, Range1Mo, Range3Mo, Range6Mo, Range1Y, Range2Y, Range5Y:
		return true
	default:
		return false
	}
}

// DefaultRange returns the default history range.
func DefaultRange() Range { return Range1Y }

// NormalizeRange converts a raw string to a valid range (or the default).
func NormalizeRange(s string) Range {
	if s == "" {
		return DefaultRange()
	}
	r := Range(s)
	if IsValidRange(r) {
		return r
	}
	return DefaultRange()
}

// Intraday reports whether the range requests finer-than-daily bars.
func (r Range) Intraday() bool {
	return r == Range1D || r == Range5D
}

// Days returns the fixed range→day-count used to trim fallback history that is
// wider than the caller asked for.
func (r Range) Days() int {
	switch r {
	case Range1D:
		return 1
	case Range5D:
		return 5
	case Range1Mo:
		return 30
	case Range3Mo:
		return 90
	case Range6Mo:
		return 180
	case Range1Y:
		return 365
	case Range2Y:
		return 730
	case Range5Y:
		return 1825
	default:
		return 365
	}
}

// HistoryTTL returns the cache TTL for history fetched at this range. Intraday
// bars go stale faster than daily ones.
func (r Range) HistoryTTL() time.Duration {
	switch r {
	case Range1D:
		return 60 * time.Second
	case Range5D:
		return 120 * time.Second
	default:
		return 300 * time.Second
	}
}

// Cache TTLs for the non-history aggregator lookups.
const (
	QuoteTTL  = 60 * time.Second
	SearchTTL = 600 * time.Second
)
