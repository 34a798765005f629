package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// DefaultTTL applies when a write does not override the expiration.
const DefaultTTL = 60 * time.Second

// Service defines cache operations interface. A read after expiry behaves
// identically to a miss and evicts the stale entry.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

// GetTyped retrieves a key and coerces it to T. The in-process layer hands
// back the stored value directly; a Redis-backed layer hands back raw JSON,
// which is unmarshaled here. Any mismatch counts as a miss.
func GetTyped[T any](ctx context.Context, c Service, key string) (T, bool) {
	var zero T
	var raw interface{}
	if err := c.Get(ctx, key, &raw); err != nil {
		return zero, false
	}
	if v, ok := raw.(T); ok {
		return v, true
	}
	if s, ok := raw.(string); ok {
		var out T
		if err := json.Unmarshal([]byte(s), &out); err == nil {
			return out, true
		}
	}
	return zero, false
}
