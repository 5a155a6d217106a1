package providers

import "github.com/go-redis/redis/v8"

// NewRedisProvider returns nil when addr is empty so callers can fall back to
// in-memory stores.
func NewRedisProvider(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}
