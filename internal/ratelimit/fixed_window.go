package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Bucket allows Requests per WindowSeconds for one subject.
type Bucket struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"windowSeconds"`
}

func (b Bucket) Enabled() bool {
	return b.Requests > 0 && b.WindowSeconds > 0
}

func (b Bucket) window() time.Duration {
	return time.Duration(b.WindowSeconds) * time.Second
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, scope string, subject string, bucket Bucket) (Decision, error)
}

// FixedWindowLimiter counts requests per subject in Redis windows aligned to
// the bucket length.
type FixedWindowLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

func NewFixedWindowLimiter(rdb *redis.Client) *FixedWindowLimiter {
	return &FixedWindowLimiter{rdb: rdb, now: time.Now}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, scope string, subject string, bucket Bucket) (Decision, error) {
	if l == nil || l.rdb == nil || !bucket.Enabled() {
		return Decision{Allowed: true}, nil
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		scope = "default"
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "unknown"
	}

	now := l.now().UTC()
	win := bucket.window()
	start := now.Truncate(win)
	key := fmt.Sprintf("soapgate:rl:%s:%s:%d", scope, sha256Hex(subject), start.Unix())

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, win+time.Second)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("redis ratelimit: %w", err)
	}

	count := int(incr.Val())
	if count <= bucket.Requests {
		return Decision{Allowed: true, Remaining: bucket.Requests - count}, nil
	}
	retry := start.Add(win).Sub(now)
	if retry < time.Second {
		retry = time.Second
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
