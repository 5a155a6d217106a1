package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/osvaldoandrade/soapgate/internal/metrics"
	"github.com/osvaldoandrade/soapgate/pkg/domain"

	"github.com/go-redis/redis/v8"
)

var ErrNotFound = errors.New("not-found")

// CallRepository keeps the audit trail of gateway calls. Records expire
// after the retention window and each method keeps at most maxPerMethod
// of its most recent calls.
type CallRepository interface {
	SaveCall(ctx context.Context, rec *domain.CallRecord) error
	GetCall(ctx context.Context, id string) (*domain.CallRecord, error)
	ListByMethod(ctx context.Context, method string, limit int) ([]domain.CallRecord, error)
	PurgeExpired(ctx context.Context, limit int) (int, error)
	Ping(ctx context.Context) error
}

type callRedisRepo struct {
	rdb          *redis.Client
	retention    time.Duration
	maxPerMethod int
	now          func() time.Time
}

func NewCallRepository(rdb *redis.Client, retention time.Duration, maxPerMethod int) CallRepository {
	return &callRedisRepo{rdb: rdb, retention: retention, maxPerMethod: maxPerMethod, now: time.Now}
}

func (r *callRedisRepo) SaveCall(ctx context.Context, rec *domain.CallRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("call record requires an id")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal call: %w", err)
	}
	score := float64(rec.StartedAt.UnixMilli())
	expireAt := float64(r.now().Add(r.retention).Unix())

	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, metrics.KeyCalls, rec.ID, string(b))
		p.SAdd(ctx, metrics.KeyCallMethods, rec.Method)
		p.ZAdd(ctx, metrics.KeyMethodCalls(rec.Method), &redis.Z{Score: score, Member: rec.ID})
		p.ZAdd(ctx, metrics.KeyCallsTTL, &redis.Z{Score: expireAt, Member: rec.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save call: %w", err)
	}
	return r.trim(ctx, rec.Method)
}

// trim drops the oldest calls of method beyond maxPerMethod.
func (r *callRedisRepo) trim(ctx context.Context, method string) error {
	if r.maxPerMethod <= 0 {
		return nil
	}
	key := metrics.KeyMethodCalls(method)
	n, err := r.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis ZCARD method: %w", err)
	}
	excess := n - int64(r.maxPerMethod)
	if excess <= 0 {
		return nil
	}
	ids, err := r.rdb.ZRange(ctx, key, 0, excess-1).Result()
	if err != nil {
		return fmt.Errorf("redis ZRANGE method: %w", err)
	}
	return r.remove(ctx, method, ids)
}

func (r *callRedisRepo) remove(ctx context.Context, method string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, metrics.KeyCalls, ids...)
		if method != "" {
			p.ZRem(ctx, metrics.KeyMethodCalls(method), members...)
		}
		p.ZRem(ctx, metrics.KeyCallsTTL, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis remove calls: %w", err)
	}
	return nil
}

func (r *callRedisRepo) GetCall(ctx context.Context, id string) (*domain.CallRecord, error) {
	js, err := r.rdb.HGet(ctx, metrics.KeyCalls, id).Result()
	if err == redis.Nil || (err == nil && js == "") {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET call: %w", err)
	}
	var rec domain.CallRecord
	if err := json.Unmarshal([]byte(js), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal call: %w", err)
	}
	return &rec, nil
}

// ListByMethod returns the most recent calls first.
func (r *callRedisRepo) ListByMethod(ctx context.Context, method string, limit int) ([]domain.CallRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := r.rdb.ZRevRange(ctx, metrics.KeyMethodCalls(method), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ZREVRANGE method: %w", err)
	}
	if len(ids) == 0 {
		return []domain.CallRecord{}, nil
	}
	vals, err := r.rdb.HMGet(ctx, metrics.KeyCalls, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HMGET calls: %w", err)
	}
	out := make([]domain.CallRecord, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		var rec domain.CallRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// PurgeExpired deletes up to limit calls whose retention has elapsed.
func (r *callRedisRepo) PurgeExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 1000
	}
	ids, err := r.rdb.ZRangeByScore(ctx, metrics.KeyCallsTTL, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(r.now().Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ZRANGEBYSCORE ttl: %w", err)
	}

	byMethod := map[string][]string{}
	for _, id := range ids {
		method := ""
		if rec, err := r.GetCall(ctx, id); err == nil {
			method = rec.Method
		}
		byMethod[method] = append(byMethod[method], id)
	}
	for method, group := range byMethod {
		if err := r.remove(ctx, method, group); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

func (r *callRedisRepo) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
