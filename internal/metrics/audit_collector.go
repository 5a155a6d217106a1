package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// Audit key layout, shared with the redis call repository.
const (
	KeyCalls       = "soapgate:calls"
	KeyCallMethods = "soapgate:calls:methods"
	KeyCallsTTL    = "soapgate:calls:ttl"
)

func KeyMethodCalls(method string) string {
	return "soapgate:calls:method:" + method
}

type auditCollector struct {
	rdb    *redis.Client
	logger *slog.Logger

	recordsDesc  *prometheus.Desc
	byMethodDesc *prometheus.Desc
	expiredDesc  *prometheus.Desc
}

func newAuditCollector(rdb *redis.Client, logger *slog.Logger) *auditCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &auditCollector{
		rdb:    rdb,
		logger: logger,
		recordsDesc: prometheus.NewDesc(
			"soapgate_audit_records",
			"Current number of stored call audit records.",
			nil,
			nil,
		),
		byMethodDesc: prometheus.NewDesc(
			"soapgate_audit_records_by_method",
			"Current number of indexed call audit records by SOAP method.",
			[]string{"method"},
			nil,
		),
		expiredDesc: prometheus.NewDesc(
			"soapgate_audit_expired_pending",
			"Audit records past their retention and waiting for a purge.",
			nil,
			nil,
		),
	}
}

func (c *auditCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recordsDesc
	ch <- c.byMethodDesc
	ch <- c.expiredDesc
}

func (c *auditCollector) Collect(ch chan<- prometheus.Metric) {
	if c.rdb == nil {
		return
	}

	// Keep Redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	methods, err := c.rdb.SMembers(ctx, KeyCallMethods).Result()
	if err != nil && err != redis.Nil {
		c.logger.Warn("prometheus audit collector failed", "err", err)
		return
	}

	pipe := c.rdb.Pipeline()
	total := pipe.HLen(ctx, KeyCalls)
	expired := pipe.ZCount(ctx, KeyCallsTTL, "-inf", strconv.FormatInt(time.Now().UTC().Unix(), 10))
	perMethod := make(map[string]*redis.IntCmd, len(methods))
	for _, m := range methods {
		perMethod[m] = pipe.ZCard(ctx, KeyMethodCalls(m))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		c.logger.Warn("prometheus audit collector failed", "err", err)
		return
	}

	emitGauge(ch, c.recordsDesc, float64(total.Val()))
	emitGauge(ch, c.expiredDesc, float64(expired.Val()))
	for m, cmd := range perMethod {
		emitGauge(ch, c.byMethodDesc, float64(cmd.Val()), m)
	}
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

var registerAuditCollectorOnce sync.Once

func RegisterAuditCollector(rdb *redis.Client, logger *slog.Logger) {
	if rdb == nil {
		return
	}
	registerAuditCollectorOnce.Do(func() {
		prometheus.MustRegister(newAuditCollector(rdb, logger))
	})
}
