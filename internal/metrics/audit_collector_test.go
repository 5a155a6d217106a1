package metrics

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func collect(t *testing.T, c prometheus.Collector) map[string]float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)
	out := map[string]float64{}
	for m := range ch {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			t.Fatalf("write metric: %v", err)
		}
		key := m.Desc().String()
		for _, l := range pb.GetLabel() {
			key = l.GetName() + "=" + l.GetValue()
		}
		if len(pb.GetLabel()) == 0 {
			switch m.Desc() {
			case c.(*auditCollector).recordsDesc:
				key = "records"
			case c.(*auditCollector).expiredDesc:
				key = "expired"
			}
		}
		out[key] = pb.GetGauge().GetValue()
	}
	return out
}

func TestAuditCollectorReportsCounts(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	rdb.HSet(ctx, KeyCalls, "a", "{}", "b", "{}")
	rdb.SAdd(ctx, KeyCallMethods, "GetUser")
	rdb.ZAdd(ctx, KeyMethodCalls("GetUser"), &redis.Z{Score: 1, Member: "a"}, &redis.Z{Score: 2, Member: "b"})
	rdb.ZAdd(ctx, KeyCallsTTL, &redis.Z{Score: 1, Member: "a"})

	got := collect(t, newAuditCollector(rdb, nil))
	if got["records"] != 2 {
		t.Errorf("records = %v, want 2", got["records"])
	}
	if got["method=GetUser"] != 2 {
		t.Errorf("by method = %v, want 2", got["method=GetUser"])
	}
	if got["expired"] != 1 {
		t.Errorf("expired = %v, want 1", got["expired"])
	}
}

func TestAuditCollectorNilClient(t *testing.T) {
	got := collect(t, newAuditCollector(nil, nil))
	if len(got) != 0 {
		t.Fatalf("expected no metrics without redis, got %v", got)
	}
}
