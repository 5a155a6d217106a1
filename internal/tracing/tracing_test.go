package tracing

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSanitizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"http://collector:4318/": "collector:4318",
		"https://otel.local":     "otel.local",
		"collector:4317/":        "collector:4317",
		"  ":                     "",
	}
	for in, want := range cases {
		if got := sanitizeEndpoint(in); got != want {
			t.Errorf("sanitizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "1", "YES", "on"} {
		if !parseBool(v) {
			t.Errorf("parseBool(%q) = false", v)
		}
	}
	if parseBool("off") {
		t.Error("parseBool(off) = true")
	}
}

func TestInjectHeadersAndTraceContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx, span := tp.Tracer("test").Start(context.Background(), "soap")
	defer span.End()

	h := http.Header{}
	InjectHeaders(ctx, h)
	tp1 := h.Get("traceparent")
	if !strings.Contains(tp1, span.SpanContext().TraceID().String()) {
		t.Fatalf("traceparent = %q", tp1)
	}
	if got, _ := TraceContextStrings(ctx); got != tp1 {
		t.Errorf("TraceContextStrings = %q, want %q", got, tp1)
	}

	InjectHeaders(ctx, nil)
	if got, _ := TraceContextStrings(context.Background()); got != "" {
		t.Errorf("no span should yield no traceparent, got %q", got)
	}
}

func TestConfigResolved(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	c := Config{SampleRatio: 5}.resolved()
	if c.ServiceName != "soapgate" || c.OTLPEndpoint != "collector:4317" || !c.OTLPInsecure || c.SampleRatio != 1 {
		t.Errorf("resolved = %+v", c)
	}
	c = Config{ServiceName: "edge", OTLPEndpoint: "otel:4317", SampleRatio: 0.25}.resolved()
	if c.ServiceName != "edge" || c.OTLPEndpoint != "otel:4317" || c.SampleRatio != 0.25 {
		t.Errorf("explicit values overridden: %+v", c)
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Config{ServiceName: "soapgate", Env: "prod", SoapBaseURL: "http://svc.local"})
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	if got["service.name"] != "soapgate" || got["deployment.environment"] != "prod" || got["soapgate.soap.base_url"] != "http://svc.local" {
		t.Errorf("attributes = %v", got)
	}
}
