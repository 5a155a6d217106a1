// Package handler owns the lifecycle of one SOAP service connection: the
// reachability probe, the client dial and the normalized calls made through
// it.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/osvaldoandrade/soapgate/internal/metrics"
	"github.com/osvaldoandrade/soapgate/internal/providers"
	"github.com/osvaldoandrade/soapgate/pkg/domain"
	"github.com/osvaldoandrade/soapgate/pkg/normalizer"
	"github.com/osvaldoandrade/soapgate/pkg/soap"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultChannel = "SoapHandler"

type Settings struct {
	BaseURL     string
	Endpoint    string
	Mode        domain.Mode
	ThrowErrors bool
	Timeout     time.Duration
	SOAP        soap.Options
	Channel     string
}

// WSDLURL joins the base URL and the endpoint. It is empty when no endpoint
// is configured, which puts the client in non-WSDL mode.
func (s Settings) WSDLURL() string {
	if strings.TrimSpace(s.Endpoint) == "" {
		return ""
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(s.Endpoint, "/")
}

// Invoker is the part of *soap.Client the handler depends on.
type Invoker interface {
	Invoke(ctx context.Context, method string, args []any) (map[string]any, error)
	LastResponse() string
}

type Dialer func(ctx context.Context, wsdlURL string, opts soap.Options) (Invoker, error)

func dialSOAP(ctx context.Context, wsdlURL string, opts soap.Options) (Invoker, error) {
	c, err := soap.Dial(ctx, wsdlURL, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithProber(p providers.Prober) Option {
	return func(h *Handler) {
		if p != nil {
			h.prober = p
		}
	}
}

func WithDialer(d Dialer) Option {
	return func(h *Handler) {
		if d != nil {
			h.dial = d
		}
	}
}

// Handler is safe for concurrent use once New returns.
type Handler struct {
	settings   Settings
	client     Invoker
	connErr    error
	normalizer normalizer.Normalizer
	logger     *slog.Logger
	prober     providers.Prober
	dial       Dialer
}

// New probes the base URL and dials the service. A failure leaves the
// handler disconnected with ConnectionError set; the error is returned only
// when ThrowErrors is on, in which case the handler is nil.
func New(ctx context.Context, s Settings, opts ...Option) (*Handler, error) {
	if s.Mode == "" {
		s.Mode = domain.ModeSilent
	}
	if s.Channel == "" {
		s.Channel = DefaultChannel
	}
	if s.Timeout <= 0 {
		s.Timeout = 5 * time.Second
	}
	h := &Handler{
		settings: s,
		logger:   slog.Default(),
		prober:   providers.NewHTTPProber(),
		dial:     dialSOAP,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("channel", s.Channel)
	h.normalizer = normalizer.New(s.Mode)

	ctx, span := otel.Tracer("soapgate/handler").Start(ctx, "soapgate.connect",
		trace.WithAttributes(attribute.String("soapgate.base_url", s.BaseURL)),
	)
	defer span.End()

	up, diagnostic := h.prober.Exists(ctx, s.BaseURL, s.Timeout)
	if !up {
		herr := domain.NewUnreachableError(s.BaseURL, diagnostic)
		h.connErr = herr
		metrics.ConnectAttemptsTotal.WithLabelValues("unreachable").Inc()
		span.SetStatus(codes.Error, herr.Message)
		h.logger.Error("base url not responding", "baseUrl", s.BaseURL, "diagnostic", diagnostic)
		if err := h.escalate(herr); err != nil {
			return nil, err
		}
		return h, nil
	}

	client, err := h.dial(ctx, s.WSDLURL(), s.SOAP)
	if err != nil {
		dump := err.Error()
		if f, ok := soap.AsFault(err); ok {
			dump = f.Dump()
		}
		h.connErr = err
		metrics.ConnectAttemptsTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.Error("soap client dial failed", "wsdl", s.WSDLURL(), "err", err)
		if err := h.escalate(domain.NewConnectionError(dump, err)); err != nil {
			return nil, err
		}
		return h, nil
	}

	h.client = client
	metrics.ConnectAttemptsTotal.WithLabelValues("connected").Inc()
	h.logger.Debug("soap client connected", "wsdl", s.WSDLURL())
	return h, nil
}

func (h *Handler) IsConnected() bool { return h.client != nil }

// ConnectionError describes why the handler is disconnected, or "" when it
// is connected.
func (h *Handler) ConnectionError() string {
	if h.connErr == nil {
		return ""
	}
	var herr *domain.HandlerError
	if errors.As(h.connErr, &herr) {
		return herr.Message
	}
	if f, ok := soap.AsFault(h.connErr); ok {
		return f.Message
	}
	return h.connErr.Error()
}

func (h *Handler) Mode() domain.Mode { return h.settings.Mode }

func (h *Handler) IsDebug() bool { return h.settings.Mode == domain.ModeDebug }

func (h *Handler) ThrowErrors() bool { return h.settings.ThrowErrors }

// Call invokes p.Method and normalizes the reply. The record is always
// meaningful; the error is non-nil only when ThrowErrors is on and the
// outcome escalates. Validation failures never escalate.
func (h *Handler) Call(ctx context.Context, p *domain.RequestParams) (domain.ResultRecord, error) {
	if p == nil {
		p = domain.NewRequest("")
	}
	start := time.Now()
	ctx, span := otel.Tracer("soapgate/handler").Start(ctx, "soapgate.call",
		trace.WithAttributes(
			attribute.String("soapgate.method", p.Method),
			attribute.String("soapgate.container", p.Struct.Container),
		),
	)
	defer span.End()
	defer func() {
		metrics.SoapCallDurationSeconds.WithLabelValues(p.Method).Observe(time.Since(start).Seconds())
	}()

	if !h.IsConnected() {
		h.logger.Warn("call on disconnected handler", "method", p.Method)
		return h.fail(span, p.Method, domain.LevelNotConnected, domain.NewHandlerError(domain.LevelNotConnected, nil))
	}

	reply, err := h.client.Invoke(ctx, p.Method, p.Args)
	if err != nil {
		dump := err.Error()
		if f, ok := soap.AsFault(err); ok {
			dump = f.Dump()
		}
		span.RecordError(err)
		h.logger.Error("soap call failed", "method", p.Method, "err", err)
		if h.IsDebug() {
			h.logger.Debug("soap call dump", "method", p.Method, "dump", dump)
		}
		return h.fail(span, p.Method, domain.LevelCallFailed, domain.NewCallError(dump, err))
	}

	rec := h.normalizer.Normalize(reply, p.Struct, p.Predicate, h.client.LastResponse())
	if rec.Succeeded {
		metrics.SoapCallsTotal.WithLabelValues(p.Method, "success").Inc()
		h.logger.Debug("soap call succeeded", "method", p.Method, "message", rec.Message)
		return rec, nil
	}

	level, _ := rec.ErrorLevel()
	metrics.SoapCallsTotal.WithLabelValues(p.Method, level.String()).Inc()
	span.SetStatus(codes.Error, level.String())
	switch level {
	case domain.LevelStructNotFound, domain.LevelInternalStructNotFound:
		h.logger.Warn("unexpected reply structure", "method", p.Method, "level", level.String(), "container", p.Struct.Container)
		return rec, h.escalate(domain.NewHandlerError(level, nil))
	default:
		h.logger.Info("soap call rejected", "method", p.Method, "message", rec.Message)
		return rec, nil
	}
}

func (h *Handler) fail(span trace.Span, method string, level domain.ErrorLevel, herr *domain.HandlerError) (domain.ResultRecord, error) {
	metrics.SoapCallsTotal.WithLabelValues(method, level.String()).Inc()
	span.SetStatus(codes.Error, level.String())
	return domain.Failure(level), h.escalate(herr)
}

// escalate returns an untyped nil when errors are not thrown.
func (h *Handler) escalate(herr *domain.HandlerError) error {
	if !h.settings.ThrowErrors || herr == nil {
		return nil
	}
	metrics.EscalatedErrorsTotal.WithLabelValues(herr.Level.String()).Inc()
	return herr
}
