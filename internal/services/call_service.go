package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/osvaldoandrade/soapgate/internal/metrics"
	"github.com/osvaldoandrade/soapgate/internal/repository"
	"github.com/osvaldoandrade/soapgate/internal/tracing"
	"github.com/osvaldoandrade/soapgate/pkg/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrInvalidRequest = errors.New("invalid request")

// SoapCaller is satisfied by *handler.Handler.
type SoapCaller interface {
	Call(ctx context.Context, p *domain.RequestParams) (domain.ResultRecord, error)
	IsConnected() bool
	ConnectionError() string
}

type InvokeRequest struct {
	Method string                  `json:"method" yaml:"method"`
	Args   []any                   `json:"args,omitempty" yaml:"args,omitempty"`
	Struct domain.StructDescriptor `json:"struct" yaml:"struct"`
	// Expect lists the status values that count as success; empty means 1.
	Expect []any `json:"expect,omitempty" yaml:"expect,omitempty"`
}

func (r InvokeRequest) Validate() error {
	if strings.TrimSpace(r.Method) == "" {
		return fmt.Errorf("%w: method is required", ErrInvalidRequest)
	}
	if err := r.Struct.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (r InvokeRequest) Params() *domain.RequestParams {
	p := domain.NewRequest(r.Method).WithArgs(r.Args...).WithStruct(r.Struct)
	if len(r.Expect) > 0 {
		p.WithPredicate(domain.OneOf(r.Expect...))
	}
	return p
}

type Health struct {
	Connected       bool   `json:"connected"`
	ConnectionError string `json:"connectionError,omitempty"`
	BaseURL         string `json:"baseUrl"`
	Store           string `json:"store"`
}

type CallService interface {
	Invoke(ctx context.Context, req InvokeRequest) (*domain.CallRecord, error)
	Get(ctx context.Context, id string) (*domain.CallRecord, error)
	ListByMethod(ctx context.Context, method string, limit int) ([]domain.CallRecord, error)
	Purge(ctx context.Context, limit int) (int, error)
	Health(ctx context.Context) Health
}

type callService struct {
	caller  SoapCaller
	repo    repository.CallRepository
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

func NewCallService(caller SoapCaller, repo repository.CallRepository, baseURL string, logger *slog.Logger, now func() time.Time) CallService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &callService{caller: caller, repo: repo, baseURL: baseURL, logger: logger, now: now}
}

// Invoke runs the call and records it. The record is returned even when the
// handler escalates; the escalated error comes back alongside it.
func (s *callService) Invoke(ctx context.Context, req InvokeRequest) (*domain.CallRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ctx, span := otel.Tracer("soapgate/calls").Start(ctx, "soapgate.gateway.invoke",
		trace.WithAttributes(
			attribute.String("soapgate.call_id", id),
			attribute.String("soapgate.method", req.Method),
		),
	)
	defer span.End()

	rec := &domain.CallRecord{
		ID:        id,
		Method:    req.Method,
		Args:      req.Args,
		Struct:    req.Struct,
		StartedAt: s.now().UTC(),
	}
	if v, ok := ctx.Value("request_id").(string); ok {
		rec.RequestID = v
	}
	rec.TraceParent, _ = tracing.TraceContextStrings(ctx)

	result, callErr := s.caller.Call(ctx, req.Params())
	rec.Result = result
	rec.CompletedAt = s.now().UTC()
	rec.DurationMs = rec.CompletedAt.Sub(rec.StartedAt).Milliseconds()
	if callErr != nil {
		rec.Error = callErr.Error()
		span.RecordError(callErr)
		span.SetStatus(codes.Error, callErr.Error())
	}

	if s.repo != nil {
		if err := s.repo.SaveCall(ctx, rec); err != nil {
			metrics.AuditWritesTotal.WithLabelValues("error").Inc()
			s.logger.Warn("call audit write failed", "id", id, "method", req.Method, "err", err)
		} else {
			metrics.AuditWritesTotal.WithLabelValues("ok").Inc()
		}
	}

	s.logger.Info("gateway call",
		"id", id,
		"method", req.Method,
		"succeeded", result.Succeeded,
		"durationMs", rec.DurationMs,
		"request_id", rec.RequestID,
	)
	return rec, callErr
}

func (s *callService) Get(ctx context.Context, id string) (*domain.CallRecord, error) {
	if s.repo == nil {
		return nil, repository.ErrNotFound
	}
	return s.repo.GetCall(ctx, id)
}

func (s *callService) ListByMethod(ctx context.Context, method string, limit int) ([]domain.CallRecord, error) {
	if s.repo == nil {
		return []domain.CallRecord{}, nil
	}
	return s.repo.ListByMethod(ctx, method, limit)
}

func (s *callService) Purge(ctx context.Context, limit int) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	n, err := s.repo.PurgeExpired(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("purge calls: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged expired calls", "count", n)
	}
	return n, nil
}

func (s *callService) Health(ctx context.Context) Health {
	h := Health{
		Connected:       s.caller.IsConnected(),
		ConnectionError: s.caller.ConnectionError(),
		BaseURL:         s.baseURL,
		Store:           "ok",
	}
	if s.repo == nil {
		h.Store = "disabled"
	} else if err := s.repo.Ping(ctx); err != nil {
		h.Store = err.Error()
	}
	return h
}
