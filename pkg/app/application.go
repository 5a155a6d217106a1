package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osvaldoandrade/soapgate/internal/logging"
	"github.com/osvaldoandrade/soapgate/internal/metrics"
	"github.com/osvaldoandrade/soapgate/internal/middleware"
	"github.com/osvaldoandrade/soapgate/internal/providers"
	"github.com/osvaldoandrade/soapgate/internal/ratelimit"
	"github.com/osvaldoandrade/soapgate/internal/repository"
	"github.com/osvaldoandrade/soapgate/internal/services"
	"github.com/osvaldoandrade/soapgate/internal/tracing"
	"github.com/osvaldoandrade/soapgate/pkg/auth"
	"github.com/osvaldoandrade/soapgate/pkg/config"
	"github.com/osvaldoandrade/soapgate/pkg/handler"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	Handler         *handler.Handler
	Calls           services.CallService
	Logger          *slog.Logger
	Validator       auth.Validator
	RateLimiter     ratelimit.Limiter
	Redis           *redis.Client
	TracingShutdown func(context.Context) error

	handlerOpts []handler.Option
	repo        repository.CallRepository
	closeLog    func() error
}

type ApplicationOption func(*Application) error

func WithValidator(validator auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.Validator = validator
		return nil
	}
}

// WithHandlerOptions is mostly for tests that swap the prober or dialer.
func WithHandlerOptions(opts ...handler.Option) ApplicationOption {
	return func(app *Application) error {
		app.handlerOpts = append(app.handlerOpts, opts...)
		return nil
	}
}

func WithCallRepository(repo repository.CallRepository) ApplicationOption {
	return func(app *Application) error {
		app.repo = repo
		return nil
	}
}

// NewApplication connects to the SOAP service and wires the gateway. With
// throwErrors on, a failed connection aborts startup; otherwise the gateway
// starts disconnected and /health reports why.
func NewApplication(ctx context.Context, cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Path:    cfg.LogPath,
		Service: "soapgate",
		Env:     cfg.Env,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	app := &Application{Config: cfg, Logger: logger, closeLog: closeLog}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			_ = closeLog()
			return nil, err
		}
	}

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
		Env:          cfg.Env,
		SoapBaseURL:  cfg.BaseURL,
	}, logger)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("tracing: %w", err)
	}
	app.TracingShutdown = shutdown

	app.Redis = providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
	if app.repo == nil {
		if app.Redis != nil {
			app.repo = repository.NewCallRepository(app.Redis, cfg.AuditRetention(), cfg.AuditMaxPerMethod)
		} else {
			logger.Warn("redisAddr not set; call audit kept in memory")
			app.repo = repository.NewMemoryCallRepository(cfg.AuditRetention(), cfg.AuditMaxPerMethod)
		}
	}
	if app.Redis != nil {
		app.RateLimiter = ratelimit.NewFixedWindowLimiter(app.Redis)
		metrics.RegisterAuditCollector(app.Redis, logger)
	}

	if app.Validator == nil && cfg.AuthProvider != "" {
		raw, err := cfg.AuthConfigJSON()
		if err != nil {
			app.Close(ctx)
			return nil, err
		}
		validator, err := auth.NewValidator(auth.ProviderConfig{Type: cfg.AuthProvider, Config: raw})
		if err != nil {
			app.Close(ctx)
			return nil, err
		}
		app.Validator = validator
	}

	hopts := append([]handler.Option{handler.WithLogger(logger)}, app.handlerOpts...)
	h, err := handler.New(ctx, handler.Settings{
		BaseURL:     cfg.BaseURL,
		Endpoint:    cfg.Endpoint,
		Mode:        cfg.Mode,
		ThrowErrors: cfg.ThrowErrors,
		Timeout:     cfg.Timeout(),
		SOAP:        cfg.SOAP,
		Channel:     cfg.LogChannel,
	}, hopts...)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("soap handler: %w", err)
	}
	app.Handler = h
	app.Calls = services.NewCallService(h, app.repo, cfg.BaseURL, logger, nil)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		middleware.TracingMiddleware(cfg.Tracing.ServiceName),
	)
	app.Engine = engine
	return app, nil
}

// Close flushes traces and releases Redis and the log file.
func (a *Application) Close(ctx context.Context) {
	if a.TracingShutdown != nil {
		_ = a.TracingShutdown(ctx)
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}
