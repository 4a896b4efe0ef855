package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/risk-auth/internal/config"
	"github.com/prperemyshlev/risk-auth/internal/handler"
	"github.com/prperemyshlev/risk-auth/internal/repository"
	"github.com/prperemyshlev/risk-auth/internal/service"
	"github.com/prperemyshlev/risk-auth/internal/utils"
	"github.com/prperemyshlev/risk-auth/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	serviceName     = "risk-auth"
	shutdownTimeout = 5 * time.Second
)

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()
	repos := repository.NewRepositories(infra.Postgres())

	codec, err := utils.NewClaimsCodec(cfg.Session.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create claims codec: %w", err)
	}

	providers, err := newProviderRegistry(cfg)
	if err != nil {
		return nil, err
	}

	loginMetrics, err := observability.NewLoginMetrics(infra.MeterProvider().Meter(serviceName))
	if err != nil {
		return nil, err
	}

	var policy service.LoginPolicy = service.AllowAll{}
	if cfg.Security.BanCheck {
		policy = service.PolicyChain{service.NewBanListPolicy(repos.Ban)}
	}

	gate := service.NewSecurityGate(repos.Audit, policy, logger)
	issuer := service.NewSessionIssuer(providers, repos.User, gate, codec, loginMetrics, logger)
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authHandler := handler.NewAuthHandler(issuer, repos.User, handler.Options{
		Cookies: handler.CookiePolicy{
			Domain: cfg.Session.CookieDomain,
			Secure: cfg.Session.CookieSecure,
		},
		HomeURL:        cfg.Session.HomeURL,
		ClientIPHeader: cfg.Security.ClientIPHeader,
	}, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))

	setupRoutes(router, cfg, authHandler, codec, rateLimiter, healthChecker, infra.MetricsHandler(), logger)

	logger.Info("Identity providers registered", zap.Stringers("platforms", providers.Platforms()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	codec handler.ClaimsDecoder,
	rateLimiter handler.Limiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
	logger *zap.Logger,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	limit := cfg.Security.RateLimitRequests
	window := cfg.Security.RateLimitWindow.Duration
	ipHeader := cfg.Security.ClientIPHeader

	router.GET("/login/:provider",
		handler.RateLimitMiddleware(rateLimiter, limit, window, handler.ClientIPKey("login", ipHeader), logger),
		authHandler.Login,
	)
	router.GET("/auth/:provider",
		handler.RateLimitMiddleware(rateLimiter, limit, window, handler.ClientIPKey("callback", ipHeader), logger),
		authHandler.Callback,
	)
	router.GET("/:provider/logout", authHandler.Logout)

	api := router.Group("/api", handler.UsernameGuard())
	{
		api.GET("/whoami", authHandler.WhoAmI)
		api.GET("/me", handler.ClaimsGuard(codec), handler.RequireMatchingIdentity(), authHandler.Me)
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Drain in-flight requests before closing the pools they use
	if err := a.server.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("HTTP server shutdown failed", zap.Error(err))
		return errors.Join(err, a.infra.Shutdown(ctx))
	}

	if err := a.infra.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
