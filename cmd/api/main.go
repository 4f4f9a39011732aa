package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vxplore/Clinik-pe-sub000/internal/api/router"
	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
	"github.com/vxplore/Clinik-pe-sub000/internal/app/bootstrap"
	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	appconfig "github.com/vxplore/Clinik-pe-sub000/internal/config"
	"github.com/vxplore/Clinik-pe-sub000/internal/http/handlers"
	httpmiddleware "github.com/vxplore/Clinik-pe-sub000/internal/http/middleware"
	"github.com/vxplore/Clinik-pe-sub000/internal/listview"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
	"github.com/vxplore/Clinik-pe-sub000/internal/observability/metrics"
	"github.com/vxplore/Clinik-pe-sub000/internal/session"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

const devSessionSecret = "clinikpe-dev-session-secret"

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinikpe dashboard server",
		"env", cfg.Env,
		"port", cfg.Port,
		"upstream", cfg.APIBaseURL,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set; using development secret")
		cfg.SessionSecret = devSessionSecret
	}

	srv, cleanup, err := setup(context.Background(), cfg, logger, prometheus.DefaultRegisterer, promhttp.Handler())
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// setup wires every dependency of the dashboard. The returned cleanup
// releases connections and background workers.
func setup(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg prometheus.Registerer, metricsHandler http.Handler) (*http.Server, func(), error) {
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		return nil, nil, fmt.Errorf("redis unavailable at %q", cfg.RedisAddr)
	}
	closers := []func(){func() { _ = redisClient.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	auditDB, err := bootstrap.BuildAuditDB(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if auditDB != nil {
		closers = append(closers, func() { _ = auditDB.Close() })
	} else {
		logger.Info("DATABASE_URL not set; audit trail disabled")
	}

	upstreamMetrics := metrics.NewUpstreamMetrics(reg)
	dashboardMetrics := metrics.NewDashboardMetrics(reg)

	agent := apiclient.NewAgent(cfg.APIBaseURL, cfg.APITimeout, logger, apiclient.WithMetrics(upstreamMetrics))
	feed := notify.NewFeed(redisClient, cfg.SessionTTL, dashboardMetrics, logger)
	env := &handlers.Env{
		API:      clinikpe.New(agent, logger),
		Tracker:  listview.NewTracker(dashboardMetrics),
		Feed:     feed,
		Audit:    audit.NewRecorder(auditDB, logger),
		Metrics:  dashboardMetrics,
		Logger:   logger,
		PageSize: cfg.DefaultPageSize,
	}

	otpLimiter := httpmiddleware.NewRateLimiter(cfg.OTPRateLimitPerSec, cfg.OTPRateLimitBurst)
	closers = append(closers, otpLimiter.Stop)

	handler := router.New(&router.Config{
		Logger:             logger,
		Env:                env,
		Redis:              redisClient,
		Sessions:           session.NewStore(redisClient, cfg.SessionTTL),
		Tokens:             session.NewTokens(cfg.SessionSecret, cfg.SessionTTL),
		Sidebar:            session.NewSidebarStore(redisClient, cfg.SessionTTL),
		Boards:             session.NewBoardCache(redisClient, cfg.SessionTTL),
		Email:              bootstrap.BuildEmailSender(ctx, cfg, logger),
		Stream:             notify.NewStream(feed, logger),
		OTPLimiter:         otpLimiter,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		DefaultCountryCode: cfg.DefaultCountryCode,
		CookieSecure:       cfg.SessionCookieSecure,
	})

	// WriteTimeout stays 0 so the notification WebSocket is not cut off;
	// regular handlers are bounded by the upstream timeout.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, cleanup, nil
}
