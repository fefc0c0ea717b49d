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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/cashbarber-autobook/cmd/mainconfig"
	"github.com/wolfman30/cashbarber-autobook/internal/api/router"
	"github.com/wolfman30/cashbarber-autobook/internal/app/bootstrap"
	appconfig "github.com/wolfman30/cashbarber-autobook/internal/config"
	"github.com/wolfman30/cashbarber-autobook/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/cashbarber-autobook/internal/http/middleware"
	"github.com/wolfman30/cashbarber-autobook/internal/observability/metrics"
)

func main() {
	if err := appconfig.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	cfg := appconfig.Load()

	logger := mainconfig.NewLogger(cfg)
	logger.Info("starting cashbarber autobook API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if cfg.CashBarberEmail == "" || cfg.CashBarberPassword == "" {
		logger.Warn("CASHBARBER_EMAIL or CASHBARBER_PASSWORD not set; booking triggers will fail")
	}

	ctx := context.Background()
	sesClient, err := mainconfig.NewSESClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	metricsHandler, bookingMetrics := setupMetrics()
	rt, err := bootstrap.BuildRuntime(ctx, cfg, bootstrap.RunnerDeps{
		Metrics: bookingMetrics,
		SES:     sesClient,
	}, logger)
	if err != nil {
		logger.Error("failed to build booking runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	limiter := httpmiddleware.PerMinute(cfg.TriggerRatePerMinute)
	defer limiter.Close()

	r := router.New(&router.Config{
		Logger:           logger,
		BookingHandler:   handlers.NewBookingHandler(rt.Runner, logger),
		MetricsHandler:   metricsHandler,
		TriggerJWTSecret: cfg.TriggerJWTSecret,
		TriggerLimiter:   limiter,
	})

	// A booking pass pauses between calls, so writes need far more than the
	// usual request budget.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// setupMetrics returns the /metrics handler and the booking metrics
// registered on the same registry.
func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBookingMetrics(reg)
}
