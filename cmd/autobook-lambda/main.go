// Command autobook-lambda runs a booking pass for each scheduled
// EventBridge event.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/cashbarber-autobook/cmd/mainconfig"
	"github.com/wolfman30/cashbarber-autobook/internal/app/bootstrap"
	"github.com/wolfman30/cashbarber-autobook/internal/autobook"
	"github.com/wolfman30/cashbarber-autobook/internal/booking"
	appconfig "github.com/wolfman30/cashbarber-autobook/internal/config"
	"github.com/wolfman30/cashbarber-autobook/internal/observability/metrics"
	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

type runner interface {
	Run(ctx context.Context) (*autobook.RunResult, error)
}

type response struct {
	OK      bool            `json:"ok"`
	RunID   string          `json:"runId"`
	Results *booking.Result `json:"results"`
}

type handler struct {
	runner runner
	logger *logging.Logger
}

// Handle runs one pass. Failures are returned so the invocation is marked
// failed and EventBridge retry policy applies.
func (h *handler) Handle(ctx context.Context, event events.CloudWatchEvent) (response, error) {
	logger := h.logger.With("event_id", event.ID, "detail_type", event.DetailType)
	logger.Info("scheduled booking run triggered", "source", event.Source, "time", event.Time)

	run, err := h.runner.Run(ctx)
	if err != nil {
		logger.Error("scheduled booking run failed", "error", err)
		return response{}, err
	}
	return response{OK: true, RunID: run.RunID, Results: run.Result}, nil
}

func main() {
	cfg := appconfig.Load()
	logger := mainconfig.NewLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	sesClient, err := mainconfig.NewSESClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	rt, err := bootstrap.BuildRuntime(ctx, cfg, bootstrap.RunnerDeps{
		Metrics: metrics.NewBookingMetrics(prometheus.NewRegistry()),
		SES:     sesClient,
	}, logger)
	if err != nil {
		logger.Error("failed to build booking runtime", "error", err)
		os.Exit(1)
	}

	h := &handler{runner: rt.Runner, logger: logger}
	lambda.Start(h.Handle)
}
