package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/cashbarber-autobook/internal/autobook"
	"github.com/wolfman30/cashbarber-autobook/internal/booking"
	"github.com/wolfman30/cashbarber-autobook/internal/cashbarber"
	appconfig "github.com/wolfman30/cashbarber-autobook/internal/config"
	"github.com/wolfman30/cashbarber-autobook/internal/notify"
	"github.com/wolfman30/cashbarber-autobook/internal/observability/metrics"
	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

// RunnerDeps are the optional pieces a binary may supply.
type RunnerDeps struct {
	Metrics *metrics.BookingMetrics
	SES     notify.SESAPI
	// Pause overrides the wait between booking calls.
	Pause booking.PauseFunc
}

// Runtime is a wired booking runner and the resources it owns.
type Runtime struct {
	Runner *autobook.Runner
	Client *cashbarber.Client
	Redis  *redis.Client
}

// Close releases the Redis connection, if any.
func (rt *Runtime) Close() error {
	if rt == nil || rt.Redis == nil {
		return nil
	}
	return rt.Redis.Close()
}

// BuildRuntime wires the CashBarber client, reconciler, run lock, metrics and
// report into a Runner. Settings are validated here; credentials are checked
// by each run so a server can start without them.
func BuildRuntime(ctx context.Context, cfg *appconfig.Config, deps RunnerDeps, logger *logging.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := cfg.ValidateSettings(); err != nil {
		return nil, err
	}
	gen, err := cfg.BuildGenerator()
	if err != nil {
		return nil, err
	}

	clientOpts := []cashbarber.Option{
		cashbarber.WithTimeout(cfg.HTTPTimeout),
		cashbarber.WithDryRun(cfg.DryRun),
	}
	reconcilerOpts := []booking.Option{booking.WithLogger(logger)}
	if deps.Metrics != nil {
		clientOpts = append(clientOpts, cashbarber.WithObserver(deps.Metrics))
		reconcilerOpts = append(reconcilerOpts, booking.WithObserver(deps.Metrics))
	}
	if deps.Pause != nil {
		reconcilerOpts = append(reconcilerOpts, booking.WithPause(deps.Pause))
	}

	client := cashbarber.NewClient(cfg.CashBarberBaseURL, logger, clientOpts...)
	reconciler := booking.NewReconciler(client, booking.Config{
		BranchID:   cfg.BranchID,
		ServiceIDs: cfg.ServiceIDs,
		Delay:      cfg.BookDelay,
	}, reconcilerOpts...)

	redisClient := BuildRedisClient(ctx, cfg, logger, true)

	runnerDeps := autobook.Deps{
		Auth:       client,
		Lister:     client,
		Generator:  gen,
		Reconciler: reconciler,
		Locker:     BuildLocker(redisClient, cfg),
		Logger:     logger,
		Now:        func() time.Time { return time.Now().In(gen.Location()) },
	}
	if deps.Metrics != nil {
		runnerDeps.Metrics = deps.Metrics
	}
	if reporter := BuildReporter(cfg, deps.SES, logger); reporter != nil {
		runnerDeps.Reporter = reporter
	}

	runner, err := autobook.NewRunner(autobook.Options{
		Credentials:       cfg.Credentials(),
		MaxBookingDays:    cfg.MaxBookingDays,
		ListingBestEffort: cfg.ListingBestEffort,
		DryRun:            cfg.DryRun,
	}, runnerDeps)
	if err != nil {
		return nil, err
	}

	logger.Info("booking runtime ready",
		"base_url", client.BaseURL(),
		"branch_id", cfg.BranchID,
		"services", cfg.ServiceIDs,
		"delay", cfg.BookDelay.String(),
		"max_days", cfg.MaxBookingDays,
		"dry_run", cfg.DryRun,
		"redis_lock", redisClient != nil,
	)
	return &Runtime{Runner: runner, Client: client, Redis: redisClient}, nil
}
