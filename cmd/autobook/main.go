// Command autobook runs one booking pass against CashBarber and prints the
// outcome.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/cashbarber-autobook/cmd/mainconfig"
	"github.com/wolfman30/cashbarber-autobook/internal/app/bootstrap"
	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
	appconfig "github.com/wolfman30/cashbarber-autobook/internal/config"
	"github.com/wolfman30/cashbarber-autobook/internal/observability/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("autobook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env-file", ".env", "dotenv file to load before reading the environment")
	dryRun := fs.Bool("dry-run", false, "generate and reconcile slots without creating bookings")
	maxDays := fs.Int("max-days", 0, "booking window in days")
	var delay time.Duration
	fs.Func("delay", "pause between booking calls (duration or milliseconds)", func(v string) error {
		d, err := parseDelay(v)
		if err != nil {
			return err
		}
		delay = d
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := appconfig.LoadDotEnv(*envFile); err != nil {
		printError(stderr, err)
		return 1
	}
	cfg := appconfig.Load()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dry-run":
			cfg.DryRun = *dryRun
		case "max-days":
			cfg.MaxBookingDays = *maxDays
		case "delay":
			cfg.BookDelay = delay
		}
	})

	if err := cfg.Validate(); err != nil {
		printError(stderr, err)
		return 1
	}

	logger := mainconfig.NewLogger(cfg)
	sesClient, err := mainconfig.NewSESClient(ctx, cfg)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	rt, err := bootstrap.BuildRuntime(ctx, cfg, bootstrap.RunnerDeps{
		Metrics: metrics.NewBookingMetrics(prometheus.NewRegistry()),
		SES:     sesClient,
	}, logger)
	if err != nil {
		printError(stderr, err)
		return 1
	}
	defer rt.Close()

	result, err := rt.Runner.Run(ctx)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	out, err := json.MarshalIndent(result.Result, "", "  ")
	if err != nil {
		printError(stderr, err)
		return 1
	}
	fmt.Fprintf(stdout, "Done: %s\n", out)
	return 0
}

// parseDelay accepts a Go duration ("2s") or a bare millisecond count.
func parseDelay(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("delay must not be negative")
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q", v)
	}
	if d < 0 {
		return 0, fmt.Errorf("delay must not be negative")
	}
	return d, nil
}

func printError(w io.Writer, err error) {
	msg := err.Error()
	e, ok := apperr.As(err)
	if ok && e.Message != "" {
		msg = e.Message
	}
	fmt.Fprintf(w, "Error: %s\n", msg)
	if ok && len(e.RawBody) > 0 {
		fmt.Fprintf(w, "Response: %s\n", e.RawBody)
	}
}
