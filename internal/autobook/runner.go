// Package autobook runs one end-to-end booking pass: authenticate, list the
// dates that already hold an appointment, generate the cycle's slots and
// reconcile them against CashBarber.
package autobook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
	"github.com/wolfman30/cashbarber-autobook/internal/booking"
	"github.com/wolfman30/cashbarber-autobook/internal/cashbarber"
	"github.com/wolfman30/cashbarber-autobook/internal/recurrence"
	"github.com/wolfman30/cashbarber-autobook/internal/runlock"
	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

// DefaultMaxBookingDays is the lookahead window in days.
const DefaultMaxBookingDays = 15

// DefaultLockKey names the run lock shared by every trigger.
const DefaultLockKey = "autobook"

var tracer = otel.Tracer("cashbarber.internal.autobook")

type Authenticator interface {
	Authenticate(ctx context.Context, creds cashbarber.Credentials) (*cashbarber.Session, error)
}

type AppointmentLister interface {
	ListAppointmentDates(ctx context.Context, token string) (cashbarber.DateSet, error)
}

type SlotGenerator interface {
	Generate(now time.Time, maxDays int) []recurrence.Slot
}

type SlotReconciler interface {
	Reconcile(ctx context.Context, token string, slots []recurrence.Slot, booked cashbarber.DateSet) (*booking.Result, error)
}

// Reporter is told about every finished run, successful or not.
type Reporter interface {
	Report(ctx context.Context, run *RunResult, runErr error) error
}

// MetricsRecorder records run level metrics.
type MetricsRecorder interface {
	ObserveRun(status string, seconds float64)
}

// Options are the per-deployment settings of a Runner.
type Options struct {
	Credentials       cashbarber.Credentials
	MaxBookingDays    int
	ListingBestEffort bool
	DryRun            bool
	LockKey           string
}

// Deps are the collaborators of a Runner. Auth, Lister, Generator and
// Reconciler are required.
type Deps struct {
	Auth       Authenticator
	Lister     AppointmentLister
	Generator  SlotGenerator
	Reconciler SlotReconciler
	Locker     runlock.Locker
	Metrics    MetricsRecorder
	Reporter   Reporter
	Logger     *logging.Logger
	Now        func() time.Time
}

// RunResult describes one run.
type RunResult struct {
	RunID          string          `json:"runId"`
	StartedAt      time.Time       `json:"startedAt"`
	FinishedAt     time.Time       `json:"finishedAt"`
	SlotsGenerated int             `json:"slotsGenerated"`
	ListingFailed  bool            `json:"listingFailed,omitempty"`
	DryRun         bool            `json:"dryRun,omitempty"`
	Result         *booking.Result `json:"results"`
}

// Duration returns the wall time of the run.
func (r *RunResult) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Runner executes booking runs.
type Runner struct {
	opts Options
	deps Deps
}

// NewRunner validates deps and fills defaults.
func NewRunner(opts Options, deps Deps) (*Runner, error) {
	switch {
	case deps.Auth == nil:
		return nil, errors.New("autobook: authenticator is required")
	case deps.Lister == nil:
		return nil, errors.New("autobook: appointment lister is required")
	case deps.Generator == nil:
		return nil, errors.New("autobook: slot generator is required")
	case deps.Reconciler == nil:
		return nil, errors.New("autobook: reconciler is required")
	}
	if opts.MaxBookingDays <= 0 {
		opts.MaxBookingDays = DefaultMaxBookingDays
	}
	if strings.TrimSpace(opts.LockKey) == "" {
		opts.LockKey = DefaultLockKey
	}
	if deps.Locker == nil {
		deps.Locker = runlock.NewMutexLocker()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Runner{opts: opts, deps: deps}, nil
}

// Run performs one booking pass. Fatal failures (configuration,
// authentication, a held lock, listing when not best-effort) are returned as
// *apperr.Error. Per-slot failures are part of the result. The returned
// RunResult is never nil and holds whatever was done before a failure.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	run := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: r.deps.Now(),
		DryRun:    r.opts.DryRun,
	}
	ctx, span := tracer.Start(ctx, "autobook.run", trace.WithAttributes(attribute.String("autobook.run_id", run.RunID)))
	defer span.End()

	logger := r.deps.Logger.With("run_id", run.RunID)
	logger.Info("autobook: run started", "dry_run", r.opts.DryRun, "max_days", r.opts.MaxBookingDays)

	err := r.run(ctx, run, logger)
	run.FinishedAt = r.deps.Now()

	status := runStatus(run, err)
	if r.deps.Metrics != nil {
		r.deps.Metrics.ObserveRun(status, run.Duration().Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		logger.Error("autobook: run failed", "error", err, "status", status)
	} else {
		logger.Info("autobook: run finished",
			"status", status,
			"slots", run.SlotsGenerated,
			"booked", len(run.Result.Booked),
			"already_scheduled", len(run.Result.AlreadyScheduled),
			"errors", len(run.Result.Errors),
			"duration", run.Duration().String(),
		)
	}

	if r.deps.Reporter != nil {
		if rerr := r.deps.Reporter.Report(context.WithoutCancel(ctx), run, err); rerr != nil {
			logger.Warn("autobook: run report failed", "error", rerr)
		}
	}
	return run, err
}

func (r *Runner) run(ctx context.Context, run *RunResult, logger *logging.Logger) error {
	creds := r.opts.Credentials
	if strings.TrimSpace(creds.Email) == "" || strings.TrimSpace(creds.Password) == "" {
		return apperr.New(apperr.KindConfig, "Missing CASHBARBER_EMAIL or CASHBARBER_PASSWORD")
	}

	release, err := r.deps.Locker.Acquire(ctx, r.opts.LockKey)
	if err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			return apperr.Wrap(apperr.KindConflict, err, "run already in progress")
		}
		return apperr.Wrap(apperr.KindInternal, err, "acquire run lock")
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("autobook: release run lock", "error", err)
		}
	}()

	session, err := r.deps.Auth.Authenticate(ctx, creds)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return err
		}
		return apperr.Wrap(apperr.KindAuth, err, "authentication failed")
	}

	booked, err := r.deps.Lister.ListAppointmentDates(ctx, session.Token)
	if err != nil {
		if !r.opts.ListingBestEffort {
			if _, ok := apperr.As(err); ok {
				return err
			}
			return apperr.Wrap(apperr.KindRemote, err, "list appointments")
		}
		logger.Warn("autobook: could not list existing appointments, continuing without them", "error", err)
		run.ListingFailed = true
		booked = cashbarber.NewDateSet()
	}

	slots := r.deps.Generator.Generate(r.deps.Now(), r.opts.MaxBookingDays)
	run.SlotsGenerated = len(slots)
	logger.Info("autobook: slots generated", "count", len(slots), "booked_dates", booked.Sorted())

	result, err := r.deps.Reconciler.Reconcile(ctx, session.Token, slots, booked)
	run.Result = result
	if run.Result == nil {
		run.Result = booking.NewResult()
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "booking interrupted")
	}
	return nil
}

// runStatus labels a run for metrics: "ok", "partial" when some slots
// failed, otherwise the error kind.
func runStatus(run *RunResult, err error) string {
	if err != nil {
		return string(apperr.KindOf(err))
	}
	if run.Result.HasErrors() {
		return "partial"
	}
	return "ok"
}
