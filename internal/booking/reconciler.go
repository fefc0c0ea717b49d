// Package booking reconciles generated slots against CashBarber: dates that
// already hold an appointment are skipped, the rest are booked one at a time
// with a pause between remote calls.
package booking

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
	"github.com/wolfman30/cashbarber-autobook/internal/cashbarber"
	"github.com/wolfman30/cashbarber-autobook/internal/recurrence"
	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

// DefaultDelay is the pause between two booking calls.
const DefaultDelay = 3 * time.Second

var tracer = otel.Tracer("cashbarber.internal.booking")

// Booker creates a single booking.
type Booker interface {
	CreateBooking(ctx context.Context, token string, req cashbarber.BookingRequest) (json.RawMessage, error)
}

// PauseFunc blocks for d or until ctx is done.
type PauseFunc func(ctx context.Context, d time.Duration) error

// OutcomeObserver is notified once per processed slot.
type OutcomeObserver interface {
	ObserveOutcome(kind, reason string)
}

// Config holds the fixed parts of every booking request.
type Config struct {
	BranchID   int
	ServiceIDs []int
	Delay      time.Duration
}

// Reconciler books generated slots sequentially.
type Reconciler struct {
	booker   Booker
	cfg      Config
	pause    PauseFunc
	observer OutcomeObserver
	logger   *logging.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPause replaces the wall-clock pause, mostly for tests.
func WithPause(p PauseFunc) Option {
	return func(r *Reconciler) {
		if p != nil {
			r.pause = p
		}
	}
}

// WithObserver reports every outcome, e.g. to metrics.
func WithObserver(o OutcomeObserver) Option {
	return func(r *Reconciler) {
		r.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReconciler returns a Reconciler. A negative delay is treated as zero.
func NewReconciler(booker Booker, cfg Config, opts ...Option) *Reconciler {
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	r := &Reconciler{
		booker: booker,
		cfg:    cfg,
		pause:  Sleep,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sleep waits for d, returning early with ctx.Err() if ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reconcile processes slots in order. Slots on a date in booked are recorded
// as already scheduled without a remote call; every other slot is booked,
// pausing Delay before each call except the first. Per-slot failures are
// recorded in the result. If ctx is cancelled during a pause the partial
// result is returned with the context error.
func (r *Reconciler) Reconcile(ctx context.Context, token string, slots []recurrence.Slot, booked cashbarber.DateSet) (*Result, error) {
	ctx, span := tracer.Start(ctx, "booking.reconcile")
	defer span.End()
	span.SetAttributes(attribute.Int("booking.slots", len(slots)))

	result := NewResult()
	calls := 0

	for _, slot := range slots {
		if booked.Has(slot.Date()) {
			r.logger.Info("booking: date already has an appointment", "date", slot.Date(), "start", slot.StartString())
			r.record(result, Outcome{Kind: OutcomeAlreadyScheduled, Slot: slot, Reason: ReasonExistingDate})
			continue
		}

		if calls > 0 && r.cfg.Delay > 0 {
			if err := r.pause(ctx, r.cfg.Delay); err != nil {
				span.RecordError(err)
				r.logger.Warn("booking: reconciliation interrupted", "processed", result.Total(), "remaining", len(slots)-result.Total(), "error", err)
				return result, err
			}
		}
		calls++

		r.record(result, r.attempt(ctx, token, slot))
	}

	span.SetAttributes(
		attribute.Int("booking.booked", len(result.Booked)),
		attribute.Int("booking.already_scheduled", len(result.AlreadyScheduled)),
		attribute.Int("booking.errors", len(result.Errors)),
	)
	return result, nil
}

func (r *Reconciler) attempt(ctx context.Context, token string, slot recurrence.Slot) Outcome {
	req := cashbarber.BookingRequest{
		BranchID:     r.cfg.BranchID,
		AssigneeID:   slot.AssigneeID,
		ServiceIDs:   r.cfg.ServiceIDs,
		Start:        slot.StartString(),
		End:          slot.EndString(),
		NoPreference: 0,
	}

	payload, err := r.booker.CreateBooking(ctx, token, req)
	if err == nil {
		r.logger.Info("booking: slot booked", "start", req.Start, "assignee_id", req.AssigneeID)
		return Outcome{Kind: OutcomeBooked, Slot: slot, Data: payload}
	}

	out := Outcome{Kind: OutcomeFailed, Slot: slot, Error: err.Error()}
	if e, ok := apperr.As(err); ok {
		if e.Message != "" {
			out.Error = e.Message
		}
		out.Status = e.HTTPStatus
		out.Response = e.RawBody

		if e.HTTPStatus == ConflictStatus && conflictFromBody(e.RawBody, e.Message) {
			r.logger.Info("booking: slot already taken", "start", req.Start, "message", e.Message)
			return Outcome{Kind: OutcomeAlreadyScheduled, Slot: slot, Reason: ReasonRemoteConflict}
		}
	}

	r.logger.Warn("booking: slot failed", "start", req.Start, "status", out.Status, "error", out.Error)
	return out
}

func (r *Reconciler) record(result *Result, o Outcome) {
	result.Add(o)
	if r.observer != nil {
		r.observer.ObserveOutcome(string(o.Kind), string(o.Reason))
	}
}
