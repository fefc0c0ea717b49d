package booking

import (
	"encoding/json"

	"github.com/wolfman30/cashbarber-autobook/internal/recurrence"
)

// OutcomeKind tags the result of processing one slot.
type OutcomeKind string

const (
	OutcomeBooked           OutcomeKind = "booked"
	OutcomeAlreadyScheduled OutcomeKind = "already_scheduled"
	OutcomeFailed           OutcomeKind = "failed"
)

// Reason explains why a slot counts as already scheduled.
type Reason string

const (
	// ReasonExistingDate means the account already holds an appointment on
	// the slot's date, so no booking call was made.
	ReasonExistingDate Reason = "existing_date"
	// ReasonRemoteConflict means CashBarber rejected the slot as unavailable.
	ReasonRemoteConflict Reason = "remote_conflict"
)

// Outcome is the result of processing one slot.
type Outcome struct {
	Kind OutcomeKind
	Slot recurrence.Slot

	// Data is the remote appointment payload for booked slots.
	Data json.RawMessage
	// Reason is set for already scheduled slots.
	Reason Reason

	// Error, Status and Response describe a failed attempt.
	Error    string
	Status   int
	Response json.RawMessage
}

// BookedEntry is a slot that was reserved during the run.
type BookedEntry struct {
	Slot recurrence.Slot `json:"slot"`
	Data json.RawMessage `json:"data"`
}

// ScheduledEntry is a slot that did not need booking.
type ScheduledEntry struct {
	Slot   recurrence.Slot `json:"slot"`
	Reason Reason          `json:"reason,omitempty"`
}

// ErrorEntry is a slot whose booking attempt failed.
type ErrorEntry struct {
	Slot     recurrence.Slot `json:"slot"`
	Error    string          `json:"error"`
	Status   int             `json:"status,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Result aggregates the outcomes of one reconciliation run.
type Result struct {
	Booked           []BookedEntry    `json:"booked"`
	AlreadyScheduled []ScheduledEntry `json:"alreadyScheduled"`
	Errors           []ErrorEntry     `json:"errors"`
}

// NewResult returns an empty Result whose lists marshal as [] rather than null.
func NewResult() *Result {
	return &Result{
		Booked:           []BookedEntry{},
		AlreadyScheduled: []ScheduledEntry{},
		Errors:           []ErrorEntry{},
	}
}

// Add files o under the matching list.
func (r *Result) Add(o Outcome) {
	switch o.Kind {
	case OutcomeBooked:
		data := o.Data
		if len(data) == 0 {
			data = json.RawMessage(`{}`)
		}
		r.Booked = append(r.Booked, BookedEntry{Slot: o.Slot, Data: data})
	case OutcomeAlreadyScheduled:
		r.AlreadyScheduled = append(r.AlreadyScheduled, ScheduledEntry{Slot: o.Slot, Reason: o.Reason})
	default:
		r.Errors = append(r.Errors, ErrorEntry{
			Slot:     o.Slot,
			Error:    o.Error,
			Status:   o.Status,
			Response: o.Response,
		})
	}
}

// Total returns the number of slots processed.
func (r *Result) Total() int {
	if r == nil {
		return 0
	}
	return len(r.Booked) + len(r.AlreadyScheduled) + len(r.Errors)
}

// HasErrors reports whether any slot failed.
func (r *Result) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}
