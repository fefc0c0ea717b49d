package recurrence

import (
	"fmt"
	"time"
)

// DefaultSlotDuration is the length of every generated appointment.
const DefaultSlotDuration = time.Hour

// Generator produces the slots of a cycle anchored at a reference timestamp.
// It holds no mutable state and is safe for concurrent use.
type Generator struct {
	reference time.Time
	cycle     Cycle
	duration  time.Duration
	loc       *time.Location
}

// Option configures a Generator.
type Option func(*Generator)

// WithDuration overrides the slot duration.
func WithDuration(d time.Duration) Option {
	return func(g *Generator) {
		g.duration = d
	}
}

// NewGenerator builds a generator. Civil arithmetic happens in the
// reference's location.
func NewGenerator(reference time.Time, cycle Cycle, opts ...Option) (*Generator, error) {
	if cycle.Len() == 0 {
		return nil, ErrEmptyCycle
	}
	if reference.IsZero() {
		return nil, fmt.Errorf("recurrence: reference timestamp is required")
	}
	g := &Generator{
		reference: reference,
		cycle:     cycle,
		duration:  DefaultSlotDuration,
		loc:       reference.Location(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.duration <= 0 {
		return nil, ErrInvalidDuration
	}
	return g, nil
}

// Location returns the generator's civil timezone.
func (g *Generator) Location() *time.Location { return g.loc }

// Generate returns, in order, every slot whose start lies in
// (now, now+maxDays].
func (g *Generator) Generate(now time.Time, maxDays int) []Slot {
	if maxDays <= 0 {
		return nil
	}
	now = now.In(g.loc)
	cutoff := now.AddDate(0, 0, maxDays)

	refYear, refMonth, refDay := g.reference.Date()
	steps := g.cycle.steps
	offset := g.skippableDays(now)

	var slots []Slot
	for i := 0; ; i = (i + 1) % len(steps) {
		step := steps[i]
		start := time.Date(refYear, refMonth, refDay+offset, step.Hour, step.Minute, 0, 0, g.loc)
		// Offsets are at least one day, so every later step is later still.
		if start.After(cutoff) {
			break
		}
		if start.After(now) {
			slots = append(slots, Slot{
				Start:      start,
				End:        start.Add(g.duration),
				AssigneeID: step.AssigneeID,
			})
		}
		offset += step.OffsetDays
	}
	return slots
}

// skippableDays returns a whole number of cycle spans that lie entirely
// before now's date, so an old reference does not cost a long walk.
func (g *Generator) skippableDays(now time.Time) int {
	span := g.cycle.SpanDays()
	ry, rm, rd := g.reference.Date()
	ny, nm, nd := now.Date()
	refDate := time.Date(ry, rm, rd, 0, 0, 0, 0, time.UTC)
	nowDate := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	days := int(nowDate.Sub(refDate).Hours() / 24)
	cycles := days/span - 1
	if cycles <= 0 {
		return 0
	}
	return cycles * span
}
