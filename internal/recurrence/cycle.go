// Package recurrence computes the future appointment slots defined by a
// repeating cycle of (day offset, time of day, assignee) steps.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Step is one phase of the repeating booking pattern. OffsetDays is added to
// the running day offset after this step's occurrence.
type Step struct {
	OffsetDays int `json:"offsetDays"`
	Hour       int `json:"hour"`
	Minute     int `json:"minute"`
	AssigneeID int `json:"assigneeId"`
}

func (s Step) validate() error {
	if s.OffsetDays <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidOffset, s.OffsetDays)
	}
	if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, s.Hour, s.Minute)
	}
	if s.AssigneeID <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAssignee, s.AssigneeID)
	}
	return nil
}

// String renders the step in the ParseCycle format.
func (s Step) String() string {
	return fmt.Sprintf("%d@%02d:%02d#%d", s.OffsetDays, s.Hour, s.Minute, s.AssigneeID)
}

// Cycle is a validated, non-empty list of steps.
type Cycle struct {
	steps []Step
}

// NewCycle validates steps and returns a Cycle. Every offset must be
// positive so that generation always terminates.
func NewCycle(steps ...Step) (Cycle, error) {
	if len(steps) == 0 {
		return Cycle{}, ErrEmptyCycle
	}
	for i, s := range steps {
		if err := s.validate(); err != nil {
			return Cycle{}, fmt.Errorf("step %d: %w", i, err)
		}
	}
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return Cycle{steps: cp}, nil
}

// Len returns the number of steps.
func (c Cycle) Len() int { return len(c.steps) }

// Steps returns a copy of the steps.
func (c Cycle) Steps() []Step {
	cp := make([]Step, len(c.steps))
	copy(cp, c.steps)
	return cp
}

// SpanDays is the number of days one full traversal of the cycle advances.
func (c Cycle) SpanDays() int {
	total := 0
	for _, s := range c.steps {
		total += s.OffsetDays
	}
	return total
}

func (c Cycle) String() string {
	parts := make([]string, len(c.steps))
	for i, s := range c.steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// DefaultCycle is the Thu 12h → Tue 12h → Sat 9h rotation: two steps with
// barber 21185 and the Saturday morning with 21218.
func DefaultCycle() Cycle {
	c, _ := NewCycle(
		Step{OffsetDays: 5, Hour: 12, Minute: 0, AssigneeID: 21185},
		Step{OffsetDays: 4, Hour: 12, Minute: 0, AssigneeID: 21185},
		Step{OffsetDays: 5, Hour: 9, Minute: 0, AssigneeID: 21218},
	)
	return c
}

// DefaultReference anchors step 0 of DefaultCycle: Thursday 2026-02-05 12:00.
func DefaultReference(loc *time.Location) time.Time {
	return time.Date(2026, time.February, 5, 12, 0, 0, 0, loc)
}

// ParseCycle parses "offset@HH:MM#assignee" entries separated by commas,
// e.g. "5@12:00#21185,4@12:00#21185,5@09:00#21218".
func ParseCycle(raw string) (Cycle, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Cycle{}, ErrEmptyCycle
	}

	var steps []Step
	for i, part := range strings.Split(raw, ",") {
		step, err := parseStep(strings.TrimSpace(part))
		if err != nil {
			return Cycle{}, fmt.Errorf("recurrence: step %d %q: %w", i, part, err)
		}
		steps = append(steps, step)
	}
	return NewCycle(steps...)
}

func parseStep(s string) (Step, error) {
	offsetStr, rest, ok := strings.Cut(s, "@")
	if !ok {
		return Step{}, fmt.Errorf("missing '@'")
	}
	clock, assigneeStr, ok := strings.Cut(rest, "#")
	if !ok {
		return Step{}, fmt.Errorf("missing '#'")
	}
	hourStr, minuteStr, ok := strings.Cut(clock, ":")
	if !ok {
		return Step{}, fmt.Errorf("time must be HH:MM")
	}

	var step Step
	var err error
	if step.OffsetDays, err = strconv.Atoi(strings.TrimSpace(offsetStr)); err != nil {
		return Step{}, fmt.Errorf("offset: %w", err)
	}
	if step.Hour, err = strconv.Atoi(hourStr); err != nil {
		return Step{}, fmt.Errorf("hour: %w", err)
	}
	if step.Minute, err = strconv.Atoi(minuteStr); err != nil {
		return Step{}, fmt.Errorf("minute: %w", err)
	}
	if step.AssigneeID, err = strconv.Atoi(strings.TrimSpace(assigneeStr)); err != nil {
		return Step{}, fmt.Errorf("assignee: %w", err)
	}
	return step, nil
}

// ParseReference parses "YYYY-MM-DD HH:MM" (seconds optional) in loc.
func ParseReference(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("recurrence: invalid reference %q (want YYYY-MM-DD HH:MM)", raw)
}
