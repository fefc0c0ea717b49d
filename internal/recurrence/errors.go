package recurrence

import "errors"

var (
	// ErrEmptyCycle is returned when a cycle has no steps.
	ErrEmptyCycle = errors.New("recurrence: cycle must have at least one step")

	// ErrInvalidOffset is returned when a step does not advance the schedule.
	ErrInvalidOffset = errors.New("recurrence: step offset must be at least one day")

	// ErrInvalidTimeOfDay is returned for hours outside 0-23 or minutes outside 0-59.
	ErrInvalidTimeOfDay = errors.New("recurrence: invalid time of day")

	// ErrInvalidAssignee is returned when a step has no assignee.
	ErrInvalidAssignee = errors.New("recurrence: assignee id must be positive")

	// ErrInvalidDuration is returned when the slot duration is not positive.
	ErrInvalidDuration = errors.New("recurrence: slot duration must be positive")
)
