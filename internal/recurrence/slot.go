package recurrence

import (
	"encoding/json"
	"time"
)

// WireLayout is the timestamp format CashBarber expects and returns.
const WireLayout = "2006-01-02 15:04:05"

// DateLayout is the civil date portion of WireLayout.
const DateLayout = "2006-01-02"

// Slot is a single candidate appointment.
type Slot struct {
	Start      time.Time
	End        time.Time
	AssigneeID int
}

// Date returns the civil date of the slot start.
func (s Slot) Date() string { return s.Start.Format(DateLayout) }

// StartString returns the start in WireLayout.
func (s Slot) StartString() string { return s.Start.Format(WireLayout) }

// EndString returns the end in WireLayout.
func (s Slot) EndString() string { return s.End.Format(WireLayout) }

type slotJSON struct {
	Start      string `json:"age_inicio"`
	End        string `json:"age_fim"`
	AssigneeID int    `json:"age_id_user"`
}

// MarshalJSON renders the slot with the CashBarber field names.
func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotJSON{
		Start:      s.StartString(),
		End:        s.EndString(),
		AssigneeID: s.AssigneeID,
	})
}
