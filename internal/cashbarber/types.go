// Package cashbarber is a REST client for the CashBarber web booking API:
// session authentication, the paginated appointment listing and booking
// creation.
package cashbarber

import (
	"encoding/json"
	"sort"
)

// Credentials identify the customer account that books appointments.
type Credentials struct {
	Email    string
	Password string
}

type authRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Session is the result of a successful authentication.
type Session struct {
	Token string          `json:"-"`
	User  json.RawMessage `json:"user,omitempty"`
}

type authResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// BookingRequest is the body of a booking creation call.
type BookingRequest struct {
	BranchID     int    `json:"age_id_filial"`
	AssigneeID   int    `json:"age_id_user"`
	ServiceIDs   []int  `json:"servicos"`
	Start        string `json:"age_inicio"`
	End          string `json:"age_fim"`
	NoPreference int    `json:"age_sem_preferencia"`
}

type listResponse struct {
	Futuros struct {
		Data []struct {
			Start any `json:"age_inicio"`
		} `json:"data"`
		NextPageURL *string `json:"next_page_url"`
	} `json:"futuros"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// DateSet is a set of civil dates (YYYY-MM-DD) holding at least one
// future appointment.
type DateSet map[string]struct{}

// NewDateSet returns a set containing dates.
func NewDateSet(dates ...string) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

// Add inserts date.
func (s DateSet) Add(date string) { s[date] = struct{}{} }

// Has reports whether date is present. A nil set holds nothing.
func (s DateSet) Has(date string) bool {
	_, ok := s[date]
	return ok
}

// Len returns the number of dates.
func (s DateSet) Len() int { return len(s) }

// Sorted returns the dates in ascending order.
func (s DateSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
