package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
	"github.com/wolfman30/cashbarber-autobook/internal/autobook"
	"github.com/wolfman30/cashbarber-autobook/internal/booking"
	"github.com/wolfman30/cashbarber-autobook/internal/recurrence"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func sampleRun(withError bool) *autobook.RunResult {
	loc := time.FixedZone("UTC-3", -3*60*60)
	start := time.Date(2026, time.February, 10, 12, 0, 0, 0, loc)
	slot := recurrence.Slot{Start: start, End: start.Add(time.Hour), AssigneeID: 21185}

	res := booking.NewResult()
	res.Add(booking.Outcome{Kind: booking.OutcomeBooked, Slot: slot, Data: json.RawMessage(`{}`)})
	res.Add(booking.Outcome{Kind: booking.OutcomeAlreadyScheduled, Slot: slot, Reason: booking.ReasonRemoteConflict})
	if withError {
		res.Add(booking.Outcome{Kind: booking.OutcomeFailed, Slot: slot, Error: "Server <Error>", Status: 500})
	}
	return &autobook.RunResult{
		RunID:          "run-1",
		StartedAt:      start.Add(-time.Hour),
		FinishedAt:     start.Add(-time.Hour + 7*time.Second),
		SlotsGenerated: 3,
		Result:         res,
	}
}

func TestReporter_SkipsCleanRunsWhenOnlyOnErrors(t *testing.T) {
	sender := &recordingSender{}
	r := NewReporter(sender, ReportConfig{To: "me@example.com", OnlyOnErrors: true}, nil)

	require.NoError(t, r.Report(context.Background(), sampleRun(false), nil))
	assert.Empty(t, sender.sent)
}

func TestReporter_SendsCleanRunsWhenAlwaysOn(t *testing.T) {
	sender := &recordingSender{}
	r := NewReporter(sender, ReportConfig{To: "me@example.com"}, nil)

	require.NoError(t, r.Report(context.Background(), sampleRun(false), nil))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "me@example.com", msg.To.Address)
	assert.Equal(t, ReportCategory, msg.Category)
	assert.Equal(t, "CashBarber autobook: 1 booked, 1 already scheduled, 0 errors", msg.Subject)
	assert.Contains(t, msg.Body, "Run run-1")
	assert.Contains(t, msg.Body, "2026-02-10 12:00:00 (assignee 21185)")
	assert.Contains(t, msg.Body, "2026-02-10 12:00:00 (remote_conflict)")
	assert.Contains(t, msg.Body, "Duration: 7s")
}

func TestReporter_SlotErrors(t *testing.T) {
	sender := &recordingSender{}
	r := NewReporter(sender, ReportConfig{To: "me@example.com", OnlyOnErrors: true}, nil)

	require.NoError(t, r.Report(context.Background(), sampleRun(true), nil))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Contains(t, msg.Subject, "1 errors")
	assert.Contains(t, msg.Body, "Server <Error> (HTTP 500)")
	assert.Contains(t, msg.HTML, "Server &lt;Error&gt;")
	assert.NotContains(t, msg.HTML, "Server <Error>")
}

func TestReporter_FatalError(t *testing.T) {
	sender := &recordingSender{}
	r := NewReporter(sender, ReportConfig{To: "me@example.com", OnlyOnErrors: true}, nil)

	runErr := apperr.Remote(apperr.KindAuth, http.StatusUnauthorized, "Credenciais inválidas", []byte(`{"message":"Credenciais inválidas"}`))
	require.NoError(t, r.Report(context.Background(), &autobook.RunResult{RunID: "run-2", DryRun: true}, runErr))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "CashBarber autobook (dry run) failed: Credenciais inválidas", msg.Subject)
	assert.True(t, strings.Contains(msg.Body, `Response: {"message":"Credenciais inválidas"}`))
}

func TestReporter_NoRecipientOrSender(t *testing.T) {
	sender := &recordingSender{}
	require.NoError(t, NewReporter(sender, ReportConfig{}, nil).Report(context.Background(), sampleRun(true), nil))
	assert.Empty(t, sender.sent)

	require.NoError(t, NewReporter(nil, ReportConfig{To: "me@example.com"}, nil).Report(context.Background(), sampleRun(true), nil))

	var nilReporter *Reporter
	require.NoError(t, nilReporter.Report(context.Background(), nil, nil))
}

func TestReporter_SendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("quota")}
	r := NewReporter(sender, ReportConfig{To: "me@example.com"}, nil)

	err := r.Report(context.Background(), sampleRun(false), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}
