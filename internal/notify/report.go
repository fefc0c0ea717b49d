package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
	"github.com/wolfman30/cashbarber-autobook/internal/autobook"
	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

// ReportCategory tags run report emails at the provider.
const ReportCategory = "autobook-run"

// ReportConfig controls who gets run reports and when.
type ReportConfig struct {
	To           string
	OnlyOnErrors bool
}

// Reporter emails a summary of each booking run.
type Reporter struct {
	email  EmailSender
	cfg    ReportConfig
	logger *logging.Logger
}

// NewReporter returns a Reporter. With no recipient it only logs.
func NewReporter(email EmailSender, cfg ReportConfig, logger *logging.Logger) *Reporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reporter{email: email, cfg: cfg, logger: logger}
}

// Report sends the summary of run. Runs that failed or recorded slot errors
// are always reported; clean runs only when OnlyOnErrors is false.
func (r *Reporter) Report(ctx context.Context, run *autobook.RunResult, runErr error) error {
	if r == nil || r.email == nil || strings.TrimSpace(r.cfg.To) == "" {
		return nil
	}
	if run == nil {
		run = &autobook.RunResult{}
	}
	failed := runErr != nil || run.Result.HasErrors()
	if r.cfg.OnlyOnErrors && !failed {
		r.logger.Debug("notify: clean run, report skipped", "run_id", run.RunID)
		return nil
	}

	msg := EmailMessage{
		To:       Mailbox{Address: r.cfg.To},
		Subject:  reportSubject(run, runErr),
		Body:     reportText(run, runErr),
		HTML:     reportHTML(run, runErr),
		Category: ReportCategory,
	}
	if err := r.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send run report: %w", err)
	}
	r.logger.Info("notify: run report sent", "run_id", run.RunID, "to", r.cfg.To)
	return nil
}

func reportSubject(run *autobook.RunResult, runErr error) string {
	prefix := "CashBarber autobook"
	if run.DryRun {
		prefix += " (dry run)"
	}
	if runErr != nil {
		return fmt.Sprintf("%s failed: %s", prefix, errorMessage(runErr))
	}
	res := run.Result
	if res == nil {
		return prefix + ": nothing to do"
	}
	return fmt.Sprintf("%s: %d booked, %d already scheduled, %d errors",
		prefix, len(res.Booked), len(res.AlreadyScheduled), len(res.Errors))
}

func reportText(run *autobook.RunResult, runErr error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", run.RunID)
	if !run.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Started: %s\nDuration: %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"), run.Duration().Round(1e6))
	}
	fmt.Fprintf(&b, "Slots generated: %d\n", run.SlotsGenerated)
	if run.ListingFailed {
		b.WriteString("Existing appointments could not be listed; every slot was attempted.\n")
	}
	if runErr != nil {
		fmt.Fprintf(&b, "\nError: %s\n", errorMessage(runErr))
		if e, ok := apperr.As(runErr); ok && len(e.RawBody) > 0 {
			fmt.Fprintf(&b, "Response: %s\n", e.RawBody)
		}
	}

	res := run.Result
	if res == nil {
		return b.String()
	}
	if len(res.Booked) > 0 {
		b.WriteString("\nBooked:\n")
		for _, e := range res.Booked {
			fmt.Fprintf(&b, "  %s (assignee %d)\n", e.Slot.StartString(), e.Slot.AssigneeID)
		}
	}
	if len(res.AlreadyScheduled) > 0 {
		b.WriteString("\nAlready scheduled:\n")
		for _, e := range res.AlreadyScheduled {
			fmt.Fprintf(&b, "  %s (%s)\n", e.Slot.StartString(), e.Reason)
		}
	}
	if len(res.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "  %s: %s", e.Slot.StartString(), e.Error)
			if e.Status > 0 {
				fmt.Fprintf(&b, " (HTTP %d)", e.Status)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func reportHTML(run *autobook.RunResult, runErr error) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: sans-serif; max-width: 600px;">`)
	fmt.Fprintf(&b, `<h2>%s</h2>`, html.EscapeString(reportSubject(run, runErr)))
	fmt.Fprintf(&b, `<p style="color: #6b7280;">Run %s &middot; %d slots generated</p>`, html.EscapeString(run.RunID), run.SlotsGenerated)
	if runErr != nil {
		fmt.Fprintf(&b, `<p style="background: #fef2f2; padding: 12px; border-left: 4px solid #ef4444;">%s</p>`, html.EscapeString(errorMessage(runErr)))
	}
	if res := run.Result; res != nil && res.Total() > 0 {
		b.WriteString(`<table style="border-collapse: collapse; margin: 20px 0;">`)
		row := func(start, status, detail string) {
			fmt.Fprintf(&b, `<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`,
				html.EscapeString(start), status, html.EscapeString(detail))
		}
		for _, e := range res.Booked {
			row(e.Slot.StartString(), "booked", fmt.Sprintf("assignee %d", e.Slot.AssigneeID))
		}
		for _, e := range res.AlreadyScheduled {
			row(e.Slot.StartString(), "already scheduled", string(e.Reason))
		}
		for _, e := range res.Errors {
			row(e.Slot.StartString(), "error", e.Error)
		}
		b.WriteString(`</table>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func errorMessage(err error) string {
	if e, ok := apperr.As(err); ok && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
