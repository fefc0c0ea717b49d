package cashbarber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
)

// CreateBooking reserves one slot. On a non-2xx response the returned
// *apperr.Error carries the status and the raw body so callers can classify
// it.
func (c *Client) CreateBooking(ctx context.Context, token string, req BookingRequest) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "cashbarber.create_booking", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.Int("cashbarber.branch_id", req.BranchID),
		attribute.Int("cashbarber.assignee_id", req.AssigneeID),
		attribute.String("cashbarber.start", req.Start),
	)

	if c.dryRun {
		c.logger.Info("DRY RUN: would create CashBarber booking",
			"branch_id", req.BranchID,
			"assignee_id", req.AssigneeID,
			"services", req.ServiceIDs,
			"start", req.Start,
			"end", req.End,
		)
		return json.Marshal(map[string]any{
			"dry_run":    true,
			"id":         fmt.Sprintf("dry-run-%d", time.Now().UnixMilli()),
			"age_inicio": req.Start,
			"age_fim":    req.End,
		})
	}

	status, raw, err := c.doJSON(ctx, "book", http.MethodPost, c.baseURL+pathBookings, token, req)
	if err != nil {
		span.RecordError(err)
		return nil, apperr.Wrap(apperr.KindBooking, err, "booking request failed")
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	if !isSuccess(status) {
		e := apperr.Remote(apperr.KindBooking, status, remoteMessage(raw, fmt.Sprintf("Booking failed: %d", status)), raw)
		span.SetStatus(codes.Error, e.Message)
		return nil, e
	}

	if len(raw) == 0 || !json.Valid(raw) {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(raw), nil
}
