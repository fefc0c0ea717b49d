package cashbarber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
)

// ListAppointmentDates walks every page of the account's future appointments
// and returns the set of dates that already hold one.
func (c *Client) ListAppointmentDates(ctx context.Context, token string) (DateSet, error) {
	ctx, span := tracer.Start(ctx, "cashbarber.list_appointments", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	dates := NewDateSet()
	next := c.baseURL + pathList
	pages := 0

	for next != "" {
		if pages >= c.maxPages {
			err := apperr.New(apperr.KindRemote, fmt.Sprintf("appointment listing exceeded %d pages", c.maxPages))
			span.SetStatus(codes.Error, err.Message)
			return nil, err
		}
		pages++

		status, raw, err := c.doJSON(ctx, "list", http.MethodPost, next, token, nil)
		if err != nil {
			span.RecordError(err)
			return nil, apperr.Wrap(apperr.KindRemote, err, "list appointments")
		}
		if !isSuccess(status) {
			e := apperr.Remote(apperr.KindRemote, status, remoteMessage(raw, fmt.Sprintf("HTTP %d", status)), raw)
			span.SetStatus(codes.Error, e.Message)
			return nil, e
		}

		var page listResponse
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, apperr.Wrap(apperr.KindRemote, err, "decode appointment page")
		}

		for _, apt := range page.Futuros.Data {
			start, ok := apt.Start.(string)
			if !ok || len(start) < 10 {
				continue
			}
			dates.Add(start[:10])
		}

		current := next
		next = ""
		if p := page.Futuros.NextPageURL; p != nil && strings.TrimSpace(*p) != "" {
			if next, err = resolve(current, strings.TrimSpace(*p)); err != nil {
				return nil, apperr.Wrap(apperr.KindRemote, err, "invalid next_page_url")
			}
		}
	}

	span.SetAttributes(
		attribute.Int("cashbarber.pages", pages),
		attribute.Int("cashbarber.booked_dates", dates.Len()),
	)
	c.logger.Debug("cashbarber: listed appointment dates", "pages", pages, "dates", dates.Sorted())
	return dates, nil
}
