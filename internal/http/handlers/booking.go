// Package handlers exposes the booking run over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
	"github.com/wolfman30/cashbarber-autobook/internal/autobook"
	"github.com/wolfman30/cashbarber-autobook/internal/booking"
	httpmiddleware "github.com/wolfman30/cashbarber-autobook/internal/http/middleware"
	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

// BookingRunner runs one booking pass.
type BookingRunner interface {
	Run(ctx context.Context) (*autobook.RunResult, error)
}

// BookingHandler serves POST /api/cashbarber/book.
type BookingHandler struct {
	runner BookingRunner
	logger *logging.Logger
}

func NewBookingHandler(runner BookingRunner, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{runner: runner, logger: logger}
}

type bookingResponse struct {
	OK        bool            `json:"ok"`
	Scheduled bool            `json:"scheduled"`
	RunID     string          `json:"runId"`
	Results   *booking.Result `json:"results"`
}

// bookingErrorResponse carries the partial results of a pass that was
// interrupted after booking started.
type bookingErrorResponse struct {
	OK       bool            `json:"ok"`
	Error    string          `json:"error"`
	Response json.RawMessage `json:"response,omitempty"`
	RunID    string          `json:"runId,omitempty"`
	Results  *booking.Result `json:"results,omitempty"`
}

// Trigger runs a booking pass and returns its result. A dropped client
// connection does not cancel a pass that already started.
func (h *BookingHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if claims, ok := httpmiddleware.TriggerClaimsFromContext(r.Context()); ok {
		h.logger.Info("booking trigger authorized", "subject", claims.Subject)
	}

	run, err := h.runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		status, body := errorResponse(err)
		if run != nil {
			body.RunID = run.RunID
			body.Results = run.Result
		}
		h.logger.Warn("booking trigger failed", "status", status, "error", err)
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, bookingResponse{
		OK:        true,
		Scheduled: true,
		RunID:     run.RunID,
		Results:   run.Result,
	})
}

func errorResponse(err error) (int, bookingErrorResponse) {
	body := bookingErrorResponse{OK: false, Error: err.Error()}
	e, ok := apperr.As(err)
	if !ok {
		return http.StatusBadRequest, body
	}
	if e.Message != "" {
		body.Error = e.Message
	}
	body.Response = e.RawBody
	return statusForKind(e.Kind), body
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindConfig, apperr.KindInternal:
		return http.StatusInternalServerError
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindRemote:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
