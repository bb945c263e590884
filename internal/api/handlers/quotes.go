package handlers

import (
	"context"
	"errors"
	"freight-quote-service/internal/api/dto"
	"freight-quote-service/internal/services"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// QuoteHandler exposes the quote input pipeline.
type QuoteHandler struct {
	Orchestrator *services.QuoteOrchestrator
	Logger       *slog.Logger
	Timeout      time.Duration // zero means no deadline beyond the client's
}

// Inputs gathers route, toll, restriction and price inputs for one shipment.
// Provider failures never fail the request; only bad input does.
func (h *QuoteHandler) Inputs(w http.ResponseWriter, r *http.Request) {
	logger := loggerOrDefault(h.Logger)

	var req dto.QuoteInputsRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, r, logger, http.StatusBadRequest, err.Error())
		return
	}
	if req.Vehicle != nil && req.Cargo != nil {
		writeError(w, r, logger, http.StatusBadRequest, "send either vehicle or cargo, not both")
		return
	}
	if req.Cargo != nil {
		if err := validate.Struct(req.Cargo); err != nil {
			writeError(w, r, logger, http.StatusBadRequest, "invalid cargo: "+err.Error())
			return
		}
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	out, err := h.Orchestrator.BuildQuoteInputs(ctx, req.Origin, req.Destination, req.VehicleProfile(), req.PickupDate)
	switch {
	case err == nil:
		writeJSON(w, r, logger, http.StatusOK, out)
	case errors.Is(err, services.ErrInvalidInput):
		writeError(w, r, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, logger, http.StatusGatewayTimeout, "quote inputs not ready in time, retry shortly")
	case errors.Is(err, context.Canceled):
		// client went away; nothing to write to
	default:
		logger.ErrorContext(r.Context(), "build quote inputs failed", slog.Any("err", err))
		writeError(w, r, logger, http.StatusInternalServerError, "internal server error")
	}
}
