// Package handler exposes the validation API over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
	"github.com/complyflow/complyflow-backend/pkg/httputil"
	"github.com/complyflow/complyflow-backend/pkg/logger"
)

// ValidationService runs one validation request end to end.
type ValidationService interface {
	Validate(ctx context.Context, req *domain.ValidationRequest) (*domain.CompactReport, *domain.DetailedReport, error)
}

// ValidationResponse is the payload returned for a completed run.
type ValidationResponse struct {
	Compact  *domain.CompactReport  `json:"compact"`
	Detailed *domain.DetailedReport `json:"detailed"`
}

// Handler handles validation HTTP requests.
type Handler struct {
	service ValidationService
	log     *logger.Logger
}

// New creates a new validation handler.
func New(service ValidationService, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// Routes returns the router for validation endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/validate", h.Validate)
	return r
}

// Validate runs a compliance validation. Only structurally invalid
// input produces an error status; a non-compliant result is still a
// 200 carrying the verdict.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	compact, detailed, err := h.service.Validate(r.Context(), &req)
	if err != nil {
		h.log.WithRequestID(httputil.GetRequestID(r.Context())).
			Warn().Err(err).Msg("validation request rejected")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ValidationResponse{
		Compact:  compact,
		Detailed: detailed,
	})
}
