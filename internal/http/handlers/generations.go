package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fitserver/internal/domain"
	"fitserver/internal/metrics"
	"fitserver/internal/middleware"
)

type generationRequest struct {
	UserID   string         `json:"user_id"`
	Category string         `json:"category"`
	Payload  domain.Payload `json:"payload"`
}

type generationResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// GenerationsCreate admits a submission against the user's quota and
// enqueues the generation job. The response is immediate; the artifact
// arrives via notification.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	var req generationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id required")
		return
	}
	category := domain.Category(req.Category)
	if !category.Valid() {
		a.error(w, http.StatusBadRequest, "invalid_category", "unsupported category")
		return
	}

	if req.Payload.Locale == "" {
		req.Payload.Locale = middleware.LocaleFromContext(r.Context())
	}

	if err := a.Quota.Admit(r.Context(), userID, category); err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			metrics.QuotaRejections.WithLabelValues(string(category)).Inc()
			a.error(w, http.StatusForbidden, "quota_exceeded", "generation quota exceeded for this period")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: quota admission failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to check quota")
		return
	}

	jobID, err := a.Queue.Enqueue(r.Context(), userID, category, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCategory), errors.Is(err, domain.ErrInvalidPayload):
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		default:
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: enqueue failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		}
		return
	}
	a.json(w, http.StatusAccepted, generationResponse{JobID: jobID, Status: string(domain.JobStateQueued)})
}

// GenerationStatus reports the state, progress, and outcome of one job.
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	status, err := a.Queue.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("handlers: status lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusOK, status)
}
