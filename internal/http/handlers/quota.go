package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fitserver/internal/domain"
)

type quotaResponse struct {
	UserID     string                               `json:"user_id"`
	Categories map[domain.Category]domain.QuotaStat `json:"categories"`
}

// QuotaStats reports per-category usage for the current quota period.
func (a *App) QuotaStats(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
	if userID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id required")
		return
	}
	stats, err := a.Quota.Stats(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: quota stats failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load quota")
		return
	}
	a.json(w, http.StatusOK, quotaResponse{UserID: userID, Categories: stats})
}
