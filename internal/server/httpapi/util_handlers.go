package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
)

type healthStatus struct {
	Status string `json:"status"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthStatus{Status: "ok"})
}

func (h *handlers) checkReady(r *http.Request) error {
	if h.ready == nil {
		return nil
	}
	return h.ready(r.Context())
}

func (h *handlers) readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.checkReady(r); err != nil {
		h.log.Warn(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthStatus{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthStatus{Status: "ok"})
}

func (h *handlers) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.checkReady(r); err != nil {
		h.log.Warn(r.Context(), "health check failed", "error", err)
		writeDetail(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, true)
}

func (h *handlers) testEmail(w http.ResponseWriter, r *http.Request) {
	to := r.URL.Query().Get("email_to")
	if to == "" {
		writeError(w, r, h.log, common.WithDetail(common.ErrValidation, "email_to is required"))
		return
	}
	if err := h.login.SendTestEmail(r.Context(), currentUser(r), to); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.Message{Message: "Test email sent"})
}
