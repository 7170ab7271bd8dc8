package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetAllNotifications(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "fetched notifications", h.engine.Notifications())
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "id")

	if err := h.engine.MarkNotificationRead(r.Context(), notificationID); err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "notification marked as read", nil)
}

func (h *Handler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "fetched audit log", h.engine.AuditLog())
}
