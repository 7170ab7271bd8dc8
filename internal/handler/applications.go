package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetAllApplications(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "fetched applications", h.engine.Applications())
}

func (h *Handler) ApplyToSeries(w http.ResponseWriter, r *http.Request) {
	sub := r.Context().Value(SubCtxKey).(string)

	var req struct {
		ShiftIDs []string `json:"shiftIDs" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	res, err := h.engine.ApplySeries(r.Context(), req.ShiftIDs, sub)
	if err != nil {
		h.engineError(w, r, err)
		return
	}
	if !res.OK {
		h.errorResponse(w, r, refusalMessage(res.Reason))
		return
	}

	h.successResponse(w, r, "applications recorded", res.Applications)
}

func (h *Handler) WithdrawApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	sub := r.Context().Value(SubCtxKey).(string)

	res, err := h.engine.Withdraw(r.Context(), applicationID, sub)
	if err != nil {
		h.engineError(w, r, err)
		return
	}
	if !res.OK {
		h.errorResponse(w, r, refusalMessage(res.Reason))
		return
	}

	h.successResponse(w, r, "application withdrawn", res.Application)
}
