package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/engine"
)

func (h *Handler) GetAllShifts(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "fetched shifts", h.engine.Shifts())
}

// engineError maps engine errors onto the envelope: validation and
// not-found problems are the caller's fault, everything else is ours.
func (h *Handler) engineError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	var nfErr *domain.NotFoundError
	switch {
	case errors.As(err, &vErr):
		h.errorResponse(w, r, vErr.Error())
	case errors.As(err, &nfErr):
		h.errorResponse(w, r, nfErr.Error())
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) publishMail(w http.ResponseWriter, r *http.Request, msg domain.MailMessage) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.publisher.PublishMail(ctx, msg); err != nil {
		h.internalServerError(w, r, err)
		return false
	}
	return true
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date           string `json:"date" validate:"required"`
		Type           string `json:"type" validate:"required"`
		Start          string `json:"start" validate:"required"`
		End            string `json:"end" validate:"required"`
		WorkLocation   string `json:"workLocation" validate:"omitempty,oneof=depot home"`
		RequiresOnSite bool   `json:"requiresOnSite"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	actor := r.Context().Value(SubCtxKey).(string)

	res, err := h.engine.CreateShift(r.Context(), engine.CreateShiftInput{
		Date:           req.Date,
		Type:           req.Type,
		Start:          req.Start,
		End:            req.End,
		WorkLocation:   domain.WorkLocation(req.WorkLocation),
		RequiresOnSite: req.RequiresOnSite,
		Actor:          actor,
	})
	if err != nil {
		h.engineError(w, r, err)
		return
	}
	if !res.OK {
		h.errorResponse(w, r, refusalMessage(res.Reason))
		return
	}

	h.successResponse(w, r, "shift created", res.Shift)
}

func (h *Handler) ApplyToShift(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "id")
	sub := r.Context().Value(SubCtxKey).(string)

	res, err := h.engine.Apply(r.Context(), shiftID, sub)
	if err != nil {
		h.engineError(w, r, err)
		return
	}
	if !res.OK {
		h.errorResponse(w, r, refusalMessage(res.Reason))
		return
	}

	h.successResponse(w, r, "application recorded", res.Application)
}

func (h *Handler) AssignShift(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "id")
	actor := r.Context().Value(SubCtxKey).(string)

	var req struct {
		UserID int64 `json:"userID" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.directory.GetUserByID(r.Context(), req.UserID)
	if err != nil {
		h.errorResponse(w, r, "user not found")
		return
	}

	res, err := h.engine.Assign(r.Context(), shiftID, strconv.FormatInt(user.ID, 10), actor)
	if err != nil {
		h.engineError(w, r, err)
		return
	}
	if !res.OK {
		h.errorResponse(w, r, refusalMessage(res.Reason))
		return
	}

	if !h.publishMail(w, r, domain.MailMessage{
		Type: "shift_assigned",
		To:   user.Email,
		Data: domain.ShiftAssignedMailData{
			FullName: user.FullName,
			Date:     res.Shift.Date,
			Start:    res.Shift.Start,
			End:      res.Shift.End,
		},
	}) {
		return
	}

	h.successResponse(w, r, "shift assigned", res.Shift)
}

func (h *Handler) CancelShift(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "id")
	actor := r.Context().Value(SubCtxKey).(string)

	res, err := h.engine.Cancel(r.Context(), shiftID, actor)
	if err != nil {
		h.engineError(w, r, err)
		return
	}
	if !res.OK {
		h.errorResponse(w, r, refusalMessage(res.Reason))
		return
	}

	// Tell the assignee, if the shift had one.
	if res.Shift.AssignedTo != nil {
		userID, err := strconv.ParseInt(*res.Shift.AssignedTo, 10, 64)
		if err == nil {
			user, err := h.directory.GetUserByID(r.Context(), userID)
			if err != nil {
				h.internalServerError(w, r, err)
				return
			}
			if !h.publishMail(w, r, domain.MailMessage{
				Type: "shift_cancelled",
				To:   user.Email,
				Data: domain.ShiftCancelledMailData{
					FullName: user.FullName,
					Date:     res.Shift.Date,
					Start:    res.Shift.Start,
					End:      res.Shift.End,
				},
			}) {
				return
			}
		}
	}

	h.successResponse(w, r, "shift cancelled", res.Shift)
}

func (h *Handler) UpdateShiftStatus(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "id")
	actor := r.Context().Value(SubCtxKey).(string)

	var req struct {
		Status string `json:"status" validate:"required,oneof=open cancelled"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	res, err := h.engine.UpdateStatus(r.Context(), shiftID, domain.ShiftStatus(req.Status), actor)
	if err != nil {
		h.engineError(w, r, err)
		return
	}
	if !res.OK {
		h.errorResponse(w, r, refusalMessage(res.Reason))
		return
	}

	h.successResponse(w, r, "shift status updated", res.Shift)
}
