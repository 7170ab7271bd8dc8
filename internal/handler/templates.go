package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

func (h *Handler) GetAllShiftTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.directory.GetAllShiftTemplates(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched shift templates", templates)
}

func (h *Handler) GetShiftTemplate(w http.ResponseWriter, r *http.Request) {
	tpl := r.Context().Value(TemplateCtx).(*domain.ShiftTemplate)
	h.successResponse(w, r, "fetched shift template", tpl)
}

func (h *Handler) CreateShiftTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string  `json:"name" validate:"required"`
		ShiftType      string  `json:"shiftType" validate:"required"`
		Start          string  `json:"start" validate:"required"`
		End            string  `json:"end" validate:"required"`
		Weekdays       []int32 `json:"weekdays" validate:"required,min=1,dive,min=0,max=6"`
		WorkLocation   string  `json:"workLocation" validate:"omitempty,oneof=depot home"`
		RequiresOnSite bool    `json:"requiresOnSite"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	location := domain.WorkLocation(req.WorkLocation)
	if location == "" {
		location = domain.LocationDepot
	}

	weekdays := make([]time.Weekday, len(req.Weekdays))
	for i, d := range req.Weekdays {
		weekdays[i] = time.Weekday(d)
	}

	tpl := &domain.ShiftTemplate{
		Name:           req.Name,
		ShiftType:      req.ShiftType,
		Start:          req.Start,
		End:            req.End,
		Weekdays:       weekdays,
		WorkLocation:   location,
		RequiresOnSite: req.RequiresOnSite,
	}

	if err := h.directory.CreateShiftTemplate(r.Context(), tpl); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "shift_templates_name_key":
			h.badRequest(w, r, errors.New("template name already exists"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "shift template created", tpl)
}

func (h *Handler) DeleteShiftTemplate(w http.ResponseWriter, r *http.Request) {
	tpl := r.Context().Value(TemplateCtx).(*domain.ShiftTemplate)

	if err := h.directory.DeleteShiftTemplate(r.Context(), tpl.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift template deleted", nil)
}

func (h *Handler) ExpandShiftTemplate(w http.ResponseWriter, r *http.Request) {
	tpl := r.Context().Value(TemplateCtx).(*domain.ShiftTemplate)
	actor := r.Context().Value(SubCtxKey).(string)

	var req struct {
		From string `json:"from" validate:"required"`
		To   string `json:"to" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	created, err := h.engine.ExpandTemplate(r.Context(), tpl, req.From, req.To, actor)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift template expanded", map[string]int{"created": created})
}
