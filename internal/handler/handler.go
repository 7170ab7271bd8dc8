package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/config"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/engine"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/notify"
)

// Directory is the slice of the Postgres repository the HTTP layer needs for
// accounts and shift templates. The engine owns everything else.
type Directory interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error
	GetAllUsers(ctx context.Context) ([]*domain.User, error)

	GetAllShiftTemplates(ctx context.Context) ([]*domain.ShiftTemplate, error)
	GetShiftTemplate(ctx context.Context, id int64) (*domain.ShiftTemplate, error)
	CreateShiftTemplate(ctx context.Context, tpl *domain.ShiftTemplate) error
	DeleteShiftTemplate(ctx context.Context, id int64) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	engine     *engine.Engine
	directory  Directory
	translator ut.Translator
	publisher  notify.Publisher

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, eng *engine.Engine, dir Directory, publisher notify.Publisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		engine:     eng,
		directory:  dir,
		translator: trans,
		publisher:  publisher,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// Everything below requires a valid session cookie.
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.GetAllShifts)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleChief})).Post("/", h.CreateShift)
			r.Route("/{id}", func(r chi.Router) {
				r.Post("/apply", h.ApplyToShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleChief})).Post("/assign", h.AssignShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleChief})).Post("/cancel", h.CancelShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleChief})).Patch("/status", h.UpdateShiftStatus)
			})
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", h.GetAllApplications)
			r.Post("/series", h.ApplyToSeries)
			r.Post("/{id}/withdraw", h.WithdrawApplication)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.GetAllNotifications)
			r.Patch("/{id}/read", h.MarkNotificationRead)
		})

		r.Route("/shift-templates", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleChief})).Post("/", h.CreateShiftTemplate)
			r.Get("/", h.GetAllShiftTemplates)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftTemplate)
				r.Get("/", h.GetShiftTemplate)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleChief})).Delete("/", h.DeleteShiftTemplate)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleChief})).Post("/expand", h.ExpandShiftTemplate)
			})
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", h.GetSyncStatus)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleChief})).Post("/", h.TriggerSync)
		})

		r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleChief, domain.RoleAnalyst})).Get("/audit", h.GetAuditLog)
	})
}
