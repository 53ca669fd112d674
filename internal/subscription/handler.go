// AngelaMos | 2026
// handler.go

package subscription

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterStudentRoutes(
	r chi.Router,
	authenticator, studentOnly func(http.Handler) http.Handler,
) {
	r.Route("/student/subscriptions", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(studentOnly)

		r.Post("/", h.Request)
		r.Get("/active", h.GetActive)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/subscriptions", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/pending", h.ListPending)
		r.Post("/{subscriptionID}/activate", h.Activate)
	})
}

func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	a := account.FromContext(r.Context())
	if a == nil {
		core.Unauthorized(w, "")
		return
	}

	sub, err := h.service.Request(r.Context(), a.ID)
	if err != nil {
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.Created(w, ToSubscriptionResponse(sub))
}

func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	a := account.FromContext(r.Context())
	if a == nil {
		core.Unauthorized(w, "")
		return
	}

	sub, err := h.service.Active(r.Context(), a.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "active subscription")
			return
		}
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.OK(w, ToSubscriptionResponse(sub))
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.ListPending(r.Context())
	if err != nil {
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.OK(w, SubscriptionListResponse{
		Subscriptions: ToSubscriptionResponseList(subs),
	})
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sub, err := h.service.Activate(
		r.Context(),
		account.FromContext(r.Context()),
		chi.URLParam(r, "subscriptionID"),
		time.Duration(req.Days)*24*time.Hour,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "subscription")
			return
		}
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.OK(w, ToSubscriptionResponse(sub))
}
