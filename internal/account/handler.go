// AngelaMos | 2026
// handler.go

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartpro-edu/smartpro/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterAdminRoutes mounts the teacher verification endpoints.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/admin/accounts/{accountID}", h.GetAccount)
		r.Get("/admin/teachers/pending", h.ListPendingTeachers)
		r.Post("/admin/teachers/{accountID}/approve", h.ApproveTeacher)
		r.Post("/admin/teachers/{accountID}/reject", h.RejectTeacher)
	})
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetByID(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.OK(w, ToAccountResponse(a))
}

func (h *Handler) ListPendingTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.service.ListPendingTeachers(r.Context())
	if err != nil {
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.OK(w, AccountListResponse{Accounts: ToAccountResponseList(teachers)})
}

func (h *Handler) ApproveTeacher(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Approve(
		r.Context(),
		FromContext(r.Context()),
		chi.URLParam(r, "accountID"),
	)
	if err != nil {
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.OK(w, ToAccountResponse(a))
}

func (h *Handler) RejectTeacher(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Reject(
		r.Context(),
		FromContext(r.Context()),
		chi.URLParam(r, "accountID"),
	)
	if err != nil {
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.OK(w, ToAccountResponse(a))
}
