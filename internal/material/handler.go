// AngelaMos | 2026
// handler.go

package material

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
)

const maxListLimit = 200

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

func (h *Handler) RegisterTeacherRoutes(
	r chi.Router,
	authenticator, teacherOnly func(http.Handler) http.Handler,
) {
	r.Route("/teacher/materials", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(teacherOnly)

		r.Post("/", h.Create)
		r.Get("/", h.ListOwn)
	})
}

// RegisterStudentRoutes mounts the catalogue. entitled gates it on a paid
// balance or an active subscription.
func (h *Handler) RegisterStudentRoutes(
	r chi.Router,
	authenticator, studentOnly, entitled func(http.Handler) http.Handler,
) {
	r.Route("/student/materials", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(studentOnly)
		r.Use(entitled)

		r.Get("/", h.ListAll)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	m, err := h.service.Publish(r.Context(), account.FromContext(r.Context()), NewMaterial{
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.FileURL,
		VideoURL:    req.VideoURL,
	})
	if err != nil {
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.Created(w, ToMaterialResponse(m))
}

func (h *Handler) ListOwn(w http.ResponseWriter, r *http.Request) {
	a := account.FromContext(r.Context())
	if a == nil {
		core.Unauthorized(w, "")
		return
	}

	materials, err := h.service.ListOwn(r.Context(), a.ID)
	if err != nil {
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.OK(w, ToMaterialListResponse(materials))
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	materials, err := h.service.ListAll(r.Context(), limit)
	if err != nil {
		core.JSONError(w, core.DomainError(err))
		return
	}

	core.OK(w, ToMaterialListResponse(materials))
}
