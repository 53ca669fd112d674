// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/gate"
	"github.com/smartpro-edu/smartpro/internal/middleware"
)

const defaultHeartbeat = 25 * time.Second

type Handler struct {
	service   *Service
	validator *validator.Validate
	heartbeat time.Duration
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		heartbeat: defaultHeartbeat,
	}
}

// Routes groups the middleware the auth endpoints depend on.
type Routes struct {
	// Authenticator verifies the bearer token.
	Authenticator func(http.Handler) http.Handler
	// Account loads the account after Authenticator has run.
	Account func(http.Handler) http.Handler
	// Login limits credential attempts.
	Login func(http.Handler) http.Handler
	// Stream limits event stream connections.
	Stream func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passthrough
	}
	return mw
}

func (h *Handler) RegisterRoutes(r chi.Router, routes Routes) {
	r.Route("/auth", func(r chi.Router) {
		r.With(orPassthrough(routes.Login)).Post("/login", h.Login)
		r.With(orPassthrough(routes.Login)).Post("/register", h.Register)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(routes.Authenticator)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.With(orPassthrough(routes.Stream)).Get("/session/stream", h.StreamSession)

			r.With(orPassthrough(routes.Account)).Get("/me", h.GetMe)
		})
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	a, err := h.service.Register(r.Context(), req.Email, req.Password, NewProfile{
		DisplayName: req.Name,
		School:      req.School,
		Class:       req.Class,
		Expertise:   req.Expertise,
	}, req.Role)
	if err != nil {
		core.JSONError(w, gate.Describe(err))
		return
	}

	core.Created(w, account.ToAccountResponse(a))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	res, err := h.service.Login(
		r.Context(),
		req.Email,
		req.Password,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		core.JSONError(w, gate.Describe(err))
		return
	}

	core.OK(w, LoginResponse{
		Account:  account.ToAccountResponse(res.Account),
		Tokens:   ToTokenResponse(res.Tokens),
		Redirect: res.Redirect,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	tokens, err := h.service.Refresh(
		r.Context(),
		req.RefreshToken,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		core.JSONError(w, gate.Describe(err))
		return
	}

	core.OK(w, ToTokenResponse(tokens))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.GetClaims(r.Context())); err != nil {
		core.JSONError(w, gate.Describe(err))
		return
	}

	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.LogoutAll(r.Context(), middleware.GetClaims(r.Context())); err != nil {
		core.JSONError(w, gate.Describe(err))
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	sessions, err := h.service.Sessions(r.Context(), userID)
	if err != nil {
		core.JSONError(w, gate.Describe(err))
		return
	}

	core.OK(w, SessionsResponse{Sessions: ToSessionInfoList(sessions)})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		core.BadRequest(w, "session ID required")
		return
	}

	if err := h.service.RevokeSession(r.Context(), userID, sessionID); err != nil {
		core.JSONError(w, gate.Describe(err))
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	a := account.FromContext(r.Context())
	if a == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, MeResponse{
		Account:  account.ToAccountResponse(a),
		Redirect: gate.Route(a.Role),
	})
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
