// AngelaMos | 2026
// handler.go

package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cit-submit/go-backend/internal/audit"
	"github.com/cit-submit/go-backend/internal/core"
	"github.com/cit-submit/go-backend/internal/middleware"
	"github.com/cit-submit/go-backend/internal/user"
)

type Handler struct {
	service   *Service
	stats     *StatsHandler
	validator *validator.Validate
}

func NewHandler(service *Service, stats *StatsHandler) *Handler {
	return &Handler{
		service:   service,
		stats:     stats,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{userID}", h.GetUser)
			r.Put("/{userID}", h.UpdateUser)
			r.Put("/{userID}/role", h.ChangeRole)
			r.Post("/{userID}/deactivate", h.Deactivate)
			r.Post("/{userID}/reactivate", h.Reactivate)
			r.Post("/{userID}/verify", h.VerifyUser)
			r.Get("/{userID}/audit-logs", h.ListAuditLogsForTarget)
		})

		r.Get("/audit-logs", h.ListAuditLogs)

		if h.stats != nil {
			h.stats.RegisterRoutes(r)
		}
	})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	created, err := h.service.CreateUser(r.Context(), adminID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Created(w, user.ToUserResponse(created))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "userID")

	target, err := h.service.GetUser(r.Context(), adminID, targetID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, user.ToUserResponse(target))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "userID")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	target, err := h.service.UpdateUser(r.Context(), adminID, targetID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, user.ToUserResponse(target))
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "userID")

	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	target, err := h.service.ChangeRole(
		r.Context(),
		adminID,
		targetID,
		req.Role,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, user.ToUserResponse(target))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "userID")

	target, err := h.service.Deactivate(r.Context(), adminID, targetID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, user.ToUserResponse(target))
}

func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "userID")

	target, err := h.service.Reactivate(r.Context(), adminID, targetID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, user.ToUserResponse(target))
}

func (h *Handler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "userID")

	target, err := h.service.VerifyUser(r.Context(), adminID, targetID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, user.ToUserResponse(target))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())

	params := user.ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
		Status:   r.URL.Query().Get("status"),
	}

	users, total, err := h.service.ListUsers(r.Context(), adminID, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Paginated(
		w,
		user.ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())

	params := audit.ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
	}

	entries, total, err := h.service.ListAuditLogs(r.Context(), adminID, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Paginated(w, entries, params.Page, params.PageSize, total)
}

func (h *Handler) ListAuditLogsForTarget(
	w http.ResponseWriter,
	r *http.Request,
) {
	adminID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "userID")

	params := audit.ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
	}

	entries, total, err := h.service.ListAuditLogsForTarget(
		r.Context(),
		adminID,
		targetID,
		params,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Paginated(w, entries, params.Page, params.PageSize, total)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "user")
		return
	}

	core.InternalServerError(w, err)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
