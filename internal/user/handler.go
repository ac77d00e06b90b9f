// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/middleware"
)

const (
	MsgUserNotFound      = "Usuario no encontrado"
	MsgInvalidUserID     = "ID de usuario inválido"
	MsgEmailTaken        = "El correo electrónico ya está en uso"
	MsgUsernameTaken     = "El nombre de usuario ya está en uso"
	MsgUpdateForbidden   = "No tienes permisos para actualizar este usuario"
	MsgRoleForbidden     = "Solo un administrador puede cambiar el rol"
	MsgDeleteForbidden   = "No tienes permisos para eliminar este usuario"
	MsgProfileFetched    = "Perfil obtenido exitosamente"
	MsgUsersFetched      = "Usuarios obtenidos exitosamente"
	MsgUserFetched       = "Usuario obtenido exitosamente"
	MsgUserUpdated       = "Usuario actualizado exitosamente"
	MsgUserDeleted       = "Usuario eliminado exitosamente"
	paramUserID          = "id"
	defaultListPageSize  = 20
	defaultListFirstPage = 1
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/usuarios", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/perfil", h.GetProfile)
		r.With(adminOnly).Get("/", h.ListUsers)
		r.Get("/{id}", h.GetUser)
		r.Put("/{id}", h.UpdateUser)
		r.With(adminOnly).Delete("/{id}", h.DeleteUser)
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetMe(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, MsgProfileFetched, ToUserResponse(user))
}

// ListUsers returns a page of active users (admin only).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", defaultListFirstPage),
		PageSize: parseIntQuery(r, "page_size", defaultListPageSize),
		Search:   q.Get("search"),
		Role:     firstNonEmpty(q.Get("rol"), q.Get("role")),
	}

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	params.Normalize()
	core.Paginated(
		w,
		MsgUsersFetched,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, MsgUserFetched, ToUserResponse(user))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.MsgInvalidBody)
		return
	}

	user, err := h.service.UpdateUser(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		id,
		req.Canonical(),
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, MsgUserUpdated, ToUserResponse(user))
}

// DeleteUser soft deletes an account (admin only).
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	err := h.service.DeleteUser(r.Context(), middleware.GetIdentity(r.Context()), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.Message(w, http.StatusOK, MsgUserDeleted)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, MsgUserNotFound)
	case errors.Is(err, core.ErrDuplicateEmail):
		core.BadRequest(w, MsgEmailTaken)
	case errors.Is(err, core.ErrDuplicateUsername):
		core.BadRequest(w, MsgUsernameTaken)
	default:
		core.JSONError(w, err)
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, paramUserID)
	if err := uuid.Validate(id); err != nil {
		core.BadRequest(w, MsgInvalidUserID)
		return "", false
	}
	return id, true
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
