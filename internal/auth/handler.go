// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/middleware"
)

const (
	MsgRegistered          = "Usuario registrado exitosamente"
	MsgLoggedIn            = "Inicio de sesión exitoso"
	MsgRefreshed           = "Token renovado exitosamente"
	MsgLoggedOut           = "Sesión cerrada exitosamente"
	MsgLoggedOutAll        = "Todas las sesiones fueron cerradas"
	MsgEmailRegistered     = "El correo electrónico ya está registrado"
	MsgUsernameTaken       = "El nombre de usuario ya está en uso"
	MsgInvalidCredentials  = "Credenciales inválidas"
	MsgRefreshTokenMissing = "Se requiere el token de actualización"
	MsgLogoutForbidden     = "No puedes cerrar la sesión de otro usuario"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the auth endpoints. limiter guards the public
// credential endpoints; it may be nil.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter)
			}
			r.Post("/registro", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
		})

		r.With(authenticator).Post("/logout", h.Logout)
		r.With(authenticator).Post("/logout-all", h.LogoutAll)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.MsgInvalidBody)
		return
	}

	result, err := h.service.Register(r.Context(), req.Input(), clientMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateEmail):
			core.BadRequest(w, MsgEmailRegistered)
		case errors.Is(err, core.ErrDuplicateUsername):
			core.BadRequest(w, MsgUsernameTaken)
		default:
			core.JSONError(w, err)
		}
		return
	}

	core.Created(w, MsgRegistered, ToAuthResponse(result))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.MsgInvalidBody)
		return
	}

	result, err := h.service.Login(r.Context(), req.Input(), clientMeta(r))
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			core.Unauthorized(w, MsgInvalidCredentials)
			return
		}
		core.JSONError(w, err)
		return
	}

	core.OK(w, MsgLoggedIn, ToAuthResponse(result))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, core.MsgInvalidBody)
		return
	}

	token := req.Token()
	if token == "" {
		core.BadRequest(w, core.MsgInvalidInput, MsgRefreshTokenMissing)
		return
	}

	result, err := h.service.Refresh(r.Context(), token, clientMeta(r))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, MsgRefreshed, RefreshResponse{Tokens: result.Tokens})
}

// Logout accepts an optional refresh token in the body.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, core.MsgInvalidBody)
			return
		}
	}

	err := h.service.Logout(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		req.Token(),
	)
	if err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, MsgLogoutForbidden)
			return
		}
		core.JSONError(w, err)
		return
	}

	core.Message(w, http.StatusOK, MsgLoggedOut)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	err := h.service.LogoutAll(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, http.StatusOK, MsgLoggedOutAll)
}

func clientMeta(r *http.Request) ClientMeta {
	return ClientMeta{
		UserAgent: r.UserAgent(),
		IPAddress: middleware.ClientIP(r),
	}
}
