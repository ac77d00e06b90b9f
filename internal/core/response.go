// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
)

const (
	MsgUnauthorized       = "Acceso denegado. No se proporcionó un token válido."
	MsgTokenInvalid       = "Token inválido o expirado."
	MsgForbidden          = "No tienes permisos para realizar esta acción"
	MsgInvalidInput       = "Datos de entrada inválidos"
	MsgInvalidBody        = "El cuerpo de la solicitud no es un JSON válido"
	MsgDuplicate          = "El registro ya existe"
	MsgInternal           = "Error interno del servidor."
	MsgServiceUnavailable = "Servicio no disponible temporalmente, intenta de nuevo más tarde."
	MsgTooManyRequests    = "Demasiadas solicitudes desde esta IP, intenta de nuevo más tarde."
)

var exposeInternal atomic.Bool

// ExposeInternalErrors toggles echoing raw error text in 500 responses.
func ExposeInternalErrors(expose bool) {
	exposeInternal.Store(expose)
}

type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Errores    []string    `json:"errores,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(body)
}

func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Response{Success: status < http.StatusBadRequest, Message: message})
}

func Paginated(
	w http.ResponseWriter,
	message string,
	data any,
	page, pageSize, total int,
) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	JSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func Fail(w http.ResponseWriter, status int, message string, errores ...string) {
	JSON(w, status, Response{Success: false, Message: message, Errores: errores})
}

func BadRequest(w http.ResponseWriter, message string, errores ...string) {
	Fail(w, http.StatusBadRequest, message, errores...)
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = MsgUnauthorized
	}
	Fail(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = MsgForbidden
	}
	Fail(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Fail(w, http.StatusNotFound, message)
}

func ServiceUnavailable(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "5")
	Fail(w, http.StatusServiceUnavailable, MsgServiceUnavailable)
}

// InternalServerError logs err and writes a 500, or a 503 when the cause is
// a store connectivity failure.
func InternalServerError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrServiceUnavailable) {
		slog.Warn("store unavailable", "error", err)
		ServiceUnavailable(w)
		return
	}

	slog.Error("internal server error", "error", err)

	if exposeInternal.Load() && err != nil {
		Fail(w, http.StatusInternalServerError, MsgInternal, err.Error())
		return
	}
	Fail(w, http.StatusInternalServerError, MsgInternal)
}

// JSONError writes err using its AppError status and message, or the
// taxonomy default for known sentinels.
func JSONError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		Fail(w, appErr.StatusCode, appErr.Message, appErr.Details...)
		return
	}

	var valErr *ValidationError
	switch {
	case errors.As(err, &valErr):
		BadRequest(w, MsgInvalidInput, valErr.Errors...)
	case errors.Is(err, ErrInvalidInput):
		BadRequest(w, MsgInvalidInput)
	case errors.Is(err, ErrDuplicateKey):
		BadRequest(w, MsgDuplicate)
	case IsTokenError(err):
		Unauthorized(w, MsgTokenInvalid)
	case errors.Is(err, ErrUnauthorized):
		Unauthorized(w, "")
	case errors.Is(err, ErrForbidden):
		Forbidden(w, "")
	default:
		InternalServerError(w, err)
	}
}
