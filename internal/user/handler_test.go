// AngelaMos | 2026
// handler_test.go

package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/middleware"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/user"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/user/usertest"
)

// headerAuth trusts X-Test-User and X-Test-Role in place of a bearer token.
func headerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Test-User")
		if id == "" {
			core.Unauthorized(w, core.MsgUnauthorized)
			return
		}
		ctx := middleware.WithIdentity(r.Context(), &core.Identity{
			UserID: id,
			Role:   r.Header.Get("X-Test-Role"),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type userEnvelope struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	Data       json.RawMessage  `json:"data"`
	Errores    []string         `json:"errores"`
	Pagination *core.Pagination `json:"pagination"`
}

func newRouter(t *testing.T) (http.Handler, *usertest.Repository) {
	t.Helper()
	svc, repo := newService(t)
	r := chi.NewRouter()
	user.NewHandler(svc).RegisterRoutes(r, headerAuth, middleware.RequireAdmin)
	return r, repo
}

func do(
	t *testing.T,
	h http.Handler,
	method, path, body string,
	who *core.Identity,
) (*httptest.ResponseRecorder, userEnvelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if who != nil {
		req.Header.Set("X-Test-User", who.UserID)
		req.Header.Set("X-Test-Role", who.Role)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env userEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestGetProfile(t *testing.T) {
	h, _ := newRouter(t)

	rec, env := do(t, h, http.MethodGet, "/usuarios/perfil", "", identity(anaID, user.RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, user.MsgProfileFetched, env.Message)

	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "ana1", got["username"])
	assert.Equal(t, "ana1@example.com", got["correo"])
	assert.NotContains(t, got, "password_hash")
	assert.NotContains(t, got, "PasswordHash")

	rec, env = do(t, h, http.MethodGet, "/usuarios/perfil", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
}

func TestGetProfileDeletedAccount(t *testing.T) {
	h, _ := newRouter(t)

	rec, _ := do(t, h, http.MethodDelete, "/usuarios/"+luisID, "", identity(adminID, user.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, http.MethodGet, "/usuarios/perfil", "", identity(luisID, user.RoleUser))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, user.MsgUserNotFound, env.Message)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	h, _ := newRouter(t)

	rec, _ := do(t, h, http.MethodGet, "/usuarios/", "", identity(anaID, user.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := do(t, h, http.MethodGet, "/usuarios/?page=1&page_size=2&rol=user", "",
		identity(adminID, user.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.PageSize)

	var users []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 2)
}

func TestListUsersInvalidRole(t *testing.T) {
	h, _ := newRouter(t)

	rec, env := do(t, h, http.MethodGet, "/usuarios/?role=superuser", "",
		identity(adminID, user.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{user.MsgRoleInvalid}, env.Errores)
}

func TestGetUserByID(t *testing.T) {
	h, _ := newRouter(t)
	ana := identity(anaID, user.RoleUser)

	rec, env := do(t, h, http.MethodGet, "/usuarios/"+luisID, "", ana)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.MsgUserFetched, env.Message)

	rec, env = do(t, h, http.MethodGet, "/usuarios/not-a-uuid", "", ana)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, user.MsgInvalidUserID, env.Message)

	rec, _ = do(t, h, http.MethodGet, "/usuarios/0b8f6a52-7a43-4d59-9d55-1f1f7d1a0999", "", ana)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateUserHandler(t *testing.T) {
	h, repo := newRouter(t)
	ana := identity(anaID, user.RoleUser)

	rec, env := do(t, h, http.MethodPut, "/usuarios/"+anaID,
		`{"nombre":"Ana María","correo":"ANA.M@example.com"}`, ana)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	assert.Equal(t, user.MsgUserUpdated, env.Message)

	stored, ok := repo.Stored(anaID)
	require.True(t, ok)
	assert.Equal(t, "Ana María", stored.Name)
	assert.Equal(t, "ana.m@example.com", stored.Email)
}

func TestUpdateUserHandlerErrors(t *testing.T) {
	h, _ := newRouter(t)
	ana := identity(anaID, user.RoleUser)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "other user",
			path:       "/usuarios/" + luisID,
			body:       `{"name":"Luis Alberto"}`,
			wantStatus: http.StatusForbidden,
			wantMsg:    user.MsgUpdateForbidden,
		},
		{
			name:       "role change by non admin",
			path:       "/usuarios/" + anaID,
			body:       `{"rol":"admin"}`,
			wantStatus: http.StatusForbidden,
			wantMsg:    user.MsgRoleForbidden,
		},
		{
			name:       "email taken",
			path:       "/usuarios/" + anaID,
			body:       `{"email":"luis@example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    user.MsgEmailTaken,
		},
		{
			name:       "username taken",
			path:       "/usuarios/" + anaID,
			body:       `{"username":"admin"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    user.MsgUsernameTaken,
		},
		{
			name:       "empty body object",
			path:       "/usuarios/" + anaID,
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    core.MsgInvalidInput,
		},
		{
			name:       "invalid json",
			path:       "/usuarios/" + anaID,
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    core.MsgInvalidBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodPut, tt.path, tt.body, ana)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, env.Message)
			assert.False(t, env.Success)
		})
	}
}

func TestDeleteUserHandler(t *testing.T) {
	h, repo := newRouter(t)
	admin := identity(adminID, user.RoleAdmin)

	rec, _ := do(t, h, http.MethodDelete, "/usuarios/"+luisID, "", identity(anaID, user.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := do(t, h, http.MethodDelete, "/usuarios/"+rootID, "", admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, user.MsgDeleteForbidden, env.Message)

	rec, env = do(t, h, http.MethodDelete, "/usuarios/"+luisID, "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.MsgUserDeleted, env.Message)

	stored, _ := repo.Stored(luisID)
	assert.Equal(t, user.StateDeleted, stored.State)

	rec, _ = do(t, h, http.MethodDelete, "/usuarios/"+luisID, "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreUnavailable(t *testing.T) {
	h, repo := newRouter(t)
	repo.Err = core.WrapStoreError("get user", context.DeadlineExceeded)

	rec, env := do(t, h, http.MethodGet, "/usuarios/perfil", "", identity(anaID, user.RoleUser))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, core.MsgServiceUnavailable, env.Message)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
