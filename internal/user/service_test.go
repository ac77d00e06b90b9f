// AngelaMos | 2026
// service_test.go

package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/user"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/user/usertest"
)

const (
	anaID   = "0b8f6a52-7a43-4d59-9d55-1f1f7d1a0001"
	luisID  = "0b8f6a52-7a43-4d59-9d55-1f1f7d1a0002"
	adminID = "0b8f6a52-7a43-4d59-9d55-1f1f7d1a0003"
	rootID  = "0b8f6a52-7a43-4d59-9d55-1f1f7d1a0004"
)

func strPtr(s string) *string { return &s }

func identity(id, role string) *core.Identity {
	return &core.Identity{UserID: id, Role: role}
}

func newService(t *testing.T) (*user.Service, *usertest.Repository) {
	t.Helper()
	repo := usertest.NewRepository(
		usertest.ActiveUser(anaID, "ana1", user.RoleUser),
		usertest.ActiveUser(luisID, "luis", user.RoleUser),
		usertest.ActiveUser(adminID, "admin", user.RoleAdmin),
		usertest.ActiveUser(rootID, "root", user.RoleAdmin),
	)
	return user.NewService(repo, usertest.Hasher{}), repo
}

func TestCreateNormalizesInput(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(context.Background(), user.NewUser{
		Name:         "  Marta ",
		Email:        " Marta@Example.COM ",
		Username:     "marta_1",
		PasswordHash: "hashed:secret1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Marta", created.Name)
	assert.Equal(t, "marta@example.com", created.Email)
	assert.Equal(t, user.RoleUser, created.Role)
	assert.Equal(t, user.StateActive, created.State)
	assert.False(t, created.CreatedAt.IsZero())

	exists, err := svc.EmailExists(context.Background(), "MARTA@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateDuplicateFromStore(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), user.NewUser{
		Name:     "Otra Ana",
		Email:    "ana1@example.com",
		Username: "otra",
	})
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)
}

func TestGetMe(t *testing.T) {
	svc, _ := newService(t)

	me, err := svc.GetMe(context.Background(), identity(anaID, user.RoleUser))
	require.NoError(t, err)
	assert.Equal(t, "ana1", me.Username)

	_, err = svc.GetMe(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestUpdateUserSelf(t *testing.T) {
	svc, _ := newService(t)

	updated, err := svc.UpdateUser(
		context.Background(),
		identity(anaID, user.RoleUser),
		anaID,
		user.UpdateInput{Name: strPtr("Ana María"), Surname: strPtr("López")},
	)
	require.NoError(t, err)

	assert.Equal(t, "Ana María", updated.Name)
	assert.Equal(t, "López", updated.Surname)
	assert.Equal(t, 0, updated.TokenVersion)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestUpdateUserPermissions(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.UpdateUser(ctx, identity(anaID, user.RoleUser), luisID,
		user.UpdateInput{Name: strPtr("Luis Alberto")})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.UpdateUser(ctx, identity(anaID, user.RoleUser), anaID,
		user.UpdateInput{Role: strPtr(user.RoleAdmin)})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.UpdateUser(ctx, nil, anaID,
		user.UpdateInput{Name: strPtr("Ana")})
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	updated, err := svc.UpdateUser(ctx, identity(adminID, user.RoleAdmin), luisID,
		user.UpdateInput{Role: strPtr(user.RoleAdmin)})
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, updated.Role)
	assert.Equal(t, 1, updated.TokenVersion)
}

func TestUpdateUserPasswordBumpsTokenVersion(t *testing.T) {
	svc, repo := newService(t)

	_, err := svc.UpdateUser(
		context.Background(),
		identity(anaID, user.RoleUser),
		anaID,
		user.UpdateInput{Password: strPtr("nuevo-secreto")},
	)
	require.NoError(t, err)

	stored, ok := repo.Stored(anaID)
	require.True(t, ok)
	assert.Equal(t, "hashed:nuevo-secreto", stored.PasswordHash)
	assert.Equal(t, 1, stored.TokenVersion)
}

func TestUpdateUserDuplicates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	ana := identity(anaID, user.RoleUser)

	_, err := svc.UpdateUser(ctx, ana, anaID,
		user.UpdateInput{Email: strPtr("LUIS@example.com")})
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)

	_, err = svc.UpdateUser(ctx, ana, anaID,
		user.UpdateInput{Username: strPtr("luis")})
	assert.ErrorIs(t, err, core.ErrDuplicateUsername)

	updated, err := svc.UpdateUser(ctx, ana, anaID,
		user.UpdateInput{Email: strPtr("ana1@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "ana1@example.com", updated.Email)
}

func TestUpdateUserValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	ana := identity(anaID, user.RoleUser)

	_, err := svc.UpdateUser(ctx, ana, anaID, user.UpdateInput{})
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{user.MsgNothingToUpdate}, ve.Errors)

	_, err = svc.UpdateUser(ctx, ana, anaID, user.UpdateInput{
		Name:     strPtr("A"),
		Email:    strPtr("no-es-correo"),
		Username: strPtr("a!"),
		Password: strPtr("123"),
	})
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		user.MsgNameTooShort,
		user.MsgEmailInvalid,
		user.MsgUsernameTooShort,
		user.MsgUsernameCharset,
		user.MsgPasswordTooShort,
	}, ve.Errors)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUpdateUserNotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.UpdateUser(
		context.Background(),
		identity(adminID, user.RoleAdmin),
		"0b8f6a52-7a43-4d59-9d55-1f1f7d1a0999",
		user.UpdateInput{Name: strPtr("Nadie")},
	)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	admin := identity(adminID, user.RoleAdmin)

	err := svc.DeleteUser(ctx, identity(anaID, user.RoleUser), luisID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = svc.DeleteUser(ctx, admin, rootID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, svc.DeleteUser(ctx, admin, luisID))

	stored, ok := repo.Stored(luisID)
	require.True(t, ok)
	assert.Equal(t, user.StateDeleted, stored.State)
	assert.NotNil(t, stored.DeletedAt)
	assert.Equal(t, 1, stored.TokenVersion)

	_, err = svc.GetUser(ctx, luisID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.DeleteUser(ctx, admin, luisID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeletedUserFreesEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.DeleteUser(ctx, identity(adminID, user.RoleAdmin), luisID))

	_, err := svc.Create(ctx, user.NewUser{
		Name:     "Luis Nuevo",
		Email:    "luis@example.com",
		Username: "luis",
	})
	assert.NoError(t, err)
}

func TestListUsers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	users, total, err := svc.ListUsers(ctx, user.ListUsersParams{Role: user.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, users, 2)

	users, total, err = svc.ListUsers(ctx, user.ListUsersParams{Search: " LUI "})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, luisID, users[0].ID)

	_, _, err = svc.ListUsers(ctx, user.ListUsersParams{Role: "superuser"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	users, total, err = svc.ListUsers(ctx, user.ListUsersParams{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, users, 1)
}

func TestStats(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.DeleteUser(ctx, identity(adminID, user.RoleAdmin), luisID))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.Stats{
		Total:   4,
		Active:  3,
		Deleted: 1,
		Admins:  2,
		Users:   1,
	}, *stats)
}
