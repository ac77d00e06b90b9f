// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	Purge(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	CountByRoleAndState(ctx context.Context) ([]RoleStateCount, error)
}

type repository struct {
	db      core.DBTX
	dialect core.Dialect
}

func NewRepository(db core.DBTX, dialect core.Dialect) Repository {
	return &repository{db: db, dialect: dialect}
}

const userColumns = `id, name, surname, email, username, password_hash, role,
	state, token_version, created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := r.db.Rebind(`
		INSERT INTO users (
			id, name, surname, email, username, password_hash, role,
			state, token_version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Surname,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.State,
		user.TokenVersion,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return r.writeError("create user", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "get user", "id", id)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return r.getOne(ctx, "get user by email", "email", email)
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	return r.getOne(ctx, "get user by username", "username", username)
}

// getOne only sees active users; column is always one of our constants.
func (r *repository) getOne(
	ctx context.Context,
	op, column, value string,
) (*User, error) {
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s = ? AND state = ?`, userColumns, column))

	var user User
	err := r.db.GetContext(ctx, &user, query, value, StateActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, core.WrapStoreError(op, err)
	}

	return &user, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email, excludeID string,
) (bool, error) {
	return r.exists(ctx, "check email exists", "email", email, excludeID)
}

func (r *repository) ExistsByUsername(
	ctx context.Context,
	username, excludeID string,
) (bool, error) {
	return r.exists(ctx, "check username exists", "username", username, excludeID)
}

func (r *repository) exists(
	ctx context.Context,
	op, column, value, excludeID string,
) (bool, error) {
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s = ? AND state = ?",
		column,
	)
	args := []any{value, StateActive}

	if excludeID != "" {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return false, core.WrapStoreError(op, err)
	}

	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := r.db.Rebind(`
		UPDATE users
		SET name = ?, surname = ?, email = ?, username = ?,
		    password_hash = ?, role = ?, token_version = ?, updated_at = ?
		WHERE id = ? AND state = ?`)

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Surname,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.TokenVersion,
		user.UpdatedAt,
		user.ID,
		StateActive,
	)
	if err != nil {
		return r.writeError("update user", err)
	}

	return requireAffected("update user", result)
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE users
		SET password_hash = ?, updated_at = ?
		WHERE id = ? AND state = ?`)

	result, err := r.db.ExecContext(ctx, query, passwordHash, at, id, StateActive)
	if err != nil {
		return core.WrapStoreError("update password", err)
	}

	return requireAffected("update password", result)
}

func (r *repository) SoftDelete(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE users
		SET state = ?, deleted_at = ?, updated_at = ?,
		    token_version = token_version + 1
		WHERE id = ? AND state = ?`)

	result, err := r.db.ExecContext(ctx, query,
		StateDeleted,
		at,
		at,
		id,
		StateActive,
	)
	if err != nil {
		return core.WrapStoreError("delete user", err)
	}

	return requireAffected("delete user", result)
}

// Purge removes the row outright. Only used to undo an account whose
// registration could not be completed.
func (r *repository) Purge(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM users WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return core.WrapStoreError("purge user", err)
	}

	return requireAffected("purge user", result)
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"state = ?"}
	args := []any{StateActive}

	if params.Search != "" {
		conditions = append(conditions,
			"(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!'"+
				" OR LOWER(username) LIKE ? ESCAPE '!')")
		pattern := "%" + escapeLike(strings.ToLower(params.Search)) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if params.Role != "" {
		conditions = append(conditions, "role = ?")
		args = append(args, params.Role)
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := r.db.Rebind(
		"SELECT COUNT(*) FROM users WHERE " + whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, core.WrapStoreError("count users", err)
	}

	page, pageArgs := r.dialect.Paginate(params.PageSize, params.Offset())
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC, id
		%s`, userColumns, whereClause, page))

	args = append(args, pageArgs...)

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, core.WrapStoreError("list users", err)
	}

	return users, total, nil
}

func (r *repository) CountByRoleAndState(
	ctx context.Context,
) ([]RoleStateCount, error) {
	query := `
		SELECT role, state, COUNT(*) AS total
		FROM users
		GROUP BY role, state`

	var counts []RoleStateCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, core.WrapStoreError("count users by role", err)
	}

	return counts, nil
}

func (r *repository) writeError(op string, err error) error {
	if dup, ok := core.TranslateDuplicate(r.dialect, err); ok {
		return fmt.Errorf("%s: %w", op, dup)
	}
	return core.WrapStoreError(op, err)
}

func requireAffected(op string, result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return core.WrapStoreError(op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

// escapeLike escapes with '!' which every supported backend accepts. '['
// is a wildcard on SQL Server.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "!", "!!")
	s = strings.ReplaceAll(s, "%", "!%")
	s = strings.ReplaceAll(s, "_", "!_")
	s = strings.ReplaceAll(s, "[", "![")
	return s
}
