// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	MarkUsed(ctx context.Context, id, replacedByID string, at time.Time) error
	RevokeByID(ctx context.Context, id string, at time.Time) error
	RevokeByFamilyID(ctx context.Context, familyID string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}

type repository struct {
	db core.DBTX
	tx core.TxRunner
}

// NewRepository binds to db. When tx is nil WithTx runs fn without a
// transaction.
func NewRepository(db core.DBTX, tx core.TxRunner) Repository {
	return &repository{db: db, tx: tx}
}

const refreshTokenColumns = `id, user_id, family_id, expires_at, created_at,
	used_at, revoked_at, replaced_by_id, user_agent, ip_address`

func (r *repository) WithTx(
	ctx context.Context,
	fn func(repo Repository) error,
) error {
	if r.tx == nil {
		return fn(r)
	}

	return r.tx.InTx(ctx, func(tx core.DBTX) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	query := r.db.Rebind(`
		INSERT INTO refresh_tokens (
			id, user_id, family_id, expires_at, created_at,
			user_agent, ip_address
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.FamilyID,
		token.ExpiresAt,
		token.CreatedAt,
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return core.WrapStoreError("create refresh token", err)
	}

	return nil
}

func (r *repository) FindByID(
	ctx context.Context,
	id string,
) (*RefreshToken, error) {
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s
		FROM refresh_tokens
		WHERE id = ?`, refreshTokenColumns))

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, core.WrapStoreError("find refresh token", err)
	}

	return &token, nil
}

// MarkUsed only succeeds for a token nobody has used yet, so two concurrent
// refreshes of the same token cannot both win.
func (r *repository) MarkUsed(
	ctx context.Context,
	id, replacedByID string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE refresh_tokens
		SET used_at = ?, replaced_by_id = ?
		WHERE id = ? AND used_at IS NULL AND revoked_at IS NULL`)

	result, err := r.db.ExecContext(ctx, query, at, replacedByID, id)
	if err != nil {
		return core.WrapStoreError("mark refresh token as used", err)
	}

	return requireAffected("mark refresh token as used", result)
}

func (r *repository) RevokeByID(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE refresh_tokens
		SET revoked_at = ?
		WHERE id = ? AND revoked_at IS NULL`)

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return core.WrapStoreError("revoke refresh token", err)
	}

	return requireAffected("revoke refresh token", result)
}

func (r *repository) RevokeByFamilyID(
	ctx context.Context,
	familyID string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE refresh_tokens
		SET revoked_at = ?
		WHERE family_id = ? AND revoked_at IS NULL`)

	if _, err := r.db.ExecContext(ctx, query, at, familyID); err != nil {
		return core.WrapStoreError("revoke token family", err)
	}

	return nil
}

func (r *repository) RevokeAllForUser(
	ctx context.Context,
	userID string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE refresh_tokens
		SET revoked_at = ?
		WHERE user_id = ? AND revoked_at IS NULL`)

	if _, err := r.db.ExecContext(ctx, query, at, userID); err != nil {
		return core.WrapStoreError("revoke all user tokens", err)
	}

	return nil
}

func (r *repository) DeleteExpired(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	query := r.db.Rebind(`
		DELETE FROM refresh_tokens
		WHERE expires_at < ?`)

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, core.WrapStoreError("delete expired tokens", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return rows, nil
}

func requireAffected(op string, result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
