// AngelaMos | 2026
// memory.go

// Package authtest provides an in-memory auth.Repository for tests.
package authtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/auth"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
)

// Repository keeps refresh sessions in a map. WithTx restores the previous
// state when fn fails.
type Repository struct {
	mu     sync.Mutex
	tokens map[string]*auth.RefreshToken
	Err    error
}

func NewRepository() *Repository {
	return &Repository{tokens: make(map[string]*auth.RefreshToken)}
}

// Session returns a copy of the stored row for id.
func (r *Repository) Session(id string) (*auth.RefreshToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[id]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}

// Sessions returns copies of every stored row for userID.
func (r *Repository) Sessions(userID string) []auth.RefreshToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []auth.RefreshToken
	for _, t := range r.tokens {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out
}

func (r *Repository) Create(_ context.Context, token *auth.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.tokens[token.ID]; ok {
		return fmt.Errorf("create refresh token: %w", core.ErrDuplicateKey)
	}
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *Repository) FindByID(
	_ context.Context,
	id string,
) (*auth.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	t, ok := r.tokens[id]
	if !ok {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (r *Repository) MarkUsed(
	_ context.Context,
	id, replacedByID string,
	at time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	t, ok := r.tokens[id]
	if !ok || t.UsedAt != nil || t.RevokedAt != nil {
		return fmt.Errorf("mark refresh token as used: %w", core.ErrNotFound)
	}
	t.UsedAt = &at
	t.ReplacedByID = &replacedByID
	return nil
}

func (r *Repository) RevokeByID(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	t, ok := r.tokens[id]
	if !ok || t.RevokedAt != nil {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}
	t.RevokedAt = &at
	return nil
}

func (r *Repository) RevokeByFamilyID(
	_ context.Context,
	familyID string,
	at time.Time,
) error {
	return r.revokeWhere(func(t *auth.RefreshToken) bool {
		return t.FamilyID == familyID
	}, at)
}

func (r *Repository) RevokeAllForUser(
	_ context.Context,
	userID string,
	at time.Time,
) error {
	return r.revokeWhere(func(t *auth.RefreshToken) bool {
		return t.UserID == userID
	}, at)
}

func (r *Repository) revokeWhere(match func(*auth.RefreshToken) bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	for _, t := range r.tokens {
		if t.RevokedAt == nil && match(t) {
			t.RevokedAt = &at
		}
	}
	return nil
}

func (r *Repository) DeleteExpired(
	_ context.Context,
	cutoff time.Time,
) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return 0, r.Err
	}
	var removed int64
	for id, t := range r.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(r.tokens, id)
			removed++
		}
	}
	return removed, nil
}

func (r *Repository) WithTx(
	_ context.Context,
	fn func(repo auth.Repository) error,
) error {
	snapshot := r.snapshot()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.tokens = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *Repository) snapshot() map[string]*auth.RefreshToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]*auth.RefreshToken, len(r.tokens))
	for id, t := range r.tokens {
		cp := *t
		out[id] = &cp
	}
	return out
}
