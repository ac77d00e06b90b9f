// AngelaMos | 2026
// memory.go

// Package usertest provides an in-memory user.Repository for tests that
// exercise the services and handlers without a database.
package usertest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/user"
)

// Repository enforces the same active-only uniqueness as the unique
// indexes. Err, when set, is returned by every call.
type Repository struct {
	mu    sync.Mutex
	users map[string]*user.User
	Err   error
}

func NewRepository(seed ...*user.User) *Repository {
	r := &Repository{users: make(map[string]*user.User)}
	for _, u := range seed {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

// Stored returns the row for id regardless of state.
func (r *Repository) Stored(id string) (*user.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, false
	}
	cp := *u
	return &cp, true
}

func (r *Repository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	if err := r.checkUnique(u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *Repository) checkUnique(u *user.User) error {
	for _, other := range r.users {
		if other.ID == u.ID || other.State != user.StateActive {
			continue
		}
		if other.Email == u.Email {
			return core.ErrDuplicateEmail
		}
		if other.Username == u.Username {
			return core.ErrDuplicateUsername
		}
	}
	return nil
}

func (r *Repository) find(match func(*user.User) bool) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if u.State == user.StateActive && match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (r *Repository) GetByID(_ context.Context, id string) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.ID == id })
}

func (r *Repository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.Email == email })
}

func (r *Repository) GetByUsername(
	_ context.Context,
	username string,
) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.Username == username })
}

func (r *Repository) ExistsByEmail(
	_ context.Context,
	email, excludeID string,
) (bool, error) {
	return r.exists(func(u *user.User) bool {
		return u.Email == email && u.ID != excludeID
	})
}

func (r *Repository) ExistsByUsername(
	_ context.Context,
	username, excludeID string,
) (bool, error) {
	return r.exists(func(u *user.User) bool {
		return u.Username == username && u.ID != excludeID
	})
}

func (r *Repository) exists(match func(*user.User) bool) (bool, error) {
	_, err := r.find(match)
	switch {
	case err == nil:
		return true, nil
	case r.Err != nil:
		return false, err
	default:
		return false, nil
	}
}

func (r *Repository) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	stored, ok := r.users[u.ID]
	if !ok || stored.State != user.StateActive {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err := r.checkUnique(u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *Repository) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
	at time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	stored, ok := r.users[id]
	if !ok || stored.State != user.StateActive {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	stored.PasswordHash = passwordHash
	stored.UpdatedAt = at
	return nil
}

func (r *Repository) SoftDelete(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	stored, ok := r.users[id]
	if !ok || stored.State != user.StateActive {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}
	stored.State = user.StateDeleted
	stored.DeletedAt = &at
	stored.UpdatedAt = at
	stored.TokenVersion++
	return nil
}

func (r *Repository) Purge(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("purge user: %w", core.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

func (r *Repository) List(
	_ context.Context,
	params user.ListUsersParams,
) ([]user.User, int, error) {
	params.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, 0, r.Err
	}

	search := strings.ToLower(params.Search)
	var matched []user.User
	for _, u := range r.users {
		if u.State != user.StateActive {
			continue
		}
		if params.Role != "" && u.Role != params.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Username), search) {
			continue
		}
		matched = append(matched, *u)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)
	return matched[start:end], total, nil
}

func (r *Repository) CountByRoleAndState(
	_ context.Context,
) ([]user.RoleStateCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	counts := map[[2]string]int{}
	for _, u := range r.users {
		counts[[2]string{u.Role, u.State}]++
	}

	out := make([]user.RoleStateCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, user.RoleStateCount{Role: k[0], State: k[1], Total: n})
	}
	return out, nil
}

// Hasher prefixes instead of hashing so tests stay fast and readable.
type Hasher struct{}

func (Hasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

// ActiveUser builds a stored active account with sensible defaults.
func ActiveUser(id, username, role string) *user.User {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &user.User{
		ID:           id,
		Name:         strings.ToUpper(username[:1]) + username[1:],
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "hashed:secret1",
		Role:         role,
		State:        user.StateActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
