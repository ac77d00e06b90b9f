// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	rules  *Rules
	now    func() time.Time
}

func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		rules:  NewRules(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new active account. The store's unique indexes are the
// final word on email and username uniqueness.
func (s *Service) Create(ctx context.Context, in NewUser) (*User, error) {
	now := s.now()

	role := in.Role
	if role == "" {
		role = RoleUser
	}

	user := &User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Email:        NormalizeEmail(in.Email),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: in.PasswordHash,
		Role:         role,
		State:        StateActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Purge hard deletes an account created moments ago by a flow that then
// failed, so the email and username are free for a retry.
func (s *Service) Purge(ctx context.Context, id string) error {
	return s.repo.Purge(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

func (s *Service) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}

func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, NormalizeEmail(email), "")
}

func (s *Service) UsernameExists(
	ctx context.Context,
	username string,
) (bool, error) {
	return s.repo.ExistsByUsername(ctx, strings.TrimSpace(username), "")
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash, s.now())
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetMe(
	ctx context.Context,
	identity *core.Identity,
) (*User, error) {
	if identity == nil || identity.UserID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, identity.UserID)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Search = strings.TrimSpace(params.Search)

	if params.Role != "" {
		ve := &core.ValidationError{}
		s.rules.Role(ve, params.Role)
		if err := ve.Err(); err != nil {
			return nil, 0, err
		}
	}

	return s.repo.List(ctx, params)
}

// UpdateUser applies a partial update on behalf of actor. Only the owner or
// an admin may update; only an admin may change a role. Changing the
// password or role invalidates every token issued before.
func (s *Service) UpdateUser(
	ctx context.Context,
	actor *core.Identity,
	id string,
	in UpdateInput,
) (*User, error) {
	if err := core.Authorize(actor); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if actor.UserID != id && !actor.IsAdmin() {
		return nil, core.ForbiddenError(MsgUpdateForbidden)
	}

	if in.Role != nil && !actor.IsAdmin() {
		return nil, core.ForbiddenError(MsgRoleForbidden)
	}

	if err := s.validateUpdate(in); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyUpdate(ctx, user, in); err != nil {
		return nil, err
	}

	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) validateUpdate(in UpdateInput) error {
	ve := &core.ValidationError{}

	if in.IsEmpty() {
		ve.Add(MsgNothingToUpdate)
		return ve
	}

	if in.Name != nil {
		s.rules.Name(ve, *in.Name)
	}
	if in.Surname != nil {
		s.rules.Surname(ve, *in.Surname)
	}
	if in.Email != nil {
		s.rules.Email(ve, *in.Email)
	}
	if in.Username != nil {
		s.rules.Username(ve, *in.Username)
	}
	if in.Password != nil {
		s.rules.Password(ve, *in.Password)
	}
	if in.Role != nil {
		s.rules.Role(ve, *in.Role)
	}

	return ve.Err()
}

func (s *Service) applyUpdate(
	ctx context.Context,
	user *User,
	in UpdateInput,
) error {
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}

	if in.Surname != nil {
		user.Surname = strings.TrimSpace(*in.Surname)
	}

	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email != user.Email {
			taken, err := s.repo.ExistsByEmail(ctx, email, user.ID)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("update user: %w", core.ErrDuplicateEmail)
			}
			user.Email = email
		}
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username != user.Username {
			taken, err := s.repo.ExistsByUsername(ctx, username, user.ID)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("update user: %w", core.ErrDuplicateUsername)
			}
			user.Username = username
		}
	}

	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		user.PasswordHash = hash
		user.TokenVersion++
	}

	if in.Role != nil && *in.Role != user.Role {
		user.Role = *in.Role
		user.TokenVersion++
	}

	return nil
}

// DeleteUser soft deletes id. Admins may not delete other admins.
func (s *Service) DeleteUser(
	ctx context.Context,
	actor *core.Identity,
	id string,
) error {
	if err := s.CanDeleteUser(ctx, actor, id); err != nil {
		return err
	}

	return s.repo.SoftDelete(ctx, id, s.now())
}

func (s *Service) CanDeleteUser(
	ctx context.Context,
	actor *core.Identity,
	targetID string,
) error {
	if err := core.Authorize(actor); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if actor.UserID == targetID {
		return nil
	}

	if !actor.IsAdmin() {
		return core.ForbiddenError(MsgDeleteForbidden)
	}

	if target.IsAdmin() {
		return core.ForbiddenError(MsgDeleteForbidden)
	}

	return nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByRoleAndState(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, c := range counts {
		stats.Total += c.Total

		if c.State != StateActive {
			stats.Deleted += c.Total
			continue
		}

		stats.Active += c.Total
		if c.Role == RoleAdmin {
			stats.Admins += c.Total
		} else {
			stats.Users += c.Total
		}
	}

	return stats, nil
}
