// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/user"
)

const (
	blacklistPrefix  = "blacklist:"
	sessionRetention = 24 * time.Hour
	tokenTypeBearer  = "Bearer"
)

// UserStore is the slice of the user service the auth flows need.
type UserStore interface {
	Create(ctx context.Context, in user.NewUser) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	Purge(ctx context.Context, id string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	VerifyTimingSafe(password string, encodedHash *string) bool
	VerifyWithRehash(password string, encodedHash *string) (bool, string)
}

// Blacklist records revoked access token ids until they expire.
type Blacklist interface {
	MarkUntil(ctx context.Context, key string, until time.Time) error
	IsMarked(ctx context.Context, key string) (bool, error)
}

type Service struct {
	repo      Repository
	jwt       *JWTManager
	users     UserStore
	hasher    PasswordHasher
	blacklist Blacklist
	rules     *user.Rules
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	users UserStore,
	hasher PasswordHasher,
	blacklist Blacklist,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:      repo,
		jwt:       jwt,
		users:     users,
		hasher:    hasher,
		blacklist: blacklist,
		rules:     user.NewRules(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register validates every field, rejects taken emails and usernames and
// opens a first session for the new account. The account is removed again
// when that session cannot be stored.
func (s *Service) Register(
	ctx context.Context,
	in RegisterInput,
	meta ClientMeta,
) (*AuthResult, error) {
	ve := &core.ValidationError{}
	s.rules.Name(ve, in.Name)
	if in.Surname != "" {
		s.rules.Surname(ve, in.Surname)
	}
	s.rules.Email(ve, in.Email)
	s.rules.Password(ve, in.Password)
	s.rules.Username(ve, in.Username)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("register: %w", core.ErrDuplicateEmail)
	}

	taken, err = s.users.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("register: %w", core.ErrDuplicateUsername)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, user.NewUser{
		Name:         in.Name,
		Surname:      in.Surname,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: passwordHash,
		Role:         user.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.openSession(ctx, created, meta)
	if err != nil {
		s.discardAccount(ctx, created.ID)
		return nil, err
	}

	return result, nil
}

// discardAccount undoes a registration whose first session could not be
// stored, so the same email and username can register again.
func (s *Service) discardAccount(ctx context.Context, userID string) {
	err := s.users.Purge(context.WithoutCancel(ctx), userID)
	if err != nil {
		s.logger.Error("discard account after failed registration",
			"user_id", userID,
			"error", err,
		)
		return
	}
	s.logger.Warn("registration rolled back", "user_id", userID)
}

// Login never tells an unknown account apart from a wrong password.
func (s *Service) Login(
	ctx context.Context,
	in LoginInput,
	meta ClientMeta,
) (*AuthResult, error) {
	ve := &core.ValidationError{}
	if in.Email == "" && in.Username == "" {
		ve.Add(user.MsgIdentifierMissing)
	}
	if in.Password == "" {
		ve.Add(user.MsgPasswordRequired)
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	var (
		account *user.User
		err     error
	)
	if in.Email != "" {
		account, err = s.users.GetByEmail(ctx, in.Email)
	} else {
		account, err = s.users.GetByUsername(ctx, in.Username)
	}
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.hasher.VerifyTimingSafe(in.Password, nil)
			return nil, fmt.Errorf("login: %w", core.ErrInvalidCredentials)
		}
		return nil, err
	}

	valid, newHash := s.hasher.VerifyWithRehash(in.Password, &account.PasswordHash)
	if !valid {
		return nil, fmt.Errorf("login: %w", core.ErrInvalidCredentials)
	}

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, account.ID, newHash); err != nil {
			s.logger.Warn("password rehash failed",
				"user_id", account.ID,
				"error", err,
			)
		}
	}

	return s.openSession(ctx, account, meta)
}

// Refresh rotates a refresh session. Every failure is reported as an
// invalid token; the reason only reaches the log. Presenting a token that
// was already rotated revokes its whole family.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	meta ClientMeta,
) (*AuthResult, error) {
	claims, err := s.jwt.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, s.rejectRefresh(core.TokenErrorKind(err), err)
	}

	session, err := s.repo.FindByID(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, s.rejectRefresh("unknown_session", err)
		}
		return nil, err
	}

	now := s.now()

	switch {
	case session.UserID != claims.UserID:
		return nil, s.rejectRefresh("subject_mismatch", nil)
	case session.IsRevoked():
		return nil, s.rejectRefresh("revoked", nil)
	case session.IsUsed():
		s.revokeFamily(ctx, session.FamilyID, "reuse")
		return nil, s.rejectRefresh("reuse", nil)
	case session.IsExpired(now):
		return nil, s.rejectRefresh("expired", nil)
	}

	account, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, s.rejectRefresh("user_inactive", err)
		}
		return nil, err
	}

	if claims.Version < account.TokenVersion {
		s.revokeFamily(ctx, session.FamilyID, "stale_version")
		return nil, s.rejectRefresh("stale_version", nil)
	}

	var result *AuthResult
	err = s.repo.WithTx(ctx, func(repo Repository) error {
		next, issued, err := s.issuePair(account, session.FamilyID, meta)
		if err != nil {
			return err
		}

		if err := repo.MarkUsed(ctx, session.ID, next.ID, now); err != nil {
			return err
		}

		if err := repo.Create(ctx, next); err != nil {
			return err
		}

		result = issued
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.revokeFamily(ctx, session.FamilyID, "concurrent_reuse")
			return nil, s.rejectRefresh("concurrent_reuse", err)
		}
		return nil, err
	}

	return result, nil
}

// Logout revokes the presented access token and, when given, the refresh
// session it came with. A refresh token owned by someone else is forbidden.
func (s *Service) Logout(
	ctx context.Context,
	identity *core.Identity,
	refreshToken string,
) error {
	if err := core.Authorize(identity); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if s.blacklist != nil && identity.TokenID != "" {
		err := s.blacklist.MarkUntil(
			ctx,
			blacklistPrefix+identity.TokenID,
			identity.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}

	if refreshToken == "" {
		return nil
	}

	claims, err := s.jwt.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.logger.Debug("logout with unusable refresh token",
			"kind", core.TokenErrorKind(err),
			"user_id", identity.UserID,
		)
		return nil
	}

	if claims.UserID != identity.UserID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	err = s.repo.RevokeByID(ctx, claims.TokenID, s.now())
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke refresh session: %w", err)
	}

	return nil
}

// LogoutAll revokes the presented access token and every refresh session
// the caller holds.
func (s *Service) LogoutAll(ctx context.Context, identity *core.Identity) error {
	if err := s.Logout(ctx, identity, ""); err != nil {
		return err
	}

	if err := s.repo.RevokeAllForUser(ctx, identity.UserID, s.now()); err != nil {
		return fmt.Errorf("revoke all sessions: %w", err)
	}

	return nil
}

// Authenticate resolves an access token to the caller. Blacklisted tokens
// and tokens older than the account's token version are revoked; when the
// blacklist cannot be reached the request fails rather than passes.
func (s *Service) Authenticate(
	ctx context.Context,
	accessToken string,
) (*core.Identity, error) {
	claims, err := s.jwt.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsMarked(ctx, blacklistPrefix+claims.TokenID)
		if err != nil {
			return nil, fmt.Errorf("check blacklist: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("authenticate: %w", core.ErrTokenRevoked)
		}
	}

	account, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("authenticate: user inactive: %w", core.ErrUnauthorized)
		}
		return nil, err
	}

	if claims.Version < account.TokenVersion {
		return nil, fmt.Errorf("authenticate: stale token version: %w", core.ErrTokenRevoked)
	}

	return &core.Identity{
		UserID:    account.ID,
		Role:      account.Role,
		Username:  account.Username,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// PruneSessions deletes refresh sessions that expired over a day ago.
func (s *Service) PruneSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().Add(-sessionRetention))
}

// RunSessionJanitor prunes sessions every interval until ctx is done.
func (s *Service) RunSessionJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.PruneSessions(ctx)
			if err != nil {
				s.logger.Warn("session prune failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.Info("pruned expired sessions", "removed", removed)
			}
		}
	}
}

func (s *Service) openSession(
	ctx context.Context,
	account *user.User,
	meta ClientMeta,
) (*AuthResult, error) {
	session, result, err := s.issuePair(account, uuid.New().String(), meta)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store refresh session: %w", err)
	}

	return result, nil
}

func (s *Service) issuePair(
	account *user.User,
	familyID string,
	meta ClientMeta,
) (*RefreshToken, *AuthResult, error) {
	access, err := s.jwt.IssueAccessToken(
		account.ID,
		account.Role,
		account.TokenVersion,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.jwt.IssueRefreshToken(
		account.ID,
		familyID,
		account.TokenVersion,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("issue refresh token: %w", err)
	}

	meta = meta.clamp()
	session := &RefreshToken{
		ID:        refresh.ID,
		UserID:    account.ID,
		FamilyID:  familyID,
		ExpiresAt: refresh.ExpiresAt,
		CreatedAt: s.now(),
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}

	return session, &AuthResult{
		User: account,
		Tokens: TokenResponse{
			AccessToken:  access.Token,
			RefreshToken: refresh.Token,
			TokenType:    tokenTypeBearer,
			ExpiresIn:    int(s.jwt.AccessTTL() / time.Second),
			ExpiresAt:    access.ExpiresAt,
		},
	}, nil
}

func (s *Service) revokeFamily(ctx context.Context, familyID, reason string) {
	if err := s.repo.RevokeByFamilyID(ctx, familyID, s.now()); err != nil {
		s.logger.Error("revoke token family failed",
			"family_id", familyID,
			"reason", reason,
			"error", err,
		)
		return
	}
	s.logger.Warn("refresh token family revoked",
		"family_id", familyID,
		"reason", reason,
	)
}

func (s *Service) rejectRefresh(reason string, cause error) error {
	s.logger.Debug("refresh rejected", "reason", reason, "error", cause)
	return fmt.Errorf("refresh: %s: %w", reason, core.ErrTokenInvalid)
}
