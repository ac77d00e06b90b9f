// AngelaMos | 2026
// jwt.go

package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/config"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	claimType    = "type"
	claimRole    = "role"
	claimVersion = "ver"
	claimFamily  = "fam"
)

// Claims is the verified content of either token kind. Role is empty for
// refresh tokens and FamilyID is empty for access tokens.
type Claims struct {
	TokenID   string
	UserID    string
	Role      string
	FamilyID  string
	Version   int
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// JWTManager signs access and refresh tokens with HS256 under two distinct
// secrets so that neither kind can be forged with the other's key.
type JWTManager struct {
	accessKey  jwk.Key
	refreshKey jwk.Key
	config     config.JWTConfig
	now        func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("jwt secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	accessKey, err := jwk.Import([]byte(cfg.AccessSecret))
	if err != nil {
		return nil, fmt.Errorf("import access key: %w", err)
	}

	refreshKey, err := jwk.Import([]byte(cfg.RefreshSecret))
	if err != nil {
		return nil, fmt.Errorf("import refresh key: %w", err)
	}

	return &JWTManager{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		config:     cfg,
		now:        time.Now,
	}, nil
}

func (m *JWTManager) AccessTTL() time.Duration {
	return m.config.AccessTokenExpire
}

func (m *JWTManager) RefreshTTL() time.Duration {
	return m.config.RefreshTokenExpire
}

func (m *JWTManager) IssueAccessToken(
	userID, role string,
	version int,
) (*IssuedToken, error) {
	return m.issue(
		TokenTypeAccess,
		userID,
		m.config.AccessTokenExpire,
		m.accessKey,
		map[string]any{
			claimRole:    role,
			claimVersion: version,
		},
	)
}

// IssueRefreshToken signs a refresh token for one session family. Its jti
// doubles as the id of the stored session row.
func (m *JWTManager) IssueRefreshToken(
	userID, familyID string,
	version int,
) (*IssuedToken, error) {
	return m.issue(
		TokenTypeRefresh,
		userID,
		m.config.RefreshTokenExpire,
		m.refreshKey,
		map[string]any{
			claimFamily:  familyID,
			claimVersion: version,
		},
	)
}

func (m *JWTManager) issue(
	tokenType, userID string,
	ttl time.Duration,
	key jwk.Key,
	extra map[string]any,
) (*IssuedToken, error) {
	now := m.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	jti := uuid.New().String()

	builder := jwt.NewBuilder().
		JwtID(jti).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(userID).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim(claimType, tokenType)

	for name, value := range extra {
		builder = builder.Claim(name, value)
	}

	token, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build %s token: %w", tokenType, err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), key))
	if err != nil {
		return nil, fmt.Errorf("sign %s token: %w", tokenType, err)
	}

	return &IssuedToken{
		Token:     string(signed),
		ID:        jti,
		ExpiresAt: expiresAt,
	}, nil
}

func (m *JWTManager) VerifyAccessToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TokenTypeAccess, m.accessKey)
}

func (m *JWTManager) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TokenTypeRefresh, m.refreshKey)
}

// verify classifies failures: an unparsable token is malformed, a bad
// signature or foreign claims are invalid, and now > exp is expired.
func (m *JWTManager) verify(
	tokenString, tokenType string,
	key jwk.Key,
) (*Claims, error) {
	if _, err := jwt.ParseInsecure([]byte(tokenString)); err != nil {
		return nil, fmt.Errorf("verify %s token: %w", tokenType, core.ErrTokenMalformed)
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), key),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, fmt.Errorf("verify %s token: %w", tokenType, core.ErrTokenInvalid)
	}

	expiresAt, ok := token.Expiration()
	if !ok {
		return nil, fmt.Errorf(
			"verify %s token: missing exp: %w",
			tokenType,
			core.ErrTokenInvalid,
		)
	}
	if m.now().After(expiresAt) {
		return nil, fmt.Errorf("verify %s token: %w", tokenType, core.ErrTokenExpired)
	}

	var gotType string
	if err := token.Get(claimType, &gotType); err != nil || gotType != tokenType {
		return nil, fmt.Errorf(
			"verify %s token: wrong type %q: %w",
			tokenType,
			gotType,
			core.ErrTokenInvalid,
		)
	}

	if issuer, _ := token.Issuer(); issuer != m.config.Issuer {
		return nil, fmt.Errorf(
			"verify %s token: issuer %q: %w",
			tokenType,
			issuer,
			core.ErrTokenInvalid,
		)
	}

	if audience, _ := token.Audience(); !slices.Contains(audience, m.config.Audience) {
		return nil, fmt.Errorf(
			"verify %s token: audience: %w",
			tokenType,
			core.ErrTokenInvalid,
		)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify %s token: missing subject: %w",
			tokenType,
			core.ErrTokenInvalid,
		)
	}

	jti, ok := token.JwtID()
	if !ok || jti == "" {
		return nil, fmt.Errorf(
			"verify %s token: missing jti: %w",
			tokenType,
			core.ErrTokenInvalid,
		)
	}

	var versionFloat float64
	if err := token.Get(claimVersion, &versionFloat); err != nil {
		return nil, fmt.Errorf(
			"verify %s token: missing ver claim: %w",
			tokenType,
			core.ErrTokenInvalid,
		)
	}

	issuedAt, _ := token.IssuedAt()

	claims := &Claims{
		TokenID:   jti,
		UserID:    subject,
		Version:   int(versionFloat),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}

	switch tokenType {
	case TokenTypeAccess:
		if err := token.Get(claimRole, &claims.Role); err != nil {
			return nil, fmt.Errorf(
				"verify access token: missing role claim: %w",
				core.ErrTokenInvalid,
			)
		}
	case TokenTypeRefresh:
		if err := token.Get(claimFamily, &claims.FamilyID); err != nil ||
			claims.FamilyID == "" {
			return nil, fmt.Errorf(
				"verify refresh token: missing fam claim: %w",
				core.ErrTokenInvalid,
			)
		}
	}

	return claims, nil
}
