// AngelaMos | 2026
// identity.go

package core

import (
	"fmt"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID    string
	Role      string
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Authorize fails with ErrUnauthorized without an identity and with
// ErrForbidden when its role is not listed. No roles means any identity.
func Authorize(identity *Identity, roles ...string) error {
	if identity == nil || identity.UserID == "" {
		return fmt.Errorf("authorize: %w", ErrUnauthorized)
	}

	if len(roles) == 0 {
		return nil
	}

	for _, role := range roles {
		if identity.Role == role {
			return nil
		}
	}

	return fmt.Errorf(
		"authorize: role %q not in %v: %w",
		identity.Role,
		roles,
		ErrForbidden,
	)
}
