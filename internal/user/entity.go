// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
)

type User struct {
	ID           string     `db:"id"`
	Name         string     `db:"name"`
	Surname      string     `db:"surname"`
	Email        string     `db:"email"`
	Username     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	Role         string     `db:"role"`
	State        string     `db:"state"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = core.RoleUser
	RoleAdmin = core.RoleAdmin
)

const (
	StateActive  = "active"
	StateDeleted = "deleted"
)

// NewUser is the canonical input for creating an account.
type NewUser struct {
	Name         string
	Surname      string
	Email        string
	Username     string
	PasswordHash string
	Role         string
}

type RoleStateCount struct {
	Role  string `db:"role"`
	State string `db:"state"`
	Total int    `db:"total"`
}
