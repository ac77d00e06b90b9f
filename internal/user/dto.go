// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

// UpdateUserRequest accepts both the canonical and the legacy Spanish field
// names. Canonical folds them into a single UpdateInput.
type UpdateUserRequest struct {
	Name       *string `json:"name,omitempty"`
	Nombre     *string `json:"nombre,omitempty"`
	Surname    *string `json:"surname,omitempty"`
	Apellido   *string `json:"apellido,omitempty"`
	Email      *string `json:"email,omitempty"`
	Correo     *string `json:"correo,omitempty"`
	Username   *string `json:"username,omitempty"`
	Password   *string `json:"password,omitempty"`
	Contrasena *string `json:"contrasena,omitempty"`
	Role       *string `json:"role,omitempty"`
	Rol        *string `json:"rol,omitempty"`
}

type UpdateInput struct {
	Name     *string
	Surname  *string
	Email    *string
	Username *string
	Password *string
	Role     *string
}

func (in UpdateInput) IsEmpty() bool {
	return in.Name == nil && in.Surname == nil && in.Email == nil &&
		in.Username == nil && in.Password == nil && in.Role == nil
}

func (r UpdateUserRequest) Canonical() UpdateInput {
	return UpdateInput{
		Name:     firstSet(r.Name, r.Nombre),
		Surname:  firstSet(r.Surname, r.Apellido),
		Email:    firstSet(r.Email, r.Correo),
		Username: r.Username,
		Password: firstSet(r.Password, r.Contrasena),
		Role:     firstSet(r.Role, r.Rol),
	}
}

func firstSet(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// UserResponse is the public projection of a User. It never carries the
// password hash. Correo mirrors Email for older clients.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"nombre"`
	Surname   string    `json:"apellido"`
	Email     string    `json:"email"`
	Correo    string    `json:"correo"`
	Username  string    `json:"username"`
	Role      string    `json:"rol"`
	State     string    `json:"estado"`
	CreatedAt time.Time `json:"fecha_creacion"`
	UpdatedAt time.Time `json:"fecha_actualizacion"`
}

type ListUsersParams struct {
	Page     int
	PageSize int
	Search   string
	Role     string
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"activos"`
	Deleted int `json:"eliminados"`
	Admins  int `json:"administradores"`
	Users   int `json:"usuarios"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Surname:   u.Surname,
		Email:     u.Email,
		Correo:    u.Email,
		Username:  u.Username,
		Role:      u.Role,
		State:     u.State,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
