// AngelaMos | 2026
// dto.go

package auth

import (
	"strings"
	"time"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/user"
)

// RegisterRequest and LoginRequest take both the canonical field names and
// the legacy Spanish ones; Input folds them.
type RegisterRequest struct {
	Name       string `json:"name"`
	Nombre     string `json:"nombre"`
	Surname    string `json:"surname"`
	Apellido   string `json:"apellido"`
	Email      string `json:"email"`
	Correo     string `json:"correo"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Contrasena string `json:"contrasena"`
}

func (r RegisterRequest) Input() RegisterInput {
	return RegisterInput{
		Name:     firstNonEmpty(r.Name, r.Nombre),
		Surname:  firstNonEmpty(r.Surname, r.Apellido),
		Email:    firstNonEmpty(r.Email, r.Correo),
		Username: r.Username,
		Password: firstNonEmpty(r.Password, r.Contrasena),
	}
}

type RegisterInput struct {
	Name     string
	Surname  string
	Email    string
	Username string
	Password string
}

type LoginRequest struct {
	Email      string `json:"email"`
	Correo     string `json:"correo"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Contrasena string `json:"contrasena"`
}

func (r LoginRequest) Input() LoginInput {
	return LoginInput{
		Email:    strings.TrimSpace(firstNonEmpty(r.Email, r.Correo)),
		Username: strings.TrimSpace(r.Username),
		Password: firstNonEmpty(r.Password, r.Contrasena),
	}
}

// LoginInput identifies the account by Email when set, else by Username.
type LoginInput struct {
	Email    string
	Username string
	Password string
}

type RefreshRequest struct {
	RefreshToken       string `json:"refreshToken"`
	RefreshTokenLegacy string `json:"refresh_token"`
}

func (r RefreshRequest) Token() string {
	return strings.TrimSpace(firstNonEmpty(r.RefreshToken, r.RefreshTokenLegacy))
}

type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int       `json:"expiresIn"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthResult is what register, login and refresh hand back to the handler.
type AuthResult struct {
	User   *user.User
	Tokens TokenResponse
}

type AuthResponse struct {
	Usuario user.UserResponse `json:"usuario"`
	Tokens  TokenResponse     `json:"tokens"`
}

type RefreshResponse struct {
	Tokens TokenResponse `json:"tokens"`
}

func ToAuthResponse(result *AuthResult) AuthResponse {
	return AuthResponse{
		Usuario: user.ToUserResponse(result.User),
		Tokens:  result.Tokens,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
