// AngelaMos | 2026
// validation.go

package user

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
)

const (
	MsgNameTooShort      = "El nombre debe tener al menos 2 caracteres"
	MsgNameTooLong       = "El nombre debe tener como máximo 100 caracteres"
	MsgSurnameTooLong    = "El apellido debe tener como máximo 100 caracteres"
	MsgEmailInvalid      = "El correo electrónico no es válido"
	MsgPasswordTooShort  = "La contraseña debe tener al menos 6 caracteres"
	MsgPasswordTooLong   = "La contraseña no puede superar 72 bytes"
	MsgPasswordRequired  = "La contraseña es obligatoria"
	MsgUsernameTooShort  = "El nombre de usuario debe tener al menos 3 caracteres"
	MsgUsernameTooLong   = "El nombre de usuario debe tener como máximo 50 caracteres"
	MsgUsernameCharset   = "El nombre de usuario solo puede contener letras, números y guiones bajos"
	MsgIdentifierMissing = "Se requiere correo electrónico o nombre de usuario"
	MsgRoleInvalid       = "El rol debe ser user o admin"
	MsgNothingToUpdate   = "No se proporcionaron campos para actualizar"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Rules holds the field rules shared by registration, login and updates.
// Each check appends its message to ve instead of stopping at the first.
type Rules struct {
	v *validator.Validate
}

func NewRules() *Rules {
	v := validator.New(validator.WithRequiredStructEnabled())
	//nolint:errcheck // tag name is a constant
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return &Rules{v: v}
}

func (r *Rules) Name(ve *core.ValidationError, name string) {
	name = strings.TrimSpace(name)
	if r.v.Var(name, "min=2") != nil {
		ve.Add(MsgNameTooShort)
		return
	}
	if r.v.Var(name, "max=100") != nil {
		ve.Add(MsgNameTooLong)
	}
}

func (r *Rules) Surname(ve *core.ValidationError, surname string) {
	if r.v.Var(strings.TrimSpace(surname), "max=100") != nil {
		ve.Add(MsgSurnameTooLong)
	}
}

func (r *Rules) Email(ve *core.ValidationError, email string) {
	if r.v.Var(strings.TrimSpace(email), "required,email,max=255") != nil {
		ve.Add(MsgEmailInvalid)
	}
}

func (r *Rules) Password(ve *core.ValidationError, password string) {
	if r.v.Var(password, "min=6") != nil {
		ve.Add(MsgPasswordTooShort)
		return
	}
	if len(password) > core.MaxPasswordBytes {
		ve.Add(MsgPasswordTooLong)
	}
}

// Username reports length and charset independently, so "a!" yields both.
func (r *Rules) Username(ve *core.ValidationError, username string) {
	trimmed := strings.TrimSpace(username)
	if r.v.Var(trimmed, "min=3") != nil {
		ve.Add(MsgUsernameTooShort)
	} else if r.v.Var(trimmed, "max=50") != nil {
		ve.Add(MsgUsernameTooLong)
	}

	if username != "" && r.v.Var(username, "username") != nil {
		ve.Add(MsgUsernameCharset)
	}
}

func (r *Rules) Role(ve *core.ValidationError, role string) {
	if r.v.Var(role, "oneof=user admin") != nil {
		ve.Add(MsgRoleInvalid)
	}
}

// NormalizeEmail is the stored form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
