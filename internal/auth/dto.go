package auth

import (
	"strings"

	"storefront-api/internal/core/common/validation"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d *LoginDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("email", d.Email).Required()
	validator.Field("password", d.Password).Required().MinLength(8)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	if !strings.Contains(d.Email, "@") {
		return ErrInvalidCredentials
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d *RefreshTokenDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("refresh_token", d.RefreshToken).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
