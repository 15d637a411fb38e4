package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=100"`
	Email    string `json:"email"    validate:"required,max=254,email"`
}

// Validate reports the first field that breaks the registration rules.
func (r *RegisterRequest) Validate() error {
	return firstViolation(validate.Struct(r))
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate reports a missing username or password.
func (r *LoginRequest) Validate() error {
	return firstViolation(validate.Struct(r))
}

// APIResponse is the envelope every auth endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func firstViolation(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := jsonName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "min", "max":
		switch field {
		case "username":
			return errors.New("username must be between 3 and 50 characters")
		case "password":
			return errors.New("password must be between 6 and 100 characters")
		case "email":
			return errors.New("email must be at most 254 characters")
		}
	case "email":
		return errors.New("email format is not valid")
	}

	return fmt.Errorf("%s is not valid", field)
}

func jsonName(field string) string {
	switch field {
	case "Username":
		return "username"
	case "Password":
		return "password"
	case "Email":
		return "email"
	default:
		return field
	}
}
