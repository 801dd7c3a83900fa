package auth

import (
	"github.com/trezcool/niva/core/session"
)

type (
	RegisterRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		RoleType string `json:"role_type" validate:"required,oneof=user admin"`
	}

	Credentials struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	Registration struct {
		Message string
		User    *session.User
	}

	// LoginResult is what a successful login persisted.
	LoginResult struct {
		Token     string
		User      *session.User
		Role      session.Role
		StudentID string
	}
)
