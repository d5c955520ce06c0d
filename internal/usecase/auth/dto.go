package auth

import (
	"issue-tracker/internal/domain/account"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyResetCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,reset_code"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,reset_code"`
	NewPassword string `json:"newPassword" validate:"required,strong_password"`
}

// UserResponse is the public projection of an account.
type UserResponse struct {
	ID       uint   `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type LoginResponse struct {
	Message     string        `json:"message"`
	User        *UserResponse `json:"user"`
	AccessToken string        `json:"accessToken"`
	ExpiresAt   int64         `json:"expiresAt"`
}

func ToUserResponse(a *account.Account) *UserResponse {
	if a == nil {
		return nil
	}
	return &UserResponse{
		ID:       a.ID,
		FullName: a.FullName,
		Email:    a.Email,
		Role:     a.Role.Name,
	}
}
