package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrUnauthorized            = errors.New("unauthorized access")
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrRoleNotFound         = errors.New("role not found")

	ErrSMTPConfigNotFound = errors.New("no active smtp configuration")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
	ErrMailDelivery       = errors.New("failed to deliver reset code")
	ErrAccountBusy        = errors.New("another request for this account is in progress")

	ErrWeakPassword = errors.New("password must be at least 8 characters and contain uppercase, lowercase, number and special symbol")
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
