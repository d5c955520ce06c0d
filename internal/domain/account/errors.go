package account

import appErrors "issue-tracker/pkg/errors"

var (
	ErrAccountNotFound      = appErrors.ErrAccountNotFound
	ErrAccountAlreadyExists = appErrors.ErrAccountAlreadyExists
	ErrAccountInactive      = appErrors.ErrAccountInactive
	ErrRoleNotFound         = appErrors.ErrRoleNotFound

	ErrResetAttemptNotFound = appErrors.ErrInvalidResetCode
)
