package middleware

import (
	"context"
	"errors"
	"net/http"

	"issue-tracker/internal/domain/account"
	"issue-tracker/internal/logger"
	appErrors "issue-tracker/pkg/errors"
	"issue-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountLookup loads the stored account behind a session token.
type AccountLookup interface {
	Active(ctx context.Context, id uint) (*account.Account, error)
}

// ActiveAccountMiddleware must run after AuthMiddleware. It rejects tokens of
// deactivated or deleted accounts and replaces the role claim with the stored
// role, so status and role changes apply before the token expires.
func ActiveAccountMiddleware(accounts AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetAccountID(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, appErrors.ErrUnauthorized.Error())
			c.Abort()
			return
		}

		a, err := accounts.Active(c.Request.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, appErrors.ErrAccountInactive):
				utils.ErrorResponse(c, http.StatusUnauthorized, appErrors.ErrAccountInactive.Error())
			case errors.Is(err, appErrors.ErrAccountNotFound):
				utils.ErrorResponse(c, http.StatusUnauthorized, appErrors.ErrInvalidToken.Error())
			default:
				logger.Error("Failed to load authenticated account",
					zap.Uint("account_id", id),
					zap.String("request_id", GetRequestID(c)),
					zap.Error(err),
				)
				utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
			}
			c.Abort()
			return
		}

		c.Set(EmailKey, a.Email)
		c.Set(RoleKey, a.Role.Name)
		c.Next()
	}
}
