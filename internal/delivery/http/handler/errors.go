package handler

import (
	"errors"
	"net/http"
	"strconv"

	"issue-tracker/internal/logger"
	"issue-tracker/internal/middleware"
	appErrors "issue-tracker/pkg/errors"
	"issue-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{appErrors.ErrAccountNotFound, http.StatusNotFound},
	{appErrors.ErrSMTPConfigNotFound, http.StatusNotFound},
	{appErrors.ErrRoleNotFound, http.StatusNotFound},
	{appErrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{appErrors.ErrAccountInactive, http.StatusUnauthorized},
	{appErrors.ErrInvalidToken, http.StatusUnauthorized},
	{appErrors.ErrUnauthorized, http.StatusUnauthorized},
	{appErrors.ErrInsufficientPermissions, http.StatusForbidden},
	{appErrors.ErrInvalidResetCode, http.StatusBadRequest},
	{appErrors.ErrWeakPassword, http.StatusBadRequest},
	{appErrors.ErrAccountAlreadyExists, http.StatusConflict},
	{appErrors.ErrAccountBusy, http.StatusConflict},
	{appErrors.ErrMailDelivery, http.StatusInternalServerError},
}

// respondWithError maps domain errors to a status and a {"message"} body.
// Wrapped causes are logged, never returned to the client.
func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				logError(c, err)
			}
			utils.ErrorResponse(c, e.status, e.err.Error())
			return
		}
	}

	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)
		return
	}

	logError(c, err)
	utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
}

func logError(c *gin.Context, err error) {
	logger.Error("Request failed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return uint(id), true
}
