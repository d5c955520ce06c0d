package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	appErrors "issue-tracker/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "not found", err: appErrors.ErrAccountNotFound, status: http.StatusNotFound, message: "account not found"},
		{name: "no smtp", err: appErrors.ErrSMTPConfigNotFound, status: http.StatusNotFound, message: "no active smtp configuration"},
		{name: "bad password", err: appErrors.ErrInvalidCredentials, status: http.StatusUnauthorized, message: "invalid email or password"},
		{name: "inactive", err: appErrors.ErrAccountInactive, status: http.StatusUnauthorized, message: "account is inactive"},
		{name: "bad code", err: appErrors.ErrInvalidResetCode, status: http.StatusBadRequest, message: "invalid or expired reset code"},
		{name: "delivery hides cause", err: fmt.Errorf("%w: dial tcp 10.0.0.1:25: refused", appErrors.ErrMailDelivery), status: http.StatusInternalServerError, message: "failed to deliver reset code"},
		{name: "busy", err: fmt.Errorf("%w: timeout", appErrors.ErrAccountBusy), status: http.StatusConflict, message: "another request for this account is in progress"},
		{name: "weak password", err: appErrors.ErrWeakPassword, status: http.StatusBadRequest, message: appErrors.ErrWeakPassword.Error()},
		{name: "validation", err: appErrors.NewAppError("VALIDATION_ERROR", "Email is required", nil), status: http.StatusBadRequest, message: "Email is required"},
		{name: "unknown", err: errors.New("pq: connection reset"), status: http.StatusInternalServerError, message: "Internal server error"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)

			respondWithError(c, test.err)

			assert.Equal(t, test.status, w.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"message":%q}`, test.message), w.Body.String())
		})
	}
}
