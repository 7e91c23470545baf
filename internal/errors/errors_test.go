package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"wrapped credentials", fmt.Errorf("login: %w", ErrInvalidCredentials), http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"taken", ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN"},
		{"not found", ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"denied", ErrAccessDenied, http.StatusForbidden, "ACCESS_DENIED"},
		{"owner", ErrNotOwner, http.StatusForbidden, "NOT_OWNER"},
		{"self delete", ErrSelfDelete, http.StatusBadRequest, "SELF_DELETE"},
		{"validation", Invalid("Buyer is required"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"throttled", ErrTooManyAttempts, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"refresh", fmt.Errorf("refresh: %w", ErrInvalidRefreshToken), http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}

func TestMapErrorToHTTP_ValidationKeepsMessage(t *testing.T) {
	got := MapErrorToHTTP(fmt.Errorf("create booking: %w", Invalid("Buyer is required")))
	assert.Equal(t, "Buyer is required", got.ToErrorResponse().Error)
}

func TestMapErrorToHTTP_InternalHidesDetail(t *testing.T) {
	got := MapErrorToHTTP(errors.New("dial tcp 10.0.0.1:3306: refused"))
	assert.Equal(t, "internal server error", got.Message)
}
