// Package handler holds the echo handlers and the request guards that put
// the caller's live session on the context.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/auth"
	"trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/session"
)

// Context keys set by the guards.
const (
	ClaimsKey  = "claims"
	SessionKey = "session"
)

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// fail converts a domain error into an echo HTTP error.
func fail(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_FAILED",
		})
	}
	return nil
}

// claimsFrom returns the verified access token claims of the request.
func claimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ClaimsKey).(*auth.Claims)
	return claims
}

// sessionFrom returns the live session attached by the session guard.
func sessionFrom(c echo.Context) *session.Session {
	sess, _ := c.Get(SessionKey).(*session.Session)
	return sess
}

// who returns the current identity snapshot, or nil without a session.
func who(c echo.Context) *identity.Identity {
	sess := sessionFrom(c)
	if sess == nil {
		return nil
	}
	return sess.Identity()
}
