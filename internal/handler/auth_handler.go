package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/access"
	"trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
	"trimsdesk/internal/service"
	"trimsdesk/internal/session"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=4"`
	FullName string `json:"fullName" validate:"max=128"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents a logout request. The refresh token is optional.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SessionResponse is the caller's session as the client stores it.
type SessionResponse struct {
	Username       string        `json:"username"`
	Role           identity.Role `json:"role"`
	FullName       string        `json:"fullName"`
	AllowedModules []module.Page `json:"allowedModules"`
	DefaultPage    module.Page   `json:"defaultPage"`
	ZoomLevel      string        `json:"zoomLevel"`
	IsApproved     bool          `json:"isApproved"`
	// Landing is the page to open after login.
	Landing module.Page `json:"landing"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	Session      *SessionResponse `json:"session,omitempty"`
}

func sessionResponse(id *identity.Identity) *SessionResponse {
	if id == nil {
		return nil
	}
	landing, _ := access.Landing(id)
	return &SessionResponse{
		Username:       id.Username,
		Role:           id.Role,
		FullName:       id.FullName,
		AllowedModules: id.AllowedModules,
		DefaultPage:    id.DefaultPage,
		ZoomLevel:      id.ZoomLevel,
		IsApproved:     id.IsApproved,
		Landing:        landing,
	}
}

// Register godoc
// @Summary Register a new user
// @Description New accounts have the user role and no modules until an admin grants them.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} model.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), session.Registration{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, user.View())
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	accessToken, refreshToken, sess, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Session:      sessionResponse(sess.Identity()),
	})
}

// Refresh godoc
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	accessToken, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, AuthResponse{AccessToken: accessToken})
}

// Logout godoc
// @Summary Logout user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	if err := h.authService.Logout(c.Request().Context(), claimsFrom(c), req.RefreshToken); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// Session godoc
// @Summary Current session
// @Description Returns the live session, which follows changes to the user record.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	resp := sessionResponse(who(c))
	if resp == nil {
		return fail(errors.ErrNoSession)
	}
	return c.JSON(http.StatusOK, resp)
}
