package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/service"
)

// AdminHandler handles user administration.
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// UserUpdateRequest represents an admin edit of a user. Omitted fields are
// left unchanged.
type UserUpdateRequest struct {
	Role           *string   `json:"role" validate:"omitempty,oneof=admin user"`
	AllowedModules *[]string `json:"allowedModules"`
	DefaultPage    *string   `json:"defaultPage"`
	Password       *string   `json:"password"`
	IsApproved     *bool     `json:"isApproved"`
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.UserView
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.adminService.ListUsers(c.Request().Context(), who(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateUser godoc
// @Summary Update a user
// @Description Changes role, modules, default page, approval or password.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Param request body UserUpdateRequest true "Changes"
// @Success 200 {object} model.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{username} [put]
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	var req UserUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.adminService.UpdateUser(c.Request().Context(), who(c), c.Param("username"), service.UserUpdate{
		Role:           req.Role,
		AllowedModules: req.AllowedModules,
		DefaultPage:    req.DefaultPage,
		Password:       req.Password,
		IsApproved:     req.IsApproved,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, user)
}

// ApproveUser godoc
// @Summary Approve a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} model.UserView
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{username}/approve [post]
func (h *AdminHandler) ApproveUser(c echo.Context) error {
	user, err := h.adminService.ApproveUser(c.Request().Context(), who(c), c.Param("username"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Removes the account and ends its live sessions. Admins cannot delete themselves.
// @Tags admin
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{username} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	if err := h.adminService.DeleteUser(c.Request().Context(), who(c), c.Param("username")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
