package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/service"
)

// SystemHandler handles the profile, settings and notice endpoints.
type SystemHandler struct {
	profileService  service.ProfileService
	settingsService service.SettingsService
	noticeService   service.NoticeService
}

// NewSystemHandler creates a new system handler.
func NewSystemHandler(profileService service.ProfileService, settingsService service.SettingsService, noticeService service.NoticeService) *SystemHandler {
	return &SystemHandler{
		profileService:  profileService,
		settingsService: settingsService,
		noticeService:   noticeService,
	}
}

// ProfileRequest represents a profile edit. Omitted fields are left unchanged.
type ProfileRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=128"`
	Image       *string `json:"image"`
	ZoomLevel   *string `json:"zoomLevel"`
	DefaultPage *string `json:"defaultPage"`
}

// NoticeRequest represents a new notice.
type NoticeRequest struct {
	Text string `json:"text"`
}

// GetProfile godoc
// @Summary My profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ProfileView
// @Failure 401 {object} errors.ErrorResponse
// @Router /profile [get]
func (h *SystemHandler) GetProfile(c echo.Context) error {
	profile, err := h.profileService.Get(c.Request().Context(), who(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update my profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProfileRequest true "Profile"
// @Success 200 {object} service.ProfileView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /profile [put]
func (h *SystemHandler) UpdateProfile(c echo.Context) error {
	var req ProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in := service.ProfileUpdate{Name: req.Name, Image: req.Image, ZoomLevel: req.ZoomLevel}
	if req.DefaultPage != nil {
		page := module.Page(*req.DefaultPage)
		in.DefaultPage = &page
	}
	profile, err := h.profileService.Update(c.Request().Context(), who(c), in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// GetSettings godoc
// @Summary System settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.SystemSettings
// @Failure 401 {object} errors.ErrorResponse
// @Router /settings [get]
func (h *SystemHandler) GetSettings(c echo.Context) error {
	settings, err := h.settingsService.Get(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, settings)
}

// SaveSettings godoc
// @Summary Save system settings
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.SystemSettings true "Settings"
// @Success 200 {object} model.SystemSettings
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /settings [put]
func (h *SystemHandler) SaveSettings(c echo.Context) error {
	var req model.SystemSettings
	if err := bind(c, &req); err != nil {
		return err
	}
	settings, err := h.settingsService.Save(c.Request().Context(), who(c), req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, settings)
}

// ListNotices godoc
// @Summary List notices
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Notice
// @Router /notices [get]
func (h *SystemHandler) ListNotices(c echo.Context) error {
	notices, err := h.noticeService.List(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, notices)
}

// AddNotice godoc
// @Summary Post a notice
// @Tags notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NoticeRequest true "Notice"
// @Success 201 {object} model.Notice
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /notices [post]
func (h *SystemHandler) AddNotice(c echo.Context) error {
	var req NoticeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	notice, err := h.noticeService.Add(c.Request().Context(), who(c), req.Text)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, notice)
}

// DeleteNotice godoc
// @Summary Delete a notice
// @Tags notices
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notices/{id} [delete]
func (h *SystemHandler) DeleteNotice(c echo.Context) error {
	if err := h.noticeService.Delete(c.Request().Context(), who(c), c.Param("id")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
