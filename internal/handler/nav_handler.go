package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/access"
	"trimsdesk/internal/errors"
	"trimsdesk/internal/module"
	"trimsdesk/internal/navigation"
)

// NavHandler exposes the sidebar and the open view of the caller's session.
type NavHandler struct {
	registry *navigation.Registry
}

// NewNavHandler creates a new navigation handler.
func NewNavHandler(registry *navigation.Registry) *NavHandler {
	return &NavHandler{registry: registry}
}

// Sidebar godoc
// @Summary Sidebar menu
// @Description Every page with its visibility for the caller, plus group visibility.
// @Tags navigation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} access.Sidebar
// @Failure 401 {object} errors.ErrorResponse
// @Router /nav/sidebar [get]
func (h *NavHandler) Sidebar(c echo.Context) error {
	return c.JSON(http.StatusOK, access.BuildSidebar(who(c)))
}

// Activate godoc
// @Summary Open a page
// @Description Switches the session's open view. Denied pages leave the current view unchanged.
// @Tags navigation
// @Produce json
// @Security BearerAuth
// @Param page path string true "Page id"
// @Param preserve query bool false "Keep the state of an already open page"
// @Success 200 {object} navigation.State
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /nav/{page} [post]
func (h *NavHandler) Activate(c echo.Context) error {
	page, err := module.ParsePage(c.Param("page"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "UNKNOWN_PAGE",
		})
	}
	preserve, _ := strconv.ParseBool(c.QueryParam("preserve"))

	sess := sessionFrom(c)
	if sess == nil {
		return fail(errors.ErrNoSession)
	}
	ctrl := h.registry.For(sess)
	if err := ctrl.Activate(page, navigation.Options{PreserveState: preserve}); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, ctrl.Current())
}

// Current godoc
// @Summary Open view
// @Tags navigation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} navigation.State
// @Failure 401 {object} errors.ErrorResponse
// @Router /nav/current [get]
func (h *NavHandler) Current(c echo.Context) error {
	sess := sessionFrom(c)
	if sess == nil {
		return fail(errors.ErrNoSession)
	}
	return c.JSON(http.StatusOK, h.registry.For(sess).Current())
}
