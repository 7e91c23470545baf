package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/service"
)

// BuyerHandler handles the buyer library.
type BuyerHandler struct {
	buyerService service.BuyerService
}

// NewBuyerHandler creates a new buyer handler.
func NewBuyerHandler(buyerService service.BuyerService) *BuyerHandler {
	return &BuyerHandler{buyerService: buyerService}
}

// BuyerRequest represents a buyer add or rename request.
type BuyerRequest struct {
	Name string `json:"name" validate:"max=128"`
}

// RemapRequest maps booking buyer names onto library names.
type RemapRequest struct {
	Mapping map[string]string `json:"mapping" validate:"required"`
}

// RemapResponse reports how many bookings were rewritten.
type RemapResponse struct {
	Updated int `json:"updated"`
}

// List godoc
// @Summary List buyers
// @Tags buyers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Buyer
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /buyers [get]
func (h *BuyerHandler) List(c echo.Context) error {
	buyers, err := h.buyerService.List(c.Request().Context(), who(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, buyers)
}

// Add godoc
// @Summary Add a buyer
// @Tags buyers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BuyerRequest true "Buyer"
// @Success 201 {object} model.Buyer
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /buyers [post]
func (h *BuyerHandler) Add(c echo.Context) error {
	var req BuyerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	buyer, err := h.buyerService.Add(c.Request().Context(), who(c), req.Name)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, buyer)
}

// Rename godoc
// @Summary Rename a buyer
// @Tags buyers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Buyer ID"
// @Param request body BuyerRequest true "Buyer"
// @Success 200 {object} model.Buyer
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /buyers/{id} [put]
func (h *BuyerHandler) Rename(c echo.Context) error {
	var req BuyerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	buyer, err := h.buyerService.Rename(c.Request().Context(), who(c), c.Param("id"), req.Name)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, buyer)
}

// Delete godoc
// @Summary Delete a buyer
// @Description Refused while any visible booking uses the buyer.
// @Tags buyers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Buyer ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /buyers/{id} [delete]
func (h *BuyerHandler) Delete(c echo.Context) error {
	if err := h.buyerService.Delete(c.Request().Context(), who(c), c.Param("id")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Remap godoc
// @Summary Remap booking buyers
// @Description Rewrites the buyer of every visible booking named in the mapping.
// @Tags buyers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RemapRequest true "Old name to library name"
// @Success 200 {object} RemapResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /buyers/remap [post]
func (h *BuyerHandler) Remap(c echo.Context) error {
	var req RemapRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	updated, err := h.buyerService.Remap(c.Request().Context(), who(c), req.Mapping)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, RemapResponse{Updated: updated})
}
