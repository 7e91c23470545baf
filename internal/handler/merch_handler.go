package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/model"
	"trimsdesk/internal/service"
)

// MerchHandler handles the merchandising workspace.
type MerchHandler struct {
	merchService service.MerchService
}

// NewMerchHandler creates a new merchandising handler.
func NewMerchHandler(merchService service.MerchService) *MerchHandler {
	return &MerchHandler{merchService: merchService}
}

// PackingRequest represents a packing list line.
type PackingRequest struct {
	Buyer   string `json:"buyer"`
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Style   string `json:"style"`
	PO      string `json:"po"`
	Color   string `json:"color"`
	Qty     string `json:"qty"`
	Excess  string `json:"excess"`
	Remarks string `json:"remarks"`
}

func (r PackingRequest) entry() model.PackingEntry {
	return model.PackingEntry{
		Buyer:   r.Buyer,
		Date:    r.Date,
		Style:   r.Style,
		PO:      r.PO,
		Color:   r.Color,
		Qty:     r.Qty,
		Excess:  r.Excess,
		Remarks: r.Remarks,
	}
}

// ListBuyers godoc
// @Summary List merchandising buyers
// @Tags merchandising
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.MerchBuyer
// @Failure 403 {object} errors.ErrorResponse
// @Router /merch/buyers [get]
func (h *MerchHandler) ListBuyers(c echo.Context) error {
	buyers, err := h.merchService.ListBuyers(c.Request().Context(), who(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, buyers)
}

// AddBuyer godoc
// @Summary Add a merchandising buyer
// @Tags merchandising
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BuyerRequest true "Buyer"
// @Success 201 {object} model.MerchBuyer
// @Failure 400 {object} errors.ErrorResponse
// @Router /merch/buyers [post]
func (h *MerchHandler) AddBuyer(c echo.Context) error {
	var req BuyerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	buyer, err := h.merchService.AddBuyer(c.Request().Context(), who(c), req.Name)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, buyer)
}

// RenameBuyer godoc
// @Summary Rename a merchandising buyer
// @Tags merchandising
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Buyer ID"
// @Param request body BuyerRequest true "Buyer"
// @Success 200 {object} model.MerchBuyer
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /merch/buyers/{id} [put]
func (h *MerchHandler) RenameBuyer(c echo.Context) error {
	var req BuyerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	buyer, err := h.merchService.RenameBuyer(c.Request().Context(), who(c), c.Param("id"), req.Name)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, buyer)
}

// DeleteBuyer godoc
// @Summary Delete a merchandising buyer
// @Tags merchandising
// @Security BearerAuth
// @Param id path string true "Buyer ID"
// @Success 204
// @Router /merch/buyers/{id} [delete]
func (h *MerchHandler) DeleteBuyer(c echo.Context) error {
	if err := h.merchService.DeleteBuyer(c.Request().Context(), who(c), c.Param("id")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPacking godoc
// @Summary List packing entries
// @Tags merchandising
// @Produce json
// @Security BearerAuth
// @Param buyer query string false "Only entries of this buyer"
// @Success 200 {array} model.PackingEntry
// @Failure 403 {object} errors.ErrorResponse
// @Router /merch/packing [get]
func (h *MerchHandler) ListPacking(c echo.Context) error {
	entries, err := h.merchService.ListPacking(c.Request().Context(), who(c), c.QueryParam("buyer"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// CreatePacking godoc
// @Summary Add a packing entry
// @Tags merchandising
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PackingRequest true "Entry"
// @Success 201 {object} model.PackingEntry
// @Failure 400 {object} errors.ErrorResponse
// @Router /merch/packing [post]
func (h *MerchHandler) CreatePacking(c echo.Context) error {
	var req PackingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entry, err := h.merchService.SavePacking(c.Request().Context(), who(c), "", req.entry())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// UpdatePacking godoc
// @Summary Update a packing entry
// @Tags merchandising
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param request body PackingRequest true "Entry"
// @Success 200 {object} model.PackingEntry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /merch/packing/{id} [put]
func (h *MerchHandler) UpdatePacking(c echo.Context) error {
	var req PackingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entry, err := h.merchService.SavePacking(c.Request().Context(), who(c), c.Param("id"), req.entry())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entry)
}

// DeletePacking godoc
// @Summary Delete a packing entry
// @Tags merchandising
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 204
// @Router /merch/packing/{id} [delete]
func (h *MerchHandler) DeletePacking(c echo.Context) error {
	if err := h.merchService.DeletePacking(c.Request().Context(), who(c), c.Param("id")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
