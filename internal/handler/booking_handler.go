package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/model"
	"trimsdesk/internal/service"
)

// BookingHandler handles trims booking endpoints.
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// BookingRequest represents a booking create or update request.
type BookingRequest struct {
	BookingNo   string `json:"bookingNo" validate:"max=64"`
	Customer    string `json:"customer"`
	Buyer       string `json:"buyer"`
	Item        string `json:"item"`
	BookingDate string `json:"bookingDate" validate:"omitempty,datetime=2006-01-02"`
	CheckStatus string `json:"checkStatus"`
	CheckDate   string `json:"checkDate" validate:"omitempty,datetime=2006-01-02"`
	Remarks     string `json:"remarks"`
}

func (r BookingRequest) booking() model.Booking {
	return model.Booking{
		BookingNo:   r.BookingNo,
		Customer:    r.Customer,
		Buyer:       r.Buyer,
		Item:        r.Item,
		BookingDate: r.BookingDate,
		CheckStatus: r.CheckStatus,
		CheckDate:   r.CheckDate,
		Remarks:     r.Remarks,
	}
}

// List godoc
// @Summary List bookings
// @Description Admins see every booking; other users see their own workspace.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Booking
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	bookings, err := h.bookingService.List(c.Request().Context(), who(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, bookings)
}

// Get godoc
// @Summary Get a booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} model.Booking
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c echo.Context) error {
	booking, err := h.bookingService.Get(c.Request().Context(), who(c), c.Param("id"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, booking)
}

// Create godoc
// @Summary Create a booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BookingRequest true "Booking"
// @Success 201 {object} model.Booking
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	var req BookingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	booking, err := h.bookingService.Create(c.Request().Context(), who(c), req.booking())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, booking)
}

// Update godoc
// @Summary Update a booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body BookingRequest true "Booking"
// @Success 200 {object} model.Booking
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{id} [put]
func (h *BookingHandler) Update(c echo.Context) error {
	var req BookingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	booking, err := h.bookingService.Update(c.Request().Context(), who(c), c.Param("id"), req.booking())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, booking)
}

// Delete godoc
// @Summary Delete a booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Delete(c echo.Context) error {
	if err := h.bookingService.Delete(c.Request().Context(), who(c), c.Param("id")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
