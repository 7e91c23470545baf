package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/model"
	"trimsdesk/internal/service"
)

// NoteHandler handles buyer logic notes.
type NoteHandler struct {
	noteService service.NoteService
}

// NewNoteHandler creates a new note handler.
func NewNoteHandler(noteService service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// NoteRequest represents a buyer note create or update request.
type NoteRequest struct {
	BuyerName        string `json:"buyerName"`
	Description      string `json:"description"`
	TPCLogic         string `json:"tpcLogic"`
	LogicCode        string `json:"logicCode"`
	LogicDescription string `json:"logicDescription"`
	Comments         string `json:"comments"`
}

func (r NoteRequest) note() model.BuyerNote {
	return model.BuyerNote{
		BuyerName:        r.BuyerName,
		Description:      r.Description,
		TPCLogic:         r.TPCLogic,
		LogicCode:        r.LogicCode,
		LogicDescription: r.LogicDescription,
		Comments:         r.Comments,
	}
}

// List godoc
// @Summary List buyer notes
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.BuyerNote
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /notes [get]
func (h *NoteHandler) List(c echo.Context) error {
	notes, err := h.noteService.List(c.Request().Context(), who(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, notes)
}

// Create godoc
// @Summary Create a buyer note
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NoteRequest true "Note"
// @Success 201 {object} model.BuyerNote
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /notes [post]
func (h *NoteHandler) Create(c echo.Context) error {
	var req NoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	note, err := h.noteService.Create(c.Request().Context(), who(c), req.note())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, note)
}

// Update godoc
// @Summary Update a buyer note
// @Description Only the note's author may change it.
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Param request body NoteRequest true "Note"
// @Success 200 {object} model.BuyerNote
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notes/{id} [put]
func (h *NoteHandler) Update(c echo.Context) error {
	var req NoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	note, err := h.noteService.Update(c.Request().Context(), who(c), c.Param("id"), req.note())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, note)
}

// Delete godoc
// @Summary Delete a buyer note
// @Tags notes
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notes/{id} [delete]
func (h *NoteHandler) Delete(c echo.Context) error {
	if err := h.noteService.Delete(c.Request().Context(), who(c), c.Param("id")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
