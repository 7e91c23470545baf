package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/model"
	"trimsdesk/internal/service"
)

// EmbHandler handles embellishment job submissions and reports.
type EmbHandler struct {
	embService service.EmbService
}

// NewEmbHandler creates a new emb handler.
func NewEmbHandler(embService service.EmbService) *EmbHandler {
	return &EmbHandler{embService: embService}
}

// EmbJobRequest is one embellishment job row.
type EmbJobRequest struct {
	JobNo    string `json:"jobNo"`
	Buyer    string `json:"buyer"`
	WO       string `json:"wo"`
	Status   string `json:"status"`
	Comments string `json:"comments"`
}

func (r EmbJobRequest) job() model.EmbJob {
	return model.EmbJob{JobNo: r.JobNo, Buyer: r.Buyer, WO: r.WO, Status: r.Status, Comments: r.Comments}
}

// SubmitRequest carries the selected job rows.
type SubmitRequest struct {
	Jobs []EmbJobRequest `json:"jobs"`
}

// List godoc
// @Summary List emb jobs
// @Tags emb
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.EmbJob
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /emb-jobs [get]
func (h *EmbHandler) List(c echo.Context) error {
	jobs, err := h.embService.List(c.Request().Context(), who(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, jobs)
}

// Submit godoc
// @Summary Submit emb jobs
// @Description Every row is validated before any is written.
// @Tags emb
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitRequest true "Jobs"
// @Success 201 {array} model.EmbJob
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /emb-jobs [post]
func (h *EmbHandler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	jobs := make([]model.EmbJob, len(req.Jobs))
	for i, j := range req.Jobs {
		jobs[i] = j.job()
	}
	saved, err := h.embService.Submit(c.Request().Context(), who(c), jobs)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, saved)
}

// Update godoc
// @Summary Update an emb job
// @Tags emb
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Param request body EmbJobRequest true "Job"
// @Success 200 {object} model.EmbJob
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /emb-jobs/{id} [put]
func (h *EmbHandler) Update(c echo.Context) error {
	var req EmbJobRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	job, err := h.embService.Update(c.Request().Context(), who(c), c.Param("id"), req.job())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, job)
}

// Delete godoc
// @Summary Delete an emb job
// @Tags emb
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Router /emb-jobs/{id} [delete]
func (h *EmbHandler) Delete(c echo.Context) error {
	if err := h.embService.Delete(c.Request().Context(), who(c), c.Param("id")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
