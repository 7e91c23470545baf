package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trimsdesk/internal/model"
	"trimsdesk/internal/service"
)

// PersonalHandler handles the private task planner and diary.
type PersonalHandler struct {
	taskService  service.TaskService
	diaryService service.DiaryService
}

// NewPersonalHandler creates a new planner and diary handler.
func NewPersonalHandler(taskService service.TaskService, diaryService service.DiaryService) *PersonalHandler {
	return &PersonalHandler{taskService: taskService, diaryService: diaryService}
}

// TaskRequest represents a task create or update request.
type TaskRequest struct {
	Title    string `json:"title" validate:"max=256"`
	Type     string `json:"type" validate:"omitempty,oneof=Task Note"`
	Priority string `json:"priority"`
	Buyer    string `json:"buyer"`
	Detail   string `json:"detail"`
}

func (r TaskRequest) task() model.Task {
	return model.Task{Title: r.Title, Type: r.Type, Priority: r.Priority, Buyer: r.Buyer, Detail: r.Detail}
}

// DiaryRequest represents a diary page.
type DiaryRequest struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// ListTasks godoc
// @Summary List my tasks
// @Tags personal
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Task
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *PersonalHandler) ListTasks(c echo.Context) error {
	tasks, err := h.taskService.List(c.Request().Context(), who(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// CreateTask godoc
// @Summary Create a task
// @Tags personal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TaskRequest true "Task"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *PersonalHandler) CreateTask(c echo.Context) error {
	var req TaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := h.taskService.Create(c.Request().Context(), who(c), req.task())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Tags personal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body TaskRequest true "Task"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *PersonalHandler) UpdateTask(c echo.Context) error {
	var req TaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := h.taskService.Update(c.Request().Context(), who(c), c.Param("id"), req.task())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, task)
}

// ToggleTask godoc
// @Summary Toggle a task
// @Description Flips the task between Pending and Completed.
// @Tags personal
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} model.Task
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id}/toggle [post]
func (h *PersonalHandler) ToggleTask(c echo.Context) error {
	task, err := h.taskService.Toggle(c.Request().Context(), who(c), c.Param("id"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags personal
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *PersonalHandler) DeleteTask(c echo.Context) error {
	if err := h.taskService.Delete(c.Request().Context(), who(c), c.Param("id")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListDiary godoc
// @Summary List my diary
// @Tags personal
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.DiaryEntry
// @Router /diary [get]
func (h *PersonalHandler) ListDiary(c echo.Context) error {
	entries, err := h.diaryService.List(c.Request().Context(), who(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// CreateDiary godoc
// @Summary Write a diary page
// @Tags personal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DiaryRequest true "Entry"
// @Success 201 {object} model.DiaryEntry
// @Failure 400 {object} errors.ErrorResponse
// @Router /diary [post]
func (h *PersonalHandler) CreateDiary(c echo.Context) error {
	return h.saveDiary(c, "", http.StatusCreated)
}

// UpdateDiary godoc
// @Summary Edit a diary page
// @Tags personal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param request body DiaryRequest true "Entry"
// @Success 200 {object} model.DiaryEntry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /diary/{id} [put]
func (h *PersonalHandler) UpdateDiary(c echo.Context) error {
	return h.saveDiary(c, c.Param("id"), http.StatusOK)
}

func (h *PersonalHandler) saveDiary(c echo.Context, id string, status int) error {
	var req DiaryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entry, err := h.diaryService.Save(c.Request().Context(), who(c), id, model.DiaryEntry{Topic: req.Topic, Content: req.Content})
	if err != nil {
		return fail(err)
	}
	return c.JSON(status, entry)
}

// DeleteDiary godoc
// @Summary Delete a diary page
// @Tags personal
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 204
// @Router /diary/{id} [delete]
func (h *PersonalHandler) DeleteDiary(c echo.Context) error {
	if err := h.diaryService.Delete(c.Request().Context(), who(c), c.Param("id")); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
