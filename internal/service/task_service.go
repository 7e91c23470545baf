package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
)

const defaultPriority = "Medium"

var priorities = map[string]bool{"Low": true, defaultPriority: true, "High": true}

// TaskService manages a user's private task planner.
type TaskService interface {
	List(ctx context.Context, who *identity.Identity) ([]model.Task, error)
	Create(ctx context.Context, who *identity.Identity, t model.Task) (*model.Task, error)
	Update(ctx context.Context, who *identity.Identity, id string, t model.Task) (*model.Task, error)
	// Toggle flips a task between Pending and Completed.
	Toggle(ctx context.Context, who *identity.Identity, id string) (*model.Task, error)
	Delete(ctx context.Context, who *identity.Identity, id string) error
}

type taskService struct {
	layer *records.Layer
}

// NewTaskService creates a task planner service.
func NewTaskService(layer *records.Layer) TaskService {
	return &taskService{layer: layer}
}

func (s *taskService) List(ctx context.Context, who *identity.Identity) ([]model.Task, error) {
	return list[model.Task](ctx, s.layer, module.MyTasksStore, who, newestFirst(records.FieldCreatedAt))
}

func (s *taskService) Create(ctx context.Context, who *identity.Identity, t model.Task) (*model.Task, error) {
	if err := normalizeTask(&t); err != nil {
		return nil, err
	}
	t.Status = model.TaskPending
	t.CompletedAt = nil
	data, err := payload(t)
	if err != nil {
		return nil, err
	}
	id, err := s.layer.Create(ctx, module.MyTasksStore, who, data)
	if err != nil {
		return nil, err
	}
	return load[model.Task](ctx, s.layer, module.MyTasksStore, who, id)
}

// Update edits a task; its status is only changed through Toggle.
func (s *taskService) Update(ctx context.Context, who *identity.Identity, id string, t model.Task) (*model.Task, error) {
	if err := normalizeTask(&t); err != nil {
		return nil, err
	}
	data, err := payload(t)
	if err != nil {
		return nil, err
	}
	delete(data, "status")
	delete(data, "completedAt")
	if err := s.layer.Update(ctx, module.MyTasksStore, who, id, data); err != nil {
		return nil, err
	}
	return load[model.Task](ctx, s.layer, module.MyTasksStore, who, id)
}

func (s *taskService) Toggle(ctx context.Context, who *identity.Identity, id string) (*model.Task, error) {
	t, err := load[model.Task](ctx, s.layer, module.MyTasksStore, who, id)
	if err != nil {
		return nil, err
	}
	patch := map[string]any{"status": model.TaskCompleted, "completedAt": s.layer.Now()}
	if t.Status == model.TaskCompleted {
		patch = map[string]any{"status": model.TaskPending, "completedAt": nil}
	}
	if err := s.layer.Update(ctx, module.MyTasksStore, who, id, patch); err != nil {
		return nil, err
	}
	return load[model.Task](ctx, s.layer, module.MyTasksStore, who, id)
}

func (s *taskService) Delete(ctx context.Context, who *identity.Identity, id string) error {
	return s.layer.Delete(ctx, module.MyTasksStore, who, id)
}

func normalizeTask(t *model.Task) error {
	t.Title = strings.TrimSpace(t.Title)
	t.Detail = strings.TrimSpace(t.Detail)
	if err := required(t.Title, "Title is required."); err != nil {
		return err
	}
	switch t.Type {
	case "":
		t.Type = model.TaskTypeTask
	case model.TaskTypeTask, model.TaskTypeNote:
	default:
		return apperrors.Invalid(fmt.Sprintf("Unknown task type %q.", t.Type))
	}
	if t.Priority == "" {
		t.Priority = defaultPriority
	}
	if !priorities[t.Priority] {
		return apperrors.Invalid(fmt.Sprintf("Unknown priority %q.", t.Priority))
	}
	if strings.TrimSpace(t.Buyer) == "" {
		t.Buyer = model.GeneralBuyer
	}
	return nil
}
