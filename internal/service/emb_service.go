package service

import (
	"context"
	"strings"

	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
)

const fieldSubmittedAt = "submittedAt"

// EmbService tracks embellishment jobs. Drafts live on the client; Submit
// writes a set of them in one batch.
type EmbService interface {
	List(ctx context.Context, who *identity.Identity) ([]model.EmbJob, error)
	Submit(ctx context.Context, who *identity.Identity, jobs []model.EmbJob) ([]model.EmbJob, error)
	Update(ctx context.Context, who *identity.Identity, id string, job model.EmbJob) (*model.EmbJob, error)
	Delete(ctx context.Context, who *identity.Identity, id string) error
}

type embService struct {
	layer *records.Layer
}

// NewEmbService creates an embellishment job service.
func NewEmbService(layer *records.Layer) EmbService {
	return &embService{layer: layer}
}

func (s *embService) List(ctx context.Context, who *identity.Identity) ([]model.EmbJob, error) {
	return list[model.EmbJob](ctx, s.layer, module.EmbReports, who, newestFirst(fieldSubmittedAt))
}

// Submit validates every job before writing any of them.
func (s *embService) Submit(ctx context.Context, who *identity.Identity, jobs []model.EmbJob) ([]model.EmbJob, error) {
	if len(jobs) == 0 {
		return nil, apperrors.Invalid("No jobs selected.")
	}
	now := s.layer.Now()
	rows := make([]map[string]any, 0, len(jobs))
	for i := range jobs {
		jobs[i].Buyer = strings.TrimSpace(jobs[i].Buyer)
		jobs[i].WO = strings.TrimSpace(jobs[i].WO)
		if jobs[i].Buyer == "" || jobs[i].WO == "" {
			return nil, apperrors.Invalid("Buyer and WO are required.")
		}
		jobs[i].SubmittedAt = now
		data, err := payload(jobs[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, data)
	}

	ids, err := s.layer.SubmitBatch(ctx, module.EmbReports, who, rows)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		jobs[i].ID = id
	}
	return jobs, nil
}

func (s *embService) Update(ctx context.Context, who *identity.Identity, id string, job model.EmbJob) (*model.EmbJob, error) {
	data, err := payload(job)
	if err != nil {
		return nil, err
	}
	delete(data, fieldSubmittedAt)
	if err := s.layer.Update(ctx, module.EmbReports, who, id, data); err != nil {
		return nil, err
	}
	return load[model.EmbJob](ctx, s.layer, module.EmbReports, who, id)
}

func (s *embService) Delete(ctx context.Context, who *identity.Identity, id string) error {
	return s.layer.Delete(ctx, module.EmbReports, who, id)
}
