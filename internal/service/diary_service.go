package service

import (
	"context"
	"strings"

	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
)

// DiaryService manages a user's private diary.
type DiaryService interface {
	List(ctx context.Context, who *identity.Identity) ([]model.DiaryEntry, error)
	Save(ctx context.Context, who *identity.Identity, id string, e model.DiaryEntry) (*model.DiaryEntry, error)
	Delete(ctx context.Context, who *identity.Identity, id string) error
}

type diaryService struct {
	layer *records.Layer
}

// NewDiaryService creates a diary service.
func NewDiaryService(layer *records.Layer) DiaryService {
	return &diaryService{layer: layer}
}

func (s *diaryService) List(ctx context.Context, who *identity.Identity) ([]model.DiaryEntry, error) {
	return list[model.DiaryEntry](ctx, s.layer, module.MyDiaryStore, who, newestFirst(records.FieldCreatedAt))
}

// Save creates an entry when id is empty and edits it otherwise.
func (s *diaryService) Save(ctx context.Context, who *identity.Identity, id string, e model.DiaryEntry) (*model.DiaryEntry, error) {
	e.Topic = strings.TrimSpace(e.Topic)
	if err := required(e.Topic, "Topic is required."); err != nil {
		return nil, err
	}
	if err := required(e.Content, "Content is required."); err != nil {
		return nil, err
	}
	data, err := payload(e)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id, err = s.layer.Create(ctx, module.MyDiaryStore, who, data)
	} else {
		err = s.layer.Update(ctx, module.MyDiaryStore, who, id, data)
	}
	if err != nil {
		return nil, err
	}
	return load[model.DiaryEntry](ctx, s.layer, module.MyDiaryStore, who, id)
}

func (s *diaryService) Delete(ctx context.Context, who *identity.Identity, id string) error {
	return s.layer.Delete(ctx, module.MyDiaryStore, who, id)
}
