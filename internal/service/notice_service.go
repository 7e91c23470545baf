package service

import (
	"context"
	"fmt"
	"strings"

	"trimsdesk/internal/docstore"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
)

// NoticeService manages the marquee notices. Anyone signed in can read them;
// only admins post and delete.
type NoticeService interface {
	List(ctx context.Context) ([]model.Notice, error)
	Add(ctx context.Context, who *identity.Identity, text string) (*model.Notice, error)
	Delete(ctx context.Context, who *identity.Identity, id string) error
}

type noticeService struct {
	store docstore.Store
	layer *records.Layer
}

// NewNoticeService creates a notice service. layer supplies the clock.
func NewNoticeService(store docstore.Store, layer *records.Layer) NoticeService {
	return &noticeService{store: store, layer: layer}
}

func (s *noticeService) List(ctx context.Context) ([]model.Notice, error) {
	docs, err := s.store.Query(ctx, docstore.Query{
		Path:  module.NoticesCollection,
		Order: []docstore.Order{docstore.Desc(records.FieldCreatedAt)},
	})
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return docstore.DecodeAll[model.Notice](docs)
}

func (s *noticeService) Add(ctx context.Context, who *identity.Identity, text string) (*model.Notice, error) {
	if !who.IsAdmin() {
		return nil, apperrors.ErrAccessDenied
	}
	text = strings.TrimSpace(text)
	if err := required(text, "Please write something!"); err != nil {
		return nil, err
	}
	n := model.Notice{Text: text, CreatedAt: s.layer.Now()}
	data, err := docstore.Encode(n)
	if err != nil {
		return nil, err
	}
	id, err := s.store.Add(ctx, module.NoticesCollection, data)
	if err != nil {
		return nil, fmt.Errorf("add notice: %w", err)
	}
	n.ID = id
	return &n, nil
}

func (s *noticeService) Delete(ctx context.Context, who *identity.Identity, id string) error {
	if !who.IsAdmin() {
		return apperrors.ErrAccessDenied
	}
	if _, err := s.store.Get(ctx, module.NoticesCollection, id); err != nil {
		return notFound(err)
	}
	if err := s.store.Delete(ctx, module.NoticesCollection, id); err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return nil
}
