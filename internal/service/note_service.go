package service

import (
	"context"
	"strings"

	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
)

// NoteService manages buyer-wise logic notes.
type NoteService interface {
	List(ctx context.Context, who *identity.Identity) ([]model.BuyerNote, error)
	Create(ctx context.Context, who *identity.Identity, n model.BuyerNote) (*model.BuyerNote, error)
	Update(ctx context.Context, who *identity.Identity, id string, n model.BuyerNote) (*model.BuyerNote, error)
	Delete(ctx context.Context, who *identity.Identity, id string) error
}

type noteService struct {
	layer *records.Layer
}

// NewNoteService creates a buyer note service.
func NewNoteService(layer *records.Layer) NoteService {
	return &noteService{layer: layer}
}

func (s *noteService) List(ctx context.Context, who *identity.Identity) ([]model.BuyerNote, error) {
	return list[model.BuyerNote](ctx, s.layer, module.BuyerNotesStore, who, newestFirst(records.FieldCreatedAt))
}

func (s *noteService) Create(ctx context.Context, who *identity.Identity, n model.BuyerNote) (*model.BuyerNote, error) {
	n.BuyerName = strings.TrimSpace(n.BuyerName)
	if err := required(n.BuyerName, "Buyer name is required."); err != nil {
		return nil, err
	}
	data, err := payload(n)
	if err != nil {
		return nil, err
	}
	id, err := s.layer.Create(ctx, module.BuyerNotesStore, who, data)
	if err != nil {
		return nil, err
	}
	return load[model.BuyerNote](ctx, s.layer, module.BuyerNotesStore, who, id)
}

func (s *noteService) Update(ctx context.Context, who *identity.Identity, id string, n model.BuyerNote) (*model.BuyerNote, error) {
	n.BuyerName = strings.TrimSpace(n.BuyerName)
	if err := required(n.BuyerName, "Buyer name is required."); err != nil {
		return nil, err
	}
	data, err := payload(n)
	if err != nil {
		return nil, err
	}
	if err := s.layer.Update(ctx, module.BuyerNotesStore, who, id, data); err != nil {
		return nil, err
	}
	return load[model.BuyerNote](ctx, s.layer, module.BuyerNotesStore, who, id)
}

func (s *noteService) Delete(ctx context.Context, who *identity.Identity, id string) error {
	return s.layer.Delete(ctx, module.BuyerNotesStore, who, id)
}
