package service

import (
	"context"
	"strings"

	"trimsdesk/internal/docstore"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
)

// MerchService manages a user's merchandising buyers and their packing lists.
type MerchService interface {
	ListBuyers(ctx context.Context, who *identity.Identity) ([]model.MerchBuyer, error)
	AddBuyer(ctx context.Context, who *identity.Identity, name string) (*model.MerchBuyer, error)
	RenameBuyer(ctx context.Context, who *identity.Identity, id, name string) (*model.MerchBuyer, error)
	DeleteBuyer(ctx context.Context, who *identity.Identity, id string) error

	// ListPacking returns the entries of buyer, or every entry when buyer is empty.
	ListPacking(ctx context.Context, who *identity.Identity, buyer string) ([]model.PackingEntry, error)
	SavePacking(ctx context.Context, who *identity.Identity, id string, e model.PackingEntry) (*model.PackingEntry, error)
	DeletePacking(ctx context.Context, who *identity.Identity, id string) error
}

type merchService struct {
	layer *records.Layer
}

// NewMerchService creates a merchandising service.
func NewMerchService(layer *records.Layer) MerchService {
	return &merchService{layer: layer}
}

func (s *merchService) ListBuyers(ctx context.Context, who *identity.Identity) ([]model.MerchBuyer, error) {
	return list[model.MerchBuyer](ctx, s.layer, module.MerchBuyers, who, records.ListOptions{
		Order: []docstore.Order{docstore.Asc("name")},
	})
}

func (s *merchService) AddBuyer(ctx context.Context, who *identity.Identity, name string) (*model.MerchBuyer, error) {
	name = strings.TrimSpace(name)
	if err := required(name, "Please enter buyer name."); err != nil {
		return nil, err
	}
	id, err := s.layer.Create(ctx, module.MerchBuyers, who, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	return load[model.MerchBuyer](ctx, s.layer, module.MerchBuyers, who, id)
}

func (s *merchService) RenameBuyer(ctx context.Context, who *identity.Identity, id, name string) (*model.MerchBuyer, error) {
	name = strings.TrimSpace(name)
	if err := required(name, "Please enter buyer name."); err != nil {
		return nil, err
	}
	if err := s.layer.Update(ctx, module.MerchBuyers, who, id, map[string]any{"name": name}); err != nil {
		return nil, err
	}
	return load[model.MerchBuyer](ctx, s.layer, module.MerchBuyers, who, id)
}

func (s *merchService) DeleteBuyer(ctx context.Context, who *identity.Identity, id string) error {
	return s.layer.Delete(ctx, module.MerchBuyers, who, id)
}

func (s *merchService) ListPacking(ctx context.Context, who *identity.Identity, buyer string) ([]model.PackingEntry, error) {
	opts := newestFirst(records.FieldCreatedAt)
	if buyer != "" {
		opts.Filters = []docstore.Filter{docstore.Where("buyer", docstore.Eq, buyer)}
	}
	return list[model.PackingEntry](ctx, s.layer, module.MerchPackingList, who, opts)
}

// SavePacking creates an entry when id is empty and replaces it otherwise.
func (s *merchService) SavePacking(ctx context.Context, who *identity.Identity, id string, e model.PackingEntry) (*model.PackingEntry, error) {
	e.Buyer = strings.TrimSpace(e.Buyer)
	if e.Buyer == "" {
		return nil, apperrors.Invalid("Buyer not selected!")
	}
	data, err := payload(e)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id, err = s.layer.Create(ctx, module.MerchPackingList, who, data)
	} else {
		err = s.layer.Update(ctx, module.MerchPackingList, who, id, data)
	}
	if err != nil {
		return nil, err
	}
	return load[model.PackingEntry](ctx, s.layer, module.MerchPackingList, who, id)
}

func (s *merchService) DeletePacking(ctx context.Context, who *identity.Identity, id string) error {
	return s.layer.Delete(ctx, module.MerchPackingList, who, id)
}
