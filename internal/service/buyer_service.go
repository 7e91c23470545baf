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

// BuyerService manages the shared buyer directory.
type BuyerService interface {
	List(ctx context.Context, who *identity.Identity) ([]model.Buyer, error)
	Add(ctx context.Context, who *identity.Identity, name string) (*model.Buyer, error)
	Rename(ctx context.Context, who *identity.Identity, id, name string) (*model.Buyer, error)
	Delete(ctx context.Context, who *identity.Identity, id string) error
	// Remap rewrites the buyer of every booking visible to who according to
	// mapping (old name to directory name) and returns how many were changed.
	Remap(ctx context.Context, who *identity.Identity, mapping map[string]string) (int, error)
}

type buyerService struct {
	layer *records.Layer
}

// NewBuyerService creates a buyer directory service.
func NewBuyerService(layer *records.Layer) BuyerService {
	return &buyerService{layer: layer}
}

func (s *buyerService) List(ctx context.Context, who *identity.Identity) ([]model.Buyer, error) {
	return list[model.Buyer](ctx, s.layer, module.Buyers, who, records.ListOptions{
		Order: []docstore.Order{docstore.Asc("name")},
	})
}

func (s *buyerService) Add(ctx context.Context, who *identity.Identity, name string) (*model.Buyer, error) {
	name = strings.TrimSpace(name)
	if err := required(name, "Please enter buyer name."); err != nil {
		return nil, err
	}
	if err := s.unique(ctx, who, "", name); err != nil {
		return nil, err
	}
	id, err := s.layer.Create(ctx, module.Buyers, who, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	return load[model.Buyer](ctx, s.layer, module.Buyers, who, id)
}

func (s *buyerService) Rename(ctx context.Context, who *identity.Identity, id, name string) (*model.Buyer, error) {
	name = strings.TrimSpace(name)
	if err := required(name, "Please enter buyer name."); err != nil {
		return nil, err
	}
	if err := s.unique(ctx, who, id, name); err != nil {
		return nil, err
	}
	if err := s.layer.Update(ctx, module.Buyers, who, id, map[string]any{"name": name}); err != nil {
		return nil, err
	}
	return load[model.Buyer](ctx, s.layer, module.Buyers, who, id)
}

// Delete removes a buyer that no visible booking refers to.
func (s *buyerService) Delete(ctx context.Context, who *identity.Identity, id string) error {
	buyer, err := load[model.Buyer](ctx, s.layer, module.Buyers, who, id)
	if err != nil {
		return err
	}
	used, err := s.layer.List(ctx, module.Bookings, who, records.ListOptions{
		Filters: []docstore.Filter{docstore.Where("buyer", docstore.Eq, buyer.Name)},
	})
	if err != nil {
		return err
	}
	if len(used) > 0 {
		return apperrors.Invalid(fmt.Sprintf("Buyer %q is used in %d booking(s).", buyer.Name, len(used)))
	}
	return s.layer.Delete(ctx, module.Buyers, who, id)
}

func (s *buyerService) Remap(ctx context.Context, who *identity.Identity, mapping map[string]string) (int, error) {
	targets := make(map[string]string, len(mapping))
	for from, to := range mapping {
		if from == to || strings.TrimSpace(to) == "" {
			continue
		}
		buyer, err := findBuyer(ctx, s.layer, who, to)
		if err != nil {
			return 0, err
		}
		if buyer == nil {
			return 0, apperrors.Invalid(fmt.Sprintf("Buyer %q is not in the buyer library.", to))
		}
		targets[from] = buyer.Name
	}
	if len(targets) == 0 {
		return 0, nil
	}

	bookings, err := s.layer.List(ctx, module.Bookings, who, records.ListOptions{})
	if err != nil {
		return 0, err
	}
	byTarget := make(map[string][]string)
	for _, b := range bookings {
		if to, ok := targets[b.String("buyer")]; ok && to != b.String("buyer") {
			byTarget[to] = append(byTarget[to], b.ID)
		}
	}

	updated := 0
	for to, ids := range byTarget {
		if err := s.layer.Rewrite(ctx, module.Bookings, who, ids, map[string]any{"buyer": to}); err != nil {
			return updated, err
		}
		updated += len(ids)
	}
	return updated, nil
}

func (s *buyerService) unique(ctx context.Context, who *identity.Identity, id, name string) error {
	existing, err := findBuyer(ctx, s.layer, who, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != id {
		return apperrors.Invalid("This buyer already exists.")
	}
	return nil
}
