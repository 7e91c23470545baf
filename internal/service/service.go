// Package service implements the module operations on top of the data layer.
// Every method takes the acting identity; path resolution, ownership and
// audit stamping happen below in package records.
package service

import (
	"context"
	"errors"
	"strings"

	"trimsdesk/internal/docstore"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
)

// payload encodes v for a write. Audit fields are owned by the data layer and
// never taken from callers.
func payload(v any) (map[string]any, error) {
	data, err := docstore.Encode(v)
	if err != nil {
		return nil, err
	}
	delete(data, records.FieldCreatedBy)
	delete(data, records.FieldCreatorName)
	delete(data, records.FieldCreatedAt)
	delete(data, records.FieldUpdatedAt)
	return data, nil
}

func decode[T any](d docstore.Document) (*T, error) {
	var v T
	if err := docstore.Decode(d, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func load[T any](ctx context.Context, layer *records.Layer, s module.Store, who *identity.Identity, id string) (*T, error) {
	d, err := layer.Get(ctx, s, who, id)
	if err != nil {
		return nil, err
	}
	return decode[T](d)
}

func list[T any](ctx context.Context, layer *records.Layer, s module.Store, who *identity.Identity, opts records.ListOptions) ([]T, error) {
	docs, err := layer.List(ctx, s, who, opts)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[T](docs)
}

func newestFirst(field string) records.ListOptions {
	return records.ListOptions{Order: []docstore.Order{docstore.Desc(field)}}
}

func required(value, msg string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.Invalid(msg)
	}
	return nil
}

// findBuyer looks name up in the shared buyer directory, ignoring case.
func findBuyer(ctx context.Context, layer *records.Layer, who *identity.Identity, name string) (*model.Buyer, error) {
	buyers, err := list[model.Buyer](ctx, layer, module.Buyers, who, records.ListOptions{})
	if err != nil {
		return nil, err
	}
	for i := range buyers {
		if strings.EqualFold(buyers[i].Name, name) {
			return &buyers[i], nil
		}
	}
	return nil, nil
}

// notFound reports missing system documents with the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}
