// Package records is the module data layer: every read and write of module
// data goes through the path resolver and, for owner-scoped stores, the
// ownership rules.
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"trimsdesk/internal/docstore"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/metrics"
	"trimsdesk/internal/module"
	"trimsdesk/internal/tenancy"
)

// Audit fields stamped by the layer.
const (
	FieldCreatedBy   = tenancy.CreatedByField
	FieldCreatorName = "creatorName"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
)

// TimeLayout is the timestamp format stored in documents.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ListOptions narrows a List.
type ListOptions struct {
	Filters []docstore.Filter
	Order   []docstore.Order
}

// Layer reads and writes module stores on behalf of an identity.
type Layer struct {
	store    docstore.Store
	resolver *tenancy.Resolver
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewLayer creates a data layer. m may be nil.
func NewLayer(store docstore.Store, resolver *tenancy.Resolver, m *metrics.Metrics, log logrus.FieldLogger) *Layer {
	return &Layer{
		store:    store,
		resolver: resolver,
		metrics:  m,
		log:      log.WithField("component", "records"),
		now:      time.Now,
	}
}

// Now returns the current time formatted for storage.
func (l *Layer) Now() string {
	return l.now().UTC().Format(TimeLayout)
}

// Today returns the current date as YYYY-MM-DD.
func (l *Layer) Today() string {
	return l.now().UTC().Format(time.DateOnly)
}

// Path resolves the collection of s for who.
func (l *Layer) Path(s module.Store, who *identity.Identity) string {
	return l.resolver.Resolve(s, who)
}

func ownerScoped(s module.Store) bool {
	info, _ := s.Lookup()
	return info.OwnerScoped
}

// List returns the records of s visible to who.
func (l *Layer) List(ctx context.Context, s module.Store, who *identity.Identity, opts ListOptions) ([]docstore.Document, error) {
	path := l.Path(s, who)
	docs, err := l.store.Query(ctx, docstore.Query{Path: path, Filters: opts.Filters, Order: opts.Order})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s, err)
	}
	if ownerScoped(s) {
		docs = tenancy.FilterOwned(docs, who)
	}
	return docs, nil
}

// Get returns one record. Records hidden by ownership are reported as not found.
func (l *Layer) Get(ctx context.Context, s module.Store, who *identity.Identity, id string) (docstore.Document, error) {
	doc, err := l.store.Get(ctx, l.Path(s, who), id)
	if errors.Is(err, docstore.ErrNotFound) {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", s, id, apperrors.ErrNotFound)
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", s, id, err)
	}
	if ownerScoped(s) && !tenancy.Visible(doc, who) {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", s, id, apperrors.ErrNotFound)
	}
	return doc, nil
}

// stamp adds creation fields to data in place.
func (l *Layer) stamp(s module.Store, who *identity.Identity, data map[string]any, now string) {
	if ownerScoped(s) && who != nil {
		data[FieldCreatedBy] = who.Username
		data[FieldCreatorName] = who.DisplayName()
	}
	if v, ok := data[FieldCreatedAt]; !ok || v == nil || v == "" {
		data[FieldCreatedAt] = now
	}
}

// Create adds a record and returns its id.
func (l *Layer) Create(ctx context.Context, s module.Store, who *identity.Identity, data map[string]any) (string, error) {
	data = clone(data)
	l.stamp(s, who, data, l.Now())
	id, err := l.store.Add(ctx, l.Path(s, who), data)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", s, err)
	}
	return id, nil
}

// guard loads id and checks that who may change it. Records owned by someone
// else are refused with ErrNotOwner.
func (l *Layer) guard(ctx context.Context, s module.Store, who *identity.Identity, id string) error {
	doc, err := l.store.Get(ctx, l.Path(s, who), id)
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("modify %s/%s: %w", s, id, apperrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("modify %s/%s: %w", s, id, err)
	}
	if ownerScoped(s) && !tenancy.CanModify(doc, who) {
		l.log.WithFields(logrus.Fields{"store": string(s), "id": id, "owner": tenancy.Owner(doc)}).Warn("write refused, not owner")
		return fmt.Errorf("modify %s/%s: %w", s, id, apperrors.ErrNotOwner)
	}
	return nil
}

// Update merges patch into a record. Ownership fields cannot be changed.
func (l *Layer) Update(ctx context.Context, s module.Store, who *identity.Identity, id string, patch map[string]any) error {
	if err := l.guard(ctx, s, who, id); err != nil {
		return err
	}
	patch = clone(patch)
	delete(patch, FieldCreatedBy)
	delete(patch, FieldCreatorName)
	delete(patch, FieldCreatedAt)
	patch[FieldUpdatedAt] = l.Now()
	if err := l.store.Update(ctx, l.Path(s, who), id, patch); err != nil {
		return fmt.Errorf("update %s/%s: %w", s, id, err)
	}
	return nil
}

// Delete removes a record.
func (l *Layer) Delete(ctx context.Context, s module.Store, who *identity.Identity, id string) error {
	if err := l.guard(ctx, s, who, id); err != nil {
		return err
	}
	if err := l.store.Delete(ctx, l.Path(s, who), id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", s, id, err)
	}
	return nil
}

// SubmitBatch writes rows atomically to one collection and returns their ids.
func (l *Layer) SubmitBatch(ctx context.Context, s module.Store, who *identity.Identity, rows []map[string]any) ([]string, error) {
	path := l.Path(s, who)
	now := l.Now()
	writes := make([]docstore.Write, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		data := clone(row)
		l.stamp(s, who, data, now)
		id := ulid.Make().String()
		ids = append(ids, id)
		writes = append(writes, docstore.Write{Kind: docstore.WriteSet, Path: path, ID: id, Data: data})
	}
	if err := l.store.Batch(ctx, writes); err != nil {
		return nil, fmt.Errorf("submit %d %s: %w", len(rows), s, err)
	}
	return ids, nil
}

// Rewrite applies one patch to many records of s in a single batch. It is
// used for admin bulk edits such as renaming a buyer across bookings.
func (l *Layer) Rewrite(ctx context.Context, s module.Store, who *identity.Identity, ids []string, patch map[string]any) error {
	if len(ids) == 0 {
		return nil
	}
	path := l.Path(s, who)
	now := l.Now()
	writes := make([]docstore.Write, 0, len(ids))
	for _, id := range ids {
		p := clone(patch)
		p[FieldUpdatedAt] = now
		writes = append(writes, docstore.Write{Kind: docstore.WriteUpdate, Path: path, ID: id, Data: p})
	}
	if err := l.store.Batch(ctx, writes); err != nil {
		return fmt.Errorf("rewrite %d %s: %w", len(ids), s, err)
	}
	return nil
}

func clone(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+4)
	for k, v := range data {
		out[k] = v
	}
	return out
}
