// Package docstore is the collection-scoped document database the application
// is built on. Documents are schemaless maps addressed by (collection path, id);
// nested collections are plain path strings such as "users/alice/personal_tasks".
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is one stored record.
type Document struct {
	ID   string         `json:"id"`
	Path string         `json:"-"`
	Data map[string]any `json:"data"`
}

// Get returns a field value and whether it is present and non-nil.
// DocumentID yields the id.
func (d Document) Get(field string) (any, bool) {
	if field == DocumentID {
		return d.ID, true
	}
	v, ok := d.Data[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns a string field or "".
func (d Document) String(field string) string {
	v, _ := d.Data[field].(string)
	return v
}

// Operator is a filter comparison.
type Operator string

const (
	Eq  Operator = "=="
	Ne  Operator = "!="
	Lt  Operator = "<"
	Lte Operator = "<="
	Gt  Operator = ">"
	Gte Operator = ">="
	In  Operator = "in"
)

// Filter restricts a query to documents whose field satisfies Op against Value.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// DocumentID names the document id in a Filter or Order instead of a data
// field.
const DocumentID = "__id__"

// Where is shorthand for a Filter.
func Where(field string, op Operator, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Order sorts query results by a field.
type Order struct {
	Field string
	Desc  bool
}

// Asc and Desc build orderings.
func Asc(field string) Order  { return Order{Field: field} }
func Desc(field string) Order { return Order{Field: field, Desc: true} }

// Query bundles the read parameters shared by Query and Subscribe.
type Query struct {
	Path    string
	Filters []Filter
	Order   []Order
}

// WriteKind is the kind of a batched write.
type WriteKind int

const (
	WriteSet WriteKind = iota
	WriteUpdate
	WriteDelete
)

// Write is a single operation inside a batch. An empty ID on WriteSet
// allocates a new document id.
type Write struct {
	Kind WriteKind
	Path string
	ID   string
	Data map[string]any
}

// deleteField is the sentinel type behind DeleteField.
type deleteField struct{}

// DeleteField removes a field when used as a value in Update.
var DeleteField any = deleteField{}

// Store is the backing document database.
type Store interface {
	Get(ctx context.Context, path, id string) (Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	// Subscribe delivers the full result set of q now and after every change to
	// q.Path until ctx ends or the subscription is closed.
	Subscribe(ctx context.Context, q Query) (*Subscription, error)
	Add(ctx context.Context, path string, data map[string]any) (string, error)
	Set(ctx context.Context, path, id string, data map[string]any) error
	Update(ctx context.Context, path, id string, patch map[string]any) error
	Delete(ctx context.Context, path, id string) error
	// Batch applies all writes atomically.
	Batch(ctx context.Context, writes []Write) error
}
