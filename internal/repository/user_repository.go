package repository

import (
	"context"
	"errors"
	"fmt"

	"trimsdesk/internal/docstore"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = docstore.ErrNotFound

// UserRepository defines persistence operations on the users collection.
// Users are keyed by username.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, username string, patch map[string]any) error
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, username string) error
	Watch(ctx context.Context, username string) (*docstore.Subscription, error)
}

type userRepository struct {
	store docstore.Store
}

// NewUserRepository builds a document-store backed repository.
func NewUserRepository(store docstore.Store) UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	data, err := docstore.Encode(user)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, module.UsersCollection, user.Username, data)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	doc, err := r.store.Get(ctx, module.UsersCollection, username)
	if err != nil {
		return nil, err
	}
	return DecodeUser(doc)
}

func (r *userRepository) Exists(ctx context.Context, username string) (bool, error) {
	_, err := r.store.Get(ctx, module.UsersCollection, username)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *userRepository) Update(ctx context.Context, username string, patch map[string]any) error {
	return r.store.Update(ctx, module.UsersCollection, username, patch)
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	docs, err := r.store.Query(ctx, docstore.Query{Path: module.UsersCollection})
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		u, err := DecodeUser(d)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, username string) error {
	return r.store.Delete(ctx, module.UsersCollection, username)
}

// Watch subscribes to the single record of username, matched by document id
// like every other lookup.
func (r *userRepository) Watch(ctx context.Context, username string) (*docstore.Subscription, error) {
	return r.store.Subscribe(ctx, docstore.Query{
		Path:    module.UsersCollection,
		Filters: []docstore.Filter{docstore.Where(docstore.DocumentID, docstore.Eq, username)},
	})
}

// DecodeUser converts a users document. Records without a username field take
// it from the document id.
func DecodeUser(d docstore.Document) (*model.User, error) {
	var u model.User
	if err := docstore.Decode(d, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.Username == "" {
		u.Username = d.ID
	}
	return &u, nil
}
